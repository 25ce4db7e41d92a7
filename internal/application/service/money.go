package service

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// toCents converts a decimal currency amount to integer cents, rounding
// half away from zero.
func toCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(oneHundred).Round(0).IntPart()
}

// percentOf applies a percentage to an amount in cents.
func percentOf(amount int64, percent float64) int64 {
	if amount == 0 || percent == 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(percent)).
		Div(oneHundred).
		Round(0).
		IntPart()
}

// scaleProportional returns amount * numerator / denominator in cents.
// Used to carve a per-unit share out of a line total so the pieces of a
// split never drift from the whole.
func scaleProportional(amount, numerator, denominator int64) int64 {
	if denominator == 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(numerator)).
		Div(decimal.NewFromInt(denominator)).
		Round(0).
		IntPart()
}
