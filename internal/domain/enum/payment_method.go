package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentMethod is the tender type of a sale payment
type PaymentMethod int

const (
	PaymentMethodCash       PaymentMethod = 0
	PaymentMethodCard       PaymentMethod = 1
	PaymentMethodInsurance  PaymentMethod = 2
	PaymentMethodCreditNote PaymentMethod = 3
)

// ParsePaymentMethod converts a wire string to a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch s {
	case "cash":
		return PaymentMethodCash, nil
	case "card":
		return PaymentMethodCard, nil
	case "insurance":
		return PaymentMethodInsurance, nil
	case "credit_note":
		return PaymentMethodCreditNote, nil
	}
	return PaymentMethodCash, fmt.Errorf("unknown payment method %q", s)
}

func (m PaymentMethod) String() string {
	names := [...]string{"cash", "card", "insurance", "credit_note"}
	if int(m) < 0 || int(m) >= len(names) {
		return "cash"
	}
	return names[m]
}

func (m PaymentMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*m = PaymentMethod(i)
		return nil
	}
	parsed, err := ParsePaymentMethod(str)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m PaymentMethod) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *PaymentMethod) Scan(value interface{}) error {
	if value == nil {
		*m = PaymentMethodCash
		return nil
	}
	switch v := value.(type) {
	case int64:
		*m = PaymentMethod(v)
	case int:
		*m = PaymentMethod(v)
	}
	return nil
}
