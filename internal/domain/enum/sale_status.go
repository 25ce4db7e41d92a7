package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SaleStatus represents the status of a sale
type SaleStatus int

const (
	SaleStatusCompleted SaleStatus = 0
	SaleStatusVoided    SaleStatus = 1
)

func (s SaleStatus) String() string {
	names := [...]string{"completed", "voided"}
	if int(s) < 0 || int(s) >= len(names) {
		return "completed"
	}
	return names[s]
}

func (s SaleStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SaleStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = SaleStatus(i)
		return nil
	}
	switch str {
	case "completed":
		*s = SaleStatusCompleted
	case "voided":
		*s = SaleStatusVoided
	}
	return nil
}

func (s SaleStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *SaleStatus) Scan(value interface{}) error {
	if value == nil {
		*s = SaleStatusCompleted
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = SaleStatus(v)
	case int:
		*s = SaleStatus(v)
	}
	return nil
}

// SaleType distinguishes walk-in sales from prescription dispensing
type SaleType int

const (
	SaleTypeWalkIn       SaleType = 0
	SaleTypePrescription SaleType = 1
)

func (t SaleType) String() string {
	names := [...]string{"walk_in", "prescription"}
	if int(t) < 0 || int(t) >= len(names) {
		return "walk_in"
	}
	return names[t]
}

func (t SaleType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *SaleType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = SaleType(i)
		return nil
	}
	switch str {
	case "walk_in":
		*t = SaleTypeWalkIn
	case "prescription":
		*t = SaleTypePrescription
	}
	return nil
}

func (t SaleType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *SaleType) Scan(value interface{}) error {
	if value == nil {
		*t = SaleTypeWalkIn
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = SaleType(v)
	case int:
		*t = SaleType(v)
	}
	return nil
}

// PaymentStatus reflects whether a sale has been fully tendered
type PaymentStatus int

const (
	PaymentStatusPaid    PaymentStatus = 0
	PaymentStatusPartial PaymentStatus = 1
)

func (s PaymentStatus) String() string {
	names := [...]string{"paid", "partial"}
	if int(s) < 0 || int(s) >= len(names) {
		return "paid"
	}
	return names[s]
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = PaymentStatus(i)
		return nil
	}
	switch str {
	case "paid":
		*s = PaymentStatusPaid
	case "partial":
		*s = PaymentStatusPartial
	}
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PaymentStatusPaid
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = PaymentStatus(v)
	case int:
		*s = PaymentStatus(v)
	}
	return nil
}

// ParseSaleStatus converts a wire string to a SaleStatus.
func ParseSaleStatus(s string) (SaleStatus, error) {
	switch s {
	case "completed":
		return SaleStatusCompleted, nil
	case "voided":
		return SaleStatusVoided, nil
	}
	return SaleStatusCompleted, fmt.Errorf("unknown sale status %q", s)
}

// ParseSaleType converts a wire string to a SaleType.
func ParseSaleType(s string) (SaleType, error) {
	switch s {
	case "walk_in":
		return SaleTypeWalkIn, nil
	case "prescription":
		return SaleTypePrescription, nil
	}
	return SaleTypeWalkIn, fmt.Errorf("unknown sale type %q", s)
}
