package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AlertType classifies a stock alert
type AlertType int

const (
	AlertTypeLowStock     AlertType = 0
	AlertTypeOutOfStock   AlertType = 1
	AlertTypeExpiringSoon AlertType = 2
)

func (t AlertType) String() string {
	names := [...]string{"low_stock", "out_of_stock", "expiring_soon"}
	if int(t) < 0 || int(t) >= len(names) {
		return "low_stock"
	}
	return names[t]
}

func (t AlertType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *AlertType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = AlertType(i)
		return nil
	}
	switch str {
	case "low_stock":
		*t = AlertTypeLowStock
	case "out_of_stock":
		*t = AlertTypeOutOfStock
	case "expiring_soon":
		*t = AlertTypeExpiringSoon
	}
	return nil
}

func (t AlertType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *AlertType) Scan(value interface{}) error {
	if value == nil {
		*t = AlertTypeLowStock
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = AlertType(v)
	case int:
		*t = AlertType(v)
	}
	return nil
}

// CreditNoteStatus tracks whether a credit note still has usable balance
type CreditNoteStatus int

const (
	CreditNoteStatusActive    CreditNoteStatus = 0
	CreditNoteStatusExhausted CreditNoteStatus = 1
)

func (s CreditNoteStatus) String() string {
	names := [...]string{"active", "exhausted"}
	if int(s) < 0 || int(s) >= len(names) {
		return "active"
	}
	return names[s]
}

func (s CreditNoteStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *CreditNoteStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = CreditNoteStatus(i)
		return nil
	}
	switch str {
	case "active":
		*s = CreditNoteStatusActive
	case "exhausted":
		*s = CreditNoteStatusExhausted
	}
	return nil
}

func (s CreditNoteStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *CreditNoteStatus) Scan(value interface{}) error {
	if value == nil {
		*s = CreditNoteStatusActive
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = CreditNoteStatus(v)
	case int:
		*s = CreditNoteStatus(v)
	}
	return nil
}

// ParseAlertType converts a wire string to an AlertType.
func ParseAlertType(s string) (AlertType, error) {
	switch s {
	case "low_stock":
		return AlertTypeLowStock, nil
	case "out_of_stock":
		return AlertTypeOutOfStock, nil
	case "expiring_soon":
		return AlertTypeExpiringSoon, nil
	}
	return AlertTypeLowStock, fmt.Errorf("unknown alert type %q", s)
}
