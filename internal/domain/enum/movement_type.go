package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MovementType classifies a stock ledger entry
type MovementType int

const (
	MovementTypePurchase       MovementType = 0
	MovementTypeSale           MovementType = 1
	MovementTypeAdjustment     MovementType = 2
	MovementTypeReturnRestock  MovementType = 3
	MovementTypeExpiryWriteoff MovementType = 4
)

func (m MovementType) String() string {
	names := [...]string{"purchase", "sale", "adjustment", "return_restock", "expiry_writeoff"}
	if int(m) < 0 || int(m) >= len(names) {
		return "adjustment"
	}
	return names[m]
}

func (m MovementType) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *MovementType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*m = MovementType(i)
		return nil
	}
	switch str {
	case "purchase":
		*m = MovementTypePurchase
	case "sale":
		*m = MovementTypeSale
	case "adjustment":
		*m = MovementTypeAdjustment
	case "return_restock":
		*m = MovementTypeReturnRestock
	case "expiry_writeoff":
		*m = MovementTypeExpiryWriteoff
	}
	return nil
}

func (m MovementType) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *MovementType) Scan(value interface{}) error {
	if value == nil {
		*m = MovementTypeAdjustment
		return nil
	}
	switch v := value.(type) {
	case int64:
		*m = MovementType(v)
	case int:
		*m = MovementType(v)
	}
	return nil
}

// ParseMovementType converts a wire string to a MovementType.
func ParseMovementType(s string) (MovementType, error) {
	switch s {
	case "purchase":
		return MovementTypePurchase, nil
	case "sale":
		return MovementTypeSale, nil
	case "adjustment":
		return MovementTypeAdjustment, nil
	case "return_restock":
		return MovementTypeReturnRestock, nil
	case "expiry_writeoff":
		return MovementTypeExpiryWriteoff, nil
	}
	return MovementTypePurchase, fmt.Errorf("unknown movement type %q", s)
}
