package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ReturnStatus tracks a return through its workflow states
type ReturnStatus int

const (
	ReturnStatusPending         ReturnStatus = 0
	ReturnStatusPendingApproval ReturnStatus = 1
	ReturnStatusApproved        ReturnStatus = 2
	ReturnStatusCompleted       ReturnStatus = 3
	ReturnStatusRejected        ReturnStatus = 4
)

func (s ReturnStatus) String() string {
	names := [...]string{"pending", "pending_approval", "approved", "completed", "rejected"}
	if int(s) < 0 || int(s) >= len(names) {
		return "pending"
	}
	return names[s]
}

// IsTerminal reports whether the workflow can still advance from this state.
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusCompleted || s == ReturnStatusRejected
}

func (s ReturnStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ReturnStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = ReturnStatus(i)
		return nil
	}
	switch str {
	case "pending":
		*s = ReturnStatusPending
	case "pending_approval":
		*s = ReturnStatusPendingApproval
	case "approved":
		*s = ReturnStatusApproved
	case "completed":
		*s = ReturnStatusCompleted
	case "rejected":
		*s = ReturnStatusRejected
	}
	return nil
}

func (s ReturnStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *ReturnStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ReturnStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = ReturnStatus(v)
	case int:
		*s = ReturnStatus(v)
	}
	return nil
}

// ReturnType distinguishes customer sales returns from supplier purchase returns
type ReturnType int

const (
	ReturnTypeSales    ReturnType = 0
	ReturnTypePurchase ReturnType = 1
)

func (t ReturnType) String() string {
	names := [...]string{"sales_return", "purchase_return"}
	if int(t) < 0 || int(t) >= len(names) {
		return "sales_return"
	}
	return names[t]
}

func (t ReturnType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ReturnType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = ReturnType(i)
		return nil
	}
	switch str {
	case "sales_return":
		*t = ReturnTypeSales
	case "purchase_return":
		*t = ReturnTypePurchase
	}
	return nil
}

func (t ReturnType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *ReturnType) Scan(value interface{}) error {
	if value == nil {
		*t = ReturnTypeSales
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = ReturnType(v)
	case int:
		*t = ReturnType(v)
	}
	return nil
}

// SettlementType is how a completed return is paid out
type SettlementType int

const (
	SettlementTypeRefund     SettlementType = 0
	SettlementTypeCreditNote SettlementType = 1
	SettlementTypeExchange   SettlementType = 2
)

func (t SettlementType) String() string {
	names := [...]string{"refund", "credit_note", "exchange"}
	if int(t) < 0 || int(t) >= len(names) {
		return "refund"
	}
	return names[t]
}

func (t SettlementType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *SettlementType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = SettlementType(i)
		return nil
	}
	switch str {
	case "refund":
		*t = SettlementTypeRefund
	case "credit_note":
		*t = SettlementTypeCreditNote
	case "exchange":
		*t = SettlementTypeExchange
	}
	return nil
}

func (t SettlementType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *SettlementType) Scan(value interface{}) error {
	if value == nil {
		*t = SettlementTypeRefund
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = SettlementType(v)
	case int:
		*t = SettlementType(v)
	}
	return nil
}

// Disposition records what happened to a returned unit after settlement
type Disposition int

const (
	DispositionPending   Disposition = 0
	DispositionRestocked Disposition = 1
	DispositionDisposed  Disposition = 2
)

func (d Disposition) String() string {
	names := [...]string{"pending", "restocked", "disposed"}
	if int(d) < 0 || int(d) >= len(names) {
		return "pending"
	}
	return names[d]
}

func (d Disposition) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Disposition) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*d = Disposition(i)
		return nil
	}
	switch str {
	case "pending":
		*d = DispositionPending
	case "restocked":
		*d = DispositionRestocked
	case "disposed":
		*d = DispositionDisposed
	}
	return nil
}

func (d Disposition) Value() (driver.Value, error) {
	return int64(d), nil
}

func (d *Disposition) Scan(value interface{}) error {
	if value == nil {
		*d = DispositionPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*d = Disposition(v)
	case int:
		*d = Disposition(v)
	}
	return nil
}

// ParseReturnStatus converts a wire string to a ReturnStatus.
func ParseReturnStatus(s string) (ReturnStatus, error) {
	switch s {
	case "pending":
		return ReturnStatusPending, nil
	case "pending_approval":
		return ReturnStatusPendingApproval, nil
	case "approved":
		return ReturnStatusApproved, nil
	case "completed":
		return ReturnStatusCompleted, nil
	case "rejected":
		return ReturnStatusRejected, nil
	}
	return ReturnStatusPending, fmt.Errorf("unknown return status %q", s)
}

// ParseSettlementType converts a wire string to a SettlementType.
func ParseSettlementType(s string) (SettlementType, error) {
	switch s {
	case "refund":
		return SettlementTypeRefund, nil
	case "credit_note":
		return SettlementTypeCreditNote, nil
	case "exchange":
		return SettlementTypeExchange, nil
	}
	return SettlementTypeRefund, fmt.Errorf("unknown settlement type %q", s)
}
