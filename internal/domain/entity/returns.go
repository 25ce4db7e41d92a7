package entity

import (
	"encoding/json"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Return references an original sale and carries the returns workflow
// state. Monetary fields are stored in cents.
type Return struct {
	ID                 uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	TenantID           uuid.UUID           `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ReturnNumber       string              `gorm:"size:100;unique;not null" json:"return_number"`
	SaleID             uuid.UUID           `gorm:"type:uuid;not null;index" json:"sale_id"`
	ReturnType         enum.ReturnType     `gorm:"default:0" json:"return_type"`
	SettlementType     enum.SettlementType `gorm:"default:0" json:"settlement_type"`
	Reason             string              `gorm:"type:text" json:"reason"`
	SubtotalAmount     int64               `gorm:"default:0" json:"-"`
	TaxAmount          int64               `gorm:"default:0" json:"-"`
	TotalAmount        int64               `gorm:"default:0" json:"-"`
	RestockingFee      int64               `gorm:"default:0" json:"-"`
	NetRefundAmount    int64               `gorm:"default:0" json:"-"`
	Status             enum.ReturnStatus   `gorm:"default:0" json:"status"`
	ApprovedBy         *string             `gorm:"size:255" json:"approved_by,omitempty"`
	ApprovalNotes      *string             `gorm:"type:text" json:"approval_notes,omitempty"`
	ApprovalDecidedAt  *time.Time          `json:"approval_decided_at,omitempty"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	DeletedAt          gorm.DeletedAt      `gorm:"index" json:"-"`

	// Relationships
	Tenant     Tenant       `gorm:"foreignKey:TenantID" json:"-"`
	Sale       Sale         `gorm:"foreignKey:SaleID" json:"-"`
	Items      []ReturnItem `gorm:"foreignKey:ReturnID" json:"items,omitempty"`
	CreditNote *CreditNote  `gorm:"foreignKey:ReturnID" json:"credit_note,omitempty"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (r Return) MarshalJSON() ([]byte, error) {
	type Alias Return
	return json.Marshal(&struct {
		Alias
		SubtotalAmount  float64 `json:"subtotal_amount"`
		TaxAmount       float64 `json:"tax_amount"`
		TotalAmount     float64 `json:"total_amount"`
		RestockingFee   float64 `json:"restocking_fee"`
		NetRefundAmount float64 `json:"net_refund_amount"`
	}{
		Alias:           Alias(r),
		SubtotalAmount:  float64(r.SubtotalAmount) / 100,
		TaxAmount:       float64(r.TaxAmount) / 100,
		TotalAmount:     float64(r.TotalAmount) / 100,
		RestockingFee:   float64(r.RestockingFee) / 100,
		NetRefundAmount: float64(r.NetRefundAmount) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new return
func (r *Return) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Return model
func (Return) TableName() string {
	return "returns"
}

// ReturnItem is one returned unit group against an original sale item.
type ReturnItem struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	TenantID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ReturnID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"return_id"`
	SaleItemID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"sale_item_id"`
	ItemID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"item_id"`
	BatchID       *uuid.UUID       `gorm:"type:uuid;index" json:"batch_id,omitempty"`
	Quantity      int              `gorm:"not null" json:"quantity"`
	UnitPrice     int64            `gorm:"not null" json:"-"`
	LineTotal     int64            `gorm:"not null" json:"-"`
	Condition     *string          `gorm:"size:100" json:"condition,omitempty"`
	IsRestockable bool             `gorm:"default:false" json:"is_restockable"`
	Disposition   enum.Disposition `gorm:"default:0" json:"disposition"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	// Relationships
	Return   Return   `gorm:"foreignKey:ReturnID" json:"-"`
	SaleItem SaleItem `gorm:"foreignKey:SaleItemID" json:"-"`
	Item     Item     `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Batch    *Batch   `gorm:"foreignKey:BatchID" json:"-"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (ri ReturnItem) MarshalJSON() ([]byte, error) {
	type Alias ReturnItem
	return json.Marshal(&struct {
		Alias
		UnitPrice float64 `json:"unit_price"`
		LineTotal float64 `json:"line_total"`
	}{
		Alias:     Alias(ri),
		UnitPrice: float64(ri.UnitPrice) / 100,
		LineTotal: float64(ri.LineTotal) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new return item
func (ri *ReturnItem) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ReturnItem model
func (ReturnItem) TableName() string {
	return "return_items"
}

// CreditNote is a redeemable balance issued by a completed credit-note
// return. UsedAmount + RemainingAmount always equals OriginalAmount.
type CreditNote struct {
	ID               uuid.UUID             `gorm:"type:uuid;primary_key" json:"id"`
	TenantID         uuid.UUID             `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CreditNoteNumber string                `gorm:"size:100;unique;not null" json:"credit_note_number"`
	ReturnID         uuid.UUID             `gorm:"type:uuid;not null;index" json:"return_id"`
	OriginalAmount   int64                 `gorm:"not null" json:"-"`
	UsedAmount       int64                 `gorm:"default:0" json:"-"`
	RemainingAmount  int64                 `gorm:"not null" json:"-"`
	Status           enum.CreditNoteStatus `gorm:"default:0" json:"status"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`

	// Relationships
	Return Return `gorm:"foreignKey:ReturnID" json:"-"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (cn CreditNote) MarshalJSON() ([]byte, error) {
	type Alias CreditNote
	return json.Marshal(&struct {
		Alias
		OriginalAmount  float64 `json:"original_amount"`
		UsedAmount      float64 `json:"used_amount"`
		RemainingAmount float64 `json:"remaining_amount"`
	}{
		Alias:           Alias(cn),
		OriginalAmount:  float64(cn.OriginalAmount) / 100,
		UsedAmount:      float64(cn.UsedAmount) / 100,
		RemainingAmount: float64(cn.RemainingAmount) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new credit note
func (cn *CreditNote) BeforeCreate(tx *gorm.DB) error {
	if cn.ID == uuid.Nil {
		cn.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CreditNote model
func (CreditNote) TableName() string {
	return "credit_notes"
}
