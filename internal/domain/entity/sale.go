package entity

import (
	"encoding/json"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sale represents a completed or voided point-of-sale transaction. All
// monetary fields are stored in cents.
type Sale struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	TenantID       uuid.UUID          `gorm:"type:uuid;not null;index" json:"tenant_id"`
	SaleNumber     string             `gorm:"size:100;unique;not null" json:"sale_number"`
	InvoiceNumber  string             `gorm:"size:100;unique;not null" json:"invoice_number"`
	SaleType       enum.SaleType      `gorm:"default:0" json:"sale_type"`
	CustomerName   *string            `gorm:"size:255" json:"customer_name,omitempty"`
	PrescriptionID *uuid.UUID         `gorm:"type:uuid" json:"prescription_id,omitempty"`
	SubtotalAmount int64              `gorm:"default:0" json:"-"`
	TaxAmount      int64              `gorm:"default:0" json:"-"`
	DiscountAmount int64              `gorm:"default:0" json:"-"`
	TotalAmount    int64              `gorm:"default:0" json:"-"`
	AmountPaid     int64              `gorm:"default:0" json:"-"`
	AmountDue      int64              `gorm:"default:0" json:"-"`
	ChangeGiven    int64              `gorm:"default:0" json:"-"`
	PaymentStatus  enum.PaymentStatus `gorm:"default:0" json:"payment_status"`
	Status         enum.SaleStatus    `gorm:"default:0" json:"status"`
	VoidReason     *string            `gorm:"type:text" json:"void_reason,omitempty"`
	VoidedBy       *string            `gorm:"size:255" json:"voided_by,omitempty"`
	VoidedAt       *time.Time         `json:"voided_at,omitempty"`
	Notes          *string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	DeletedAt      gorm.DeletedAt     `gorm:"index" json:"-"`

	// Relationships
	Tenant   Tenant     `gorm:"foreignKey:TenantID" json:"-"`
	Items    []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`
	Payments []Payment  `gorm:"foreignKey:SaleID" json:"payments,omitempty"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (s Sale) MarshalJSON() ([]byte, error) {
	type Alias Sale
	return json.Marshal(&struct {
		Alias
		SubtotalAmount float64 `json:"subtotal_amount"`
		TaxAmount      float64 `json:"tax_amount"`
		DiscountAmount float64 `json:"discount_amount"`
		TotalAmount    float64 `json:"total_amount"`
		AmountPaid     float64 `json:"amount_paid"`
		AmountDue      float64 `json:"amount_due"`
		ChangeGiven    float64 `json:"change_given"`
	}{
		Alias:          Alias(s),
		SubtotalAmount: float64(s.SubtotalAmount) / 100,
		TaxAmount:      float64(s.TaxAmount) / 100,
		DiscountAmount: float64(s.DiscountAmount) / 100,
		TotalAmount:    float64(s.TotalAmount) / 100,
		AmountPaid:     float64(s.AmountPaid) / 100,
		AmountDue:      float64(s.AmountDue) / 100,
		ChangeGiven:    float64(s.ChangeGiven) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new sale
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}

// SaleItem is one (requested line, batch allocation) pair. A single
// requested line yields multiple rows when FEFO split it across batches.
// ReturnedQuantity is the cumulative cap counter for the returns workflow.
type SaleItem struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TenantID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	SaleID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"sale_id"`
	ItemID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"item_id"`
	BatchID          *uuid.UUID     `gorm:"type:uuid;index" json:"batch_id,omitempty"`
	Quantity         int            `gorm:"not null" json:"quantity"`
	UnitPrice        int64          `gorm:"not null" json:"-"`
	DiscountPercent  float64        `gorm:"type:decimal(5,2);default:0" json:"discount_percent"`
	TaxPercent       float64        `gorm:"type:decimal(5,2);default:0" json:"tax_percent"`
	LineTotal        int64          `gorm:"not null" json:"-"`
	ReturnedQuantity int            `gorm:"default:0" json:"returned_quantity"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Sale  Sale   `gorm:"foreignKey:SaleID" json:"-"`
	Item  Item   `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Batch *Batch `gorm:"foreignKey:BatchID" json:"-"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (si SaleItem) MarshalJSON() ([]byte, error) {
	type Alias SaleItem
	return json.Marshal(&struct {
		Alias
		UnitPrice float64 `json:"unit_price"`
		LineTotal float64 `json:"line_total"`
	}{
		Alias:     Alias(si),
		UnitPrice: float64(si.UnitPrice) / 100,
		LineTotal: float64(si.LineTotal) / 100,
	})
}

// ReturnableQuantity is how many units of this row can still be returned.
func (si *SaleItem) ReturnableQuantity() int {
	return si.Quantity - si.ReturnedQuantity
}

// BeforeCreate generates a UUID before creating a new sale item
func (si *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if si.ID == uuid.Nil {
		si.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleItem model
func (SaleItem) TableName() string {
	return "sale_items"
}

// Payment is one tendered method on a sale. Method-specific metadata lives
// in the optional columns for its method.
type Payment struct {
	ID                uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	TenantID          uuid.UUID          `gorm:"type:uuid;not null;index" json:"tenant_id"`
	SaleID            uuid.UUID          `gorm:"type:uuid;not null;index" json:"sale_id"`
	Method            enum.PaymentMethod `gorm:"not null" json:"method"`
	Amount            int64              `gorm:"not null" json:"-"`
	CardLast4         *string            `gorm:"size:4" json:"card_last4,omitempty"`
	InsuranceProvider *string            `gorm:"size:255" json:"insurance_provider,omitempty"`
	ClaimNumber       *string            `gorm:"size:100" json:"claim_number,omitempty"`
	CreditNoteID      *uuid.UUID         `gorm:"type:uuid" json:"credit_note_id,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`

	// Relationships
	Sale Sale `gorm:"foreignKey:SaleID" json:"-"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (p Payment) MarshalJSON() ([]byte, error) {
	type Alias Payment
	return json.Marshal(&struct {
		Alias
		Amount float64 `json:"amount"`
	}{
		Alias:  Alias(p),
		Amount: float64(p.Amount) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
