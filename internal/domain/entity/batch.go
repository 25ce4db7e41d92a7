package entity

import (
	"encoding/json"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Batch represents a received lot of an item. RemainingQuantity is the only
// mutable counter; it is decremented by sales and incremented by approved
// restocking returns, and must never go negative.
type Batch struct {
	ID                uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	TenantID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ItemID            uuid.UUID        `gorm:"type:uuid;not null;index" json:"item_id"`
	SupplierID        *uuid.UUID       `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	BatchNumber       string           `gorm:"size:100;not null" json:"batch_number"`
	Quantity          int              `gorm:"not null" json:"quantity"`
	RemainingQuantity int              `gorm:"not null" json:"remaining_quantity"`
	ExpiryDate        *time.Time       `gorm:"index" json:"expiry_date,omitempty"`
	PurchasePrice     int64            `gorm:"default:0" json:"-"` // Stored in cents
	Status            enum.BatchStatus `gorm:"default:0" json:"status"`
	IsExpired         bool             `gorm:"default:false" json:"is_expired"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	DeletedAt         gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relationships
	Item     Item      `gorm:"foreignKey:ItemID" json:"-"`
	Supplier *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// BeforeCreate generates a UUID before creating a new batch
func (b *Batch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Batch model
func (Batch) TableName() string {
	return "batches"
}

// HasExpired evaluates the expiry date against now. Expiry is checked at
// read time; the stored flag lags until the expiry sweep runs.
func (b *Batch) HasExpired(now time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(now)
}

// IsAvailable reports whether the batch can serve an allocation.
func (b *Batch) IsAvailable(now time.Time) bool {
	return b.Status == enum.BatchStatusActive && b.RemainingQuantity > 0 && !b.HasExpired(now)
}

// MarshalJSON converts Batch to JSON with a decimal purchase price
func (b Batch) MarshalJSON() ([]byte, error) {
	type Alias Batch
	return json.Marshal(&struct {
		Alias
		PurchasePrice float64 `json:"purchase_price"`
	}{
		Alias:         Alias(b),
		PurchasePrice: float64(b.PurchasePrice) / 100,
	})
}
