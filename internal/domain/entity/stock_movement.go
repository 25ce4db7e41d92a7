package entity

import (
	"encoding/json"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovement is an immutable ledger entry. Rows are only ever inserted;
// every stock-affecting operation writes one movement per affected batch in
// the same transaction as the item/batch mutation.
type StockMovement struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	TenantID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ItemID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"item_id"`
	BatchID       *uuid.UUID        `gorm:"type:uuid;index" json:"batch_id,omitempty"`
	MovementType  enum.MovementType `gorm:"not null" json:"movement_type"`
	Quantity      int               `gorm:"not null" json:"quantity"` // Signed: negative for outbound
	PreviousStock int               `gorm:"not null" json:"previous_stock"`
	NewStock      int               `gorm:"not null" json:"new_stock"`
	UnitCost      int64             `gorm:"default:0" json:"-"` // Stored in cents
	Reference     string            `gorm:"size:255" json:"reference"`
	Notes         *string           `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`

	// Relationships
	Item  Item   `gorm:"foreignKey:ItemID" json:"-"`
	Batch *Batch `gorm:"foreignKey:BatchID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new stock movement
func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the StockMovement model
func (StockMovement) TableName() string {
	return "stock_movements"
}

// MarshalJSON converts StockMovement to JSON with a decimal unit cost
func (m StockMovement) MarshalJSON() ([]byte, error) {
	type Alias StockMovement
	return json.Marshal(&struct {
		Alias
		UnitCost float64 `json:"unit_cost"`
	}{
		Alias:    Alias(m),
		UnitCost: float64(m.UnitCost) / 100,
	})
}
