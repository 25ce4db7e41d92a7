package entity

import (
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockAlert is a deduplicated notification record. At most one unresolved
// alert may exist per (item, alert type); the partial unique index backs the
// atomic insert-if-not-exists in the repository.
type StockAlert struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TenantID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ItemID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"item_id"`
	AlertType  enum.AlertType `gorm:"not null" json:"alert_type"`
	Message    string         `gorm:"type:text;not null" json:"message"`
	Resolved   bool           `gorm:"default:false;index" json:"resolved"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`

	// Relationships
	Item Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

// BeforeCreate generates a UUID before creating a new stock alert
func (a *StockAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the StockAlert model
func (StockAlert) TableName() string {
	return "stock_alerts"
}
