package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant represents an organization in the multitenant system. Every
// inventory operation is scoped to exactly one tenant.
type Tenant struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Slug      string         `gorm:"size:255;unique;not null" json:"slug"`
	Settings  TenantSettings `gorm:"type:jsonb;serializer:json" json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TenantSettings holds per-organization inventory policy.
type TenantSettings struct {
	// DefaultTaxRate is applied to items that carry no tax rate of their own,
	// in percent.
	DefaultTaxRate float64 `json:"default_tax_rate"`
	// ReturnApprovalThreshold routes returns whose total exceeds this amount
	// (in cents) through explicit approval. Zero disables the gate.
	ReturnApprovalThreshold int64 `json:"return_approval_threshold"`
	// AlertRecipient receives low-stock and expiry notifications.
	AlertRecipient string `json:"alert_recipient"`
}

// BeforeCreate generates a UUID before creating a new tenant
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}
