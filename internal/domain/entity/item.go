package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item represents a dispensable or sellable product in the pharmacy
// inventory. CurrentStock is a denormalized cache and must equal the sum of
// RemainingQuantity over the item's active, non-expired batches after every
// committed transaction.
type Item struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TenantID             uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_items_tenant_code" json:"tenant_id"`
	CategoryID           *uuid.UUID     `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name                 string         `gorm:"size:255;not null" json:"name"`
	Code                 string         `gorm:"size:100;not null;uniqueIndex:idx_items_tenant_code" json:"code"`
	GenericName          *string        `gorm:"size:255" json:"generic_name,omitempty"`
	PurchasePrice        int64          `gorm:"default:0" json:"-"` // Stored in cents
	SalePrice            int64          `gorm:"default:0" json:"-"` // Stored in cents
	MRP                  int64          `gorm:"default:0;column:mrp" json:"-"` // Stored in cents
	TaxRate              *float64       `gorm:"type:decimal(5,2)" json:"tax_rate,omitempty"` // Percent; nil falls back to tenant default
	CurrentStock         int            `gorm:"default:0" json:"current_stock"`
	MinimumStock         int            `gorm:"default:0" json:"minimum_stock"`
	ReorderPoint         int            `gorm:"default:0" json:"reorder_point"`
	PrescriptionRequired bool           `gorm:"default:false" json:"prescription_required"`
	BatchTracking        bool           `gorm:"default:true" json:"batch_tracking"`
	ExpiryTracking       bool           `gorm:"default:true" json:"expiry_tracking"`
	IsActive             bool           `gorm:"default:true" json:"is_active"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Tenant   Tenant    `gorm:"foreignKey:TenantID" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Batches  []Batch   `gorm:"foreignKey:ItemID" json:"batches,omitempty"`
}

// BeforeCreate generates a UUID before creating a new item
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Item model
func (Item) TableName() string {
	return "items"
}

// EffectiveTaxRate returns the item's tax rate, falling back to the tenant
// default when the item carries none.
func (i *Item) EffectiveTaxRate(tenantDefault float64) float64 {
	if i.TaxRate != nil {
		return *i.TaxRate
	}
	return tenantDefault
}

// IsLowStock reports whether the item sits at or below its minimum stock.
func (i *Item) IsLowStock() bool {
	return i.CurrentStock <= i.MinimumStock
}

// ItemJSON is a helper struct for JSON marshaling with decimal prices
type ItemJSON struct {
	ID                   uuid.UUID  `json:"id"`
	TenantID             uuid.UUID  `json:"tenant_id"`
	CategoryID           *uuid.UUID `json:"category_id,omitempty"`
	Name                 string     `json:"name"`
	Code                 string     `json:"code"`
	GenericName          *string    `json:"generic_name,omitempty"`
	PurchasePrice        float64    `json:"purchase_price"`
	SalePrice            float64    `json:"sale_price"`
	MRP                  float64    `json:"mrp"`
	TaxRate              *float64   `json:"tax_rate,omitempty"`
	CurrentStock         int        `json:"current_stock"`
	MinimumStock         int        `json:"minimum_stock"`
	ReorderPoint         int        `json:"reorder_point"`
	PrescriptionRequired bool       `json:"prescription_required"`
	BatchTracking        bool       `json:"batch_tracking"`
	ExpiryTracking       bool       `json:"expiry_tracking"`
	IsActive             bool       `json:"is_active"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	Category             *Category  `json:"category,omitempty"`
}

// MarshalJSON converts Item to JSON with decimal prices
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(ItemJSON{
		ID:                   i.ID,
		TenantID:             i.TenantID,
		CategoryID:           i.CategoryID,
		Name:                 i.Name,
		Code:                 i.Code,
		GenericName:          i.GenericName,
		PurchasePrice:        float64(i.PurchasePrice) / 100,
		SalePrice:            float64(i.SalePrice) / 100,
		MRP:                  float64(i.MRP) / 100,
		TaxRate:              i.TaxRate,
		CurrentStock:         i.CurrentStock,
		MinimumStock:         i.MinimumStock,
		ReorderPoint:         i.ReorderPoint,
		PrescriptionRequired: i.PrescriptionRequired,
		BatchTracking:        i.BatchTracking,
		ExpiryTracking:       i.ExpiryTracking,
		IsActive:             i.IsActive,
		CreatedAt:            i.CreatedAt,
		UpdatedAt:            i.UpdatedAt,
		Category:             i.Category,
	})
}

// Category represents an item category
type Category struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_categories_tenant_slug" json:"tenant_id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Slug      string         `gorm:"size:255;not null;uniqueIndex:idx_categories_tenant_slug" json:"slug"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Tenant Tenant `gorm:"foreignKey:TenantID" json:"-"`
	Items  []Item `gorm:"foreignKey:CategoryID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new category
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}
