package request

import "time"

// CreateItemRequest is the payload for registering a new item
type CreateItemRequest struct {
	Name                 string   `json:"name" binding:"required"`
	Code                 string   `json:"code" binding:"required"`
	GenericName          *string  `json:"generic_name"`
	CategoryID           string   `json:"category_id"`
	PurchasePrice        float64  `json:"purchase_price" binding:"gte=0"`
	SalePrice            float64  `json:"sale_price" binding:"gte=0"`
	MRP                  float64  `json:"mrp" binding:"gte=0"`
	TaxRate              *float64 `json:"tax_rate" binding:"omitempty,gte=0,lte=100"`
	MinimumStock         int      `json:"minimum_stock" binding:"gte=0"`
	ReorderPoint         int      `json:"reorder_point" binding:"gte=0"`
	PrescriptionRequired bool     `json:"prescription_required"`
}

// ItemFilterRequest contains query parameters for listing items
type ItemFilterRequest struct {
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
	Search     string `form:"search"`
	CategoryID string `form:"category_id"`
	LowStock   bool   `form:"low_stock"`
	ActiveOnly bool   `form:"active_only"`
	SortBy     string `form:"sort_by"`
	SortOrder  string `form:"sort_order"`
}

// ReceiveBatchRequest is the payload for receiving an inbound lot
type ReceiveBatchRequest struct {
	SupplierID    string     `json:"supplier_id"`
	BatchNumber   string     `json:"batch_number"`
	Quantity      int        `json:"quantity" binding:"required,gt=0"`
	ExpiryDate    *time.Time `json:"expiry_date"`
	PurchasePrice float64    `json:"purchase_price" binding:"gte=0"`
	Notes         *string    `json:"notes"`
}

// AdjustStockRequest is the payload for a manual stock adjustment
type AdjustStockRequest struct {
	BatchID  string  `json:"batch_id"`
	Quantity int     `json:"quantity" binding:"required"`
	Reason   string  `json:"reason" binding:"required"`
	Notes    *string `json:"notes"`
}

// MovementFilterRequest contains query parameters for the movement ledger
type MovementFilterRequest struct {
	Page         int    `form:"page"`
	PerPage      int    `form:"per_page"`
	MovementType string `form:"movement_type"`
	StartDate    string `form:"start_date"`
	EndDate      string `form:"end_date"`
}
