package request

// SaleLineRequest is one requested item line on a sale
type SaleLineRequest struct {
	ItemID          string  `json:"item_id" binding:"required"`
	Quantity        int     `json:"quantity" binding:"required,gt=0"`
	DiscountPercent float64 `json:"discount_percent" binding:"gte=0,lte=100"`
}

// PaymentRequest is one tendered payment on a sale
type PaymentRequest struct {
	Method            string  `json:"method" binding:"required"`
	Amount            float64 `json:"amount" binding:"required,gt=0"`
	CardLast4         *string `json:"card_last4"`
	InsuranceProvider *string `json:"insurance_provider"`
	ClaimNumber       *string `json:"claim_number"`
	CreditNoteID      *string `json:"credit_note_id"`
}

// CreateSaleRequest is the payload for creating a sale
type CreateSaleRequest struct {
	SaleType        string            `json:"sale_type"`
	CustomerName    *string           `json:"customer_name"`
	PrescriptionID  *string           `json:"prescription_id"`
	Lines           []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	Payments        []PaymentRequest  `json:"payments" binding:"required,min=1,dive"`
	DiscountPercent *float64          `json:"discount_percent" binding:"omitempty,gte=0,lte=100"`
	DiscountAmount  *float64          `json:"discount_amount" binding:"omitempty,gte=0"`
	Notes           *string           `json:"notes"`
}

// VoidSaleRequest is the payload for voiding a sale
type VoidSaleRequest struct {
	Reason   string `json:"reason" binding:"required"`
	VoidedBy string `json:"voided_by"`
}

// SaleFilterRequest contains query parameters for listing sales
type SaleFilterRequest struct {
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
	Search    string `form:"search"`
	Status    string `form:"status"`
	SaleType  string `form:"sale_type"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}
