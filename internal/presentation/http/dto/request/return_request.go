package request

// ReturnLineRequest is one returned quantity against an original sale item
type ReturnLineRequest struct {
	SaleItemID    string  `json:"sale_item_id" binding:"required"`
	Quantity      int     `json:"quantity" binding:"required,gt=0"`
	Condition     *string `json:"condition"`
	IsRestockable bool    `json:"is_restockable"`
}

// CreateReturnRequest is the payload for opening a sales return
type CreateReturnRequest struct {
	SaleID               string              `json:"sale_id" binding:"required"`
	Lines                []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
	Reason               string              `json:"reason" binding:"required"`
	SettlementType       string              `json:"settlement_type" binding:"required"`
	RestockingFeePercent float64             `json:"restocking_fee_percent" binding:"gte=0,lte=100"`
}

// ApprovalRequest is the payload for deciding a pending return
type ApprovalRequest struct {
	Approve   bool    `json:"approve"`
	DecidedBy string  `json:"decided_by" binding:"required"`
	Notes     *string `json:"notes"`
}

// ApplyCreditNoteRequest is the payload for redeeming a credit note balance
type ApplyCreditNoteRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// ReturnFilterRequest contains query parameters for listing returns
type ReturnFilterRequest struct {
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
	Status    string `form:"status"`
	SaleID    string `form:"sale_id"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// AlertFilterRequest contains query parameters for listing alerts
type AlertFilterRequest struct {
	Page           int    `form:"page"`
	PerPage        int    `form:"per_page"`
	ItemID         string `form:"item_id"`
	AlertType      string `form:"alert_type"`
	UnresolvedOnly bool   `form:"unresolved_only"`
}
