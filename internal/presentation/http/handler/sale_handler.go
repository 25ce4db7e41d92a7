package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/caredesk/pharmacy-api/internal/application/service"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/internal/presentation/http/dto/request"
	"github.com/caredesk/pharmacy-api/internal/presentation/http/dto/response"
)

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	saleService *service.SaleService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// Create handles creating a sale
func (h *SaleHandler) Create(c *gin.Context) {
	var req request.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	saleType := enum.SaleTypeWalkIn
	if req.SaleType != "" {
		parsed, err := enum.ParseSaleType(req.SaleType)
		if err != nil {
			response.BadRequest(c, "Invalid sale type")
			return
		}
		saleType = parsed
	}

	lines := make([]service.SaleLineInput, len(req.Lines))
	for i, line := range req.Lines {
		itemID := parseOptionalUUID(line.ItemID)
		if itemID == nil {
			response.BadRequest(c, "Invalid item ID in sale line")
			return
		}
		lines[i] = service.SaleLineInput{
			ItemID:          *itemID,
			Quantity:        line.Quantity,
			DiscountPercent: line.DiscountPercent,
		}
	}

	payments := make([]service.PaymentInput, len(req.Payments))
	for i, p := range req.Payments {
		method, err := enum.ParsePaymentMethod(p.Method)
		if err != nil {
			response.BadRequest(c, "Invalid payment method")
			return
		}
		payments[i] = service.PaymentInput{
			Method:            method,
			Amount:            p.Amount,
			CardLast4:         p.CardLast4,
			InsuranceProvider: p.InsuranceProvider,
			ClaimNumber:       p.ClaimNumber,
		}
		if p.CreditNoteID != nil {
			payments[i].CreditNoteID = parseOptionalUUID(*p.CreditNoteID)
		}
	}

	input := &service.CreateSaleInput{
		SaleType:        saleType,
		CustomerName:    req.CustomerName,
		Lines:           lines,
		Payments:        payments,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  req.DiscountAmount,
		Notes:           req.Notes,
	}
	if req.PrescriptionID != nil {
		input.PrescriptionID = parseOptionalUUID(*req.PrescriptionID)
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Sale created successfully", sale)
}

// Void handles voiding a sale
func (h *SaleHandler) Void(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid sale ID")
		return
	}

	var req request.VoidSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	voidedBy := req.VoidedBy
	if voidedBy == "" {
		voidedBy = GetActor(c)
	}

	sale, err := h.saleService.VoidSale(c.Request.Context(), id, &service.VoidSaleInput{
		Reason:   req.Reason,
		VoidedBy: voidedBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale voided successfully", sale)
}

// Get handles getting a single sale with its items and payments
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid sale ID")
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale retrieved successfully", sale)
}

// List handles listing sales with filters
func (h *SaleHandler) List(c *gin.Context) {
	params := &repository.SaleFilterParams{
		Pagination: pageParams(c),
		Search:     c.Query("search"),
		StartDate:  parseDateQuery(c, "start_date"),
		EndDate:    parseDateQuery(c, "end_date"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status, err := enum.ParseSaleStatus(statusStr)
		if err != nil {
			response.BadRequest(c, "Invalid sale status")
			return
		}
		params.Status = &status
	}

	if typeStr := c.Query("sale_type"); typeStr != "" {
		saleType, err := enum.ParseSaleType(typeStr)
		if err != nil {
			response.BadRequest(c, "Invalid sale type")
			return
		}
		params.SaleType = &saleType
	}

	result, err := h.saleService.ListSales(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Sales retrieved successfully", result)
}
