package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/caredesk/pharmacy-api/internal/application/service"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/internal/presentation/http/dto/request"
	"github.com/caredesk/pharmacy-api/internal/presentation/http/dto/response"
)

// ReturnHandler handles return and credit note HTTP requests
type ReturnHandler struct {
	returnService *service.ReturnService
}

// NewReturnHandler creates a new return handler
func NewReturnHandler(returnService *service.ReturnService) *ReturnHandler {
	return &ReturnHandler{returnService: returnService}
}

// Create handles opening a sales return
func (h *ReturnHandler) Create(c *gin.Context) {
	var req request.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	saleID := parseOptionalUUID(req.SaleID)
	if saleID == nil {
		response.BadRequest(c, "Invalid sale ID")
		return
	}

	settlementType, err := enum.ParseSettlementType(req.SettlementType)
	if err != nil {
		response.BadRequest(c, "Invalid settlement type")
		return
	}

	lines := make([]service.ReturnLineInput, len(req.Lines))
	for i, line := range req.Lines {
		saleItemID := parseOptionalUUID(line.SaleItemID)
		if saleItemID == nil {
			response.BadRequest(c, "Invalid sale item ID in return line")
			return
		}
		lines[i] = service.ReturnLineInput{
			SaleItemID:    *saleItemID,
			Quantity:      line.Quantity,
			Condition:     line.Condition,
			IsRestockable: line.IsRestockable,
		}
	}

	ret, err := h.returnService.CreateSalesReturn(c.Request.Context(), &service.CreateReturnInput{
		SaleID:               *saleID,
		Lines:                lines,
		Reason:               req.Reason,
		SettlementType:       settlementType,
		RestockingFeePercent: req.RestockingFeePercent,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Return created successfully", ret)
}

// Approve handles deciding a pending return
func (h *ReturnHandler) Approve(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid return ID")
		return
	}

	var req request.ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	ret, err := h.returnService.ProcessReturnApproval(c.Request.Context(), id, &service.ApprovalInput{
		Approve:   req.Approve,
		DecidedBy: req.DecidedBy,
		Notes:     req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Return decision recorded successfully", ret)
}

// Get handles getting a single return with its items
func (h *ReturnHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid return ID")
		return
	}

	ret, err := h.returnService.GetReturn(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Return retrieved successfully", ret)
}

// List handles listing returns with filters
func (h *ReturnHandler) List(c *gin.Context) {
	params := &repository.ReturnFilterParams{
		Pagination: pageParams(c),
		SaleID:     parseOptionalUUID(c.Query("sale_id")),
		StartDate:  parseDateQuery(c, "start_date"),
		EndDate:    parseDateQuery(c, "end_date"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status, err := enum.ParseReturnStatus(statusStr)
		if err != nil {
			response.BadRequest(c, "Invalid return status")
			return
		}
		params.Status = &status
	}

	result, err := h.returnService.ListReturns(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Returns retrieved successfully", result)
}

// GetCreditNote handles getting a credit note with its balance
func (h *ReturnHandler) GetCreditNote(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid credit note ID")
		return
	}

	note, err := h.returnService.GetCreditNote(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Credit note retrieved successfully", note)
}

// ApplyCreditNote handles redeeming part of a credit note balance
func (h *ReturnHandler) ApplyCreditNote(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid credit note ID")
		return
	}

	var req request.ApplyCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	note, err := h.returnService.ApplyCreditNote(c.Request.Context(), id, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Credit note applied successfully", note)
}
