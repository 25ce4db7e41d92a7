package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/caredesk/pharmacy-api/internal/application/service"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/internal/presentation/http/dto/request"
	"github.com/caredesk/pharmacy-api/internal/presentation/http/dto/response"
)

// InventoryHandler handles item, batch and stock ledger HTTP requests
type InventoryHandler struct {
	ledgerService *service.LedgerService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(ledgerService *service.LedgerService) *InventoryHandler {
	return &InventoryHandler{ledgerService: ledgerService}
}

// CreateItem handles registering a new item
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req request.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	item, err := h.ledgerService.CreateItem(c.Request.Context(), &service.CreateItemInput{
		Name:                 req.Name,
		Code:                 req.Code,
		GenericName:          req.GenericName,
		CategoryID:           parseOptionalUUID(req.CategoryID),
		PurchasePrice:        req.PurchasePrice,
		SalePrice:            req.SalePrice,
		MRP:                  req.MRP,
		TaxRate:              req.TaxRate,
		MinimumStock:         req.MinimumStock,
		ReorderPoint:         req.ReorderPoint,
		PrescriptionRequired: req.PrescriptionRequired,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Item created successfully", item)
}

// GetItem handles getting a single item
func (h *InventoryHandler) GetItem(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid item ID")
		return
	}

	item, err := h.ledgerService.GetItem(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item retrieved successfully", item)
}

// ListItems handles listing items with filters
func (h *InventoryHandler) ListItems(c *gin.Context) {
	params := &repository.ItemFilterParams{
		Pagination: pageParams(c),
		Search:     c.Query("search"),
		CategoryID: parseOptionalUUID(c.Query("category_id")),
		LowStock:   c.Query("low_stock") == "true",
		ActiveOnly: c.Query("active_only") == "true",
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}

	result, err := h.ledgerService.ListItems(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Items retrieved successfully", result)
}

// ReceiveBatch handles receiving an inbound lot against an item
func (h *InventoryHandler) ReceiveBatch(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid item ID")
		return
	}

	var req request.ReceiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	batch, err := h.ledgerService.ReceiveBatch(c.Request.Context(), &service.ReceiveBatchInput{
		ItemID:        itemID,
		SupplierID:    parseOptionalUUID(req.SupplierID),
		BatchNumber:   req.BatchNumber,
		Quantity:      req.Quantity,
		ExpiryDate:    req.ExpiryDate,
		PurchasePrice: req.PurchasePrice,
		Notes:         req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Batch received successfully", batch)
}

// AdjustStock handles a manual stock adjustment against an item
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid item ID")
		return
	}

	var req request.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	item, err := h.ledgerService.AdjustStock(c.Request.Context(), &service.AdjustStockInput{
		ItemID:   itemID,
		BatchID:  parseOptionalUUID(req.BatchID),
		Quantity: req.Quantity,
		Reason:   req.Reason,
		Notes:    req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock adjusted successfully", item)
}

// ListBatches handles listing an item's batches. With available=true only
// sellable batches are returned, in allocation order.
func (h *InventoryHandler) ListBatches(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid item ID")
		return
	}

	if c.Query("available") == "true" {
		batches, err := h.ledgerService.AvailableBatches(c.Request.Context(), itemID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "Batches retrieved successfully", batches)
		return
	}

	result, err := h.ledgerService.ListBatches(c.Request.Context(), itemID, pageParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Batches retrieved successfully", result)
}

// ListMovements handles listing an item's stock movement ledger
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid item ID")
		return
	}

	params := &repository.MovementFilterParams{
		Pagination: pageParams(c),
		StartDate:  parseDateQuery(c, "start_date"),
		EndDate:    parseDateQuery(c, "end_date"),
	}

	if typeStr := c.Query("movement_type"); typeStr != "" {
		movementType, err := enum.ParseMovementType(typeStr)
		if err != nil {
			response.BadRequest(c, "Invalid movement type")
			return
		}
		params.MovementType = &movementType
	}

	result, err := h.ledgerService.ListMovements(c.Request.Context(), itemID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Movements retrieved successfully", result)
}
