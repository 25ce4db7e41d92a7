package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/caredesk/pharmacy-api/internal/application/service"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/internal/presentation/http/dto/response"
)

// AlertHandler handles stock alert HTTP requests
type AlertHandler struct {
	alertService *service.AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// List handles listing stock alerts with filters
func (h *AlertHandler) List(c *gin.Context) {
	params := &repository.AlertFilterParams{
		Pagination:     pageParams(c),
		ItemID:         parseOptionalUUID(c.Query("item_id")),
		UnresolvedOnly: c.Query("unresolved_only") == "true",
	}

	if typeStr := c.Query("alert_type"); typeStr != "" {
		alertType, err := enum.ParseAlertType(typeStr)
		if err != nil {
			response.BadRequest(c, "Invalid alert type")
			return
		}
		params.AlertType = &alertType
	}

	result, err := h.alertService.ListAlerts(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Alerts retrieved successfully", result)
}

// Resolve handles marking an alert as resolved
func (h *AlertHandler) Resolve(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid alert ID")
		return
	}

	alert, err := h.alertService.ResolveAlert(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Alert resolved successfully", alert)
}
