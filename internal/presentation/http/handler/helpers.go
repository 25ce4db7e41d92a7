package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/caredesk/pharmacy-api/pkg/pagination"
)

// GetTenantID extracts the authenticated tenant ID from the Gin context
func GetTenantID(c *gin.Context) *uuid.UUID {
	tenantIDVal, exists := c.Get("tenant_id")
	if !exists {
		return nil
	}
	tenantID, ok := tenantIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &tenantID
}

// GetActor extracts the acting user's name from the Gin context
func GetActor(c *gin.Context) string {
	actor, exists := c.Get("actor")
	if !exists {
		return ""
	}
	return actor.(string)
}

func pageParams(c *gin.Context) *pagination.PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))
	return &pagination.PaginationParams{
		Page:    page,
		PerPage: perPage,
	}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func parseDateQuery(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}
