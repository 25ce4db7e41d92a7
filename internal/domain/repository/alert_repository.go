package repository

import (
	"context"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/pkg/pagination"
	"github.com/google/uuid"
)

// StockAlertRepository defines the interface for stock alert data operations
type StockAlertRepository interface {
	// CreateIfAbsent inserts the alert unless an unresolved alert for the
	// same (item, alert type) already exists. The check and insert are a
	// single atomic statement; returns false when suppressed as a duplicate.
	CreateIfAbsent(ctx context.Context, alert *entity.StockAlert) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.StockAlert, error)
	Resolve(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *AlertFilterParams) ([]entity.StockAlert, int64, error)
}

// AlertFilterParams contains filtering parameters for alert queries
type AlertFilterParams struct {
	Pagination     *pagination.PaginationParams
	ItemID         *uuid.UUID
	AlertType      *enum.AlertType
	UnresolvedOnly bool
}
