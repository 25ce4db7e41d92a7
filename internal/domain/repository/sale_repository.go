package repository

import (
	"context"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/pkg/pagination"
	"github.com/google/uuid"
)

// SaleRepository defines the interface for sale data operations
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	GetBySaleNumber(ctx context.Context, saleNumber string) (*entity.Sale, error)
	// GetWithDetails loads the sale with its items and payments preloaded.
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	Update(ctx context.Context, sale *entity.Sale) error
	List(ctx context.Context, params *SaleFilterParams) ([]entity.Sale, int64, error)
}

// SaleFilterParams contains filtering parameters for sale queries
type SaleFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.SaleStatus
	SaleType   *enum.SaleType
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     string
	SortOrder  string
}

// SaleItemRepository defines the interface for sale item data operations
type SaleItemRepository interface {
	CreateBatch(ctx context.Context, items []entity.SaleItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SaleItem, error)
	GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.SaleItem, error)
	// IncrementReturned reserves qty against the row's return cap with a
	// conditional update that fails when quantity - returned_quantity < qty.
	// Returns false on rejection.
	IncrementReturned(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	// DecrementReturned releases a previously reserved return quantity
	// (rejected return).
	DecrementReturned(ctx context.Context, id uuid.UUID, qty int) error
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	CreateBatch(ctx context.Context, payments []entity.Payment) error
	GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.Payment, error)
}
