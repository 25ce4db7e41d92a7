package repository

import (
	"context"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/pkg/pagination"
	"github.com/google/uuid"
)

// BatchRepository defines the interface for batch data operations
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Batch, error)
	// AvailableBatches returns the item's active, non-expired batches with
	// positive remaining quantity, ordered by expiry ascending with NULL
	// expiry last, ties broken by insertion order. This is the FEFO read.
	AvailableBatches(ctx context.Context, itemID uuid.UUID) ([]entity.Batch, error)
	// AvailableBatchesForUpdate is AvailableBatches with row-level write
	// locks. Only valid inside a TxManager unit of work; it pins the batches
	// between the allocator's read and the sale engine's decrement.
	AvailableBatchesForUpdate(ctx context.Context, itemID uuid.UUID) ([]entity.Batch, error)
	// DecrementRemaining subtracts qty with a conditional update that fails
	// when remaining_quantity would go negative. Returns false on rejection.
	DecrementRemaining(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	// IncrementRemaining adds qty back (void, approved restocking return).
	IncrementRemaining(ctx context.Context, id uuid.UUID, qty int) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enum.BatchStatus) error
	ListByItem(ctx context.Context, itemID uuid.UUID, params *pagination.PaginationParams) ([]entity.Batch, int64, error)
	// DueForExpiry returns active batches whose expiry date passed before now.
	DueForExpiry(ctx context.Context, now time.Time) ([]entity.Batch, error)
	// MarkExpired flips status and the is_expired flag.
	MarkExpired(ctx context.Context, id uuid.UUID) error
}

// StockMovementRepository defines the interface for the append-only movement ledger
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	CreateBatch(ctx context.Context, movements []entity.StockMovement) error
	ListByItem(ctx context.Context, itemID uuid.UUID, params *MovementFilterParams) ([]entity.StockMovement, int64, error)
}

// MovementFilterParams contains filtering parameters for movement queries
type MovementFilterParams struct {
	Pagination   *pagination.PaginationParams
	MovementType *enum.MovementType
	StartDate    *time.Time
	EndDate      *time.Time
}
