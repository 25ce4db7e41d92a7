package repository

import (
	"context"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/pkg/pagination"
	"github.com/google/uuid"
)

// ReturnRepository defines the interface for return data operations
type ReturnRepository interface {
	Create(ctx context.Context, ret *entity.Return) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Return, error)
	// GetWithItems loads the return with its items preloaded.
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Return, error)
	Update(ctx context.Context, ret *entity.Return) error
	List(ctx context.Context, params *ReturnFilterParams) ([]entity.Return, int64, error)
}

// ReturnFilterParams contains filtering parameters for return queries
type ReturnFilterParams struct {
	Pagination *pagination.PaginationParams
	Status     *enum.ReturnStatus
	SaleID     *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
}

// ReturnItemRepository defines the interface for return item data operations
type ReturnItemRepository interface {
	CreateBatch(ctx context.Context, items []entity.ReturnItem) error
	GetByReturnID(ctx context.Context, returnID uuid.UUID) ([]entity.ReturnItem, error)
	UpdateDisposition(ctx context.Context, id uuid.UUID, disposition enum.Disposition) error
}

// CreditNoteRepository defines the interface for credit note data operations
type CreditNoteRepository interface {
	Create(ctx context.Context, note *entity.CreditNote) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CreditNote, error)
	GetByNumber(ctx context.Context, number string) (*entity.CreditNote, error)
	// Apply atomically moves amount from remaining to used with a conditional
	// update that fails when the note is not active or the balance is short.
	// Returns false on rejection.
	Apply(ctx context.Context, id uuid.UUID, amount int64) (bool, error)
	// MarkExhausted flips the status to exhausted. Self-guarded: a no-op
	// while the remaining balance is above zero, so callers invoke it after
	// every successful Apply without re-reading the balance.
	MarkExhausted(ctx context.Context, id uuid.UUID) error
}
