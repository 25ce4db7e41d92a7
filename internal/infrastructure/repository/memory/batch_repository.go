package memory

import (
	"context"
	"sort"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/pkg/pagination"
	"github.com/google/uuid"
)

type batchRepository struct{ s *Store }

// Batches returns the in-memory batch repository
func (s *Store) Batches() repository.BatchRepository { return &batchRepository{s} }

func (r *batchRepository) Create(ctx context.Context, batch *entity.Batch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&batch.ID)
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = r.s.next()
	}
	clone := *batch
	r.s.batches[batch.ID] = &clone
	return nil
}

func (r *batchRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	batch, ok := r.s.batches[id]
	if !ok || !scoped(ctx, batch.TenantID) {
		return nil, nil
	}
	clone := *batch
	return &clone, nil
}

func (r *batchRepository) AvailableBatches(ctx context.Context, itemID uuid.UUID) ([]entity.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	var batches []entity.Batch
	for _, b := range r.s.batches {
		if scoped(ctx, b.TenantID) && b.ItemID == itemID && b.IsAvailable(now) {
			batches = append(batches, *b)
		}
	}
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i].ExpiryDate, batches[j].ExpiryDate
		switch {
		case a == nil && b == nil:
			return batches[i].CreatedAt.Before(batches[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return batches[i].CreatedAt.Before(batches[j].CreatedAt)
		default:
			return a.Before(*b)
		}
	})
	return batches, nil
}

func (r *batchRepository) AvailableBatchesForUpdate(ctx context.Context, itemID uuid.UUID) ([]entity.Batch, error) {
	return r.AvailableBatches(ctx, itemID)
}

func (r *batchRepository) DecrementRemaining(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	batch, ok := r.s.batches[id]
	if !ok || !scoped(ctx, batch.TenantID) {
		return false, nil
	}
	if batch.RemainingQuantity < qty {
		return false, nil
	}
	batch.RemainingQuantity -= qty
	return true, nil
}

func (r *batchRepository) IncrementRemaining(ctx context.Context, id uuid.UUID, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if batch, ok := r.s.batches[id]; ok && scoped(ctx, batch.TenantID) {
		batch.RemainingQuantity += qty
	}
	return nil
}

func (r *batchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.BatchStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if batch, ok := r.s.batches[id]; ok && scoped(ctx, batch.TenantID) {
		batch.Status = status
	}
	return nil
}

func (r *batchRepository) ListByItem(ctx context.Context, itemID uuid.UUID, params *pagination.PaginationParams) ([]entity.Batch, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var batches []entity.Batch
	for _, b := range r.s.batches {
		if scoped(ctx, b.TenantID) && b.ItemID == itemID {
			batches = append(batches, *b)
		}
	}
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].CreatedAt.Before(batches[j].CreatedAt)
	})
	return batches, int64(len(batches)), nil
}

func (r *batchRepository) DueForExpiry(ctx context.Context, now time.Time) ([]entity.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var batches []entity.Batch
	for _, b := range r.s.batches {
		if scoped(ctx, b.TenantID) && b.Status == enum.BatchStatusActive &&
			b.ExpiryDate != nil && b.ExpiryDate.Before(now) {
			batches = append(batches, *b)
		}
	}
	return batches, nil
}

func (r *batchRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if batch, ok := r.s.batches[id]; ok && scoped(ctx, batch.TenantID) {
		batch.Status = enum.BatchStatusExpired
		batch.IsExpired = true
	}
	return nil
}

type stockMovementRepository struct{ s *Store }

// Movements returns the in-memory stock movement repository
func (s *Store) Movements() repository.StockMovementRepository { return &stockMovementRepository{s} }

func (r *stockMovementRepository) Create(ctx context.Context, movement *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&movement.ID)
	movement.CreatedAt = r.s.next()
	r.s.movements = append(r.s.movements, *movement)
	return nil
}

func (r *stockMovementRepository) CreateBatch(ctx context.Context, movements []entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range movements {
		ensureID(&movements[i].ID)
		movements[i].CreatedAt = r.s.next()
		r.s.movements = append(r.s.movements, movements[i])
	}
	return nil
}

func (r *stockMovementRepository) ListByItem(ctx context.Context, itemID uuid.UUID, params *repository.MovementFilterParams) ([]entity.StockMovement, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var movements []entity.StockMovement
	for _, m := range r.s.movements {
		if !scoped(ctx, m.TenantID) || m.ItemID != itemID {
			continue
		}
		if params != nil && params.MovementType != nil && m.MovementType != *params.MovementType {
			continue
		}
		movements = append(movements, m)
	}
	return movements, int64(len(movements)), nil
}
