package service

import (
	"sort"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/pkg/apperror"
	"github.com/google/uuid"
)

// BatchAllocation is a slice of a requested quantity taken from a single batch.
type BatchAllocation struct {
	BatchID     uuid.UUID
	BatchNumber string
	Quantity    int
	UnitCost    int64
	ExpiryDate  *time.Time
}

// AllocateFEFO splits a required quantity across the given batches using
// first-expiry-first-out ordering. Batches without an expiry date are only
// consumed after every dated batch; ties on expiry fall back to receipt order.
// The function never mutates the input and returns the full allocation or
// nothing: a shortfall yields an insufficient stock error with the total
// quantity that was actually available.
func AllocateFEFO(itemName string, required int, batches []entity.Batch, now time.Time) ([]BatchAllocation, error) {
	if required <= 0 {
		return nil, apperror.NewBadRequestError("requested quantity must be positive")
	}

	candidates := make([]entity.Batch, 0, len(batches))
	for _, b := range batches {
		if b.IsAvailable(now) {
			candidates = append(candidates, b)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].ExpiryDate, candidates[j].ExpiryDate
		switch {
		case a == nil && b == nil:
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		default:
			return a.Before(*b)
		}
	})

	available := 0
	for _, b := range candidates {
		available += b.RemainingQuantity
	}
	if available < required {
		return nil, apperror.NewInsufficientStockError(itemName, required, available)
	}

	allocations := make([]BatchAllocation, 0, 2)
	remaining := required
	for _, b := range candidates {
		if remaining == 0 {
			break
		}
		take := b.RemainingQuantity
		if take > remaining {
			take = remaining
		}
		allocations = append(allocations, BatchAllocation{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			Quantity:    take,
			UnitCost:    b.PurchasePrice,
			ExpiryDate:  b.ExpiryDate,
		})
		remaining -= take
	}

	return allocations, nil
}
