package service

import (
	"testing"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBatch(qty int, expiry *time.Time, createdAt time.Time) entity.Batch {
	return entity.Batch{
		ID:                uuid.New(),
		BatchNumber:       uuid.NewString()[:8],
		Quantity:          qty,
		RemainingQuantity: qty,
		ExpiryDate:        expiry,
		PurchasePrice:     500,
		Status:            enum.BatchStatusActive,
		CreatedAt:         createdAt,
	}
}

func TestAllocateFEFO_EarliestExpiryFirst(t *testing.T) {
	now := time.Now()
	day5 := now.Add(5 * 24 * time.Hour)
	day10 := now.Add(10 * 24 * time.Hour)

	b1 := makeBatch(10, &day10, now.Add(-3*time.Hour))
	b2 := makeBatch(5, &day5, now.Add(-2*time.Hour))
	b3 := makeBatch(8, nil, now.Add(-1*time.Hour))

	allocations, err := AllocateFEFO("Amoxicillin", 7, []entity.Batch{b1, b2, b3}, now)
	require.NoError(t, err)
	require.Len(t, allocations, 2)

	assert.Equal(t, b2.ID, allocations[0].BatchID)
	assert.Equal(t, 5, allocations[0].Quantity)
	assert.Equal(t, b1.ID, allocations[1].BatchID)
	assert.Equal(t, 2, allocations[1].Quantity)
}

func TestAllocateFEFO_NilExpiryLast(t *testing.T) {
	now := time.Now()
	day10 := now.Add(10 * 24 * time.Hour)

	undated := makeBatch(10, nil, now.Add(-2*time.Hour))
	dated := makeBatch(4, &day10, now.Add(-1*time.Hour))

	allocations, err := AllocateFEFO("Ibuprofen", 6, []entity.Batch{undated, dated}, now)
	require.NoError(t, err)
	require.Len(t, allocations, 2)

	assert.Equal(t, dated.ID, allocations[0].BatchID)
	assert.Equal(t, 4, allocations[0].Quantity)
	assert.Equal(t, undated.ID, allocations[1].BatchID)
	assert.Equal(t, 2, allocations[1].Quantity)
}

func TestAllocateFEFO_TieBrokenByReceiptOrder(t *testing.T) {
	now := time.Now()
	day5 := now.Add(5 * 24 * time.Hour)

	older := makeBatch(3, &day5, now.Add(-2*time.Hour))
	newer := makeBatch(3, &day5, now.Add(-1*time.Hour))

	allocations, err := AllocateFEFO("Paracetamol", 4, []entity.Batch{newer, older}, now)
	require.NoError(t, err)
	require.Len(t, allocations, 2)

	assert.Equal(t, older.ID, allocations[0].BatchID)
	assert.Equal(t, newer.ID, allocations[1].BatchID)
}

func TestAllocateFEFO_SkipsExpiredAndDepleted(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	expired := makeBatch(10, &past, now.Add(-3*time.Hour))
	depleted := makeBatch(10, &future, now.Add(-2*time.Hour))
	depleted.RemainingQuantity = 0
	depleted.Status = enum.BatchStatusDepleted
	good := makeBatch(5, &future, now.Add(-1*time.Hour))

	allocations, err := AllocateFEFO("Insulin", 5, []entity.Batch{expired, depleted, good}, now)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Equal(t, good.ID, allocations[0].BatchID)
}

func TestAllocateFEFO_InsufficientStock(t *testing.T) {
	now := time.Now()
	day5 := now.Add(5 * 24 * time.Hour)
	batch := makeBatch(3, &day5, now)

	allocations, err := AllocateFEFO("Insulin", 10, []entity.Batch{batch}, now)
	assert.Nil(t, allocations)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))

	var stockErr *apperror.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 10, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)
}

func TestAllocateFEFO_RejectsNonPositiveQuantity(t *testing.T) {
	now := time.Now()
	batch := makeBatch(3, nil, now)

	for _, qty := range []int{0, -1} {
		_, err := AllocateFEFO("Insulin", qty, []entity.Batch{batch}, now)
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))
	}
}

func TestAllocateFEFO_DoesNotMutateInput(t *testing.T) {
	now := time.Now()
	day5 := now.Add(5 * 24 * time.Hour)
	day10 := now.Add(10 * 24 * time.Hour)

	batches := []entity.Batch{
		makeBatch(10, &day10, now.Add(-2*time.Hour)),
		makeBatch(5, &day5, now.Add(-1*time.Hour)),
	}

	_, err := AllocateFEFO("Amoxicillin", 7, batches, now)
	require.NoError(t, err)

	assert.Equal(t, 10, batches[0].RemainingQuantity)
	assert.Equal(t, 5, batches[1].RemainingQuantity)
	// Input order preserved, sorting happens on a copy.
	assert.True(t, batches[0].ExpiryDate.Equal(day10), "input reordered")
}

func TestAllocateFEFO_ExactFit(t *testing.T) {
	now := time.Now()
	day5 := now.Add(5 * 24 * time.Hour)
	batch := makeBatch(5, &day5, now)

	allocations, err := AllocateFEFO("Insulin", 5, []entity.Batch{batch}, now)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Equal(t, 5, allocations[0].Quantity)
}
