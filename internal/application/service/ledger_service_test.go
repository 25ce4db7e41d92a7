package service

import (
	"testing"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveBatch(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Amoxicillin", "AMX-10", 10, 0)

	batch, err := env.ledger.ReceiveBatch(env.ctx, &ReceiveBatchInput{
		ItemID:        item.ID,
		BatchNumber:   "LOT-2026-001",
		Quantity:      50,
		ExpiryDate:    daysFromNow(180),
		PurchasePrice: 4.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "LOT-2026-001", batch.BatchNumber)
	assert.Equal(t, 50, batch.RemainingQuantity)
	assert.Equal(t, int64(450), batch.PurchasePrice)
	assert.Equal(t, enum.BatchStatusActive, batch.Status)

	itemAfter, err := env.ledger.GetItem(env.ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, itemAfter.CurrentStock)

	movements, _, err := env.store.Movements().ListByItem(env.ctx, item.ID, &repository.MovementFilterParams{})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, enum.MovementTypePurchase, movements[0].MovementType)
	assert.Equal(t, 50, movements[0].Quantity)
	assert.Equal(t, 0, movements[0].PreviousStock)
	assert.Equal(t, 50, movements[0].NewStock)
}

func TestReceiveBatch_Validation(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Amoxicillin", "AMX-11", 10, 0)

	_, err := env.ledger.ReceiveBatch(env.ctx, &ReceiveBatchInput{
		ItemID:   item.ID,
		Quantity: 0,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))

	past := time.Now().Add(-24 * time.Hour)
	_, err = env.ledger.ReceiveBatch(env.ctx, &ReceiveBatchInput{
		ItemID:     item.ID,
		Quantity:   10,
		ExpiryDate: &past,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))
}

func TestAdjustStock(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Ibuprofen", "IBU-10", 5, 0)
	batch := env.seedBatch(t, item.ID, 10, daysFromNow(90))

	adjusted, err := env.ledger.AdjustStock(env.ctx, &AdjustStockInput{
		ItemID:   item.ID,
		BatchID:  &batch.ID,
		Quantity: -3,
		Reason:   "cycle count shortfall",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, adjusted.CurrentStock)

	batchAfter, err := env.store.Batches().GetByID(env.ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, batchAfter.RemainingQuantity)

	movements, _, err := env.store.Movements().ListByItem(env.ctx, item.ID, &repository.MovementFilterParams{})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	last := movements[len(movements)-1]
	assert.Equal(t, enum.MovementTypeAdjustment, last.MovementType)
	assert.Equal(t, -3, last.Quantity)
	assert.Equal(t, "cycle count shortfall", last.Reference)
}

func TestAdjustStock_RejectsNegativeResult(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Ibuprofen", "IBU-11", 5, 0)
	batch := env.seedBatch(t, item.ID, 10, daysFromNow(90))

	_, err := env.ledger.AdjustStock(env.ctx, &AdjustStockInput{
		ItemID:   item.ID,
		BatchID:  &batch.ID,
		Quantity: -11,
		Reason:   "bad count",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))

	// Nothing moved.
	itemAfter, err := env.ledger.GetItem(env.ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, itemAfter.CurrentStock)

	batchAfter, err := env.store.Batches().GetByID(env.ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, batchAfter.RemainingQuantity)
}

func TestAdjustStock_LowStockAlert(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Insulin", "INS-10", 25, 5)
	env.seedBatch(t, item.ID, 10, daysFromNow(90))

	_, err := env.ledger.AdjustStock(env.ctx, &AdjustStockInput{
		ItemID:   item.ID,
		Quantity: -6,
		Reason:   "damaged in storage",
	})
	require.NoError(t, err)

	result, err := env.alerts.ListAlerts(env.ctx, &repository.AlertFilterParams{UnresolvedOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, enum.AlertTypeLowStock, result.Items[0].AlertType)
}

func TestExpireBatches(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Amoxicillin", "AMX-12", 10, 0)
	expiring := env.seedBatch(t, item.ID, 10, daysFromNow(1))
	keeping := env.seedBatch(t, item.ID, 5, daysFromNow(90))

	expired, err := env.ledger.ExpireBatches(env.ctx, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	expiredBatch, err := env.store.Batches().GetByID(env.ctx, expiring.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.BatchStatusExpired, expiredBatch.Status)
	assert.True(t, expiredBatch.IsExpired)

	keptBatch, err := env.store.Batches().GetByID(env.ctx, keeping.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.BatchStatusActive, keptBatch.Status)

	itemAfter, err := env.ledger.GetItem(env.ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, itemAfter.CurrentStock)

	movements, _, err := env.store.Movements().ListByItem(env.ctx, item.ID, &repository.MovementFilterParams{})
	require.NoError(t, err)
	last := movements[len(movements)-1]
	assert.Equal(t, enum.MovementTypeExpiryWriteoff, last.MovementType)
	assert.Equal(t, -10, last.Quantity)

	// A second sweep finds nothing.
	expired, err = env.ledger.ExpireBatches(env.ctx, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestCreateItem_DuplicateCode(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	env.seedItem(t, "Amoxicillin", "AMX-13", 10, 0)

	_, err := env.ledger.CreateItem(env.ctx, &CreateItemInput{
		Name:      "Amoxicillin generic",
		Code:      "AMX-13",
		SalePrice: 8,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestAvailableBatches_FEFOOrder(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Paracetamol", "PCM-10", 5, 0)
	later := env.seedBatch(t, item.ID, 10, daysFromNow(30))
	sooner := env.seedBatch(t, item.ID, 10, daysFromNow(7))
	undated := env.seedBatch(t, item.ID, 10, nil)

	batches, err := env.ledger.AvailableBatches(env.ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, sooner.ID, batches[0].ID)
	assert.Equal(t, later.ID, batches[1].ID)
	assert.Equal(t, undated.ID, batches[2].ID)
}
