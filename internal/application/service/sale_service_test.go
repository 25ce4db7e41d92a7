package service

import (
	"sync"
	"testing"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cashPayment(amount float64) []PaymentInput {
	return []PaymentInput{{Method: enum.PaymentMethodCash, Amount: amount}}
}

func TestCreateSale_Arithmetic(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{DefaultTaxRate: 20})
	item := env.seedItem(t, "Amoxicillin 500mg", "AMX-500", 10, 0)
	env.seedBatch(t, item.ID, 20, daysFromNow(30))

	discount := 10.0
	sale, err := env.sales.CreateSale(env.ctx, &CreateSaleInput{
		Lines:           []SaleLineInput{{ItemID: item.ID, Quantity: 10}},
		Payments:        cashPayment(108),
		DiscountPercent: &discount,
	})
	require.NoError(t, err)

	// 100.00 subtotal, 10% order discount before tax, 20% tax on the rest.
	assert.Equal(t, int64(10000), sale.SubtotalAmount)
	assert.Equal(t, int64(1000), sale.DiscountAmount)
	assert.Equal(t, int64(1800), sale.TaxAmount)
	assert.Equal(t, int64(10800), sale.TotalAmount)
	assert.Equal(t, int64(10800), sale.AmountPaid)
	assert.Equal(t, int64(0), sale.AmountDue)
	assert.Equal(t, enum.PaymentStatusPaid, sale.PaymentStatus)
	assert.Equal(t, enum.SaleStatusCompleted, sale.Status)
}

func TestCreateSale_FEFOSplitAcrossBatches(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Ibuprofen 200mg", "IBU-200", 5, 0)
	later := env.seedBatch(t, item.ID, 10, daysFromNow(10))
	sooner := env.seedBatch(t, item.ID, 5, daysFromNow(5))
	undated := env.seedBatch(t, item.ID, 8, nil)

	sale, err := env.sales.CreateSale(env.ctx, &CreateSaleInput{
		Lines:    []SaleLineInput{{ItemID: item.ID, Quantity: 7}},
		Payments: cashPayment(100),
	})
	require.NoError(t, err)
	require.Len(t, sale.Items, 2)

	assert.Equal(t, sooner.ID, *sale.Items[0].BatchID)
	assert.Equal(t, 5, sale.Items[0].Quantity)
	assert.Equal(t, later.ID, *sale.Items[1].BatchID)
	assert.Equal(t, 2, sale.Items[1].Quantity)

	// Split rows conserve the line total.
	var split int64
	for _, si := range sale.Items {
		split += si.LineTotal
	}
	assert.Equal(t, int64(4200), split) // 7 * 5.00 * 1.2

	soonerAfter, err := env.store.Batches().GetByID(env.ctx, sooner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, soonerAfter.RemainingQuantity)
	assert.Equal(t, enum.BatchStatusDepleted, soonerAfter.Status)

	undatedAfter, err := env.store.Batches().GetByID(env.ctx, undated.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, undatedAfter.RemainingQuantity)

	itemAfter, err := env.ledger.GetItem(env.ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 16, itemAfter.CurrentStock)
}

func TestCreateSale_InsufficientStockLeavesStateUntouched(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Insulin", "INS-01", 25, 0)
	batch := env.seedBatch(t, item.ID, 3, daysFromNow(30))

	_, err := env.sales.CreateSale(env.ctx, &CreateSaleInput{
		Lines:    []SaleLineInput{{ItemID: item.ID, Quantity: 10}},
		Payments: cashPayment(300),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))

	batchAfter, err := env.store.Batches().GetByID(env.ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, batchAfter.RemainingQuantity)

	itemAfter, err := env.ledger.GetItem(env.ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, itemAfter.CurrentStock)

	_, total, err := env.store.Sales().List(env.ctx, &repository.SaleFilterParams{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateSale_PrescriptionRequired(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item, err := env.ledger.CreateItem(env.ctx, &CreateItemInput{
		Name:                 "Morphine",
		Code:                 "MOR-01",
		SalePrice:            50,
		PrescriptionRequired: true,
	})
	require.NoError(t, err)
	env.seedBatch(t, item.ID, 10, daysFromNow(30))

	_, err = env.sales.CreateSale(env.ctx, &CreateSaleInput{
		SaleType: enum.SaleTypeWalkIn,
		Lines:    []SaleLineInput{{ItemID: item.ID, Quantity: 1}},
		Payments: cashPayment(60),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))

	_, err = env.sales.CreateSale(env.ctx, &CreateSaleInput{
		SaleType: enum.SaleTypePrescription,
		Lines:    []SaleLineInput{{ItemID: item.ID, Quantity: 1}},
		Payments: cashPayment(60),
	})
	require.NoError(t, err)
}

func TestCreateSale_PartialPaymentAndChange(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Paracetamol", "PCM-01", 10, 0)
	env.seedBatch(t, item.ID, 20, daysFromNow(30))

	partial, err := env.sales.CreateSale(env.ctx, &CreateSaleInput{
		Lines:    []SaleLineInput{{ItemID: item.ID, Quantity: 1}},
		Payments: cashPayment(5), // total is 12.00
	})
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusPartial, partial.PaymentStatus)
	assert.Equal(t, int64(700), partial.AmountDue)

	overpaid, err := env.sales.CreateSale(env.ctx, &CreateSaleInput{
		Lines:    []SaleLineInput{{ItemID: item.ID, Quantity: 1}},
		Payments: cashPayment(15),
	})
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusPaid, overpaid.PaymentStatus)
	assert.Equal(t, int64(300), overpaid.ChangeGiven)
}

func TestVoidSale_RestoresStock(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Amoxicillin", "AMX-01", 10, 0)
	b1 := env.seedBatch(t, item.ID, 10, daysFromNow(10))
	b2 := env.seedBatch(t, item.ID, 5, daysFromNow(5))

	sale, err := env.sales.CreateSale(env.ctx, &CreateSaleInput{
		Lines:    []SaleLineInput{{ItemID: item.ID, Quantity: 7}},
		Payments: cashPayment(100),
	})
	require.NoError(t, err)

	voided, err := env.sales.VoidSale(env.ctx, sale.ID, &VoidSaleInput{
		Reason:   "entered in error",
		VoidedBy: "supervisor",
	})
	require.NoError(t, err)
	assert.Equal(t, enum.SaleStatusVoided, voided.Status)
	require.NotNil(t, voided.VoidReason)
	assert.Equal(t, "entered in error", *voided.VoidReason)

	itemAfter, err := env.ledger.GetItem(env.ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, itemAfter.CurrentStock)

	for _, tc := range []struct {
		batch *entity.Batch
		want  int
	}{{b1, 10}, {b2, 5}} {
		after, err := env.store.Batches().GetByID(env.ctx, tc.batch.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, after.RemainingQuantity)
		assert.Equal(t, enum.BatchStatusActive, after.Status)
	}

	// Voiding twice is rejected.
	_, err = env.sales.VoidSale(env.ctx, sale.ID, &VoidSaleInput{Reason: "again"})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestCreateSale_ConcurrentLastUnit(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Adrenaline", "ADR-01", 30, 0)
	batch := env.seedBatch(t, item.ID, 1, daysFromNow(30))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.sales.CreateSale(env.ctx, &CreateSaleInput{
				Lines:    []SaleLineInput{{ItemID: item.ID, Quantity: 1}},
				Payments: cashPayment(36),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))
		}
	}
	assert.Equal(t, 1, succeeded)

	batchAfter, err := env.store.Batches().GetByID(env.ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, batchAfter.RemainingQuantity)

	itemAfter, err := env.ledger.GetItem(env.ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, itemAfter.CurrentStock)
}

func TestCreateSale_RaisesLowStockAlert(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Amoxicillin", "AMX-02", 10, 5)
	env.seedBatch(t, item.ID, 8, daysFromNow(30))

	_, err := env.sales.CreateSale(env.ctx, &CreateSaleInput{
		Lines:    []SaleLineInput{{ItemID: item.ID, Quantity: 4}},
		Payments: cashPayment(100),
	})
	require.NoError(t, err)

	result, err := env.alerts.ListAlerts(env.ctx, &repository.AlertFilterParams{UnresolvedOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, enum.AlertTypeLowStock, result.Items[0].AlertType)
	assert.Equal(t, item.ID, result.Items[0].ItemID)
}

func TestCreateSale_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Paracetamol", "PCM-02", 10, 0)
	env.seedBatch(t, item.ID, 10, daysFromNow(30))

	cases := []struct {
		name  string
		input *CreateSaleInput
	}{
		{"no lines", &CreateSaleInput{Payments: cashPayment(10)}},
		{"zero quantity", &CreateSaleInput{
			Lines:    []SaleLineInput{{ItemID: item.ID, Quantity: 0}},
			Payments: cashPayment(10),
		}},
		{"no payments", &CreateSaleInput{
			Lines: []SaleLineInput{{ItemID: item.ID, Quantity: 1}},
		}},
		{"card without last4", &CreateSaleInput{
			Lines:    []SaleLineInput{{ItemID: item.ID, Quantity: 1}},
			Payments: []PaymentInput{{Method: enum.PaymentMethodCard, Amount: 12}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.sales.CreateSale(env.ctx, tc.input)
			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))
		})
	}
}
