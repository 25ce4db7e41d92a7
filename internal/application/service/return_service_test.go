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

// sellUnits seeds an item with one batch and sells qty units of it at the
// given price, returning the sale with details.
func sellUnits(t *testing.T, env *testEnv, code string, price float64, stock, qty int) *entity.Sale {
	t.Helper()
	item := env.seedItem(t, "Test item "+code, code, price, 0)
	env.seedBatch(t, item.ID, stock, daysFromNow(60))

	sale, err := env.sales.CreateSale(env.ctx, &CreateSaleInput{
		Lines:    []SaleLineInput{{ItemID: item.ID, Quantity: qty}},
		Payments: cashPayment(price * float64(qty) * 1.2),
	})
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	return sale
}

func TestCreateSalesReturn_RestockAndRefund(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	sale := sellUnits(t, env, "RET-01", 10, 20, 5)
	itemID := sale.Items[0].ItemID

	ret, err := env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID: sale.ID,
		Lines: []ReturnLineInput{{
			SaleItemID:    sale.Items[0].ID,
			Quantity:      3,
			IsRestockable: true,
		}},
		Reason:         "customer changed mind",
		SettlementType: enum.SettlementTypeRefund,
	})
	require.NoError(t, err)

	// No approval threshold configured, so the return settles immediately.
	assert.Equal(t, enum.ReturnStatusCompleted, ret.Status)
	assert.NotNil(t, ret.CompletedAt)
	assert.Equal(t, int64(3000), ret.SubtotalAmount)
	assert.Equal(t, int64(600), ret.TaxAmount)
	assert.Equal(t, int64(3600), ret.TotalAmount)
	assert.Equal(t, int64(3600), ret.NetRefundAmount)
	require.Len(t, ret.Items, 1)
	assert.Equal(t, enum.DispositionRestocked, ret.Items[0].Disposition)

	item, err := env.ledger.GetItem(env.ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 18, item.CurrentStock) // 20 - 5 + 3

	movements, _, err := env.store.Movements().ListByItem(env.ctx, itemID, &repository.MovementFilterParams{})
	require.NoError(t, err)
	var restocks int
	for _, m := range movements {
		if m.MovementType == enum.MovementTypeReturnRestock {
			restocks++
			assert.Equal(t, 3, m.Quantity)
		}
	}
	assert.Equal(t, 1, restocks)

	si, err := env.store.SaleItems().GetByID(env.ctx, sale.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, si.ReturnedQuantity)
}

func TestCreateSalesReturn_NonRestockableIsDisposed(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	sale := sellUnits(t, env, "RET-02", 10, 10, 4)

	ret, err := env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID: sale.ID,
		Lines: []ReturnLineInput{{
			SaleItemID:    sale.Items[0].ID,
			Quantity:      2,
			IsRestockable: false,
		}},
		Reason:         "damaged packaging",
		SettlementType: enum.SettlementTypeRefund,
	})
	require.NoError(t, err)
	assert.Equal(t, enum.DispositionDisposed, ret.Items[0].Disposition)

	// Disposed units never rejoin the stock.
	item, err := env.ledger.GetItem(env.ctx, sale.Items[0].ItemID)
	require.NoError(t, err)
	assert.Equal(t, 6, item.CurrentStock)
}

func TestCreateSalesReturn_CapEnforced(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	sale := sellUnits(t, env, "RET-03", 10, 20, 5)

	_, err := env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID:         sale.ID,
		Lines:          []ReturnLineInput{{SaleItemID: sale.Items[0].ID, Quantity: 3, IsRestockable: true}},
		Reason:         "first return",
		SettlementType: enum.SettlementTypeRefund,
	})
	require.NoError(t, err)

	// 3 of 5 already returned; another 3 exceeds the cap.
	_, err = env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID:         sale.ID,
		Lines:          []ReturnLineInput{{SaleItemID: sale.Items[0].ID, Quantity: 3, IsRestockable: true}},
		Reason:         "second return",
		SettlementType: enum.SettlementTypeRefund,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindQuantityExceeded))

	var qtyErr *apperror.QuantityExceededError
	require.ErrorAs(t, err, &qtyErr)
	assert.Equal(t, 3, qtyErr.Requested)
	assert.Equal(t, 2, qtyErr.Returnable)

	// The remaining 2 still go through.
	_, err = env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID:         sale.ID,
		Lines:          []ReturnLineInput{{SaleItemID: sale.Items[0].ID, Quantity: 2, IsRestockable: true}},
		Reason:         "remainder",
		SettlementType: enum.SettlementTypeRefund,
	})
	require.NoError(t, err)
}

func TestCreateSalesReturn_VoidedSaleRejected(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	sale := sellUnits(t, env, "RET-04", 10, 10, 2)

	_, err := env.sales.VoidSale(env.ctx, sale.ID, &VoidSaleInput{Reason: "mistake"})
	require.NoError(t, err)

	_, err = env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID:         sale.ID,
		Lines:          []ReturnLineInput{{SaleItemID: sale.Items[0].ID, Quantity: 1}},
		Reason:         "too late",
		SettlementType: enum.SettlementTypeRefund,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestReturnApproval_ThresholdGateAndApprove(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{ReturnApprovalThreshold: 1000})
	sale := sellUnits(t, env, "RET-05", 10, 20, 5)
	itemID := sale.Items[0].ItemID

	ret, err := env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID:         sale.ID,
		Lines:          []ReturnLineInput{{SaleItemID: sale.Items[0].ID, Quantity: 3, IsRestockable: true}},
		Reason:         "bulk return",
		SettlementType: enum.SettlementTypeRefund,
	})
	require.NoError(t, err)
	assert.Equal(t, enum.ReturnStatusPendingApproval, ret.Status)

	// Nothing restocked while the return is parked.
	item, err := env.ledger.GetItem(env.ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 15, item.CurrentStock)

	approved, err := env.returns.ProcessReturnApproval(env.ctx, ret.ID, &ApprovalInput{
		Approve:   true,
		DecidedBy: "pharmacist-in-charge",
	})
	require.NoError(t, err)
	assert.Equal(t, enum.ReturnStatusCompleted, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "pharmacist-in-charge", *approved.ApprovedBy)

	item, err = env.ledger.GetItem(env.ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 18, item.CurrentStock)

	// Deciding a completed return again is rejected.
	_, err = env.returns.ProcessReturnApproval(env.ctx, ret.ID, &ApprovalInput{
		Approve:   true,
		DecidedBy: "pharmacist-in-charge",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestReturnApproval_RejectReleasesReservation(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{ReturnApprovalThreshold: 1000})
	sale := sellUnits(t, env, "RET-06", 10, 20, 5)

	ret, err := env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID:         sale.ID,
		Lines:          []ReturnLineInput{{SaleItemID: sale.Items[0].ID, Quantity: 4, IsRestockable: true}},
		Reason:         "suspicious",
		SettlementType: enum.SettlementTypeRefund,
	})
	require.NoError(t, err)
	require.Equal(t, enum.ReturnStatusPendingApproval, ret.Status)

	si, err := env.store.SaleItems().GetByID(env.ctx, sale.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 4, si.ReturnedQuantity)

	rejected, err := env.returns.ProcessReturnApproval(env.ctx, ret.ID, &ApprovalInput{
		Approve:   false,
		DecidedBy: "pharmacist-in-charge",
	})
	require.NoError(t, err)
	assert.Equal(t, enum.ReturnStatusRejected, rejected.Status)

	// The units are returnable again.
	si, err = env.store.SaleItems().GetByID(env.ctx, sale.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, si.ReturnedQuantity)

	// And no stock came back.
	item, err := env.ledger.GetItem(env.ctx, sale.Items[0].ItemID)
	require.NoError(t, err)
	assert.Equal(t, 15, item.CurrentStock)
}

func TestCreditNote_IssueApplyExhaust(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	sale := sellUnits(t, env, "RET-07", 10, 20, 5)

	ret, err := env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID:               sale.ID,
		Lines:                []ReturnLineInput{{SaleItemID: sale.Items[0].ID, Quantity: 5, IsRestockable: true}},
		Reason:               "store credit please",
		SettlementType:       enum.SettlementTypeCreditNote,
		RestockingFeePercent: 10,
	})
	require.NoError(t, err)
	require.NotNil(t, ret.CreditNote)

	// 5 units at 10.00 with 20% tax is 60.00; the 10% restocking fee is
	// charged on the 50.00 subtotal only, so the note nets 55.00.
	assert.Equal(t, int64(500), ret.RestockingFee)
	assert.Equal(t, int64(5500), ret.NetRefundAmount)
	note := ret.CreditNote
	assert.Equal(t, int64(5500), note.OriginalAmount)
	assert.Equal(t, int64(5500), note.RemainingAmount)
	assert.Equal(t, enum.CreditNoteStatusActive, note.Status)

	// Partial redemption.
	after, err := env.returns.ApplyCreditNote(env.ctx, note.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), after.UsedAmount)
	assert.Equal(t, int64(3500), after.RemainingAmount)
	assert.Equal(t, after.OriginalAmount, after.UsedAmount+after.RemainingAmount)

	// Over-redemption is rejected without touching the balance.
	_, err = env.returns.ApplyCreditNote(env.ctx, note.ID, 100)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))

	unchanged, err := env.returns.GetCreditNote(env.ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3500), unchanged.RemainingAmount)

	// Exact redemption exhausts the note.
	exhausted, err := env.returns.ApplyCreditNote(env.ctx, note.ID, 35)
	require.NoError(t, err)
	assert.Equal(t, int64(0), exhausted.RemainingAmount)
	assert.Equal(t, enum.CreditNoteStatusExhausted, exhausted.Status)

	// An exhausted note cannot be redeemed again.
	_, err = env.returns.ApplyCreditNote(env.ctx, note.ID, 1)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestCreditNote_PaysForSale(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	sale := sellUnits(t, env, "RET-08", 10, 20, 5)

	ret, err := env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID:         sale.ID,
		Lines:          []ReturnLineInput{{SaleItemID: sale.Items[0].ID, Quantity: 5, IsRestockable: true}},
		Reason:         "store credit",
		SettlementType: enum.SettlementTypeCreditNote,
	})
	require.NoError(t, err)
	require.NotNil(t, ret.CreditNote)
	noteID := ret.CreditNote.ID

	item := env.seedItem(t, "Vitamin C", "VIT-C", 10, 0)
	env.seedBatch(t, item.ID, 10, daysFromNow(60))

	newSale, err := env.sales.CreateSale(env.ctx, &CreateSaleInput{
		Lines: []SaleLineInput{{ItemID: item.ID, Quantity: 2}},
		Payments: []PaymentInput{{
			Method:       enum.PaymentMethodCreditNote,
			Amount:       24,
			CreditNoteID: &noteID,
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusPaid, newSale.PaymentStatus)

	note, err := env.returns.GetCreditNote(env.ctx, noteID)
	require.NoError(t, err)
	assert.Equal(t, int64(6000)-int64(2400), note.RemainingAmount)
}

func TestCreateSalesReturn_MissingSale(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	sale := sellUnits(t, env, "RET-09", 10, 10, 1)

	_, err := env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID:         sale.Items[0].ID, // not a sale ID
		Lines:          []ReturnLineInput{{SaleItemID: sale.Items[0].ID, Quantity: 1}},
		Reason:         "wrong id",
		SettlementType: enum.SettlementTypeRefund,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestCreateSalesReturn_FeeChargedOnSubtotalOnly(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	sale := sellUnits(t, env, "RET-10", 10, 20, 5)

	ret, err := env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID:               sale.ID,
		Lines:                []ReturnLineInput{{SaleItemID: sale.Items[0].ID, Quantity: 5, IsRestockable: true}},
		Reason:               "full return",
		SettlementType:       enum.SettlementTypeRefund,
		RestockingFeePercent: 10,
	})
	require.NoError(t, err)

	// Subtotal 50.00 plus 20% tax makes 60.00 refundable, but the 10% fee
	// applies to the subtotal alone. The tax portion is never fee-charged.
	assert.Equal(t, int64(5000), ret.SubtotalAmount)
	assert.Equal(t, int64(1000), ret.TaxAmount)
	assert.Equal(t, int64(6000), ret.TotalAmount)
	assert.Equal(t, int64(500), ret.RestockingFee)
	assert.Equal(t, int64(5500), ret.NetRefundAmount)
}

func TestCreditNote_ConcurrentDrainFlipsExhausted(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	sale := sellUnits(t, env, "RET-11", 10, 20, 5)

	ret, err := env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID:         sale.ID,
		Lines:          []ReturnLineInput{{SaleItemID: sale.Items[0].ID, Quantity: 5, IsRestockable: true}},
		Reason:         "store credit",
		SettlementType: enum.SettlementTypeCreditNote,
	})
	require.NoError(t, err)
	require.NotNil(t, ret.CreditNote)
	noteID := ret.CreditNote.ID
	require.Equal(t, int64(6000), ret.CreditNote.RemainingAmount)

	// Two redemptions that together drain the balance. Each reads the note
	// before applying, so neither read needs to equal its own amount; the
	// exhausted flip must not depend on those stale reads.
	amounts := []float64{35, 25}
	var wg sync.WaitGroup
	errs := make([]error, len(amounts))
	for i, amount := range amounts {
		wg.Add(1)
		go func(i int, amount float64) {
			defer wg.Done()
			_, errs[i] = env.returns.ApplyCreditNote(env.ctx, noteID, amount)
		}(i, amount)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	note, err := env.returns.GetCreditNote(env.ctx, noteID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), note.RemainingAmount)
	assert.Equal(t, int64(6000), note.UsedAmount)
	assert.Equal(t, enum.CreditNoteStatusExhausted, note.Status)
}

func TestVoidSale_RejectedAfterReturn(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	sale := sellUnits(t, env, "RET-12", 10, 20, 5)
	itemID := sale.Items[0].ItemID

	_, err := env.returns.CreateSalesReturn(env.ctx, &CreateReturnInput{
		SaleID:         sale.ID,
		Lines:          []ReturnLineInput{{SaleItemID: sale.Items[0].ID, Quantity: 2, IsRestockable: true}},
		Reason:         "partial return",
		SettlementType: enum.SettlementTypeRefund,
	})
	require.NoError(t, err)

	// The two returned units are already back in stock; voiding on top
	// would restore all five and overshoot total receipts.
	_, err = env.sales.VoidSale(env.ctx, sale.ID, &VoidSaleInput{Reason: "mistake"})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))

	item, err := env.ledger.GetItem(env.ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 17, item.CurrentStock) // 20 - 5 + 2, untouched by the void attempt
}
