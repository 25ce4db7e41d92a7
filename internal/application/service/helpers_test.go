package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	infraRepo "github.com/caredesk/pharmacy-api/internal/infrastructure/repository"
	"github.com/caredesk/pharmacy-api/internal/infrastructure/repository/memory"
	"github.com/caredesk/pharmacy-api/pkg/notify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *memory.Store
	ctx      context.Context
	tenantID uuid.UUID
	alerts   *AlertService
	ledger   *LedgerService
	sales    *SaleService
	returns  *ReturnService
}

func newTestEnv(t *testing.T, settings entity.TenantSettings) *testEnv {
	t.Helper()

	if settings.DefaultTaxRate == 0 {
		settings.DefaultTaxRate = 20
	}

	store := memory.NewStore()
	tenant := &entity.Tenant{
		Name:     "Greenfield Pharmacy",
		Slug:     "greenfield",
		Settings: settings,
	}
	store.AddTenant(tenant)

	log := logrus.New()
	log.SetOutput(io.Discard)

	alerts := NewAlertService(store.Alerts(), store.Tenants(), notify.NoopNotifier{}, log)
	ledger := NewLedgerService(store.Items(), store.Batches(), store.Movements(),
		store.Suppliers(), store.Categories(), alerts, store, log)
	sales := NewSaleService(store.Sales(), store.SaleItems(), store.Payments(),
		store.Items(), store.Batches(), store.Movements(), store.CreditNotes(),
		store.Tenants(), alerts, store, settings.DefaultTaxRate, log)
	returns := NewReturnService(store.Returns(), store.ReturnItems(), store.CreditNotes(),
		store.Sales(), store.SaleItems(), store.Items(), store.Batches(), store.Movements(),
		store.Tenants(), store, 0, log)

	return &testEnv{
		store:    store,
		ctx:      infraRepo.WithTenant(context.Background(), tenant.ID),
		tenantID: tenant.ID,
		alerts:   alerts,
		ledger:   ledger,
		sales:    sales,
		returns:  returns,
	}
}

func (e *testEnv) seedItem(t *testing.T, name, code string, salePrice float64, minimumStock int) *entity.Item {
	t.Helper()
	item, err := e.ledger.CreateItem(e.ctx, &CreateItemInput{
		Name:         name,
		Code:         code,
		SalePrice:    salePrice,
		MinimumStock: minimumStock,
	})
	require.NoError(t, err)
	return item
}

func (e *testEnv) seedBatch(t *testing.T, itemID uuid.UUID, qty int, expiry *time.Time) *entity.Batch {
	t.Helper()
	batch, err := e.ledger.ReceiveBatch(e.ctx, &ReceiveBatchInput{
		ItemID:        itemID,
		Quantity:      qty,
		ExpiryDate:    expiry,
		PurchasePrice: 5,
	})
	require.NoError(t, err)
	return batch
}

func daysFromNow(days int) *time.Time {
	d := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	return &d
}
