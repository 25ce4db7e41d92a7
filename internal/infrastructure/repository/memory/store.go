// Package memory provides an in-memory implementation of the domain
// repositories for tests. Conditional updates take the store mutex so the
// same atomicity guarantees hold as with the SQL guards; transactions are
// pass-through because test scenarios assert on committed state only.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	infraRepo "github.com/caredesk/pharmacy-api/internal/infrastructure/repository"
	"github.com/google/uuid"
)

// Store holds all entity tables behind a single mutex.
type Store struct {
	mu sync.Mutex

	tenants     map[uuid.UUID]*entity.Tenant
	items       map[uuid.UUID]*entity.Item
	categories  map[uuid.UUID]*entity.Category
	suppliers   map[uuid.UUID]*entity.Supplier
	batches     map[uuid.UUID]*entity.Batch
	movements   []entity.StockMovement
	sales       map[uuid.UUID]*entity.Sale
	saleItems   map[uuid.UUID]*entity.SaleItem
	payments    []entity.Payment
	returns     map[uuid.UUID]*entity.Return
	returnItems map[uuid.UUID]*entity.ReturnItem
	creditNotes map[uuid.UUID]*entity.CreditNote
	alerts      map[uuid.UUID]*entity.StockAlert

	seq int64
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		tenants:     make(map[uuid.UUID]*entity.Tenant),
		items:       make(map[uuid.UUID]*entity.Item),
		categories:  make(map[uuid.UUID]*entity.Category),
		suppliers:   make(map[uuid.UUID]*entity.Supplier),
		batches:     make(map[uuid.UUID]*entity.Batch),
		sales:       make(map[uuid.UUID]*entity.Sale),
		saleItems:   make(map[uuid.UUID]*entity.SaleItem),
		returns:     make(map[uuid.UUID]*entity.Return),
		returnItems: make(map[uuid.UUID]*entity.ReturnItem),
		creditNotes: make(map[uuid.UUID]*entity.CreditNote),
		alerts:      make(map[uuid.UUID]*entity.StockAlert),
	}
}

// Do satisfies repository.TxManager. The in-memory store has no rollback;
// callers assert on committed state only.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// next returns a strictly increasing timestamp so insertion order is
// deterministic even when the wall clock does not advance between creates.
func (s *Store) next() time.Time {
	s.seq++
	return time.Now().Add(time.Duration(s.seq) * time.Nanosecond)
}

// scoped reports whether the record's tenant matches the caller's context.
// A missing tenant context matches nothing, mirroring the SQL fail-safe.
func scoped(ctx context.Context, tenantID uuid.UUID) bool {
	id, ok := infraRepo.GetTenantID(ctx)
	return ok && id == tenantID
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
