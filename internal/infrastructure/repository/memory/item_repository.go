package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/pkg/pagination"
	"github.com/google/uuid"
)

type itemRepository struct{ s *Store }

// Items returns the in-memory item repository
func (s *Store) Items() repository.ItemRepository { return &itemRepository{s} }

func (r *itemRepository) Create(ctx context.Context, item *entity.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&item.ID)
	item.CreatedAt = r.s.next()
	clone := *item
	r.s.items[item.ID] = &clone
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok || !scoped(ctx, item.TenantID) {
		return nil, nil
	}
	clone := *item
	return &clone, nil
}

func (r *itemRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *itemRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var items []entity.Item
	for _, id := range ids {
		if item, ok := r.s.items[id]; ok && scoped(ctx, item.TenantID) {
			items = append(items, *item)
		}
	}
	return items, nil
}

func (r *itemRepository) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, item := range r.s.items {
		if scoped(ctx, item.TenantID) && item.Code == code {
			clone := *item
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *itemRepository) Update(ctx context.Context, item *entity.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	clone := *item
	r.s.items[item.ID] = &clone
	return nil
}

func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.items, id)
	return nil
}

func (r *itemRepository) List(ctx context.Context, params *repository.ItemFilterParams) ([]entity.Item, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var items []entity.Item
	for _, item := range r.s.items {
		if !scoped(ctx, item.TenantID) {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(params.Search)) {
			continue
		}
		if params.ActiveOnly && !item.IsActive {
			continue
		}
		if params.LowStock && !item.IsLowStock() {
			continue
		}
		items = append(items, *item)
	}
	return items, int64(len(items)), nil
}

func (r *itemRepository) GetLowStock(ctx context.Context) ([]entity.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var items []entity.Item
	for _, item := range r.s.items {
		if scoped(ctx, item.TenantID) && item.IsLowStock() {
			items = append(items, *item)
		}
	}
	return items, nil
}

func (r *itemRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok || !scoped(ctx, item.TenantID) {
		return false, nil
	}
	if item.CurrentStock+delta < 0 {
		return false, nil
	}
	item.CurrentStock += delta
	return true, nil
}

type categoryRepository struct{ s *Store }

// Categories returns the in-memory category repository
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepository{s} }

func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&category.ID)
	clone := *category
	r.s.categories[category.ID] = &clone
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	category, ok := r.s.categories[id]
	if !ok || !scoped(ctx, category.TenantID) {
		return nil, nil
	}
	clone := *category
	return &clone, nil
}

func (r *categoryRepository) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Category, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var categories []entity.Category
	for _, c := range r.s.categories {
		if scoped(ctx, c.TenantID) {
			categories = append(categories, *c)
		}
	}
	return categories, int64(len(categories)), nil
}

type supplierRepository struct{ s *Store }

// Suppliers returns the in-memory supplier repository
func (s *Store) Suppliers() repository.SupplierRepository { return &supplierRepository{s} }

func (r *supplierRepository) Create(ctx context.Context, supplier *entity.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&supplier.ID)
	clone := *supplier
	r.s.suppliers[supplier.ID] = &clone
	return nil
}

func (r *supplierRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	supplier, ok := r.s.suppliers[id]
	if !ok || !scoped(ctx, supplier.TenantID) {
		return nil, nil
	}
	clone := *supplier
	return &clone, nil
}

func (r *supplierRepository) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Supplier, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var suppliers []entity.Supplier
	for _, s := range r.s.suppliers {
		if scoped(ctx, s.TenantID) {
			suppliers = append(suppliers, *s)
		}
	}
	return suppliers, int64(len(suppliers)), nil
}

type tenantRepository struct{ s *Store }

// Tenants returns the in-memory tenant repository
func (s *Store) Tenants() repository.TenantRepository { return &tenantRepository{s} }

// AddTenant seeds a tenant for tests
func (s *Store) AddTenant(tenant *entity.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&tenant.ID)
	clone := *tenant
	s.tenants[tenant.ID] = &clone
}

func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tenant, ok := r.s.tenants[id]
	if !ok {
		return nil, nil
	}
	clone := *tenant
	return &clone, nil
}

func (r *tenantRepository) List(ctx context.Context) ([]entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tenants := make([]entity.Tenant, 0, len(r.s.tenants))
	for _, tenant := range r.s.tenants {
		tenants = append(tenants, *tenant)
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].CreatedAt.Before(tenants[j].CreatedAt) })
	return tenants, nil
}
