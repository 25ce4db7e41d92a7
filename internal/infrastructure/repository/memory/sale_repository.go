package memory

import (
	"context"
	"sort"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/google/uuid"
)

type saleRepository struct{ s *Store }

// Sales returns the in-memory sale repository
func (s *Store) Sales() repository.SaleRepository { return &saleRepository{s} }

func (r *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&sale.ID)
	sale.CreatedAt = r.s.next()
	clone := *sale
	clone.Items = nil
	clone.Payments = nil
	r.s.sales[sale.ID] = &clone
	return nil
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[id]
	if !ok || !scoped(ctx, sale.TenantID) {
		return nil, nil
	}
	clone := *sale
	return &clone, nil
}

func (r *saleRepository) GetBySaleNumber(ctx context.Context, saleNumber string) (*entity.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sale := range r.s.sales {
		if scoped(ctx, sale.TenantID) && sale.SaleNumber == saleNumber {
			clone := *sale
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *saleRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[id]
	if !ok || !scoped(ctx, sale.TenantID) {
		return nil, nil
	}
	clone := *sale
	for _, si := range r.s.saleItems {
		if si.SaleID == id {
			clone.Items = append(clone.Items, *si)
		}
	}
	sort.SliceStable(clone.Items, func(i, j int) bool {
		return clone.Items[i].CreatedAt.Before(clone.Items[j].CreatedAt)
	})
	for _, p := range r.s.payments {
		if p.SaleID == id {
			clone.Payments = append(clone.Payments, p)
		}
	}
	return &clone, nil
}

func (r *saleRepository) Update(ctx context.Context, sale *entity.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	clone := *sale
	clone.Items = nil
	clone.Payments = nil
	r.s.sales[sale.ID] = &clone
	return nil
}

func (r *saleRepository) List(ctx context.Context, params *repository.SaleFilterParams) ([]entity.Sale, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sales []entity.Sale
	for _, sale := range r.s.sales {
		if !scoped(ctx, sale.TenantID) {
			continue
		}
		if params != nil && params.Status != nil && sale.Status != *params.Status {
			continue
		}
		sales = append(sales, *sale)
	}
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].CreatedAt.Before(sales[j].CreatedAt)
	})
	return sales, int64(len(sales)), nil
}

type saleItemRepository struct{ s *Store }

// SaleItems returns the in-memory sale item repository
func (s *Store) SaleItems() repository.SaleItemRepository { return &saleItemRepository{s} }

func (r *saleItemRepository) CreateBatch(ctx context.Context, items []entity.SaleItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range items {
		ensureID(&items[i].ID)
		items[i].CreatedAt = r.s.next()
		clone := items[i]
		r.s.saleItems[items[i].ID] = &clone
	}
	return nil
}

func (r *saleItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.SaleItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	si, ok := r.s.saleItems[id]
	if !ok || !scoped(ctx, si.TenantID) {
		return nil, nil
	}
	clone := *si
	return &clone, nil
}

func (r *saleItemRepository) GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.SaleItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var items []entity.SaleItem
	for _, si := range r.s.saleItems {
		if scoped(ctx, si.TenantID) && si.SaleID == saleID {
			items = append(items, *si)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *saleItemRepository) IncrementReturned(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	si, ok := r.s.saleItems[id]
	if !ok || !scoped(ctx, si.TenantID) {
		return false, nil
	}
	if si.Quantity-si.ReturnedQuantity < qty {
		return false, nil
	}
	si.ReturnedQuantity += qty
	return true, nil
}

func (r *saleItemRepository) DecrementReturned(ctx context.Context, id uuid.UUID, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if si, ok := r.s.saleItems[id]; ok && scoped(ctx, si.TenantID) {
		si.ReturnedQuantity -= qty
		if si.ReturnedQuantity < 0 {
			si.ReturnedQuantity = 0
		}
	}
	return nil
}

type paymentRepository struct{ s *Store }

// Payments returns the in-memory payment repository
func (s *Store) Payments() repository.PaymentRepository { return &paymentRepository{s} }

func (r *paymentRepository) CreateBatch(ctx context.Context, payments []entity.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range payments {
		ensureID(&payments[i].ID)
		payments[i].CreatedAt = r.s.next()
		r.s.payments = append(r.s.payments, payments[i])
	}
	return nil
}

func (r *paymentRepository) GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var payments []entity.Payment
	for _, p := range r.s.payments {
		if scoped(ctx, p.TenantID) && p.SaleID == saleID {
			payments = append(payments, p)
		}
	}
	return payments, nil
}
