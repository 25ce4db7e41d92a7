package memory

import (
	"context"
	"sort"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/google/uuid"
)

type returnRepository struct{ s *Store }

// Returns returns the in-memory return repository
func (s *Store) Returns() repository.ReturnRepository { return &returnRepository{s} }

func (r *returnRepository) Create(ctx context.Context, ret *entity.Return) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&ret.ID)
	ret.CreatedAt = r.s.next()
	clone := *ret
	clone.Items = nil
	clone.CreditNote = nil
	r.s.returns[ret.ID] = &clone
	return nil
}

func (r *returnRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Return, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ret, ok := r.s.returns[id]
	if !ok || !scoped(ctx, ret.TenantID) {
		return nil, nil
	}
	clone := *ret
	return &clone, nil
}

func (r *returnRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Return, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ret, ok := r.s.returns[id]
	if !ok || !scoped(ctx, ret.TenantID) {
		return nil, nil
	}
	clone := *ret
	for _, ri := range r.s.returnItems {
		if ri.ReturnID == id {
			clone.Items = append(clone.Items, *ri)
		}
	}
	sort.SliceStable(clone.Items, func(i, j int) bool {
		return clone.Items[i].CreatedAt.Before(clone.Items[j].CreatedAt)
	})
	for _, cn := range r.s.creditNotes {
		if cn.ReturnID == id {
			note := *cn
			clone.CreditNote = &note
			break
		}
	}
	return &clone, nil
}

func (r *returnRepository) Update(ctx context.Context, ret *entity.Return) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	clone := *ret
	clone.Items = nil
	clone.CreditNote = nil
	r.s.returns[ret.ID] = &clone
	return nil
}

func (r *returnRepository) List(ctx context.Context, params *repository.ReturnFilterParams) ([]entity.Return, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var returns []entity.Return
	for _, ret := range r.s.returns {
		if !scoped(ctx, ret.TenantID) {
			continue
		}
		if params != nil && params.Status != nil && ret.Status != *params.Status {
			continue
		}
		if params != nil && params.SaleID != nil && ret.SaleID != *params.SaleID {
			continue
		}
		returns = append(returns, *ret)
	}
	sort.SliceStable(returns, func(i, j int) bool {
		return returns[i].CreatedAt.Before(returns[j].CreatedAt)
	})
	return returns, int64(len(returns)), nil
}

type returnItemRepository struct{ s *Store }

// ReturnItems returns the in-memory return item repository
func (s *Store) ReturnItems() repository.ReturnItemRepository { return &returnItemRepository{s} }

func (r *returnItemRepository) CreateBatch(ctx context.Context, items []entity.ReturnItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range items {
		ensureID(&items[i].ID)
		items[i].CreatedAt = r.s.next()
		clone := items[i]
		r.s.returnItems[items[i].ID] = &clone
	}
	return nil
}

func (r *returnItemRepository) GetByReturnID(ctx context.Context, returnID uuid.UUID) ([]entity.ReturnItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var items []entity.ReturnItem
	for _, ri := range r.s.returnItems {
		if scoped(ctx, ri.TenantID) && ri.ReturnID == returnID {
			items = append(items, *ri)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *returnItemRepository) UpdateDisposition(ctx context.Context, id uuid.UUID, disposition enum.Disposition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ri, ok := r.s.returnItems[id]; ok && scoped(ctx, ri.TenantID) {
		ri.Disposition = disposition
	}
	return nil
}

type creditNoteRepository struct{ s *Store }

// CreditNotes returns the in-memory credit note repository
func (s *Store) CreditNotes() repository.CreditNoteRepository { return &creditNoteRepository{s} }

func (r *creditNoteRepository) Create(ctx context.Context, note *entity.CreditNote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&note.ID)
	note.CreatedAt = r.s.next()
	clone := *note
	r.s.creditNotes[note.ID] = &clone
	return nil
}

func (r *creditNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CreditNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	note, ok := r.s.creditNotes[id]
	if !ok || !scoped(ctx, note.TenantID) {
		return nil, nil
	}
	clone := *note
	return &clone, nil
}

func (r *creditNoteRepository) GetByNumber(ctx context.Context, number string) (*entity.CreditNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, note := range r.s.creditNotes {
		if scoped(ctx, note.TenantID) && note.CreditNoteNumber == number {
			clone := *note
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *creditNoteRepository) Apply(ctx context.Context, id uuid.UUID, amount int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	note, ok := r.s.creditNotes[id]
	if !ok || !scoped(ctx, note.TenantID) {
		return false, nil
	}
	if note.Status != enum.CreditNoteStatusActive || note.RemainingAmount < amount {
		return false, nil
	}
	note.UsedAmount += amount
	note.RemainingAmount -= amount
	return true, nil
}

func (r *creditNoteRepository) MarkExhausted(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if note, ok := r.s.creditNotes[id]; ok && scoped(ctx, note.TenantID) && note.RemainingAmount == 0 {
		note.Status = enum.CreditNoteStatusExhausted
	}
	return nil
}
