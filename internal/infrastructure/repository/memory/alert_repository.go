package memory

import (
	"context"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/google/uuid"
)

type stockAlertRepository struct{ s *Store }

// Alerts returns the in-memory stock alert repository
func (s *Store) Alerts() repository.StockAlertRepository { return &stockAlertRepository{s} }

func (r *stockAlertRepository) CreateIfAbsent(ctx context.Context, alert *entity.StockAlert) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.alerts {
		if existing.TenantID == alert.TenantID &&
			existing.ItemID == alert.ItemID &&
			existing.AlertType == alert.AlertType &&
			!existing.Resolved {
			return false, nil
		}
	}
	ensureID(&alert.ID)
	alert.CreatedAt = r.s.next()
	clone := *alert
	r.s.alerts[alert.ID] = &clone
	return true, nil
}

func (r *stockAlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.StockAlert, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	alert, ok := r.s.alerts[id]
	if !ok || !scoped(ctx, alert.TenantID) {
		return nil, nil
	}
	clone := *alert
	return &clone, nil
}

func (r *stockAlertRepository) Resolve(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if alert, ok := r.s.alerts[id]; ok && scoped(ctx, alert.TenantID) {
		now := time.Now()
		alert.Resolved = true
		alert.ResolvedAt = &now
	}
	return nil
}

func (r *stockAlertRepository) List(ctx context.Context, params *repository.AlertFilterParams) ([]entity.StockAlert, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var alerts []entity.StockAlert
	for _, alert := range r.s.alerts {
		if !scoped(ctx, alert.TenantID) {
			continue
		}
		if params != nil {
			if params.UnresolvedOnly && alert.Resolved {
				continue
			}
			if params.ItemID != nil && alert.ItemID != *params.ItemID {
				continue
			}
			if params.AlertType != nil && alert.AlertType != *params.AlertType {
				continue
			}
		}
		alerts = append(alerts, *alert)
	}
	return alerts, int64(len(alerts)), nil
}
