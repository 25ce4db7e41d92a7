package service

import (
	"context"
	"fmt"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	infraRepo "github.com/caredesk/pharmacy-api/internal/infrastructure/repository"
	"github.com/caredesk/pharmacy-api/pkg/apperror"
	"github.com/caredesk/pharmacy-api/pkg/notify"
	"github.com/caredesk/pharmacy-api/pkg/pagination"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AlertService raises and resolves stock alerts. Raising is idempotent per
// (item, alert type): repeated evaluations while an alert is unresolved are
// suppressed by the repository's atomic insert.
type AlertService struct {
	alertRepo  repository.StockAlertRepository
	tenantRepo repository.TenantRepository
	notifier   notify.Notifier
	log        *logrus.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(
	alertRepo repository.StockAlertRepository,
	tenantRepo repository.TenantRepository,
	notifier notify.Notifier,
	log *logrus.Logger,
) *AlertService {
	return &AlertService{
		alertRepo:  alertRepo,
		tenantRepo: tenantRepo,
		notifier:   notifier,
		log:        log,
	}
}

// EvaluateItem inspects the item's stock level after a mutation and raises
// the appropriate alert. Out of stock takes precedence over low stock.
// Suppressed duplicates are not an error.
func (s *AlertService) EvaluateItem(ctx context.Context, item *entity.Item) error {
	if item == nil {
		return nil
	}

	var (
		alertType enum.AlertType
		message   string
	)
	switch {
	case item.CurrentStock == 0:
		alertType = enum.AlertTypeOutOfStock
		message = fmt.Sprintf("%s (%s) is out of stock", item.Name, item.Code)
	case item.IsLowStock():
		alertType = enum.AlertTypeLowStock
		message = fmt.Sprintf("%s (%s) is low on stock: %d remaining, minimum %d",
			item.Name, item.Code, item.CurrentStock, item.MinimumStock)
	default:
		return nil
	}

	return s.raise(ctx, item, alertType, message)
}

// RaiseExpiring raises an expiring-soon alert for a batch inside the expiry
// warning window.
func (s *AlertService) RaiseExpiring(ctx context.Context, item *entity.Item, batch *entity.Batch) error {
	if batch.ExpiryDate == nil {
		return nil
	}
	message := fmt.Sprintf("Batch %s of %s (%s) expires on %s",
		batch.BatchNumber, item.Name, item.Code, batch.ExpiryDate.Format("2006-01-02"))
	return s.raise(ctx, item, enum.AlertTypeExpiringSoon, message)
}

func (s *AlertService) raise(ctx context.Context, item *entity.Item, alertType enum.AlertType, message string) error {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return apperror.NewBadRequestError("tenant context required")
	}

	alert := &entity.StockAlert{
		TenantID:  tenantID,
		ItemID:    item.ID,
		AlertType: alertType,
		Message:   message,
	}

	created, err := s.alertRepo.CreateIfAbsent(ctx, alert)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	s.log.WithFields(logrus.Fields{
		"item_id":    item.ID,
		"alert_type": alertType.String(),
	}).Info("Stock alert raised")

	s.dispatch(ctx, tenantID, alertType, message)
	return nil
}

// dispatch sends the alert to the tenant's configured recipient. Delivery
// is best effort and never fails the calling operation.
func (s *AlertService) dispatch(ctx context.Context, tenantID uuid.UUID, alertType enum.AlertType, message string) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil || tenant == nil || tenant.Settings.AlertRecipient == "" {
		return
	}

	subject := fmt.Sprintf("Stock alert: %s", alertType.String())
	if err := s.notifier.Notify(tenant.Settings.AlertRecipient, subject, message); err != nil {
		s.log.WithError(err).Warn("Failed to dispatch stock alert notification")
	}
}

// ResolveAlert marks an alert as resolved. Stock recovering above the
// threshold does not auto-resolve; this is the explicit acknowledgement.
func (s *AlertService) ResolveAlert(ctx context.Context, id uuid.UUID) (*entity.StockAlert, error) {
	alert, err := s.alertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, apperror.NewNotFoundError("Alert")
	}
	if alert.Resolved {
		return nil, apperror.NewInvalidStateError("alert is already resolved")
	}

	if err := s.alertRepo.Resolve(ctx, id); err != nil {
		return nil, err
	}
	return s.alertRepo.GetByID(ctx, id)
}

// ListAlerts returns alerts matching the filter
func (s *AlertService) ListAlerts(ctx context.Context, params *repository.AlertFilterParams) (*pagination.PaginatedResult[entity.StockAlert], error) {
	if params == nil {
		params = &repository.AlertFilterParams{}
	}
	if params.Pagination == nil {
		params.Pagination = &pagination.PaginationParams{}
	}
	params.Pagination.Validate()

	alerts, total, err := s.alertRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pg := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(alerts, pg), nil
}
