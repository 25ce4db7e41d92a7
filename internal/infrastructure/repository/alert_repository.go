package repository

import (
	"context"
	"errors"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	domainRepo "github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stockAlertRepository struct {
	db *gorm.DB
}

// NewStockAlertRepository creates a new stock alert repository
func NewStockAlertRepository(db *gorm.DB) domainRepo.StockAlertRepository {
	return &stockAlertRepository{db: db}
}

// CreateIfAbsent deduplicates with a single conditional INSERT rather than a
// query-then-insert pair, so two concurrent low-stock triggers for the same
// item produce exactly one unresolved alert:
// INSERT INTO stock_alerts (...)
// SELECT ... WHERE NOT EXISTS (
//
//	SELECT 1 FROM stock_alerts
//	WHERE tenant_id = ? AND item_id = ? AND alert_type = ? AND resolved = false)
func (r *stockAlertRepository) CreateIfAbsent(ctx context.Context, alert *entity.StockAlert) (bool, error) {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	now := time.Now()

	result := conn(ctx, r.db).Exec(`
		INSERT INTO stock_alerts (id, tenant_id, item_id, alert_type, message, resolved, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?, false, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM stock_alerts
			WHERE tenant_id = ? AND item_id = ? AND alert_type = ? AND resolved = false
		)`,
		alert.ID, alert.TenantID, alert.ItemID, alert.AlertType, alert.Message, now, now,
		alert.TenantID, alert.ItemID, alert.AlertType,
	)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *stockAlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.StockAlert, error) {
	var alert entity.StockAlert
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).First(&alert, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &alert, err
}

func (r *stockAlertRepository) Resolve(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Model(&entity.StockAlert{}).
		Scopes(TenantScope(ctx)).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"resolved":    true,
			"resolved_at": time.Now(),
		}).Error
}

func (r *stockAlertRepository) List(ctx context.Context, params *domainRepo.AlertFilterParams) ([]entity.StockAlert, int64, error) {
	var alerts []entity.StockAlert
	var total int64

	query := conn(ctx, r.db).Model(&entity.StockAlert{}).Scopes(TenantScope(ctx))

	if params.ItemID != nil {
		query = query.Where("item_id = ?", *params.ItemID)
	}

	if params.AlertType != nil {
		query = query.Where("alert_type = ?", *params.AlertType)
	}

	if params.UnresolvedOnly {
		query = query.Where("resolved = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Item").
		Order("created_at DESC").
		Find(&alerts).Error

	return alerts, total, err
}
