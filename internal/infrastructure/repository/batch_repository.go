package repository

import (
	"context"
	"errors"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	domainRepo "github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type batchRepository struct {
	db *gorm.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *gorm.DB) domainRepo.BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) Create(ctx context.Context, batch *entity.Batch) error {
	return conn(ctx, r.db).Create(batch).Error
}

func (r *batchRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Batch, error) {
	var batch entity.Batch
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).First(&batch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &batch, err
}

// availableQuery builds the FEFO read: active, unexpired, positive remaining,
// expiry ascending with NULLs (never expires) last, insertion order as the
// tie-break so allocation stays deterministic.
func (r *batchRepository) availableQuery(ctx context.Context, itemID uuid.UUID) *gorm.DB {
	return conn(ctx, r.db).Model(&entity.Batch{}).
		Scopes(TenantScope(ctx)).
		Where("item_id = ?", itemID).
		Where("status = ?", enum.BatchStatusActive).
		Where("remaining_quantity > 0").
		Where("expiry_date IS NULL OR expiry_date > ?", time.Now()).
		Order("expiry_date ASC NULLS LAST, created_at ASC")
}

func (r *batchRepository) AvailableBatches(ctx context.Context, itemID uuid.UUID) ([]entity.Batch, error) {
	var batches []entity.Batch
	err := r.availableQuery(ctx, itemID).Find(&batches).Error
	return batches, err
}

func (r *batchRepository) AvailableBatchesForUpdate(ctx context.Context, itemID uuid.UUID) ([]entity.Batch, error) {
	var batches []entity.Batch
	err := r.availableQuery(ctx, itemID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Find(&batches).Error
	return batches, err
}

// DecrementRemaining refuses to drive remaining_quantity negative:
// UPDATE batches SET remaining_quantity = remaining_quantity - qty
// WHERE id = ? AND remaining_quantity >= qty
func (r *batchRepository) DecrementRemaining(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	result := conn(ctx, r.db).Model(&entity.Batch{}).
		Scopes(TenantScope(ctx)).
		Where("id = ? AND remaining_quantity >= ?", id, qty).
		Update("remaining_quantity", gorm.Expr("remaining_quantity - ?", qty))

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *batchRepository) IncrementRemaining(ctx context.Context, id uuid.UUID, qty int) error {
	return conn(ctx, r.db).Model(&entity.Batch{}).
		Scopes(TenantScope(ctx)).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"remaining_quantity": gorm.Expr("remaining_quantity + ?", qty),
			"status":             enum.BatchStatusActive,
		}).Error
}

func (r *batchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.BatchStatus) error {
	return conn(ctx, r.db).Model(&entity.Batch{}).
		Scopes(TenantScope(ctx)).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *batchRepository) ListByItem(ctx context.Context, itemID uuid.UUID, params *pagination.PaginationParams) ([]entity.Batch, int64, error) {
	var batches []entity.Batch
	var total int64

	query := conn(ctx, r.db).Model(&entity.Batch{}).
		Scopes(TenantScope(ctx)).
		Where("item_id = ?", itemID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("expiry_date ASC NULLS LAST, created_at ASC").
		Find(&batches).Error

	return batches, total, err
}

func (r *batchRepository) DueForExpiry(ctx context.Context, now time.Time) ([]entity.Batch, error) {
	var batches []entity.Batch
	err := conn(ctx, r.db).
		Scopes(TenantScope(ctx)).
		Where("status = ?", enum.BatchStatusActive).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", now).
		Find(&batches).Error
	return batches, err
}

func (r *batchRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Model(&entity.Batch{}).
		Scopes(TenantScope(ctx)).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     enum.BatchStatusExpired,
			"is_expired": true,
		}).Error
}

type stockMovementRepository struct {
	db *gorm.DB
}

// NewStockMovementRepository creates a new stock movement repository
func NewStockMovementRepository(db *gorm.DB) domainRepo.StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Create(ctx context.Context, movement *entity.StockMovement) error {
	return conn(ctx, r.db).Create(movement).Error
}

func (r *stockMovementRepository) CreateBatch(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&movements).Error
}

func (r *stockMovementRepository) ListByItem(ctx context.Context, itemID uuid.UUID, params *domainRepo.MovementFilterParams) ([]entity.StockMovement, int64, error) {
	var movements []entity.StockMovement
	var total int64

	query := conn(ctx, r.db).Model(&entity.StockMovement{}).
		Scopes(TenantScope(ctx)).
		Where("item_id = ?", itemID)

	if params.MovementType != nil {
		query = query.Where("movement_type = ?", *params.MovementType)
	}

	if params.StartDate != nil {
		query = query.Where("created_at >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("created_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order("created_at DESC").
		Find(&movements).Error

	return movements, total, err
}
