package repository

import (
	"context"
	"errors"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	domainRepo "github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) domainRepo.SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	return conn(ctx, r.db).Create(sale).Error
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) GetBySaleNumber(ctx context.Context, saleNumber string) (*entity.Sale, error) {
	var sale entity.Sale
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).First(&sale, "sale_number = ?", saleNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := conn(ctx, r.db).
		Scopes(TenantScope(ctx)).
		Preload("Items").
		Preload("Items.Item").
		Preload("Payments").
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) Update(ctx context.Context, sale *entity.Sale) error {
	return conn(ctx, r.db).Save(sale).Error
}

func (r *saleRepository) List(ctx context.Context, params *domainRepo.SaleFilterParams) ([]entity.Sale, int64, error) {
	var sales []entity.Sale
	var total int64

	query := conn(ctx, r.db).Model(&entity.Sale{}).Scopes(TenantScope(ctx))

	if params.Search != "" {
		query = query.Where("sale_number ILIKE ? OR invoice_number ILIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.SaleType != nil {
		query = query.Where("sale_type = ?", *params.SaleType)
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

	sortBy := "created_at"
	sortOrder := "DESC"
	if params.SortBy != "" {
		sortBy = params.SortBy
	}
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order(sortBy + " " + sortOrder).
		Find(&sales).Error

	return sales, total, err
}

type saleItemRepository struct {
	db *gorm.DB
}

// NewSaleItemRepository creates a new sale item repository
func NewSaleItemRepository(db *gorm.DB) domainRepo.SaleItemRepository {
	return &saleItemRepository{db: db}
}

func (r *saleItemRepository) CreateBatch(ctx context.Context, items []entity.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&items).Error
}

func (r *saleItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.SaleItem, error) {
	var item entity.SaleItem
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *saleItemRepository) GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.SaleItem, error) {
	var items []entity.SaleItem
	err := conn(ctx, r.db).
		Scopes(TenantScope(ctx)).
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// IncrementReturned enforces the return cap in the same statement that
// reserves the quantity:
// UPDATE sale_items SET returned_quantity = returned_quantity + qty
// WHERE id = ? AND quantity - returned_quantity >= qty
func (r *saleItemRepository) IncrementReturned(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	result := conn(ctx, r.db).Model(&entity.SaleItem{}).
		Scopes(TenantScope(ctx)).
		Where("id = ? AND quantity - returned_quantity >= ?", id, qty).
		Update("returned_quantity", gorm.Expr("returned_quantity + ?", qty))

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *saleItemRepository) DecrementReturned(ctx context.Context, id uuid.UUID, qty int) error {
	return conn(ctx, r.db).Model(&entity.SaleItem{}).
		Scopes(TenantScope(ctx)).
		Where("id = ? AND returned_quantity >= ?", id, qty).
		Update("returned_quantity", gorm.Expr("returned_quantity - ?", qty)).Error
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreateBatch(ctx context.Context, payments []entity.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&payments).Error
}

func (r *paymentRepository) GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := conn(ctx, r.db).
		Scopes(TenantScope(ctx)).
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}
