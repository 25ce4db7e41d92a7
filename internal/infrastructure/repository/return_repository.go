package repository

import (
	"context"
	"errors"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	domainRepo "github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type returnRepository struct {
	db *gorm.DB
}

// NewReturnRepository creates a new return repository
func NewReturnRepository(db *gorm.DB) domainRepo.ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(ctx context.Context, ret *entity.Return) error {
	return conn(ctx, r.db).Create(ret).Error
}

func (r *returnRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Return, error) {
	var ret entity.Return
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).First(&ret, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ret, err
}

func (r *returnRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Return, error) {
	var ret entity.Return
	err := conn(ctx, r.db).
		Scopes(TenantScope(ctx)).
		Preload("Items").
		Preload("CreditNote").
		First(&ret, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ret, err
}

func (r *returnRepository) Update(ctx context.Context, ret *entity.Return) error {
	return conn(ctx, r.db).Save(ret).Error
}

func (r *returnRepository) List(ctx context.Context, params *domainRepo.ReturnFilterParams) ([]entity.Return, int64, error) {
	var returns []entity.Return
	var total int64

	query := conn(ctx, r.db).Model(&entity.Return{}).Scopes(TenantScope(ctx))

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.SaleID != nil {
		query = query.Where("sale_id = ?", *params.SaleID)
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
		Find(&returns).Error

	return returns, total, err
}

type returnItemRepository struct {
	db *gorm.DB
}

// NewReturnItemRepository creates a new return item repository
func NewReturnItemRepository(db *gorm.DB) domainRepo.ReturnItemRepository {
	return &returnItemRepository{db: db}
}

func (r *returnItemRepository) CreateBatch(ctx context.Context, items []entity.ReturnItem) error {
	if len(items) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&items).Error
}

func (r *returnItemRepository) GetByReturnID(ctx context.Context, returnID uuid.UUID) ([]entity.ReturnItem, error) {
	var items []entity.ReturnItem
	err := conn(ctx, r.db).
		Scopes(TenantScope(ctx)).
		Where("return_id = ?", returnID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *returnItemRepository) UpdateDisposition(ctx context.Context, id uuid.UUID, disposition enum.Disposition) error {
	return conn(ctx, r.db).Model(&entity.ReturnItem{}).
		Scopes(TenantScope(ctx)).
		Where("id = ?", id).
		Update("disposition", disposition).Error
}

type creditNoteRepository struct {
	db *gorm.DB
}

// NewCreditNoteRepository creates a new credit note repository
func NewCreditNoteRepository(db *gorm.DB) domainRepo.CreditNoteRepository {
	return &creditNoteRepository{db: db}
}

func (r *creditNoteRepository) Create(ctx context.Context, note *entity.CreditNote) error {
	return conn(ctx, r.db).Create(note).Error
}

func (r *creditNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CreditNote, error) {
	var note entity.CreditNote
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).First(&note, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &note, err
}

func (r *creditNoteRepository) GetByNumber(ctx context.Context, number string) (*entity.CreditNote, error) {
	var note entity.CreditNote
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).First(&note, "credit_note_number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &note, err
}

// Apply moves amount from remaining to used in one conditional statement so
// concurrent applications can never overdraw the balance:
// UPDATE credit_notes
// SET used_amount = used_amount + amt, remaining_amount = remaining_amount - amt
// WHERE id = ? AND status = active AND remaining_amount >= amt
func (r *creditNoteRepository) Apply(ctx context.Context, id uuid.UUID, amount int64) (bool, error) {
	result := conn(ctx, r.db).Model(&entity.CreditNote{}).
		Scopes(TenantScope(ctx)).
		Where("id = ? AND status = ? AND remaining_amount >= ?", id, enum.CreditNoteStatusActive, amount).
		Updates(map[string]interface{}{
			"used_amount":      gorm.Expr("used_amount + ?", amount),
			"remaining_amount": gorm.Expr("remaining_amount - ?", amount),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *creditNoteRepository) MarkExhausted(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Model(&entity.CreditNote{}).
		Scopes(TenantScope(ctx)).
		Where("id = ? AND remaining_amount = 0", id).
		Update("status", enum.CreditNoteStatusExhausted).Error
}
