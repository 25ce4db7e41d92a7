package service

import (
	"context"
	"fmt"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	infraRepo "github.com/caredesk/pharmacy-api/internal/infrastructure/repository"
	"github.com/caredesk/pharmacy-api/pkg/apperror"
	"github.com/caredesk/pharmacy-api/pkg/pagination"
	"github.com/caredesk/pharmacy-api/pkg/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LedgerService owns item master data and the batch-level stock ledger:
// receiving, manual adjustments and the expiry sweep. Every mutation runs in
// one transaction and leaves a movement row behind.
type LedgerService struct {
	itemRepo     repository.ItemRepository
	batchRepo    repository.BatchRepository
	movementRepo repository.StockMovementRepository
	supplierRepo repository.SupplierRepository
	categoryRepo repository.CategoryRepository
	alertService *AlertService
	txManager    repository.TxManager
	log          *logrus.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	itemRepo repository.ItemRepository,
	batchRepo repository.BatchRepository,
	movementRepo repository.StockMovementRepository,
	supplierRepo repository.SupplierRepository,
	categoryRepo repository.CategoryRepository,
	alertService *AlertService,
	txManager repository.TxManager,
	log *logrus.Logger,
) *LedgerService {
	return &LedgerService{
		itemRepo:     itemRepo,
		batchRepo:    batchRepo,
		movementRepo: movementRepo,
		supplierRepo: supplierRepo,
		categoryRepo: categoryRepo,
		alertService: alertService,
		txManager:    txManager,
		log:          log,
	}
}

// CreateItemInput contains the data needed to create an item
type CreateItemInput struct {
	Name                 string
	Code                 string
	GenericName          *string
	CategoryID           *uuid.UUID
	PurchasePrice        float64
	SalePrice            float64
	MRP                  float64
	TaxRate              *float64
	MinimumStock         int
	ReorderPoint         int
	PrescriptionRequired bool
}

// CreateItem registers a new item with zero stock
func (s *LedgerService) CreateItem(ctx context.Context, input *CreateItemInput) (*entity.Item, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("tenant context required")
	}

	if input.Name == "" || input.Code == "" {
		return nil, apperror.NewBadRequestError("item name and code are required")
	}

	existing, err := s.itemRepo.GetByCode(ctx, input.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewInvalidStateError(fmt.Sprintf("item code %s already exists", input.Code))
	}

	if input.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(ctx, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, apperror.NewNotFoundError("Category")
		}
	}

	item := &entity.Item{
		TenantID:             tenantID,
		CategoryID:           input.CategoryID,
		Name:                 input.Name,
		Code:                 input.Code,
		GenericName:          input.GenericName,
		PurchasePrice:        toCents(input.PurchasePrice),
		SalePrice:            toCents(input.SalePrice),
		MRP:                  toCents(input.MRP),
		TaxRate:              input.TaxRate,
		MinimumStock:         input.MinimumStock,
		ReorderPoint:         input.ReorderPoint,
		PrescriptionRequired: input.PrescriptionRequired,
		BatchTracking:        true,
		ExpiryTracking:       true,
		IsActive:             true,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem retrieves an item by ID
func (s *LedgerService) GetItem(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NewNotFoundError("Item")
	}
	return item, nil
}

// ListItems returns items matching the filter
func (s *LedgerService) ListItems(ctx context.Context, params *repository.ItemFilterParams) (*pagination.PaginatedResult[entity.Item], error) {
	if params == nil {
		params = &repository.ItemFilterParams{}
	}
	if params.Pagination == nil {
		params.Pagination = &pagination.PaginationParams{}
	}
	params.Pagination.Validate()

	items, total, err := s.itemRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pg := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(items, pg), nil
}

// ReceiveBatchInput contains the data needed to receive a batch
type ReceiveBatchInput struct {
	ItemID        uuid.UUID
	SupplierID    *uuid.UUID
	BatchNumber   string
	Quantity      int
	ExpiryDate    *time.Time
	PurchasePrice float64
	Notes         *string
}

// ReceiveBatch records an inbound lot: it creates the batch, bumps the
// item's stock cache and writes a purchase movement, all in one
// transaction. Quantity must be positive and the expiry date, when present,
// must be in the future.
func (s *LedgerService) ReceiveBatch(ctx context.Context, input *ReceiveBatchInput) (*entity.Batch, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("tenant context required")
	}

	if input.Quantity <= 0 {
		return nil, apperror.NewBadRequestError("received quantity must be positive")
	}
	if input.ExpiryDate != nil && !input.ExpiryDate.After(time.Now()) {
		return nil, apperror.NewBadRequestError("expiry date must be in the future")
	}

	if input.SupplierID != nil {
		supplier, err := s.supplierRepo.GetByID(ctx, *input.SupplierID)
		if err != nil {
			return nil, err
		}
		if supplier == nil {
			return nil, apperror.NewNotFoundError("Supplier")
		}
	}

	batchNumber := input.BatchNumber
	if batchNumber == "" {
		batchNumber = utils.GenerateBatchNo()
	}

	var batch *entity.Batch
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		item, err := s.itemRepo.GetByIDForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return apperror.NewNotFoundError("Item")
		}
		if !item.IsActive {
			return apperror.NewInvalidStateError("item is inactive")
		}

		batch = &entity.Batch{
			TenantID:          tenantID,
			ItemID:            item.ID,
			SupplierID:        input.SupplierID,
			BatchNumber:       batchNumber,
			Quantity:          input.Quantity,
			RemainingQuantity: input.Quantity,
			ExpiryDate:        input.ExpiryDate,
			PurchasePrice:     toCents(input.PurchasePrice),
			Status:            enum.BatchStatusActive,
		}
		if err := s.batchRepo.Create(ctx, batch); err != nil {
			return err
		}

		// The latest purchase price becomes the item's reference cost.
		// Saved before the stock adjustment; Update writes the whole row.
		if batch.PurchasePrice > 0 && batch.PurchasePrice != item.PurchasePrice {
			item.PurchasePrice = batch.PurchasePrice
			if err := s.itemRepo.Update(ctx, item); err != nil {
				return err
			}
		}

		ok, err := s.itemRepo.AdjustStock(ctx, item.ID, input.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewTransactionFailureError(fmt.Errorf("stock adjustment rejected for item %s", item.ID))
		}

		movement := &entity.StockMovement{
			TenantID:      tenantID,
			ItemID:        item.ID,
			BatchID:       &batch.ID,
			MovementType:  enum.MovementTypePurchase,
			Quantity:      input.Quantity,
			PreviousStock: item.CurrentStock,
			NewStock:      item.CurrentStock + input.Quantity,
			UnitCost:      batch.PurchasePrice,
			Reference:     batchNumber,
			Notes:         input.Notes,
		}
		return s.movementRepo.Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"item_id":      input.ItemID,
		"batch_number": batchNumber,
		"quantity":     input.Quantity,
	}).Info("Batch received")

	return batch, nil
}

// AdjustStockInput contains the data needed for a manual stock adjustment
type AdjustStockInput struct {
	ItemID   uuid.UUID
	BatchID  *uuid.UUID
	Quantity int // Signed: negative removes stock
	Reason   string
	Notes    *string
}

// AdjustStock applies a signed manual correction against a specific batch
// or the item as a whole. Negative adjustments that would drive the item or
// batch below zero are rejected and nothing is written.
func (s *LedgerService) AdjustStock(ctx context.Context, input *AdjustStockInput) (*entity.Item, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("tenant context required")
	}

	if input.Quantity == 0 {
		return nil, apperror.NewBadRequestError("adjustment quantity must be non-zero")
	}
	if input.Reason == "" {
		return nil, apperror.NewBadRequestError("adjustment reason is required")
	}

	var adjusted *entity.Item
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		item, err := s.itemRepo.GetByIDForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return apperror.NewNotFoundError("Item")
		}

		if input.BatchID != nil {
			batch, err := s.batchRepo.GetByID(ctx, *input.BatchID)
			if err != nil {
				return err
			}
			if batch == nil || batch.ItemID != item.ID {
				return apperror.NewNotFoundError("Batch")
			}
			if input.Quantity < 0 {
				ok, err := s.batchRepo.DecrementRemaining(ctx, batch.ID, -input.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					return apperror.NewInsufficientStockError(item.Name, -input.Quantity, batch.RemainingQuantity)
				}
				if batch.RemainingQuantity+input.Quantity == 0 {
					if err := s.batchRepo.UpdateStatus(ctx, batch.ID, enum.BatchStatusDepleted); err != nil {
						return err
					}
				}
			} else {
				if err := s.batchRepo.IncrementRemaining(ctx, batch.ID, input.Quantity); err != nil {
					return err
				}
			}
		}

		ok, err := s.itemRepo.AdjustStock(ctx, item.ID, input.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewInsufficientStockError(item.Name, -input.Quantity, item.CurrentStock)
		}

		movement := &entity.StockMovement{
			TenantID:      tenantID,
			ItemID:        item.ID,
			BatchID:       input.BatchID,
			MovementType:  enum.MovementTypeAdjustment,
			Quantity:      input.Quantity,
			PreviousStock: item.CurrentStock,
			NewStock:      item.CurrentStock + input.Quantity,
			Reference:     input.Reason,
			Notes:         input.Notes,
		}
		if err := s.movementRepo.Create(ctx, movement); err != nil {
			return err
		}

		item.CurrentStock += input.Quantity
		adjusted = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	if input.Quantity < 0 {
		if err := s.alertService.EvaluateItem(ctx, adjusted); err != nil {
			s.log.WithError(err).Warn("Failed to evaluate stock alert after adjustment")
		}
	}

	return adjusted, nil
}

// AvailableBatches returns the item's sellable batches in FEFO order
func (s *LedgerService) AvailableBatches(ctx context.Context, itemID uuid.UUID) ([]entity.Batch, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NewNotFoundError("Item")
	}
	return s.batchRepo.AvailableBatches(ctx, itemID)
}

// ListBatches returns all batches of an item, including depleted and
// expired ones
func (s *LedgerService) ListBatches(ctx context.Context, itemID uuid.UUID, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.Batch], error) {
	if params == nil {
		params = &pagination.PaginationParams{}
	}
	params.Validate()

	batches, total, err := s.batchRepo.ListByItem(ctx, itemID, params)
	if err != nil {
		return nil, err
	}

	pg := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(batches, pg), nil
}

// ListMovements returns the movement ledger for an item
func (s *LedgerService) ListMovements(ctx context.Context, itemID uuid.UUID, params *repository.MovementFilterParams) (*pagination.PaginatedResult[entity.StockMovement], error) {
	if params == nil {
		params = &repository.MovementFilterParams{}
	}
	if params.Pagination == nil {
		params.Pagination = &pagination.PaginationParams{}
	}
	params.Pagination.Validate()

	movements, total, err := s.movementRepo.ListByItem(ctx, itemID, params)
	if err != nil {
		return nil, err
	}

	pg := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(movements, pg), nil
}

// ExpireBatches sweeps batches whose expiry date passed, writes the expiry
// movements and removes the expired units from the stock cache. Returns the
// number of batches expired. Meant to be run periodically; re-running is
// harmless because expired batches leave the active set.
func (s *LedgerService) ExpireBatches(ctx context.Context, now time.Time) (int, error) {
	due, err := s.batchRepo.DueForExpiry(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	expired := 0
	var affected []*entity.Item
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		for _, batch := range due {
			item, err := s.itemRepo.GetByIDForUpdate(ctx, batch.ItemID)
			if err != nil {
				return err
			}
			if item == nil {
				continue
			}

			if err := s.batchRepo.MarkExpired(ctx, batch.ID); err != nil {
				return err
			}

			if batch.RemainingQuantity > 0 {
				ok, err := s.itemRepo.AdjustStock(ctx, item.ID, -batch.RemainingQuantity)
				if err != nil {
					return err
				}
				if !ok {
					return apperror.NewTransactionFailureError(fmt.Errorf("expiry writeoff rejected for item %s", item.ID))
				}

				movement := &entity.StockMovement{
					TenantID:      batch.TenantID,
					ItemID:        item.ID,
					BatchID:       &batch.ID,
					MovementType:  enum.MovementTypeExpiryWriteoff,
					Quantity:      -batch.RemainingQuantity,
					PreviousStock: item.CurrentStock,
					NewStock:      item.CurrentStock - batch.RemainingQuantity,
					UnitCost:      batch.PurchasePrice,
					Reference:     batch.BatchNumber,
				}
				if err := s.movementRepo.Create(ctx, movement); err != nil {
					return err
				}

				item.CurrentStock -= batch.RemainingQuantity
				affected = append(affected, item)
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, item := range affected {
		if err := s.alertService.EvaluateItem(ctx, item); err != nil {
			s.log.WithError(err).Warn("Failed to evaluate stock alert after expiry sweep")
		}
	}

	if expired > 0 {
		s.log.WithField("count", expired).Info("Expiry sweep completed")
	}
	return expired, nil
}

// WarnExpiring raises expiring-soon alerts for batches that expire within
// the given window. Duplicate warnings are suppressed by the alert store.
func (s *LedgerService) WarnExpiring(ctx context.Context, within time.Duration) (int, error) {
	horizon := time.Now().Add(within)
	due, err := s.batchRepo.DueForExpiry(ctx, horizon)
	if err != nil {
		return 0, err
	}

	warned := 0
	now := time.Now()
	for _, batch := range due {
		// Already-expired batches belong to the sweep, not the warning.
		if batch.HasExpired(now) {
			continue
		}
		item, err := s.itemRepo.GetByID(ctx, batch.ItemID)
		if err != nil || item == nil {
			continue
		}
		if err := s.alertService.RaiseExpiring(ctx, item, &batch); err != nil {
			s.log.WithError(err).Warn("Failed to raise expiring batch alert")
			continue
		}
		warned++
	}
	return warned, nil
}
