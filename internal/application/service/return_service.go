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

// ReturnService runs the returns and credit note workflow. Creating a
// return reserves quantity against the sale items' return caps; the
// reservation is only released by an explicit rejection, so two overlapping
// returns can never return the same unit twice.
type ReturnService struct {
	returnRepo     repository.ReturnRepository
	returnItemRepo repository.ReturnItemRepository
	creditNoteRepo repository.CreditNoteRepository
	saleRepo       repository.SaleRepository
	saleItemRepo   repository.SaleItemRepository
	itemRepo       repository.ItemRepository
	batchRepo      repository.BatchRepository
	movementRepo   repository.StockMovementRepository
	tenantRepo     repository.TenantRepository
	txManager      repository.TxManager
	// approvalThreshold gates returns through manual approval when their
	// total exceeds it, in cents. Zero disables the gate. A tenant setting
	// overrides it.
	approvalThreshold int64
	log               *logrus.Logger
}

// NewReturnService creates a new return service
func NewReturnService(
	returnRepo repository.ReturnRepository,
	returnItemRepo repository.ReturnItemRepository,
	creditNoteRepo repository.CreditNoteRepository,
	saleRepo repository.SaleRepository,
	saleItemRepo repository.SaleItemRepository,
	itemRepo repository.ItemRepository,
	batchRepo repository.BatchRepository,
	movementRepo repository.StockMovementRepository,
	tenantRepo repository.TenantRepository,
	txManager repository.TxManager,
	approvalThreshold int64,
	log *logrus.Logger,
) *ReturnService {
	return &ReturnService{
		returnRepo:        returnRepo,
		returnItemRepo:    returnItemRepo,
		creditNoteRepo:    creditNoteRepo,
		saleRepo:          saleRepo,
		saleItemRepo:      saleItemRepo,
		itemRepo:          itemRepo,
		batchRepo:         batchRepo,
		movementRepo:      movementRepo,
		tenantRepo:        tenantRepo,
		txManager:         txManager,
		approvalThreshold: approvalThreshold,
		log:               log,
	}
}

// ReturnLineInput is one returned quantity against an original sale item
type ReturnLineInput struct {
	SaleItemID    uuid.UUID
	Quantity      int
	Condition     *string
	IsRestockable bool
}

// CreateReturnInput contains the data needed to create a sales return
type CreateReturnInput struct {
	SaleID               uuid.UUID
	Lines                []ReturnLineInput
	Reason               string
	SettlementType       enum.SettlementType
	RestockingFeePercent float64
}

// CreateSalesReturn opens a return against a completed sale. Quantities are
// reserved against each sale item's return cap atomically; a request that
// exceeds any cap fails whole. Returns under the approval threshold settle
// immediately, larger ones park in pending approval.
func (s *ReturnService) CreateSalesReturn(ctx context.Context, input *CreateReturnInput) (*entity.Return, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("tenant context required")
	}
	if input == nil || len(input.Lines) == 0 {
		return nil, apperror.NewBadRequestError("return requires at least one line")
	}
	if input.Reason == "" {
		return nil, apperror.NewBadRequestError("return reason is required")
	}
	if input.RestockingFeePercent < 0 || input.RestockingFeePercent > 100 {
		return nil, apperror.NewBadRequestError("restocking fee must be between 0 and 100")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, apperror.NewBadRequestError("return quantity must be positive")
		}
	}

	threshold := s.approvalThreshold
	if tenant, err := s.tenantRepo.GetByID(ctx, tenantID); err == nil && tenant != nil && tenant.Settings.ReturnApprovalThreshold > 0 {
		threshold = tenant.Settings.ReturnApprovalThreshold
	}

	var ret *entity.Return
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		sale, err := s.saleRepo.GetWithDetails(ctx, input.SaleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return apperror.NewNotFoundError("Sale")
		}
		if sale.Status == enum.SaleStatusVoided {
			return apperror.NewInvalidStateError("cannot return against a voided sale")
		}

		saleItems := make(map[uuid.UUID]*entity.SaleItem, len(sale.Items))
		for i := range sale.Items {
			saleItems[sale.Items[i].ID] = &sale.Items[i]
		}

		var (
			returnItems []entity.ReturnItem
			subtotal    int64
			taxTotal    int64
		)
		for _, line := range input.Lines {
			si, ok := saleItems[line.SaleItemID]
			if !ok {
				return apperror.NewNotFoundError("Sale item")
			}

			reserved, err := s.saleItemRepo.IncrementReturned(ctx, si.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !reserved {
				return apperror.NewQuantityExceededError(line.Quantity, si.ReturnableQuantity())
			}

			// Refund valuation mirrors the original line pricing for the
			// returned portion.
			lineSubtotal := si.UnitPrice * int64(line.Quantity)
			lineDiscount := percentOf(lineSubtotal, si.DiscountPercent)
			taxable := lineSubtotal - lineDiscount
			lineTax := percentOf(taxable, si.TaxPercent)

			returnItems = append(returnItems, entity.ReturnItem{
				TenantID:      tenantID,
				SaleItemID:    si.ID,
				ItemID:        si.ItemID,
				BatchID:       si.BatchID,
				Quantity:      line.Quantity,
				UnitPrice:     si.UnitPrice,
				LineTotal:     taxable + lineTax,
				Condition:     line.Condition,
				IsRestockable: line.IsRestockable,
				Disposition:   enum.DispositionPending,
			})
			subtotal += taxable
			taxTotal += lineTax
		}

		total := subtotal + taxTotal
		// The fee is charged on the subtotal only; tax is refunded in full.
		fee := percentOf(subtotal, input.RestockingFeePercent)

		ret = &entity.Return{
			TenantID:        tenantID,
			ReturnNumber:    utils.GenerateReturnNo(),
			SaleID:          sale.ID,
			ReturnType:      enum.ReturnTypeSales,
			SettlementType:  input.SettlementType,
			Reason:          input.Reason,
			SubtotalAmount:  subtotal,
			TaxAmount:       taxTotal,
			TotalAmount:     total,
			RestockingFee:   fee,
			NetRefundAmount: total - fee,
			Status:          enum.ReturnStatusPending,
		}
		if threshold > 0 && total > threshold {
			ret.Status = enum.ReturnStatusPendingApproval
		}
		if err := s.returnRepo.Create(ctx, ret); err != nil {
			return err
		}

		for i := range returnItems {
			returnItems[i].ReturnID = ret.ID
		}
		if err := s.returnItemRepo.CreateBatch(ctx, returnItems); err != nil {
			return err
		}
		ret.Items = returnItems

		if ret.Status == enum.ReturnStatusPending {
			return s.settle(ctx, ret)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"return_number": ret.ReturnNumber,
		"status":        ret.Status.String(),
	}).Info("Sales return created")

	return ret, nil
}

// ApprovalInput contains the approval decision for a pending return
type ApprovalInput struct {
	Approve   bool
	DecidedBy string
	Notes     *string
}

// ProcessReturnApproval decides a pending return. Approval settles it:
// restockable units go back to their batches, the rest are disposed, and a
// credit note settlement issues the note. Rejection releases the reserved
// quantities so the units become returnable again.
func (s *ReturnService) ProcessReturnApproval(ctx context.Context, id uuid.UUID, input *ApprovalInput) (*entity.Return, error) {
	if input == nil || input.DecidedBy == "" {
		return nil, apperror.NewBadRequestError("approval decision requires an actor")
	}

	var ret *entity.Return
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		ret, err = s.returnRepo.GetWithItems(ctx, id)
		if err != nil {
			return err
		}
		if ret == nil {
			return apperror.NewNotFoundError("Return")
		}
		if ret.Status.IsTerminal() {
			return apperror.NewInvalidStateError(fmt.Sprintf("return is already %s", ret.Status.String()))
		}

		now := time.Now()
		decidedBy := input.DecidedBy
		ret.ApprovedBy = &decidedBy
		ret.ApprovalNotes = input.Notes
		ret.ApprovalDecidedAt = &now

		if !input.Approve {
			for _, ri := range ret.Items {
				if err := s.saleItemRepo.DecrementReturned(ctx, ri.SaleItemID, ri.Quantity); err != nil {
					return err
				}
			}
			ret.Status = enum.ReturnStatusRejected
			return s.returnRepo.Update(ctx, ret)
		}

		ret.Status = enum.ReturnStatusApproved
		return s.settle(ctx, ret)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"return_number": ret.ReturnNumber,
		"status":        ret.Status.String(),
	}).Info("Return approval processed")

	return ret, nil
}

// settle finalizes an approved return inside the ambient transaction:
// restocking, disposal and settlement issuance, ending in completed status.
func (s *ReturnService) settle(ctx context.Context, ret *entity.Return) error {
	now := time.Now()
	running := make(map[uuid.UUID]int)
	lockedItems := make(map[uuid.UUID]*entity.Item)

	for i := range ret.Items {
		ri := &ret.Items[i]

		restock := ri.IsRestockable && ri.BatchID != nil
		if restock {
			batch, err := s.batchRepo.GetByID(ctx, *ri.BatchID)
			if err != nil {
				return err
			}
			// Units from an expired batch are never resold.
			if batch == nil || batch.HasExpired(now) || batch.Status == enum.BatchStatusExpired {
				restock = false
			} else {
				if err := s.batchRepo.IncrementRemaining(ctx, batch.ID, ri.Quantity); err != nil {
					return err
				}
				if batch.Status == enum.BatchStatusDepleted {
					if err := s.batchRepo.UpdateStatus(ctx, batch.ID, enum.BatchStatusActive); err != nil {
						return err
					}
				}
			}
		}

		if restock {
			item, ok := lockedItems[ri.ItemID]
			if !ok {
				var err error
				item, err = s.itemRepo.GetByIDForUpdate(ctx, ri.ItemID)
				if err != nil {
					return err
				}
				if item == nil {
					return apperror.NewNotFoundError("Item")
				}
				lockedItems[ri.ItemID] = item
				running[ri.ItemID] = item.CurrentStock
			}

			ok, err := s.itemRepo.AdjustStock(ctx, ri.ItemID, ri.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return apperror.NewTransactionFailureError(fmt.Errorf("restock rejected for item %s", ri.ItemID))
			}

			prev := running[ri.ItemID]
			running[ri.ItemID] = prev + ri.Quantity
			movement := &entity.StockMovement{
				TenantID:      ret.TenantID,
				ItemID:        ri.ItemID,
				BatchID:       ri.BatchID,
				MovementType:  enum.MovementTypeReturnRestock,
				Quantity:      ri.Quantity,
				PreviousStock: prev,
				NewStock:      running[ri.ItemID],
				Reference:     ret.ReturnNumber,
			}
			if err := s.movementRepo.Create(ctx, movement); err != nil {
				return err
			}
			ri.Disposition = enum.DispositionRestocked
		} else {
			ri.Disposition = enum.DispositionDisposed
		}
		if err := s.returnItemRepo.UpdateDisposition(ctx, ri.ID, ri.Disposition); err != nil {
			return err
		}
	}

	if ret.SettlementType == enum.SettlementTypeCreditNote && ret.NetRefundAmount > 0 {
		note := &entity.CreditNote{
			TenantID:         ret.TenantID,
			CreditNoteNumber: utils.GenerateCreditNoteNo(),
			ReturnID:         ret.ID,
			OriginalAmount:   ret.NetRefundAmount,
			RemainingAmount:  ret.NetRefundAmount,
			Status:           enum.CreditNoteStatusActive,
		}
		if err := s.creditNoteRepo.Create(ctx, note); err != nil {
			return err
		}
		ret.CreditNote = note
	}

	completedAt := time.Now()
	ret.Status = enum.ReturnStatusCompleted
	ret.CompletedAt = &completedAt
	return s.returnRepo.Update(ctx, ret)
}

// ApplyCreditNote redeems part of a credit note's balance outside a sale,
// for example against an outstanding account. The deduction is atomic; a
// short balance or inactive note rejects without partial application.
func (s *ReturnService) ApplyCreditNote(ctx context.Context, id uuid.UUID, amount float64) (*entity.CreditNote, error) {
	cents := toCents(amount)
	if cents <= 0 {
		return nil, apperror.NewBadRequestError("redemption amount must be positive")
	}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		note, err := s.creditNoteRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if note == nil {
			return apperror.NewNotFoundError("Credit note")
		}

		applied, err := s.creditNoteRepo.Apply(ctx, note.ID, cents)
		if err != nil {
			return err
		}
		if !applied {
			if note.Status != enum.CreditNoteStatusActive {
				return apperror.NewInvalidStateError("credit note is not active")
			}
			return apperror.NewInvalidStateError("credit note balance is less than the requested amount")
		}
		// Guarded flip: a no-op unless this redemption drained the balance.
		// Checking the pre-apply read instead would miss the zero crossing
		// under concurrent redemptions.
		return s.creditNoteRepo.MarkExhausted(ctx, note.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.creditNoteRepo.GetByID(ctx, id)
}

// GetReturn retrieves a return with its items
func (s *ReturnService) GetReturn(ctx context.Context, id uuid.UUID) (*entity.Return, error) {
	ret, err := s.returnRepo.GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, apperror.NewNotFoundError("Return")
	}
	return ret, nil
}

// GetCreditNote retrieves a credit note by ID
func (s *ReturnService) GetCreditNote(ctx context.Context, id uuid.UUID) (*entity.CreditNote, error) {
	note, err := s.creditNoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apperror.NewNotFoundError("Credit note")
	}
	return note, nil
}

// ListReturns returns returns matching the filter
func (s *ReturnService) ListReturns(ctx context.Context, params *repository.ReturnFilterParams) (*pagination.PaginatedResult[entity.Return], error) {
	if params == nil {
		params = &repository.ReturnFilterParams{}
	}
	if params.Pagination == nil {
		params.Pagination = &pagination.PaginationParams{}
	}
	params.Pagination.Validate()

	returns, total, err := s.returnRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pg := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(returns, pg), nil
}
