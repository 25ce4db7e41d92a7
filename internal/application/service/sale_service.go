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
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SaleService is the sale transaction engine. CreateSale locks the affected
// rows, allocates batches FEFO, prices the lines and commits stock, ledger
// and payment writes as one unit; any failure rolls the whole sale back.
type SaleService struct {
	saleRepo       repository.SaleRepository
	saleItemRepo   repository.SaleItemRepository
	paymentRepo    repository.PaymentRepository
	itemRepo       repository.ItemRepository
	batchRepo      repository.BatchRepository
	movementRepo   repository.StockMovementRepository
	creditNoteRepo repository.CreditNoteRepository
	tenantRepo     repository.TenantRepository
	alertService   *AlertService
	txManager      repository.TxManager
	defaultTaxRate float64
	log            *logrus.Logger
}

// NewSaleService creates a new sale service
func NewSaleService(
	saleRepo repository.SaleRepository,
	saleItemRepo repository.SaleItemRepository,
	paymentRepo repository.PaymentRepository,
	itemRepo repository.ItemRepository,
	batchRepo repository.BatchRepository,
	movementRepo repository.StockMovementRepository,
	creditNoteRepo repository.CreditNoteRepository,
	tenantRepo repository.TenantRepository,
	alertService *AlertService,
	txManager repository.TxManager,
	defaultTaxRate float64,
	log *logrus.Logger,
) *SaleService {
	return &SaleService{
		saleRepo:       saleRepo,
		saleItemRepo:   saleItemRepo,
		paymentRepo:    paymentRepo,
		itemRepo:       itemRepo,
		batchRepo:      batchRepo,
		movementRepo:   movementRepo,
		creditNoteRepo: creditNoteRepo,
		tenantRepo:     tenantRepo,
		alertService:   alertService,
		txManager:      txManager,
		defaultTaxRate: defaultTaxRate,
		log:            log,
	}
}

// SaleLineInput is one requested item line
type SaleLineInput struct {
	ItemID          uuid.UUID
	Quantity        int
	DiscountPercent float64
}

// PaymentInput is one tendered payment. Method-specific fields are required
// for their method and ignored for others.
type PaymentInput struct {
	Method            enum.PaymentMethod
	Amount            float64
	CardLast4         *string
	InsuranceProvider *string
	ClaimNumber       *string
	CreditNoteID      *uuid.UUID
}

// CreateSaleInput contains the data needed to create a sale
type CreateSaleInput struct {
	SaleType        enum.SaleType
	CustomerName    *string
	PrescriptionID  *uuid.UUID
	Lines           []SaleLineInput
	Payments        []PaymentInput
	DiscountPercent *float64 // Order-level, applied before tax
	DiscountAmount  *float64 // Order-level fixed amount, applied before tax
	Notes           *string
}

// CreateSale executes a sale end to end inside one transaction: row locks,
// FEFO allocation, conditional stock decrements, pricing, ledger movements
// and payments. Stock alerts are evaluated after the commit so a failed
// sale never raises one.
func (s *SaleService) CreateSale(ctx context.Context, input *CreateSaleInput) (*entity.Sale, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("tenant context required")
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	taxFallback := s.defaultTaxRate
	if tenant != nil && tenant.Settings.DefaultTaxRate > 0 {
		taxFallback = tenant.Settings.DefaultTaxRate
	}

	var (
		sale     *entity.Sale
		affected []*entity.Item
	)
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		now := time.Now()

		var (
			saleItems     []entity.SaleItem
			movements     []entity.StockMovement
			subtotal      int64
			discountTotal int64
			taxTotal      int64
		)
		// Running stock per item so a multi-line sale produces a contiguous
		// movement trail.
		running := make(map[uuid.UUID]int)
		lockedItems := make(map[uuid.UUID]*entity.Item)

		for _, line := range input.Lines {
			item, ok := lockedItems[line.ItemID]
			if !ok {
				item, err = s.itemRepo.GetByIDForUpdate(ctx, line.ItemID)
				if err != nil {
					return err
				}
				if item == nil {
					return apperror.NewNotFoundError("Item")
				}
				if !item.IsActive {
					return apperror.NewInvalidStateError(fmt.Sprintf("item %s is inactive", item.Code))
				}
				if item.PrescriptionRequired && input.SaleType != enum.SaleTypePrescription {
					return apperror.NewBadRequestError(fmt.Sprintf("item %s requires a prescription sale", item.Code))
				}
				lockedItems[line.ItemID] = item
				running[line.ItemID] = item.CurrentStock
			}

			batches, err := s.batchRepo.AvailableBatchesForUpdate(ctx, item.ID)
			if err != nil {
				return err
			}
			allocations, err := AllocateFEFO(item.Name, line.Quantity, batches, now)
			if err != nil {
				return err
			}

			taxRate := item.EffectiveTaxRate(taxFallback)
			lineSubtotal := item.SalePrice * int64(line.Quantity)
			lineDiscount := percentOf(lineSubtotal, line.DiscountPercent)
			taxable := lineSubtotal - lineDiscount
			lineTax := percentOf(taxable, taxRate)
			lineTotal := taxable + lineTax

			remaining := make(map[uuid.UUID]int, len(batches))
			for _, b := range batches {
				remaining[b.ID] = b.RemainingQuantity
			}

			allocatedTotal := int64(0)
			for i, alloc := range allocations {
				ok, err := s.batchRepo.DecrementRemaining(ctx, alloc.BatchID, alloc.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					return apperror.NewInsufficientStockError(item.Name, line.Quantity, remaining[alloc.BatchID])
				}
				if remaining[alloc.BatchID] == alloc.Quantity {
					if err := s.batchRepo.UpdateStatus(ctx, alloc.BatchID, enum.BatchStatusDepleted); err != nil {
						return err
					}
				}

				// Last allocation takes the rounding remainder so the split
				// rows always sum to the line total.
				share := scaleProportional(lineTotal, int64(alloc.Quantity), int64(line.Quantity))
				if i == len(allocations)-1 {
					share = lineTotal - allocatedTotal
				}
				allocatedTotal += share

				batchID := alloc.BatchID
				saleItems = append(saleItems, entity.SaleItem{
					TenantID:        tenantID,
					ItemID:          item.ID,
					BatchID:         &batchID,
					Quantity:        alloc.Quantity,
					UnitPrice:       item.SalePrice,
					DiscountPercent: line.DiscountPercent,
					TaxPercent:      taxRate,
					LineTotal:       share,
				})

				prev := running[item.ID]
				running[item.ID] = prev - alloc.Quantity
				movements = append(movements, entity.StockMovement{
					TenantID:      tenantID,
					ItemID:        item.ID,
					BatchID:       &batchID,
					MovementType:  enum.MovementTypeSale,
					Quantity:      -alloc.Quantity,
					PreviousStock: prev,
					NewStock:      running[item.ID],
					UnitCost:      alloc.UnitCost,
				})
			}

			ok, err = s.itemRepo.AdjustStock(ctx, item.ID, -line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return apperror.NewInsufficientStockError(item.Name, line.Quantity, item.CurrentStock)
			}

			subtotal += lineSubtotal
			discountTotal += lineDiscount
			taxTotal += lineTax
		}

		orderDiscount := s.orderDiscount(input, subtotal-discountTotal)
		if orderDiscount > 0 {
			// The order discount lands before tax, so the accumulated tax
			// shrinks by the same factor as the taxable base.
			base := subtotal - discountTotal
			taxTotal = decimal.NewFromInt(taxTotal).
				Mul(decimal.NewFromInt(base - orderDiscount)).
				Div(decimal.NewFromInt(base)).
				Round(0).
				IntPart()
			discountTotal += orderDiscount
		}
		total := subtotal - discountTotal + taxTotal

		payments, amountPaid, err := s.buildPayments(ctx, tenantID, input.Payments, total)
		if err != nil {
			return err
		}

		amountDue := total - amountPaid
		var changeGiven int64
		if amountDue < 0 {
			changeGiven = -amountDue
			amountDue = 0
		}
		paymentStatus := enum.PaymentStatusPaid
		if amountDue > 0 {
			paymentStatus = enum.PaymentStatusPartial
		}

		sale = &entity.Sale{
			TenantID:       tenantID,
			SaleNumber:     utils.GenerateSaleNo(),
			InvoiceNumber:  utils.GenerateInvoiceNo(),
			SaleType:       input.SaleType,
			CustomerName:   input.CustomerName,
			PrescriptionID: input.PrescriptionID,
			SubtotalAmount: subtotal,
			TaxAmount:      taxTotal,
			DiscountAmount: discountTotal,
			TotalAmount:    total,
			AmountPaid:     amountPaid,
			AmountDue:      amountDue,
			ChangeGiven:    changeGiven,
			PaymentStatus:  paymentStatus,
			Status:         enum.SaleStatusCompleted,
			Notes:          input.Notes,
		}
		if err := s.saleRepo.Create(ctx, sale); err != nil {
			return err
		}

		for i := range saleItems {
			saleItems[i].SaleID = sale.ID
		}
		if err := s.saleItemRepo.CreateBatch(ctx, saleItems); err != nil {
			return err
		}
		for i := range movements {
			movements[i].Reference = sale.SaleNumber
		}
		if err := s.movementRepo.CreateBatch(ctx, movements); err != nil {
			return err
		}
		for i := range payments {
			payments[i].SaleID = sale.ID
		}
		if err := s.paymentRepo.CreateBatch(ctx, payments); err != nil {
			return err
		}

		for id, stock := range running {
			item := lockedItems[id]
			item.CurrentStock = stock
			affected = append(affected, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, item := range affected {
		if err := s.alertService.EvaluateItem(ctx, item); err != nil {
			s.log.WithError(err).Warn("Failed to evaluate stock alert after sale")
		}
	}

	s.log.WithFields(logrus.Fields{
		"sale_number": sale.SaleNumber,
		"total":       sale.TotalAmount,
	}).Info("Sale completed")

	return s.saleRepo.GetWithDetails(ctx, sale.ID)
}

func (s *SaleService) validateInput(input *CreateSaleInput) error {
	if input == nil || len(input.Lines) == 0 {
		return apperror.NewBadRequestError("sale requires at least one line")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return apperror.NewBadRequestError("line quantity must be positive")
		}
		if line.DiscountPercent < 0 || line.DiscountPercent > 100 {
			return apperror.NewBadRequestError("line discount must be between 0 and 100")
		}
	}
	if len(input.Payments) == 0 {
		return apperror.NewBadRequestError("sale requires at least one payment")
	}
	if input.DiscountPercent != nil && (*input.DiscountPercent < 0 || *input.DiscountPercent > 100) {
		return apperror.NewBadRequestError("order discount must be between 0 and 100")
	}
	if input.DiscountPercent != nil && input.DiscountAmount != nil {
		return apperror.NewBadRequestError("use either a percentage or a fixed order discount, not both")
	}
	for _, p := range input.Payments {
		if p.Amount <= 0 {
			return apperror.NewBadRequestError("payment amount must be positive")
		}
		switch p.Method {
		case enum.PaymentMethodCard:
			if p.CardLast4 == nil || len(*p.CardLast4) != 4 {
				return apperror.NewBadRequestError("card payments require the last four digits")
			}
		case enum.PaymentMethodInsurance:
			if p.InsuranceProvider == nil || *p.InsuranceProvider == "" {
				return apperror.NewBadRequestError("insurance payments require a provider")
			}
		case enum.PaymentMethodCreditNote:
			if p.CreditNoteID == nil {
				return apperror.NewBadRequestError("credit note payments require a credit note")
			}
		}
	}
	return nil
}

// orderDiscount resolves the order-level discount in cents against the
// post-line-discount base.
func (s *SaleService) orderDiscount(input *CreateSaleInput, base int64) int64 {
	switch {
	case input.DiscountPercent != nil:
		return percentOf(base, *input.DiscountPercent)
	case input.DiscountAmount != nil:
		amount := toCents(*input.DiscountAmount)
		if amount > base {
			amount = base
		}
		return amount
	default:
		return 0
	}
}

// buildPayments validates and materializes the tendered payments. Credit
// note redemptions are applied here, inside the sale transaction, so an
// aborted sale releases the balance.
func (s *SaleService) buildPayments(ctx context.Context, tenantID uuid.UUID, inputs []PaymentInput, total int64) ([]entity.Payment, int64, error) {
	payments := make([]entity.Payment, 0, len(inputs))
	var amountPaid int64

	for _, p := range inputs {
		amount := toCents(p.Amount)

		if p.Method == enum.PaymentMethodCreditNote {
			note, err := s.creditNoteRepo.GetByID(ctx, *p.CreditNoteID)
			if err != nil {
				return nil, 0, err
			}
			if note == nil {
				return nil, 0, apperror.NewNotFoundError("Credit note")
			}
			applied, err := s.creditNoteRepo.Apply(ctx, note.ID, amount)
			if err != nil {
				return nil, 0, err
			}
			if !applied {
				if note.Status != enum.CreditNoteStatusActive {
					return nil, 0, apperror.NewInvalidStateError("credit note is not active")
				}
				return nil, 0, apperror.NewInvalidStateError(
					fmt.Sprintf("credit note balance %d is less than requested %d", note.RemainingAmount, amount))
			}
			// Guarded flip, a no-op unless this redemption drained the
			// balance.
			if err := s.creditNoteRepo.MarkExhausted(ctx, note.ID); err != nil {
				return nil, 0, err
			}
		}

		payments = append(payments, entity.Payment{
			TenantID:          tenantID,
			Method:            p.Method,
			Amount:            amount,
			CardLast4:         p.CardLast4,
			InsuranceProvider: p.InsuranceProvider,
			ClaimNumber:       p.ClaimNumber,
			CreditNoteID:      p.CreditNoteID,
		})
		amountPaid += amount
	}

	return payments, amountPaid, nil
}

// VoidSaleInput contains the data needed to void a sale
type VoidSaleInput struct {
	Reason   string
	VoidedBy string
}

// VoidSale reverses a completed sale: every allocated unit returns to its
// source batch, the stock cache is restored and compensating movements are
// written. Units whose batch has expired since the sale are not restored;
// they would be written straight off again by the expiry sweep. A sale
// with returns against it cannot be voided; the remainder goes through
// the returns workflow instead.
func (s *SaleService) VoidSale(ctx context.Context, id uuid.UUID, input *VoidSaleInput) (*entity.Sale, error) {
	if input == nil || input.Reason == "" {
		return nil, apperror.NewBadRequestError("void reason is required")
	}

	var voided *entity.Sale
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		sale, err := s.saleRepo.GetWithDetails(ctx, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return apperror.NewNotFoundError("Sale")
		}
		if sale.Status == enum.SaleStatusVoided {
			return apperror.NewInvalidStateError("sale is already voided")
		}
		// Returned units were already restocked or disposed through the
		// returns workflow; restoring them again here would inflate stock
		// past total receipts.
		for _, si := range sale.Items {
			if si.ReturnedQuantity > 0 {
				return apperror.NewInvalidStateError("sale has returns against it; reverse the remainder through the returns workflow")
			}
		}

		now := time.Now()
		running := make(map[uuid.UUID]int)
		lockedItems := make(map[uuid.UUID]*entity.Item)

		for _, si := range sale.Items {
			item, ok := lockedItems[si.ItemID]
			if !ok {
				item, err = s.itemRepo.GetByIDForUpdate(ctx, si.ItemID)
				if err != nil {
					return err
				}
				if item == nil {
					return apperror.NewNotFoundError("Item")
				}
				lockedItems[si.ItemID] = item
				running[si.ItemID] = item.CurrentStock
			}

			if si.BatchID != nil {
				batch, err := s.batchRepo.GetByID(ctx, *si.BatchID)
				if err != nil {
					return err
				}
				if batch == nil || batch.HasExpired(now) || batch.Status == enum.BatchStatusExpired {
					continue
				}
				if err := s.batchRepo.IncrementRemaining(ctx, batch.ID, si.Quantity); err != nil {
					return err
				}
				if batch.Status == enum.BatchStatusDepleted {
					if err := s.batchRepo.UpdateStatus(ctx, batch.ID, enum.BatchStatusActive); err != nil {
						return err
					}
				}
			}

			ok, err := s.itemRepo.AdjustStock(ctx, si.ItemID, si.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return apperror.NewTransactionFailureError(fmt.Errorf("stock restore rejected for item %s", si.ItemID))
			}

			prev := running[si.ItemID]
			running[si.ItemID] = prev + si.Quantity
			movement := &entity.StockMovement{
				TenantID:      sale.TenantID,
				ItemID:        si.ItemID,
				BatchID:       si.BatchID,
				MovementType:  enum.MovementTypeAdjustment,
				Quantity:      si.Quantity,
				PreviousStock: prev,
				NewStock:      running[si.ItemID],
				Reference:     "VOID " + sale.SaleNumber,
			}
			if err := s.movementRepo.Create(ctx, movement); err != nil {
				return err
			}
		}

		now = time.Now()
		reason := input.Reason
		sale.Status = enum.SaleStatusVoided
		sale.VoidReason = &reason
		sale.VoidedAt = &now
		if input.VoidedBy != "" {
			voidedBy := input.VoidedBy
			sale.VoidedBy = &voidedBy
		}
		if err := s.saleRepo.Update(ctx, sale); err != nil {
			return err
		}
		voided = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("sale_number", voided.SaleNumber).Info("Sale voided")
	return voided, nil
}

// GetSale retrieves a sale with its items and payments
func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	sale, err := s.saleRepo.GetWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	return sale, nil
}

// ListSales returns sales matching the filter
func (s *SaleService) ListSales(ctx context.Context, params *repository.SaleFilterParams) (*pagination.PaginatedResult[entity.Sale], error) {
	if params == nil {
		params = &repository.SaleFilterParams{}
	}
	if params.Pagination == nil {
		params.Pagination = &pagination.PaginationParams{}
	}
	params.Pagination.Validate()

	sales, total, err := s.saleRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pg := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(sales, pg), nil
}
