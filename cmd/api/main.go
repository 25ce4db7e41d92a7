package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/caredesk/pharmacy-api/internal/application/service"
	"github.com/caredesk/pharmacy-api/internal/config"
	domainRepo "github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/internal/infrastructure/database"
	"github.com/caredesk/pharmacy-api/internal/infrastructure/repository"
	"github.com/caredesk/pharmacy-api/internal/presentation/http/handler"
	"github.com/caredesk/pharmacy-api/internal/presentation/http/routes"
	"github.com/caredesk/pharmacy-api/pkg/notify"
	"github.com/caredesk/pharmacy-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if cfg.App.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db, log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize token manager
	tokenManager := utils.NewTokenManager(cfg.Auth.TokenSecret, 24*time.Hour)

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	saleItemRepo := repository.NewSaleItemRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	returnItemRepo := repository.NewReturnItemRepository(db)
	creditNoteRepo := repository.NewCreditNoteRepository(db)
	alertRepo := repository.NewStockAlertRepository(db)
	txManager := repository.NewTxManager(db)

	// Initialize notifier. Without SMTP configured alerts are still
	// recorded, just not delivered.
	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.SMTP.Host != "" {
		notifier = notify.NewAsyncNotifier(notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			FromName: cfg.SMTP.FromName,
			FromAddr: cfg.SMTP.FromAddr,
		}), log)
	}

	// Initialize services
	alertService := service.NewAlertService(alertRepo, tenantRepo, notifier, log)
	ledgerService := service.NewLedgerService(itemRepo, batchRepo, movementRepo, supplierRepo, categoryRepo, alertService, txManager, log)
	saleService := service.NewSaleService(saleRepo, saleItemRepo, paymentRepo, itemRepo, batchRepo, movementRepo, creditNoteRepo, tenantRepo, alertService, txManager, cfg.Inventory.DefaultTaxRate, log)
	returnService := service.NewReturnService(returnRepo, returnItemRepo, creditNoteRepo, saleRepo, saleItemRepo, itemRepo, batchRepo, movementRepo, tenantRepo, txManager, cfg.Inventory.ReturnApprovalThreshold, log)

	// Background expiry sweep
	go runExpirySweep(tenantRepo, ledgerService, cfg.Inventory.ExpiryAlertDays, log)

	// Initialize handlers
	handlers := &routes.Handlers{
		Inventory: handler.NewInventoryHandler(ledgerService),
		Sale:      handler.NewSaleHandler(saleService),
		Return:    handler.NewReturnHandler(returnService),
		Alert:     handler.NewAlertHandler(alertService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		TokenManager: tokenManager,
		Cfg:          cfg,
		Log:          log,
	})

	log.WithField("port", cfg.App.Port).Info("Starting server")
	if err := router.Run(":" + cfg.App.Port); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}

// runExpirySweep writes off expired batches and warns about batches
// approaching expiry, once per tenant per cycle. Queries are tenant-scoped,
// so the sweep iterates tenants and runs each one under its own context.
func runExpirySweep(tenantRepo domainRepo.TenantRepository, ledgerService *service.LedgerService, alertDays int, log *logrus.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		sweepOnce(tenantRepo, ledgerService, alertDays, log)
		<-ticker.C
	}
}

func sweepOnce(tenantRepo domainRepo.TenantRepository, ledgerService *service.LedgerService, alertDays int, log *logrus.Logger) {
	ctx := context.Background()
	tenants, err := tenantRepo.List(ctx)
	if err != nil {
		log.WithError(err).Error("Expiry sweep could not list tenants")
		return
	}

	for _, tenant := range tenants {
		tctx := repository.WithTenant(ctx, tenant.ID)
		if _, err := ledgerService.ExpireBatches(tctx, time.Now()); err != nil {
			log.WithError(err).WithField("tenant_id", tenant.ID).Error("Expiry sweep failed")
		}
		if alertDays > 0 {
			if _, err := ledgerService.WarnExpiring(tctx, time.Duration(alertDays)*24*time.Hour); err != nil {
				log.WithError(err).WithField("tenant_id", tenant.ID).Error("Expiry warning pass failed")
			}
		}
	}
}
