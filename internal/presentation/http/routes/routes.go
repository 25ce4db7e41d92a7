package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/caredesk/pharmacy-api/internal/config"
	"github.com/caredesk/pharmacy-api/internal/presentation/http/handler"
	"github.com/caredesk/pharmacy-api/internal/presentation/http/middleware"
	"github.com/caredesk/pharmacy-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Inventory *handler.InventoryHandler
	Sale      *handler.SaleHandler
	Return    *handler.ReturnHandler
	Alert     *handler.AlertHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	TokenManager *utils.TokenManager
	Cfg          *config.Config
	Log          *logrus.Logger
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes, all tenant-scoped
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.TokenManager))

		// Per-tenant rate limiter
		rateLimiter := middleware.NewTenantRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerInventoryRoutes(protected, h)
		registerSaleRoutes(protected, h)
		registerReturnRoutes(protected, h)
		registerAlertRoutes(protected, h)
	}

	return router
}

func registerInventoryRoutes(g *gin.RouterGroup, h *Handlers) {
	items := g.Group("/items")
	{
		items.POST("", h.Inventory.CreateItem)
		items.GET("", h.Inventory.ListItems)
		items.GET("/:id", h.Inventory.GetItem)
		items.POST("/:id/batches", h.Inventory.ReceiveBatch)
		items.GET("/:id/batches", h.Inventory.ListBatches)
		items.POST("/:id/adjustments", h.Inventory.AdjustStock)
		items.GET("/:id/movements", h.Inventory.ListMovements)
	}
}

func registerSaleRoutes(g *gin.RouterGroup, h *Handlers) {
	sales := g.Group("/sales")
	{
		sales.POST("", h.Sale.Create)
		sales.GET("", h.Sale.List)
		sales.GET("/:id", h.Sale.Get)
		sales.POST("/:id/void", h.Sale.Void)
	}
}

func registerReturnRoutes(g *gin.RouterGroup, h *Handlers) {
	returns := g.Group("/returns")
	{
		returns.POST("", h.Return.Create)
		returns.GET("", h.Return.List)
		returns.GET("/:id", h.Return.Get)
		returns.POST("/:id/decision", h.Return.Approve)
	}

	creditNotes := g.Group("/credit-notes")
	{
		creditNotes.GET("/:id", h.Return.GetCreditNote)
		creditNotes.POST("/:id/apply", h.Return.ApplyCreditNote)
	}
}

func registerAlertRoutes(g *gin.RouterGroup, h *Handlers) {
	alerts := g.Group("/alerts")
	{
		alerts.GET("", h.Alert.List)
		alerts.POST("/:id/resolve", h.Alert.Resolve)
	}
}
