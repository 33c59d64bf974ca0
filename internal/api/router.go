package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/safar/pos-store/internal/metrics"
)

type RouterConfig struct {
	Store          Store
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	MetricsEnabled bool
	JWTSecret      []byte
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	RegisterValidators()

	h := NewHandler(cfg.Store, cfg.Metrics, cfg.Logger)

	router := gin.New()
	router.Use(
		RequestID(h.logger),
		Recovery(h.logger),
		RequestLogger(h.logger),
		h.metrics.Middleware(),
	)

	router.GET("/health", h.Health)
	if cfg.MetricsEnabled {
		router.GET("/metrics", h.metrics.Endpoint())
	}

	v1 := router.Group("/api/v1", RequireSeller(cfg.JWTSecret))

	sales := v1.Group("/sales")
	{
		sales.POST("", h.CreateSale)
		sales.GET("", h.ListSales)
		sales.GET("/current", h.CurrentSale)
		sales.GET("/history", h.SaleHistory)
		sales.GET("/:id", h.GetSale)
		sales.PUT("/:id/cancel", h.CancelSale)
		sales.PUT("/:id/checkout", h.Checkout)
		sales.POST("/:id/items/scan", h.ScanItem)
		sales.PUT("/:id/items/:itemId", h.SetItemQuantity)
		sales.DELETE("/:id/items/:itemId", h.RemoveItem)
	}

	products := v1.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("", h.ListProducts)
		products.GET("/barcode/:barcode", h.FindProductByBarcode)
		products.GET("/:id", h.GetProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeactivateProduct)
	}

	users := v1.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
	}

	return router
}
