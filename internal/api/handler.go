package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/safar/pos-store/internal/metrics"
	"github.com/safar/pos-store/internal/models"
	"github.com/safar/pos-store/internal/store"
	"github.com/shopspring/decimal"
)

const (
	opCreateSale      = "create_sale"
	opGetSale         = "get_sale"
	opCurrentSale     = "current_sale"
	opListSales       = "list_sales"
	opSaleHistory     = "sale_history"
	opScan            = "scan_item"
	opSetQuantity     = "set_quantity"
	opRemoveItem      = "remove_item"
	opCheckout        = "checkout"
	opCancel          = "cancel_sale"
	opCreateProduct   = "create_product"
	opGetProduct      = "get_product"
	opProductByCode   = "product_by_barcode"
	opListProducts    = "list_products"
	opUpdateProduct   = "update_product"
	opDeleteProduct   = "deactivate_product"
	opCreateUser      = "create_user"
	opGetUser         = "get_user"
	resultOK          = "ok"
	healthPingTimeout = 2 * time.Second
)

// Store is the persistence surface the handlers need. *store.Store
// satisfies it.
type Store interface {
	CreateUser(ctx context.Context, req store.CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)

	CreateProduct(ctx context.Context, req store.CreateProductRequest, createdBy *int64) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	ListProducts(ctx context.Context, page, pageSize int) (*store.OffsetPage, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req store.UpdateProductRequest, version int, updatedBy *int64) (*models.Product, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID, updatedBy *int64) (*models.Product, error)

	CreateSale(ctx context.Context, sellerID int64) (*models.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	CurrentSale(ctx context.Context, sellerID int64) (*models.Sale, error)
	ListSales(ctx context.Context, filter store.SaleFilter, page, pageSize int) (*store.OffsetPage, error)
	ListSellerSales(ctx context.Context, sellerID int64, cursor string, limit int) (*store.CursorPage, error)

	AddItemByBarcode(ctx context.Context, saleID uuid.UUID, barcode string) (*models.LineItemResult, error)
	SetItemQuantity(ctx context.Context, saleID, itemID uuid.UUID, quantity int) (*models.LineItemResult, error)
	RemoveItem(ctx context.Context, saleID, itemID uuid.UUID) (*models.Sale, error)
	FinalizeSale(ctx context.Context, saleID uuid.UUID, method models.PaymentMethod, amountReceived decimal.Decimal) (*models.Sale, error)
	CancelSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)

	Ping(ctx context.Context) error
}

var _ Store = (*store.Store)(nil)

type Handler struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewHandler(s Store, m *metrics.Metrics, logger *slog.Logger) *Handler {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: s, metrics: m, logger: logger}
}

// recordCart counts a cart mutation under its outcome code.
func (h *Handler) recordCart(operation string, err error) {
	result := resultOK
	if err != nil {
		_, result, _ = classify(operation, err)
	}
	h.metrics.RecordCartOperation(operation, result)
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		requestLogger(c, h.logger).Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "database unavailable", Code: CodeUnavailable})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid " + name,
			Code:  CodeValidation,
		})
		return uuid.Nil, false
	}
	return id, true
}
