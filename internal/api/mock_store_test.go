package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/safar/pos-store/internal/metrics"
	"github.com/safar/pos-store/internal/models"
	"github.com/safar/pos-store/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var errNotMocked = errors.New("not mocked")

type mockStore struct {
	CreateUserFunc           func(ctx context.Context, req store.CreateUserRequest) (*models.User, error)
	GetUserFunc              func(ctx context.Context, id int64) (*models.User, error)
	CreateProductFunc        func(ctx context.Context, req store.CreateProductRequest, createdBy *int64) (*models.Product, error)
	GetProductFunc           func(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductByBarcodeFunc func(ctx context.Context, barcode string) (*models.Product, error)
	ListProductsFunc         func(ctx context.Context, page, pageSize int) (*store.OffsetPage, error)
	UpdateProductFunc        func(ctx context.Context, id uuid.UUID, req store.UpdateProductRequest, version int, updatedBy *int64) (*models.Product, error)
	DeactivateProductFunc    func(ctx context.Context, id uuid.UUID, updatedBy *int64) (*models.Product, error)
	CreateSaleFunc           func(ctx context.Context, sellerID int64) (*models.Sale, error)
	GetSaleFunc              func(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	CurrentSaleFunc          func(ctx context.Context, sellerID int64) (*models.Sale, error)
	ListSalesFunc            func(ctx context.Context, filter store.SaleFilter, page, pageSize int) (*store.OffsetPage, error)
	ListSellerSalesFunc      func(ctx context.Context, sellerID int64, cursor string, limit int) (*store.CursorPage, error)
	AddItemByBarcodeFunc     func(ctx context.Context, saleID uuid.UUID, barcode string) (*models.LineItemResult, error)
	SetItemQuantityFunc      func(ctx context.Context, saleID, itemID uuid.UUID, quantity int) (*models.LineItemResult, error)
	RemoveItemFunc           func(ctx context.Context, saleID, itemID uuid.UUID) (*models.Sale, error)
	FinalizeSaleFunc         func(ctx context.Context, saleID uuid.UUID, method models.PaymentMethod, amountReceived decimal.Decimal) (*models.Sale, error)
	CancelSaleFunc           func(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	PingFunc                 func(ctx context.Context) error
}

func (m *mockStore) CreateUser(ctx context.Context, req store.CreateUserRequest) (*models.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, req)
	}
	return nil, errNotMocked
}

func (m *mockStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, errNotMocked
}

func (m *mockStore) CreateProduct(ctx context.Context, req store.CreateProductRequest, createdBy *int64) (*models.Product, error) {
	if m.CreateProductFunc != nil {
		return m.CreateProductFunc(ctx, req, createdBy)
	}
	return nil, errNotMocked
}

func (m *mockStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, id)
	}
	return nil, errNotMocked
}

func (m *mockStore) FindProductByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	if m.FindProductByBarcodeFunc != nil {
		return m.FindProductByBarcodeFunc(ctx, barcode)
	}
	return nil, errNotMocked
}

func (m *mockStore) ListProducts(ctx context.Context, page, pageSize int) (*store.OffsetPage, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx, page, pageSize)
	}
	return nil, errNotMocked
}

func (m *mockStore) UpdateProduct(ctx context.Context, id uuid.UUID, req store.UpdateProductRequest, version int, updatedBy *int64) (*models.Product, error) {
	if m.UpdateProductFunc != nil {
		return m.UpdateProductFunc(ctx, id, req, version, updatedBy)
	}
	return nil, errNotMocked
}

func (m *mockStore) DeactivateProduct(ctx context.Context, id uuid.UUID, updatedBy *int64) (*models.Product, error) {
	if m.DeactivateProductFunc != nil {
		return m.DeactivateProductFunc(ctx, id, updatedBy)
	}
	return nil, errNotMocked
}

func (m *mockStore) CreateSale(ctx context.Context, sellerID int64) (*models.Sale, error) {
	if m.CreateSaleFunc != nil {
		return m.CreateSaleFunc(ctx, sellerID)
	}
	return nil, errNotMocked
}

func (m *mockStore) GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	if m.GetSaleFunc != nil {
		return m.GetSaleFunc(ctx, id)
	}
	return nil, errNotMocked
}

func (m *mockStore) CurrentSale(ctx context.Context, sellerID int64) (*models.Sale, error) {
	if m.CurrentSaleFunc != nil {
		return m.CurrentSaleFunc(ctx, sellerID)
	}
	return nil, errNotMocked
}

func (m *mockStore) ListSales(ctx context.Context, filter store.SaleFilter, page, pageSize int) (*store.OffsetPage, error) {
	if m.ListSalesFunc != nil {
		return m.ListSalesFunc(ctx, filter, page, pageSize)
	}
	return nil, errNotMocked
}

func (m *mockStore) ListSellerSales(ctx context.Context, sellerID int64, cursor string, limit int) (*store.CursorPage, error) {
	if m.ListSellerSalesFunc != nil {
		return m.ListSellerSalesFunc(ctx, sellerID, cursor, limit)
	}
	return nil, errNotMocked
}

func (m *mockStore) AddItemByBarcode(ctx context.Context, saleID uuid.UUID, barcode string) (*models.LineItemResult, error) {
	if m.AddItemByBarcodeFunc != nil {
		return m.AddItemByBarcodeFunc(ctx, saleID, barcode)
	}
	return nil, errNotMocked
}

func (m *mockStore) SetItemQuantity(ctx context.Context, saleID, itemID uuid.UUID, quantity int) (*models.LineItemResult, error) {
	if m.SetItemQuantityFunc != nil {
		return m.SetItemQuantityFunc(ctx, saleID, itemID, quantity)
	}
	return nil, errNotMocked
}

func (m *mockStore) RemoveItem(ctx context.Context, saleID, itemID uuid.UUID) (*models.Sale, error) {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, saleID, itemID)
	}
	return nil, errNotMocked
}

func (m *mockStore) FinalizeSale(ctx context.Context, saleID uuid.UUID, method models.PaymentMethod, amountReceived decimal.Decimal) (*models.Sale, error) {
	if m.FinalizeSaleFunc != nil {
		return m.FinalizeSaleFunc(ctx, saleID, method, amountReceived)
	}
	return nil, errNotMocked
}

func (m *mockStore) CancelSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	if m.CancelSaleFunc != nil {
		return m.CancelSaleFunc(ctx, saleID)
	}
	return nil, errNotMocked
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

var testSecret = []byte("test-secret")

const testSellerID int64 = 7

type testServer struct {
	router  *gin.Engine
	metrics *metrics.Metrics
	token   string
}

func newTestServer(t *testing.T, s *mockStore) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := metrics.New()
	router := NewRouter(RouterConfig{
		Store:          s,
		Logger:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Metrics:        m,
		MetricsEnabled: true,
		JWTSecret:      testSecret,
	})

	token, err := SignSellerToken(testSellerID, testSecret, time.Hour)
	require.NoError(t, err)

	return &testServer{router: router, metrics: m, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.doWithToken(t, method, path, body, s.token)
}

func (s *testServer) doWithToken(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}

func pendingSale(id uuid.UUID, total string) models.Sale {
	return models.Sale{
		ID:            id,
		SellerID:      testSellerID,
		PaymentMethod: models.PaymentMethodCash,
		Total:         decimal.RequireFromString(total),
		Status:        models.SaleStatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
		Items:         []models.SaleItem{},
	}
}
