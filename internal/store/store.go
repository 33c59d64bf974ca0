package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/safar/pos-store/internal/database"
	"github.com/safar/pos-store/internal/models"
	"github.com/shopspring/decimal"
)

// Store binds the package functions to one database and one transaction
// policy so they can be handed to the HTTP layer as a single value.
type Store struct {
	db     *sql.DB
	txOpts database.TxOptions
}

func New(db *sql.DB, txOpts database.TxOptions) *Store {
	return &Store{db: db, txOpts: txOpts}
}

func (s *Store) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	return CreateUser(ctx, s.db, req)
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return GetUser(ctx, s.db, id)
}

func (s *Store) CreateProduct(ctx context.Context, req CreateProductRequest, createdBy *int64) (*models.Product, error) {
	return CreateProduct(ctx, s.db, req, createdBy)
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return GetProduct(ctx, s.db, id)
}

func (s *Store) FindProductByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	return FindActiveProductByBarcode(ctx, s.db, barcode)
}

func (s *Store) ListProducts(ctx context.Context, page, pageSize int) (*OffsetPage, error) {
	return ListProducts(ctx, s.db, page, pageSize)
}

func (s *Store) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest, version int, updatedBy *int64) (*models.Product, error) {
	return UpdateProduct(ctx, s.db, id, req, version, updatedBy)
}

func (s *Store) DeactivateProduct(ctx context.Context, id uuid.UUID, updatedBy *int64) (*models.Product, error) {
	return DeactivateProduct(ctx, s.db, id, updatedBy)
}

func (s *Store) CreateSale(ctx context.Context, sellerID int64) (*models.Sale, error) {
	return CreateSale(ctx, s.db, sellerID)
}

func (s *Store) GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	return GetSale(ctx, s.db, id)
}

func (s *Store) CurrentSale(ctx context.Context, sellerID int64) (*models.Sale, error) {
	return CurrentSale(ctx, s.db, sellerID)
}

func (s *Store) ListSales(ctx context.Context, filter SaleFilter, page, pageSize int) (*OffsetPage, error) {
	return ListSales(ctx, s.db, filter, page, pageSize)
}

func (s *Store) ListSellerSales(ctx context.Context, sellerID int64, cursor string, limit int) (*CursorPage, error) {
	return ListSellerSalesCursor(ctx, s.db, sellerID, cursor, limit)
}

func (s *Store) AddItemByBarcode(ctx context.Context, saleID uuid.UUID, barcode string) (*models.LineItemResult, error) {
	return AddItemByBarcode(ctx, s.db, s.txOpts, saleID, barcode)
}

func (s *Store) SetItemQuantity(ctx context.Context, saleID, itemID uuid.UUID, quantity int) (*models.LineItemResult, error) {
	return SetItemQuantity(ctx, s.db, s.txOpts, saleID, itemID, quantity)
}

func (s *Store) RemoveItem(ctx context.Context, saleID, itemID uuid.UUID) (*models.Sale, error) {
	return RemoveItem(ctx, s.db, s.txOpts, saleID, itemID)
}

func (s *Store) FinalizeSale(ctx context.Context, saleID uuid.UUID, method models.PaymentMethod, amountReceived decimal.Decimal) (*models.Sale, error) {
	return FinalizeSale(ctx, s.db, s.txOpts, saleID, method, amountReceived)
}

func (s *Store) CancelSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	return CancelSale(ctx, s.db, s.txOpts, saleID)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
