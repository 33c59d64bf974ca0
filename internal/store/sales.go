package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safar/pos-store/internal/database"
	"github.com/safar/pos-store/internal/models"
	"github.com/shopspring/decimal"
)

const saleColumns = `id, seller_id, payment_method, total, amount_received, change_amount, status, created_at, updated_at, concluded_at`

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type SaleFilter struct {
	Status   models.SaleStatus
	SellerID *int64
	From     *time.Time
	To       *time.Time
}

func scanSale(row rowScanner, sale *models.Sale) error {
	return row.Scan(
		&sale.ID,
		&sale.SellerID,
		&sale.PaymentMethod,
		&sale.Total,
		&sale.AmountReceived,
		&sale.Change,
		&sale.Status,
		&sale.CreatedAt,
		&sale.UpdatedAt,
		&sale.ConcludedAt,
	)
}

// CreateSale opens a new pending sale with an empty cart for sellerID.
func CreateSale(ctx context.Context, db *sql.DB, sellerID int64) (*models.Sale, error) {
	exists, err := activeUserExists(ctx, db, sellerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, database.ErrUserNotFound
	}

	sale := &models.Sale{}

	query := `
		INSERT INTO sales (id, seller_id, payment_method, total, amount_received, change_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, 0, $4, NOW(), NOW())
		RETURNING ` + saleColumns

	err = scanSale(db.QueryRowContext(ctx, query,
		uuid.New(), sellerID, models.PaymentMethodCash, models.SaleStatusPending), sale)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("create sale: %w", err)
	}

	sale.Items = []models.SaleItem{}
	return sale, nil
}

func GetSale(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Sale, error) {
	sale := &models.Sale{}

	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`

	err := scanSale(db.QueryRowContext(ctx, query, id), sale)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrSaleNotFound
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	items, err := listSaleItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	sale.Items = items

	return sale, nil
}

// CurrentSale returns the most recent pending sale of a seller so an
// interrupted checkout can be resumed.
func CurrentSale(ctx context.Context, db *sql.DB, sellerID int64) (*models.Sale, error) {
	sale := &models.Sale{}

	query := `
		SELECT ` + saleColumns + `
		FROM sales
		WHERE seller_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	err := scanSale(db.QueryRowContext(ctx, query, sellerID, models.SaleStatusPending), sale)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrSaleNotFound
		}
		return nil, fmt.Errorf("get current sale: %w", err)
	}

	items, err := listSaleItems(ctx, db, sale.ID)
	if err != nil {
		return nil, err
	}
	sale.Items = items

	return sale, nil
}

func ListSales(ctx context.Context, db *sql.DB, filter SaleFilter, page, pageSize int) (*OffsetPage, error) {
	page, pageSize = NormalizePage(page, pageSize)

	status := filter.Status
	if status == "" {
		status = models.SaleStatusConcluded
	}

	conditions := []string{"status = $1"}
	args := []any{status}

	if filter.SellerID != nil {
		args = append(args, *filter.SellerID)
		conditions = append(conditions, fmt.Sprintf("seller_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count sales: %w", err)
	}

	offset := (page - 1) * pageSize
	query := fmt.Sprintf(`
		SELECT %s
		FROM sales
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, saleColumns, where, len(args)+1, len(args)+2)

	rows, err := db.QueryContext(ctx, query, append(args, pageSize, offset)...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		var sale models.Sale
		if err := scanSale(rows, &sale); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      sales,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// ListSellerSalesCursor pages through every sale of a seller, newest first,
// using keyset pagination on (created_at, id).
func ListSellerSalesCursor(ctx context.Context, db *sql.DB, sellerID int64, cursor string, limit int) (*CursorPage, error) {
	_, limit = NormalizePage(1, limit)

	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if cursorData == nil {
		rows, err = db.QueryContext(ctx, `
			SELECT `+saleColumns+`
			FROM sales
			WHERE seller_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, sellerID, limit+1)
	} else {
		rows, err = db.QueryContext(ctx, `
			SELECT `+saleColumns+`
			FROM sales
			WHERE seller_id = $1
			  AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`, sellerID, cursorData.CreatedAt, cursorData.ID, limit+1)
	}
	if err != nil {
		return nil, fmt.Errorf("list seller sales: %w", err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		var sale models.Sale
		if err := scanSale(rows, &sale); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(sales) > limit
	if hasMore {
		sales = sales[:limit]
	}

	var nextCursor string
	if hasMore && len(sales) > 0 {
		last := sales[len(sales)-1]
		nextCursor = EncodeCursor(SaleCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return &CursorPage{
		Items:      sales,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func listSaleItems(ctx context.Context, q dbtx, saleID uuid.UUID) ([]models.SaleItem, error) {
	query := `
		SELECT si.id, si.sale_id, si.product_id, p.name, p.barcode, si.quantity,
		       COALESCE(si.unit_price, p.price), si.created_at, si.updated_at
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = $1
		ORDER BY si.created_at, si.id`

	rows, err := q.QueryContext(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}
	defer rows.Close()

	items := []models.SaleItem{}
	for rows.Next() {
		var item models.SaleItem
		if err := scanSaleItem(rows, &item); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func getSaleItem(ctx context.Context, q dbtx, saleID, itemID uuid.UUID) (*models.SaleItem, error) {
	query := `
		SELECT si.id, si.sale_id, si.product_id, p.name, p.barcode, si.quantity,
		       COALESCE(si.unit_price, p.price), si.created_at, si.updated_at
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.id = $1 AND si.sale_id = $2`

	item := &models.SaleItem{}
	if err := scanSaleItem(q.QueryRowContext(ctx, query, itemID, saleID), item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrLineItemNotFound
		}
		return nil, fmt.Errorf("get sale item: %w", err)
	}
	return item, nil
}

func scanSaleItem(row rowScanner, item *models.SaleItem) error {
	err := row.Scan(
		&item.ID,
		&item.SaleID,
		&item.ProductID,
		&item.ProductName,
		&item.Barcode,
		&item.Quantity,
		&item.UnitPrice,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return err
	}
	item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return nil
}
