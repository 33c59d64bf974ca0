package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safar/pos-store/internal/database"
	"github.com/safar/pos-store/internal/models"
	"github.com/shopspring/decimal"
)

const activeBarcodeConstraint = "products_active_barcode_key"

const productColumns = `id, barcode, name, price, active, created_by, updated_by, created_at, updated_at, version`

type CreateProductRequest struct {
	Barcode string
	Name    string
	Price   decimal.Decimal
}

// UpdateProductRequest carries the fields to change; nil fields are kept.
type UpdateProductRequest struct {
	Barcode *string
	Name    *string
	Price   *decimal.Decimal
}

func scanProduct(row rowScanner, product *models.Product) error {
	return row.Scan(
		&product.ID,
		&product.Barcode,
		&product.Name,
		&product.Price,
		&product.Active,
		&product.CreatedBy,
		&product.UpdatedBy,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)
}

func validProduct(barcode, name string, price decimal.Decimal) bool {
	return strings.TrimSpace(barcode) != "" &&
		strings.TrimSpace(name) != "" &&
		!price.IsNegative() &&
		!price.GreaterThan(models.MaxMoney)
}

func CreateProduct(ctx context.Context, db *sql.DB, req CreateProductRequest, createdBy *int64) (*models.Product, error) {
	if !validProduct(req.Barcode, req.Name, req.Price) {
		return nil, database.ErrInvalidProduct
	}

	product := &models.Product{}

	query := `
		INSERT INTO products (id, barcode, name, price, active, created_by, updated_by, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5, NOW(), NOW(), 1)
		RETURNING ` + productColumns

	err := scanProduct(db.QueryRowContext(ctx, query,
		uuid.New(), strings.TrimSpace(req.Barcode), strings.TrimSpace(req.Name), req.Price, createdBy), product)
	if err != nil {
		if database.IsUniqueViolation(err, activeBarcodeConstraint) {
			return nil, database.ErrDuplicateBarcode
		}
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Product, error) {
	product := &models.Product{}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	err := scanProduct(db.QueryRowContext(ctx, query, id), product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// FindActiveProductByBarcode resolves a scanned barcode to exactly one
// active product. A barcode shared by several active products is reported
// as ErrAmbiguousProduct instead of picking one of them.
func FindActiveProductByBarcode(ctx context.Context, q dbtx, barcode string) (*models.Product, error) {
	normalized := models.NormalizeBarcode(barcode)
	if normalized == "" {
		return nil, database.ErrProductNotFound
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE LOWER(BTRIM(barcode)) = $1
		  AND active
		ORDER BY created_at
		LIMIT 2`

	rows, err := q.QueryContext(ctx, query, normalized)
	if err != nil {
		return nil, fmt.Errorf("find product by barcode: %w", err)
	}
	defer rows.Close()

	var matches []models.Product
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		matches = append(matches, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, database.ErrProductNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, database.ErrAmbiguousProduct
	}
}

func ListProducts(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	page, pageSize = NormalizePage(page, pageSize)

	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE active`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE active
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// UpdateProduct applies req if the stored version still equals version.
// Prices changed here reach pending sales on their next cart mutation.
func UpdateProduct(ctx context.Context, db *sql.DB, id uuid.UUID, req UpdateProductRequest, version int, updatedBy *int64) (*models.Product, error) {
	if req.Barcode != nil && strings.TrimSpace(*req.Barcode) == "" {
		return nil, database.ErrInvalidProduct
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, database.ErrInvalidProduct
	}
	if req.Price != nil && (req.Price.IsNegative() || req.Price.GreaterThan(models.MaxMoney)) {
		return nil, database.ErrInvalidProduct
	}

	var barcode, name *string
	if req.Barcode != nil {
		trimmed := strings.TrimSpace(*req.Barcode)
		barcode = &trimmed
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		name = &trimmed
	}

	var price any
	if req.Price != nil {
		price = *req.Price
	}

	product := &models.Product{}

	query := `
		UPDATE products
		SET barcode = COALESCE($1, barcode),
		    name = COALESCE($2, name),
		    price = COALESCE($3::NUMERIC, price),
		    updated_by = COALESCE($4, updated_by),
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $5 AND version = $6 AND active
		RETURNING ` + productColumns

	err := scanProduct(db.QueryRowContext(ctx, query, barcode, name, price, updatedBy, id, version), product)
	if err == nil {
		return product, nil
	}

	if database.IsUniqueViolation(err, activeBarcodeConstraint) {
		return nil, database.ErrDuplicateBarcode
	}
	if database.IsForeignKeyViolation(err) {
		return nil, database.ErrUserNotFound
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update product: %w", err)
	}

	var active bool
	err = db.QueryRowContext(ctx, `SELECT active FROM products WHERE id = $1`, id).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !active) {
		return nil, database.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check product: %w", err)
	}

	return nil, database.ErrOptimisticLockFailed
}

// DeactivateProduct soft-deletes a product. Sales keep referencing it.
func DeactivateProduct(ctx context.Context, db *sql.DB, id uuid.UUID, updatedBy *int64) (*models.Product, error) {
	product := &models.Product{}

	query := `
		UPDATE products
		SET active = FALSE,
		    updated_by = COALESCE($1, updated_by),
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $2 AND active
		RETURNING ` + productColumns

	err := scanProduct(db.QueryRowContext(ctx, query, updatedBy, id), product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("deactivate product: %w", err)
	}

	return product, nil
}
