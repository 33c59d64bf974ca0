package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/pos-store/internal/database"
	"github.com/safar/pos-store/internal/models"
	"github.com/shopspring/decimal"
)

// Every cart mutation runs in one transaction that starts by locking the
// sale row. That lock serializes all mutations of a sale, and the total is
// recomputed from the line items before commit, so a pending sale always
// satisfies total = sum(quantity * current price).

// lockPendingSale locks the sale row for the rest of the transaction. A
// missing sale and a sale that is no longer pending are the same failure.
func lockPendingSale(ctx context.Context, tx *sql.Tx, saleID uuid.UUID) (*models.Sale, error) {
	sale := &models.Sale{}

	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1 FOR UPDATE`

	err := scanSale(tx.QueryRowContext(ctx, query, saleID), sale)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrInvalidSaleState
		}
		return nil, fmt.Errorf("lock sale: %w", err)
	}

	if sale.Status != models.SaleStatusPending {
		return nil, database.ErrInvalidSaleState
	}

	return sale, nil
}

// recalculateTotal rewrites the sale total from its line items at the
// products' current prices and returns the updated sale row.
func recalculateTotal(ctx context.Context, tx *sql.Tx, saleID uuid.UUID) (*models.Sale, error) {
	sale := &models.Sale{}

	query := `
		UPDATE sales
		SET total = (
		        SELECT COALESCE(SUM(si.quantity * p.price), 0)
		        FROM sale_items si
		        JOIN products p ON p.id = si.product_id
		        WHERE si.sale_id = $1
		    ),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + saleColumns

	if err := scanSale(tx.QueryRowContext(ctx, query, saleID), sale); err != nil {
		return nil, fmt.Errorf("update sale total: %w", err)
	}

	return sale, nil
}

// captureItemPrices freezes the current product price on every line of a
// sale that is about to leave PENDING.
func captureItemPrices(ctx context.Context, tx *sql.Tx, saleID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE sale_items si
		 SET unit_price = p.price, updated_at = NOW()
		 FROM products p
		 WHERE p.id = si.product_id AND si.sale_id = $1`,
		saleID)
	if err != nil {
		return fmt.Errorf("capture item prices: %w", err)
	}
	return nil
}

// AddItemByBarcode adds one unit of the product scanned as barcode to a
// pending sale. Rescanning a product already in the cart increments its
// line instead of adding a second one; Created tells the two cases apart.
func AddItemByBarcode(ctx context.Context, db *sql.DB, opts database.TxOptions, saleID uuid.UUID, barcode string) (*models.LineItemResult, error) {
	var result *models.LineItemResult

	err := database.WithRetry(ctx, db, opts, func(tx *sql.Tx) error {
		if _, err := lockPendingSale(ctx, tx, saleID); err != nil {
			return err
		}

		product, err := FindActiveProductByBarcode(ctx, tx, barcode)
		if err != nil {
			return err
		}

		var itemID uuid.UUID
		var created bool
		err = tx.QueryRowContext(ctx,
			`INSERT INTO sale_items (id, sale_id, product_id, quantity, created_at, updated_at)
			 VALUES ($1, $2, $3, 1, NOW(), NOW())
			 ON CONFLICT ON CONSTRAINT sale_items_sale_product_key
			 DO UPDATE SET quantity = sale_items.quantity + 1,
			               updated_at = NOW()
			 RETURNING id, (xmax = 0)`,
			uuid.New(), saleID, product.ID).Scan(&itemID, &created)
		if err != nil {
			return fmt.Errorf("upsert sale item: %w", err)
		}

		sale, err := recalculateTotal(ctx, tx, saleID)
		if err != nil {
			return err
		}

		item, err := getSaleItem(ctx, tx, saleID, itemID)
		if err != nil {
			return err
		}

		result = &models.LineItemResult{Item: *item, Sale: *sale, Created: created}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// SetItemQuantity replaces the quantity of a line item. Quantities below
// one are rejected; RemoveItem is the only way to drop a line.
func SetItemQuantity(ctx context.Context, db *sql.DB, opts database.TxOptions, saleID, itemID uuid.UUID, quantity int) (*models.LineItemResult, error) {
	var result *models.LineItemResult

	err := database.WithRetry(ctx, db, opts, func(tx *sql.Tx) error {
		if _, err := lockPendingSale(ctx, tx, saleID); err != nil {
			return err
		}

		if quantity < 1 {
			return database.ErrInvalidQuantity
		}
		if quantity > models.MaxQuantity {
			return database.ErrValueOutOfRange
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE sale_items
			 SET quantity = $1, updated_at = NOW()
			 WHERE id = $2 AND sale_id = $3`,
			quantity, itemID, saleID)
		if err != nil {
			return fmt.Errorf("update sale item: %w", err)
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return database.ErrLineItemNotFound
		}

		sale, err := recalculateTotal(ctx, tx, saleID)
		if err != nil {
			return err
		}

		item, err := getSaleItem(ctx, tx, saleID, itemID)
		if err != nil {
			return err
		}

		result = &models.LineItemResult{Item: *item, Sale: *sale}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// RemoveItem deletes a line item from a pending sale and returns the sale
// with its new total and remaining items.
func RemoveItem(ctx context.Context, db *sql.DB, opts database.TxOptions, saleID, itemID uuid.UUID) (*models.Sale, error) {
	var sale *models.Sale

	err := database.WithRetry(ctx, db, opts, func(tx *sql.Tx) error {
		if _, err := lockPendingSale(ctx, tx, saleID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM sale_items WHERE id = $1 AND sale_id = $2`,
			itemID, saleID)
		if err != nil {
			return fmt.Errorf("delete sale item: %w", err)
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return database.ErrLineItemNotFound
		}

		updated, err := recalculateTotal(ctx, tx, saleID)
		if err != nil {
			return err
		}

		items, err := listSaleItems(ctx, tx, saleID)
		if err != nil {
			return err
		}
		updated.Items = items

		sale = updated
		return nil
	})

	if err != nil {
		return nil, err
	}

	return sale, nil
}

// FinalizeSale records the payment and concludes a pending sale. The total
// is recomputed one last time, each line's unit price is frozen, and the
// sale becomes immutable. Finalizing twice fails with ErrInvalidSaleState.
func FinalizeSale(ctx context.Context, db *sql.DB, opts database.TxOptions, saleID uuid.UUID, method models.PaymentMethod, amountReceived decimal.Decimal) (*models.Sale, error) {
	var sale *models.Sale

	err := database.WithRetry(ctx, db, opts, func(tx *sql.Tx) error {
		if _, err := lockPendingSale(ctx, tx, saleID); err != nil {
			return err
		}

		if !method.Valid() {
			return database.ErrInvalidPaymentMethod
		}
		if !amountReceived.Equal(amountReceived.Round(2)) {
			return database.ErrInvalidAmount
		}
		if amountReceived.GreaterThan(models.MaxMoney) {
			return database.ErrValueOutOfRange
		}

		current, err := recalculateTotal(ctx, tx, saleID)
		if err != nil {
			return err
		}

		if amountReceived.IsNegative() || amountReceived.LessThan(current.Total) {
			return database.ErrInsufficientAmount
		}
		change := amountReceived.Sub(current.Total)

		if err := captureItemPrices(ctx, tx, saleID); err != nil {
			return err
		}

		concluded := &models.Sale{}
		err = scanSale(tx.QueryRowContext(ctx,
			`UPDATE sales
			 SET status = $1,
			     payment_method = $2,
			     amount_received = $3,
			     change_amount = $4,
			     concluded_at = NOW(),
			     updated_at = NOW()
			 WHERE id = $5
			 RETURNING `+saleColumns,
			models.SaleStatusConcluded, method, amountReceived, change, saleID), concluded)
		if err != nil {
			return fmt.Errorf("conclude sale: %w", err)
		}

		items, err := listSaleItems(ctx, tx, saleID)
		if err != nil {
			return err
		}
		concluded.Items = items

		sale = concluded
		return nil
	})

	if err != nil {
		return nil, err
	}

	return sale, nil
}

// CancelSale abandons a pending sale. Its items are kept for reporting at
// the prices in effect when it was cancelled.
func CancelSale(ctx context.Context, db *sql.DB, opts database.TxOptions, saleID uuid.UUID) (*models.Sale, error) {
	var sale *models.Sale

	err := database.WithRetry(ctx, db, opts, func(tx *sql.Tx) error {
		if _, err := lockPendingSale(ctx, tx, saleID); err != nil {
			return err
		}

		if _, err := recalculateTotal(ctx, tx, saleID); err != nil {
			return err
		}
		if err := captureItemPrices(ctx, tx, saleID); err != nil {
			return err
		}

		cancelled := &models.Sale{}
		err := scanSale(tx.QueryRowContext(ctx,
			`UPDATE sales
			 SET status = $1, updated_at = NOW()
			 WHERE id = $2
			 RETURNING `+saleColumns,
			models.SaleStatusCancelled, saleID), cancelled)
		if err != nil {
			return fmt.Errorf("cancel sale: %w", err)
		}

		items, err := listSaleItems(ctx, tx, saleID)
		if err != nil {
			return err
		}
		cancelled.Items = items

		sale = cancelled
		return nil
	})

	if err != nil {
		return nil, err
	}

	return sale, nil
}
