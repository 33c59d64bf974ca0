package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/safar/pos-store/internal/database"
	"github.com/safar/pos-store/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	admin := seedSeller(t, db, "Admin")

	product, err := CreateProduct(ctx, db, CreateProductRequest{
		Barcode: " 789 ",
		Name:    " Sugar ",
		Price:   dec("3.49"),
	}, &admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "789", product.Barcode)
	assert.Equal(t, "Sugar", product.Name)
	assert.True(t, product.Active)
	assert.Equal(t, 1, product.Version)
	require.NotNil(t, product.CreatedBy)
	assert.Equal(t, admin.ID, *product.CreatedBy)

	_, err = CreateProduct(ctx, db, CreateProductRequest{Barcode: "789", Name: "Other", Price: dec("1")}, nil)
	assert.ErrorIs(t, err, database.ErrDuplicateBarcode)

	missing := int64(999999)
	_, err = CreateProduct(ctx, db, CreateProductRequest{Barcode: "790", Name: "Salt", Price: dec("1")}, &missing)
	assert.ErrorIs(t, err, database.ErrUserNotFound)

	invalid := []CreateProductRequest{
		{Barcode: "", Name: "x", Price: dec("1")},
		{Barcode: "1", Name: " ", Price: dec("1")},
		{Barcode: "1", Name: "x", Price: dec("-0.01")},
		{Barcode: "1", Name: "x", Price: dec("10000000000")},
	}
	for _, req := range invalid {
		_, err := CreateProduct(ctx, db, req, nil)
		assert.ErrorIs(t, err, database.ErrInvalidProduct)
	}
}

func TestDeactivatedBarcodeCanBeReused(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	old := seedProduct(t, db, "555", "Old label", "1.00")
	_, err := DeactivateProduct(ctx, db, old.ID, nil)
	require.NoError(t, err)

	_, err = DeactivateProduct(ctx, db, old.ID, nil)
	assert.ErrorIs(t, err, database.ErrProductNotFound)

	fresh := seedProduct(t, db, "555", "New label", "2.00")

	found, err := FindActiveProductByBarcode(ctx, db, "555")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, found.ID)
}

func TestUpdateProductOptimisticLock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := seedProduct(t, db, "100", "Bread", "4.00")
	seedProduct(t, db, "200", "Butter", "6.00")

	name := "Whole bread"
	updated, err := UpdateProduct(ctx, db, product.ID, UpdateProductRequest{Name: &name}, product.Version, nil)
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, product.Version+1, updated.Version)
	assert.True(t, dec("4.00").Equal(updated.Price), "price kept")

	_, err = UpdateProduct(ctx, db, product.ID, UpdateProductRequest{Name: &name}, product.Version, nil)
	assert.ErrorIs(t, err, database.ErrOptimisticLockFailed)

	taken := "200"
	_, err = UpdateProduct(ctx, db, product.ID, UpdateProductRequest{Barcode: &taken}, updated.Version, nil)
	assert.ErrorIs(t, err, database.ErrDuplicateBarcode)

	_, err = UpdateProduct(ctx, db, uuid.New(), UpdateProductRequest{Name: &name}, 1, nil)
	assert.ErrorIs(t, err, database.ErrProductNotFound)

	negative := dec("-1")
	_, err = UpdateProduct(ctx, db, product.ID, UpdateProductRequest{Price: &negative}, updated.Version, nil)
	assert.ErrorIs(t, err, database.ErrInvalidProduct)

	huge := dec("10000000000")
	_, err = UpdateProduct(ctx, db, product.ID, UpdateProductRequest{Price: &huge}, updated.Version, nil)
	assert.ErrorIs(t, err, database.ErrInvalidProduct)
}

func TestListProductsSkipsInactive(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	seedProduct(t, db, "1", "One", "1.00")
	seedProduct(t, db, "2", "Two", "2.00")
	gone := seedProduct(t, db, "3", "Three", "3.00")
	_, err := DeactivateProduct(ctx, db, gone.ID, nil)
	require.NoError(t, err)

	page, err := ListProducts(ctx, db, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.TotalPages)

	products, ok := page.Items.([]models.Product)
	require.True(t, ok)
	require.Len(t, products, 1)
	assert.NotEqual(t, gone.ID, products[0].ID)
}
