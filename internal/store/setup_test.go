package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/safar/pos-store/internal/database"
	"github.com/safar/pos-store/internal/models"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if _, err := database.RunMigrations(ctx, db, "../../migrations", database.MigrateUp); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func seedSeller(t *testing.T, db *sql.DB, name string) *models.User {
	t.Helper()

	user, err := CreateUser(context.Background(), db, CreateUserRequest{Name: name, Phone: "555-0100"})
	if err != nil {
		t.Fatalf("Create seller: %v", err)
	}
	return user
}

func seedProduct(t *testing.T, db *sql.DB, barcode, name, price string) *models.Product {
	t.Helper()

	product, err := CreateProduct(context.Background(), db, CreateProductRequest{
		Barcode: barcode,
		Name:    name,
		Price:   decimal.RequireFromString(price),
	}, nil)
	if err != nil {
		t.Fatalf("Create product %s: %v", barcode, err)
	}
	return product
}

func seedSale(t *testing.T, db *sql.DB, sellerID int64) *models.Sale {
	t.Helper()

	sale, err := CreateSale(context.Background(), db, sellerID)
	if err != nil {
		t.Fatalf("Create sale: %v", err)
	}
	return sale
}

// assertTotalConsistent checks that the stored total of a sale equals the
// sum of its line items at the products' current prices.
func assertTotalConsistent(t *testing.T, db *sql.DB, saleID uuid.UUID) {
	t.Helper()

	var total, sum decimal.Decimal
	err := db.QueryRow(`
		SELECT s.total,
		       COALESCE((SELECT SUM(si.quantity * p.price)
		                 FROM sale_items si JOIN products p ON p.id = si.product_id
		                 WHERE si.sale_id = s.id), 0)
		FROM sales s
		WHERE s.id = $1`, saleID).Scan(&total, &sum)
	if err != nil {
		t.Fatalf("Read sale total: %v", err)
	}

	if !total.Equal(sum) {
		t.Errorf("Sale total %s does not match line items %s", total, sum)
	}
}

func countSaleItems(t *testing.T, db *sql.DB, saleID uuid.UUID) int {
	t.Helper()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sale_items WHERE sale_id = $1`, saleID).Scan(&n); err != nil {
		t.Fatalf("Count sale items: %v", err)
	}
	return n
}
