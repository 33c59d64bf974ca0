package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64     `json:"id"`
	Email     *string   `json:"email,omitempty"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

type Product struct {
	ID        uuid.UUID       `json:"id"`
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Active    bool            `json:"active"`
	CreatedBy *int64          `json:"created_by,omitempty"`
	UpdatedBy *int64          `json:"updated_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Version   int             `json:"version"`
}

type Sale struct {
	ID             uuid.UUID       `json:"id"`
	SellerID       int64           `json:"seller_id"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	Total          decimal.Decimal `json:"total"`
	AmountReceived decimal.Decimal `json:"amount_received"`
	Change         decimal.Decimal `json:"change"`
	Status         SaleStatus      `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	ConcludedAt    *time.Time      `json:"concluded_at,omitempty"`
	Items          []SaleItem      `json:"items,omitempty"`
}

// SaleItem is one product line of a sale. UnitPrice and Subtotal are the
// live product price while the sale is pending and the price captured at
// checkout once it is concluded.
type SaleItem struct {
	ID          uuid.UUID       `json:"id"`
	SaleID      uuid.UUID       `json:"sale_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Barcode     string          `json:"barcode,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LineItemResult is returned by every cart mutation that touches a line
// item. Sale carries the authoritative total after the mutation.
type LineItemResult struct {
	Item    SaleItem `json:"item"`
	Sale    Sale     `json:"sale"`
	Created bool     `json:"created"`
}

type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusConcluded SaleStatus = "CONCLUDED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

func (s SaleStatus) Valid() bool {
	switch s {
	case SaleStatusPending, SaleStatusConcluded, SaleStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "CASH"
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodCreditCard
}

const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleUser       = "USER"
)

// Column limits: quantities are INT, money is NUMERIC(12,2).
const MaxQuantity = math.MaxInt32

var MaxMoney = decimal.RequireFromString("9999999999.99")

// NormalizeBarcode returns the canonical form used to compare barcodes.
// Scanners disagree on casing and often pad the value with whitespace.
func NormalizeBarcode(barcode string) string {
	return strings.ToLower(strings.TrimSpace(barcode))
}
