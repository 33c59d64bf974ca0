package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safar/pos-store/internal/models"
	"github.com/safar/pos-store/internal/store"
	"github.com/shopspring/decimal"
)

type ScanItemRequest struct {
	Barcode string `json:"barcode" binding:"required,barcode"`
}

type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,max=2147483647"`
}

type CheckoutRequest struct {
	PaymentMethod  string           `json:"paymentMethod" binding:"required"`
	AmountReceived *decimal.Decimal `json:"amountReceived" binding:"required,max=9999999999.99"`
}

type listSalesQuery struct {
	Status   string `form:"status" binding:"sale_status"`
	SellerID *int64 `form:"sellerId" binding:"omitempty,min=1"`
	From     string `form:"from"`
	To       string `form:"to"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

type historyQuery struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (h *Handler) CreateSale(c *gin.Context) {
	sale, err := h.store.CreateSale(c.Request.Context(), sellerID(c))
	if err != nil {
		h.respondError(c, opCreateSale, err)
		return
	}

	requestLogger(c, h.logger).Info("sale opened", "sale_id", sale.ID)
	c.JSON(http.StatusCreated, sale)
}

func (h *Handler) GetSale(c *gin.Context) {
	saleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.store.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.respondError(c, opGetSale, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *Handler) CurrentSale(c *gin.Context) {
	sale, err := h.store.CurrentSale(c.Request.Context(), sellerID(c))
	if err != nil {
		h.respondError(c, opCurrentSale, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *Handler) ListSales(c *gin.Context) {
	var q listSalesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidationError(c, err)
		return
	}

	filter := store.SaleFilter{
		Status:   models.SaleStatus(q.Status),
		SellerID: q.SellerID,
	}

	var err error
	if filter.From, err = parseTimeBound(q.From, false); err != nil {
		respondValidationError(c, fmt.Errorf("from: %w", err))
		return
	}
	if filter.To, err = parseTimeBound(q.To, true); err != nil {
		respondValidationError(c, fmt.Errorf("to: %w", err))
		return
	}

	page, err := h.store.ListSales(c.Request.Context(), filter, q.Page, q.PageSize)
	if err != nil {
		h.respondError(c, opListSales, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) SaleHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidationError(c, err)
		return
	}

	if _, err := store.DecodeCursor(q.Cursor); err != nil {
		respondValidationError(c, err)
		return
	}

	page, err := h.store.ListSellerSales(c.Request.Context(), sellerID(c), q.Cursor, q.Limit)
	if err != nil {
		h.respondError(c, opSaleHistory, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) ScanItem(c *gin.Context) {
	saleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ScanItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.store.AddItemByBarcode(c.Request.Context(), saleID, req.Barcode)
	h.recordCart(opScan, err)
	if err != nil {
		h.respondError(c, opScan, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

func (h *Handler) SetItemQuantity(c *gin.Context) {
	saleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseUUIDParam(c, "itemId")
	if !ok {
		return
	}

	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.store.SetItemQuantity(c.Request.Context(), saleID, itemID, *req.Quantity)
	h.recordCart(opSetQuantity, err)
	if err != nil {
		h.respondError(c, opSetQuantity, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	saleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseUUIDParam(c, "itemId")
	if !ok {
		return
	}

	sale, err := h.store.RemoveItem(c.Request.Context(), saleID, itemID)
	h.recordCart(opRemoveItem, err)
	if err != nil {
		h.respondError(c, opRemoveItem, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *Handler) Checkout(c *gin.Context) {
	saleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	method := models.PaymentMethod(req.PaymentMethod)
	sale, err := h.store.FinalizeSale(c.Request.Context(), saleID, method, *req.AmountReceived)
	h.recordCart(opCheckout, err)
	if err != nil {
		h.respondError(c, opCheckout, err)
		return
	}

	h.metrics.RecordSaleFinalized(string(sale.PaymentMethod), sale.Total.InexactFloat64())
	requestLogger(c, h.logger).Info("sale concluded",
		"sale_id", sale.ID,
		"payment_method", sale.PaymentMethod,
		"total", sale.Total.StringFixed(2),
		"change", sale.Change.StringFixed(2),
	)
	c.JSON(http.StatusOK, sale)
}

func (h *Handler) CancelSale(c *gin.Context) {
	saleID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.store.CancelSale(c.Request.Context(), saleID)
	h.recordCart(opCancel, err)
	if err != nil {
		h.respondError(c, opCancel, err)
		return
	}

	requestLogger(c, h.logger).Info("sale cancelled", "sale_id", sale.ID)
	c.JSON(http.StatusOK, sale)
}

// parseTimeBound accepts RFC 3339 timestamps or plain dates. A plain date
// used as an upper bound covers the whole day.
func parseTimeBound(value string, upper bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}

	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, errors.New("expected RFC 3339 timestamp or YYYY-MM-DD date")
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
