package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/pos-store/internal/store"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Barcode string           `json:"barcode" binding:"required,barcode"`
	Name    string           `json:"name" binding:"required,max=200"`
	Price   *decimal.Decimal `json:"price" binding:"required,max=9999999999.99"`
}

type UpdateProductRequest struct {
	Barcode *string          `json:"barcode" binding:"omitempty,barcode"`
	Name    *string          `json:"name" binding:"omitempty,max=200"`
	Price   *decimal.Decimal `json:"price" binding:"omitempty,max=9999999999.99"`
	Version int              `json:"version" binding:"required,min=1"`
}

type pageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	createdBy := sellerID(c)
	product, err := h.store.CreateProduct(c.Request.Context(), store.CreateProductRequest{
		Barcode: req.Barcode,
		Name:    req.Name,
		Price:   req.Price.Round(2),
	}, &createdBy)
	if err != nil {
		h.respondError(c, opCreateProduct, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.store.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, opGetProduct, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) FindProductByBarcode(c *gin.Context) {
	product, err := h.store.FindProductByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.respondError(c, opProductByCode, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) ListProducts(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidationError(c, err)
		return
	}

	page, err := h.store.ListProducts(c.Request.Context(), q.Page, q.PageSize)
	if err != nil {
		h.respondError(c, opListProducts, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	var price *decimal.Decimal
	if req.Price != nil {
		rounded := req.Price.Round(2)
		price = &rounded
	}

	updatedBy := sellerID(c)
	product, err := h.store.UpdateProduct(c.Request.Context(), id, store.UpdateProductRequest{
		Barcode: req.Barcode,
		Name:    req.Name,
		Price:   price,
	}, req.Version, &updatedBy)
	if err != nil {
		h.respondError(c, opUpdateProduct, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) DeactivateProduct(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	updatedBy := sellerID(c)
	product, err := h.store.DeactivateProduct(c.Request.Context(), id, &updatedBy)
	if err != nil {
		h.respondError(c, opDeleteProduct, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
