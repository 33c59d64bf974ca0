package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safar/pos-store/internal/models"
	"github.com/safar/pos-store/internal/store"
)

type CreateUserRequest struct {
	Email *string `json:"email" binding:"omitempty,email"`
	Name  string  `json:"name" binding:"required,max=200"`
	Phone string  `json:"phone" binding:"omitempty,max=32"`
	Role  string  `json:"role" binding:"omitempty,oneof=SUPER_ADMIN ADMIN USER"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user, err := h.store.CreateUser(c.Request.Context(), store.CreateUserRequest{
		Email: req.Email,
		Name:  req.Name,
		Phone: req.Phone,
		Role:  role,
	})
	if err != nil {
		h.respondError(c, opCreateUser, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id", Code: CodeValidation})
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, opGetUser, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
