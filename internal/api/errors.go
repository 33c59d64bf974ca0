package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/safar/pos-store/internal/database"
)

const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInternal             = "INTERNAL_ERROR"
	CodeUnavailable          = "SERVICE_UNAVAILABLE"
	CodeProductNotFound      = "PRODUCT_NOT_FOUND"
	CodeAmbiguousProduct     = "AMBIGUOUS_PRODUCT"
	CodeDuplicateBarcode     = "DUPLICATE_BARCODE"
	CodeInvalidProduct       = "INVALID_PRODUCT"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeDuplicateEmail       = "DUPLICATE_EMAIL"
	CodeInvalidUser          = "INVALID_USER"
	CodeSaleNotFound         = "SALE_NOT_FOUND"
	CodeInvalidSaleState     = "INVALID_SALE_STATE"
	CodeLineItemNotFound     = "LINE_ITEM_NOT_FOUND"
	CodeInvalidQuantity      = "INVALID_QUANTITY"
	CodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	CodeInsufficientAmount   = "INSUFFICIENT_AMOUNT"
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeValueOutOfRange      = "VALUE_OUT_OF_RANGE"
	CodeVersionConflict      = "VERSION_CONFLICT"
	CodeLockTimeout          = "LOCK_TIMEOUT"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

type apiError struct {
	status int
	code   string
}

var defaultErrors = map[error]apiError{
	database.ErrProductNotFound:      {http.StatusNotFound, CodeProductNotFound},
	database.ErrAmbiguousProduct:     {http.StatusBadRequest, CodeAmbiguousProduct},
	database.ErrDuplicateBarcode:     {http.StatusConflict, CodeDuplicateBarcode},
	database.ErrInvalidProduct:       {http.StatusBadRequest, CodeInvalidProduct},
	database.ErrUserNotFound:         {http.StatusNotFound, CodeUserNotFound},
	database.ErrDuplicateEmail:       {http.StatusConflict, CodeDuplicateEmail},
	database.ErrInvalidUser:          {http.StatusBadRequest, CodeInvalidUser},
	database.ErrSaleNotFound:         {http.StatusNotFound, CodeSaleNotFound},
	database.ErrInvalidSaleState:     {http.StatusConflict, CodeInvalidSaleState},
	database.ErrLineItemNotFound:     {http.StatusNotFound, CodeLineItemNotFound},
	database.ErrInvalidQuantity:      {http.StatusBadRequest, CodeInvalidQuantity},
	database.ErrInvalidPaymentMethod: {http.StatusBadRequest, CodeInvalidPaymentMethod},
	database.ErrInsufficientAmount:   {http.StatusBadRequest, CodeInsufficientAmount},
	database.ErrInvalidAmount:        {http.StatusBadRequest, CodeInvalidAmount},
	database.ErrValueOutOfRange:      {http.StatusBadRequest, CodeValueOutOfRange},
	database.ErrOptimisticLockFailed: {http.StatusConflict, CodeVersionConflict},
	database.ErrLockTimeout:          {http.StatusServiceUnavailable, CodeLockTimeout},
}

// statusOverrides holds the operations that report a known error with a
// status other than the default. Scanning into a closed sale reads as "no
// such open sale" to the register, while item edits on it are bad requests.
var statusOverrides = map[string]map[error]int{
	opScan: {
		database.ErrInvalidSaleState: http.StatusNotFound,
	},
	opSetQuantity: {
		database.ErrInvalidSaleState: http.StatusBadRequest,
	},
	opRemoveItem: {
		database.ErrInvalidSaleState: http.StatusBadRequest,
	},
}

// classify maps err to the status and code returned for operation. Unknown
// errors become a 500 whose message is not exposed.
func classify(operation string, err error) (int, string, string) {
	for sentinel, mapped := range defaultErrors {
		if !errors.Is(err, sentinel) {
			continue
		}
		status := mapped.status
		if override, ok := statusOverrides[operation][sentinel]; ok {
			status = override
		}
		return status, mapped.code, sentinel.Error()
	}
	if database.IsOutOfRange(err) {
		return http.StatusBadRequest, CodeValueOutOfRange, database.ErrValueOutOfRange.Error()
	}
	return http.StatusInternalServerError, CodeInternal, "internal server error"
}

func (h *Handler) respondError(c *gin.Context, operation string, err error) {
	status, code, message := classify(operation, err)

	logger := requestLogger(c, h.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "operation", operation, "error", err)
	} else {
		logger.Debug("request rejected", "operation", operation, "code", code, "error", err)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}

func respondValidationError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: "invalid request", Code: CodeValidation}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			resp.Fields[fe.Field()] = fieldMessage(fe)
		}
	} else if err != nil {
		resp.Error = err.Error()
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "barcode":
		return "must be a non-blank barcode"
	case "sale_status":
		return "must be PENDING, CONCLUDED or CANCELLED"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

func requestLogger(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if v, ok := c.Get(ContextKeyLogger); ok {
		if logger, ok := v.(*slog.Logger); ok {
			return logger
		}
	}
	return fallback
}
