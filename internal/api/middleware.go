package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ContextKeyRequestID = "requestId"
	ContextKeyLogger    = "logger"
	ContextKeySellerID  = "sellerId"

	HeaderRequestID = "X-Request-ID"
)

var errInvalidToken = errors.New("invalid or expired token")

// RequestID propagates the caller's request id or generates one, and
// attaches a logger carrying it to the context.
func RequestID(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(ContextKeyRequestID, requestID)
		c.Set(ContextKeyLogger, logger.With("requestId", requestID))
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}

// RequestLogger logs one line per request. Health and metrics probes are
// skipped.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	skip := map[string]bool{"/health": true, "/metrics": true}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if sellerID, ok := c.Get(ContextKeySellerID); ok {
			attrs = append(attrs, "seller_id", sellerID)
		}

		log := requestLogger(c, logger)
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("http request", attrs...)
		case status >= http.StatusBadRequest:
			log.Warn("http request", attrs...)
		default:
			log.Info("http request", attrs...)
		}
	}
}

func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		requestLogger(c, logger).Error("panic recovered", "panic", fmt.Sprint(recovered), "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  CodeInternal,
		})
	})
}

// SellerClaims identifies the authenticated seller. Subject holds the
// seller's user id.
type SellerClaims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ParseSellerToken verifies an HS256 token and returns the seller id
// carried in its subject.
func ParseSellerToken(tokenString string, secret []byte) (int64, error) {
	claims := &SellerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}

	sellerID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || sellerID <= 0 {
		return 0, errInvalidToken
	}
	return sellerID, nil
}

// SignSellerToken issues a token for sellerID. Tokens are normally issued
// by the login service; this is used by tooling and tests.
func SignSellerToken(sellerID int64, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SellerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(sellerID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// RequireSeller rejects requests without a valid bearer token and stores
// the seller id in the context.
func RequireSeller(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "missing or malformed authorization header",
				Code:  CodeUnauthorized,
			})
			return
		}

		sellerID, err := ParseSellerToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: err.Error(),
				Code:  CodeUnauthorized,
			})
			return
		}

		c.Set(ContextKeySellerID, sellerID)
		c.Next()
	}
}

func sellerID(c *gin.Context) int64 {
	return c.GetInt64(ContextKeySellerID)
}
