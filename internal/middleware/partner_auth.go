package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PartnerKeyHeader carries the shared-secret credential on partner callbacks.
const PartnerKeyHeader = "X-Partner-Key"

// PartnerAuthMiddleware guards partner-facing routes with a shared secret.
// A mismatched credential aborts with 401 before any state change happens.
// The comparison is constant-time.
func PartnerAuthMiddleware(partnerSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		supplied := c.GetHeader(PartnerKeyHeader)
		if partnerSecret == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(partnerSecret)) != 1 {
			logger.Warn("Partner credential mismatch")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "kind": "unauthorized"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), partnerKeyCtxKey, true)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
