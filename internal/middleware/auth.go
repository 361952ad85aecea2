package middleware

import (
	"crypto/subtle"
	"net/http"

	"solarnotify/internal/common"

	"github.com/gin-gonic/gin"
)

const adminIDContextKey = "adminID"

// Auth returns middleware that validates the X-API-Key header against
// configured keys and extracts the acting admin identity from X-Admin-ID.
// Every write in this API is attributed to an admin, so a request without
// an identity is rejected here rather than defaulted downstream.
func Auth(validKeys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			common.Error(c, http.StatusUnauthorized, "missing X-API-Key header")
			c.Abort()
			return
		}

		if !isValidKey(apiKey, validKeys) {
			common.Error(c, http.StatusUnauthorized, "invalid API key")
			c.Abort()
			return
		}

		adminID := c.GetHeader("X-Admin-ID")
		if adminID == "" {
			common.Error(c, http.StatusUnauthorized, "missing X-Admin-ID header")
			c.Abort()
			return
		}
		c.Set(adminIDContextKey, adminID)

		c.Next()
	}
}

// AdminID returns the authenticated acting admin id, or "" when the request
// did not pass through Auth.
func AdminID(c *gin.Context) string {
	return c.GetString(adminIDContextKey)
}

// isValidKey checks the provided key against the list of valid keys using
// constant-time comparison.
func isValidKey(key string, validKeys []string) bool {
	for _, valid := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			return true
		}
	}
	return false
}
