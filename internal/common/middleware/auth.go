package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/bewie03/epok/internal/common/errors"
)

const AdminKeyHeader = "X-Admin-Key"

// RequireSharedSecret rejects requests whose header does not carry the secret.
// An empty secret rejects everything.
func RequireSharedSecret(header, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !secretMatches(c.GetHeader(header), secret) {
			sendErrorResponse(c, errors.NewUnauthorizedError("invalid webhook secret"))
			return
		}
		c.Next()
	}
}

// RequireAdmin guards administrative endpoints with the admin api key.
func RequireAdmin(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !secretMatches(c.GetHeader(AdminKeyHeader), apiKey) {
			sendErrorResponse(c, errors.NewUnauthorizedError("admin access required"))
			return
		}
		c.Next()
	}
}

func secretMatches(got, want string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
