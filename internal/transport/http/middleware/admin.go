package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"gopherai-rag/internal/transport/http/response"
)

// AuthAdmin requires the configured admin bearer token. An empty token turns
// the guarded routes off entirely.
func AuthAdmin(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminToken == "" {
			response.Error(c, 403, response.CodeForbidden, "admin endpoints are disabled; set ADMIN_TOKEN")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "missing admin token")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		if subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
			response.Error(c, 401, response.CodeUnauthorized, "invalid admin token")
			c.Abort()
			return
		}
		c.Next()
	}
}
