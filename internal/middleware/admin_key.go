package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ttb-planner-api/pkg/response"
)

// AdminKeyHeader carries the admin API key.
const AdminKeyHeader = "X-API-Key"

// AdminKeyVerifier checks a plaintext admin key.
type AdminKeyVerifier interface {
	VerifyAdminKey(key string) error
}

// AdminKey guards admin routes with the X-API-Key header.
func AdminKey(verifier AdminKeyVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := verifier.VerifyAdminKey(c.GetHeader(AdminKeyHeader)); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
