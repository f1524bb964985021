package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/pkg/middleware/requestid"
)

// AuditContext captures the caller's client metadata onto the request context so audit entries
// written by the services carry ip, user agent and request id.
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := models.ClientMeta{
			IP:        c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
			RequestID: requestid.Value(c),
		}
		c.Request = c.Request.WithContext(models.WithClientMeta(c.Request.Context(), meta))
		c.Next()
	}
}
