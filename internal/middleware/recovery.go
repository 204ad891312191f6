package middleware

import (
	"github.com/gin-gonic/gin"

	"pos-backoffice/pkg/logger"
	"pos-backoffice/pkg/response"
)

// Recovery turns panics into 500 responses instead of dropped
// connections.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.GetLogger().WithField("panic", r).
					WithField("path", c.Request.URL.Path).
					Error("Recovered from panic")
				response.InternalError(c, "Internal server error", "")
				c.Abort()
			}
		}()
		c.Next()
	}
}
