package middleware

import (
	"fmt"
	"time"

	"apiscaffold/internal/utils"

	"github.com/gin-gonic/gin"
)

// Logger prints one access line per request with request_id and caller.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		var userID int64
		if p := PrincipalFrom(c); p != nil {
			userID = p.UserID
		}

		utils.LogFields(GetRequestID(c), "http", "access", map[string]any{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": fmt.Sprintf("%.3f", float64(time.Since(start).Microseconds())/1000.0),
			"ip":         c.ClientIP(),
			"user_id":    userID,
			"errors":     len(c.Errors),
		})
	}
}
