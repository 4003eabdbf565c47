package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partforge/sourcing-backend/internal/observability"
)

func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.IncAPIRequest(route, c.Request.Method, strconv.Itoa(c.Writer.Status()))
		m.ObserveAPILatency(route, time.Since(start))
	}
}
