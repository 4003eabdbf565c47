package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/partforge/sourcing-backend/internal/platform/ctxutil"
)

// AttachRequestContext seeds the request context with a request id and the
// actor identity injected by the upstream gateway. The engine performs no
// authentication of its own.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		requestID := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = ctxutil.WithTraceData(ctx, &ctxutil.TraceData{RequestID: requestID})

		rd := &ctxutil.RequestData{}
		if actor, err := uuid.Parse(strings.TrimSpace(c.GetHeader("X-Actor-ID"))); err == nil {
			rd.ActorID = actor
		}
		ctx = ctxutil.WithRequestData(ctx, rd)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
