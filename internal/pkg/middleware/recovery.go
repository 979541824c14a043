package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/rag-chat/internal/pkg/httputils"
	"github.com/kart-io/rag-chat/pkg/utils/errors"
)

// Recovery returns a middleware that recovers from panics.
// The full stack trace always goes to the logs; the client only ever sees the
// generic internal error body, never the panic value or stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("panic recovered",
					"panic", r,
					"stack_trace", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"request_id", GetRequestID(c.Request.Context()),
				)

				httputils.WriteAbortError(c, errors.ErrPanic)
			}
		}()
		c.Next()
	}
}
