package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/rag-chat/internal/pkg/httputils"
	"github.com/kart-io/rag-chat/pkg/utils/errors"
)

// Timeout returns a middleware that attaches a deadline to the request context.
// Downstream calls (embedding, vector search, LLM) all honor the context, so a
// blown deadline surfaces as a classified timeout error from the handler. Only
// when the handler returns without having written anything does the middleware
// answer 504 itself. Handlers run on the request goroutine throughout, so
// there is never a second writer racing the response.
//
// Paths with a prefix in skipPrefixes bypass the deadline.
func Timeout(timeout time.Duration, skipPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 || skipped(c.Request.URL.Path, skipPrefixes) {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			httputils.WriteAbortError(c, errors.ErrGatewayTimeout)
		}
	}
}

func skipped(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
