package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/rag-chat/pkg/tracing"
)

// Logger returns a middleware that logs HTTP requests with structured fields.
// Paths in skipPaths are not logged (health probes would otherwise flood the
// logs). Only request metadata is logged; bodies carry credentials and are
// never read here.
func Logger(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skip[path] {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		latency := time.Since(start)
		ctx := c.Request.Context()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"latency", latency.String(),
			"latency_ms", latency.Milliseconds(),
		}
		if requestID := GetRequestID(ctx); requestID != "" {
			fields = append(fields, "request_id", requestID)
		}
		if traceID := tracing.TraceIDFromContext(ctx); traceID != "" {
			fields = append(fields, "trace_id", traceID)
		}

		logger.Infow("HTTP request", fields...)
	}
}
