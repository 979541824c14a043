package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/rag-chat/pkg/utils/id"
)

// RequestID returns a middleware that adds a unique request ID to each request.
// An inbound X-Request-ID is preserved so callers can correlate retries;
// otherwise a monotonic ULID is generated. The ID is written to:
//   - the response header (X-Request-ID)
//   - the request context (retrievable with GetRequestID)
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" {
			requestID = id.NewULID()
		}

		c.Header(HeaderXRequestID, requestID)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}
