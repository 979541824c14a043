// Package middleware provides the gin middleware chain for the rag-chat HTTP server.
//
// The chain is applied in a fixed order:
//   - Recovery: panic recovery with a JSON error response
//   - RequestID: assigns a ULID request ID to each request
//   - Logger: structured request logging
//   - CORS: cross-origin support for the demo frontend
//   - Timeout: request deadline propagation
//
// None of the middleware inspects request bodies: chat and ingest payloads
// carry caller credentials, so only method, path, status and timing metadata
// are ever observed here.
package middleware

import "context"

// HeaderXRequestID is the header carrying the request ID.
const HeaderXRequestID = "X-Request-ID"

type requestIDKey struct{}

// GetRequestID returns the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}
