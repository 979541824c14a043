// Package httputils provides HTTP utility functions.
package httputils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/rag-chat/pkg/utils/errors"
)

// ErrorResponse is the uniform error body for every failed request.
// Detail carries the human-readable message and must never contain
// credential material supplied by the caller.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// WriteResponse writes the response to the client.
// Errors are mapped through the Errno registry onto an ErrorResponse with the
// Errno's HTTP status; success payloads are serialized as-is with 200.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// WriteError writes an error response. Non-Errno errors are reported as a
// generic internal error so arbitrary error text never reaches the client.
func WriteError(c *gin.Context, err error) {
	errno := errors.FromError(err)
	c.JSON(errno.HTTPStatus(), ErrorResponse{Detail: errno.MessageEN})
}

// WriteAbortError writes an error response and aborts the handler chain.
// Used by middleware that must stop request processing.
func WriteAbortError(c *gin.Context, err error) {
	errno := errors.FromError(err)
	c.AbortWithStatusJSON(errno.HTTPStatus(), ErrorResponse{Detail: errno.MessageEN})
}
