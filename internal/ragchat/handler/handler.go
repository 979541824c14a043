// Package handler provides HTTP handlers for the rag-chat API.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/rag-chat/internal/ragchat/biz"
	"github.com/kart-io/rag-chat/pkg/utils/errors"
	"github.com/kart-io/rag-chat/pkg/utils/validator"
)

// Handler handles rag-chat HTTP requests.
type Handler struct {
	svc biz.Service
}

// New creates a new Handler.
func New(svc biz.Service) *Handler {
	return &Handler{svc: svc}
}

// bind decodes the JSON body into obj and validates it with the global
// validator. Decode and validation failures both map to 400; the returned
// message names the offending field, never its value.
func bind(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return errors.ErrBadRequest.WithMessage("invalid request body: " + err.Error())
	}
	if err := validator.Struct(obj); err != nil {
		return errors.ErrValidationFailed.WithMessage(err.Error())
	}
	return nil
}
