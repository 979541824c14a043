package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// apiVersion is the published API version, part of the root banner contract.
const apiVersion = "1.0.0"

// RootResponse is the service banner.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Root godoc
//
//	@Summary	服务横幅
//	@Tags		meta
//	@Produce	json
//	@Success	200	{object}	handler.RootResponse
//	@Router		/ [get]
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, RootResponse{
		Message: "RAG Chat API is running",
		Version: apiVersion,
	})
}

// Health godoc
//
//	@Summary	健康检查
//	@Tags		meta
//	@Produce	json
//	@Success	200	{object}	handler.HealthResponse
//	@Router		/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
