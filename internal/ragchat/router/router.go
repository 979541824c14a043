// Package router provides rag-chat routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kart-io/rag-chat/internal/pkg/httputils"
	"github.com/kart-io/rag-chat/internal/ragchat/handler"
	"github.com/kart-io/rag-chat/pkg/utils/errors"
)

// Register registers the rag-chat routes on the given engine.
func Register(engine *gin.Engine, h *handler.Handler) {
	logger.Info("Registering rag-chat routes...")

	engine.GET("/", h.Root)
	engine.GET("/health", h.Health)

	api := engine.Group("/api")
	{
		api.POST("/chat", h.Chat)
		api.POST("/ingest", h.Ingest)
		api.GET("/stats", h.Stats)
	}

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 未匹配的路径也返回统一的 {"detail": ...} 错误体。
	engine.NoRoute(func(c *gin.Context) {
		httputils.WriteError(c, errors.ErrRouteNotFound)
	})

	logger.Info("HTTP routes registered")
}
