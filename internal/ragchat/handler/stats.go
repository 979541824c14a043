package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/rag-chat/internal/ragchat/metrics"
)

// Stats godoc
//
//	@Summary	运行指标快照
//	@Description	进程内计数器：问答/摄取次数、缓存命中、各阶段耗时与 token 用量。
//	@Tags		meta
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Router		/api/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.GetMetrics().Stats())
}
