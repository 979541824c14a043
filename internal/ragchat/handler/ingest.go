package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/rag-chat/internal/pkg/httputils"
	"github.com/kart-io/rag-chat/internal/ragchat/biz"
)

// Ingest godoc
//
//	@Summary		数据摄取
//	@Description	从数据源读取记录，逐条向量化后写入向量库。单条失败跳过，不会中断批次。
//	@Tags			ingest
//	@Accept			json
//	@Produce		json
//	@Param			request	body		biz.IngestRequest	true	"摄取请求"
//	@Success		200		{object}	biz.IngestResponse
//	@Failure		400		{object}	httputils.ErrorResponse	"请求字段缺失或无效"
//	@Failure		401		{object}	httputils.ErrorResponse	"上游拒绝了凭证"
//	@Failure		502		{object}	httputils.ErrorResponse	"上游依赖不可用"
//	@Failure		504		{object}	httputils.ErrorResponse	"上游请求超时"
//	@Router			/api/ingest [post]
func (h *Handler) Ingest(c *gin.Context) {
	var req biz.IngestRequest
	if err := bind(c, &req); err != nil {
		httputils.WriteError(c, err)
		return
	}

	resp, err := h.svc.Ingest(c.Request.Context(), &req)
	httputils.WriteResponse(c, err, resp)
}
