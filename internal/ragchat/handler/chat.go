package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/rag-chat/internal/pkg/httputils"
	"github.com/kart-io/rag-chat/internal/ragchat/biz"
)

// Chat godoc
//
//	@Summary		检索增强问答
//	@Description	向量化查询 → 相似度检索 → 组装提示词 → 生成答案。凭证随请求携带，服务端不存储。
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			request	body		biz.ChatRequest	true	"问答请求"
//	@Success		200		{object}	biz.ChatResponse
//	@Failure		400		{object}	httputils.ErrorResponse	"请求字段缺失或无效"
//	@Failure		401		{object}	httputils.ErrorResponse	"上游拒绝了凭证"
//	@Failure		502		{object}	httputils.ErrorResponse	"上游依赖不可用"
//	@Failure		504		{object}	httputils.ErrorResponse	"上游请求超时"
//	@Router			/api/chat [post]
func (h *Handler) Chat(c *gin.Context) {
	var req biz.ChatRequest
	if err := bind(c, &req); err != nil {
		httputils.WriteError(c, err)
		return
	}

	resp, err := h.svc.Chat(c.Request.Context(), &req)
	httputils.WriteResponse(c, err, resp)
}
