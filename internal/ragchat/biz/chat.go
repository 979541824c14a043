package biz

import (
	"context"
	stderrors "errors"
	"net"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/rag-chat/internal/pkg/redact"
	"github.com/kart-io/rag-chat/internal/ragchat/cache"
	"github.com/kart-io/rag-chat/internal/ragchat/store"
	"github.com/kart-io/rag-chat/pkg/llm"
	"github.com/kart-io/rag-chat/pkg/tracing"
	apierrors "github.com/kart-io/rag-chat/pkg/utils/errors"
	"github.com/kart-io/rag-chat/pkg/utils/httpclient"
	"github.com/kart-io/rag-chat/pkg/utils/json"
)

// tracerName 标识 biz 包产生的追踪 span。
const tracerName = "ragchat/biz"

// llmStage 标记供应商错误发生的流水线阶段，决定映射到哪条错误信息。
type llmStage int

const (
	stageEmbedding llmStage = iota
	stageGeneration
)

// Chat 执行检索增强问答：缓存查找 → 查询向量化 → 相似度检索 →
// 提示词组装 → 答案生成 → 写回缓存。
func (s *ragService) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	req.normalize()

	ctx, span := tracing.StartSpan(ctx, tracerName, "Chat")
	defer span.End()
	tracing.AddSpanAttributes(ctx,
		tracing.String(tracing.LLMProvider, req.LLMProvider),
		tracing.String(tracing.VectorStoreType, req.VectorDBType),
		tracing.Int(tracing.RetrievalTopK, s.cfg.TopK),
	)

	key := cache.Key{
		Query:            req.Query,
		Provider:         req.LLMProvider,
		Model:            req.ModelName,
		StoreType:        req.VectorDBType,
		Index:            req.IndexName,
		CredentialDigest: cache.CredentialDigest(req.APIKey, req.VectorDBAPIKey, req.VectorDBURL),
	}

	// 1. 缓存查找。缓存不可用按未命中处理，不阻断主流程。
	if data, err := s.cache.Get(ctx, key); err == nil && data != nil {
		var cached ChatResponse
		if uerr := json.Unmarshal(data, &cached); uerr == nil {
			s.metrics.RecordChat(true, nil)
			tracing.AddSpanEvent(ctx, "cache.hit")
			return &cached, nil
		}
	}

	resp, err := s.answer(ctx, req)
	if err != nil {
		s.metrics.RecordChat(false, err)
		tracing.RecordError(ctx, err)
		return nil, err
	}

	// 6. 写回缓存，失败不影响响应。
	if data, merr := json.Marshal(resp); merr == nil {
		_ = s.cache.Set(ctx, key, data)
	}

	s.metrics.RecordChat(false, nil)
	tracing.SetSpanOK(ctx)
	return resp, nil
}

// answer 执行缓存未命中时的完整流水线。
func (s *ragService) answer(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	// 2. 查询向量化。
	embedder, err := s.newEmbedder(req.LLMProvider, s.chatLLMConfig(req))
	if err != nil {
		return nil, classifyProviderError(err, stageEmbedding, req.LLMProvider)
	}

	embedStart := time.Now()
	queryVector, err := embedder.EmbedSingle(ctx, req.Query)
	s.metrics.RecordEmbedding(time.Since(embedStart), err)
	if err != nil {
		return nil, classifyLLMError(err, req.APIKey)
	}

	// 3. 相似度检索。store.Open 与 Search 的失败已映射为分类错误，
	// 其中的上游文本均已洗脱凭证。
	vs, err := s.openStore(ctx, store.Config{
		Type:    req.VectorDBType,
		URL:     req.VectorDBURL,
		APIKey:  req.VectorDBAPIKey,
		Timeout: s.cfg.UpstreamTimeout,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := vs.Close(ctx); cerr != nil {
			logger.Warnw("failed to close vector store", "error", cerr.Error())
		}
	}()

	searchStart := time.Now()
	results, err := vs.Search(ctx, req.IndexName, queryVector, s.cfg.TopK)
	s.metrics.RecordSearch(time.Since(searchStart), err)
	if err != nil {
		return nil, err
	}

	// 4. 组装提示词并生成答案。检索为空时上下文为空，仍然生成。
	chatProvider, err := s.newChat(req.LLMProvider, s.chatLLMConfig(req))
	if err != nil {
		return nil, classifyProviderError(err, stageGeneration, req.LLMProvider)
	}

	prompt := buildPrompt(req.Query, results)
	llmStart := time.Now()
	resp, err := chatProvider.Generate(ctx, prompt, systemMessage)
	promptTokens, completionTokens := tokenCounts(resp)
	s.metrics.RecordLLMCall(time.Since(llmStart), promptTokens, completionTokens, err)
	if err != nil {
		return nil, classifyLLMError(err, req.APIKey)
	}

	// 5. 引用列表覆盖全部 top-k 结果。
	return &ChatResponse{
		Response: resp.Content,
		Sources:  buildSources(results),
	}, nil
}

// chatLLMConfig 组装传给供应商工厂的配置。凭证只进入这个按请求
// 构造、用后即弃的 map。
//
// 嵌入模型只对 openai 显式指定：其对话模型与嵌入模型命名空间不同，
// 不指定会落到错误的缺省值。其余供应商（如 ollama）使用各自的
// 嵌入模型缺省值，强行传 openai 的模型名只会得到 model not found。
func (s *ragService) chatLLMConfig(req *ChatRequest) map[string]any {
	cfg := map[string]any{
		"api_key":     req.APIKey,
		"chat_model":  req.ModelName,
		"timeout":     s.cfg.UpstreamTimeout,
		"temperature": generationTemperature,
		"max_tokens":  generationMaxTokens,
	}
	if req.LLMProvider == "openai" {
		cfg["embed_model"] = defaultEmbeddingModel
	}
	return cfg
}

// tokenCounts 提取生成结果的 token 用量，缺失时为 0。
func tokenCounts(resp *llm.GenerateResponse) (prompt, completion int) {
	if resp == nil || resp.TokenUsage == nil {
		return 0, 0
	}
	return resp.TokenUsage.PromptTokens, resp.TokenUsage.CompletionTokens
}

// classifyProviderError 将供应商构造失败映射为请求参数错误。
func classifyProviderError(err error, stage llmStage, provider string) error {
	if stderrors.Is(err, llm.ErrProviderNotFound) {
		if stage == stageEmbedding {
			return apierrors.ErrEmbeddingProviderNotSupported.
				WithMessagef("Embedding provider '%s' not supported yet", provider).
				WithCause(err)
		}
		return apierrors.ErrLLMProviderNotSupported.
			WithMessagef("LLM provider '%s' not supported yet", provider).
			WithCause(err)
	}

	// 其余构造错误来自本地配置检查，错误文本不含上游内容。
	return apierrors.ErrInvalidParam.
		WithMessagef("Invalid provider configuration: %v", err).
		WithCause(err)
}

// classifyLLMError 将 LLM 调用失败映射到错误分类。任何进入错误信息
// 的上游文本都先洗脱请求凭证。
func classifyLLMError(err error, secrets ...string) error {
	if err == nil {
		return nil
	}

	var e *apierrors.Errno
	if stderrors.As(err, &e) {
		return err
	}

	var statusErr *httpclient.StatusError
	if stderrors.As(err, &statusErr) {
		// OpenAI 的 401 响应体会回显提交的 API Key。进入错误链的
		// 上游文本一律先洗脱，日志打印整条错误也不会泄露凭证。
		cause := stderrors.New(redact.Scrub(err.Error(), secrets...))
		switch {
		case statusErr.StatusCode == 401 || statusErr.StatusCode == 403:
			return apierrors.ErrLLMAuthFailed.WithCause(cause)
		case statusErr.StatusCode == 429 || statusErr.StatusCode >= 500:
			return apierrors.ErrLLMUnavailable.WithCause(cause)
		default:
			detail := redact.Scrub(strings.TrimSpace(statusErr.Body), secrets...)
			if len(detail) > 256 {
				detail = detail[:256] + "..."
			}
			return apierrors.ErrInvalidParam.
				WithMessagef("LLM request failed: %s", detail).
				WithCause(cause)
		}
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return apierrors.ErrUpstreamTimeout.WithCause(err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return apierrors.ErrUpstreamTimeout.WithCause(err)
	}

	return apierrors.ErrLLMUnavailable.WithCause(err)
}
