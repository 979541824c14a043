package biz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"

	"github.com/kart-io/rag-chat/internal/pkg/redact"
	"github.com/kart-io/rag-chat/internal/ragchat/source"
	"github.com/kart-io/rag-chat/internal/ragchat/store"
	"github.com/kart-io/rag-chat/pkg/llm"
	"github.com/kart-io/rag-chat/pkg/tracing"
)

// Ingest 执行数据摄取：读取源记录 → 展平 → 并发嵌入 → 批量写入
// 向量库。单条记录的嵌入失败只会被跳过；批量写入失败则整体报错，
// 不报告部分成功。
func (s *ragService) Ingest(ctx context.Context, req *IngestRequest) (*IngestResponse, error) {
	req.normalize()

	ctx, span := tracing.StartSpan(ctx, tracerName, "Ingest")
	defer span.End()
	tracing.AddSpanAttributes(ctx,
		tracing.String(tracing.DBSystem, req.DataSourceType),
		tracing.String(tracing.VectorStoreType, req.VectorDBType),
		tracing.String(tracing.EmbeddingModel, req.EmbeddingModel),
	)

	// 1. 读取源记录。连接按请求建立，读完即关。
	fetcher, err := s.openSource(ctx, req.DataSourceType, req.ConnectionURI)
	if err != nil {
		return nil, s.failIngest(ctx, err)
	}

	records, err := fetcher.Fetch(ctx, source.FetchSpec{
		Collection: req.CollectionTableName,
		Filter:     req.FilterQuery,
		Limit:      req.Limit,
	})
	if cerr := fetcher.Close(ctx); cerr != nil {
		logger.Warnw("failed to close data source", "error", cerr.Error())
	}
	if err != nil {
		return nil, s.failIngest(ctx, err)
	}

	if len(records) == 0 {
		s.metrics.RecordIngest(0, 0, 0, nil)
		return &IngestResponse{
			Status:  StatusFailure,
			Message: "No documents found with the specified criteria",
		}, nil
	}

	// 2+3. 展平并嵌入。摄取阶段的嵌入固定走 OpenAI。
	embedder, err := s.newEmbedder(defaultLLMProvider, s.ingestLLMConfig(req))
	if err != nil {
		return nil, s.failIngest(ctx, classifyProviderError(err, stageEmbedding, defaultLLMProvider))
	}

	vectors, skipped := s.embedRecords(ctx, embedder, records, req.OpenAIAPIKey)

	// 4. 单批写入全部成功的向量。
	processed := len(records)
	created := 0
	if len(vectors) > 0 {
		vs, err := s.openStore(ctx, store.Config{
			Type:    req.VectorDBType,
			URL:     req.VectorDBURL,
			APIKey:  req.VectorDBAPIKey,
			Timeout: s.cfg.UpstreamTimeout,
		})
		if err != nil {
			return nil, s.failIngest(ctx, err)
		}

		created, err = vs.Upsert(ctx, req.CollectionName, vectors)
		if cerr := vs.Close(ctx); cerr != nil {
			logger.Warnw("failed to close vector store", "error", cerr.Error())
		}
		if err != nil {
			return nil, s.failIngest(ctx, err)
		}
		// 上游计数不可信时兜底，保证 vectors_created ≤ documents_processed。
		if created > len(vectors) {
			created = len(vectors)
		}
	}

	// 5. 计数与状态。
	resp := buildIngestResponse(processed, created, skipped)
	s.metrics.RecordIngest(processed, created, skipped, nil)
	tracing.SetSpanOK(ctx)

	logger.Infow("ingestion finished",
		"status", resp.Status,
		"documents_processed", processed,
		"vectors_created", created,
		"records_skipped", skipped,
	)
	return resp, nil
}

// failIngest 记录失败指标与 span 错误后原样返回错误。
func (s *ragService) failIngest(ctx context.Context, err error) error {
	s.metrics.RecordIngest(0, 0, 0, err)
	tracing.RecordError(ctx, err)
	return err
}

// ingestLLMConfig 组装嵌入供应商配置。凭证只进入这个按请求构造的 map。
func (s *ragService) ingestLLMConfig(req *IngestRequest) map[string]any {
	return map[string]any{
		"api_key":     req.OpenAIAPIKey,
		"embed_model": req.EmbeddingModel,
		"timeout":     s.cfg.UpstreamTimeout,
	}
}

// embedRecords 并发展平并嵌入记录。单条失败仅记录日志并跳过，不中断
// 批次。返回的向量保持记录顺序；ID 与负载中的 doc_index 都对应源记录
// 下标，跳过会留下空洞，因此重复摄取总是覆盖同一批 ID。
func (s *ragService) embedRecords(ctx context.Context, embedder llm.EmbeddingProvider, records []map[string]any, secrets ...string) ([]store.Vector, int) {
	type embedded struct {
		text string
		vec  []float32
		ok   bool
	}
	items := make([]embedded, len(records))

	pool, poolErr := ants.NewPool(s.cfg.EmbedWorkers)
	if poolErr != nil {
		logger.Warnw("embedding pool unavailable, running sequentially", "error", poolErr.Error())
	} else {
		defer pool.Release()
	}

	var wg sync.WaitGroup
	for i := range records {
		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()

			text, err := source.FlattenRecord(records[i])
			if err != nil {
				logger.Warnw("failed to flatten record, skipping",
					"doc_index", i,
					"error", redact.Scrub(err.Error(), secrets...),
				)
				return
			}

			start := time.Now()
			vec, err := embedder.EmbedSingle(ctx, text)
			s.metrics.RecordEmbedding(time.Since(start), err)
			if err != nil {
				logger.Warnw("failed to embed record, skipping",
					"doc_index", i,
					"error", redact.Scrub(err.Error(), secrets...),
				)
				return
			}
			items[i] = embedded{text: text, vec: vec, ok: true}
		}

		if pool == nil || pool.Submit(task) != nil {
			// 池不可用时降级为同步执行
			task()
		}
	}
	wg.Wait()

	vectors := make([]store.Vector, 0, len(records))
	skipped := 0
	for i := range items {
		if !items[i].ok {
			skipped++
			continue
		}
		vectors = append(vectors, store.Vector{
			ID:     fmt.Sprintf("doc_%d", i),
			Values: items[i].vec,
			Payload: map[string]any{
				"text": items[i].text,
				"metadata": map[string]any{
					"source":          "ingestion",
					"doc_index":       i,
					"content_preview": source.ContentPreview(items[i].text, contentPreviewLen),
				},
			},
		})
	}
	return vectors, skipped
}

// buildIngestResponse 根据计数推导状态与消息。
func buildIngestResponse(processed, created, skipped int) *IngestResponse {
	resp := &IngestResponse{
		DocumentsProcessed: processed,
		VectorsCreated:     created,
	}

	switch {
	case created == processed:
		resp.Status = StatusSuccess
		resp.Message = fmt.Sprintf("Successfully ingested %d documents and created %d vectors", processed, created)
	case created > 0:
		resp.Status = StatusPartial
		resp.Message = fmt.Sprintf("Partially ingested %d documents and created %d vectors (%d records skipped)", processed, created, skipped)
	default:
		resp.Status = StatusFailure
		resp.Message = fmt.Sprintf("Failed to create vectors: all %d documents were skipped", processed)
	}
	return resp
}
