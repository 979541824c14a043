// Package metrics 提供 rag-chat 服务的业务指标收集。
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics rag-chat 服务业务指标。
//
// 计数器使用 atomic 操作，耗时累加使用 durationMu 保护，
// 快照通过 Stats 返回并由 GET /api/stats 暴露。
type Metrics struct {
	// 对话指标
	chatTotal   uint64 // 总对话请求次数
	chatErrors  uint64 // 对话失败次数
	cacheHits   uint64 // 缓存命中次数
	cacheMisses uint64 // 缓存未命中次数

	// 嵌入阶段指标
	embeddingTotal    uint64  // 嵌入调用次数
	embeddingErrors   uint64  // 嵌入失败次数
	embeddingDuration float64 // 嵌入总耗时（秒）

	// 检索阶段指标
	searchTotal    uint64  // 向量检索次数
	searchErrors   uint64  // 检索失败次数
	searchDuration float64 // 检索总耗时（秒）

	// LLM 调用指标
	llmCallsTotal       uint64  // LLM 总调用次数
	llmCallsErrors      uint64  // LLM 调用失败次数
	llmCallsDuration    float64 // LLM 调用总耗时（秒）
	llmTokensPrompt     uint64  // Prompt tokens 总数
	llmTokensCompletion uint64  // Completion tokens 总数

	// 摄取指标
	ingestTotal        uint64 // 摄取请求次数
	ingestErrors       uint64 // 摄取失败次数
	ingestPartials     uint64 // 部分成功次数（存在被跳过的记录）
	documentsProcessed uint64 // 已处理文档数
	vectorsCreated     uint64 // 已写入向量数
	recordsSkipped     uint64 // 嵌入失败被跳过的记录数

	startTime  time.Time
	durationMu sync.Mutex
}

// globalMetrics 全局指标实例。
var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics 获取全局指标实例。
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			startTime: time.Now(),
		}
	})
	return globalMetrics
}

// RecordChat 记录一次对话请求。
func (m *Metrics) RecordChat(cacheHit bool, err error) {
	atomic.AddUint64(&m.chatTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.chatErrors, 1)
		return
	}
	if cacheHit {
		atomic.AddUint64(&m.cacheHits, 1)
	} else {
		atomic.AddUint64(&m.cacheMisses, 1)
	}
}

// RecordEmbedding 记录一次嵌入调用。
func (m *Metrics) RecordEmbedding(duration time.Duration, err error) {
	atomic.AddUint64(&m.embeddingTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.embeddingErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.embeddingDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordSearch 记录一次向量检索。
func (m *Metrics) RecordSearch(duration time.Duration, err error) {
	atomic.AddUint64(&m.searchTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.searchErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.searchDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordLLMCall 记录一次 LLM 调用。
func (m *Metrics) RecordLLMCall(duration time.Duration, promptTokens, completionTokens int, err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.llmCallsDuration += duration.Seconds()
	m.durationMu.Unlock()

	if promptTokens > 0 {
		atomic.AddUint64(&m.llmTokensPrompt, uint64(promptTokens))
	}
	if completionTokens > 0 {
		atomic.AddUint64(&m.llmTokensCompletion, uint64(completionTokens))
	}
}

// RecordIngest 记录一次摄取操作。
// skipped 为嵌入失败被跳过的记录数，skipped > 0 且无整体错误时视为部分成功。
func (m *Metrics) RecordIngest(documents, vectors, skipped int, err error) {
	atomic.AddUint64(&m.ingestTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.ingestErrors, 1)
		return
	}

	if skipped > 0 {
		atomic.AddUint64(&m.ingestPartials, 1)
		atomic.AddUint64(&m.recordsSkipped, uint64(skipped))
	}
	if documents > 0 {
		atomic.AddUint64(&m.documentsProcessed, uint64(documents))
	}
	if vectors > 0 {
		atomic.AddUint64(&m.vectorsCreated, uint64(vectors))
	}
}

// Stats 返回当前统计信息（用于 API）。
func (m *Metrics) Stats() map[string]interface{} {
	m.durationMu.Lock()
	embeddingDuration := m.embeddingDuration
	searchDuration := m.searchDuration
	llmDuration := m.llmCallsDuration
	m.durationMu.Unlock()

	cacheHits := atomic.LoadUint64(&m.cacheHits)
	cacheMisses := atomic.LoadUint64(&m.cacheMisses)
	cacheTotal := cacheHits + cacheMisses
	cacheHitRate := 0.0
	if cacheTotal > 0 {
		cacheHitRate = float64(cacheHits) / float64(cacheTotal)
	}

	embeddingTotal := atomic.LoadUint64(&m.embeddingTotal)
	avgEmbeddingDuration := 0.0
	if embeddingTotal > 0 {
		avgEmbeddingDuration = embeddingDuration / float64(embeddingTotal)
	}

	searchTotal := atomic.LoadUint64(&m.searchTotal)
	avgSearchDuration := 0.0
	if searchTotal > 0 {
		avgSearchDuration = searchDuration / float64(searchTotal)
	}

	llmTotal := atomic.LoadUint64(&m.llmCallsTotal)
	avgLLMDuration := 0.0
	if llmTotal > 0 {
		avgLLMDuration = llmDuration / float64(llmTotal)
	}

	return map[string]interface{}{
		"chat": map[string]interface{}{
			"total":          atomic.LoadUint64(&m.chatTotal),
			"errors":         atomic.LoadUint64(&m.chatErrors),
			"cache_hits":     cacheHits,
			"cache_misses":   cacheMisses,
			"cache_hit_rate": cacheHitRate,
		},
		"embedding": map[string]interface{}{
			"total":               embeddingTotal,
			"total_duration_secs": embeddingDuration,
			"avg_duration_secs":   avgEmbeddingDuration,
			"errors":              atomic.LoadUint64(&m.embeddingErrors),
		},
		"search": map[string]interface{}{
			"total":               searchTotal,
			"total_duration_secs": searchDuration,
			"avg_duration_secs":   avgSearchDuration,
			"errors":              atomic.LoadUint64(&m.searchErrors),
		},
		"llm": map[string]interface{}{
			"calls_total":         llmTotal,
			"total_duration_secs": llmDuration,
			"avg_duration_secs":   avgLLMDuration,
			"errors":              atomic.LoadUint64(&m.llmCallsErrors),
			"tokens_prompt":       atomic.LoadUint64(&m.llmTokensPrompt),
			"tokens_completion":   atomic.LoadUint64(&m.llmTokensCompletion),
		},
		"ingest": map[string]interface{}{
			"total":               atomic.LoadUint64(&m.ingestTotal),
			"errors":              atomic.LoadUint64(&m.ingestErrors),
			"partials":            atomic.LoadUint64(&m.ingestPartials),
			"documents_processed": atomic.LoadUint64(&m.documentsProcessed),
			"vectors_created":     atomic.LoadUint64(&m.vectorsCreated),
			"records_skipped":     atomic.LoadUint64(&m.recordsSkipped),
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}

// Reset 重置所有指标（仅用于测试）。
func (m *Metrics) Reset() {
	atomic.StoreUint64(&m.chatTotal, 0)
	atomic.StoreUint64(&m.chatErrors, 0)
	atomic.StoreUint64(&m.cacheHits, 0)
	atomic.StoreUint64(&m.cacheMisses, 0)
	atomic.StoreUint64(&m.embeddingTotal, 0)
	atomic.StoreUint64(&m.embeddingErrors, 0)
	atomic.StoreUint64(&m.searchTotal, 0)
	atomic.StoreUint64(&m.searchErrors, 0)
	atomic.StoreUint64(&m.llmCallsTotal, 0)
	atomic.StoreUint64(&m.llmCallsErrors, 0)
	atomic.StoreUint64(&m.llmTokensPrompt, 0)
	atomic.StoreUint64(&m.llmTokensCompletion, 0)
	atomic.StoreUint64(&m.ingestTotal, 0)
	atomic.StoreUint64(&m.ingestErrors, 0)
	atomic.StoreUint64(&m.ingestPartials, 0)
	atomic.StoreUint64(&m.documentsProcessed, 0)
	atomic.StoreUint64(&m.vectorsCreated, 0)
	atomic.StoreUint64(&m.recordsSkipped, 0)

	m.durationMu.Lock()
	m.embeddingDuration = 0
	m.searchDuration = 0
	m.llmCallsDuration = 0
	m.startTime = time.Now()
	m.durationMu.Unlock()
}
