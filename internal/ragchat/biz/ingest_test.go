package biz

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/rag-chat/internal/ragchat/source"
	"github.com/kart-io/rag-chat/pkg/llm"
	apierrors "github.com/kart-io/rag-chat/pkg/utils/errors"
	"github.com/kart-io/rag-chat/pkg/utils/httpclient"
)

func TestIngestHappyPath(t *testing.T) {
	svc, stubs := newStubbedService(t, nil)
	stubs.fetcher.records = []map[string]any{
		{"name": "alpha", "price": 9.5},
		{"name": "beta", "price": 3.0},
		{"name": "gamma", "price": 12.0},
	}

	resp, err := svc.Ingest(context.Background(), ingestRequestFixture())
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, 3, resp.DocumentsProcessed)
	assert.Equal(t, 3, resp.VectorsCreated)
	assert.Equal(t, "Successfully ingested 3 documents and created 3 vectors", resp.Message)

	// 数据源按请求打开，读取参数来自请求与默认值。
	assert.Equal(t, 1, stubs.sourceOpens)
	assert.Equal(t, "mongodb", stubs.sourceType)
	assert.Equal(t, testMongoURI, stubs.sourceURI)
	assert.Equal(t, "products", stubs.fetcher.spec.Collection)
	assert.Equal(t, 10, stubs.fetcher.spec.Limit)
	assert.True(t, stubs.fetcher.closed)

	// 摄取阶段的嵌入固定走 openai，凭证来自请求。
	assert.Equal(t, "openai", stubs.embedder.name)
	assert.Equal(t, testOpenAIKey, stubs.embedder.config["api_key"])
	assert.Equal(t, "text-embedding-ada-002", stubs.embedder.config["embed_model"])
	assert.Equal(t, 3, stubs.embedder.callCount())

	// 单批写入，负载携带原文与元数据。
	assert.Equal(t, 1, stubs.storeOpens)
	assert.Equal(t, "qdrant", stubs.storeCfg.Type)
	assert.Equal(t, testVectorKey, stubs.storeCfg.APIKey)
	assert.Equal(t, "documents", stubs.store.collection)
	assert.True(t, stubs.store.closed)

	require.Len(t, stubs.store.vectors, 3)
	for i, vec := range stubs.store.vectors {
		assert.Equal(t, fmt.Sprintf("doc_%d", i), vec.ID)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec.Values)

		text, ok := vec.Payload["text"].(string)
		require.True(t, ok)
		want, ferr := source.FlattenRecord(stubs.fetcher.records[i])
		require.NoError(t, ferr)
		assert.Equal(t, want, text)

		meta, ok := vec.Payload["metadata"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ingestion", meta["source"])
		assert.Equal(t, i, meta["doc_index"])
		assert.Equal(t, source.ContentPreview(text, 200), meta["content_preview"])
	}

	ingestStats := metricSection(t, "ingest")
	assert.EqualValues(t, 1, ingestStats["total"])
	assert.EqualValues(t, 0, ingestStats["errors"])
	assert.EqualValues(t, 0, ingestStats["partials"])
	assert.EqualValues(t, 3, ingestStats["documents_processed"])
	assert.EqualValues(t, 3, ingestStats["vectors_created"])
	embeddingStats := metricSection(t, "embedding")
	assert.EqualValues(t, 3, embeddingStats["total"])
}

func TestIngestPartialSkipsFailedRecords(t *testing.T) {
	svc, stubs := newStubbedService(t, nil)
	stubs.fetcher.records = []map[string]any{
		{"name": "alpha"},
		{"name": "beta"},
		{"name": "gamma"},
	}
	stubs.embedder.failOn = "beta"
	stubs.embedder.failErr = &httpclient.StatusError{StatusCode: 500, Body: "backend exploded"}

	resp, err := svc.Ingest(context.Background(), ingestRequestFixture())
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, resp.Status)
	assert.Equal(t, 3, resp.DocumentsProcessed)
	assert.Equal(t, 2, resp.VectorsCreated)
	assert.Equal(t, "Partially ingested 3 documents and created 2 vectors (1 records skipped)", resp.Message)

	// 跳过的记录在 ID 序列中留下空洞，重复摄取总是覆盖同一批 ID。
	require.Len(t, stubs.store.vectors, 2)
	assert.Equal(t, "doc_0", stubs.store.vectors[0].ID)
	assert.Equal(t, "doc_2", stubs.store.vectors[1].ID)
	meta, ok := stubs.store.vectors[1].Payload["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, meta["doc_index"])

	ingestStats := metricSection(t, "ingest")
	assert.EqualValues(t, 1, ingestStats["partials"])
	assert.EqualValues(t, 1, ingestStats["records_skipped"])
	embeddingStats := metricSection(t, "embedding")
	assert.EqualValues(t, 3, embeddingStats["total"])
	assert.EqualValues(t, 1, embeddingStats["errors"])
}

func TestIngestNoDocumentsFound(t *testing.T) {
	svc, stubs := newStubbedService(t, nil)
	stubs.fetcher.records = nil

	resp, err := svc.Ingest(context.Background(), ingestRequestFixture())
	require.NoError(t, err)

	assert.Equal(t, StatusFailure, resp.Status)
	assert.Zero(t, resp.DocumentsProcessed)
	assert.Zero(t, resp.VectorsCreated)
	assert.Equal(t, "No documents found with the specified criteria", resp.Message)

	// 没有记录就不触达嵌入与向量库。
	assert.Equal(t, 0, stubs.embedder.callCount())
	assert.Equal(t, 0, stubs.storeOpens)
	assert.True(t, stubs.fetcher.closed)

	ingestStats := metricSection(t, "ingest")
	assert.EqualValues(t, 1, ingestStats["total"])
	assert.EqualValues(t, 0, ingestStats["errors"])
}

func TestIngestAllRecordsSkipped(t *testing.T) {
	svc, stubs := newStubbedService(t, nil)
	stubs.fetcher.records = []map[string]any{
		{"name": "alpha"},
		{"name": "beta"},
		{"name": "gamma"},
	}
	stubs.embedder.err = &httpclient.StatusError{
		StatusCode: 401,
		Body:       "Incorrect API key provided: " + testOpenAIKey,
	}

	resp, err := svc.Ingest(context.Background(), ingestRequestFixture())
	require.NoError(t, err)

	assert.Equal(t, StatusFailure, resp.Status)
	assert.Equal(t, 3, resp.DocumentsProcessed)
	assert.Zero(t, resp.VectorsCreated)
	assert.Equal(t, "Failed to create vectors: all 3 documents were skipped", resp.Message)

	// 没有成功向量就不连向量库。
	assert.Equal(t, 0, stubs.storeOpens)
}

func TestIngestUpsertFailure(t *testing.T) {
	svc, stubs := newStubbedService(t, nil)
	stubs.fetcher.records = []map[string]any{{"name": "alpha"}}
	stubs.store.upsertErr = apierrors.ErrVectorStoreUnavailable

	resp, err := svc.Ingest(context.Background(), ingestRequestFixture())
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 502, apierrors.FromError(err).HTTPStatus())
	assert.True(t, stubs.store.closed)

	ingestStats := metricSection(t, "ingest")
	assert.EqualValues(t, 1, ingestStats["total"])
	assert.EqualValues(t, 1, ingestStats["errors"])
}

func TestIngestSourceFailures(t *testing.T) {
	t.Run("open failure", func(t *testing.T) {
		svc, _ := newStubbedService(t, nil)
		svc.openSource = func(_ context.Context, _, _ string) (source.Fetcher, error) {
			return nil, apierrors.ErrDataSourceAuthFailed
		}

		_, err := svc.Ingest(context.Background(), ingestRequestFixture())
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, apierrors.ErrDataSourceAuthFailed))
		assert.Equal(t, 401, apierrors.FromError(err).HTTPStatus())
	})

	t.Run("fetch failure closes the source", func(t *testing.T) {
		svc, stubs := newStubbedService(t, nil)
		stubs.fetcher.fetchErr = apierrors.ErrDataSourceUnavailable

		_, err := svc.Ingest(context.Background(), ingestRequestFixture())
		require.Error(t, err)
		assert.Equal(t, 502, apierrors.FromError(err).HTTPStatus())
		assert.True(t, stubs.fetcher.closed)

		ingestStats := metricSection(t, "ingest")
		assert.EqualValues(t, 1, ingestStats["errors"])
	})
}

func TestIngestProviderConfigRejected(t *testing.T) {
	svc, stubs := newStubbedService(t, nil)
	stubs.fetcher.records = []map[string]any{{"name": "alpha"}}
	svc.newEmbedder = func(_ string, _ map[string]any) (llm.EmbeddingProvider, error) {
		return nil, stderrors.New("api_key is required")
	}

	_, err := svc.Ingest(context.Background(), ingestRequestFixture())
	require.Error(t, err)

	errno := apierrors.FromError(err)
	assert.Equal(t, 400, errno.HTTPStatus())
	assert.Contains(t, errno.MessageEN, "Invalid provider configuration")
}

// 上游返回的写入计数不可信时收敛到本批向量数。
func TestIngestUpstreamCountClamped(t *testing.T) {
	svc, stubs := newStubbedService(t, nil)
	stubs.fetcher.records = []map[string]any{
		{"name": "alpha"},
		{"name": "beta"},
	}
	stubs.store.upserted = 99

	resp, err := svc.Ingest(context.Background(), ingestRequestFixture())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, 2, resp.DocumentsProcessed)
	assert.Equal(t, 2, resp.VectorsCreated)
}

// 并发嵌入不得打乱批次顺序：向量按源记录下标排列。
func TestIngestPreservesRecordOrder(t *testing.T) {
	svc, stubs := newStubbedService(t, &Config{EmbedWorkers: 3, UpstreamTimeout: time.Second})
	records := make([]map[string]any, 8)
	for i := range records {
		records[i] = map[string]any{"n": i}
	}
	stubs.fetcher.records = records

	resp, err := svc.Ingest(context.Background(), ingestRequestFixture())
	require.NoError(t, err)
	assert.Equal(t, 8, resp.VectorsCreated)

	require.Len(t, stubs.store.vectors, 8)
	for i, vec := range stubs.store.vectors {
		assert.Equal(t, fmt.Sprintf("doc_%d", i), vec.ID)
		want, ferr := source.FlattenRecord(records[i])
		require.NoError(t, ferr)
		assert.Equal(t, want, vec.Payload["text"])
	}
}

func TestIngestExplicitLimitAndModel(t *testing.T) {
	svc, stubs := newStubbedService(t, nil)
	stubs.fetcher.records = []map[string]any{{"name": "alpha"}}

	req := ingestRequestFixture()
	req.Limit = 25
	req.FilterQuery = `{"category": "books"}`
	req.EmbeddingModel = "text-embedding-3-small"

	_, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 25, stubs.fetcher.spec.Limit)
	assert.Equal(t, `{"category": "books"}`, stubs.fetcher.spec.Filter)
	assert.Equal(t, "text-embedding-3-small", stubs.embedder.config["embed_model"])
}
