package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/rag-chat/internal/ragchat/biz"
	"github.com/kart-io/rag-chat/pkg/utils/errors"
	"github.com/kart-io/rag-chat/pkg/utils/json"
)

// 测试凭证。响应体中出现这些值都是缺陷。
const (
	testLLMKey    = "sk-handler-secret-123"
	testVectorKey = "pc-handler-secret-456"
)

// stubService 记录收到的请求并返回预设结果。
type stubService struct {
	chatResp   *biz.ChatResponse
	chatErr    error
	ingestResp *biz.IngestResponse
	ingestErr  error

	gotChat   *biz.ChatRequest
	gotIngest *biz.IngestRequest
}

func (s *stubService) Chat(_ context.Context, req *biz.ChatRequest) (*biz.ChatResponse, error) {
	s.gotChat = req
	return s.chatResp, s.chatErr
}

func (s *stubService) Ingest(_ context.Context, req *biz.IngestRequest) (*biz.IngestResponse, error) {
	s.gotIngest = req
	return s.ingestResp, s.ingestErr
}

var _ biz.Service = (*stubService)(nil)

func newTestRouter(svc biz.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := New(svc)
	engine.GET("/", h.Root)
	engine.GET("/health", h.Health)
	engine.POST("/api/chat", h.Chat)
	engine.POST("/api/ingest", h.Ingest)
	engine.GET("/api/stats", h.Stats)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func chatBody(overrides map[string]any) string {
	body := map[string]any{
		"query":             "什么是向量检索?",
		"api_key":           testLLMKey,
		"vector_db_api_key": testVectorKey,
		"index_name":        "docs",
	}
	for k, v := range overrides {
		if v == nil {
			delete(body, k)
			continue
		}
		body[k] = v
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func TestChat_Success(t *testing.T) {
	svc := &stubService{
		chatResp: &biz.ChatResponse{
			Response: "向量检索是……",
			Sources: []biz.ChatSource{
				{Title: "Doc A", Score: 0.91},
				{Title: "Doc B", Score: 0.85},
			},
		},
	}
	engine := newTestRouter(svc)

	w := doJSON(t, engine, http.MethodPost, "/api/chat", chatBody(nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp biz.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "向量检索是……", resp.Response)
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "Doc A", resp.Sources[0].Title)

	require.NotNil(t, svc.gotChat)
	assert.Equal(t, testLLMKey, svc.gotChat.APIKey)
}

func TestChat_MissingFieldNamesField(t *testing.T) {
	cases := []struct {
		field string
	}{
		{"query"},
		{"api_key"},
		{"vector_db_api_key"},
		{"index_name"},
	}

	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			svc := &stubService{}
			engine := newTestRouter(svc)

			w := doJSON(t, engine, http.MethodPost, "/api/chat", chatBody(map[string]any{tc.field: nil}))

			require.Equal(t, http.StatusBadRequest, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			// 错误信息必须点名缺失的字段（json 标签名）
			assert.Contains(t, body["detail"], tc.field)
			// 校验失败不应触达业务层
			assert.Nil(t, svc.gotChat)
		})
	}
}

func TestChat_MalformedJSON(t *testing.T) {
	engine := newTestRouter(&stubService{})

	w := doJSON(t, engine, http.MethodPost, "/api/chat", `{"query": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_AuthErrorDoesNotEchoKey(t *testing.T) {
	svc := &stubService{chatErr: errors.ErrVectorStoreAuthFailed}
	engine := newTestRouter(svc)

	w := doJSON(t, engine, http.MethodPost, "/api/chat", chatBody(nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), testVectorKey)
	assert.NotContains(t, w.Body.String(), testLLMKey)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Vector database rejected the API key", body["detail"])
}

func TestChat_DependencyUnavailable(t *testing.T) {
	svc := &stubService{chatErr: errors.ErrLLMUnavailable}
	engine := newTestRouter(svc)

	w := doJSON(t, engine, http.MethodPost, "/api/chat", chatBody(nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestChat_UnknownErrorIsOpaque(t *testing.T) {
	// 非 Errno 错误不得把原始文本透给客户端。
	svc := &stubService{chatErr: assert.AnError}
	engine := newTestRouter(svc)

	w := doJSON(t, engine, http.MethodPost, "/api/chat", chatBody(nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func ingestBody(overrides map[string]any) string {
	body := map[string]any{
		"data_source_type":      "mongodb",
		"connection_uri":        "mongodb://admin:pw@db:27017/app",
		"collection_table_name": "articles",
		"limit":                 5,
		"vector_db_type":        "qdrant",
		"vector_db_url":         "http://qdrant:6333",
		"vector_db_api_key":     testVectorKey,
		"collection_name":       "articles_vec",
		"openai_api_key":        testLLMKey,
	}
	for k, v := range overrides {
		if v == nil {
			delete(body, k)
			continue
		}
		body[k] = v
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func TestIngest_Success(t *testing.T) {
	svc := &stubService{
		ingestResp: &biz.IngestResponse{
			DocumentsProcessed: 3,
			VectorsCreated:     3,
			Message:            "Successfully ingested 3 documents and created 3 vectors",
			Status:             biz.StatusSuccess,
		},
	}
	engine := newTestRouter(svc)

	w := doJSON(t, engine, http.MethodPost, "/api/ingest", ingestBody(nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp biz.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.DocumentsProcessed)
	assert.Equal(t, biz.StatusSuccess, resp.Status)

	require.NotNil(t, svc.gotIngest)
	assert.Equal(t, 5, svc.gotIngest.Limit)
}

func TestIngest_PartialIsNotAnError(t *testing.T) {
	svc := &stubService{
		ingestResp: &biz.IngestResponse{
			DocumentsProcessed: 5,
			VectorsCreated:     3,
			Message:            "Ingested 5 documents, created 3 vectors (2 records skipped)",
			Status:             biz.StatusPartial,
		},
	}
	engine := newTestRouter(svc)

	w := doJSON(t, engine, http.MethodPost, "/api/ingest", ingestBody(nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp biz.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, biz.StatusPartial, resp.Status)
	assert.LessOrEqual(t, resp.VectorsCreated, resp.DocumentsProcessed)
}

func TestIngest_MissingFieldNamesField(t *testing.T) {
	for _, field := range []string{
		"data_source_type",
		"connection_uri",
		"collection_table_name",
		"vector_db_url",
		"vector_db_api_key",
		"collection_name",
		"openai_api_key",
	} {
		t.Run(field, func(t *testing.T) {
			svc := &stubService{}
			engine := newTestRouter(svc)

			w := doJSON(t, engine, http.MethodPost, "/api/ingest", ingestBody(map[string]any{field: nil}))

			require.Equal(t, http.StatusBadRequest, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body["detail"], field)
			assert.Nil(t, svc.gotIngest)
		})
	}
}

func TestIngest_InvalidTableName(t *testing.T) {
	engine := newTestRouter(&stubService{})

	w := doJSON(t, engine, http.MethodPost, "/api/ingest",
		ingestBody(map[string]any{"collection_table_name": "articles; DROP TABLE users"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngest_NegativeLimit(t *testing.T) {
	engine := newTestRouter(&stubService{})

	w := doJSON(t, engine, http.MethodPost, "/api/ingest", ingestBody(map[string]any{"limit": -1}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoot_Banner(t *testing.T) {
	engine := newTestRouter(&stubService{})

	w := doJSON(t, engine, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, w.Code)

	var body RootResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "RAG Chat API is running", body.Message)
	assert.Equal(t, "1.0.0", body.Version)
}

func TestHealth(t *testing.T) {
	engine := newTestRouter(&stubService{})

	w := doJSON(t, engine, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.NotEmpty(t, body.Timestamp)
}

func TestStats_SnapshotShape(t *testing.T) {
	engine := newTestRouter(&stubService{})

	w := doJSON(t, engine, http.MethodGet, "/api/stats", "")

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "chat")
	assert.Contains(t, body, "ingest")
}
