// Package biz 实现 rag-chat 的核心业务流程：检索增强问答与数据摄取。
//
// 每个请求携带自己的全部凭证。流水线按请求构建 LLM 供应商、向量库
// 客户端与数据源连接，用完即关；任何凭证都不会越过请求边界被缓存，
// 也不会出现在响应、日志或错误信息中。
package biz

import (
	"context"
	"time"

	"github.com/kart-io/rag-chat/internal/pkg/redact"
	"github.com/kart-io/rag-chat/internal/ragchat/cache"
	"github.com/kart-io/rag-chat/internal/ragchat/metrics"
	"github.com/kart-io/rag-chat/internal/ragchat/source"
	"github.com/kart-io/rag-chat/internal/ragchat/store"
	"github.com/kart-io/rag-chat/pkg/llm"
	"github.com/kart-io/rag-chat/pkg/utils/json"
)

// 服务端固定的检索与生成参数。k 与提示词模板不随请求变化。
const (
	// DefaultTopK 相似度检索返回的结果数。
	DefaultTopK = 5
	// promptContextDocs 进入提示词上下文的文档数（top-k 中的前几名）。
	promptContextDocs = 3
	// contentPreviewLen 摄取时写入向量负载的内容预览长度。
	contentPreviewLen = 200

	// defaultEmbedWorkers 摄取阶段并发生成嵌入的工作协程数。
	defaultEmbedWorkers = 4
	// defaultUpstreamTimeout 单次上游调用（LLM/向量库/数据源）的超时。
	defaultUpstreamTimeout = 30 * time.Second

	// 请求字段缺省值。
	defaultLLMProvider    = "openai"
	defaultChatModel      = "gpt-3.5-turbo"
	defaultChatStore      = "pinecone"
	defaultIngestStore    = "qdrant"
	defaultIngestLimit    = 10
	defaultEmbeddingModel = "text-embedding-ada-002"

	// 生成参数。
	generationMaxTokens   = 500
	generationTemperature = 0.7
)

// 摄取结果状态。
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailure = "failure"
)

// ChatRequest 问答请求。凭证字段只写不读：绑定后仅在本次请求的
// 流水线内部流转。
type ChatRequest struct {
	// Query 用户问题。
	Query string `json:"query" validate:"required"`

	// LLMProvider 生成所用的供应商，默认 openai。
	LLMProvider string `json:"llm_provider"`

	// APIKey LLM 供应商的 API 密钥（机密）。
	APIKey string `json:"api_key" validate:"required"`

	// ModelName 生成模型，默认 gpt-3.5-turbo。
	ModelName string `json:"model_name"`

	// VectorDBType 向量库类型，默认 pinecone。
	VectorDBType string `json:"vector_db_type"`

	// VectorDBURL 向量库地址（qdrant/milvus 必填）。
	VectorDBURL string `json:"vector_db_url"`

	// VectorDBAPIKey 向量库 API 密钥（机密）。
	VectorDBAPIKey string `json:"vector_db_api_key" validate:"required"`

	// IndexName 检索的目标集合/索引。
	IndexName string `json:"index_name" validate:"required,collectionname"`
}

// normalize 填充缺省字段。
func (r *ChatRequest) normalize() {
	if r.LLMProvider == "" {
		r.LLMProvider = defaultLLMProvider
	}
	if r.ModelName == "" {
		r.ModelName = defaultChatModel
	}
	if r.VectorDBType == "" {
		r.VectorDBType = defaultChatStore
	}
}

// MarshalJSON 序列化时掩盖凭证字段，防止请求对象经由日志或调试
// 输出泄露密钥。绑定（反序列化）不受影响。
func (r ChatRequest) MarshalJSON() ([]byte, error) {
	type plain ChatRequest
	masked := plain(r)
	if masked.APIKey != "" {
		masked.APIKey = redact.Placeholder
	}
	if masked.VectorDBAPIKey != "" {
		masked.VectorDBAPIKey = redact.Placeholder
	}
	return json.Marshal(masked)
}

// String 实现 fmt.Stringer，输出同样掩盖凭证。
func (r ChatRequest) String() string {
	data, err := r.MarshalJSON()
	if err != nil {
		return "ChatRequest{}"
	}
	return string(data)
}

// ChatSource 响应中的引用条目。
type ChatSource struct {
	Title string  `json:"title"`
	Score float32 `json:"score"`
}

// ChatResponse 问答响应。
type ChatResponse struct {
	Response string       `json:"response"`
	Sources  []ChatSource `json:"sources"`
}

// IngestRequest 数据摄取请求。凭证字段只写不读。
type IngestRequest struct {
	// DataSourceType 数据源类型：mongodb、mysql 或 postgres。
	DataSourceType string `json:"data_source_type" validate:"required"`

	// ConnectionURI 数据源连接串，含凭证（机密）。
	ConnectionURI string `json:"connection_uri" validate:"required"`

	// CollectionTableName 源集合或表名。
	CollectionTableName string `json:"collection_table_name" validate:"required,collectionname"`

	// FilterQuery 过滤条件：mongodb 为 JSON，SQL 为 WHERE 表达式。可空。
	FilterQuery string `json:"filter_query"`

	// Limit 最多读取的记录数，默认 10，必须大于 0。
	Limit int `json:"limit" validate:"omitempty,gt=0"`

	// VectorDBType 向量库类型，默认 qdrant。
	VectorDBType string `json:"vector_db_type"`

	// VectorDBURL 向量库地址。
	VectorDBURL string `json:"vector_db_url" validate:"required"`

	// VectorDBAPIKey 向量库 API 密钥（机密）。
	VectorDBAPIKey string `json:"vector_db_api_key" validate:"required"`

	// CollectionName 向量写入的目标集合。
	CollectionName string `json:"collection_name" validate:"required,collectionname"`

	// OpenAIAPIKey 生成嵌入所用的 OpenAI 密钥（机密）。
	OpenAIAPIKey string `json:"openai_api_key" validate:"required"`

	// EmbeddingModel 嵌入模型，默认 text-embedding-ada-002。
	EmbeddingModel string `json:"embedding_model"`
}

// normalize 填充缺省字段。
func (r *IngestRequest) normalize() {
	if r.Limit <= 0 {
		r.Limit = defaultIngestLimit
	}
	if r.VectorDBType == "" {
		r.VectorDBType = defaultIngestStore
	}
	if r.EmbeddingModel == "" {
		r.EmbeddingModel = defaultEmbeddingModel
	}
}

// MarshalJSON 序列化时掩盖凭证字段。连接串整体视为机密：其中
// 内嵌了数据库账号密码。
func (r IngestRequest) MarshalJSON() ([]byte, error) {
	type plain IngestRequest
	masked := plain(r)
	if masked.ConnectionURI != "" {
		masked.ConnectionURI = redact.URI(masked.ConnectionURI)
	}
	if masked.VectorDBAPIKey != "" {
		masked.VectorDBAPIKey = redact.Placeholder
	}
	if masked.OpenAIAPIKey != "" {
		masked.OpenAIAPIKey = redact.Placeholder
	}
	return json.Marshal(masked)
}

// String 实现 fmt.Stringer，输出同样掩盖凭证。
func (r IngestRequest) String() string {
	data, err := r.MarshalJSON()
	if err != nil {
		return "IngestRequest{}"
	}
	return string(data)
}

// IngestResponse 数据摄取响应。
type IngestResponse struct {
	DocumentsProcessed int    `json:"documents_processed"`
	VectorsCreated     int    `json:"vectors_created"`
	Message            string `json:"message"`
	Status             string `json:"status"`
}

// Service 定义 rag-chat 业务接口。
type Service interface {
	// Chat 执行检索增强问答。
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	// Ingest 从数据源读取记录并写入向量库。
	Ingest(ctx context.Context, req *IngestRequest) (*IngestResponse, error)
}

// Config 服务级配置。k、工作协程数与上游超时由服务端统一控制，
// 不随请求变化。
type Config struct {
	// TopK 相似度检索返回的结果数。
	TopK int
	// EmbedWorkers 摄取阶段的并发嵌入协程数。
	EmbedWorkers int
	// UpstreamTimeout 单次上游调用的超时。
	UpstreamTimeout time.Duration
}

// ragService 按请求组装流水线组件的 Service 实现。
type ragService struct {
	cfg     *Config
	cache   *cache.QueryCache
	metrics *metrics.Metrics

	// 构造钩子。生产环境固定为各包的工厂函数，测试中替换为桩实现。
	newEmbedder func(name string, config map[string]any) (llm.EmbeddingProvider, error)
	newChat     func(name string, config map[string]any) (llm.ChatProvider, error)
	openStore   func(ctx context.Context, cfg store.Config) (store.VectorStore, error)
	openSource  func(ctx context.Context, sourceType, uri string) (source.Fetcher, error)
}

// NewService 创建业务服务实例。qc 可为禁用状态的缓存。
func NewService(qc *cache.QueryCache, cfg *Config) Service {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.EmbedWorkers <= 0 {
		cfg.EmbedWorkers = defaultEmbedWorkers
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = defaultUpstreamTimeout
	}
	if qc == nil {
		qc = cache.New(nil)
	}

	return &ragService{
		cfg:         cfg,
		cache:       qc,
		metrics:     metrics.GetMetrics(),
		newEmbedder: llm.NewEmbeddingProvider,
		newChat:     llm.NewChatProvider,
		openStore:   store.Open,
		openSource:  source.Open,
	}
}

var _ Service = (*ragService)(nil)
