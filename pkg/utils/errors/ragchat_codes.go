package errors

import "google.golang.org/grpc/codes"

// rag-chat 服务代码: 21 (业务服务范围 20-79)
// 错误码格式: AABBCCC
// - AA: 21 (rag-chat 服务)
// - BB: 类别代码
// - CCC: 序号

var (
	// 请求参数错误 (类别 01)
	ErrEmbeddingProviderNotSupported = Register(New(MakeCode(ServiceRAGChat, CategoryRequest, 1), 400, codes.InvalidArgument, "Embedding provider not supported yet", "嵌入提供商暂不支持"))
	ErrLLMProviderNotSupported       = Register(New(MakeCode(ServiceRAGChat, CategoryRequest, 2), 400, codes.InvalidArgument, "LLM provider not supported yet", "LLM 提供商暂不支持"))
	ErrVectorDBNotSupported          = Register(New(MakeCode(ServiceRAGChat, CategoryRequest, 3), 400, codes.InvalidArgument, "Vector DB type not supported yet", "向量数据库类型暂不支持"))
	ErrDataSourceNotSupported        = Register(New(MakeCode(ServiceRAGChat, CategoryRequest, 4), 400, codes.InvalidArgument, "Data source type not supported yet", "数据源类型暂不支持"))
	ErrDatabaseURLRequired           = Register(New(MakeCode(ServiceRAGChat, CategoryRequest, 5), 400, codes.InvalidArgument, "Database URL is required", "数据库 URL 不能为空"))
	ErrInvalidFilterQuery            = Register(New(MakeCode(ServiceRAGChat, CategoryRequest, 6), 400, codes.InvalidArgument, "Invalid JSON filter query", "过滤条件 JSON 无效"))
	ErrInvalidTableName              = Register(New(MakeCode(ServiceRAGChat, CategoryRequest, 7), 400, codes.InvalidArgument, "Invalid collection or table name", "集合或表名无效"))

	// 凭证错误 (类别 02) - 上游拒绝请求携带的凭证，响应体绝不回显凭证内容
	ErrLLMAuthFailed         = Register(New(MakeCode(ServiceRAGChat, CategoryAuth, 1), 401, codes.Unauthenticated, "LLM provider rejected the API key", "LLM 提供商拒绝了 API Key"))
	ErrVectorStoreAuthFailed = Register(New(MakeCode(ServiceRAGChat, CategoryAuth, 2), 401, codes.Unauthenticated, "Vector database rejected the API key", "向量数据库拒绝了 API Key"))
	ErrDataSourceAuthFailed  = Register(New(MakeCode(ServiceRAGChat, CategoryAuth, 3), 401, codes.Unauthenticated, "Data source rejected the credentials", "数据源拒绝了连接凭证"))

	// 依赖不可用 (类别 10)
	ErrLLMUnavailable         = Register(New(MakeCode(ServiceRAGChat, CategoryNetwork, 1), 502, codes.Unavailable, "LLM provider is unavailable", "LLM 提供商不可用"))
	ErrVectorStoreUnavailable = Register(New(MakeCode(ServiceRAGChat, CategoryNetwork, 2), 502, codes.Unavailable, "Vector database is unavailable", "向量数据库不可用"))
	ErrDataSourceUnavailable  = Register(New(MakeCode(ServiceRAGChat, CategoryNetwork, 3), 502, codes.Unavailable, "Data source is unavailable", "数据源不可用"))

	// 超时 (类别 11)
	ErrUpstreamTimeout = Register(New(MakeCode(ServiceRAGChat, CategoryTimeout, 1), 504, codes.DeadlineExceeded, "Upstream request timed out", "上游请求超时"))
)

func init() {
	RegisterService(ServiceRAGChat, "rag-chat")
}
