// Package llm 提供统一的 LLM 供应商抽象层。
// 支持多种 LLM 服务（OpenAI、DeepSeek、Ollama 等），通过注册机制实现供应商的可插拔。
//
// 供应商通过 init() 自注册，使用方只需空白导入：
//
//	import (
//	    "github.com/kart-io/rag-chat/pkg/llm"
//
//	    _ "github.com/kart-io/rag-chat/pkg/llm/openai"
//	)
//
//	provider, err := llm.NewProvider("openai", map[string]any{
//	    "api_key": "your-api-key",
//	})
package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Role 消息角色类型。
type Role string

const (
	// RoleSystem 系统角色，用于设置对话的背景和行为。
	RoleSystem Role = "system"
	// RoleUser 用户角色。
	RoleUser Role = "user"
	// RoleAssistant 助手角色，表示模型的回复。
	RoleAssistant Role = "assistant"
)

// Message 对话消息。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenUsage 记录一次生成调用的 token 使用情况。
// 不支持用量统计的供应商可返回 nil。
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateResponse 一次对话或生成调用的结果。
type GenerateResponse struct {
	// Content 模型生成的文本内容。
	Content string `json:"content"`

	// Model 实际使用的模型名称（供应商返回值，可能与请求值不同）。
	Model string `json:"model,omitempty"`

	// TokenUsage token 使用情况，可能为 nil。
	TokenUsage *TokenUsage `json:"token_usage,omitempty"`
}

// EmbeddingProvider 定义 Embedding 供应商接口。
type EmbeddingProvider interface {
	// Embed 为多个文本生成向量嵌入，返回顺序与输入一致。
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle 为单个文本生成向量嵌入。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name 返回供应商名称。
	Name() string
}

// ChatProvider 定义 Chat 供应商接口。
type ChatProvider interface {
	// Chat 进行多轮对话。
	Chat(ctx context.Context, messages []Message) (*GenerateResponse, error)

	// Generate 根据提示生成文本，systemPrompt 为空时不附加系统消息。
	Generate(ctx context.Context, prompt string, systemPrompt string) (*GenerateResponse, error)

	// Name 返回供应商名称。
	Name() string
}

// Provider 完整供应商接口，同时支持 Embedding 和 Chat。
type Provider interface {
	EmbeddingProvider
	ChatProvider
}

// ProviderFactory 完整供应商工厂函数。
type ProviderFactory func(config map[string]any) (Provider, error)

// EmbeddingProviderFactory 嵌入供应商工厂函数。
type EmbeddingProviderFactory func(config map[string]any) (EmbeddingProvider, error)

// ChatProviderFactory 对话供应商工厂函数。
type ChatProviderFactory func(config map[string]any) (ChatProvider, error)

// ErrProviderNotFound 表示请求的供应商未注册。
// 调用方可用 errors.Is 判断并映射为请求参数错误。
var ErrProviderNotFound = errors.New("provider not found")

var (
	mu                 sync.RWMutex
	providers          = make(map[string]ProviderFactory)
	embeddingProviders = make(map[string]EmbeddingProviderFactory)
	chatProviders      = make(map[string]ChatProviderFactory)
)

// RegisterProvider 注册完整供应商工厂。
// 通常在供应商包的 init() 中调用。
func RegisterProvider(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// RegisterEmbeddingProvider 注册仅支持 Embedding 的供应商工厂。
func RegisterEmbeddingProvider(name string, factory EmbeddingProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	embeddingProviders[name] = factory
}

// RegisterChatProvider 注册仅支持 Chat 的供应商工厂。
func RegisterChatProvider(name string, factory ChatProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	chatProviders[name] = factory
}

// NewProvider 创建指定名称的完整供应商。
func NewProvider(name string, config map[string]any) (Provider, error) {
	mu.RLock()
	factory, ok := providers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider %q: %w", name, ErrProviderNotFound)
	}

	return factory(config)
}

// NewEmbeddingProvider 创建指定名称的 Embedding 供应商。
// 优先使用专用 Embedding 供应商，未注册时回退到完整供应商。
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	mu.RLock()
	factory, ok := embeddingProviders[name]
	mu.RUnlock()

	if ok {
		return factory(config)
	}

	mu.RLock()
	fullFactory, ok := providers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown embedding provider %q: %w", name, ErrProviderNotFound)
	}

	return fullFactory(config)
}

// NewChatProvider 创建指定名称的 Chat 供应商。
// 优先使用专用 Chat 供应商，未注册时回退到完整供应商。
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	mu.RLock()
	factory, ok := chatProviders[name]
	mu.RUnlock()

	if ok {
		return factory(config)
	}

	mu.RLock()
	fullFactory, ok := providers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown chat provider %q: %w", name, ErrProviderNotFound)
	}

	return fullFactory(config)
}

// ListProviders 返回所有已注册的完整供应商名称。
func ListProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	return names
}
