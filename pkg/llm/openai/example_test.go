package openai_test

import (
	"context"
	"fmt"
	"log"

	"github.com/kart-io/rag-chat/pkg/llm"
	_ "github.com/kart-io/rag-chat/pkg/llm/openai"
)

// 演示如何使用基本配置创建 OpenAI 供应商并进行对话。
func ExampleNewProvider_basic() {
	// 创建供应商（使用默认配置）
	provider, err := llm.NewProvider("openai", map[string]any{
		"api_key": "your-api-key-here",
	})
	if err != nil {
		log.Fatal(err)
	}

	// 进行对话
	ctx := context.Background()
	response, err := provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: "你好，请介绍一下自己"},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Response:", response.Content)
}

// 演示如何使用高级配置来精细控制生成参数。
func ExampleNewProvider_advanced() {
	// 创建供应商（使用高级配置）
	provider, err := llm.NewProvider("openai", map[string]any{
		"api_key":     "your-api-key-here",
		"chat_model":  "gpt-4o",       // 使用 GPT-4o 模型
		"temperature": 0.7,            // 控制随机性（0.0-2.0）
		"top_p":       0.9,            // 核采样参数
		"max_tokens":  2000,           // 最大生成 token 数
		"stop":        []string{"\n"}, // 遇到换行符停止
	})
	if err != nil {
		log.Fatal(err)
	}

	// 进行多轮对话
	ctx := context.Background()
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "你是一个专业的技术顾问"},
		{Role: llm.RoleUser, Content: "什么是微服务架构？"},
	}

	response, err := provider.Chat(ctx, messages)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Response:", response.Content)
	if response.TokenUsage != nil {
		fmt.Println("Tokens:", response.TokenUsage.TotalTokens)
	}
}

// 演示如何使用 Embedding API 生成向量嵌入。
func ExampleNewProvider_embedding() {
	provider, err := llm.NewEmbeddingProvider("openai", map[string]any{
		"api_key":     "your-api-key-here",
		"embed_model": "text-embedding-ada-002",
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	embeddings, err := provider.Embed(ctx, []string{"文本1", "文本2"})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("向量数量:", len(embeddings))
}
