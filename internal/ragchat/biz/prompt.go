package biz

import (
	"fmt"
	"strings"

	"github.com/kart-io/rag-chat/internal/ragchat/store"
)

// 提示词模板与系统消息为服务端常量，随 README 一同记录，不随请求变化。
const (
	systemMessage = "You are a helpful AI assistant that answers questions based on provided context."

	promptTemplate = `You are a helpful AI assistant. Use the following context to answer the user's question. If the context doesn't contain relevant information, say so clearly.

Context:
%s

Question: %s

Answer:`
)

// buildContext 取检索结果的前 promptContextDocs 条拼接为上下文块，
// 条目之间以空行分隔。
func buildContext(results []store.SearchResult) string {
	limit := promptContextDocs
	if len(results) < limit {
		limit = len(results)
	}

	blocks := make([]string, 0, limit)
	for _, r := range results[:limit] {
		blocks = append(blocks, fmt.Sprintf("Document: %s\nContent: %s", r.Title, r.Content))
	}
	return strings.Join(blocks, "\n\n")
}

// buildPrompt 组装最终提示词。检索结果为空时上下文块为空。
func buildPrompt(query string, results []store.SearchResult) string {
	return fmt.Sprintf(promptTemplate, buildContext(results), query)
}

// buildSources 将全部 top-k 检索结果转换为响应引用列表。
// 返回值永远非 nil，空检索序列化为 [] 而非 null。
func buildSources(results []store.SearchResult) []ChatSource {
	sources := make([]ChatSource, len(results))
	for i, r := range results {
		sources[i] = ChatSource{Title: r.Title, Score: r.Score}
	}
	return sources
}
