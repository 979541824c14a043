// Package main is the entry point for the RAG Chat API.
//
//	@title						RAG Chat API
//	@version					1.0.0
//	@description				检索增强问答与数据摄取服务 - 凭证随请求携带，服务端无状态
//
//	@contact.name				RAG Chat Team
//	@contact.url				https://github.com/kart-io/rag-chat
//
//	@license.name				Apache 2.0
//	@license.url				http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host						localhost:8000
//	@BasePath					/
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	_ "github.com/kart-io/rag-chat/api/swagger"
	"github.com/kart-io/rag-chat/internal/ragchat"
)

func main() {
	ragchat.NewApp().Run()
}
