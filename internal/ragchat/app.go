package ragchat

import (
	"context"

	"github.com/kart-io/rag-chat/pkg/app"
)

const (
	appName        = "rag-chat"
	appDescription = `RAG Chat API

A retrieval-augmented generation demo service.

This server provides:
  - Chat queries answered from a vector store with source citations
  - Ingestion of records from MongoDB/MySQL/PostgreSQL into a vector store

Provider and database credentials travel with each request and are never
stored server-side.`
)

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(opts)
		}),
	)
}

// Run runs the rag-chat service with the given options.
func Run(opts *Options) error {
	ctx := context.Background()

	server, err := NewServer(ctx, opts)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}
