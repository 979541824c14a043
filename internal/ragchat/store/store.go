// Package store adapts vector databases behind a single capability
// interface.
//
// A store is opened with the caller's URL and API key, used for a single
// request, and closed. Nothing credential-bearing outlives the request.
package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/kart-io/rag-chat/internal/pkg/redact"
	apierrors "github.com/kart-io/rag-chat/pkg/utils/errors"
	"github.com/kart-io/rag-chat/pkg/utils/httpclient"
)

// EmbeddingDim is the vector dimensionality used across all stores:
// text-embedding-ada-002 output.
const EmbeddingDim = 1536

// Supported vector store type tags.
const (
	TypeQdrant   = "qdrant"
	TypePinecone = "pinecone"
	TypeMilvus   = "milvus"
)

// defaultTimeout bounds individual store operations.
const defaultTimeout = 30 * time.Second

// Config selects and authenticates a vector store for one request.
type Config struct {
	// Type is one of the supported type tags.
	Type string

	// URL is the store endpoint (Qdrant URL, Pinecone index host, Milvus
	// address).
	URL string

	// APIKey authenticates against the store. Write-only: it never appears
	// in responses, logs, or error messages.
	APIKey string

	// Timeout bounds each store operation. Zero selects the default.
	Timeout time.Duration
}

// Vector is one embedded document staged for upsert.
type Vector struct {
	ID      string
	Values  []float32
	Payload map[string]any
}

// SearchResult is one similarity hit. Title and Content are extracted from
// the payload with documented fallbacks so callers can render sources
// without store-specific knowledge.
type SearchResult struct {
	ID      string
	Score   float32
	Title   string
	Content string
	Payload map[string]any
}

// VectorStore reads and writes one vector collection provider.
type VectorStore interface {
	// Upsert writes vectors into the collection, creating it when the
	// provider supports that, and returns the number of vectors written.
	Upsert(ctx context.Context, collection string, vecs []Vector) (int, error)

	// Search returns the topK nearest neighbours of vector.
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Open connects to the vector store described by cfg.
func Open(ctx context.Context, cfg Config) (VectorStore, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	switch strings.ToLower(cfg.Type) {
	case TypeQdrant:
		if cfg.URL == "" {
			return nil, apierrors.ErrDatabaseURLRequired.
				WithMessage("Database URL is required for Qdrant")
		}
		return newQdrantStore(cfg), nil
	case TypePinecone:
		if cfg.URL == "" {
			return nil, apierrors.ErrDatabaseURLRequired.
				WithMessage("Database URL is required for Pinecone")
		}
		return newPineconeStore(cfg), nil
	case TypeMilvus:
		if cfg.URL == "" {
			return nil, apierrors.ErrDatabaseURLRequired.
				WithMessage("Database URL is required for Milvus")
		}
		return newMilvusStore(ctx, cfg)
	default:
		return nil, apierrors.ErrVectorDBNotSupported.
			WithMessagef("Vector DB type '%s' not supported yet", cfg.Type)
	}
}

// extractTitle resolves a display title from a search payload.
func extractTitle(payload map[string]any, id string) string {
	if title, ok := payload["title"].(string); ok && title != "" {
		return title
	}
	return "Document " + id
}

// extractContent resolves displayable content from a search payload.
func extractContent(payload map[string]any) string {
	if content, ok := payload["content"].(string); ok && content != "" {
		return content
	}
	if text, ok := payload["text"].(string); ok && text != "" {
		return text
	}
	return "No content available"
}

// ingestTitle derives the display title for an ingested vector from its
// payload's doc_index. The source record index may differ from the batch
// position when records were skipped during embedding.
func ingestTitle(vec Vector, batchIndex int) string {
	docIndex := batchIndex
	if meta, ok := vec.Payload["metadata"].(map[string]any); ok {
		switch idx := meta["doc_index"].(type) {
		case int:
			docIndex = idx
		case int64:
			docIndex = int(idx)
		case float64:
			docIndex = int(idx)
		}
	}
	return fmt.Sprintf("Ingested Document %d", docIndex)
}

// normalizeBaseURL trims trailing slashes and defaults to https for
// scheme-less hosts (Pinecone index hosts are handed out without a scheme).
func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(raw, "/")
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return raw
}

// classifyError maps an upstream store failure onto the error taxonomy. Any
// upstream text proxied into the message is scrubbed of the store credential
// first.
func classifyError(err error, apiKey string) error {
	if err == nil {
		return nil
	}

	var e *apierrors.Errno
	if stderrors.As(err, &e) {
		return err
	}

	var statusErr *httpclient.StatusError
	if stderrors.As(err, &statusErr) {
		// The body can proxy arbitrary upstream text. Keep only a scrubbed
		// rendering in the cause chain so logged errors cannot carry the
		// credential either.
		cause := stderrors.New(redact.Scrub(err.Error(), apiKey))
		switch {
		case statusErr.StatusCode == 401 || statusErr.StatusCode == 403:
			return apierrors.ErrVectorStoreAuthFailed.WithCause(cause)
		case statusErr.StatusCode == 429 || statusErr.StatusCode >= 500:
			return apierrors.ErrVectorStoreUnavailable.WithCause(cause)
		default:
			detail := redact.Scrub(strings.TrimSpace(statusErr.Body), apiKey)
			if len(detail) > 256 {
				detail = detail[:256] + "..."
			}
			return apierrors.ErrInvalidParam.
				WithMessagef("Vector database request failed: %s", detail).
				WithCause(cause)
		}
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return apierrors.ErrUpstreamTimeout.WithCause(err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return apierrors.ErrUpstreamTimeout.WithCause(err)
	}

	// gRPC-transported stores (Milvus) surface auth failures as status text.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unauthenticated") ||
		strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "auth check failure") {
		return apierrors.ErrVectorStoreAuthFailed.WithCause(err)
	}

	return apierrors.ErrVectorStoreUnavailable.WithCause(err)
}
