package store

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/kart-io/rag-chat/pkg/utils/httpclient"
	"github.com/kart-io/rag-chat/pkg/utils/json"
)

// pineconeStore talks to a Pinecone index over its data-plane REST API.
// Indexes are provisioned out of band; cfg.URL is the index host.
type pineconeStore struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
}

func newPineconeStore(cfg Config) *pineconeStore {
	return &pineconeStore{
		baseURL: normalizeBaseURL(cfg.URL),
		apiKey:  cfg.APIKey,
		client:  httpclient.NewClient(cfg.Timeout),
	}
}

type pineconeVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Upsert writes all vectors in one batch.
func (s *pineconeStore) Upsert(ctx context.Context, collection string, vecs []Vector) (int, error) {
	if len(vecs) == 0 {
		return 0, nil
	}

	vectors := make([]pineconeVector, len(vecs))
	for i, vec := range vecs {
		vectors[i] = pineconeVector{
			ID:       vec.ID,
			Values:   vec.Values,
			Metadata: pineconeMetadata(vec, i),
		}
	}

	req, err := s.newRequest(ctx, "/vectors/upsert", map[string]any{
		"vectors":   vectors,
		"namespace": "",
	})
	if err != nil {
		return 0, err
	}

	var out struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	if err := s.client.DoJSON(req, &out); err != nil {
		return 0, classifyError(err, s.apiKey)
	}

	if out.UpsertedCount > 0 {
		return out.UpsertedCount, nil
	}
	return len(vecs), nil
}

// Search queries the index with metadata included so sources can be built
// from the matches.
func (s *pineconeStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error) {
	req, err := s.newRequest(ctx, "/query", map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float32        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := s.client.DoJSON(req, &out); err != nil {
		return nil, classifyError(err, s.apiKey)
	}

	results := make([]SearchResult, 0, len(out.Matches))
	for _, match := range out.Matches {
		payload := match.Metadata
		if payload == nil {
			payload = map[string]any{}
		}
		results = append(results, SearchResult{
			ID:      match.ID,
			Score:   match.Score,
			Title:   extractTitle(payload, match.ID),
			Content: extractContent(payload),
			Payload: payload,
		})
	}
	return results, nil
}

// Close is a no-op for the REST client.
func (s *pineconeStore) Close(ctx context.Context) error {
	return nil
}

func (s *pineconeStore) newRequest(ctx context.Context, path string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.apiKey)
	return req, nil
}

// pineconeMetadata shapes a vector payload into Pinecone metadata. Pinecone
// metadata values must be flat (strings, numbers, booleans), so the nested
// payload is projected onto text/content/title keys.
func pineconeMetadata(vec Vector, i int) map[string]any {
	text, _ := vec.Payload["text"].(string)

	content := text
	if meta, ok := vec.Payload["metadata"].(map[string]any); ok {
		if preview, ok := meta["content_preview"].(string); ok && preview != "" {
			content = preview
		}
	}

	return map[string]any{
		"text":    text,
		"content": content,
		"title":   ingestTitle(vec, i),
	}
}

var _ VectorStore = (*pineconeStore)(nil)
