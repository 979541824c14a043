package store

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kart-io/rag-chat/pkg/utils/httpclient"
	"github.com/kart-io/rag-chat/pkg/utils/id"
	"github.com/kart-io/rag-chat/pkg/utils/json"
)

// qdrantStore talks to the Qdrant REST API.
type qdrantStore struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
}

func newQdrantStore(cfg Config) *qdrantStore {
	return &qdrantStore{
		baseURL: normalizeBaseURL(cfg.URL),
		apiKey:  cfg.APIKey,
		client:  httpclient.NewClient(cfg.Timeout),
	}
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ensureCollection creates the collection if it does not exist. A conflict
// response means another writer got there first and is not an error.
func (s *qdrantStore) ensureCollection(ctx context.Context, collection string) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     EmbeddingDim,
			"distance": "Cosine",
		},
	}

	req, err := s.newRequest(ctx, http.MethodPut, "/collections/"+collection, body)
	if err != nil {
		return err
	}

	if err := s.client.DoJSON(req, nil); err != nil {
		var statusErr *httpclient.StatusError
		if stderrors.As(err, &statusErr) &&
			(statusErr.StatusCode == http.StatusConflict || strings.Contains(statusErr.Body, "already exists")) {
			return nil
		}
		return classifyError(err, s.apiKey)
	}
	return nil
}

// Upsert writes all vectors in one batch with wait=true so a subsequent
// search sees them.
func (s *qdrantStore) Upsert(ctx context.Context, collection string, vecs []Vector) (int, error) {
	if len(vecs) == 0 {
		return 0, nil
	}

	if err := s.ensureCollection(ctx, collection); err != nil {
		return 0, err
	}

	points := make([]qdrantPoint, len(vecs))
	for i, vec := range vecs {
		points[i] = qdrantPoint{
			// Qdrant point ids must be UUIDs or unsigned ints; derive a
			// stable UUID from the document id so re-ingestion overwrites
			// instead of duplicating.
			ID:      id.DeterministicUUID(vec.ID),
			Vector:  vec.Values,
			Payload: vec.Payload,
		}
	}

	req, err := s.newRequest(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true",
		map[string]any{"points": points})
	if err != nil {
		return 0, err
	}

	if err := s.client.DoJSON(req, nil); err != nil {
		return 0, classifyError(err, s.apiKey)
	}
	return len(vecs), nil
}

// Search returns the topK nearest points with payloads.
func (s *qdrantStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}

	req, err := s.newRequest(ctx, http.MethodPost, "/collections/"+collection+"/points/search", body)
	if err != nil {
		return nil, err
	}

	var out struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.client.DoJSON(req, &out); err != nil {
		return nil, classifyError(err, s.apiKey)
	}

	results := make([]SearchResult, 0, len(out.Result))
	for _, hit := range out.Result {
		hitID := fmt.Sprintf("%v", hit.ID)
		payload := hit.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		results = append(results, SearchResult{
			ID:      hitID,
			Score:   hit.Score,
			Title:   extractTitle(payload, hitID),
			Content: extractContent(payload),
			Payload: payload,
		})
	}
	return results, nil
}

// Close is a no-op for the REST client.
func (s *qdrantStore) Close(ctx context.Context) error {
	return nil
}

func (s *qdrantStore) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	return req, nil
}

var _ VectorStore = (*qdrantStore)(nil)
