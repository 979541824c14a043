package store

import (
	"context"
	"strconv"
	"unicode/utf8"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

// milvusVarCharMax bounds the text field; Milvus VarChar is limited to 65535.
const milvusVarCharMax = 65535

// milvusStore talks to Milvus (or Zilliz Cloud) over its gRPC SDK.
type milvusStore struct {
	client *milvusclient.Client
	apiKey string
}

func newMilvusStore(ctx context.Context, cfg Config) (*milvusStore, error) {
	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: cfg.URL,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, classifyError(err, cfg.APIKey)
	}
	return &milvusStore{client: client, apiKey: cfg.APIKey}, nil
}

// ensureCollection creates and loads the collection on first use.
func (s *milvusStore) ensureCollection(ctx context.Context, name string) error {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return classifyError(err, s.apiKey)
	}
	if exists {
		return nil
	}

	schema := entity.NewSchema().
		WithName(name).
		WithDescription("ingested documents").
		WithAutoID(true)

	schema.WithField(
		entity.NewField().
			WithName("id").
			WithDataType(entity.FieldTypeInt64).
			WithIsPrimaryKey(true).
			WithIsAutoID(true),
	)
	schema.WithField(
		entity.NewField().
			WithName("embedding").
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(EmbeddingDim),
	)
	schema.WithField(
		entity.NewField().
			WithName("text").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(milvusVarCharMax),
	)
	schema.WithField(
		entity.NewField().
			WithName("title").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(512),
	)

	if err := s.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, schema)); err != nil {
		return classifyError(err, s.apiKey)
	}

	idx := index.NewIvfFlatIndex(entity.COSINE, 128)
	createIdxTask, err := s.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, "embedding", idx))
	if err != nil {
		return classifyError(err, s.apiKey)
	}
	if err := createIdxTask.Await(ctx); err != nil {
		return classifyError(err, s.apiKey)
	}

	loadTask, err := s.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return classifyError(err, s.apiKey)
	}
	if err := loadTask.Await(ctx); err != nil {
		return classifyError(err, s.apiKey)
	}

	return nil
}

// Upsert inserts vectors as typed columns and flushes so a subsequent search
// sees them. The collection primary key is auto-generated; document ids are
// carried in the title ordering instead.
func (s *milvusStore) Upsert(ctx context.Context, collection string, vecs []Vector) (int, error) {
	if len(vecs) == 0 {
		return 0, nil
	}

	if err := s.ensureCollection(ctx, collection); err != nil {
		return 0, err
	}

	embeddings := make([][]float32, len(vecs))
	texts := make([]string, len(vecs))
	titles := make([]string, len(vecs))
	for i, vec := range vecs {
		embeddings[i] = vec.Values
		if text, ok := vec.Payload["text"].(string); ok {
			texts[i] = truncateVarChar(text, milvusVarCharMax)
		}
		titles[i] = ingestTitle(vec, i)
	}

	columns := []column.Column{
		column.NewColumnFloatVector("embedding", EmbeddingDim, embeddings),
		column.NewColumnVarChar("text", texts),
		column.NewColumnVarChar("title", titles),
	}

	result, err := s.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(collection, columns...))
	if err != nil {
		return 0, classifyError(err, s.apiKey)
	}

	flushTask, err := s.client.Flush(ctx, milvusclient.NewFlushOption(collection))
	if err != nil {
		return 0, classifyError(err, s.apiKey)
	}
	if err := flushTask.Await(ctx); err != nil {
		return 0, classifyError(err, s.apiKey)
	}

	count := int(result.InsertCount)
	if count == 0 {
		count = len(vecs)
	}
	return count, nil
}

// Search loads the collection and returns the topK nearest entities.
func (s *milvusStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error) {
	loadTask, err := s.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(collection))
	if err != nil {
		return nil, classifyError(err, s.apiKey)
	}
	if err := loadTask.Await(ctx); err != nil {
		return nil, classifyError(err, s.apiKey)
	}

	vectors := []entity.Vector{entity.FloatVector(vector)}

	resultSets, err := s.client.Search(ctx, milvusclient.NewSearchOption(collection, topK, vectors).
		WithANNSField("embedding").
		WithSearchParam("nprobe", "16").
		WithOutputFields("text", "title"))
	if err != nil {
		return nil, classifyError(err, s.apiKey)
	}

	if len(resultSets) == 0 {
		return []SearchResult{}, nil
	}

	set := resultSets[0]
	results := make([]SearchResult, 0, set.ResultCount)
	for i := 0; i < set.ResultCount; i++ {
		result := SearchResult{
			Score:   set.Scores[i],
			Payload: map[string]any{},
		}

		if idCol, ok := set.IDs.(*column.ColumnInt64); ok {
			result.ID = strconv.FormatInt(idCol.Data()[i], 10)
		}

		for _, field := range set.Fields {
			if col, ok := field.(*column.ColumnVarChar); ok {
				switch col.Name() {
				case "text":
					result.Payload["text"] = col.Data()[i]
				case "title":
					result.Payload["title"] = col.Data()[i]
				}
			}
		}

		result.Title = extractTitle(result.Payload, result.ID)
		result.Content = extractContent(result.Payload)
		results = append(results, result)
	}

	return results, nil
}

// Close closes the gRPC connection.
func (s *milvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// truncateVarChar bounds a string for a VarChar column without splitting a
// multibyte rune.
func truncateVarChar(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

var _ VectorStore = (*milvusStore)(nil)
