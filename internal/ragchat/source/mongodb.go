package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/rag-chat/internal/pkg/redact"
	apierrors "github.com/kart-io/rag-chat/pkg/utils/errors"
	"github.com/kart-io/rag-chat/pkg/utils/json"
)

// mongoFetcher reads documents from a MongoDB collection.
type mongoFetcher struct {
	client *mongo.Client
	dbName string
	uri    string
}

func newMongoFetcher(ctx context.Context, uri string) (*mongoFetcher, error) {
	dbName, err := databaseFromURI(uri)
	if err != nil {
		return nil, err
	}

	clientOpts := mongoopts.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, classifyError(err, uri)
	}

	// Connect is lazy; ping to surface bad hosts and rejected credentials now.
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, classifyError(err, uri)
	}

	return &mongoFetcher{client: client, dbName: dbName, uri: uri}, nil
}

// Fetch returns up to spec.Limit documents matching the optional JSON filter.
func (f *mongoFetcher) Fetch(ctx context.Context, spec FetchSpec) ([]map[string]any, error) {
	filter := bson.M{}
	if spec.Filter != "" {
		if err := json.Unmarshal([]byte(spec.Filter), &filter); err != nil {
			return nil, apierrors.ErrInvalidFilterQuery.WithCause(err)
		}
	}

	findOpts := mongoopts.Find()
	if spec.Limit > 0 {
		findOpts.SetLimit(int64(spec.Limit))
	}

	cursor, err := f.client.Database(f.dbName).Collection(spec.Collection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, classifyError(err, f.uri)
	}
	defer func() { _ = cursor.Close(ctx) }()

	records := make([]map[string]any, 0, spec.Limit)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		records = append(records, normalizeDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, classifyError(err, f.uri)
	}

	return records, nil
}

// Close disconnects the client.
func (f *mongoFetcher) Close(ctx context.Context) error {
	return f.client.Disconnect(ctx)
}

// databaseFromURI extracts the database name from the URI path.
func databaseFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", apierrors.ErrInvalidParam.
			WithMessagef("Invalid connection URI: %s", redact.URI(uri)).
			WithCause(err)
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if i := strings.Index(dbName, "/"); i >= 0 {
		dbName = dbName[:i]
	}
	if dbName == "" {
		return "", apierrors.ErrInvalidParam.
			WithMessage("Connection URI must include a database name")
	}
	return dbName, nil
}

// normalizeDocument converts BSON-specific values so that records flatten to
// readable JSON. ObjectIDs become hex strings.
func normalizeDocument(doc bson.M) map[string]any {
	record := make(map[string]any, len(doc))
	for key, value := range doc {
		switch v := value.(type) {
		case primitive.ObjectID:
			record[key] = v.Hex()
		case primitive.DateTime:
			record[key] = v.Time().UTC().Format(time.RFC3339)
		default:
			record[key] = value
		}
	}
	return record
}

var _ Fetcher = (*mongoFetcher)(nil)
