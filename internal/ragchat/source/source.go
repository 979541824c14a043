// Package source fetches records from operational data stores for ingestion.
//
// Each fetcher is opened with the caller's connection URI, used for a single
// request, and closed. Credentials live only in the request scope; error
// messages carry redacted URIs only.
package source

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kart-io/rag-chat/internal/pkg/redact"
	apierrors "github.com/kart-io/rag-chat/pkg/utils/errors"
)

// Supported data source type tags.
const (
	TypeMongoDB  = "mongodb"
	TypeMySQL    = "mysql"
	TypePostgres = "postgres"
)

// FetchSpec describes one fetch against an opened source.
type FetchSpec struct {
	// Collection is the MongoDB collection or SQL table name.
	Collection string

	// Filter narrows the fetch: a JSON document for MongoDB, a WHERE
	// expression for SQL sources. Empty means no filter.
	Filter string

	// Limit caps the number of records returned. Zero means driver default.
	Limit int
}

// Fetcher reads records from one data source connection.
type Fetcher interface {
	// Fetch returns up to spec.Limit records as generic documents.
	Fetch(ctx context.Context, spec FetchSpec) ([]map[string]any, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Open connects to the data source identified by sourceType using the
// caller-supplied connection URI.
func Open(ctx context.Context, sourceType, uri string) (Fetcher, error) {
	if uri == "" {
		return nil, apierrors.ErrDatabaseURLRequired
	}

	switch strings.ToLower(sourceType) {
	case TypeMongoDB:
		return newMongoFetcher(ctx, uri)
	case TypeMySQL:
		return newSQLFetcher(ctx, TypeMySQL, uri)
	case TypePostgres:
		return newSQLFetcher(ctx, TypePostgres, uri)
	default:
		return nil, apierrors.ErrDataSourceNotSupported.
			WithMessagef("Data source type '%s' not supported yet", sourceType)
	}
}

// tableNameRe guards collection and table identifiers that are interpolated
// into SQL statements.
var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// ValidateTableName rejects identifiers that could carry SQL injection.
func ValidateTableName(name string) error {
	if name == "" || !tableNameRe.MatchString(name) {
		return apierrors.ErrInvalidTableName
	}
	return nil
}

// classifyError maps a driver failure onto the error taxonomy. The returned
// message contains at most a redacted URI, never credentials.
func classifyError(err error, uri string) error {
	if err == nil {
		return nil
	}

	var e *apierrors.Errno
	if stderrors.As(err, &e) {
		return err
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return apierrors.ErrUpstreamTimeout.WithCause(err)
	}

	if isAuthError(err) {
		return apierrors.ErrDataSourceAuthFailed.WithCause(err)
	}

	return apierrors.ErrDataSourceUnavailable.
		WithMessagef("Data source at %s is unavailable", redact.URI(uri)).
		WithCause(err)
}

// isAuthError reports whether a driver error indicates rejected credentials.
func isAuthError(err error) bool {
	var cmdErr mongo.CommandError
	if stderrors.As(err, &cmdErr) && cmdErr.Code == 18 { // AuthenticationFailed
		return true
	}

	var mysqlErr *gomysql.MySQLError
	if stderrors.As(err, &mysqlErr) && mysqlErr.Number == 1045 { // ER_ACCESS_DENIED_ERROR
		return true
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == "28P01" { // invalid_password
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "authentication failed") ||
		strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "password authentication failed")
}
