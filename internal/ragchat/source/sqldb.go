package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	mysqldriver "gorm.io/driver/mysql"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqlFetcher reads rows from a MySQL or PostgreSQL table through GORM.
type sqlFetcher struct {
	db  *gorm.DB
	uri string
}

func newSQLFetcher(ctx context.Context, sourceType, uri string) (*sqlFetcher, error) {
	var dialector gorm.Dialector
	switch sourceType {
	case TypeMySQL:
		dialector = mysqldriver.Open(mysqlDSN(uri))
	case TypePostgres:
		// pgx accepts URL-style connection strings directly.
		dialector = postgresdriver.Open(uri)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, classifyError(err, uri)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// One-shot fetch per request; keep the pool minimal.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, classifyError(err, uri)
	}

	return &sqlFetcher{db: db, uri: uri}, nil
}

// Fetch returns up to spec.Limit rows from the table, optionally narrowed by
// a WHERE expression.
func (f *sqlFetcher) Fetch(ctx context.Context, spec FetchSpec) ([]map[string]any, error) {
	if err := ValidateTableName(spec.Collection); err != nil {
		return nil, err
	}

	tx := f.db.WithContext(ctx).Table(spec.Collection)
	if spec.Filter != "" {
		tx = tx.Where(spec.Filter)
	}
	if spec.Limit > 0 {
		tx = tx.Limit(spec.Limit)
	}

	var rows []map[string]any
	if err := tx.Find(&rows).Error; err != nil {
		return nil, classifyError(err, f.uri)
	}

	for _, row := range rows {
		normalizeRow(row)
	}
	return rows, nil
}

// Close releases the connection pool.
func (f *sqlFetcher) Close(ctx context.Context) error {
	sqlDB, err := f.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// normalizeRow converts driver byte slices to strings so rows flatten to
// readable JSON instead of base64 blobs.
func normalizeRow(row map[string]any) {
	for key, value := range row {
		if b, ok := value.([]byte); ok {
			row[key] = string(b)
		}
	}
}

// mysqlDSN converts a URL-style connection URI into the go-sql-driver DSN
// form. Inputs already in DSN form pass through unchanged.
func mysqlDSN(uri string) string {
	if !strings.Contains(uri, "://") {
		return uri
	}

	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}

	var userinfo string
	if u.User != nil {
		userinfo = u.User.Username()
		if password, ok := u.User.Password(); ok {
			userinfo += ":" + password
		}
		userinfo += "@"
	}

	host := u.Host
	if u.Port() == "" {
		host += ":3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	return fmt.Sprintf("%stcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", userinfo, host, dbName)
}

var _ Fetcher = (*sqlFetcher)(nil)
