package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

const preparedBinaryParam = "disable_prepared_binary_result"

// Open connects through an otelsql-instrumented lib/pq driver, so every
// query gets a client span and the pool reports connection stats.
func Open(ctx context.Context, rawURL string, disablePreparedBinary bool) (*sqlx.DB, error) {
	opts := instrumentationOptions(DatabaseName(rawURL))
	db, err := otelsqlx.ConnectContext(ctx, "postgres", NormalizeURL(rawURL, disablePreparedBinary), opts...)
	if err != nil {
		return nil, fmt.Errorf("connect postgres db=%q: %w", DatabaseName(rawURL), err)
	}
	otelsql.ReportDBStatsMetrics(db.DB, opts...)
	return db, nil
}

func instrumentationOptions(dbName string) []otelsql.Option {
	opts := []otelsql.Option{
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
	}
	if dbName != "" {
		opts = append(opts, otelsql.WithDBName(dbName))
	}
	return opts
}

// NormalizeURL adds disable_prepared_binary_result=yes to URL-style DSNs
// unless the caller already chose a value. Key/value DSNs are returned as is.
func NormalizeURL(raw string, disablePreparedBinary bool) string {
	if !disablePreparedBinary {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	if query.Get(preparedBinaryParam) != "" {
		return raw
	}
	query.Set(preparedBinaryParam, "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// DatabaseName extracts the database from either DSN style, for logs.
func DatabaseName(raw string) string {
	raw = strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		return strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
	}

	for _, token := range strings.Fields(raw) {
		if key, value, ok := strings.Cut(token, "="); ok && key == "dbname" {
			return strings.Trim(value, `"'`)
		}
	}
	return ""
}
