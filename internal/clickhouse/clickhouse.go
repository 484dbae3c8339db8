package clickhouse

import (
	"context"

	clickhouse_go "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/flexprice/billingcore/internal/config"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/sentry"
	sentrygo "github.com/getsentry/sentry-go"
)

// Querier is the read surface repositories need from ClickHouse
type Querier interface {
	QueryRow(ctx context.Context, query string, args ...any) driver.Row
	Select(ctx context.Context, dest any, query string, args ...any) error
}

type ClickHouseStore struct {
	conn   driver.Conn
	sentry *sentry.Service
}

func NewClickHouseStore(config *config.Configuration, sentryService *sentry.Service) (*ClickHouseStore, error) {
	options := config.ClickHouse.GetClientOptions()
	conn, err := clickhouse_go.Open(options)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to initialize clickhouse client").
			Mark(ierr.ErrDatabase)
	}

	return &ClickHouseStore{
		conn:   conn,
		sentry: sentryService,
	}, nil
}

// NewFromConn wraps an already opened connection
func NewFromConn(conn driver.Conn, sentryService *sentry.Service) *ClickHouseStore {
	return &ClickHouseStore{conn: conn, sentry: sentryService}
}

// QueryRow traces and delegates to the underlying connection
func (s *ClickHouseStore) QueryRow(ctx context.Context, query string, args ...any) driver.Row {
	span, ctx := s.startSpan(ctx, "clickhouse.query_row", query, len(args))
	defer sentry.FinishSpan(span)

	return s.conn.QueryRow(ctx, query, args...)
}

// Select traces and delegates to the underlying connection
func (s *ClickHouseStore) Select(ctx context.Context, dest any, query string, args ...any) error {
	span, ctx := s.startSpan(ctx, "clickhouse.select", query, len(args))
	defer sentry.FinishSpan(span)

	return s.conn.Select(ctx, dest, query, args...)
}

// Exec runs a statement without results, e.g. DDL from cmd/migrate
func (s *ClickHouseStore) Exec(ctx context.Context, query string, args ...any) error {
	span, ctx := s.startSpan(ctx, "clickhouse.exec", query, len(args))
	defer sentry.FinishSpan(span)

	return s.conn.Exec(ctx, query, args...)
}

func (s *ClickHouseStore) Ping(ctx context.Context) error {
	span, ctx := s.startSpan(ctx, "clickhouse.ping", "", 0)
	defer sentry.FinishSpan(span)

	return s.conn.Ping(ctx)
}

func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}

func (s *ClickHouseStore) startSpan(ctx context.Context, operation, query string, argsCount int) (*sentrygo.Span, context.Context) {
	if s.sentry == nil {
		return nil, ctx
	}

	params := map[string]interface{}{"args_count": argsCount}
	if query != "" {
		params["query"] = truncateQuery(query)
	}
	return s.sentry.StartClickHouseSpan(ctx, operation, params)
}

// Truncate query to avoid sending too much data to Sentry
func truncateQuery(query string) string {
	const maxQueryLength = 1000
	if len(query) > maxQueryLength {
		return query[:maxQueryLength] + "..."
	}
	return query
}
