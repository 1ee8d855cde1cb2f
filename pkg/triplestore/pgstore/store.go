// Package pgstore implements the triple store client on PostgreSQL.
// Triples live in a single relation and queries compile to SQL, so an
// existing database can serve navigation without a dedicated SPARQL
// endpoint in front of it.
package pgstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/metrics"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
)

const backendName = "postgres"

// Config configures the database connection.
type Config struct {
	// URL is a libpq connection string or postgres:// URL.
	URL     string
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Store is a PostgreSQL-backed triple store client.
type Store struct {
	pool    *pgxpool.Pool
	logger  logging.Logger
	metrics *metrics.Registry

	mu        sync.RWMutex
	closed    bool
	available bool
}

var _ triplestore.Client = (*Store)(nil)

// New connects to the database, verifies the connection and runs the
// schema migration. Unlike the SPARQL client an unreachable database is
// an error: the DSN comes from configuration and retrying a wrong one
// never helps.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("postgres URL required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}

	config, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		pool:    pool,
		logger:  cfg.Logger.With(logging.Component("pgstore")),
		metrics: cfg.Metrics,
	}

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s.setAvailable(true)
	s.logger.Info("database ready")
	return s, nil
}

// Select compiles the query to SQL and runs it. The result is fully
// materialized before returning, so a cancelled context yields an error
// and no rows.
func (s *Store) Select(ctx context.Context, q triplestore.SelectQuery) (*triplestore.ResultSet, error) {
	if s.isClosed() {
		return nil, &triplestore.StoreError{Op: "select", Backend: backendName, Cause: triplestore.ErrClosed}
	}

	start := time.Now()
	sql, params := renderSelect(q)

	rows, err := s.pool.Query(ctx, sql, params...)
	if err != nil {
		s.record("error", start)
		s.setAvailable(false)
		return nil, triplestore.Unavailable("select", backendName, err)
	}
	defer rows.Close()

	rs, err := scanRows(rows, q.Vars)
	if err != nil {
		s.record("error", start)
		s.setAvailable(false)
		return nil, triplestore.Unavailable("select", backendName, err)
	}

	s.record("ok", start)
	s.setAvailable(true)
	return rs, nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.isClosed() {
		return &triplestore.StoreError{Op: "ping", Backend: backendName, Cause: triplestore.ErrClosed}
	}
	if err := s.pool.Ping(ctx); err != nil {
		s.setAvailable(false)
		return triplestore.Unavailable("ping", backendName, err)
	}
	s.setAvailable(true)
	return nil
}

// Close releases the connection pool. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	already := s.closed
	s.closed = true
	s.mu.Unlock()
	if !already {
		s.setAvailable(false)
		s.pool.Close()
	}
	return nil
}

// Available reports the outcome of the most recent database contact.
func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && s.available
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) record(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordStoreQuery(backendName, status, time.Since(start))
	}
}

func (s *Store) setAvailable(ready bool) {
	s.mu.Lock()
	s.available = ready
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SetStoreAvailable(backendName, ready)
	}
}

// scanRows reads every result row. Each projected variable occupies two
// columns, its text value and an IRI flag, both NULL when the variable
// is unbound in that row.
func scanRows(rows pgx.Rows, vars []string) (*triplestore.ResultSet, error) {
	rs := &triplestore.ResultSet{Vars: vars, Rows: []triplestore.Row{}}
	for rows.Next() {
		texts := make([]*string, len(vars))
		iris := make([]*bool, len(vars))
		dest := make([]any, 0, len(vars)*2)
		for i := range vars {
			dest = append(dest, &texts[i], &iris[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(triplestore.Row, len(vars))
		for i, v := range vars {
			if texts[i] == nil {
				continue
			}
			kind := triplestore.ValueLiteral
			if iris[i] != nil && *iris[i] {
				kind = triplestore.ValueIRI
			}
			row[v] = &triplestore.Value{Kind: kind, Text: *texts[i]}
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}
