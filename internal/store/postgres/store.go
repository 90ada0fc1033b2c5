// Package postgres provides Postgres-backed persistence for crawl results.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leadspider/spider/internal/crawl"
	"github.com/leadspider/spider/internal/signals"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for crawl results.
type Config struct {
	DSN             string
	DocumentsTable  string
	SignalsTable    string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Store writes crawl documents and signal records into Postgres.
type Store struct {
	pool           execCloser
	documentsTable string
	signalsTable   string
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newStore(pool, cfg.DocumentsTable, cfg.SignalsTable)
}

// NewWithPool constructs a Store from an existing pool (primarily for
// testing).
func NewWithPool(pool execCloser, documentsTable, signalsTable string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newStore(pool, documentsTable, signalsTable)
}

func newStore(pool execCloser, documentsTable, signalsTable string) (*Store, error) {
	if documentsTable == "" {
		documentsTable = "documents"
	}
	if signalsTable == "" {
		signalsTable = "signals"
	}
	for _, table := range []string{documentsTable, signalsTable} {
		if !validTableName.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return &Store{
		pool:           pool,
		documentsTable: documentsTable,
		signalsTable:   signalsTable,
	}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SaveDocument inserts one document row keyed by the run it belongs to.
func (s *Store) SaveDocument(ctx context.Context, runID string, doc crawl.Document) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("document store is not configured")
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if doc.URL == "" {
		return fmt.Errorf("document url is required")
	}
	linksJSON, err := json.Marshal(normalizeStrings(doc.Links))
	if err != nil {
		return fmt.Errorf("marshal outbound links: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_uuid,
	url,
	title,
	body_text,
	outbound_links,
	depth,
	status_code,
	bytes,
	duration_ms,
	fetched_at,
	blob_uri
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`, s.documentsTable)

	args := []any{
		runID,
		doc.URL,
		doc.Title,
		doc.Text,
		linksJSON,
		doc.Depth,
		doc.StatusCode,
		doc.Bytes,
		doc.DurationMs,
		doc.FetchedAt,
		doc.BlobURI,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// SaveDocuments inserts every document of one run, stopping at the first
// failure.
func (s *Store) SaveDocuments(ctx context.Context, runID string, docs []crawl.Document) error {
	for _, doc := range docs {
		if err := s.SaveDocument(ctx, runID, doc); err != nil {
			return err
		}
	}
	return nil
}

// SaveSignals inserts the signal records of one run, stopping at the first
// failure.
func (s *Store) SaveSignals(ctx context.Context, runID string, records []signals.Record) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("document store is not configured")
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_uuid,
	url,
	emails,
	phones,
	ctas
) VALUES (
	$1,$2,$3,$4,$5
)`, s.signalsTable)

	for _, rec := range records {
		emailsJSON, err := json.Marshal(normalizeStrings(rec.Emails))
		if err != nil {
			return fmt.Errorf("marshal emails: %w", err)
		}
		phonesJSON, err := json.Marshal(normalizeStrings(rec.Phones))
		if err != nil {
			return fmt.Errorf("marshal phones: %w", err)
		}
		ctasJSON, err := json.Marshal(normalizeStrings(rec.CTAs))
		if err != nil {
			return fmt.Errorf("marshal ctas: %w", err)
		}
		args := []any{runID, rec.URL, emailsJSON, phonesJSON, ctasJSON}
		if _, err := s.pool.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert signal record: %w", err)
		}
	}
	return nil
}

func normalizeStrings(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	return append([]string(nil), values...)
}
