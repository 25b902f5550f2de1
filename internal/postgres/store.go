// File path: internal/postgres/store.go

// Package postgres is the read-only gateway to the insurance communications
// warehouse. Every statement that reaches it has already passed validation;
// the store adds pooling, per-query timeouts, and row normalization.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/harborcover/commsight/internal/common"
)

// Store wraps a pooled sqlx.DB connection to Postgres.
type Store struct {
	db               *sqlx.DB
	statementTimeout time.Duration
}

// Open constructs a Store from the environment configuration, with url taking
// precedence over DATABASE_URL when non-empty.
func Open(url string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(url); trimmed != "" {
		cfg.URL = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("database url required")
	}
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	common.Logger().Info("postgres: pool ready",
		"max_open", cfg.MaxOpenConns,
		"max_idle", cfg.MaxIdleConns,
		"statement_timeout", cfg.StatementTimeout)
	return &Store{db: db, statementTimeout: cfg.StatementTimeout}, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sqlx.DB for advanced callers.
func (s *Store) DB() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Healthy reports whether the database answers a ping.
func (s *Store) Healthy(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("postgres store not initialised")
	}
	return s.db.PingContext(ctx)
}

// Query runs one read statement and returns its rows as maps plus the column
// order. The statement timeout from the configuration caps the execution; a
// tighter deadline already on ctx wins.
func (s *Store) Query(ctx context.Context, sqlText string) ([]map[string]any, []string, error) {
	if s == nil || s.db == nil {
		return nil, nil, errors.New("postgres store not initialised")
	}
	if s.statementTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.statementTimeout)
		defer cancel()
	}

	rows, err := s.db.QueryxContext(ctx, sqlText)
	if err != nil {
		return nil, nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		row := make(map[string]any, len(columns))
		if err := rows.MapScan(row); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		for key, value := range row {
			row[key] = normalizeValue(value)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return results, columns, nil
}

// DocumentsForCompany returns the document metadata rows linked to a company,
// newest first.
func (s *Store) DocumentsForCompany(ctx context.Context, companyID int64) ([]DocumentRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres store not initialised")
	}
	if s.statementTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.statementTimeout)
		defer cancel()
	}
	var docs []DocumentRecord
	if err := s.db.SelectContext(ctx, &docs, companyDocumentsQuery, companyID); err != nil {
		return nil, fmt.Errorf("fetch company documents: %w", err)
	}
	return docs, nil
}

// IndexableDocuments returns every document that has a summary or parsed
// content, for vector indexing. Documents without a linked company carry a
// zero CompanyID.
func (s *Store) IndexableDocuments(ctx context.Context) ([]DocumentRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres store not initialised")
	}
	var docs []DocumentRecord
	if err := s.db.SelectContext(ctx, &docs, indexableDocumentsQuery); err != nil {
		return nil, fmt.Errorf("fetch indexable documents: %w", err)
	}
	return docs, nil
}

// normalizeValue makes driver-specific scan results JSON-friendly. Byte
// slices become strings; everything else passes through.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	default:
		return value
	}
}
