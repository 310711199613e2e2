// Package postgres provides Postgres-backed persistence implementations.
// Vessel records are stored as one JSONB document per row so the diff-based
// upsert can patch individual fields without rewriting the document.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sailscout/sailscout/internal/persist"
	"github.com/sailscout/sailscout/internal/vessel"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// VesselStoreConfig controls the Postgres connection pool for vessel documents.
type VesselStoreConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// VesselStore implements persist.DocumentStore on Postgres JSONB.
type VesselStore struct {
	pool  dbConn
	table string
}

// NewVesselStore creates a Postgres-backed VesselStore using the provided config.
func NewVesselStore(ctx context.Context, cfg VesselStoreConfig) (*VesselStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "vessels"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
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
	return &VesselStore{pool: pool, table: table}, nil
}

// NewVesselStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewVesselStoreWithPool(pool dbConn, table string) (*VesselStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "vessels"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &VesselStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *VesselStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// FindByModel returns the newest document whose model contains the trimmed
// search model, case-insensitively. Substring matching mirrors how the
// source sites title their pages: "Catalina 30 MkII" still resolves the
// stored "Catalina 30 MkII" document when a page titles it "CATALINA 30 MKII".
func (s *VesselStore) FindByModel(ctx context.Context, model string) (string, *vessel.Record, error) {
	if s == nil || s.pool == nil {
		return "", nil, fmt.Errorf("vessel store is not configured")
	}
	query := fmt.Sprintf(
		`SELECT id, doc FROM %s WHERE doc->>'model' ~* $1 ORDER BY updated_at DESC LIMIT 1`,
		s.table,
	)
	pattern := regexp.QuoteMeta(strings.TrimSpace(model))

	var (
		id  string
		raw []byte
	)
	err := s.pool.QueryRow(ctx, query, pattern).Scan(&id, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, persist.ErrNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("find vessel by model: %w", err)
	}

	var rec vessel.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", nil, fmt.Errorf("decode vessel document: %w", err)
	}
	return id, &rec, nil
}

// Insert stores a new vessel document and returns its generated id.
func (s *VesselStore) Insert(ctx context.Context, rec *vessel.Record) (string, error) {
	if s == nil || s.pool == nil {
		return "", fmt.Errorf("vessel store is not configured")
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal vessel document: %w", err)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (model, doc, created_at, updated_at) VALUES ($1, $2, now(), now()) RETURNING id`,
		s.table,
	)
	var id string
	if err := s.pool.QueryRow(ctx, query, rec.Key(), doc).Scan(&id); err != nil {
		return "", fmt.Errorf("insert vessel: %w", err)
	}
	return id, nil
}

// UpdateFields patches a stored document in one statement: set keys are
// merged into the JSONB document, unset keys are removed.
func (s *VesselStore) UpdateFields(ctx context.Context, id string, set map[string]any, unset []string) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("vessel store is not configured")
	}
	if len(set) == 0 && len(unset) == 0 {
		return nil
	}
	patch, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}
	if unset == nil {
		unset = []string{}
	}
	query := fmt.Sprintf(
		`UPDATE %s SET doc = (doc || $2::jsonb) - $3::text[], updated_at = now() WHERE id = $1`,
		s.table,
	)
	tag, err := s.pool.Exec(ctx, query, id, patch, unset)
	if err != nil {
		return fmt.Errorf("update vessel fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update vessel fields: no document %s", id)
	}
	return nil
}
