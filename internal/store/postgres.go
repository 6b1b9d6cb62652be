package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/config"
	"github.com/axis-ops/ticket-service/internal/domain"
)

// PostgresStore keeps each user's collection as a single JSONB document row
// and audit entries in an append-only table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS ticket_collections (
        username   TEXT PRIMARY KEY,
        document   JSONB NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS audit_entries (
        id         BIGSERIAL PRIMARY KEY,
        username   TEXT NOT NULL,
        entry      TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_audit_entries_user ON audit_entries (username, id)`,
}

// NewPostgresStore connects, verifies connectivity, and ensures the schema.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("POSTGRES_DSN required for postgres store driver")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	logger.Info("connected to postgres ticket store")
	return &PostgresStore{pool: pool}, nil
}

// Load reads the user's collection document.
func (s *PostgresStore) Load(ctx context.Context, user string) ([]domain.Ticket, error) {
	if err := validUser(user); err != nil {
		return nil, err
	}
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM ticket_collections WHERE username=$1`, user).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Ticket{}, nil
		}
		return nil, err
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal(raw, &tickets); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	return tickets, nil
}

// Save upserts the user's collection document.
func (s *PostgresStore) Save(ctx context.Context, user string, tickets []domain.Ticket) error {
	if err := validUser(user); err != nil {
		return err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	raw, err := json.Marshal(tickets)
	if err != nil {
		return fmt.Errorf("encode tickets: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
        INSERT INTO ticket_collections (username, document, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (username) DO UPDATE SET document=EXCLUDED.document, updated_at=NOW()`,
		user, raw)
	return err
}

// AppendAudit inserts one formatted entry.
func (s *PostgresStore) AppendAudit(ctx context.Context, user, action, detail string) error {
	if err := validUser(user); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_entries (username, entry) VALUES ($1, $2)`,
		user, auditLine(action, detail))
	return err
}

// ReadAudit returns up to limit most recent entries in chronological order.
func (s *PostgresStore) ReadAudit(ctx context.Context, user string, limit int) ([]string, error) {
	if err := validUser(user); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
        SELECT entry FROM audit_entries WHERE username=$1
        ORDER BY id DESC LIMIT $2`, user, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reversed []string
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, err
		}
		reversed = append(reversed, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	entries := make([]string, len(reversed))
	for i, entry := range reversed {
		entries[len(reversed)-1-i] = entry
	}
	return entries, nil
}

// Ping verifies connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases pool resources.
func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
