package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/olyamironova/auction-engine/internal/port"
)

var (
	_ port.ItemRepository   = (*Store)(nil)
	_ port.BidderRepository = (*Store)(nil)
)

// Store keeps items and bidders in postgres.
type Store struct {
	pool *pgxpool.Pool
}

// call Close when finish to work with database.
func NewStore(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS items (
  id          TEXT PRIMARY KEY,
  seq         BIGSERIAL,
  name        TEXT NOT NULL,
  position    TEXT NOT NULL DEFAULT '',
  image_url   TEXT NOT NULL DEFAULT '',
  base_price  BIGINT NOT NULL DEFAULT 0,
  final_price BIGINT,
  owner_id    TEXT,
  status      TEXT NOT NULL DEFAULT 'PENDING',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS items_status_idx ON items (status, seq);
CREATE INDEX IF NOT EXISTS items_owner_idx ON items (owner_id);

CREATE TABLE IF NOT EXISTS bidders (
  id             TEXT PRIMARY KEY,
  name           TEXT NOT NULL,
  owner_name     TEXT NOT NULL DEFAULT '',
  logo_url       TEXT NOT NULL DEFAULT '',
  initial_budget BIGINT NOT NULL,
  budget         BIGINT NOT NULL CHECK (budget >= 0),
  roster         TEXT[] NOT NULL DEFAULT '{}',
  created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pg: ensure schema: %w", err)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
