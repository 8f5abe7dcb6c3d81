package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tessera-chat/tessera/internal/models"
)

// Postgres persists snapshots as a single JSONB row. The whole state is
// one document because the store is the authority — the database is a
// durability sink, not a query surface.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool, pings it so a bad URL fails at startup,
// and ensures the snapshot table exists.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Close drains the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id       int PRIMARY KEY,
			taken_at timestamptz NOT NULL,
			state    jsonb NOT NULL
		)`
	if _, err := p.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure snapshot table: %w", err)
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	query := `
		INSERT INTO snapshots (id, taken_at, state)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET taken_at = $1, state = $2`
	if _, err := p.pool.Exec(ctx, query, snap.TakenAt, data); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context) (*models.Snapshot, error) {
	query := `SELECT state FROM snapshots WHERE id = 1`

	var data []byte
	err := p.pool.QueryRow(ctx, query).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
