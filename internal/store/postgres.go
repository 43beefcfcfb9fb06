package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mquell/undercover/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS match_snapshots (
	id         TEXT PRIMARY KEY,
	phase      TEXT NOT NULL,
	snapshot   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres stores match snapshots in a single JSONB table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and makes sure the snapshot table
// exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure snapshot schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Save upserts the snapshot for a match.
func (p *Postgres) Save(ctx context.Context, snap game.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO match_snapshots (id, phase, snapshot, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET phase = EXCLUDED.phase, snapshot = EXCLUDED.snapshot, updated_at = now()`,
		snap.ID, snap.Phase.String(), data)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Get loads the snapshot for a match id.
func (p *Postgres) Get(ctx context.Context, id string) (game.Snapshot, error) {
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT snapshot FROM match_snapshots WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	var snap game.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return game.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// ListActive loads every snapshot that is not game over.
func (p *Postgres) ListActive(ctx context.Context) ([]game.Snapshot, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT snapshot FROM match_snapshots WHERE phase <> $1`, game.PhaseGameOver.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []game.Snapshot
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		var snap game.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Delete removes the snapshot for a match id.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM match_snapshots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
