package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/cirrus/internal/settings"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository is the Postgres backend for station settings. It implements
// settings.Persister.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// Load reads every station settings row into a map keyed by user id.
func (r *Repository) Load(ctx context.Context) (map[int64]settings.Station, error) {
	const q = `
		SELECT user_id, station
		FROM station_settings
	`

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying station settings: %w", err)
	}
	defer rows.Close()

	stations := make(map[int64]settings.Station)
	for rows.Next() {
		var userID int64
		var stationJSON []byte

		if err := rows.Scan(&userID, &stationJSON); err != nil {
			return nil, fmt.Errorf("scanning station settings row: %w", err)
		}

		var st settings.Station
		if err := json.Unmarshal(stationJSON, &st); err != nil {
			return nil, fmt.Errorf("unmarshaling station settings for user %d: %w", userID, err)
		}

		stations[userID] = st
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating station settings rows: %w", err)
	}

	return stations, nil
}

// Save replaces the stored mapping with the given one in a single
// transaction, so readers never observe a partial save.
func (r *Repository) Save(ctx context.Context, stations map[int64]settings.Station) error {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM station_settings`); err != nil {
		return fmt.Errorf("clearing station settings: %w", err)
	}

	const q = `
		INSERT INTO station_settings (user_id, station, updated_at)
		VALUES ($1, $2, NOW())
	`

	for userID, st := range stations {
		stationJSON, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("marshaling station settings for user %d: %w", userID, err)
		}
		if _, err := tx.Exec(ctx, q, userID, stationJSON); err != nil {
			return fmt.Errorf("inserting station settings for user %d: %w", userID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing station settings: %w", err)
	}
	return nil
}
