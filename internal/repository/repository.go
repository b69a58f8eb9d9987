// Package repository persists resolved item metadata in Postgres so detail
// lookups survive restarts and are shared across instances.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/actuallystonmai/taste-service/internal/domain"
)

// DefaultMaxAge bounds how long stored details are served before a refetch.
const DefaultMaxAge = 7 * 24 * time.Hour

type Repository struct {
	pool   *pgxpool.Pool
	maxAge time.Duration
	now    func() time.Time
}

func NewRepository(pool *pgxpool.Pool, maxAge time.Duration) *Repository {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Repository{pool: pool, maxAge: maxAge, now: time.Now}
}

// GetDetails returns nil without error when the item is unknown or stale.
func (r *Repository) GetDetails(ctx context.Context, id int, t domain.ContentType) (*domain.ItemDetails, error) {
	var (
		payload   []byte
		fetchedAt time.Time
	)
	err := r.pool.QueryRow(ctx,
		`SELECT payload, fetched_at FROM item_details WHERE item_id = $1 AND content_type = $2`,
		id, string(t),
	).Scan(&payload, &fetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query details %s/%d: %w", t, id, err)
	}
	if r.now().Sub(fetchedAt) > r.maxAge {
		return nil, nil
	}

	var d domain.ItemDetails
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("decode details %s/%d: %w", t, id, err)
	}
	return &d, nil
}

// PutDetails upserts resolved details.
func (r *Repository) PutDetails(ctx context.Context, d *domain.ItemDetails) error {
	if d == nil || d.ID == 0 {
		return nil
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode details %d: %w", d.ID, err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO item_details (item_id, content_type, imdb_id, payload, fetched_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		 ON CONFLICT (item_id, content_type)
		 DO UPDATE SET imdb_id = EXCLUDED.imdb_id, payload = EXCLUDED.payload, fetched_at = EXCLUDED.fetched_at`,
		d.ID, string(d.Type), d.IMDbID, payload, r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert details %s/%d: %w", d.Type, d.ID, err)
	}
	return nil
}

// FindByIMDbID resolves a cross reference from stored details. Returns 0 when unknown.
func (r *Repository) FindByIMDbID(ctx context.Context, imdbID string, t domain.ContentType) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`SELECT item_id FROM item_details WHERE imdb_id = $1 AND content_type = $2 LIMIT 1`,
		imdbID, string(t),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("query cross reference %s: %w", imdbID, err)
	}
	return id, nil
}

// Prune drops details older than the max age and reports how many rows went.
func (r *Repository) Prune(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM item_details WHERE fetched_at < $1`, r.now().Add(-r.maxAge).UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune details: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
