// Package showcase persists published report cards for the public feed.
package showcase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Item is one published report card.
type Item struct {
	ID               int64     `json:"id"`
	CreatorName      string    `json:"creator_name"`
	CreatorSpotifyID string    `json:"creator_spotify_id"`
	ImageFilename    string    `json:"image_filename"`
	TopType          string    `json:"top_type"`
	AccentColor      string    `json:"accent_color"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewCreatorName generates an anonymous display name for the feed.
func NewCreatorName() string {
	return fmt.Sprintf("Anon#%d", 100000+rand.IntN(900000))
}

const schema = `
CREATE TABLE IF NOT EXISTS showcase_item (
	id                 BIGSERIAL PRIMARY KEY,
	creator_name       TEXT NOT NULL,
	creator_spotify_id TEXT NOT NULL,
	image_filename     TEXT NOT NULL,
	top_type           TEXT NOT NULL,
	accent_color       TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS showcase_item_created_at_idx ON showcase_item (created_at DESC);
`

// Store wraps a PostgreSQL connection pool for the showcase feed.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a connection pool, verifies connectivity and bootstraps the
// showcase schema.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring showcase schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Create inserts item and fills in its generated ID and timestamp.
func (s *Store) Create(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO showcase_item (creator_name, creator_spotify_id, image_filename, top_type, accent_color)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := s.pool.QueryRow(ctx, query,
		item.CreatorName,
		item.CreatorSpotifyID,
		item.ImageFilename,
		item.TopType,
		item.AccentColor,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting showcase item: %w", err)
	}
	return nil
}

// Recent returns the newest items, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Item, error) {
	query := `
		SELECT id, creator_name, creator_spotify_id, image_filename, top_type, accent_color, created_at
		FROM showcase_item
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying showcase items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(
			&item.ID,
			&item.CreatorName,
			&item.CreatorSpotifyID,
			&item.ImageFilename,
			&item.TopType,
			&item.AccentColor,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning showcase item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading showcase items: %w", err)
	}

	return items, nil
}
