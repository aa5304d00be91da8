// package store implements the persistent local mirror of a Spotify
// library on SQLite: four normalized collections (playlists, tracks,
// audio features, artists), a TTL cache, and the generated-playlist log.
//
// All bulk writes are replace-by-key inside a single transaction, so a
// repeated write with identical input is a no-op with respect to
// observable state and a failed write never partially commits.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/temeke/spotify-playlists/internal/shared"
)

// Store provides durable, queryable storage for the mirrored library.
type Store struct {
	db *sql.DB
}

// New creates a Store backed by the given database connection. The caller
// is responsible for having run migrations (see shared.RunMigrations).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for lifecycle management.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Stats reports row counts per collection, for observability.
type Stats struct {
	Tracks             int `json:"tracks"`
	Playlists          int `json:"playlists"`
	Artists            int `json:"artists"`
	AudioFeatures      int `json:"audio_features"`
	CacheEntries       int `json:"cache_entries"`
	GeneratedPlaylists int `json:"generated_playlists"`
}

// Stats returns row counts for every collection.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	for _, c := range []struct {
		table  string
		target *int
	}{
		{"tracks", &stats.Tracks},
		{"playlists", &stats.Playlists},
		{"artists", &stats.Artists},
		{"audio_features", &stats.AudioFeatures},
		{"cache", &stats.CacheEntries},
		{"generated_playlists", &stats.GeneratedPlaylists},
	} {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.table)
		if err := s.db.QueryRowContext(ctx, query).Scan(c.target); err != nil {
			return nil, fmt.Errorf("%w: failed to count %s: %v", shared.ErrStorage, c.table, err)
		}
	}
	return stats, nil
}

// PurgeOlderThan deletes rows in every mirror collection whose updated_at
// precedes the cutoff, plus any cache entry that has already expired.
// Storage hygiene only; the generated-playlist log is never purged.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin purge: %v", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		"DELETE FROM tracks WHERE updated_at < ?",
		"DELETE FROM audio_features WHERE updated_at < ?",
		"DELETE FROM artists WHERE updated_at < ?",
		"DELETE FROM playlists WHERE updated_at < ?",
	} {
		if _, err := tx.ExecContext(ctx, query, cutoff); err != nil {
			return fmt.Errorf("%w: purge failed: %v", shared.ErrStorage, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cache WHERE expires_at < ?", time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: cache purge failed: %v", shared.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit purge: %v", shared.ErrStorage, err)
	}
	return nil
}
