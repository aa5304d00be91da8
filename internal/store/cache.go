package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/temeke/spotify-playlists/internal/shared"
)

// CacheSet stores a JSON-encoded payload under key with the given TTL,
// replacing any existing entry.
func (s *Store) CacheSet(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: failed to encode cache payload: %v", shared.ErrStorage, err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache (key, payload, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, key, string(payload), now.Add(ttl), now)
	if err != nil {
		return fmt.Errorf("%w: failed to write cache entry: %v", shared.ErrStorage, err)
	}
	return nil
}

// CacheGet decodes the entry for key into target and reports whether a
// live entry was found. Expiry is a read-time comparison: an expired entry
// is never returned as a hit and is lazily purged here.
func (s *Store) CacheGet(ctx context.Context, key string, target any) (bool, error) {
	var payload string
	var expiresAt time.Time

	err := s.db.QueryRowContext(ctx,
		"SELECT payload, expires_at FROM cache WHERE key = ?", key,
	).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to read cache entry: %v", shared.ErrStorage, err)
	}

	if time.Now().UTC().After(expiresAt) {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key); err != nil {
			return false, fmt.Errorf("%w: failed to purge expired cache entry: %v", shared.ErrStorage, err)
		}
		return false, nil
	}

	if err := json.Unmarshal([]byte(payload), target); err != nil {
		return false, fmt.Errorf("%w: corrupt cache payload for %s: %v", shared.ErrStorage, key, err)
	}
	return true, nil
}
