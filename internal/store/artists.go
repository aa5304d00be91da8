package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/shared"
)

// UpsertArtists bulk-replaces artist rows by ID. Genre lists are stored as
// a JSON array alongside the row.
func (s *Store) UpsertArtists(ctx context.Context, artists []models.Artist) error {
	if len(artists) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin artist upsert: %v", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO artists
			(id, name, genres, popularity, followers, image_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare artist upsert: %v", shared.ErrStorage, err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, a := range artists {
		genres := a.Genres
		if genres == nil {
			genres = []string{}
		}
		encoded, err := json.Marshal(genres)
		if err != nil {
			return fmt.Errorf("%w: failed to encode genres for artist %s: %v", shared.ErrStorage, a.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			a.ID, a.Name, string(encoded), a.Popularity, a.Followers, a.ImageURL, now,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to upsert artist %s: %v", shared.ErrStorage, a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit artist upsert: %v", shared.ErrStorage, err)
	}
	return nil
}

// MissingArtistIDs returns the subset of candidateIDs with no stored
// artist row, preserving input order.
func (s *Store) MissingArtistIDs(ctx context.Context, candidateIDs []string) ([]string, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM artists")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query artist ids: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	stored := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: failed to scan artist id: %v", shared.ErrStorage, err)
		}
		stored[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: artist id iteration: %v", shared.ErrStorage, err)
	}

	var missing []string
	seen := make(map[string]struct{})
	for _, id := range candidateIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := stored[id]; !ok {
			missing = append(missing, id)
		}
	}

	return missing, nil
}
