package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/shared"
)

// UpsertTrackMemberships bulk-replaces the track rows for one playlist's
// entries. Rows are keyed by (track ID, playlist ID), so the same track on
// another playlist stays untouched. Entries with a nil track are skipped.
func (s *Store) UpsertTrackMemberships(ctx context.Context, playlistID, playlistName string, entries []models.PlaylistEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin track upsert: %v", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO tracks
			(id, playlist_id, name, artists, album_id, album_name, duration_ms,
			 popularity, preview_url, spotify_url, playlist_name, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare track upsert: %v", shared.ErrStorage, err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, entry := range entries {
		if entry.Track == nil {
			continue
		}
		t := entry.Track

		artists, err := json.Marshal(t.Artists)
		if err != nil {
			return fmt.Errorf("%w: failed to encode artists for track %s: %v", shared.ErrStorage, t.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			t.ID, playlistID, t.Name, string(artists), t.AlbumID, t.AlbumName,
			t.DurationMS, t.Popularity, t.PreviewURL, t.SpotifyURL,
			playlistName, entry.AddedAt, now,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to upsert track %s: %v", shared.ErrStorage, t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit track upsert: %v", shared.ErrStorage, err)
	}
	return nil
}

// TrackIDsMissingFeatures returns the distinct track IDs with no audio
// features row, i.e. the backfill set for the next sync stage.
func (s *Store) TrackIDsMissingFeatures(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT t.id
		FROM tracks t
		LEFT JOIN audio_features af ON af.track_id = t.id
		WHERE af.track_id IS NULL
		ORDER BY t.id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query missing features: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: failed to scan track id: %v", shared.ErrStorage, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: track id iteration: %v", shared.ErrStorage, err)
	}

	return ids, nil
}
