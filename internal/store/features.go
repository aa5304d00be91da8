package store

import (
	"context"
	"fmt"
	"time"

	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/shared"
)

// UpsertAudioFeatures bulk-replaces audio feature rows by track ID.
func (s *Store) UpsertAudioFeatures(ctx context.Context, features []models.AudioFeatures) error {
	if len(features) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin feature upsert: %v", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO audio_features
			(track_id, danceability, energy, valence, acousticness, instrumentalness,
			 liveness, speechiness, tempo, loudness, key, mode, time_signature, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare feature upsert: %v", shared.ErrStorage, err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, af := range features {
		_, err := stmt.ExecContext(ctx,
			af.TrackID, af.Danceability, af.Energy, af.Valence, af.Acousticness,
			af.Instrumentalness, af.Liveness, af.Speechiness, af.Tempo, af.Loudness,
			af.Key, af.Mode, af.TimeSignature, now,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to upsert features for %s: %v", shared.ErrStorage, af.TrackID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit feature upsert: %v", shared.ErrStorage, err)
	}
	return nil
}
