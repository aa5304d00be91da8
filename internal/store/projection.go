package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/shared"
)

// AllEnhancedTracks rebuilds the enhanced-track view: one row per stored
// playlist membership (cross-playlist duplicates are NOT collapsed), each
// joined with its audio features when present and the resolved artist
// records for its artist refs. Artist refs with no stored artist row are
// dropped from the detail list, not treated as an error.
func (s *Store) AllEnhancedTracks(ctx context.Context) ([]models.EnhancedTrack, error) {
	features, err := s.allFeaturesByTrack(ctx)
	if err != nil {
		return nil, err
	}

	artists, err := s.allArtistsByID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, playlist_id, name, artists, album_id, album_name, duration_ms,
		       popularity, COALESCE(preview_url, ''), spotify_url, playlist_name,
		       added_at, updated_at
		FROM tracks
		ORDER BY playlist_id, added_at
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query tracks: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var enhanced []models.EnhancedTrack
	for rows.Next() {
		var t models.Track
		var artistsJSON string
		err := rows.Scan(&t.ID, &t.PlaylistID, &t.Name, &artistsJSON, &t.AlbumID,
			&t.AlbumName, &t.DurationMS, &t.Popularity, &t.PreviewURL, &t.SpotifyURL,
			&t.PlaylistName, &t.AddedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan track: %v", shared.ErrStorage, err)
		}

		if err := json.Unmarshal([]byte(artistsJSON), &t.Artists); err != nil {
			return nil, fmt.Errorf("%w: corrupt artist refs for track %s: %v", shared.ErrStorage, t.ID, err)
		}

		et := models.EnhancedTrack{Track: t}
		if af, ok := features[t.ID]; ok {
			et.AudioFeatures = &af
		}
		for _, ref := range t.Artists {
			if artist, ok := artists[ref.ID]; ok {
				et.ArtistDetails = append(et.ArtistDetails, artist)
			}
		}

		enhanced = append(enhanced, et)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: track iteration: %v", shared.ErrStorage, err)
	}

	return enhanced, nil
}

func (s *Store) allFeaturesByTrack(ctx context.Context) (map[string]models.AudioFeatures, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, danceability, energy, valence, acousticness, instrumentalness,
		       liveness, speechiness, tempo, loudness, key, mode, time_signature, updated_at
		FROM audio_features
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query audio features: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	features := make(map[string]models.AudioFeatures)
	for rows.Next() {
		var af models.AudioFeatures
		err := rows.Scan(&af.TrackID, &af.Danceability, &af.Energy, &af.Valence,
			&af.Acousticness, &af.Instrumentalness, &af.Liveness, &af.Speechiness,
			&af.Tempo, &af.Loudness, &af.Key, &af.Mode, &af.TimeSignature, &af.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan audio features: %v", shared.ErrStorage, err)
		}
		features[af.TrackID] = af
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: audio feature iteration: %v", shared.ErrStorage, err)
	}

	return features, nil
}

func (s *Store) allArtistsByID(ctx context.Context) (map[string]models.Artist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, genres, popularity, followers, COALESCE(image_url, ''), updated_at
		FROM artists
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query artists: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	artists := make(map[string]models.Artist)
	for rows.Next() {
		var a models.Artist
		var genresJSON string
		err := rows.Scan(&a.ID, &a.Name, &genresJSON, &a.Popularity, &a.Followers,
			&a.ImageURL, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan artist: %v", shared.ErrStorage, err)
		}
		if err := json.Unmarshal([]byte(genresJSON), &a.Genres); err != nil {
			return nil, fmt.Errorf("%w: corrupt genres for artist %s: %v", shared.ErrStorage, a.ID, err)
		}
		artists[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: artist iteration: %v", shared.ErrStorage, err)
	}

	return artists, nil
}
