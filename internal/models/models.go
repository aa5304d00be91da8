// package models defines the data model for the playlist generator.
package models

import "time"

// User is the authenticated Spotify account the library belongs to.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
}

// ArtistRef is the lightweight artist reference embedded in a track.
// Full artist records (genres, popularity) live in [Artist].
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is one playlist membership of a track. A track appearing on two
// playlists is stored as two rows differing in PlaylistID.
type Track struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Artists      []ArtistRef `json:"artists"`
	AlbumID      string      `json:"album_id"`
	AlbumName    string      `json:"album_name"`
	DurationMS   int         `json:"duration_ms"`
	Popularity   int         `json:"popularity"`
	PreviewURL   string      `json:"preview_url,omitempty"`
	SpotifyURL   string      `json:"spotify_url"`
	IsLocal      bool        `json:"is_local,omitempty"`
	PlaylistID   string      `json:"playlist_id"`
	PlaylistName string      `json:"playlist_name"`
	AddedAt      time.Time   `json:"added_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// URI returns the track's Spotify URI, used when adding tracks to a playlist.
func (t *Track) URI() string {
	return "spotify:track:" + t.ID
}

// PlaylistEntry is a track together with the timestamp it was added to a
// playlist, as returned by the playlist tracks endpoint. Track may be nil
// for entries the remote no longer resolves.
type PlaylistEntry struct {
	AddedAt time.Time `json:"added_at"`
	Track   *Track    `json:"track"`
}

// AudioFeatures holds the per-track audio analysis, keyed by track ID and
// independent of playlist membership. Not every track has one.
type AudioFeatures struct {
	TrackID          string    `json:"track_id"`
	Danceability     float64   `json:"danceability"`
	Energy           float64   `json:"energy"`
	Valence          float64   `json:"valence"`
	Acousticness     float64   `json:"acousticness"`
	Instrumentalness float64   `json:"instrumentalness"`
	Liveness         float64   `json:"liveness"`
	Speechiness      float64   `json:"speechiness"`
	Tempo            float64   `json:"tempo"`
	Loudness         float64   `json:"loudness"`
	Key              int       `json:"key"`
	Mode             int       `json:"mode"`
	TimeSignature    int       `json:"time_signature"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Artist is a full artist record with genre tags.
type Artist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Genres     []string  `json:"genres"`
	Popularity int       `json:"popularity"`
	Followers  int       `json:"followers"`
	ImageURL   string    `json:"image_url,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Playlist is a playlist record from the remote library.
type Playlist struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Public        bool      `json:"public"`
	Collaborative bool      `json:"collaborative"`
	OwnerID       string    `json:"owner_id"`
	OwnerName     string    `json:"owner_name"`
	TrackCount    int       `json:"track_count"`
	ImageURL      string    `json:"image_url,omitempty"`
	SpotifyURL    string    `json:"spotify_url,omitempty"`
	LastSyncAt    time.Time `json:"last_sync_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EnhancedTrack is a [Track] joined with its [AudioFeatures] (nil when the
// track has none) and the resolved [Artist] records for its artist refs.
// Rebuilt on demand from the store, never persisted.
type EnhancedTrack struct {
	Track
	AudioFeatures *AudioFeatures `json:"audio_features,omitempty"`
	ArtistDetails []Artist       `json:"artist_details,omitempty"`
}

// Genres returns the genre tags of all resolved artists in artist order,
// duplicates included.
func (t *EnhancedTrack) Genres() []string {
	var genres []string
	for _, a := range t.ArtistDetails {
		genres = append(genres, a.Genres...)
	}
	return genres
}

// GeneratedPlaylist is one entry of the append-only log of playlists
// created from a filter snapshot. Immutable once recorded.
type GeneratedPlaylist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Filters     string    `json:"filters"`
	TrackCount  int       `json:"track_count"`
	SpotifyURL  string    `json:"spotify_url"`
	CreatedAt   time.Time `json:"created_at"`
}
