// package services defines the RemoteCatalog interface for the remote
// music catalog and implements it for the Spotify Web API.
package services

import (
	"context"

	"github.com/temeke/spotify-playlists/internal/models"
)

// Batch ceilings imposed by the remote API. Callers issuing larger sets
// must chunk their requests; the client rejects oversized batches.
const (
	MaxFeatureBatch  = 100
	MaxArtistBatch   = 50
	MaxAddTrackBatch = 100
)

// RemoteCatalog is the capability interface for the remote music catalog.
// The sync engine and playlist generation consume this, never a concrete
// client, so tests substitute fakes at construction time.
type RemoteCatalog interface {
	// CurrentUser retrieves the authenticated account's profile.
	CurrentUser(ctx context.Context) (*models.User, error)

	// AllPlaylists retrieves every playlist in the user's library,
	// transparently paginating (page size 50).
	AllPlaylists(ctx context.Context) ([]models.Playlist, error)

	// AllPlaylistTracks retrieves every entry of one playlist,
	// transparently paginating (page size 100). Entries may carry a nil
	// track when the remote no longer resolves it.
	AllPlaylistTracks(ctx context.Context, playlistID string) ([]models.PlaylistEntry, error)

	// AudioFeatures retrieves audio features for up to MaxFeatureBatch
	// track IDs. The result is positional: result[i] corresponds to
	// trackIDs[i] and is nil when the remote has no analysis for it.
	AudioFeatures(ctx context.Context, trackIDs []string) ([]*models.AudioFeatures, error)

	// Artists retrieves full artist records for up to MaxArtistBatch IDs.
	Artists(ctx context.Context, artistIDs []string) ([]models.Artist, error)

	// CreatePlaylist creates an empty playlist owned by ownerID.
	CreatePlaylist(ctx context.Context, ownerID, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends up to MaxAddTrackBatch track URIs to a playlist.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// Name returns the name of the remote service.
	Name() string
}

// TokenProvider supplies the current access token for API requests.
// Implemented by the auth layer; substituted with a static token in tests.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider returning a fixed token value.
type StaticToken string

func (t StaticToken) AccessToken(context.Context) (string, error) {
	return string(t), nil
}
