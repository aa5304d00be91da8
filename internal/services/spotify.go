// Spotify Web API implementation of [RemoteCatalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyFollowers struct {
	Total int `json:"total"`
}

type spotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
}

type spotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifyExternalURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyTrack struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Artists      []spotifyArtistRef  `json:"artists"`
	Album        spotifyAlbum        `json:"album"`
	DurationMS   int                 `json:"duration_ms"`
	Popularity   int                 `json:"popularity"`
	PreviewURL   string              `json:"preview_url"`
	ExternalURLs spotifyExternalURLs `json:"external_urls"`
	IsLocal      bool                `json:"is_local"`
}

type spotifyPlaylist struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Public        bool                `json:"public"`
	Collaborative bool                `json:"collaborative"`
	Owner         spotifyOwner        `json:"owner"`
	Images        []spotifyImage      `json:"images"`
	ExternalURLs  spotifyExternalURLs `json:"external_urls"`
	Tracks        struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type spotifyPlaylistPage struct {
	Items []spotifyPlaylist `json:"items"`
	Next  *string           `json:"next"`
}

type spotifyPlaylistEntry struct {
	AddedAt string        `json:"added_at"`
	Track   *spotifyTrack `json:"track"`
}

type spotifyTrackPage struct {
	Items []spotifyPlaylistEntry `json:"items"`
	Next  *string                `json:"next"`
}

type spotifyAudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
	Loudness         float64 `json:"loudness"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	TimeSignature    int     `json:"time_signature"`
}

type spotifyArtist struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Genres     []string         `json:"genres"`
	Popularity int              `json:"popularity"`
	Followers  spotifyFollowers `json:"followers"`
	Images     []spotifyImage   `json:"images"`
}

// SpotifyClient implements [RemoteCatalog] against the Spotify Web API.
// Requests carry a bearer token from the injected [TokenProvider] and are
// retried per the configured [RetryConfig].
type SpotifyClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	retry      *RetryConfig
	logger     *log.Logger
}

// SpotifyClientOpts contains construction options for a SpotifyClient.
type SpotifyClientOpts struct {
	BaseURL    string       // Defaults to the public API endpoint
	HTTPClient *http.Client // Defaults to http.DefaultClient
	Retry      *RetryConfig // Defaults to DefaultRetryConfig()
	Logger     *log.Logger  // Defaults to a stderr logger
}

// NewSpotifyClient creates a Spotify client using the given token provider.
func NewSpotifyClient(tokens TokenProvider, opts SpotifyClientOpts) *SpotifyClient {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Retry == nil {
		opts.Retry = DefaultRetryConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SpotifyClient{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		tokens:     tokens,
		retry:      opts.Retry,
		logger:     opts.Logger.With("service", "spotify"),
	}
}

func (c *SpotifyClient) Name() string { return "Spotify" }

// doRequest performs one authenticated request and decodes the JSON
// response into result. Status codes map onto the error taxonomy: 401 →
// ErrUnauthorized, 429 → RateLimitedError, 5xx → ErrRemoteUnavailable.
func (c *SpotifyClient) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status 401", shared.ErrUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitedError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode == http.StatusNotFound && strings.HasPrefix(endpoint, "/playlists/"):
		return fmt.Errorf("%w: status 404", shared.ErrPlaylistNotFound)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", shared.ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// get wraps doRequest in the retry loop.
func (c *SpotifyClient) get(ctx context.Context, endpoint string, result any) error {
	return withRetry(ctx, c.retry, func() error {
		return c.doRequest(ctx, http.MethodGet, endpoint, nil, result)
	})
}

func (c *SpotifyClient) post(ctx context.Context, endpoint string, body, result any) error {
	return withRetry(ctx, c.retry, func() error {
		return c.doRequest(ctx, http.MethodPost, endpoint, body, result)
	})
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// CurrentUser retrieves the authenticated user's profile.
func (c *SpotifyClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var user spotifyUser
	if err := c.get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &models.User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
	}, nil
}

// AllPlaylists retrieves the user's playlists, paginating until the
// remote reports no further page.
func (c *SpotifyClient) AllPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	limit, offset := 50, 0

	for {
		var page spotifyPlaylistPage
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)
		if err := c.get(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			playlists = append(playlists, playlistFromAPI(sp))
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return playlists, nil
}

// AllPlaylistTracks retrieves every entry of one playlist, paginating
// until the remote reports no further page.
func (c *SpotifyClient) AllPlaylistTracks(ctx context.Context, playlistID string) ([]models.PlaylistEntry, error) {
	var entries []models.PlaylistEntry
	limit, offset := 100, 0

	for {
		var page spotifyTrackPage
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)
		if err := c.get(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			entry := models.PlaylistEntry{AddedAt: parseTimestamp(item.AddedAt)}
			if item.Track != nil {
				entry.Track = trackFromAPI(*item.Track)
			}
			entries = append(entries, entry)
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return entries, nil
}

// AudioFeatures retrieves audio features for up to MaxFeatureBatch track
// IDs. The result is positional, nil for tracks without an analysis.
func (c *SpotifyClient) AudioFeatures(ctx context.Context, trackIDs []string) ([]*models.AudioFeatures, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}
	if len(trackIDs) > MaxFeatureBatch {
		return nil, fmt.Errorf("%w: at most %d track IDs per request", shared.ErrInvalidArgument, MaxFeatureBatch)
	}

	var response struct {
		AudioFeatures []*spotifyAudioFeatures `json:"audio_features"`
	}
	endpoint := "/audio-features?ids=" + url.QueryEscape(strings.Join(trackIDs, ","))
	if err := c.get(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	if len(response.AudioFeatures) != len(trackIDs) {
		return nil, fmt.Errorf("expected %d feature entries but got %d", len(trackIDs), len(response.AudioFeatures))
	}

	features := make([]*models.AudioFeatures, len(trackIDs))
	for i, af := range response.AudioFeatures {
		if af == nil || af.ID == "" {
			continue
		}
		features[i] = &models.AudioFeatures{
			TrackID:          af.ID,
			Danceability:     af.Danceability,
			Energy:           af.Energy,
			Valence:          af.Valence,
			Acousticness:     af.Acousticness,
			Instrumentalness: af.Instrumentalness,
			Liveness:         af.Liveness,
			Speechiness:      af.Speechiness,
			Tempo:            af.Tempo,
			Loudness:         af.Loudness,
			Key:              af.Key,
			Mode:             af.Mode,
			TimeSignature:    af.TimeSignature,
		}
	}

	return features, nil
}

// Artists retrieves full artist records for up to MaxArtistBatch IDs.
func (c *SpotifyClient) Artists(ctx context.Context, artistIDs []string) ([]models.Artist, error) {
	if len(artistIDs) == 0 {
		return nil, nil
	}
	if len(artistIDs) > MaxArtistBatch {
		return nil, fmt.Errorf("%w: at most %d artist IDs per request", shared.ErrInvalidArgument, MaxArtistBatch)
	}

	var response struct {
		Artists []spotifyArtist `json:"artists"`
	}
	endpoint := "/artists?ids=" + url.QueryEscape(strings.Join(artistIDs, ","))
	if err := c.get(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	var artists []models.Artist
	for _, sa := range response.Artists {
		if sa.ID == "" {
			continue
		}
		artist := models.Artist{
			ID:         sa.ID,
			Name:       sa.Name,
			Genres:     sa.Genres,
			Popularity: sa.Popularity,
			Followers:  sa.Followers.Total,
		}
		if len(sa.Images) > 0 {
			artist.ImageURL = sa.Images[0].URL
		}
		artists = append(artists, artist)
	}

	return artists, nil
}

// CreatePlaylist creates an empty playlist owned by ownerID.
func (c *SpotifyClient) CreatePlaylist(ctx context.Context, ownerID, name, description string, public bool) (*models.Playlist, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var created spotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", ownerID)
	if err := c.post(ctx, endpoint, body, &created); err != nil {
		return nil, err
	}

	playlist := playlistFromAPI(created)
	return &playlist, nil
}

// AddTracks appends up to MaxAddTrackBatch track URIs to a playlist.
func (c *SpotifyClient) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	if len(uris) > MaxAddTrackBatch {
		return fmt.Errorf("%w: at most %d track URIs per request", shared.ErrInvalidArgument, MaxAddTrackBatch)
	}

	body := map[string]any{"uris": uris}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	return c.post(ctx, endpoint, body, nil)
}

func playlistFromAPI(sp spotifyPlaylist) models.Playlist {
	playlist := models.Playlist{
		ID:            sp.ID,
		Name:          sp.Name,
		Description:   sp.Description,
		Public:        sp.Public,
		Collaborative: sp.Collaborative,
		OwnerID:       sp.Owner.ID,
		OwnerName:     sp.Owner.DisplayName,
		TrackCount:    sp.Tracks.Total,
		SpotifyURL:    sp.ExternalURLs.Spotify,
	}
	if len(sp.Images) > 0 {
		playlist.ImageURL = sp.Images[0].URL
	}
	return playlist
}

func trackFromAPI(st spotifyTrack) *models.Track {
	track := &models.Track{
		ID:         st.ID,
		Name:       st.Name,
		AlbumID:    st.Album.ID,
		AlbumName:  st.Album.Name,
		DurationMS: st.DurationMS,
		Popularity: st.Popularity,
		PreviewURL: st.PreviewURL,
		SpotifyURL: st.ExternalURLs.Spotify,
		IsLocal:    st.IsLocal,
	}
	for _, a := range st.Artists {
		track.Artists = append(track.Artists, models.ArtistRef{ID: a.ID, Name: a.Name})
	}
	return track
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
