package tasks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/shared"
	"github.com/temeke/spotify-playlists/internal/store"
)

// fakeCatalog implements services.RemoteCatalog with canned data and
// per-playlist failure injection.
type fakeCatalog struct {
	user        *models.User
	playlists   []models.Playlist
	tracks      map[string][]models.PlaylistEntry
	features    map[string]*models.AudioFeatures
	artists     map[string]models.Artist
	failTracks  map[string]bool
	created     []models.Playlist
	addedByList map[string][][]string
	failAdd     bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		user:        &models.User{ID: "me", DisplayName: "Test User"},
		tracks:      map[string][]models.PlaylistEntry{},
		features:    map[string]*models.AudioFeatures{},
		artists:     map[string]models.Artist{},
		failTracks:  map[string]bool{},
		addedByList: map[string][][]string{},
	}
}

func (f *fakeCatalog) Name() string { return "fake" }

func (f *fakeCatalog) CurrentUser(ctx context.Context) (*models.User, error) {
	return f.user, nil
}

func (f *fakeCatalog) AllPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return f.playlists, nil
}

func (f *fakeCatalog) AllPlaylistTracks(ctx context.Context, playlistID string) ([]models.PlaylistEntry, error) {
	if f.failTracks[playlistID] {
		return nil, fmt.Errorf("%w: injected failure", shared.ErrRemoteUnavailable)
	}
	return f.tracks[playlistID], nil
}

func (f *fakeCatalog) AudioFeatures(ctx context.Context, trackIDs []string) ([]*models.AudioFeatures, error) {
	out := make([]*models.AudioFeatures, len(trackIDs))
	for i, id := range trackIDs {
		out[i] = f.features[id]
	}
	return out, nil
}

func (f *fakeCatalog) Artists(ctx context.Context, artistIDs []string) ([]models.Artist, error) {
	var out []models.Artist
	for _, id := range artistIDs {
		if artist, ok := f.artists[id]; ok {
			out = append(out, artist)
		}
	}
	return out, nil
}

func (f *fakeCatalog) CreatePlaylist(ctx context.Context, ownerID, name, description string, public bool) (*models.Playlist, error) {
	created := models.Playlist{
		ID:      fmt.Sprintf("created-%d", len(f.created)+1),
		Name:    name,
		OwnerID: ownerID,
		Public:  public,
	}
	f.created = append(f.created, created)
	return &created, nil
}

func (f *fakeCatalog) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if f.failAdd {
		return fmt.Errorf("%w: injected failure", shared.ErrRemoteUnavailable)
	}
	batch := make([]string, len(uris))
	copy(batch, uris)
	f.addedByList[playlistID] = append(f.addedByList[playlistID], batch)
	return nil
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return store.New(db)
}

func entry(trackID, name string, artistIDs ...string) models.PlaylistEntry {
	refs := make([]models.ArtistRef, len(artistIDs))
	for i, id := range artistIDs {
		refs[i] = models.ArtistRef{ID: id, Name: "Artist " + id}
	}
	return models.PlaylistEntry{
		AddedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Track:   &models.Track{ID: trackID, Name: name, Artists: refs, Popularity: 40},
	}
}

func TestSyncRun(t *testing.T) {
	ctx := context.Background()

	t.Run("mirrors the library end to end", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.playlists = []models.Playlist{
			{ID: "p1", Name: "Mine", OwnerID: "me"},
			{ID: "p2", Name: "Followed", OwnerID: "someone-else"},
		}
		catalog.tracks["p1"] = []models.PlaylistEntry{
			entry("t1", "One", "a1"),
			entry("t2", "Two", "a1", "a2"),
		}
		catalog.features["t1"] = &models.AudioFeatures{TrackID: "t1", Tempo: 120}
		catalog.artists["a1"] = models.Artist{ID: "a1", Name: "Artist a1", Genres: []string{"rock"}}
		catalog.artists["a2"] = models.Artist{ID: "a2", Name: "Artist a2"}

		st := setupTestStore(t)
		engine := NewSyncEngine(catalog, st, nil, nil)

		result, err := engine.Run(ctx, nil)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if result.PlaylistCount != 1 {
			t.Errorf("playlists owned by others must be excluded, got %d", result.PlaylistCount)
		}
		if result.TrackCount != 2 {
			t.Errorf("expected 2 synced tracks, got %d", result.TrackCount)
		}
		if result.FeaturesFetched != 1 {
			t.Errorf("expected 1 resolved feature record, got %d", result.FeaturesFetched)
		}
		if result.ArtistsFetched != 2 {
			t.Errorf("expected 2 fetched artists, got %d", result.ArtistsFetched)
		}
		if len(result.Enhanced) != 2 {
			t.Errorf("expected the final projection, got %d rows", len(result.Enhanced))
		}

		// Tracks with a null feature response stay in the missing set.
		missing, err := st.TrackIDsMissingFeatures(ctx)
		if err != nil {
			t.Fatalf("missing query failed: %v", err)
		}
		if len(missing) != 1 || missing[0] != "t2" {
			t.Errorf("expected t2 still missing features, got %v", missing)
		}
	})

	t.Run("skips null and local tracks", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.playlists = []models.Playlist{{ID: "p1", Name: "Mine", OwnerID: "me"}}
		localTrack := entry("t2", "Local")
		localTrack.Track.IsLocal = true
		catalog.tracks["p1"] = []models.PlaylistEntry{
			entry("t1", "One"),
			{AddedAt: time.Now()}, // null track reference
			localTrack,
		}

		st := setupTestStore(t)
		result, err := NewSyncEngine(catalog, st, nil, nil).Run(ctx, nil)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if result.TrackCount != 1 {
			t.Errorf("expected only the playable track, got %d", result.TrackCount)
		}
	})

	t.Run("isolates a single playlist failure", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.playlists = []models.Playlist{
			{ID: "p1", Name: "First", OwnerID: "me"},
			{ID: "p2", Name: "Broken", OwnerID: "me"},
			{ID: "p3", Name: "Third", OwnerID: "me"},
		}
		catalog.tracks["p1"] = []models.PlaylistEntry{entry("t1", "One")}
		catalog.tracks["p3"] = []models.PlaylistEntry{entry("t3", "Three")}
		catalog.failTracks["p2"] = true

		st := setupTestStore(t)
		result, err := NewSyncEngine(catalog, st, nil, nil).Run(ctx, nil)
		if err != nil {
			t.Fatalf("one bad playlist must not abort the sync: %v", err)
		}

		if len(result.FailedPlaylists) != 1 || result.FailedPlaylists[0] != "p2" {
			t.Errorf("expected p2 reported failed, got %v", result.FailedPlaylists)
		}

		enhanced, err := st.AllEnhancedTracks(ctx)
		if err != nil {
			t.Fatalf("projection failed: %v", err)
		}
		if len(enhanced) != 2 {
			t.Errorf("tracks from the healthy playlists must persist, got %d", len(enhanced))
		}
	})

	t.Run("reports monotone progress ending at 100", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.playlists = []models.Playlist{
			{ID: "p1", Name: "First", OwnerID: "me"},
			{ID: "p2", Name: "Second", OwnerID: "me"},
		}
		catalog.tracks["p1"] = []models.PlaylistEntry{entry("t1", "One", "a1")}
		catalog.tracks["p2"] = []models.PlaylistEntry{entry("t2", "Two", "a1")}
		catalog.features["t1"] = &models.AudioFeatures{TrackID: "t1"}
		catalog.features["t2"] = &models.AudioFeatures{TrackID: "t2"}
		catalog.artists["a1"] = models.Artist{ID: "a1", Name: "Artist"}

		st := setupTestStore(t)

		var updates []ProgressUpdate
		_, err := NewSyncEngine(catalog, st, nil, nil).Run(ctx, func(update ProgressUpdate) {
			updates = append(updates, update)
		})
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if len(updates) == 0 {
			t.Fatal("expected progress updates")
		}
		last := 0.0
		for i, update := range updates {
			if update.Percent < last {
				t.Errorf("progress regressed at update %d: %v -> %v", i, last, update.Percent)
			}
			last = update.Percent
		}
		final := updates[len(updates)-1]
		if final.Percent != 100 {
			t.Errorf("final update must be exactly 100, got %v", final.Percent)
		}
		if final.Stage != StageDone {
			t.Errorf("final update must signal completion, got %v", final.Stage)
		}
	})

	t.Run("retried sync finds less missing work", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.playlists = []models.Playlist{{ID: "p1", Name: "Mine", OwnerID: "me"}}
		catalog.tracks["p1"] = []models.PlaylistEntry{entry("t1", "One")}

		st := setupTestStore(t)
		engine := NewSyncEngine(catalog, st, nil, nil)

		if _, err := engine.Run(ctx, nil); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}

		// The feature arrives remotely between syncs.
		catalog.features["t1"] = &models.AudioFeatures{TrackID: "t1", Tempo: 100}
		result, err := engine.Run(ctx, nil)
		if err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if result.FeaturesFetched != 1 {
			t.Errorf("expected the backfill fetched on retry, got %d", result.FeaturesFetched)
		}

		missing, _ := st.TrackIDsMissingFeatures(ctx)
		if len(missing) != 0 {
			t.Errorf("expected no missing features after retry, got %v", missing)
		}
	})
}
