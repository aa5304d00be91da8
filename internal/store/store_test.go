package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/shared"
)

// setupTestStore creates a Store over an in-memory SQLite database with
// migrations applied.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return New(db)
}

func testTrack(id, name string, artists ...models.ArtistRef) *models.Track {
	return &models.Track{
		ID:         id,
		Name:       name,
		Artists:    artists,
		AlbumID:    "album1",
		AlbumName:  "Album",
		DurationMS: 200000,
		Popularity: 50,
	}
}

func entriesFor(tracks ...*models.Track) []models.PlaylistEntry {
	entries := make([]models.PlaylistEntry, len(tracks))
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, track := range tracks {
		entries[i] = models.PlaylistEntry{AddedAt: base.Add(time.Duration(i) * time.Minute), Track: track}
	}
	return entries
}

func TestUpsertTrackMemberships(t *testing.T) {
	ctx := context.Background()

	t.Run("is idempotent", func(t *testing.T) {
		s := setupTestStore(t)
		entries := entriesFor(testTrack("t1", "One"), testTrack("t2", "Two"))

		if err := s.UpsertTrackMemberships(ctx, "p1", "Playlist 1", entries); err != nil {
			t.Fatalf("first upsert failed: %v", err)
		}
		if err := s.UpsertTrackMemberships(ctx, "p1", "Playlist 1", entries); err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}

		stats, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		if stats.Tracks != 2 {
			t.Errorf("expected 2 track rows after repeated upsert, got %d", stats.Tracks)
		}
	})

	t.Run("skips nil tracks", func(t *testing.T) {
		s := setupTestStore(t)
		entries := entriesFor(testTrack("t1", "One"))
		entries = append(entries, models.PlaylistEntry{AddedAt: time.Now()})

		if err := s.UpsertTrackMemberships(ctx, "p1", "Playlist 1", entries); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		stats, _ := s.Stats(ctx)
		if stats.Tracks != 1 {
			t.Errorf("expected 1 track row, got %d", stats.Tracks)
		}
	})

	t.Run("keeps one row per playlist membership", func(t *testing.T) {
		s := setupTestStore(t)
		track := testTrack("t1", "One")

		if err := s.UpsertTrackMemberships(ctx, "p1", "Playlist 1", entriesFor(track)); err != nil {
			t.Fatalf("upsert to p1 failed: %v", err)
		}
		if err := s.UpsertTrackMemberships(ctx, "p2", "Playlist 2", entriesFor(track)); err != nil {
			t.Fatalf("upsert to p2 failed: %v", err)
		}

		enhanced, err := s.AllEnhancedTracks(ctx)
		if err != nil {
			t.Fatalf("projection failed: %v", err)
		}
		if len(enhanced) != 2 {
			t.Fatalf("expected 2 membership rows, got %d", len(enhanced))
		}
		if enhanced[0].PlaylistID == enhanced[1].PlaylistID {
			t.Error("expected rows to differ in playlist attribution")
		}
	})
}

func TestTrackIDsMissingFeatures(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	entries := entriesFor(testTrack("t1", "One"), testTrack("t2", "Two"), testTrack("t3", "Three"))
	if err := s.UpsertTrackMemberships(ctx, "p1", "Playlist 1", entries); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	missing, err := s.TrackIDsMissingFeatures(ctx)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(missing) != 3 {
		t.Fatalf("expected 3 missing, got %d", len(missing))
	}

	features := []models.AudioFeatures{
		{TrackID: "t1", Tempo: 120},
		{TrackID: "t3", Tempo: 90},
	}
	if err := s.UpsertAudioFeatures(ctx, features); err != nil {
		t.Fatalf("feature upsert failed: %v", err)
	}

	missing, err = s.TrackIDsMissingFeatures(ctx)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(missing) != 1 || missing[0] != "t2" {
		t.Errorf("expected only t2 missing, got %v", missing)
	}
}

func TestAllEnhancedTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips track fields", func(t *testing.T) {
		s := setupTestStore(t)
		track := testTrack("t1", "One", models.ArtistRef{ID: "a1", Name: "Artist 1"})
		if err := s.UpsertTrackMemberships(ctx, "p1", "Playlist 1", entriesFor(track)); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		enhanced, err := s.AllEnhancedTracks(ctx)
		if err != nil {
			t.Fatalf("projection failed: %v", err)
		}
		if len(enhanced) != 1 {
			t.Fatalf("expected 1 row, got %d", len(enhanced))
		}

		got := enhanced[0]
		if got.ID != "t1" || got.Name != "One" || got.DurationMS != 200000 {
			t.Errorf("track fields did not round trip: %+v", got.Track)
		}
		if got.PlaylistID != "p1" || got.PlaylistName != "Playlist 1" {
			t.Errorf("playlist attribution lost: %+v", got.Track)
		}
		if got.AudioFeatures != nil {
			t.Error("expected no audio features yet")
		}
	})

	t.Run("reflects features added after the track sync", func(t *testing.T) {
		s := setupTestStore(t)
		track := testTrack("t1", "One")
		if err := s.UpsertTrackMemberships(ctx, "p1", "Playlist 1", entriesFor(track)); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		if err := s.UpsertAudioFeatures(ctx, []models.AudioFeatures{{TrackID: "t1", Tempo: 128, Key: 7, Mode: 1}}); err != nil {
			t.Fatalf("feature upsert failed: %v", err)
		}

		enhanced, err := s.AllEnhancedTracks(ctx)
		if err != nil {
			t.Fatalf("projection failed: %v", err)
		}
		if enhanced[0].AudioFeatures == nil {
			t.Fatal("expected features to be joined")
		}
		if enhanced[0].AudioFeatures.Tempo != 128 {
			t.Errorf("expected tempo 128, got %v", enhanced[0].AudioFeatures.Tempo)
		}
	})

	t.Run("drops unresolved artist refs silently", func(t *testing.T) {
		s := setupTestStore(t)
		track := testTrack("t1", "One",
			models.ArtistRef{ID: "a1", Name: "Stored"},
			models.ArtistRef{ID: "a2", Name: "Unknown"},
		)
		if err := s.UpsertTrackMemberships(ctx, "p1", "Playlist 1", entriesFor(track)); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
		if err := s.UpsertArtists(ctx, []models.Artist{{ID: "a1", Name: "Stored", Genres: []string{"rock"}}}); err != nil {
			t.Fatalf("artist upsert failed: %v", err)
		}

		enhanced, err := s.AllEnhancedTracks(ctx)
		if err != nil {
			t.Fatalf("projection failed: %v", err)
		}
		if len(enhanced[0].Artists) != 2 {
			t.Errorf("expected both refs preserved, got %d", len(enhanced[0].Artists))
		}
		if len(enhanced[0].ArtistDetails) != 1 || enhanced[0].ArtistDetails[0].ID != "a1" {
			t.Errorf("expected only the stored artist resolved, got %+v", enhanced[0].ArtistDetails)
		}
	})
}

func TestMissingArtistIDs(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if err := s.UpsertArtists(ctx, []models.Artist{{ID: "a1", Name: "One"}}); err != nil {
		t.Fatalf("artist upsert failed: %v", err)
	}

	missing, err := s.MissingArtistIDs(ctx, []string{"a2", "a1", "a3", "a2", ""})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(missing) != 2 || missing[0] != "a2" || missing[1] != "a3" {
		t.Errorf("expected [a2 a3], got %v", missing)
	}
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	t.Run("hit within TTL", func(t *testing.T) {
		s := setupTestStore(t)
		if err := s.CacheSet(ctx, "domain", map[string]int{"tracks": 3}, time.Hour); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		var payload map[string]int
		hit, err := s.CacheGet(ctx, "domain", &payload)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !hit {
			t.Fatal("expected cache hit")
		}
		if payload["tracks"] != 3 {
			t.Errorf("payload did not round trip: %v", payload)
		}
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		s := setupTestStore(t)
		var payload any
		hit, err := s.CacheGet(ctx, "absent", &payload)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if hit {
			t.Error("expected miss")
		}
	})

	t.Run("expired entry is a miss and lazily purged", func(t *testing.T) {
		s := setupTestStore(t)
		if err := s.CacheSet(ctx, "stale", "value", -time.Minute); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		var payload string
		hit, err := s.CacheGet(ctx, "stale", &payload)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if hit {
			t.Error("expired entry must never be a hit")
		}

		stats, _ := s.Stats(ctx)
		if stats.CacheEntries != 0 {
			t.Errorf("expected expired entry purged on read, %d rows remain", stats.CacheEntries)
		}
	})
}

func TestGeneratedPlaylists(t *testing.T) {
	ctx := context.Background()

	t.Run("orders most recent first", func(t *testing.T) {
		s := setupTestStore(t)
		base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		for i, id := range []string{"g1", "g2", "g3"} {
			record := models.GeneratedPlaylist{
				ID:        id,
				Name:      "Generated " + id,
				Filters:   "{}",
				CreatedAt: base.Add(time.Duration(i) * time.Hour),
			}
			if err := s.RecordGeneratedPlaylist(ctx, record); err != nil {
				t.Fatalf("record failed: %v", err)
			}
		}

		records, err := s.GeneratedPlaylists(ctx)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		if records[0].ID != "g3" || records[2].ID != "g1" {
			t.Errorf("expected most-recent-first order, got %v, %v, %v", records[0].ID, records[1].ID, records[2].ID)
		}
	})

	t.Run("records are immutable", func(t *testing.T) {
		s := setupTestStore(t)
		record := models.GeneratedPlaylist{ID: "g1", Name: "First", Filters: "{}", CreatedAt: time.Now().UTC()}
		if err := s.RecordGeneratedPlaylist(ctx, record); err != nil {
			t.Fatalf("record failed: %v", err)
		}

		record.Name = "Replaced"
		err := s.RecordGeneratedPlaylist(ctx, record)
		if err == nil {
			t.Fatal("expected duplicate insert to fail")
		}
		if !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected storage error, got %v", err)
		}
	})
}

func TestPurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if err := s.UpsertTrackMemberships(ctx, "p1", "Playlist 1", entriesFor(testTrack("t1", "One"))); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := s.RecordGeneratedPlaylist(ctx, models.GeneratedPlaylist{ID: "g1", Name: "Kept", Filters: "{}", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	// Rows were just written, so a cutoff in the past removes nothing.
	if err := s.PurgeOlderThan(ctx, time.Now().UTC().Add(-time.Hour)); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	stats, _ := s.Stats(ctx)
	if stats.Tracks != 1 {
		t.Errorf("expected fresh rows kept, got %d tracks", stats.Tracks)
	}

	// A future cutoff removes the mirror rows but never the log.
	if err := s.PurgeOlderThan(ctx, time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	stats, _ = s.Stats(ctx)
	if stats.Tracks != 0 {
		t.Errorf("expected stale tracks purged, got %d", stats.Tracks)
	}
	if stats.GeneratedPlaylists != 1 {
		t.Errorf("generation log must survive purges, got %d rows", stats.GeneratedPlaylists)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if err := s.UpsertPlaylists(ctx, []models.Playlist{{ID: "p1", Name: "Playlist 1", OwnerID: "u1"}}); err != nil {
		t.Fatalf("playlist upsert failed: %v", err)
	}
	if err := s.UpsertTrackMemberships(ctx, "p1", "Playlist 1", entriesFor(testTrack("t1", "One"))); err != nil {
		t.Fatalf("track upsert failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Playlists != 1 || stats.Tracks != 1 || stats.Artists != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
