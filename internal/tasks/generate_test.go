package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/temeke/spotify-playlists/internal/filters"
	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/shared"
)

func seedLibrary(t *testing.T, catalog *fakeCatalog, trackCount int) *fakeCatalog {
	t.Helper()
	catalog.playlists = []models.Playlist{{ID: "p1", Name: "Mine", OwnerID: "me"}}
	for i := 0; i < trackCount; i++ {
		id := string(rune('a'+i%26)) + "-track"
		if trackCount > 26 {
			id = string(rune('a'+i%26)) + string(rune('0'+i/26)) + "-track"
		}
		catalog.tracks["p1"] = append(catalog.tracks["p1"], entry(id, "Song "+id))
	}
	return catalog
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the playlist and records it", func(t *testing.T) {
		catalog := seedLibrary(t, newFakeCatalog(), 3)
		st := setupTestStore(t)
		if _, err := NewSyncEngine(catalog, st, nil, nil).Run(ctx, nil); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		generator := NewGenerator(catalog, st, nil)
		spec := &filters.Spec{Popularity: &filters.Range{Min: 0, Max: 100}}
		record, err := generator.Generate(ctx, spec, GenerateOptions{Name: "My Mix", Description: "generated"})
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}

		if record.TrackCount != 3 {
			t.Errorf("expected 3 tracks, got %d", record.TrackCount)
		}
		if len(catalog.created) != 1 || catalog.created[0].Name != "My Mix" {
			t.Errorf("expected one created playlist, got %+v", catalog.created)
		}

		var snapshot filters.Spec
		if err := json.Unmarshal([]byte(record.Filters), &snapshot); err != nil {
			t.Fatalf("filter snapshot is not valid JSON: %v", err)
		}
		if snapshot.Popularity == nil || snapshot.Popularity.Max != 100 {
			t.Errorf("snapshot lost the filter state: %+v", snapshot)
		}

		records, err := st.GeneratedPlaylists(ctx)
		if err != nil {
			t.Fatalf("log query failed: %v", err)
		}
		if len(records) != 1 || records[0].ID != record.ID {
			t.Errorf("expected the generation recorded, got %+v", records)
		}
	})

	t.Run("chunks track additions", func(t *testing.T) {
		catalog := seedLibrary(t, newFakeCatalog(), 130)
		st := setupTestStore(t)
		if _, err := NewSyncEngine(catalog, st, nil, nil).Run(ctx, nil); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		generator := NewGenerator(catalog, st, nil)
		record, err := generator.Generate(ctx, nil, GenerateOptions{Name: "Big Mix"})
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}

		batches := catalog.addedByList[record.ID]
		if len(batches) != 2 {
			t.Fatalf("expected 2 batches for 130 tracks, got %d", len(batches))
		}
		if len(batches[0]) != 100 || len(batches[1]) != 30 {
			t.Errorf("expected batches of 100 and 30, got %d and %d", len(batches[0]), len(batches[1]))
		}
		for _, uri := range batches[0] {
			if !strings.HasPrefix(uri, "spotify:track:") {
				t.Fatalf("expected track URIs, got %q", uri)
			}
		}
	})

	t.Run("collapses cross-playlist duplicates by default", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.playlists = []models.Playlist{
			{ID: "p1", Name: "First", OwnerID: "me"},
			{ID: "p2", Name: "Second", OwnerID: "me"},
		}
		catalog.tracks["p1"] = []models.PlaylistEntry{entry("t1", "Shared")}
		catalog.tracks["p2"] = []models.PlaylistEntry{entry("t1", "Shared")}

		st := setupTestStore(t)
		if _, err := NewSyncEngine(catalog, st, nil, nil).Run(ctx, nil); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		generator := NewGenerator(catalog, st, nil)
		record, err := generator.Generate(ctx, nil, GenerateOptions{Name: "Deduped"})
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if record.TrackCount != 1 {
			t.Errorf("expected the shared track once, got %d", record.TrackCount)
		}

		record2, err := generator.Generate(ctx, nil, GenerateOptions{Name: "Raw", NoDedup: true})
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if record2.TrackCount != 2 {
			t.Errorf("expected one entry per membership with NoDedup, got %d", record2.TrackCount)
		}
	})

	t.Run("caps and shuffles deterministically with an injected source", func(t *testing.T) {
		catalog := seedLibrary(t, newFakeCatalog(), 10)
		st := setupTestStore(t)
		if _, err := NewSyncEngine(catalog, st, nil, nil).Run(ctx, nil); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		generator := NewGenerator(catalog, st, nil)
		record, err := generator.Generate(ctx, nil, GenerateOptions{
			Name:      "Short Mix",
			MaxTracks: 4,
			Shuffle:   true,
			Rand:      rand.New(rand.NewSource(1)),
		})
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if record.TrackCount != 4 {
			t.Errorf("expected the cap applied, got %d", record.TrackCount)
		}
	})

	t.Run("requires a name", func(t *testing.T) {
		catalog := newFakeCatalog()
		st := setupTestStore(t)
		generator := NewGenerator(catalog, st, nil)

		_, err := generator.Generate(ctx, nil, GenerateOptions{})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("leaves no record when adding tracks fails", func(t *testing.T) {
		catalog := seedLibrary(t, newFakeCatalog(), 2)
		st := setupTestStore(t)
		if _, err := NewSyncEngine(catalog, st, nil, nil).Run(ctx, nil); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		catalog.failAdd = true
		generator := NewGenerator(catalog, st, nil)
		if _, err := generator.Generate(ctx, nil, GenerateOptions{Name: "Doomed"}); err == nil {
			t.Fatal("expected generate to fail")
		}

		records, err := st.GeneratedPlaylists(ctx)
		if err != nil {
			t.Fatalf("log query failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("failed generation must not be recorded, got %+v", records)
		}
	})

	t.Run("fails when nothing matches", func(t *testing.T) {
		catalog := seedLibrary(t, newFakeCatalog(), 2)
		st := setupTestStore(t)
		if _, err := NewSyncEngine(catalog, st, nil, nil).Run(ctx, nil); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		generator := NewGenerator(catalog, st, nil)
		spec := &filters.Spec{Popularity: &filters.Range{Min: 99, Max: 100}}
		if _, err := generator.Generate(ctx, spec, GenerateOptions{Name: "Empty"}); err == nil {
			t.Fatal("expected generate to fail with no candidates")
		}
	})
}
