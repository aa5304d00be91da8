// package tasks implements the long-running library operations: the full
// library sync and filtered playlist generation.
//
// Operations report progress through a synchronous callback so the CLI or
// TUI layer can render status. Percentages are non-decreasing within a
// run and a completed sync always finishes at exactly 100.
package tasks

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/services"
	"github.com/temeke/spotify-playlists/internal/shared"
	"github.com/temeke/spotify-playlists/internal/store"
)

// SyncResult summarizes one completed sync run.
type SyncResult struct {
	User            *models.User          `json:"user"`
	PlaylistCount   int                   `json:"playlist_count"`
	TrackCount      int                   `json:"track_count"`
	FeaturesFetched int                   `json:"features_fetched"`
	ArtistsFetched  int                   `json:"artists_fetched"`
	FailedPlaylists []string              `json:"failed_playlists,omitempty"`
	Enhanced        []models.EnhancedTrack `json:"-"`
}

// SyncEngine mirrors the remote library into the local store.
//
// Remote calls within a run are issued sequentially and paced through the
// rate limiter. Callers must not issue overlapping runs against the same
// store; the engine holds no internal lock.
type SyncEngine struct {
	catalog services.RemoteCatalog
	store   *store.Store
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewSyncEngine creates a sync engine. A nil limiter disables pacing.
func NewSyncEngine(catalog services.RemoteCatalog, st *store.Store, limiter *rate.Limiter, logger *log.Logger) *SyncEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SyncEngine{
		catalog: catalog,
		store:   st,
		limiter: limiter,
		logger:  logger.With("task", "sync"),
	}
}

func (e *SyncEngine) wait(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx)
}

// Run performs a full sync: playlists, track memberships, audio features,
// artists, and a final projection of the enhanced view.
//
// A playlist or batch failure mid-stage is logged and skipped; rows
// persisted by completed stages stay committed even when a later stage
// fails, so a retried sync finds less work remaining.
func (e *SyncEngine) Run(ctx context.Context, progress func(ProgressUpdate)) (*SyncResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: remote catalog not configured", shared.ErrRemoteUnavailable)
	}

	reporter := newReporter(progress)
	result := &SyncResult{}

	// Stage 1: identity and owned playlists.
	reporter.report(StagePlaylists, 10, "Fetching profile and playlists...")

	user, err := e.catalog.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}
	result.User = user

	remote, err := e.catalog.AllPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlists: %w", err)
	}

	// Followed and collaborative playlists owned by others are skipped:
	// generated playlists need write access later.
	owned := make([]models.Playlist, 0, len(remote))
	for _, pl := range remote {
		if pl.OwnerID == user.ID {
			owned = append(owned, pl)
		}
	}

	if err := e.store.UpsertPlaylists(ctx, owned); err != nil {
		return nil, fmt.Errorf("failed to persist playlists: %w", err)
	}
	result.PlaylistCount = len(owned)
	reporter.report(StagePlaylists, 20, fmt.Sprintf("Found %d playlists", len(owned)))

	// Stage 2: track memberships, one playlist at a time.
	for i, pl := range owned {
		percent := 20 + 40*float64(i+1)/float64(len(owned))
		reporter.report(StageTracks, percent, fmt.Sprintf("[%d/%d] Syncing %s...", i+1, len(owned), pl.Name))

		if err := e.wait(ctx); err != nil {
			return result, err
		}

		entries, err := e.catalog.AllPlaylistTracks(ctx, pl.ID)
		if err != nil {
			e.logger.Warn("skipping playlist", "playlist", pl.Name, "error", err)
			result.FailedPlaylists = append(result.FailedPlaylists, pl.ID)
			continue
		}

		kept := make([]models.PlaylistEntry, 0, len(entries))
		for _, entry := range entries {
			if entry.Track == nil || entry.Track.IsLocal {
				continue
			}
			kept = append(kept, entry)
		}

		if err := e.store.UpsertTrackMemberships(ctx, pl.ID, pl.Name, kept); err != nil {
			e.logger.Warn("failed to persist tracks", "playlist", pl.Name, "error", err)
			result.FailedPlaylists = append(result.FailedPlaylists, pl.ID)
			continue
		}
		result.TrackCount += len(kept)
	}
	reporter.report(StageTracks, 60, fmt.Sprintf("Synced %d tracks", result.TrackCount))

	// Stage 3: audio features for tracks still missing them.
	missing, err := e.store.TrackIDsMissingFeatures(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to compute missing features: %w", err)
	}

	fetched, err := e.syncFeatures(ctx, reporter, missing)
	if err != nil {
		return result, err
	}
	result.FeaturesFetched = fetched
	reporter.report(StageFeatures, 85, fmt.Sprintf("Fetched features for %d tracks", fetched))

	// Stage 4: artist records referenced by synced tracks.
	artistCount, err := e.syncArtists(ctx, reporter)
	if err != nil {
		return result, err
	}
	result.ArtistsFetched = artistCount
	reporter.report(StageArtists, 95, fmt.Sprintf("Fetched %d artists", artistCount))

	// Stage 5: rebuild the enhanced view.
	reporter.report(StageProject, 95, "Building the enhanced track view...")
	enhanced, err := e.store.AllEnhancedTracks(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to project enhanced tracks: %w", err)
	}
	result.Enhanced = enhanced

	reporter.report(StageDone, 100, "Sync complete")
	return result, nil
}

// syncFeatures fetches audio features in batches. A failed batch is
// logged and skipped; nulls within a batch are dropped and the rest
// persisted.
func (e *SyncEngine) syncFeatures(ctx context.Context, reporter *reporter, trackIDs []string) (int, error) {
	total := len(trackIDs)
	fetched := 0

	for start := 0; start < total; start += services.MaxFeatureBatch {
		end := min(start+services.MaxFeatureBatch, total)
		percent := 60 + 25*float64(end)/float64(total)
		reporter.report(StageFeatures, percent, fmt.Sprintf("Fetching audio features %d-%d of %d...", start+1, end, total))

		if err := e.wait(ctx); err != nil {
			return fetched, err
		}

		batch := trackIDs[start:end]
		features, err := e.catalog.AudioFeatures(ctx, batch)
		if err != nil {
			e.logger.Warn("skipping feature batch", "start", start, "error", err)
			continue
		}

		resolved := make([]models.AudioFeatures, 0, len(features))
		for _, af := range features {
			if af == nil {
				continue
			}
			resolved = append(resolved, *af)
		}
		if err := e.store.UpsertAudioFeatures(ctx, resolved); err != nil {
			e.logger.Warn("failed to persist feature batch", "start", start, "error", err)
			continue
		}
		fetched += len(resolved)
	}

	return fetched, nil
}

// syncArtists resolves the artist ids referenced by stored tracks that
// have no stored artist record yet and fetches them in batches.
func (e *SyncEngine) syncArtists(ctx context.Context, reporter *reporter) (int, error) {
	enhanced, err := e.store.AllEnhancedTracks(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read synced tracks: %w", err)
	}

	referenced := make(map[string]struct{})
	for _, track := range enhanced {
		for _, ref := range track.Artists {
			if ref.ID != "" {
				referenced[ref.ID] = struct{}{}
			}
		}
	}
	candidates := make([]string, 0, len(referenced))
	for id := range referenced {
		candidates = append(candidates, id)
	}
	sort.Strings(candidates)

	missing, err := e.store.MissingArtistIDs(ctx, candidates)
	if err != nil {
		return 0, fmt.Errorf("failed to compute missing artists: %w", err)
	}

	total := len(missing)
	fetched := 0

	for start := 0; start < total; start += services.MaxArtistBatch {
		end := min(start+services.MaxArtistBatch, total)
		percent := 85 + 10*float64(end)/float64(total)
		reporter.report(StageArtists, percent, fmt.Sprintf("Fetching artists %d-%d of %d...", start+1, end, total))

		if err := e.wait(ctx); err != nil {
			return fetched, err
		}

		artists, err := e.catalog.Artists(ctx, missing[start:end])
		if err != nil {
			e.logger.Warn("skipping artist batch", "start", start, "error", err)
			continue
		}
		if err := e.store.UpsertArtists(ctx, artists); err != nil {
			e.logger.Warn("failed to persist artist batch", "start", start, "error", err)
			continue
		}
		fetched += len(artists)
	}

	return fetched, nil
}
