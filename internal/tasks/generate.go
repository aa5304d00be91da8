package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/temeke/spotify-playlists/internal/filters"
	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/services"
	"github.com/temeke/spotify-playlists/internal/shared"
	"github.com/temeke/spotify-playlists/internal/store"
)

// GenerateOptions controls playlist generation from a filter snapshot.
type GenerateOptions struct {
	Name        string
	Description string
	Public      bool
	MaxTracks   int  // 0 means no cap
	Shuffle     bool // Fisher-Yates shuffle before applying the cap
	NoDedup     bool // Keep one entry per playlist membership instead of one per song

	// Rand drives the shuffle. Nil falls back to a time-seeded source.
	Rand *rand.Rand
}

// Generator creates remote playlists from the filtered candidate set and
// records each successful creation.
type Generator struct {
	catalog services.RemoteCatalog
	store   *store.Store
	logger  *log.Logger
}

func NewGenerator(catalog services.RemoteCatalog, st *store.Store, logger *log.Logger) *Generator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Generator{
		catalog: catalog,
		store:   st,
		logger:  logger.With("task", "generate"),
	}
}

// Generate evaluates the filter against the stored enhanced view, creates
// a remote playlist from the candidates, and appends a generation record.
// The record is written only after every track chunk lands; a failure
// partway leaves the bookkeeping untouched.
func (g *Generator) Generate(ctx context.Context, spec *filters.Spec, opts GenerateOptions) (*models.GeneratedPlaylist, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}
	if spec == nil {
		spec = &filters.Spec{}
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	tracks, err := g.store.AllEnhancedTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load track view: %w", err)
	}

	candidates := filters.Evaluate(tracks, spec)
	if !opts.NoDedup {
		candidates = dedupTracks(candidates)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no tracks match the filter")
	}

	if opts.Shuffle {
		shuffleTracks(candidates, opts.Rand)
	}
	if opts.MaxTracks > 0 && len(candidates) > opts.MaxTracks {
		candidates = candidates[:opts.MaxTracks]
	}

	user, err := g.catalog.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}

	created, err := g.catalog.CreatePlaylist(ctx, user.ID, opts.Name, opts.Description, opts.Public)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	g.logger.Info("created playlist", "id", created.ID, "name", created.Name)

	uris := make([]string, len(candidates))
	for i, track := range candidates {
		uris[i] = track.URI()
	}

	for start := 0; start < len(uris); start += services.MaxAddTrackBatch {
		end := min(start+services.MaxAddTrackBatch, len(uris))
		if err := g.catalog.AddTracks(ctx, created.ID, uris[start:end]); err != nil {
			return nil, fmt.Errorf("failed to add tracks %d-%d: %w", start+1, end, err)
		}
	}

	snapshot, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter snapshot: %w", err)
	}

	record := models.GeneratedPlaylist{
		ID:          created.ID,
		Name:        created.Name,
		Description: opts.Description,
		Filters:     string(snapshot),
		TrackCount:  len(candidates),
		SpotifyURL:  created.SpotifyURL,
		CreatedAt:   time.Now().UTC(),
	}
	if err := g.store.RecordGeneratedPlaylist(ctx, record); err != nil {
		return nil, fmt.Errorf("playlist created but bookkeeping failed: %w", err)
	}

	return &record, nil
}

// dedupTracks collapses cross-playlist duplicates. Identity is the track
// id when present, otherwise name plus first artist, so re-releases of
// the same song under different ids still collapse.
func dedupTracks(tracks []models.EnhancedTrack) []models.EnhancedTrack {
	seen := make(map[string]struct{}, len(tracks))
	out := make([]models.EnhancedTrack, 0, len(tracks))
	for _, track := range tracks {
		key := track.Name
		if len(track.Artists) > 0 {
			key += "|" + track.Artists[0].Name
		}
		if _, ok := seen[track.ID]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[track.ID] = struct{}{}
		seen[key] = struct{}{}
		out = append(out, track)
	}
	return out
}

func shuffleTracks(tracks []models.EnhancedTrack, rng *rand.Rand) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	rng.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
}
