package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/temeke/spotify-playlists/internal/filters"
	"github.com/temeke/spotify-playlists/internal/formatter"
	"github.com/temeke/spotify-playlists/internal/shared"
)

// parseRange parses "min-max" (or a single value meaning an exact match)
// into a filter range.
func parseRange(value string) (*filters.Range, error) {
	if value == "" {
		return nil, nil
	}

	parts := strings.SplitN(value, "-", 2)
	minValue, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid range %q", shared.ErrInvalidArgument, value)
	}

	if len(parts) == 1 {
		return &filters.Range{Min: minValue, Max: minValue}, nil
	}

	maxValue, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid range %q", shared.ErrInvalidArgument, value)
	}
	return &filters.Range{Min: minValue, Max: maxValue}, nil
}

// specFromFlags assembles a filter spec from the shared filter flags.
func specFromFlags(cmd *cli.Command) (*filters.Spec, error) {
	spec := &filters.Spec{
		Genres:         cmd.StringSlice("genre"),
		Keys:           cmd.IntSlice("key"),
		Modes:          cmd.IntSlice("mode"),
		TimeSignatures: cmd.IntSlice("time-signature"),
	}

	ranges := []struct {
		flag   string
		target **filters.Range
	}{
		{"tempo", &spec.Tempo},
		{"energy", &spec.Energy},
		{"danceability", &spec.Danceability},
		{"valence", &spec.Valence},
		{"acousticness", &spec.Acousticness},
		{"instrumentalness", &spec.Instrumentalness},
		{"popularity", &spec.Popularity},
	}
	for _, entry := range ranges {
		parsed, err := parseRange(cmd.String(entry.flag))
		if err != nil {
			return nil, err
		}
		*entry.target = parsed
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// FilterDomain prints the filterable value space derived from the store.
func (r *Runner) FilterDomain(ctx context.Context, cmd *cli.Command) error {
	st, closeStore, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	tracks, err := st.AllEnhancedTracks(ctx)
	if err != nil {
		return err
	}

	domain := filters.DeriveDomain(tracks)
	return r.writeJSON(domain, cmd.Bool("pretty"))
}

// FilterPreview evaluates the given filters and prints the candidates.
func (r *Runner) FilterPreview(ctx context.Context, cmd *cli.Command) error {
	spec, err := specFromFlags(cmd)
	if err != nil {
		return err
	}

	st, closeStore, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	tracks, err := st.AllEnhancedTracks(ctx)
	if err != nil {
		return err
	}

	candidates := filters.Evaluate(tracks, spec)

	if cmd.Bool("count") {
		r.writePlain("%d\n", len(candidates))
		return nil
	}

	switch format := cmd.String("format"); format {
	case "csv":
		data, err := formatter.TracksToCSV(candidates)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	case "markdown", "md":
		title := fmt.Sprintf("Preview: %s", formatter.FilterSummary(spec))
		return r.writePlain("%s", formatter.TracksToMarkdown(title, candidates))
	case "text":
		r.writePlain("Filters: %s\n", formatter.FilterSummary(spec))
		return r.writePlain("%s", formatter.TracksToText(candidates))
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}
