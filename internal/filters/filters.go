// Package filters evaluates compound filter specifications against the
// enriched track view and derives the available filter domain from the
// mirrored data.
//
// Evaluation is a single linear scan. Constraints combine with AND
// across dimensions and OR within multi-value dimensions. Tracks without
// audio features vacuously satisfy the audio constraints; popularity
// lives on the track itself and is always evaluated.
package filters

import (
	"fmt"
	"sort"

	"github.com/temeke/spotify-playlists/internal/models"
	"github.com/temeke/spotify-playlists/internal/shared"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range, inclusive.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Spec is a compound filter. Every field is independently optional; a
// nil or empty field imposes no constraint.
type Spec struct {
	Genres []string `json:"genres,omitempty"`

	Tempo            *Range `json:"tempo,omitempty"`
	Energy           *Range `json:"energy,omitempty"`
	Danceability     *Range `json:"danceability,omitempty"`
	Valence          *Range `json:"valence,omitempty"`
	Acousticness     *Range `json:"acousticness,omitempty"`
	Instrumentalness *Range `json:"instrumentalness,omitempty"`
	Liveness         *Range `json:"liveness,omitempty"`
	Speechiness      *Range `json:"speechiness,omitempty"`

	Popularity *Range `json:"popularity,omitempty"`

	Keys           []int `json:"keys,omitempty"`
	Modes          []int `json:"modes,omitempty"`
	TimeSignatures []int `json:"time_signatures,omitempty"`
}

// IsEmpty reports whether the spec imposes no constraints at all.
func (s *Spec) IsEmpty() bool {
	return len(s.Genres) == 0 &&
		s.Tempo == nil && s.Energy == nil && s.Danceability == nil &&
		s.Valence == nil && s.Acousticness == nil && s.Instrumentalness == nil &&
		s.Liveness == nil && s.Speechiness == nil && s.Popularity == nil &&
		len(s.Keys) == 0 && len(s.Modes) == 0 && len(s.TimeSignatures) == 0
}

// Validate checks that every specified range is well-formed.
func (s *Spec) Validate() error {
	ranges := map[string]*Range{
		"tempo":            s.Tempo,
		"energy":           s.Energy,
		"danceability":     s.Danceability,
		"valence":          s.Valence,
		"acousticness":     s.Acousticness,
		"instrumentalness": s.Instrumentalness,
		"liveness":         s.Liveness,
		"speechiness":      s.Speechiness,
		"popularity":       s.Popularity,
	}
	for name, r := range ranges {
		if r == nil {
			continue
		}
		if r.Min > r.Max {
			return fmt.Errorf("%w: %s range min %.2f exceeds max %.2f", shared.ErrInvalidFilter, name, r.Min, r.Max)
		}
	}
	for _, key := range s.Keys {
		if key < 0 || key > 11 {
			return fmt.Errorf("%w: key %d outside 0-11", shared.ErrInvalidFilter, key)
		}
	}
	for _, mode := range s.Modes {
		if mode != 0 && mode != 1 {
			return fmt.Errorf("%w: mode %d must be 0 or 1", shared.ErrInvalidFilter, mode)
		}
	}
	for _, ts := range s.TimeSignatures {
		if ts <= 0 {
			return fmt.Errorf("%w: time signature %d must be positive", shared.ErrInvalidFilter, ts)
		}
	}
	return nil
}

// Evaluate returns the subset of tracks satisfying every specified
// constraint, in the input order. The input is scanned exactly once.
func Evaluate(tracks []models.EnhancedTrack, spec *Spec) []models.EnhancedTrack {
	if spec == nil {
		spec = &Spec{}
	}

	genreSet := stringSet(spec.Genres)
	keySet := intSet(spec.Keys)
	modeSet := intSet(spec.Modes)
	tsSet := intSet(spec.TimeSignatures)

	var matched []models.EnhancedTrack
	for _, track := range tracks {
		if !matchesGenres(track, genreSet) {
			continue
		}
		if spec.Popularity != nil && !spec.Popularity.Contains(float64(track.Popularity)) {
			continue
		}
		if !matchesFeatures(track.AudioFeatures, spec, keySet, modeSet, tsSet) {
			continue
		}
		matched = append(matched, track)
	}
	return matched
}

// matchesGenres tests genre membership: the track matches if any of its
// artists' genres intersects the requested set.
func matchesGenres(track models.EnhancedTrack, genres map[string]struct{}) bool {
	if len(genres) == 0 {
		return true
	}
	for _, artist := range track.ArtistDetails {
		for _, genre := range artist.Genres {
			if _, ok := genres[genre]; ok {
				return true
			}
		}
	}
	return false
}

// matchesFeatures tests the audio constraints. A nil feature record
// satisfies them all vacuously.
func matchesFeatures(af *models.AudioFeatures, spec *Spec, keys, modes, timeSigs map[int]struct{}) bool {
	if af == nil {
		return true
	}

	checks := []struct {
		r *Range
		v float64
	}{
		{spec.Tempo, af.Tempo},
		{spec.Energy, af.Energy},
		{spec.Danceability, af.Danceability},
		{spec.Valence, af.Valence},
		{spec.Acousticness, af.Acousticness},
		{spec.Instrumentalness, af.Instrumentalness},
		{spec.Liveness, af.Liveness},
		{spec.Speechiness, af.Speechiness},
	}
	for _, check := range checks {
		if check.r != nil && !check.r.Contains(check.v) {
			return false
		}
	}

	if len(keys) > 0 {
		if _, ok := keys[af.Key]; !ok {
			return false
		}
	}
	if len(modes) > 0 {
		if _, ok := modes[af.Mode]; !ok {
			return false
		}
	}
	if len(timeSigs) > 0 {
		if _, ok := timeSigs[af.TimeSignature]; !ok {
			return false
		}
	}
	return true
}

func stringSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func intSet(values []int) map[int]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[int]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
