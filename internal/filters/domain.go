package filters

import (
	"math"
	"sort"

	"github.com/temeke/spotify-playlists/internal/models"
)

// Domain describes the filterable value space observed in a track
// collection. It seeds UI bounds so ranges always reflect data actually
// present rather than hardcoded limits.
type Domain struct {
	Genres         []string `json:"genres"`
	Keys           []int    `json:"keys"`
	Modes          []int    `json:"modes"`
	TimeSignatures []int    `json:"time_signatures"`

	Tempo            Range `json:"tempo"`
	Energy           Range `json:"energy"`
	Danceability     Range `json:"danceability"`
	Valence          Range `json:"valence"`
	Acousticness     Range `json:"acousticness"`
	Instrumentalness Range `json:"instrumentalness"`
	Liveness         Range `json:"liveness"`
	Speechiness      Range `json:"speechiness"`

	Popularity Range `json:"popularity"`
}

// Defaults used when the collection holds no data for a dimension.
var (
	defaultTempoRange      = Range{Min: 60, Max: 200}
	defaultUnitRange       = Range{Min: 0, Max: 1}
	defaultPopularityRange = Range{Min: 0, Max: 100}
)

// DeriveDomain scans the collection once and accumulates the distinct
// genre, key, mode, and time-signature sets plus the observed [min,max]
// envelope of each numeric dimension. Dimensions with no observations
// fall back to fixed defaults.
func DeriveDomain(tracks []models.EnhancedTrack) *Domain {
	genres := make(map[string]struct{})
	keys := make(map[int]struct{})
	modes := make(map[int]struct{})
	timeSigs := make(map[int]struct{})

	tempo := newEnvelope()
	energy := newEnvelope()
	dance := newEnvelope()
	valence := newEnvelope()
	acoustic := newEnvelope()
	instrumental := newEnvelope()
	liveness := newEnvelope()
	speech := newEnvelope()
	popularity := newEnvelope()

	for _, track := range tracks {
		for _, artist := range track.ArtistDetails {
			for _, genre := range artist.Genres {
				genres[genre] = struct{}{}
			}
		}

		popularity.observe(float64(track.Popularity))

		af := track.AudioFeatures
		if af == nil {
			continue
		}
		keys[af.Key] = struct{}{}
		modes[af.Mode] = struct{}{}
		timeSigs[af.TimeSignature] = struct{}{}

		tempo.observe(af.Tempo)
		energy.observe(af.Energy)
		dance.observe(af.Danceability)
		valence.observe(af.Valence)
		acoustic.observe(af.Acousticness)
		instrumental.observe(af.Instrumentalness)
		liveness.observe(af.Liveness)
		speech.observe(af.Speechiness)
	}

	genreList := make([]string, 0, len(genres))
	for g := range genres {
		genreList = append(genreList, g)
	}
	sort.Strings(genreList)

	return &Domain{
		Genres:         genreList,
		Keys:           sortedInts(keys),
		Modes:          sortedInts(modes),
		TimeSignatures: sortedInts(timeSigs),

		Tempo:            widenToInts(tempo.rangeOr(defaultTempoRange)),
		Energy:           energy.rangeOr(defaultUnitRange),
		Danceability:     dance.rangeOr(defaultUnitRange),
		Valence:          valence.rangeOr(defaultUnitRange),
		Acousticness:     acoustic.rangeOr(defaultUnitRange),
		Instrumentalness: instrumental.rangeOr(defaultUnitRange),
		Liveness:         liveness.rangeOr(defaultUnitRange),
		Speechiness:      speech.rangeOr(defaultUnitRange),

		Popularity: popularity.rangeOr(defaultPopularityRange),
	}
}

// envelope tracks a running min/max over observed values.
type envelope struct {
	min, max float64
	seen     bool
}

func newEnvelope() *envelope {
	return &envelope{min: math.Inf(1), max: math.Inf(-1)}
}

func (e *envelope) observe(v float64) {
	e.seen = true
	if v < e.min {
		e.min = v
	}
	if v > e.max {
		e.max = v
	}
}

func (e *envelope) rangeOr(fallback Range) Range {
	if !e.seen {
		return fallback
	}
	return Range{Min: e.min, Max: e.max}
}

// widenToInts floors the lower and ceils the upper bound, giving
// whole-number slider bounds for BPM.
func widenToInts(r Range) Range {
	return Range{Min: math.Floor(r.Min), Max: math.Ceil(r.Max)}
}
