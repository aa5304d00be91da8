// package formatter renders track collections and filter summaries for
// display and export (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/temeke/spotify-playlists/internal/filters"
	"github.com/temeke/spotify-playlists/internal/models"
)

// Pitch-class names indexed by the key field of an audio analysis.
var keyNames = [12]string{"C", "C#/Db", "D", "D#/Eb", "E", "F", "F#/Gb", "G", "G#/Ab", "A", "A#/Bb", "B"}

// KeyName returns the musical name for a pitch-class key, or "?" when the
// value is outside 0-11.
func KeyName(key int) string {
	if key < 0 || key > 11 {
		return "?"
	}
	return keyNames[key]
}

// ModeName renders the modality flag (1 = major, 0 = minor).
func ModeName(mode int) string {
	if mode == 1 {
		return "Major"
	}
	return "Minor"
}

// FormatDuration renders a millisecond duration as m:ss.
func FormatDuration(durationMS int) string {
	totalSeconds := durationMS / 1000
	return fmt.Sprintf("%d:%02d", totalSeconds/60, totalSeconds%60)
}

// ArtistNames joins a track's artist names with commas.
func ArtistNames(track models.Track) string {
	names := make([]string, len(track.Artists))
	for i, a := range track.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// TracksToCSV renders tracks as CSV with columns: ID, Name, Artists,
// Album, Duration, Popularity, Tempo, Key, Mode, Playlist.
func TracksToCSV(tracks []models.EnhancedTrack) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "Album", "Duration", "Popularity", "Tempo", "Key", "Mode", "Playlist"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		tempo, key, mode := "", "", ""
		if af := track.AudioFeatures; af != nil {
			tempo = strconv.FormatFloat(af.Tempo, 'f', 1, 64)
			key = KeyName(af.Key)
			mode = ModeName(af.Mode)
		}
		record := []string{
			track.ID,
			track.Name,
			ArtistNames(track.Track),
			track.AlbumName,
			FormatDuration(track.DurationMS),
			strconv.Itoa(track.Popularity),
			tempo,
			key,
			mode,
			track.PlaylistName,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToMarkdown renders tracks as a Markdown listing under a title.
func TracksToMarkdown(title string, tracks []models.EnhancedTrack) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	for i, track := range tracks {
		detail := ""
		if af := track.AudioFeatures; af != nil {
			detail = fmt.Sprintf(" — %.0f BPM, %s %s", af.Tempo, KeyName(af.Key), ModeName(af.Mode))
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]%s\n",
			i+1, ArtistNames(track.Track), track.Name, FormatDuration(track.DurationMS), detail))
	}

	return buf.Bytes()
}

// TracksToText renders tracks as a plain listing.
func TracksToText(tracks []models.EnhancedTrack) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))
	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, ArtistNames(track.Track), track.Name))
	}

	return buf.Bytes()
}

// FilterSummary renders a one-line description of the active constraints,
// e.g. "genres: rock, indie | tempo: 100-140 | popularity: 50-100".
func FilterSummary(spec *filters.Spec) string {
	if spec == nil || spec.IsEmpty() {
		return "no filters"
	}

	var parts []string
	if len(spec.Genres) > 0 {
		parts = append(parts, "genres: "+strings.Join(spec.Genres, ", "))
	}

	ranges := []struct {
		name string
		r    *filters.Range
	}{
		{"tempo", spec.Tempo},
		{"energy", spec.Energy},
		{"danceability", spec.Danceability},
		{"valence", spec.Valence},
		{"acousticness", spec.Acousticness},
		{"instrumentalness", spec.Instrumentalness},
		{"liveness", spec.Liveness},
		{"speechiness", spec.Speechiness},
		{"popularity", spec.Popularity},
	}
	for _, entry := range ranges {
		if entry.r == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s-%s",
			entry.name, trimFloat(entry.r.Min), trimFloat(entry.r.Max)))
	}

	if len(spec.Keys) > 0 {
		names := make([]string, len(spec.Keys))
		for i, k := range spec.Keys {
			names[i] = KeyName(k)
		}
		parts = append(parts, "keys: "+strings.Join(names, ", "))
	}
	if len(spec.Modes) > 0 {
		names := make([]string, len(spec.Modes))
		for i, m := range spec.Modes {
			names[i] = ModeName(m)
		}
		parts = append(parts, "modes: "+strings.Join(names, ", "))
	}
	if len(spec.TimeSignatures) > 0 {
		names := make([]string, len(spec.TimeSignatures))
		for i, ts := range spec.TimeSignatures {
			names[i] = fmt.Sprintf("%d/4", ts)
		}
		parts = append(parts, "time: "+strings.Join(names, ", "))
	}

	return strings.Join(parts, " | ")
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
