// Package models defines domain entities shared across the sync, store,
// and filter layers.
//
// The package contains two categories of types:
//
// 1. Mirrored entities, persisted by internal/store:
//   - [Playlist] : playlist metadata from the remote library
//   - [Track] : one playlist membership of a track
//   - [AudioFeatures] : per-track audio analysis, keyed by track ID
//   - [Artist] : full artist record with genre tags
//   - [GeneratedPlaylist] : append-only record of a generated playlist
//
// 2. Derived and transport types, never persisted:
//   - [EnhancedTrack] : a track joined with its features and artists
//   - [PlaylistEntry] : a track plus its added-at timestamp from the API
//   - [User] : the authenticated account
//
// Track rows are keyed by (track ID, playlist ID); the enhanced projection
// does not collapse cross-playlist duplicates. Deduplication, when wanted,
// happens at generation time.
package models
