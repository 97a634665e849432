// Package track provides the Track domain entity.
package track

import (
	"path/filepath"
	"strings"
	"time"
)

// Track represents one queued audio item.
// Metadata is extracted from the file's tags at add time; fields stay blank
// when the tags are missing or unreadable.
type Track struct {
	ID       string        // Internal UUID, used for event correlation
	Path     string        // Absolute or caller-relative source path
	Title    string        // Track title (tag, may be empty)
	Artist   string        // Artist name (tag, may be empty)
	Album    string        // Album name (tag, may be empty)
	Format   string        // Container/codec name (e.g. "mp3", "flac")
	Duration time.Duration // Total duration, 0 when extraction failed
	AddedAt  time.Time     // Time when added to the queue
}

// DisplayTitle returns the title, falling back to the file stem when the
// tags carried no title.
func (t *Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	base := filepath.Base(t.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DisplayArtist returns the artist name or a placeholder.
func (t *Track) DisplayArtist() string {
	if t.Artist != "" {
		return t.Artist
	}
	return "Unknown Artist"
}

// HasDuration reports whether a usable duration was extracted.
func (t *Track) HasDuration() bool {
	return t.Duration > 0
}
