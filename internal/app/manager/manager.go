// Package manager provides the command facade over the queue and the
// playback controller.
package manager

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/qplay/internal/app/playback"
	"github.com/osa030/qplay/internal/audio"
	"github.com/osa030/qplay/internal/domain/playlist"
	"github.com/osa030/qplay/internal/domain/track"
)

// Manager is the single entry point the command surface talks to. Commands
// are serialized by the controller's state discipline; the manager's own
// work outside that lock (decode probing, playlist file I/O) touches no
// shared state.
type Manager struct {
	controller *playback.Controller
	decoder    audio.Decoder
}

// New creates a manager over the given controller and decoder.
func New(controller *playback.Controller, decoder audio.Decoder) *Manager {
	return &Manager{controller: controller, decoder: decoder}
}

// Add probes the source, builds the track from the extracted metadata, and
// inserts it at pos (negative appends). A failed probe rejects the add; a
// missing tag set does not.
func (m *Manager) Add(path string, pos int) (int, track.Track, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	md, err := m.decoder.Probe(path)
	if err != nil {
		return 0, track.Track{}, err
	}

	t := track.Track{
		ID:       uuid.New().String(),
		Path:     path,
		Title:    md.Title,
		Artist:   md.Artist,
		Album:    md.Album,
		Format:   md.Format,
		Duration: md.Duration,
		AddedAt:  time.Now(),
	}

	idx, err := m.controller.AddTrack(t, pos)
	if err != nil {
		return 0, track.Track{}, err
	}
	zlog.Info().Msgf("queue: added: index=%d title=%s path=%s", idx, t.DisplayTitle(), path)
	return idx, t, nil
}

// List returns the queue snapshot in playback order.
func (m *Manager) List() []track.Track {
	return m.controller.Tracks()
}

// Remove removes the track at pos.
func (m *Manager) Remove(pos int) (track.Track, error) {
	return m.controller.RemoveTrack(pos)
}

// Move relocates a track.
func (m *Manager) Move(from, to int) error {
	return m.controller.MoveTrack(from, to)
}

// Clear empties the queue and stops playback.
func (m *Manager) Clear() {
	m.controller.ClearQueue()
}

// Play starts or resumes playback.
func (m *Manager) Play() error { return m.controller.Play() }

// Pause pauses playback.
func (m *Manager) Pause() error { return m.controller.Pause() }

// Resume resumes paused playback.
func (m *Manager) Resume() error { return m.controller.Resume() }

// Next plays the next track.
func (m *Manager) Next() error { return m.controller.Next() }

// Previous plays the previous track.
func (m *Manager) Previous() error { return m.controller.Previous() }

// Jump plays the track at pos.
func (m *Manager) Jump(pos int) error { return m.controller.Jump(pos) }

// SetVolume stores and propagates the normalized volume.
func (m *Manager) SetVolume(v float64) error { return m.controller.SetVolume(v) }

// Status returns the playback snapshot.
func (m *Manager) Status() playback.Status { return m.controller.Status() }

// LoadPlaylist appends every playable entry of an M3U playlist to the
// queue. Unplayable entries are logged and skipped; only a playlist that
// cannot be read at all fails the operation.
func (m *Manager) LoadPlaylist(path string) (added, skipped int, err error) {
	paths, err := playlist.Load(path)
	if err != nil {
		return 0, 0, err
	}

	for _, p := range paths {
		if _, _, addErr := m.Add(p, -1); addErr != nil {
			zlog.Warn().Msgf("playlist: skipping entry %s: %v", p, addErr)
			skipped++
			continue
		}
		added++
	}
	return added, skipped, nil
}

// SavePlaylist writes the queue as an extended M3U playlist and returns the
// number of entries written.
func (m *Manager) SavePlaylist(path string) (int, error) {
	tracks := m.controller.Tracks()
	if err := playlist.Save(path, tracks); err != nil {
		return 0, err
	}
	return len(tracks), nil
}
