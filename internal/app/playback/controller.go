package playback

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/qplay/internal/app/queue"
	"github.com/osa030/qplay/internal/audio"
	"github.com/osa030/qplay/internal/domain/track"
)

// Errors
var (
	ErrQueueEmpty       = errors.New("queue is empty")
	ErrNotPlaying       = errors.New("not playing")
	ErrEndOfQueue       = errors.New("already at last track")
	ErrStartOfQueue     = errors.New("already at first track")
	ErrVolumeOutOfRange = errors.New("volume out of range")
)

// Config holds controller configuration.
type Config struct {
	DefaultVolume float64 // Initial volume, clamped to [0, 1]
}

// Status is a snapshot of the controller state, computed without blocking
// on the sink.
type Status struct {
	State    State
	Track    *track.Track // Cursor track, nil when the cursor is unset
	Index    int          // Cursor index, -1 when unset
	Elapsed  time.Duration
	Volume   float64
	QueueLen int
}

// Controller owns the queue, the playback state machine, and the single
// active sink session. Every command and the asynchronous auto-advance
// acquire the same mutex, so whichever wins re-evaluates its precondition
// against the state the loser left behind.
type Controller struct {
	mu sync.Mutex

	queue   *queue.Queue
	decoder audio.Decoder
	sink    audio.Sink

	state  State
	volume float64

	// Active session. sessionID guards the auto-advance race: a watcher
	// waking up for a superseded session finds a different ID and backs off.
	session     audio.Session
	sessionID   string
	sessionStop chan struct{}

	// Wall-clock elapsed accounting for the current session.
	startTime     time.Time
	pausedAt      *time.Time
	pausedElapsed time.Duration

	eventCh chan Event
	closed  bool
}

// NewController creates a stopped controller with an empty queue.
func NewController(cfg Config, decoder audio.Decoder, sink audio.Sink) *Controller {
	vol := cfg.DefaultVolume
	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	return &Controller{
		queue:   queue.New(),
		decoder: decoder,
		sink:    sink,
		state:   StateStopped,
		volume:  vol,
		eventCh: make(chan Event, 16),
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Play starts playback on the cursor track (index 0 when the cursor is
// unset), resumes when paused, and is a no-op when already playing.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePlaying:
		return nil
	case StatePaused:
		return c.resumeLocked()
	}

	if c.queue.Len() == 0 {
		return ErrQueueEmpty
	}
	if c.queue.Cursor() == queue.NoCursor {
		if _, err := c.queue.Jump(0); err != nil {
			return err
		}
	}
	return c.startLocked()
}

// Pause pauses the active session. Pausing while already paused is a no-op.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePaused:
		return nil
	case StateStopped:
		return ErrNotPlaying
	}

	if err := c.session.Pause(); err != nil {
		return errors.Wrap(err, "failed to pause sink session")
	}
	now := time.Now()
	c.pausedAt = &now
	c.state = StatePaused
	c.sendEventLocked(Event{Type: EventStateChanged, Index: c.queue.Cursor(), State: c.state})
	return nil
}

// Resume resumes a paused session. Resuming while playing is a no-op.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePlaying:
		return nil
	case StateStopped:
		return ErrNotPlaying
	}
	return c.resumeLocked()
}

func (c *Controller) resumeLocked() error {
	if err := c.session.Resume(); err != nil {
		return errors.Wrap(err, "failed to resume sink session")
	}
	if c.pausedAt != nil {
		c.pausedElapsed += time.Since(*c.pausedAt)
		c.pausedAt = nil
	}
	c.state = StatePlaying
	c.sendEventLocked(Event{Type: EventStateChanged, Index: c.queue.Cursor(), State: c.state})
	return nil
}

// Next advances the cursor and plays the new track. The queue does not
// wrap: at the last track the command fails and playback is untouched.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queue.Len() == 0 {
		return ErrQueueEmpty
	}
	if !c.queue.HasNext() {
		return ErrEndOfQueue
	}
	if _, err := c.queue.Advance(); err != nil {
		return ErrEndOfQueue
	}
	return c.startLocked()
}

// Previous moves the cursor back and plays the new track. Fails at index 0.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queue.Len() == 0 {
		return ErrQueueEmpty
	}
	if c.queue.Cursor() == 0 {
		return ErrStartOfQueue
	}
	if _, err := c.queue.Retreat(); err != nil {
		return ErrStartOfQueue
	}
	return c.startLocked()
}

// Jump sets the cursor to pos and plays the track there, whatever the
// current state.
func (c *Controller) Jump(pos int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.queue.Jump(pos); err != nil {
		return err
	}
	return c.startLocked()
}

// SetVolume stores the normalized volume and propagates it to the active
// session immediately. Out-of-range values are rejected without mutation.
func (c *Controller) SetVolume(v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v < 0 || v > 1 {
		return errors.Wrapf(ErrVolumeOutOfRange, "volume %.2f not in [0.0, 1.0]", v)
	}
	c.volume = v
	if c.session != nil {
		if err := c.session.SetVolume(v); err != nil {
			return errors.Wrap(err, "failed to set sink volume")
		}
	}
	return nil
}

// Volume returns the stored volume.
func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Status returns a snapshot of the playback state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:    c.state,
		Index:    c.queue.Cursor(),
		Volume:   c.volume,
		QueueLen: c.queue.Len(),
	}
	if t, ok := c.queue.Current(); ok {
		st.Track = &t
	}
	if c.state != StateStopped {
		st.Elapsed = c.elapsedLocked()
	}
	return st
}

func (c *Controller) elapsedLocked() time.Duration {
	elapsed := time.Since(c.startTime) - c.pausedElapsed
	if c.pausedAt != nil {
		elapsed -= time.Since(*c.pausedAt)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if t, ok := c.queue.Current(); ok && t.Duration > 0 && elapsed > t.Duration {
		elapsed = t.Duration
	}
	return elapsed
}

// AddTrack inserts a probed track at pos (negative appends) and returns the
// resulting index.
func (c *Controller) AddTrack(t track.Track, pos int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Insert(t, pos)
}

// RemoveTrack removes the track at pos. Removing the current track while
// playing advances the active session to the successor; removing it while
// paused, or removing the only track, stops playback.
func (c *Controller) RemoveTrack(pos int) (track.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed, wasCurrent, err := c.queue.Remove(pos)
	if err != nil {
		return track.Track{}, err
	}
	if !wasCurrent || c.state == StateStopped {
		return removed, nil
	}

	wasPlaying := c.state == StatePlaying
	if _, ok := c.queue.Current(); ok && wasPlaying {
		if err := c.startLocked(); err != nil {
			zlog.Warn().Msgf("playback: could not continue after removing current track: %v", err)
		}
		return removed, nil
	}

	c.stopLocked()
	return removed, nil
}

// MoveTrack relocates a track; the cursor follows the track it references.
func (c *Controller) MoveTrack(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Move(from, to)
}

// ClearQueue empties the queue and stops playback.
func (c *Controller) ClearQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue.Clear()
	if c.state != StateStopped {
		c.stopLocked()
	}
}

// Tracks returns a snapshot of the queue in playback order.
func (c *Controller) Tracks() []track.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Tracks()
}

// Close stops playback and releases the event channel.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.teardownSessionLocked()
	c.state = StateStopped
	c.closed = true
	close(c.eventCh)
}

// startLocked opens a sink session on the current track. A source error is
// recoverable: the failing track is removed and reported, and the successor
// is attempted, bounded by the remaining queue length. Device errors and an
// exhausted queue leave the controller stopped.
func (c *Controller) startLocked() error {
	var failures []error

	for attempts := c.queue.Len(); attempts > 0; attempts-- {
		t, ok := c.queue.Current()
		if !ok {
			break
		}

		err := c.openTrackLocked(t)
		if err == nil {
			if len(failures) > 0 {
				zlog.Warn().Msgf("playback: skipped %d unplayable track(s)", len(failures))
			}
			return nil
		}
		if !errors.Is(err, audio.ErrUnsupportedSource) {
			c.teardownSessionLocked()
			c.state = StateStopped
			c.sendEventLocked(Event{Type: EventStateChanged, Index: c.queue.Cursor(), State: c.state})
			return err
		}

		pos := c.queue.Cursor()
		zlog.Warn().Msgf("playback: skipping unplayable track: index=%d path=%s err=%v", pos, t.Path, err)
		failures = append(failures, err)
		c.sendEventLocked(Event{Type: EventTrackFailed, Track: t, Index: pos, State: c.state, Err: err})

		hadNext := pos+1 < c.queue.Len()
		if _, _, rmErr := c.queue.Remove(pos); rmErr != nil {
			break
		}
		if !hadNext {
			break
		}
	}

	c.teardownSessionLocked()
	c.state = StateStopped
	c.sendEventLocked(Event{Type: EventStateChanged, Index: c.queue.Cursor(), State: c.state})
	if len(failures) > 0 {
		return errors.Wrap(errors.Join(failures...), "no playable track remaining")
	}
	return ErrQueueEmpty
}

// openTrackLocked tears down the previous session, then opens a new one.
// The ordering is a correctness requirement: the device must be free of the
// superseded track before the next one starts.
func (c *Controller) openTrackLocked(t track.Track) error {
	c.teardownSessionLocked()

	stream, err := c.decoder.Open(t.Path)
	if err != nil {
		return err
	}
	sess, err := c.sink.Open(stream, c.volume)
	if err != nil {
		stream.Close()
		return err
	}

	id := uuid.New().String()
	stop := make(chan struct{})
	c.session = sess
	c.sessionID = id
	c.sessionStop = stop
	c.startTime = time.Now()
	c.pausedAt = nil
	c.pausedElapsed = 0
	c.state = StatePlaying

	go c.watchSession(sess, id, stop)

	zlog.Info().Msgf("playback: started: index=%d title=%s duration=%v", c.queue.Cursor(), t.DisplayTitle(), t.Duration)
	c.sendEventLocked(Event{Type: EventTrackStarted, Track: t, Index: c.queue.Cursor(), State: c.state})
	return nil
}

// watchSession waits for the session's finished signal and performs the
// auto-advance transition under the controller mutex.
func (c *Controller) watchSession(sess audio.Session, id string, stop chan struct{}) {
	select {
	case <-sess.Done():
	case <-stop:
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// An explicit command may have superseded this session between the
	// signal and the lock; its precondition no longer holds.
	if c.sessionID != id {
		return
	}

	if err := sess.Err(); err != nil {
		zlog.Error().Msgf("playback: sink session failed: %v", err)
		t, _ := c.queue.Current()
		c.teardownSessionLocked()
		c.state = StateStopped
		c.sendEventLocked(Event{Type: EventTrackFailed, Track: t, Index: c.queue.Cursor(), State: c.state, Err: err})
		return
	}

	if t, ok := c.queue.Current(); ok {
		c.sendEventLocked(Event{Type: EventTrackEnded, Track: t, Index: c.queue.Cursor(), State: c.state})
	}

	if c.queue.HasNext() {
		if _, err := c.queue.Advance(); err == nil {
			if err := c.startLocked(); err != nil {
				zlog.Warn().Msgf("playback: auto-advance could not continue: %v", err)
			}
			return
		}
	}

	// End of queue: stop and rewind so a later play restarts from the top.
	c.teardownSessionLocked()
	c.queue.ClearCursor()
	c.state = StateStopped
	zlog.Info().Msg("playback: queue finished")
	c.sendEventLocked(Event{Type: EventQueueEmpty, Index: queue.NoCursor, State: c.state})
}

func (c *Controller) stopLocked() {
	c.teardownSessionLocked()
	c.state = StateStopped
	c.sendEventLocked(Event{Type: EventStateChanged, Index: c.queue.Cursor(), State: c.state})
}

func (c *Controller) teardownSessionLocked() {
	if c.session == nil {
		return
	}
	close(c.sessionStop)
	if err := c.session.Close(); err != nil {
		zlog.Warn().Msgf("playback: failed to close sink session: %v", err)
	}
	c.session = nil
	c.sessionID = ""
	c.sessionStop = nil
	c.pausedAt = nil
	c.pausedElapsed = 0
}

// sendEventLocked sends an event without blocking. Must be called with the
// lock held.
func (c *Controller) sendEventLocked(e Event) {
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
		// Channel full, drop event
	}
}
