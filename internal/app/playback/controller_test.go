package playback

import (
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/qplay/internal/app/queue"
	"github.com/osa030/qplay/internal/audio"
	"github.com/osa030/qplay/internal/domain/track"
)

// fakeDecoder opens every path except the ones registered as failing.
type fakeDecoder struct {
	mu      sync.Mutex
	failing map[string]bool
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{failing: make(map[string]bool)}
}

func (d *fakeDecoder) fail(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failing[path] = true
}

func (d *fakeDecoder) Probe(path string) (audio.Metadata, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing[path] {
		return audio.Metadata{}, errors.Wrapf(audio.ErrUnsupportedSource, "probe %s", path)
	}
	return audio.Metadata{Title: path}, nil
}

func (d *fakeDecoder) Open(path string) (audio.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing[path] {
		return nil, errors.Wrapf(audio.ErrUnsupportedSource, "open %s", path)
	}
	return &fakeStream{}, nil
}

type fakeStream struct{}

func (s *fakeStream) Read([]byte) (int, error) { return 0, io.EOF }
func (s *fakeStream) Close() error             { return nil }
func (s *fakeStream) Info() audio.StreamInfo {
	return audio.StreamInfo{Format: audio.Format{SampleRate: 44100, Channels: 2}}
}

// fakeSink records sessions and asserts device exclusivity: the number of
// simultaneously open sessions is tracked and must never exceed one.
type fakeSink struct {
	mu        sync.Mutex
	sessions  []*fakeSession
	active    int
	maxActive int
}

func newFakeSink() *fakeSink {
	return &fakeSink{}
}

func (s *fakeSink) Format() audio.Format {
	return audio.Format{SampleRate: 44100, Channels: 2}
}

func (s *fakeSink) Open(stream audio.Stream, volume float64) (audio.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &fakeSession{sink: s, volume: volume, done: make(chan struct{})}
	s.sessions = append(s.sessions, sess)
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	return sess, nil
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) last() *fakeSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		return nil
	}
	return s.sessions[len(s.sessions)-1]
}

func (s *fakeSink) opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *fakeSink) activeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *fakeSink) maxActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxActive
}

type fakeSession struct {
	sink *fakeSink

	mu     sync.Mutex
	paused bool
	closed bool
	volume float64

	done     chan struct{}
	doneOnce sync.Once
}

func (s *fakeSession) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	return nil
}

func (s *fakeSession) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	return nil
}

func (s *fakeSession) SetVolume(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
	return nil
}

func (s *fakeSession) Done() <-chan struct{} { return s.done }
func (s *fakeSession) Err() error            { return nil }

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.sink.mu.Lock()
		s.sink.active--
		s.sink.mu.Unlock()
	}
	return nil
}

func (s *fakeSession) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *fakeSession) getVolume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func newTestController(t *testing.T) (*Controller, *fakeDecoder, *fakeSink) {
	t.Helper()
	dec := newFakeDecoder()
	sink := newFakeSink()
	c := NewController(Config{DefaultVolume: 1.0}, dec, sink)
	t.Cleanup(c.Close)
	return c, dec, sink
}

func addTracks(t *testing.T, c *Controller, paths ...string) {
	t.Helper()
	for _, p := range paths {
		_, err := c.AddTrack(track.Track{ID: p, Path: p, Title: p}, -1)
		require.NoError(t, err)
	}
}

func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Status().State == want
	}, time.Second, 5*time.Millisecond)
}

func TestController_PlayEmptyQueue(t *testing.T) {
	c, _, _ := newTestController(t)
	assert.ErrorIs(t, c.Play(), ErrQueueEmpty)
	assert.Equal(t, StateStopped, c.Status().State)
}

func TestController_PlayStartsAtCursorZero(t *testing.T) {
	c, _, sink := newTestController(t)
	addTracks(t, c, "a", "b")

	require.NoError(t, c.Play())

	st := c.Status()
	assert.Equal(t, StatePlaying, st.State)
	assert.Equal(t, 0, st.Index)
	require.NotNil(t, st.Track)
	assert.Equal(t, "a", st.Track.ID)
	assert.Equal(t, 1, sink.opened())

	// Playing again is a no-op, no second session.
	require.NoError(t, c.Play())
	assert.Equal(t, 1, sink.opened())
}

func TestController_PauseResume(t *testing.T) {
	c, _, sink := newTestController(t)
	addTracks(t, c, "a")

	assert.ErrorIs(t, c.Pause(), ErrNotPlaying)
	assert.ErrorIs(t, c.Resume(), ErrNotPlaying)

	require.NoError(t, c.Play())
	require.NoError(t, c.Pause())
	assert.Equal(t, StatePaused, c.Status().State)

	// Idempotent: a second pause is a no-op, not an error or a toggle.
	require.NoError(t, c.Pause())
	assert.Equal(t, StatePaused, c.Status().State)

	require.NoError(t, c.Resume())
	assert.Equal(t, StatePlaying, c.Status().State)
	require.NoError(t, c.Resume())
	assert.Equal(t, StatePlaying, c.Status().State)

	// Play while paused resumes the same session.
	require.NoError(t, c.Pause())
	require.NoError(t, c.Play())
	assert.Equal(t, StatePlaying, c.Status().State)
	assert.Equal(t, 1, sink.opened())
}

func TestController_NextPrevious(t *testing.T) {
	c, _, _ := newTestController(t)

	assert.ErrorIs(t, c.Next(), ErrQueueEmpty)
	assert.ErrorIs(t, c.Previous(), ErrQueueEmpty)

	addTracks(t, c, "a", "b")

	// Next from stopped with unset cursor starts at 0.
	require.NoError(t, c.Next())
	assert.Equal(t, 0, c.Status().Index)
	assert.Equal(t, StatePlaying, c.Status().State)

	require.NoError(t, c.Next())
	assert.Equal(t, 1, c.Status().Index)

	// No wrap at the tail, playback untouched.
	assert.ErrorIs(t, c.Next(), ErrEndOfQueue)
	assert.Equal(t, StatePlaying, c.Status().State)
	assert.Equal(t, 1, c.Status().Index)

	require.NoError(t, c.Previous())
	assert.Equal(t, 0, c.Status().Index)

	assert.ErrorIs(t, c.Previous(), ErrStartOfQueue)
	assert.Equal(t, 0, c.Status().Index)
}

func TestController_Jump(t *testing.T) {
	c, _, _ := newTestController(t)
	addTracks(t, c, "a", "b", "c")

	assert.ErrorIs(t, c.Jump(5), queue.ErrIndexOutOfRange)
	assert.Equal(t, StateStopped, c.Status().State)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Jump(i))
		st := c.Status()
		assert.Equal(t, StatePlaying, st.State)
		assert.Equal(t, i, st.Index)
	}

	// Jump while paused ends playing.
	require.NoError(t, c.Pause())
	require.NoError(t, c.Jump(0))
	assert.Equal(t, StatePlaying, c.Status().State)
}

func TestController_AutoAdvanceChain(t *testing.T) {
	c, _, sink := newTestController(t)
	addTracks(t, c, "a", "b")

	require.NoError(t, c.Play())
	require.Equal(t, "a", c.Status().Track.ID)

	// A finishes naturally: auto-advance to B.
	sink.last().finish()
	require.Eventually(t, func() bool {
		st := c.Status()
		return st.State == StatePlaying && st.Track != nil && st.Track.ID == "b"
	}, time.Second, 5*time.Millisecond)

	// B finishes: end of queue, stopped, cursor cleared.
	sink.last().finish()
	waitForState(t, c, StateStopped)
	st := c.Status()
	assert.Equal(t, queue.NoCursor, st.Index)
	assert.Equal(t, 2, st.QueueLen)

	// A later play restarts from index 0.
	require.NoError(t, c.Play())
	assert.Equal(t, 0, c.Status().Index)
	assert.Equal(t, "a", c.Status().Track.ID)
}

func TestController_SkipsUnplayableTracks(t *testing.T) {
	c, dec, _ := newTestController(t)
	dec.fail("bad")
	addTracks(t, c, "bad", "good")

	require.NoError(t, c.Play())

	st := c.Status()
	assert.Equal(t, StatePlaying, st.State)
	require.NotNil(t, st.Track)
	assert.Equal(t, "good", st.Track.ID)
	// The unplayable track was removed from the queue.
	assert.Equal(t, 1, st.QueueLen)
}

func TestController_AllTracksUnplayable(t *testing.T) {
	c, dec, _ := newTestController(t)
	dec.fail("bad1")
	dec.fail("bad2")
	addTracks(t, c, "bad1", "bad2")

	err := c.Play()
	require.Error(t, err)
	assert.ErrorIs(t, err, audio.ErrUnsupportedSource)

	st := c.Status()
	assert.Equal(t, StateStopped, st.State)
	assert.Equal(t, 0, st.QueueLen)
}

func TestController_SetVolume(t *testing.T) {
	c, _, sink := newTestController(t)
	addTracks(t, c, "a")

	assert.ErrorIs(t, c.SetVolume(1.5), ErrVolumeOutOfRange)
	assert.ErrorIs(t, c.SetVolume(-0.1), ErrVolumeOutOfRange)
	assert.Equal(t, 1.0, c.Volume())

	require.NoError(t, c.Play())
	require.NoError(t, c.SetVolume(0.25))
	assert.Equal(t, 0.25, c.Volume())
	assert.Equal(t, 0.25, sink.last().getVolume())
}

func TestController_RemoveCurrentWhilePlaying(t *testing.T) {
	c, _, _ := newTestController(t)
	addTracks(t, c, "a", "b")

	require.NoError(t, c.Play())
	removed, err := c.RemoveTrack(0)
	require.NoError(t, err)
	assert.Equal(t, "a", removed.ID)

	st := c.Status()
	assert.Equal(t, StatePlaying, st.State)
	require.NotNil(t, st.Track)
	assert.Equal(t, "b", st.Track.ID)
}

func TestController_RemoveOnlyTrackStops(t *testing.T) {
	c, _, _ := newTestController(t)
	addTracks(t, c, "a")

	require.NoError(t, c.Play())
	_, err := c.RemoveTrack(0)
	require.NoError(t, err)

	st := c.Status()
	assert.Equal(t, StateStopped, st.State)
	assert.Equal(t, 0, st.QueueLen)
}

func TestController_ClearStopsPlayback(t *testing.T) {
	c, _, sink := newTestController(t)
	addTracks(t, c, "a", "b")

	require.NoError(t, c.Play())
	c.ClearQueue()

	st := c.Status()
	assert.Equal(t, StateStopped, st.State)
	assert.Equal(t, 0, st.QueueLen)
	assert.ErrorIs(t, c.Play(), ErrQueueEmpty)
	assert.Equal(t, 0, sink.activeCount())
}

// A next command racing the natural end of the current track must never
// produce two simultaneous sink sessions, and the loser must observe the
// winner's state rather than a stale one.
func TestController_NextVersusAutoAdvanceRace(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 100; iter++ {
		c, _, sink := newTestController(t)
		addTracks(t, c, "a", "b", "c")
		require.NoError(t, c.Play())

		first := sink.last()
		jitter := time.Duration(rng.Intn(200)) * time.Microsecond

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			time.Sleep(jitter)
			first.finish()
		}()
		go func() {
			defer wg.Done()
			_ = c.Next()
		}()
		wg.Wait()

		// Let any in-flight auto-advance settle.
		require.Eventually(t, func() bool {
			st := c.Status()
			return st.State == StatePlaying && st.Index >= 1
		}, time.Second, time.Millisecond)

		require.LessOrEqual(t, sink.maxActiveCount(), 1, "two sink sessions were active at once (iter=%d)", iter)

		c.Close()
	}
}

func TestController_ElapsedAccounting(t *testing.T) {
	c, _, _ := newTestController(t)
	addTracks(t, c, "a")

	require.NoError(t, c.Play())
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Pause())

	frozen := c.Status().Elapsed
	assert.Greater(t, frozen, time.Duration(0))

	// Elapsed must not grow while paused.
	time.Sleep(20 * time.Millisecond)
	paused := c.Status().Elapsed
	assert.InDelta(t, float64(frozen), float64(paused), float64(5*time.Millisecond))

	require.NoError(t, c.Resume())
	time.Sleep(20 * time.Millisecond)
	assert.Greater(t, c.Status().Elapsed, paused)
}

func TestController_Events(t *testing.T) {
	c, _, sink := newTestController(t)
	addTracks(t, c, "a")

	require.NoError(t, c.Play())
	sink.last().finish()
	waitForState(t, c, StateStopped)

	var types []EventType
	for len(c.Events()) > 0 {
		types = append(types, (<-c.Events()).Type)
	}
	assert.Contains(t, types, EventTrackStarted)
	assert.Contains(t, types, EventTrackEnded)
	assert.Contains(t, types, EventQueueEmpty)
}
