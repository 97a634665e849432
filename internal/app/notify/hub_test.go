package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/qplay/internal/app/playback"
)

type recordingStream struct {
	mu   sync.Mutex
	seqs []uint64
}

func (s *recordingStream) Send(seq uint64, e playback.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs = append(s.seqs, seq)
	return nil
}

func (s *recordingStream) received() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.seqs...)
}

type stalledStream struct{}

func (stalledStream) Send(uint64, playback.Event) error {
	time.Sleep(5 * time.Second)
	return nil
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()

	a := &recordingStream{}
	b := &recordingStream{}
	hub.Subscribe(a)
	idB := hub.Subscribe(b)

	hub.Broadcast(playback.Event{Type: playback.EventTrackStarted})
	hub.Broadcast(playback.Event{Type: playback.EventTrackEnded})

	assert.Equal(t, []uint64{1, 2}, a.received())
	assert.Equal(t, []uint64{1, 2}, b.received())

	hub.Unsubscribe(idB)
	hub.Broadcast(playback.Event{Type: playback.EventQueueEmpty})

	assert.Equal(t, []uint64{1, 2, 3}, a.received())
	assert.Equal(t, []uint64{1, 2}, b.received(), "unsubscribed stream must not receive")
}

func TestHub_BroadcastStalledSubscriber(t *testing.T) {
	hub := NewHub()

	ok := &recordingStream{}
	hub.Subscribe(ok)
	hub.Subscribe(stalledStream{})

	start := time.Now()
	hub.Broadcast(playback.Event{Type: playback.EventTrackStarted})

	require.Less(t, time.Since(start), 2*time.Second, "stalled stream must not block the broadcast")
	assert.Equal(t, []uint64{1}, ok.received())
}
