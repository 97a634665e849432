package playback

import "github.com/osa030/qplay/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted EventType = iota // A sink session opened on a track
	EventTrackEnded                    // Track played to completion
	EventTrackFailed                   // Track could not be opened and was skipped
	EventStateChanged                  // Pause/resume/stop transition
	EventQueueEmpty                    // Auto-advance ran off the end of the queue
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventTrackFailed:
		return "track_failed"
	case EventStateChanged:
		return "state_changed"
	case EventQueueEmpty:
		return "queue_empty"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Track track.Track // Affected track (zero value for queue-level events)
	Index int         // Queue index of the affected track, -1 when not applicable
	State State       // Playback state after the event
	Err   error       // Failure detail for EventTrackFailed
}
