// Package playback provides the playback state machine over the track queue
// and the audio capabilities.
package playback

// State represents the playback state.
type State int

const (
	StateStopped State = iota // No active sink session
	StatePlaying              // Sink actively emitting, cursor valid
	StatePaused               // Sink holds a session but is not emitting
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
