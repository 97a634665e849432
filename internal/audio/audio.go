// Package audio provides the Decoder and Sink capabilities the playback
// controller is built against, plus the concrete device backends.
package audio

import (
	"io"
	"time"

	"github.com/cockroachdb/errors"
)

// Errors
var (
	ErrUnsupportedSource = errors.New("unsupported or undecodable source")
	ErrDeviceUnavailable = errors.New("audio device unavailable")
)

// Format describes the PCM layout exchanged between decoder and sink:
// interleaved signed 16-bit little-endian samples.
type Format struct {
	SampleRate int
	Channels   int
}

// FrameSize returns the byte size of one interleaved frame.
func (f Format) FrameSize() int {
	return f.Channels * 2
}

// StreamInfo describes an open stream.
type StreamInfo struct {
	Format   Format
	Duration time.Duration // 0 when unknown
}

// Metadata holds the result of a decode probe.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Format   string        // container/codec name
	Duration time.Duration // 0 when extraction failed
}

// Stream is a decoded frame source. Read fills the buffer with PCM in the
// stream's Format and returns io.EOF when the source is exhausted.
type Stream interface {
	io.ReadCloser
	Info() StreamInfo
}

// Decoder converts a file path into probe metadata or a playable stream.
type Decoder interface {
	// Probe validates that the file is a readable, recognized audio format
	// and opportunistically extracts tags. A probe failure means the file
	// must not be accepted into the queue.
	Probe(path string) (Metadata, error)

	// Open produces the frame stream for playback.
	Open(path string) (Stream, error)
}

// Sink is the audio output device boundary. Implementations hold the device
// resource; the controller never opens more than one session at a time.
type Sink interface {
	// Format returns the PCM format the sink consumes. Decoders are
	// configured to produce it.
	Format() Format

	// Open starts emitting the stream at the given volume (0.0-1.0) and
	// returns the session handle. The sink takes ownership of the stream.
	Open(stream Stream, volume float64) (Session, error)

	// Close releases the device.
	Close() error
}

// Session is one active connection between the controller and the device
// for a single track.
type Session interface {
	Pause() error
	Resume() error
	SetVolume(volume float64) error

	// Done is closed when the frame source is exhausted and the device
	// buffer has drained, or when the session failed. Err reports the
	// failure, if any, after Done is closed.
	Done() <-chan struct{}
	Err() error

	// Close tears the session down immediately. Safe to call more than
	// once and after Done.
	Close() error
}
