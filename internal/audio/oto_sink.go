package audio

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/ebitengine/oto/v3"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// OtoSinkConfig holds oto backend settings.
type OtoSinkConfig struct {
	SampleRate int `mapstructure:"sample_rate" default:"48000" validate:"gt=0"`
	Channels   int `mapstructure:"channels" default:"2" validate:"oneof=1 2"`
	BufferMs   int `mapstructure:"buffer_ms" default:"100" validate:"gt=0,lte=2000"`
}

// OtoSink emits PCM to the default output device via ebitengine/oto.
// The oto context is process-wide, so one sink is created per daemon.
type OtoSink struct {
	ctx    *oto.Context
	format Format
}

// NewOtoSink creates the device sink from backend settings.
func NewOtoSink(settings map[string]any) (*OtoSink, error) {
	var cfg OtoSinkConfig
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(cfg.BufferMs) * time.Millisecond,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrDeviceUnavailable, "failed to create oto context: %v", err)
	}
	<-ready

	return &OtoSink{
		ctx:    ctx,
		format: Format{SampleRate: cfg.SampleRate, Channels: cfg.Channels},
	}, nil
}

// Format implements Sink.
func (s *OtoSink) Format() Format {
	return s.format
}

// Open implements Sink.
func (s *OtoSink) Open(stream Stream, volume float64) (Session, error) {
	src := &eofReader{r: stream}
	player := s.ctx.NewPlayer(src)
	player.SetVolume(volume)

	sess := &otoSession{
		player: player,
		stream: stream,
		src:    src,
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
	player.Play()
	go sess.watch()

	return sess, nil
}

// Close implements Sink. The oto context has no teardown; sessions own the
// players.
func (s *OtoSink) Close() error {
	return nil
}

// otoSession is one player attached to the shared oto context.
type otoSession struct {
	player *oto.Player
	stream Stream
	src    *eofReader

	done chan struct{}
	stop chan struct{}

	doneOnce  sync.Once
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func (s *otoSession) Pause() error {
	s.player.Pause()
	return nil
}

func (s *otoSession) Resume() error {
	s.player.Play()
	return nil
}

func (s *otoSession) SetVolume(volume float64) error {
	s.player.SetVolume(volume)
	return nil
}

func (s *otoSession) Done() <-chan struct{} {
	return s.done
}

func (s *otoSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *otoSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		err = s.player.Close()
		if cerr := s.stream.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

// watch polls for completion: the source hit EOF and the device buffer
// drained, or the player reported a device error.
func (s *otoSession) watch() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.player.Err(); err != nil {
				s.mu.Lock()
				s.err = errors.Wrapf(ErrDeviceUnavailable, "playback failed: %v", err)
				s.mu.Unlock()
				s.doneOnce.Do(func() { close(s.done) })
				return
			}
			if s.src.EOF() && s.player.BufferedSize() == 0 {
				s.doneOnce.Do(func() { close(s.done) })
				return
			}
		}
	}
}

// eofReader records whether the wrapped reader has been exhausted.
type eofReader struct {
	r   io.Reader
	eof atomic.Bool
}

func (r *eofReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err == io.EOF {
		r.eof.Store(true)
	}
	return n, err
}

func (r *eofReader) EOF() bool {
	return r.eof.Load()
}
