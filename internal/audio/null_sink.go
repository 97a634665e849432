package audio

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// NullSinkConfig holds null backend settings. TimeScale shrinks or stretches
// the wall-clock playback time; 0 completes every track immediately.
type NullSinkConfig struct {
	SampleRate int     `mapstructure:"sample_rate" default:"44100" validate:"gt=0"`
	Channels   int     `mapstructure:"channels" default:"2" validate:"oneof=1 2"`
	TimeScale  float64 `mapstructure:"time_scale" default:"1" validate:"gte=0"`
}

// NullSink discards audio and completes sessions on a wall-clock timer.
// Used on hosts without an output device and in integration tests.
type NullSink struct {
	cfg    NullSinkConfig
	format Format
}

// NewNullSink creates the headless sink from backend settings.
func NewNullSink(settings map[string]any) (*NullSink, error) {
	var cfg NullSinkConfig
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	return &NullSink{
		cfg:    cfg,
		format: Format{SampleRate: cfg.SampleRate, Channels: cfg.Channels},
	}, nil
}

// Format implements Sink.
func (s *NullSink) Format() Format {
	return s.format
}

// Open implements Sink.
func (s *NullSink) Open(stream Stream, volume float64) (Session, error) {
	sess := &nullSession{
		stream: stream,
		done:   make(chan struct{}),
	}

	remaining := time.Duration(float64(stream.Info().Duration) * s.cfg.TimeScale)
	sess.start(remaining)
	return sess, nil
}

// Close implements Sink.
func (s *NullSink) Close() error {
	return nil
}

type nullSession struct {
	stream Stream

	mu        sync.Mutex
	remaining time.Duration
	startedAt time.Time
	paused    bool
	timer     *time.Timer

	done      chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once
}

func (s *nullSession) start(remaining time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if remaining <= 0 {
		s.finish()
		return
	}
	s.remaining = remaining
	s.startedAt = time.Now()
	s.timer = time.AfterFunc(remaining, s.finish)
}

func (s *nullSession) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *nullSession) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused || s.timer == nil {
		return nil
	}
	s.timer.Stop()
	s.remaining -= time.Since(s.startedAt)
	s.paused = true
	return nil
}

func (s *nullSession) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.paused {
		return nil
	}
	s.paused = false
	s.startedAt = time.Now()
	if s.remaining <= 0 {
		s.finish()
		return nil
	}
	s.timer = time.AfterFunc(s.remaining, s.finish)
	return nil
}

func (s *nullSession) SetVolume(float64) error {
	return nil
}

func (s *nullSession) Done() <-chan struct{} {
	return s.done
}

func (s *nullSession) Err() error {
	return nil
}

func (s *nullSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.timer != nil {
			s.timer.Stop()
		}
		s.mu.Unlock()
		err = s.stream.Close()
	})
	return err
}
