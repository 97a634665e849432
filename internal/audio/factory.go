package audio

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// NewSink creates an output backend from configuration.
func NewSink(backend string, settings map[string]any) (Sink, error) {
	zlog.Debug().Msgf("audio: creating output backend: type=%s settings=%+v", backend, settings)

	var (
		sink Sink
		err  error
	)
	switch backend {
	case "", "oto":
		sink, err = NewOtoSink(settings)
	case "null":
		sink, err = NewNullSink(settings)
	default:
		return nil, errors.Newf("unsupported output backend: %s", backend)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create output backend %q", backend)
	}

	f := sink.Format()
	zlog.Info().Msgf("audio: output backend ready: type=%s sample_rate=%d channels=%d", backend, f.SampleRate, f.Channels)
	return sink, nil
}
