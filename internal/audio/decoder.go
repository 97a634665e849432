package audio

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	zlog "github.com/rs/zerolog/log"
)

// FileDecoder decodes local audio files (mp3/wav/flac/ogg) into PCM streams
// in a fixed output format, resampling when the file's rate differs.
type FileDecoder struct {
	format Format
}

// NewFileDecoder creates a decoder producing streams in the given format,
// normally the sink's format.
func NewFileDecoder(format Format) *FileDecoder {
	return &FileDecoder{format: format}
}

// Probe implements Decoder. Tag extraction failures are logged and ignored;
// only the decode probe itself is fatal.
func (d *FileDecoder) Probe(path string) (Metadata, error) {
	streamer, bformat, codec, err := d.decode(path)
	if err != nil {
		return Metadata{}, err
	}
	defer streamer.Close()

	md := Metadata{
		Format:   codec,
		Duration: bformat.SampleRate.D(streamer.Len()),
	}

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		if tags, tagErr := tag.ReadFrom(f); tagErr == nil {
			md.Title = tags.Title()
			md.Artist = tags.Artist()
			md.Album = tags.Album()
		} else {
			zlog.Debug().Msgf("audio: no readable tags in %s: %v", path, tagErr)
		}
	}

	return md, nil
}

// Open implements Decoder.
func (d *FileDecoder) Open(path string) (Stream, error) {
	streamer, bformat, _, err := d.decode(path)
	if err != nil {
		return nil, err
	}

	var src beep.Streamer = streamer
	if int(bformat.SampleRate) != d.format.SampleRate {
		src = beep.Resample(4, bformat.SampleRate, beep.SampleRate(d.format.SampleRate), streamer)
	}

	return &pcmStream{
		closer:   streamer,
		streamer: src,
		info: StreamInfo{
			Format:   d.format,
			Duration: bformat.SampleRate.D(streamer.Len()),
		},
	}, nil
}

// decode opens the file with the codec matching its extension.
func (d *FileDecoder) decode(path string) (beep.StreamSeekCloser, beep.Format, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, "", errors.Wrapf(ErrUnsupportedSource, "open %s: %v", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var (
		streamer beep.StreamSeekCloser
		bformat  beep.Format
		decErr   error
	)
	switch ext {
	case ".mp3":
		streamer, bformat, decErr = mp3.Decode(f)
	case ".wav":
		streamer, bformat, decErr = wav.Decode(f)
	case ".flac":
		streamer, bformat, decErr = flac.Decode(f)
	case ".ogg", ".oga":
		streamer, bformat, decErr = vorbis.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, "", errors.Wrapf(ErrUnsupportedSource, "unrecognized extension %q for %s", ext, path)
	}
	if decErr != nil {
		f.Close()
		return nil, beep.Format{}, "", errors.Wrapf(ErrUnsupportedSource, "decode %s: %v", path, decErr)
	}

	return streamer, bformat, strings.TrimPrefix(ext, "."), nil
}

// pcmStream adapts a beep streamer into an s16le PCM reader.
type pcmStream struct {
	closer   io.Closer
	streamer beep.Streamer
	info     StreamInfo
	buf      [][2]float64
	drained  bool
}

func (s *pcmStream) Info() StreamInfo {
	return s.info
}

func (s *pcmStream) Read(p []byte) (int, error) {
	if s.drained {
		return 0, io.EOF
	}
	fs := s.info.Format.FrameSize()
	if len(p) < fs {
		return 0, io.ErrShortBuffer
	}

	frames := len(p) / fs
	if s.buf == nil {
		s.buf = make([][2]float64, 2048)
	}
	if frames > len(s.buf) {
		frames = len(s.buf)
	}

	n, ok := s.streamer.Stream(s.buf[:frames])
	if n == 0 {
		if !ok {
			s.drained = true
			return 0, io.EOF
		}
		return 0, nil
	}

	for i := 0; i < n; i++ {
		if s.info.Format.Channels == 1 {
			v := encodeSample((s.buf[i][0] + s.buf[i][1]) / 2)
			p[i*fs] = byte(v)
			p[i*fs+1] = byte(v >> 8)
			continue
		}
		l := encodeSample(s.buf[i][0])
		r := encodeSample(s.buf[i][1])
		p[i*fs] = byte(l)
		p[i*fs+1] = byte(l >> 8)
		p[i*fs+2] = byte(r)
		p[i*fs+3] = byte(r >> 8)
	}

	return n * fs, nil
}

func (s *pcmStream) Close() error {
	return s.closer.Close()
}

// encodeSample converts a [-1, 1] float sample to clamped signed 16-bit.
func encodeSample(f float64) int16 {
	if f > 1 {
		f = 1
	} else if f < -1 {
		f = -1
	}
	return int16(f * 32767)
}
