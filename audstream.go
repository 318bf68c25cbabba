// SPDX-License-Identifier: EPL-2.0

package audstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/decode"
	"github.com/ik5/audstream/formats/aiff"
	"github.com/ik5/audstream/formats/flac"
	"github.com/ik5/audstream/formats/mp3"
	"github.com/ik5/audstream/formats/vorbis"
	"github.com/ik5/audstream/formats/wav"
	"github.com/ik5/audstream/stream"
)

// Info describes a whole source.
type Info struct {
	Format audio.Format
	// Samples is the total of interleaved samples.
	Samples int64
}

func (i Info) Duration() time.Duration {
	if i.Format.Channels <= 0 || i.Format.SampleRate <= 0 {
		return 0
	}

	frames := i.Samples / int64(i.Format.Channels)
	return time.Duration(frames) * time.Second / time.Duration(i.Format.SampleRate)
}

// Audio is a compressed asset that can be streamed any number of times.
type Audio struct {
	ID     string
	Source stream.SourceFactory
	Codec  audio.Codec

	probe sync.Once
	info  Info
	err   error
}

// NewAudio describes an asset. An empty id is replaced by a random one.
func NewAudio(id string, source stream.SourceFactory, codec audio.Codec) *Audio {
	if id == "" {
		id = uuid.NewString()
	}
	return &Audio{ID: id, Source: source, Codec: codec}
}

// Info decodes the whole source once to learn its format and length.
// Concurrent callers wait for the same probe.
func (a *Audio) Info() (Info, error) {
	a.probe.Do(func() {
		a.info, a.err = a.decodeInfo()
	})
	return a.info, a.err
}

func (a *Audio) decodeInfo() (Info, error) {
	r, err := a.Source.NewReader()
	if err != nil {
		return Info{}, fmt.Errorf("opening %s: %w", a.ID, err)
	}

	dec, err := a.Codec.NewDecoder()
	if err != nil {
		r.Close()
		return Info{}, fmt.Errorf("creating %s decoder: %w", a.Codec.Name(), err)
	}

	s := decode.NewSession(r, dec)
	defer s.Close()

	if err := s.Start(); err != nil {
		return Info{}, fmt.Errorf("probing %s: %w", a.ID, err)
	}

	if _, err := s.Skip(math.MaxInt); err != nil && !errors.Is(err, io.EOF) {
		return Info{}, fmt.Errorf("probing %s: %w", a.ID, err)
	}

	return Info{Format: s.Format(), Samples: s.SamplesRead()}, nil
}

// OpenStream creates a stream over the asset. It is not started.
func (a *Audio) OpenStream(backend stream.Backend, opts ...stream.Option) *stream.Stream {
	opts = append([]stream.Option{
		stream.WithLogger(slog.Default().With("audio", a.ID)),
	}, opts...)

	return stream.New(a.Source, a.Codec, backend, opts...)
}

// FileSource opens path anew for every pass.
func FileSource(path string) stream.SourceFactory {
	return stream.SourceFunc(func() (io.ReadCloser, error) {
		return os.Open(path)
	})
}

// BytesSource streams an in-memory file.
func BytesSource(data []byte) stream.SourceFactory {
	return stream.SourceFunc(func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// DefaultRegistry knows every bundled codec by file extension.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("ogg", vorbis.Codec{})
	r.Register("oga", vorbis.Codec{})
	r.Register("wav", wav.Codec{})
	r.Register("wave", wav.Codec{})
	r.Register("mp3", mp3.Codec{})
	r.Register("aif", aiff.Codec{})
	r.Register("aiff", aiff.Codec{})
	r.Register("flac", flac.Codec{})

	return r
}

// OpenFile picks a codec for path by its extension. The file is only checked
// for existence; decoding starts with Info or a stream.
func OpenFile(path string) (*Audio, error) {
	codec, err := DefaultRegistry().Lookup(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	return NewAudio(path, FileSource(path), codec), nil
}
