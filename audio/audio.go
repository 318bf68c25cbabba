// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"path/filepath"
	"strings"
	"sync"
)

// Format describes the PCM layout a stream delivers.
type Format struct {
	// Channels count (1=mono, 2=stereo).
	Channels int
	// SampleRate of the PCM stream in Hz.
	SampleRate int
}

// Validate reports whether f can be played as 16-bit mono or stereo PCM.
func (f Format) Validate() error {
	if f.Channels != 1 && f.Channels != 2 {
		return ErrUnsupportedFormat
	}
	if f.SampleRate <= 0 {
		return ErrUnsupportedFormat
	}
	return nil
}

// Decoder is a single-use decoder instance. Channels and SampleRate are only
// meaningful once the header has been read.
type Decoder interface {
	Channels() int
	SampleRate() int
	// Close releases any resources.
	Close() error
}

// PushDecoder decodes from bytes handed to it by the caller, which keeps
// ownership of the staging buffer. Both methods return how many bytes of data
// were used; the caller drops them even when err is ErrNeedMoreData.
type PushDecoder interface {
	Decoder
	// DecodeHeader parses stream headers. It returns ErrNeedMoreData until all
	// headers have been seen.
	DecodeHeader(data []byte) (consumed int, err error)
	// DecodeFrame decodes at most one frame of interleaved float32 samples in
	// [-1,1]. A nil frame with a nil error means progress was made without
	// output. ErrNeedMoreData means nothing can be done with data as it is.
	DecodeFrame(data []byte) (consumed int, samples []float32, err error)
}

// PullDecoder wraps decoders that can only pull from an io.Reader.
type PullDecoder interface {
	Decoder
	// Open reads the stream header from r. r stays owned by the caller.
	Open(r io.Reader) error
	// ReadFrame fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadFrame(dst []float32) (n int, err error)
}

// Codec constructs fresh decoders, one per decode session.
type Codec interface {
	Name() string
	NewDecoder() (Decoder, error)
}

// Registry for codecs by format key (e.g., "wav", "mp3", "ogg").
type Registry struct {
	codecs map[string]Codec

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Codec),
		mtx:    &sync.Mutex{},
	}
}

func (r *Registry) Register(format string, c Codec) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[strings.ToLower(format)] = c
}

func (r *Registry) Get(format string) (Codec, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	c, ok := r.codecs[strings.ToLower(format)]
	return c, ok
}

// Lookup picks a codec by the extension of path.
func (r *Registry) Lookup(path string) (Codec, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, ErrUnknownFormat
	}

	c, ok := r.Get(ext)
	if !ok {
		return nil, ErrUnknownFormat
	}
	return c, nil
}
