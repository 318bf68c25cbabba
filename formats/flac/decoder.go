// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"

	"github.com/ik5/audstream/audio"
)

// frameParser is the part of flac.Stream in use, so tests can swap it.
type frameParser interface {
	ParseNext() (*frame.Frame, error)
}

// Codec decodes FLAC.
type Codec struct{}

func (Codec) Name() string { return "flac" }

func (Codec) NewDecoder() (audio.Decoder, error) {
	return &Decoder{channels: -1, sampleRate: -1}, nil
}

// Decoder interleaves the per channel subframes of each FLAC frame.
type Decoder struct {
	stream     frameParser
	channels   int
	sampleRate int

	interleaved []float32
	pending     []float32
}

func (d *Decoder) Channels() int   { return d.channels }
func (d *Decoder) SampleRate() int { return d.sampleRate }

// Close is a no-op; the session owns the reader.
func (d *Decoder) Close() error { return nil }

// Open parses the signature and STREAMINFO block. Other metadata is skipped.
func (d *Decoder) Open(r io.Reader) error {
	// Hide Close from the library so it never closes the session's reader.
	stream, err := flac.New(struct{ io.Reader }{r})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotFlacFile, err)
	}

	d.stream = stream
	d.channels = int(stream.Info.NChannels)
	d.sampleRate = int(stream.Info.SampleRate)
	return nil
}

func (d *Decoder) ReadFrame(dst []float32) (int, error) {
	if len(d.pending) == 0 {
		f, err := d.stream.ParseNext()
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		if err != nil {
			return 0, fmt.Errorf("decoding flac frame: %w", err)
		}
		if err := d.interleave(f); err != nil {
			return 0, err
		}
	}

	n := copy(dst, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *Decoder) interleave(f *frame.Frame) error {
	if len(f.Subframes) != d.channels {
		return fmt.Errorf("%w: frame has %d channels, stream %d", ErrChannelMismatch, len(f.Subframes), d.channels)
	}

	frames := len(f.Subframes[0].Samples)
	size := frames * d.channels
	if cap(d.interleaved) < size {
		d.interleaved = make([]float32, size)
	}
	d.interleaved = d.interleaved[:size]

	scale := float32(int64(1) << (f.BitsPerSample - 1))
	for ch, sub := range f.Subframes {
		for i, s := range sub.Samples[:frames] {
			d.interleaved[i*d.channels+ch] = float32(s) / scale
		}
	}

	d.pending = d.interleaved
	return nil
}
