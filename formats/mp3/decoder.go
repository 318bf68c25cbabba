// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audstream/audio"
)

// go-mp3 always produces interleaved stereo.
const channels = 2

// mp3Reader is the part of gomp3.Decoder in use, so tests can swap it.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

// Codec decodes MPEG-1/2 Layer III.
type Codec struct{}

func (Codec) Name() string { return "mp3" }

func (Codec) NewDecoder() (audio.Decoder, error) {
	return &Decoder{sampleRate: -1}, nil
}

// Decoder pulls 16-bit PCM out of go-mp3.
type Decoder struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	eof        bool
}

func (d *Decoder) SampleRate() int { return d.sampleRate }
func (d *Decoder) Close() error    { return nil }

func (d *Decoder) Channels() int {
	if d.dec == nil {
		return -1
	}
	return channels
}

// Open parses frame headers until it knows the sample rate.
func (d *Decoder) Open(r io.Reader) error {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotMP3File, err)
	}

	d.dec = dec
	d.sampleRate = dec.SampleRate()
	return nil
}

// ReadFrame fills dst with whole stereo frames.
func (d *Decoder) ReadFrame(dst []float32) (int, error) {
	if d.eof {
		return 0, io.EOF
	}

	want := (len(dst) - len(dst)%channels) * 2
	if want == 0 {
		return 0, nil
	}
	if cap(d.buf) < want {
		d.buf = make([]byte, want)
	}
	d.buf = d.buf[:want]

	n, err := io.ReadFull(d.dec, d.buf)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		d.eof = true
	case err != nil:
		return 0, fmt.Errorf("decoding mp3: %w", err)
	}

	samples := n / 2
	for i := range samples {
		v := int16(uint16(d.buf[2*i]) | uint16(d.buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768.0
	}

	if samples == 0 && d.eof {
		return 0, io.EOF
	}
	return samples, nil
}
