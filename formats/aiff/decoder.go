// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audstream/audio"
)

// aiffReader is the part of aiff.Decoder in use, so tests can swap it.
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Codec decodes uncompressed AIFF.
type Codec struct{}

func (Codec) Name() string { return "aiff" }

func (Codec) NewDecoder() (audio.Decoder, error) {
	return &Decoder{channels: -1, sampleRate: -1}, nil
}

// Decoder wraps go-audio's AIFF decoder.
type Decoder struct {
	dec        aiffReader
	channels   int
	sampleRate int
	scale      float32
	intBuf     *goaudio.IntBuffer
}

func (d *Decoder) Channels() int   { return d.channels }
func (d *Decoder) SampleRate() int { return d.sampleRate }
func (d *Decoder) Close() error    { return nil }

// Open reads the COMM chunk. go-audio needs to seek, so a reader that cannot
// is read into memory first.
func (d *Decoder) Open(r io.Reader) error {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return ErrNotAiffFile
	}
	dec.ReadInfo()

	scale, err := scaleFor(int(dec.BitDepth))
	if err != nil {
		return err
	}

	format := dec.Format()
	if format == nil {
		return ErrUnsupportedAiffLayout
	}

	d.dec = dec
	d.scale = scale
	d.channels = format.NumChannels
	d.sampleRate = format.SampleRate
	return nil
}

func scaleFor(bitDepth int) (float32, error) {
	switch bitDepth {
	case 8:
		return 128.0, nil
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	}
	return 0, fmt.Errorf("%w: %d bits", ErrUnsupportedBitDepth, bitDepth)
}

func (d *Decoder) ReadFrame(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if d.intBuf == nil || cap(d.intBuf.Data) < len(dst) {
		d.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: d.dec.Format(),
		}
	} else {
		d.intBuf.Data = d.intBuf.Data[:len(dst)]
	}

	n, err := d.dec.PCMBuffer(d.intBuf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("decoding aiff: %w", err)
		}
		return 0, io.EOF
	}

	for i := range n {
		dst[i] = float32(d.intBuf.Data[i]) / d.scale
	}

	// The remaining error, if any, comes back with the next call.
	return n, nil
}
