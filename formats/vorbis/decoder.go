// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
	"github.com/jfreymuth/vorbis"

	"github.com/ik5/audstream/audio"
)

// headerPackets is the number of Vorbis header packets: identification,
// comment and setup.
const headerPackets = 3

// Codec decodes Ogg Vorbis.
type Codec struct{}

func (Codec) Name() string { return "vorbis" }

func (Codec) NewDecoder() (audio.Decoder, error) {
	return &Decoder{channels: -1, sampleRate: -1}, nil
}

// Decoder is a push decoder: it demuxes Ogg pages out of whatever bytes
// are staged and runs each audio packet through jfreymuth/vorbis.
type Decoder struct {
	ogg     demuxer
	dec     vorbis.Decoder
	headers int
	// frames counts the sample frames returned so far.
	frames int64

	channels   int
	sampleRate int
}

func (d *Decoder) Channels() int   { return d.channels }
func (d *Decoder) SampleRate() int { return d.sampleRate }

func (d *Decoder) Close() error {
	d.ogg = demuxer{}
	d.frames = 0
	return nil
}

// DecodeHeader consumes pages until all three header packets were read.
func (d *Decoder) DecodeHeader(data []byte) (int, error) {
	consumed := 0
	for {
		for d.headers < headerPackets {
			p, ok := d.ogg.next()
			if !ok {
				break
			}
			if err := d.dec.ReadHeader(p); err != nil {
				return consumed, fmt.Errorf("%w: packet %d: %w", ErrBadHeader, d.headers, err)
			}
			d.headers++
		}

		if d.headers == headerPackets {
			d.channels = d.dec.Channels()
			d.sampleRate = d.dec.SampleRate()
			return consumed, nil
		}

		n, err := d.ogg.page(data[consumed:])
		if err != nil {
			return consumed, err
		}
		consumed += n
	}
}

// DecodeFrame decodes the next audio packet. The first packet after the
// headers yields no samples; that is how Vorbis overlaps windows.
func (d *Decoder) DecodeFrame(data []byte) (int, []float32, error) {
	consumed := 0
	for {
		if p, ok := d.ogg.next(); ok {
			samples, err := d.dec.Decode(p)
			if err != nil {
				return consumed, nil, fmt.Errorf("decoding vorbis packet: %w", err)
			}
			return consumed, d.trim(samples), nil
		}

		if d.ogg.eos {
			// Whatever follows the end of our stream is ignored.
			return len(data), nil, audio.ErrNeedMoreData
		}

		n, err := d.ogg.page(data[consumed:])
		if err != nil {
			return consumed, nil, err
		}
		consumed += n
	}
}

// trim cuts the padding off the last packet of the stream: the granule
// position of the final page is the total number of sample frames.
func (d *Decoder) trim(samples []float32) []float32 {
	if d.channels <= 0 {
		return samples
	}

	d.frames += int64(len(samples) / d.channels)
	if !d.ogg.final || d.ogg.granule < 0 || d.frames <= d.ogg.granule {
		return samples
	}

	extra := min(d.frames-d.ogg.granule, int64(len(samples)/d.channels))
	d.frames -= extra
	return samples[:len(samples)-int(extra)*d.channels]
}

// Probe reads the stream format from the identification header.
func Probe(r io.Reader) (audio.Format, error) {
	f, err := oggvorbis.GetFormat(r)
	if err != nil {
		return audio.Format{}, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	return audio.Format{Channels: f.Channels, SampleRate: f.SampleRate}, nil
}

// Length returns the stream length in sample frames. It reads the granule
// position of the last page, so it only works on seekable sources.
func Length(rs io.ReadSeeker) (int64, error) {
	n, _, err := oggvorbis.GetLength(rs)
	if err != nil {
		return 0, fmt.Errorf("reading vorbis length: %w", err)
	}
	return n, nil
}
