// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ik5/audstream/audio"
)

const (
	riffHeaderSize  = 12
	chunkHeaderSize = 8
	// maxFrames caps how many sample frames one DecodeFrame call returns.
	maxFrames = 4096

	formatPCM        = 1
	formatExtensible = 0xFFFE
	// unknownSize marks a data chunk written by a streaming encoder that never
	// patched the length in.
	unknownSize = 0xFFFFFFFF
)

// Codec decodes 16-bit PCM WAV.
type Codec struct{}

func (Codec) Name() string { return "wav" }

func (Codec) NewDecoder() (audio.Decoder, error) {
	return &Decoder{channels: -1, sampleRate: -1}, nil
}

// Decoder parses WAV incrementally from whatever bytes are staged. It walks
// the RIFF chunks up to "data", skipping ones it does not know.
type Decoder struct {
	channels   int
	sampleRate int
	haveFormat bool
	// remaining is the number of data bytes left, -1 when unknown.
	remaining int64
	frame     []float32
}

func (d *Decoder) Channels() int   { return d.channels }
func (d *Decoder) SampleRate() int { return d.sampleRate }
func (d *Decoder) Close() error    { return nil }

// DecodeHeader consumes everything up to the first sample.
func (d *Decoder) DecodeHeader(data []byte) (int, error) {
	if len(data) < riffHeaderSize {
		return 0, audio.ErrNeedMoreData
	}
	if !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return 0, ErrNotWavFile
	}

	off := riffHeaderSize
	for {
		if len(data)-off < chunkHeaderSize {
			return 0, audio.ErrNeedMoreData
		}

		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + chunkHeaderSize

		if id == "data" {
			if !d.haveFormat {
				return 0, ErrUnsupportedWavLayout
			}
			d.remaining = int64(size)
			if size == unknownSize {
				d.remaining = -1
			}
			return body, nil
		}

		next := body + int(size) + int(size&1)
		if len(data) < next {
			return 0, audio.ErrNeedMoreData
		}

		if id == "fmt " {
			if err := d.parseFormat(data[body : body+int(size)]); err != nil {
				return 0, err
			}
		}
		off = next
	}
}

func (d *Decoder) parseFormat(fmtChunk []byte) error {
	if len(fmtChunk) < 16 {
		return fmt.Errorf("%w: fmt chunk is %d bytes", ErrUnsupportedWavChunks, len(fmtChunk))
	}

	audioFormat := binary.LittleEndian.Uint16(fmtChunk[0:2])
	channels := int(binary.LittleEndian.Uint16(fmtChunk[2:4]))
	sampleRate := int(binary.LittleEndian.Uint32(fmtChunk[4:8]))
	bitsPerSample := binary.LittleEndian.Uint16(fmtChunk[14:16])

	if audioFormat == formatExtensible && len(fmtChunk) >= 26 {
		// The sub format GUID starts with the real format tag.
		audioFormat = binary.LittleEndian.Uint16(fmtChunk[24:26])
	}
	if audioFormat != formatPCM || bitsPerSample != 16 {
		return ErrOnlyPCM16bitSupported
	}
	if channels == 0 {
		return fmt.Errorf("%w: zero channels", ErrUnsupportedWavLayout)
	}

	d.channels = channels
	d.sampleRate = sampleRate
	d.haveFormat = true
	return nil
}

// DecodeFrame converts whole sample frames from data. Bytes after the data
// chunk are swallowed.
func (d *Decoder) DecodeFrame(data []byte) (int, []float32, error) {
	if d.remaining == 0 {
		return len(data), nil, audio.ErrNeedMoreData
	}

	blockAlign := d.channels * 2
	n := min(len(data), maxFrames*blockAlign)
	if d.remaining > 0 {
		n = int(min(int64(n), d.remaining))
	}
	n -= n % blockAlign
	if n == 0 {
		return 0, nil, audio.ErrNeedMoreData
	}

	samples := n / 2
	if cap(d.frame) < samples {
		d.frame = make([]float32, samples)
	}
	d.frame = d.frame[:samples]

	for i := range d.frame {
		v := int16(binary.LittleEndian.Uint16(data[2*i : 2*i+2]))
		d.frame[i] = float32(v) / 32768.0
	}

	if d.remaining > 0 {
		d.remaining -= int64(n)
	}
	return n, d.frame, nil
}
