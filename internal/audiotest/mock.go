// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ik5/audstream/audio"
)

// The test format is a tiny framed container:
//
//	header: "TST1" | channels uint8 | sampleRate uint32 LE
//	frame:  count uint16 LE | count float32 LE samples
//
// A frame count of CorruptMarker makes the decoder fail.
const (
	headerSize    = 9
	CorruptMarker = 0xFFFF
)

var (
	magic = []byte("TST1")

	// ErrBadMagic is returned when the header does not start with "TST1".
	ErrBadMagic = errors.New("audiotest: bad magic")
	// ErrCorruptFrame is returned for a frame carrying CorruptMarker.
	ErrCorruptFrame = errors.New("audiotest: corrupt frame")
)

// Encode builds a test stream holding samples, split in frames of frameLen
// interleaved samples.
func Encode(channels, sampleRate int, samples []float32, frameLen int) []byte {
	buf := new(bytes.Buffer)
	buf.Write(magic)
	buf.WriteByte(byte(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))

	for i := 0; i < len(samples); i += frameLen {
		end := min(i+frameLen, len(samples))
		binary.Write(buf, binary.LittleEndian, uint16(end-i))
		for _, s := range samples[i:end] {
			binary.Write(buf, binary.LittleEndian, math.Float32bits(s))
		}
	}

	return buf.Bytes()
}

// Corrupt appends a frame that fails to decode.
func Corrupt(data []byte) []byte {
	out := append([]byte{}, data...)
	return binary.LittleEndian.AppendUint16(out, CorruptMarker)
}

// Ramp generates frames*channels samples, each distinct and inside [-1,1].
func Ramp(frames, channels int) []float32 {
	out := make([]float32, frames*channels)
	for i := range out {
		out[i] = float32(i%2000)/1000 - 1
	}
	return out
}

// Sine generates a sine wave at frequency for every channel.
func Sine(sampleRate, channels, frames int, frequency float64) []float32 {
	out := make([]float32, frames*channels)
	for f := range frames {
		t := float64(f) / float64(sampleRate)
		v := float32(math.Sin(2 * math.Pi * frequency * t))
		for ch := range channels {
			out[f*channels+ch] = v
		}
	}
	return out
}

// PushCodec decodes the test format through the push interface.
type PushCodec struct{}

func (PushCodec) Name() string { return "test-push" }

func (PushCodec) NewDecoder() (audio.Decoder, error) { return &pushDecoder{}, nil }

type pushDecoder struct {
	channels   int
	sampleRate int
	closed     bool
}

func (d *pushDecoder) Channels() int   { return d.channels }
func (d *pushDecoder) SampleRate() int { return d.sampleRate }
func (d *pushDecoder) Close() error {
	d.closed = true
	return nil
}

func (d *pushDecoder) DecodeHeader(data []byte) (int, error) {
	if len(data) < len(magic) {
		if !bytes.HasPrefix(magic, data) {
			return 0, ErrBadMagic
		}
		return 0, audio.ErrNeedMoreData
	}
	if !bytes.HasPrefix(data, magic) {
		return 0, ErrBadMagic
	}
	if len(data) < headerSize {
		return 0, audio.ErrNeedMoreData
	}

	d.channels = int(data[4])
	d.sampleRate = int(binary.LittleEndian.Uint32(data[5:9]))
	return headerSize, nil
}

func (d *pushDecoder) DecodeFrame(data []byte) (int, []float32, error) {
	if len(data) < 2 {
		return 0, nil, audio.ErrNeedMoreData
	}

	count := int(binary.LittleEndian.Uint16(data))
	if count == CorruptMarker {
		return 0, nil, ErrCorruptFrame
	}

	size := 2 + count*4
	if len(data) < size {
		return 0, nil, audio.ErrNeedMoreData
	}

	return size, decodeFloats(data[2:size], count), nil
}

func decodeFloats(b []byte, count int) []float32 {
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// PullCodec decodes the test format through the pull interface.
type PullCodec struct{}

func (PullCodec) Name() string { return "test-pull" }

func (PullCodec) NewDecoder() (audio.Decoder, error) { return &pullDecoder{}, nil }

type pullDecoder struct {
	r          io.Reader
	channels   int
	sampleRate int
	pending    []float32
}

func (d *pullDecoder) Channels() int   { return d.channels }
func (d *pullDecoder) SampleRate() int { return d.sampleRate }
func (d *pullDecoder) Close() error    { return nil }

func (d *pullDecoder) Open(r io.Reader) error {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}
	if !bytes.HasPrefix(header, magic) {
		return ErrBadMagic
	}

	d.r = r
	d.channels = int(header[4])
	d.sampleRate = int(binary.LittleEndian.Uint32(header[5:9]))
	return nil
}

func (d *pullDecoder) ReadFrame(dst []float32) (int, error) {
	if len(d.pending) == 0 {
		var countBuf [2]byte
		if _, err := io.ReadFull(d.r, countBuf[:]); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, io.EOF
			}
			return 0, err
		}

		count := int(binary.LittleEndian.Uint16(countBuf[:]))
		if count == CorruptMarker {
			return 0, ErrCorruptFrame
		}

		body := make([]byte, count*4)
		if _, err := io.ReadFull(d.r, body); err != nil {
			return 0, err
		}
		d.pending = decodeFloats(body, count)
	}

	n := copy(dst, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

// Source is a reusable byte source. Every NewReader call returns a fresh
// reader over the same data that hands out at most ReadSize bytes per Read.
type Source struct {
	Data     []byte
	ReadSize int
	// Err, when set, makes NewReader fail.
	Err error

	opens  atomic.Int64
	closes atomic.Int64
}

// NewBytesSource builds a Source over data.
func NewBytesSource(data []byte, readSize int) *Source {
	return &Source{Data: data, ReadSize: readSize}
}

func (s *Source) NewReader() (io.ReadCloser, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.opens.Add(1)

	return &chunkReader{
		r:    bytes.NewReader(s.Data),
		size: s.ReadSize,
		onClose: func() {
			s.closes.Add(1)
		},
	}, nil
}

// Opens counts NewReader calls that succeeded.
func (s *Source) Opens() int { return int(s.opens.Load()) }

// Closes counts readers that were closed.
func (s *Source) Closes() int { return int(s.closes.Load()) }

type chunkReader struct {
	r       *bytes.Reader
	size    int
	once    sync.Once
	onClose func()
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if c.size > 0 && len(p) > c.size {
		p = p[:c.size]
	}
	return c.r.Read(p)
}

func (c *chunkReader) Close() error {
	c.once.Do(c.onClose)
	return nil
}
