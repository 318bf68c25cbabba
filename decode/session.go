// SPDX-License-Identifier: EPL-2.0

package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

const (
	// readSize is how many raw bytes a single refill pulls from the reader.
	readSize = 8192
	// frameSize is the float buffer a pull decoder fills per pass.
	frameSize = 4096
	// accumulateSize and maxAccumulateSize bound the initial capacity of
	// ReadSamples' output.
	accumulateSize    = 8192
	maxAccumulateSize = 1 << 20
)

// Session is one forward-only pass over one byte stream. It is not safe for
// concurrent use; the stream controller only touches it from its decode
// goroutine.
type Session struct {
	r   io.ReadCloser
	dec audio.Decoder

	push audio.PushDecoder
	pull audio.PullDecoder

	// staging holds raw bytes not yet consumed by a push decoder;
	// staging[:pos] is valid.
	staging []byte
	pos     int
	readBuf []byte
	srcEOF  bool

	frameBuf []float32
	// carry holds decoded samples not yet handed out.
	carry []int16

	started bool
	closed  bool

	channels    int
	sampleRate  int
	samplesRead int64
}

// NewSession wraps r and dec. The session owns both and closes them on Close.
func NewSession(r io.ReadCloser, dec audio.Decoder) *Session {
	s := &Session{
		r:          r,
		dec:        dec,
		channels:   -1,
		sampleRate: -1,
	}

	switch d := dec.(type) {
	case audio.PushDecoder:
		s.push = d
		s.staging = make([]byte, readSize)
		s.readBuf = make([]byte, readSize)
	case audio.PullDecoder:
		s.pull = d
		s.frameBuf = make([]float32, frameSize)
	}

	return s
}

// Channels is -1 until Start succeeds.
func (s *Session) Channels() int { return s.channels }

// SampleRate is -1 until Start succeeds.
func (s *Session) SampleRate() int { return s.sampleRate }

// SamplesRead counts interleaved samples handed out so far, skipped ones
// included.
func (s *Session) SamplesRead() int64 { return s.samplesRead }

// Format returns the stream format once Start has succeeded.
func (s *Session) Format() audio.Format {
	return audio.Format{Channels: s.channels, SampleRate: s.sampleRate}
}

// Start reads the stream header. Any failure is final for the session.
func (s *Session) Start() error {
	if s.closed {
		return ErrClosed
	}
	if s.started {
		return nil
	}

	switch {
	case s.push != nil:
		if err := s.startPush(); err != nil {
			return err
		}
	case s.pull != nil:
		if err := s.pull.Open(s.r); err != nil {
			return fmt.Errorf("reading header: %w", err)
		}
	default:
		return ErrUnsupportedDecoder
	}

	f := audio.Format{Channels: s.dec.Channels(), SampleRate: s.dec.SampleRate()}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%d channels at %d Hz: %w", f.Channels, f.SampleRate, err)
	}

	s.channels = f.Channels
	s.sampleRate = f.SampleRate
	s.started = true

	return nil
}

func (s *Session) startPush() error {
	for {
		more, err := s.fill()
		if err != nil {
			return err
		}
		if !more {
			return fmt.Errorf("reading header: %w", ErrUnexpectedEOF)
		}

		consumed, err := s.push.DecodeHeader(s.staging[:s.pos])
		s.consume(consumed)
		if errors.Is(err, audio.ErrNeedMoreData) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading header: %w", err)
		}

		return nil
	}
}

// fill appends one read worth of raw bytes to the staging buffer. It reports
// false once the reader is exhausted.
func (s *Session) fill() (bool, error) {
	if s.srcEOF {
		return false, nil
	}

	n, err := s.r.Read(s.readBuf)
	if n > 0 {
		free := len(s.staging) - s.pos
		if free < n {
			grown := make([]byte, len(s.staging)*2+(n-free))
			copy(grown, s.staging[:s.pos])
			s.staging = grown
		}
		copy(s.staging[s.pos:], s.readBuf[:n])
		s.pos += n
	}

	if errors.Is(err, io.EOF) {
		s.srcEOF = true
		return n > 0, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading source: %w", err)
	}

	return true, nil
}

func (s *Session) consume(n int) {
	if n <= 0 {
		return
	}
	n = min(n, s.pos)
	copy(s.staging, s.staging[n:s.pos])
	s.pos -= n
}

func (s *Session) check() error {
	if s.closed {
		return ErrClosed
	}
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Read returns the next decoded chunk. A zero length chunk means "nothing
// yet, call again"; io.EOF means the source is exhausted.
func (s *Session) Read() ([]int16, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	if len(s.carry) > 0 {
		out := s.carry
		s.carry = nil
		s.samplesRead += int64(len(out))
		return out, nil
	}

	out, err := s.decode()
	if err != nil {
		return nil, err
	}
	s.samplesRead += int64(len(out))
	return out, nil
}

// decode runs one decoder pass and converts the result to PCM.
func (s *Session) decode() ([]int16, error) {
	var (
		frame []float32
		err   error
	)
	if s.push != nil {
		frame, err = s.readPush()
	} else {
		frame, err = s.readPull()
	}
	if err != nil {
		return nil, err
	}

	// Partial frames are dropped so chunks stay channel aligned.
	frame = frame[:len(frame)-len(frame)%s.channels]

	out := make([]int16, len(frame))
	utils.Float32SliceToPCM16(out, frame)
	return out, nil
}

// frameAligned rounds n down to a multiple of the channel count, so the
// carry never starts in the middle of a frame.
func (s *Session) frameAligned(n int) int {
	if s.channels <= 0 {
		return n
	}
	return n - n%s.channels
}

// take hands out at most n samples of chunk and keeps the rest for later.
func (s *Session) take(chunk []int16, n int) []int16 {
	if len(chunk) > n {
		s.carry = chunk[n:]
		chunk = chunk[:n]
		s.samplesRead -= int64(len(s.carry))
	}
	return chunk
}

func (s *Session) readPush() ([]float32, error) {
	consumed, frame, err := s.push.DecodeFrame(s.staging[:s.pos])
	s.consume(consumed)

	if errors.Is(err, audio.ErrNeedMoreData) {
		more, ferr := s.fill()
		if ferr != nil {
			return nil, ferr
		}
		if !more {
			return nil, io.EOF
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}

	return frame, nil
}

func (s *Session) readPull() ([]float32, error) {
	n, err := s.pull.ReadFrame(s.frameBuf)
	if n > 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding frame: %w", err)
		}
		// io.EOF alongside data is reported on the next call.
		return s.frameBuf[:n], nil
	}

	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}

	return nil, nil
}

// ReadSamples keeps decoding until target interleaved samples were collected
// or the source ends. It returns io.EOF only if nothing was read. target is
// rounded down to whole frames.
func (s *Session) ReadSamples(target int) ([]int16, error) {
	target = s.frameAligned(target)
	buf := make([]int16, 0, min(max(accumulateSize, target), maxAccumulateSize))

	for len(buf) < target {
		chunk, err := s.Read()
		if errors.Is(err, io.EOF) {
			if len(buf) == 0 {
				return nil, io.EOF
			}
			break
		}
		if err != nil {
			return nil, err
		}

		buf = append(buf, s.take(chunk, target-len(buf))...)
	}

	return buf, nil
}

// Skip decodes and discards n samples, rounded down to whole frames. It
// returns how many were skipped, fewer only when the source ended, and io.EOF
// if it was already at the end.
func (s *Session) Skip(n int) (int, error) {
	n = s.frameAligned(n)
	skipped := 0
	for skipped < n {
		chunk, err := s.Read()
		if errors.Is(err, io.EOF) {
			if skipped == 0 {
				return 0, io.EOF
			}
			break
		}
		if err != nil {
			return skipped, err
		}
		skipped += len(s.take(chunk, n-skipped))
	}

	return skipped, nil
}

// Close releases the decoder, the staging buffer and the reader. Closing
// twice is a usage fault and returns ErrClosed.
func (s *Session) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true

	s.staging = nil
	s.readBuf = nil
	s.frameBuf = nil
	s.carry = nil
	s.pos = 0

	decErr := s.dec.Close()
	readErr := s.r.Close()

	if decErr != nil {
		return fmt.Errorf("closing decoder: %w", decErr)
	}
	if readErr != nil {
		return fmt.Errorf("closing source: %w", readErr)
	}

	return nil
}
