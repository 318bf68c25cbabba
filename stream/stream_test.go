// SPDX-License-Identifier: EPL-2.0

package stream_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/backends/memory"
	"github.com/ik5/audstream/internal/audiotest"
	"github.com/ik5/audstream/stream"
	"github.com/ik5/audstream/utils"
)

const (
	testRate     = 1000
	testChannels = 2
	testFrames   = 1000
	testSamples  = testFrames * testChannels
	testBuffers  = 4
)

var codecs = []audio.Codec{audiotest.PushCodec{}, audiotest.PullCodec{}}

func rampSource() (*audiotest.Source, []int16) {
	ramp := audiotest.Ramp(testFrames, testChannels)
	want := make([]int16, len(ramp))
	utils.Float32SliceToPCM16(want, ramp)

	data := audiotest.Encode(testChannels, testRate, ramp, 300)
	return audiotest.NewBytesSource(data, 0), want
}

func newStream(t *testing.T, src stream.SourceFactory, codec audio.Codec, opts ...stream.Option) (*stream.Stream, *memory.Backend) {
	t.Helper()

	b := memory.New()
	opts = append([]stream.Option{
		stream.WithBuffers(testBuffers),
		stream.WithBufferedDuration(time.Second),
		stream.WithPollInterval(time.Millisecond),
		stream.WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)

	s := stream.New(src, codec, b, opts...)
	t.Cleanup(func() {
		s.Close()
		<-s.Done()
		b.RunPending()
	})
	return s, b
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// drain pulls buffers, returning each one right away, until n samples arrived.
func drain(t *testing.T, s *stream.Stream, b *memory.Backend, n int) []int16 {
	t.Helper()

	var out []int16
	deadline := time.Now().Add(5 * time.Second)
	for len(out) < n {
		if time.Now().After(deadline) {
			t.Fatalf("got %d samples, want %d", len(out), n)
		}

		buf, ok, err := s.NextBuffer()
		if err != nil {
			t.Fatalf("NextBuffer() error = %v", err)
		}
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}

		data, _, _ := b.Data(buf)
		out = append(out, data...)
		if err := s.ReturnBuffer(buf); err != nil {
			t.Fatalf("ReturnBuffer(%d) error = %v", buf, err)
		}
	}
	return out
}

// failure pulls buffers until NextBuffer reports an error.
func failure(t *testing.T, s *stream.Stream) error {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		buf, ok, err := s.NextBuffer()
		if err != nil {
			return err
		}
		if ok {
			_ = s.ReturnBuffer(buf)
			continue
		}
		time.Sleep(time.Millisecond)
	}

	t.Fatal("NextBuffer() never failed")
	return nil
}

func TestStreamJoinFormat(t *testing.T) {
	t.Parallel()

	for _, codec := range codecs {
		t.Run(codec.Name(), func(t *testing.T) {
			t.Parallel()

			src, _ := rampSource()
			s, _ := newStream(t, src, codec)

			if s.Channels() != -1 || s.SampleRate() != -1 {
				t.Errorf("format before Start = %d/%d, want -1/-1", s.Channels(), s.SampleRate())
			}

			s.Start()
			if err := s.Join(); err != nil {
				t.Fatalf("Join() error = %v", err)
			}

			want := audio.Format{Channels: testChannels, SampleRate: testRate}
			if got := s.Format(); got != want {
				t.Errorf("Format() = %+v, want %+v", got, want)
			}
			if !s.Started() {
				t.Error("Started() = false after Start")
			}
		})
	}
}

func TestStreamReadsEverything(t *testing.T) {
	t.Parallel()

	for _, codec := range codecs {
		t.Run(codec.Name(), func(t *testing.T) {
			t.Parallel()

			src, want := rampSource()
			s, b := newStream(t, src, codec)
			s.Start()

			got := drain(t, s, b, testSamples)
			if !slices.Equal(got, want) {
				t.Fatalf("decoded %d samples, mismatch with expected %d", len(got), len(want))
			}

			waitFor(t, "end of stream", func() bool { return !s.Playing() })
			if s.CurrentSample() != testSamples {
				t.Errorf("CurrentSample() = %d, want %d", s.CurrentSample(), testSamples)
			}
			if s.Closed() {
				t.Error("Closed() = true at end of stream")
			}
		})
	}
}

func TestStreamBufferSize(t *testing.T) {
	t.Parallel()

	src, _ := rampSource()
	s, b := newStream(t, src, audiotest.PushCodec{})
	s.Start()

	waitFor(t, "queue to fill", func() bool { return s.Queued() == testBuffers })

	buf, ok, err := s.NextBuffer()
	if err != nil || !ok {
		t.Fatalf("NextBuffer() = %d, %v, %v", buf, ok, err)
	}

	// 1s over 4 buffers at 1000 Hz stereo.
	data, format, _ := b.Data(buf)
	if len(data) != 500 {
		t.Errorf("buffer holds %d samples, want 500", len(data))
	}
	if format.Channels != testChannels || format.SampleRate != testRate {
		t.Errorf("buffer format = %+v", format)
	}
}

func TestStreamUsageErrors(t *testing.T) {
	t.Parallel()

	src, _ := rampSource()
	s, _ := newStream(t, src, audiotest.PushCodec{})

	if err := s.Join(); !errors.Is(err, stream.ErrNotStarted) {
		t.Errorf("Join() before Start error = %v, want ErrNotStarted", err)
	}

	if err := s.ReturnBuffer(99); !errors.Is(err, stream.ErrForeignBuffer) {
		t.Errorf("ReturnBuffer(99) error = %v, want ErrForeignBuffer", err)
	}
}

func TestStreamStartFailures(t *testing.T) {
	t.Parallel()

	sourceErr := errors.New("no such file")

	tests := []struct {
		name string
		src  *audiotest.Source
		want error
	}{
		{
			name: "bad header",
			src:  audiotest.NewBytesSource([]byte("NOPE and some more bytes"), 0),
			want: audiotest.ErrBadMagic,
		},
		{
			name: "unsupported channels",
			src:  audiotest.NewBytesSource(audiotest.Encode(6, 48000, make([]float32, 60), 60), 0),
			want: audio.ErrUnsupportedFormat,
		},
		{
			name: "source error",
			src:  &audiotest.Source{Err: sourceErr},
			want: sourceErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newStream(t, tt.src, audiotest.PushCodec{})
			s.Start()

			if err := s.Join(); !errors.Is(err, tt.want) {
				t.Fatalf("Join() error = %v, want %v", err, tt.want)
			}
			if !s.Closed() {
				t.Error("Closed() = false after failure")
			}

			for range 3 {
				_, ok, err := s.NextBuffer()
				if !errors.Is(err, stream.ErrStreamFailed) || !errors.Is(err, tt.want) {
					t.Fatalf("NextBuffer() error = %v, want ErrStreamFailed wrapping %v", err, tt.want)
				}
				if ok {
					t.Error("NextBuffer() ok = true after failure")
				}
			}
		})
	}
}

func TestStreamCorruptMidStream(t *testing.T) {
	t.Parallel()

	for _, codec := range codecs {
		t.Run(codec.Name(), func(t *testing.T) {
			t.Parallel()

			ramp := audiotest.Ramp(testFrames, testChannels)
			data := audiotest.Corrupt(audiotest.Encode(testChannels, testRate, ramp, 300))
			s, _ := newStream(t, audiotest.NewBytesSource(data, 0), codec)
			s.Start()

			// The header is fine, so Join either succeeds or reports the
			// frame error if decoding already got there.
			if err := s.Join(); err != nil && !errors.Is(err, audiotest.ErrCorruptFrame) {
				t.Fatalf("Join() error = %v", err)
			}

			err := failure(t, s)
			if !errors.Is(err, stream.ErrStreamFailed) || !errors.Is(err, audiotest.ErrCorruptFrame) {
				t.Fatalf("NextBuffer() error = %v, want ErrStreamFailed wrapping ErrCorruptFrame", err)
			}
			if !errors.Is(s.Err(), audiotest.ErrCorruptFrame) {
				t.Errorf("Err() = %v", s.Err())
			}
		})
	}
}

func TestStreamSeekAfterEnd(t *testing.T) {
	t.Parallel()

	src, want := rampSource()
	s, b := newStream(t, src, audiotest.PushCodec{})
	s.Start()

	drain(t, s, b, testSamples)
	waitFor(t, "end of stream", func() bool { return !s.Playing() })

	s.Seek(0)
	got := drain(t, s, b, testSamples)
	if !slices.Equal(got, want) {
		t.Fatal("second pass differs from the first")
	}
	if src.Opens() != 2 {
		t.Errorf("Opens() = %d, want 2", src.Opens())
	}
}

func TestStreamBackwardSeek(t *testing.T) {
	t.Parallel()

	src, want := rampSource()
	s, b := newStream(t, src, audiotest.PullCodec{})
	s.Start()

	waitFor(t, "queue to fill", func() bool { return s.Queued() == testBuffers })

	s.Seek(0)
	waitFor(t, "restart", func() bool { return src.Opens() == 2 })

	got := drain(t, s, b, 2)
	if got[0] != want[0] || got[1] != want[1] {
		t.Errorf("first frame after seek = %v, want %v", got[:2], want[:2])
	}
}

func TestStreamForwardSeek(t *testing.T) {
	t.Parallel()

	for _, codec := range codecs {
		t.Run(codec.Name(), func(t *testing.T) {
			t.Parallel()

			src, want := rampSource()
			s, b := newStream(t, src, codec)

			// 1001 falls inside frame 500 and is aligned down to its start.
			s.Seek(1001)
			s.Start()

			got := drain(t, s, b, testSamples-1000)
			if !slices.Equal(got, want[1000:]) {
				t.Fatalf("samples after seek differ, first = %d, want %d", got[0], want[1000])
			}
			if src.Opens() != 1 {
				t.Errorf("Opens() = %d, want 1", src.Opens())
			}
		})
	}
}

func TestStreamSeekDropsDecodedChunks(t *testing.T) {
	t.Parallel()

	for _, codec := range codecs {
		t.Run(codec.Name(), func(t *testing.T) {
			t.Parallel()

			src, want := rampSource()
			s, b := newStream(t, src, codec)
			s.Start()
			waitFor(t, "a full queue", func() bool { return s.Queued() == testBuffers })

			s.Seek(1000)

			got := drain(t, s, b, testSamples-1000)
			if !slices.Equal(got, want[1000:]) {
				t.Fatalf("samples after seek differ, first = %d, want %d", got[0], want[1000])
			}
		})
	}
}

func TestStreamNegativeSeek(t *testing.T) {
	t.Parallel()

	src, want := rampSource()
	s, b := newStream(t, src, audiotest.PushCodec{})
	s.Seek(-50)
	s.Start()

	got := drain(t, s, b, 2)
	if got[0] != want[0] {
		t.Errorf("first sample = %d, want %d", got[0], want[0])
	}
}

func TestStreamSeekPastEnd(t *testing.T) {
	t.Parallel()

	src, _ := rampSource()
	s, _ := newStream(t, src, audiotest.PushCodec{})
	s.Seek(testSamples * 10)
	s.Start()

	if err := s.Join(); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	waitFor(t, "end of stream", func() bool { return !s.Playing() })

	if s.Queued() != 0 {
		t.Errorf("Queued() = %d, want 0", s.Queued())
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v", s.Err())
	}
}

func TestStreamLooping(t *testing.T) {
	t.Parallel()

	for _, codec := range codecs {
		t.Run(codec.Name(), func(t *testing.T) {
			t.Parallel()

			src, want := rampSource()
			s, b := newStream(t, src, codec)
			s.SetLooping(true)
			s.Start()

			got := drain(t, s, b, 3*testSamples)
			for pass := range 3 {
				if !slices.Equal(got[pass*testSamples:(pass+1)*testSamples], want) {
					t.Fatalf("pass %d differs from the source", pass)
				}
			}

			if src.Opens() < 3 {
				t.Errorf("Opens() = %d, want at least 3", src.Opens())
			}
			if s.Channels() != testChannels || s.SampleRate() != testRate {
				t.Errorf("format changed to %+v", s.Format())
			}

			created, _, _ := s.BufferStats()
			if created != 1 {
				t.Errorf("created %d buffers, want 1 when each is returned right away", created)
			}
		})
	}
}

func TestStreamLoopingToggle(t *testing.T) {
	t.Parallel()

	src, _ := rampSource()
	s, b := newStream(t, src, audiotest.PushCodec{})
	s.Start()

	drain(t, s, b, testSamples)
	waitFor(t, "end of stream", func() bool { return !s.Playing() })

	if s.Looping() {
		t.Fatal("Looping() = true by default")
	}
	s.SetLooping(true)
	time.Sleep(20 * time.Millisecond)
	if s.Playing() || src.Opens() != 1 {
		t.Fatalf("SetLooping(true) after the end reopened the source: Playing() = %v, Opens() = %d", s.Playing(), src.Opens())
	}

	s.Seek(0)
	drain(t, s, b, 2*testSamples)
	if src.Opens() < 3 {
		t.Errorf("Opens() = %d, want at least 3 once the seek restarted a looping stream", src.Opens())
	}
}

func TestStreamRepeatedSeeks(t *testing.T) {
	t.Parallel()

	for _, codec := range codecs {
		t.Run(codec.Name(), func(t *testing.T) {
			t.Parallel()

			src, want := rampSource()
			s, b := newStream(t, src, codec, stream.WithBufferedDuration(40*time.Millisecond))
			s.SetLooping(true)
			s.Start()

			for i := range 40 {
				target := (i * 374) % (testSamples - 100)
				target -= target % testChannels

				s.Seek(int64(target))
				got := drain(t, s, b, 1)
				if got[0] != want[target] || got[1] != want[target+1] {
					t.Fatalf("seek %d to %d: first frame = %v, want %v", i, target, got[:2], want[target:target+2])
				}
			}
		})
	}
}

func TestStreamFormatChanged(t *testing.T) {
	t.Parallel()

	stereo := audiotest.Encode(2, testRate, audiotest.Ramp(100, 2), 100)
	mono := audiotest.Encode(1, testRate, audiotest.Ramp(100, 1), 100)

	var opens atomic.Int32
	src := stream.SourceFunc(func() (io.ReadCloser, error) {
		data := stereo
		if opens.Add(1) > 1 {
			data = mono
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	})

	s, _ := newStream(t, src, audiotest.PushCodec{})
	s.SetLooping(true)
	s.Start()

	err := failure(t, s)
	if !errors.Is(err, stream.ErrFormatChanged) {
		t.Fatalf("NextBuffer() error = %v, want ErrFormatChanged", err)
	}
}

func TestStreamBuffersAreRecycled(t *testing.T) {
	t.Parallel()

	src, _ := rampSource()
	s, b := newStream(t, src, audiotest.PushCodec{})
	s.SetLooping(true)
	s.Start()

	// Hold two buffers at a time, like a voice with a short queue.
	var held []stream.Buffer
	deadline := time.Now().Add(5 * time.Second)
	for served := 0; served < 20; {
		if time.Now().After(deadline) {
			t.Fatalf("served %d buffers before timing out", served)
		}

		buf, ok, err := s.NextBuffer()
		if err != nil {
			t.Fatalf("NextBuffer() error = %v", err)
		}
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		served++

		held = append(held, buf)
		if len(held) == 2 {
			if err := s.ReturnBuffer(held[0]); err != nil {
				t.Fatalf("ReturnBuffer() error = %v", err)
			}
			held = held[1:]
		}
	}

	created, pending, _ := s.BufferStats()
	if created > 2 {
		t.Errorf("created %d buffers, want at most 2", created)
	}
	if pending != 1 {
		t.Errorf("pending = %d, want 1", pending)
	}
	if b.Live() != created {
		t.Errorf("backend holds %d buffers, want %d", b.Live(), created)
	}
}

func TestStreamCloseReleasesBuffers(t *testing.T) {
	t.Parallel()

	src, _ := rampSource()
	s, b := newStream(t, src, audiotest.PushCodec{})
	s.Start()

	var held []stream.Buffer
	waitFor(t, "three buffers", func() bool {
		buf, ok, err := s.NextBuffer()
		if err != nil {
			t.Fatalf("NextBuffer() error = %v", err)
		}
		if ok {
			held = append(held, buf)
		}
		return len(held) == 3
	})
	if err := s.ReturnBuffer(held[0]); err != nil {
		t.Fatalf("ReturnBuffer() error = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	<-s.Done()

	if b.Live() != 3 {
		t.Errorf("Live() before RunPending = %d, want 3", b.Live())
	}
	b.RunPending()
	if b.Live() != 0 {
		t.Errorf("Live() after RunPending = %d, want 0", b.Live())
	}

	if err := s.ReturnBuffer(held[1]); err != nil {
		t.Errorf("ReturnBuffer() after Close error = %v, want nil", err)
	}
	if _, ok, err := s.NextBuffer(); ok || err != nil {
		t.Errorf("NextBuffer() after Close = %v, %v, want false, nil", ok, err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if src.Closes() != src.Opens() {
		t.Errorf("closed %d of %d readers", src.Closes(), src.Opens())
	}
}

func TestStreamCloseBeforeStart(t *testing.T) {
	t.Parallel()

	src, _ := rampSource()
	s, b := newStream(t, src, audiotest.PushCodec{})

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed")
	}

	s.Start()
	if s.Started() {
		t.Error("Start() after Close started the stream")
	}
	if src.Opens() != 0 {
		t.Errorf("Opens() = %d, want 0", src.Opens())
	}
	if b.RunPending() != 0 {
		t.Error("Close() before Start released buffers")
	}
}

func TestStreamCurrentSampleMonotonic(t *testing.T) {
	t.Parallel()

	src, _ := rampSource()
	s, b := newStream(t, src, audiotest.PullCodec{})
	s.Start()

	var last int64
	got := 0
	deadline := time.Now().Add(5 * time.Second)
	for got < testSamples && time.Now().Before(deadline) {
		cur := s.CurrentSample()
		if cur < last {
			t.Fatalf("CurrentSample() went back from %d to %d", last, cur)
		}
		last = cur

		buf, ok, err := s.NextBuffer()
		if err != nil {
			t.Fatalf("NextBuffer() error = %v", err)
		}
		if ok {
			data, _, _ := b.Data(buf)
			got += len(data)
			_ = s.ReturnBuffer(buf)
		}
	}

	if last > testSamples {
		t.Errorf("CurrentSample() = %d, beyond %d", last, testSamples)
	}
}

type blockingReader struct {
	unblock chan struct{}
}

func (r blockingReader) Read([]byte) (int, error) {
	<-r.unblock
	return 0, io.EOF
}

func (r blockingReader) Close() error { return nil }

func TestStreamJoinContext(t *testing.T) {
	t.Parallel()

	unblock := make(chan struct{})
	src := stream.SourceFunc(func() (io.ReadCloser, error) {
		return blockingReader{unblock: unblock}, nil
	})

	s, _ := newStream(t, src, audiotest.PullCodec{})
	s.Start()
	t.Cleanup(func() { close(unblock) })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := s.JoinContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("JoinContext() error = %v, want DeadlineExceeded", err)
	}
}

type panicCodec struct{}

func (panicCodec) Name() string                       { return "panic" }
func (panicCodec) NewDecoder() (audio.Decoder, error) { return panicDecoder{}, nil }

type panicDecoder struct{}

func (panicDecoder) Channels() int                    { return 1 }
func (panicDecoder) SampleRate() int                  { return 8000 }
func (panicDecoder) Close() error                     { return nil }
func (panicDecoder) Open(io.Reader) error             { return nil }
func (panicDecoder) ReadFrame([]float32) (int, error) { panic("bad frame") }

func TestStreamDecoderPanic(t *testing.T) {
	t.Parallel()

	src, _ := rampSource()
	s, _ := newStream(t, src, panicCodec{})
	s.Start()

	err := failure(t, s)
	if !errors.Is(err, stream.ErrStreamFailed) || !strings.Contains(err.Error(), "bad frame") {
		t.Fatalf("NextBuffer() error = %v, want a recovered panic", err)
	}
}

func TestStreamID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	src, _ := rampSource()

	s, _ := newStream(t, src, audiotest.PushCodec{}, stream.WithID(id))
	if s.ID() != id {
		t.Errorf("ID() = %v, want %v", s.ID(), id)
	}

	other, _ := newStream(t, src, audiotest.PushCodec{})
	if other.ID() == uuid.Nil {
		t.Error("ID() = Nil without WithID")
	}
}
