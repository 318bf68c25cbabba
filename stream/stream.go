// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ik5/audstream/audio"
)

const noSeek = -1

type failure struct {
	err error
}

// Stream decodes a source ahead of playback on its own goroutine and hands
// ready PCM chunks to the consumer as backend buffers.
//
// NextBuffer, ReturnBuffer and Close are meant for a single consumer
// goroutine and never block. The remaining methods are safe from anywhere.
type Stream struct {
	id      uuid.UUID
	factory SourceFactory
	codec   audio.Codec
	backend Backend
	opts    Options
	log     *slog.Logger

	startOnce   sync.Once
	started     atomic.Bool
	readyOnce   sync.Once
	ready       chan struct{}
	done        chan struct{}
	quitOnce    sync.Once
	quit        chan struct{}
	wake        chan struct{}
	releaseOnce sync.Once

	channels      atomic.Int32
	sampleRate    atomic.Int32
	currentSample atomic.Int64
	// seekMu pairs a seek target with the epoch it starts.
	seekMu        sync.Mutex
	seekTarget    atomic.Int64
	epoch         atomic.Int64
	looping       atomic.Bool
	playing       atomic.Bool
	closed        atomic.Bool
	failed        atomic.Pointer[failure]

	queue chunkQueue
	pool  *bufferPool
}

// New creates a stream over factory decoded by codec. Nothing happens until
// Start is called.
func New(factory SourceFactory, codec audio.Codec, backend Backend, opts ...Option) *Stream {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	s := &Stream{
		id:      o.ID,
		factory: factory,
		codec:   codec,
		backend: backend,
		opts:    o,
		log:     o.Logger.With("stream", o.ID.String(), "codec", codec.Name()),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		quit:    make(chan struct{}),
		wake:    make(chan struct{}, 1),
		pool:    newBufferPool(),
	}
	s.channels.Store(-1)
	s.sampleRate.Store(-1)
	s.seekTarget.Store(noSeek)

	return s
}

func (s *Stream) ID() uuid.UUID { return s.id }

// Options returns the tuning the stream was built with.
func (s *Stream) Options() Options { return s.opts }

// Start spawns the decode goroutine. Calling it again does nothing.
func (s *Stream) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		s.playing.Store(true)
		go s.run()
	})
}

func (s *Stream) Started() bool { return s.started.Load() }

// Join waits until the stream format is known or decoding failed, and
// returns the failure if there was one.
func (s *Stream) Join() error {
	return s.JoinContext(context.Background())
}

// JoinContext is Join bounded by ctx.
func (s *Stream) JoinContext(ctx context.Context) error {
	if !s.started.Load() {
		return ErrNotStarted
	}

	select {
	case <-s.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := s.Err(); err != nil {
		return err
	}
	if s.channels.Load() < 0 {
		return ErrClosed
	}
	return nil
}

// Done is closed once the decode goroutine has exited.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Channels is -1 until the header was read.
func (s *Stream) Channels() int { return int(s.channels.Load()) }

// SampleRate is -1 until the header was read.
func (s *Stream) SampleRate() int { return int(s.sampleRate.Load()) }

func (s *Stream) Format() audio.Format {
	return audio.Format{Channels: s.Channels(), SampleRate: s.SampleRate()}
}

// CurrentSample is how far the decoder has read, in interleaved samples. It
// runs ahead of what is audible by up to the buffered duration.
func (s *Stream) CurrentSample() int64 { return s.currentSample.Load() }

// Seek requests a jump to an interleaved sample index. Only the latest
// request is kept; negative values mean 0. Seeking after the stream ended
// starts it again, looping or not.
//
// Chunks decoded before the call are never returned by NextBuffer after it.
func (s *Stream) Seek(sample int64) {
	s.seekMu.Lock()
	s.seekTarget.Store(max(sample, 0))
	s.epoch.Add(1)
	s.queue.clear()
	s.seekMu.Unlock()

	s.poke()
}

func (s *Stream) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Stream) Looping() bool { return s.looping.Load() }

// SetLooping decides whether a session that runs out restarts from the
// beginning. It does not wake a stream that already ended; Seek does.
func (s *Stream) SetLooping(looping bool) {
	s.looping.Store(looping)
	s.poke()
}

// Playing reports whether a decode session is currently supplying data.
func (s *Stream) Playing() bool { return s.playing.Load() }

func (s *Stream) Closed() bool { return s.closed.Load() }

// Err returns the decode failure, if any.
func (s *Stream) Err() error {
	if f := s.failed.Load(); f != nil {
		return f.err
	}
	return nil
}

// Queued is the number of decoded chunks waiting for NextBuffer.
func (s *Stream) Queued() int { return s.queue.len() }

// NextBuffer uploads the oldest decoded chunk into a recycled or new buffer
// and returns it. ok is false when nothing is ready. After a decode failure
// it always returns an error wrapping ErrStreamFailed.
func (s *Stream) NextBuffer() (buf Buffer, ok bool, err error) {
	if err := s.Err(); err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrStreamFailed, err)
	}
	if s.closed.Load() {
		return 0, false, nil
	}

	chunk, ok := s.queue.pop(s.epoch.Load())
	if !ok {
		return 0, false, nil
	}

	buf, ok = s.pool.take()
	if !ok {
		buf, err = s.backend.NewBuffer()
		if err != nil {
			return 0, false, fmt.Errorf("allocating buffer: %w", err)
		}
		s.pool.track(buf)
	}

	if err := s.backend.Upload(buf, s.Format(), chunk); err != nil {
		s.pool.recycle(buf)
		return 0, false, fmt.Errorf("uploading buffer %d: %w", buf, err)
	}

	s.pool.lend(buf)
	return buf, true, nil
}

// ReturnBuffer gives back a buffer once playback is done with it. Handles
// from elsewhere are rejected with ErrForeignBuffer.
func (s *Stream) ReturnBuffer(buf Buffer) error {
	return s.pool.giveBack(buf)
}

// BufferStats reports created handles, handles out for playback and handles
// ready for reuse.
func (s *Stream) BufferStats() (created, pending, free int) {
	return s.pool.stats()
}

// Close stops decoding and hands every created buffer to Backend.Release.
// It does not wait for the decode goroutine; use Done for that.
func (s *Stream) Close() error {
	s.closed.Store(true)
	s.quitOnce.Do(func() { close(s.quit) })

	// A stream closed before Start never gets a goroutine.
	s.startOnce.Do(func() {
		s.markReady()
		close(s.done)
	})

	s.releaseOnce.Do(func() {
		s.queue.clear()
		bufs := s.pool.release()
		if len(bufs) > 0 {
			s.backend.Release(bufs)
		}
		s.log.Debug("stream closed", "buffers", len(bufs))
	})

	return nil
}

func (s *Stream) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// fail records the first decode error and makes the stream terminal.
func (s *Stream) fail(err error) {
	if s.failed.CompareAndSwap(nil, &failure{err: err}) {
		s.log.Error("audio stream failed", "err", err)
	}
	s.closed.Store(true)
	s.playing.Store(false)
	s.markReady()
}
