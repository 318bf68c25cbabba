// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBufferedDuration is how much audio the decode goroutine keeps
	// ready ahead of the consumer.
	DefaultBufferedDuration = time.Second
	// DefaultBuffers is the number of chunks the buffered duration is split in.
	DefaultBuffers = 8
	// DefaultPollInterval is how long the decode goroutine sleeps when it has
	// nothing to do.
	DefaultPollInterval = 5 * time.Millisecond
)

// Options tune a Stream.
type Options struct {
	BufferedDuration time.Duration
	Buffers          int
	PollInterval     time.Duration
	Logger           *slog.Logger
	ID               uuid.UUID
}

// DefaultOptions returns one second of audio in eight buffers, polled every 5ms.
func DefaultOptions() Options {
	return Options{
		BufferedDuration: DefaultBufferedDuration,
		Buffers:          DefaultBuffers,
		PollInterval:     DefaultPollInterval,
	}
}

// Option changes Options.
type Option func(*Options)

func WithBufferedDuration(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.BufferedDuration = d
		}
	}
}

func WithBuffers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Buffers = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithID sets the identifier used in log records. A random one is used otherwise.
func WithID(id uuid.UUID) Option {
	return func(o *Options) {
		o.ID = id
	}
}

// PerBuffer is the duration of audio in one chunk.
func (o Options) PerBuffer() time.Duration {
	return o.BufferedDuration / time.Duration(o.Buffers)
}
