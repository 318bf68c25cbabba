// SPDX-License-Identifier: EPL-2.0

package player

import (
	"errors"
	"fmt"
	"time"

	"github.com/ik5/audstream/stream"
)

// Voice is a playback source that consumes a queue of backend buffers, the
// way an OpenAL source does.
type Voice interface {
	Queue(buf stream.Buffer) error
	// Unqueue detaches the oldest buffer that finished playing.
	Unqueue() (stream.Buffer, bool)
	// Queued counts attached buffers, played ones included.
	Queued() int

	Play()
	Pause()
	// Stop marks every queued buffer as played.
	Stop()

	Playing() bool
	Paused() bool
	Stopped() bool
}

// Player drives a Voice from a Stream. Every method must be called from the
// goroutine that owns the playback context, Update included.
type Player struct {
	stream *stream.Stream
	voice  Voice
	active bool
}

func New(s *stream.Stream, v Voice) *Player {
	return &Player{stream: s, voice: v}
}

func (p *Player) Stream() *stream.Stream { return p.stream }

// Play starts the stream, resumes a paused voice or restarts a finished
// stream from the beginning. It does nothing after Stop.
func (p *Player) Play() {
	if p.stream.Closed() {
		return
	}

	switch {
	case !p.stream.Started():
		p.stream.Start()
	case p.voice.Paused():
	case p.active && !p.Finished():
		return
	default:
		p.dropQueued()
		p.stream.Seek(0)
	}

	p.active = true
	p.voice.Play()
}

func (p *Player) Pause() {
	p.active = false
	p.voice.Pause()
}

// Stop halts the voice, gives every buffer back and closes the stream. A
// stopped player cannot be played again.
func (p *Player) Stop() error {
	p.active = false
	p.voice.Stop()
	err := p.returnProcessed()

	return errors.Join(err, p.stream.Close())
}

// Seek moves playback to d from the start. Audio already queued on the voice
// is dropped.
func (p *Player) Seek(d time.Duration) {
	rate := p.stream.SampleRate()
	if rate <= 0 {
		return
	}
	frames := int64(d.Seconds() * float64(rate))

	p.dropQueued()
	p.stream.Seek(frames * int64(p.stream.Channels()))
	if p.active {
		p.voice.Play()
	}
}

// Elapsed is the decode position as a duration. It runs ahead of what is
// audible by up to the buffered duration.
func (p *Player) Elapsed() time.Duration {
	rate, channels := p.stream.SampleRate(), p.stream.Channels()
	if rate <= 0 || channels <= 0 {
		return 0
	}

	frames := p.stream.CurrentSample() / int64(channels)
	return time.Duration(frames) * time.Second / time.Duration(rate)
}

func (p *Player) SetLooping(looping bool) { p.stream.SetLooping(looping) }
func (p *Player) Looping() bool           { return p.stream.Looping() }

// Finished reports whether the stream ran out and the voice played
// everything it was given.
func (p *Player) Finished() bool {
	return p.stream.Started() &&
		!p.stream.Playing() &&
		p.stream.Queued() == 0 &&
		!p.voice.Playing() &&
		!p.voice.Paused()
}

// Update returns played buffers to the stream and tops the voice up to the
// configured buffer count. A voice that ran dry while playing is restarted
// once new buffers arrive. Call it regularly, a few times per buffer.
func (p *Player) Update() error {
	if err := p.returnProcessed(); err != nil {
		return err
	}

	if p.stream.Closed() {
		if err := p.stream.Err(); err != nil {
			return fmt.Errorf("%w: %w", stream.ErrStreamFailed, err)
		}
		return nil
	}

	for p.voice.Queued() < p.stream.Options().Buffers {
		buf, ok, err := p.stream.NextBuffer()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		if err := p.voice.Queue(buf); err != nil {
			_ = p.stream.ReturnBuffer(buf)
			return fmt.Errorf("queueing buffer %d: %w", buf, err)
		}
	}

	if p.active && p.voice.Stopped() && p.voice.Queued() > 0 {
		p.voice.Play()
	}
	return nil
}

// dropQueued stops the voice and gives its buffers back. Buffers the stream
// rejects are logged and forgotten; the seek that follows does not need them.
func (p *Player) dropQueued() {
	p.voice.Stop()
	if err := p.returnProcessed(); err != nil {
		p.stream.Options().Logger.Warn("dropping queued buffers", "stream", p.stream.ID().String(), "err", err)
	}
}

func (p *Player) returnProcessed() error {
	for {
		buf, ok := p.voice.Unqueue()
		if !ok {
			return nil
		}
		if err := p.stream.ReturnBuffer(buf); err != nil {
			return fmt.Errorf("returning buffer %d: %w", buf, err)
		}
	}
}
