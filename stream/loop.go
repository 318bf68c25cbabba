// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/decode"
)

// worker is the decode goroutine's private state.
type worker struct {
	s        *Stream
	cur      *decode.Session
	format   audio.Format
	informed bool
	timer    *time.Timer
	// ended is set when a session ran out without looping.
	ended    bool
	// epoch is the seek epoch the session position belongs to.
	epoch    int64
}

func (s *Stream) run() {
	w := &worker{s: s}

	defer close(s.done)
	defer s.markReady()
	defer w.closeSession()
	defer func() {
		if r := recover(); r != nil {
			s.fail(fmt.Errorf("decoder panic: %v", r))
		}
	}()

	if err := w.loop(); err != nil {
		s.fail(err)
	}
	s.playing.Store(false)
}

func (w *worker) loop() error {
	s := w.s

	for !s.closed.Load() {
		s.seekMu.Lock()
		target := s.seekTarget.Swap(noSeek)
		w.epoch = s.epoch.Load()
		s.seekMu.Unlock()

		if w.cur == nil {
			// An ended stream stays idle until a seek, even when looping
			// was turned on after it ended.
			if w.ended && target < 0 {
				s.playing.Store(false)
				w.sleep()
				continue
			}

			restart := w.informed
			w.ended = false
			if err := w.open(); err != nil {
				return err
			}
			if restart && target < 0 {
				s.currentSample.Store(0)
				s.log.Debug("looping")
			}
		}

		if target >= 0 {
			ended, err := w.seek(target)
			if err != nil {
				return err
			}
			if ended {
				w.endSession()
				continue
			}
		}

		ended, err := w.fill()
		if err != nil {
			return err
		}
		if ended {
			w.endSession()
			continue
		}

		if s.queue.len() >= s.opts.Buffers {
			w.sleep()
		}
	}

	return nil
}

// open starts a new session on a fresh reader. The first one publishes the
// stream format; later ones must match it.
func (w *worker) open() error {
	s := w.s

	r, err := s.factory.NewReader()
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}

	dec, err := s.codec.NewDecoder()
	if err != nil {
		r.Close()
		return fmt.Errorf("creating %s decoder: %w", s.codec.Name(), err)
	}

	sess := decode.NewSession(r, dec)
	if err := sess.Start(); err != nil {
		sess.Close()
		return err
	}

	f := sess.Format()
	if !w.informed {
		w.format = f
		w.informed = true
		s.channels.Store(int32(f.Channels))
		s.sampleRate.Store(int32(f.SampleRate))
		s.markReady()
		s.log.Debug("stream ready", "channels", f.Channels, "sample_rate", f.SampleRate)
	} else if f != w.format {
		sess.Close()
		return fmt.Errorf("%w: %+v, was %+v", ErrFormatChanged, f, w.format)
	}

	w.cur = sess
	s.playing.Store(true)
	return nil
}

// seek moves the live session to target. Forward targets are skipped to;
// anything before the read cursor needs a new session read from the start.
// ended is true when the source ran out before target.
func (w *worker) seek(target int64) (ended bool, err error) {
	s := w.s

	dropped := s.queue.clear()
	target -= target % int64(w.format.Channels)

	read := w.cur.SamplesRead()
	strategy := "skip"
	if target < read {
		strategy = "restart"
		w.closeSession()
		if err := w.open(); err != nil {
			return false, err
		}
		read = 0
	}

	_, err = w.cur.Skip(int(target - read))
	s.currentSample.Store(w.cur.SamplesRead())
	s.log.Debug("seek", "target", target, "strategy", strategy, "dropped", dropped)

	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

// fill decodes chunks until the queue holds the target number of buffers.
// It stops early when the stream is closed or a seek is waiting.
func (w *worker) fill() (ended bool, err error) {
	s := w.s
	size := w.chunkSize()

	for s.queue.len() < s.opts.Buffers {
		if s.closed.Load() || s.seekTarget.Load() >= 0 {
			return false, nil
		}

		chunk, err := w.cur.ReadSamples(size)
		s.currentSample.Store(w.cur.SamplesRead())
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		if err != nil {
			return false, err
		}

		// Chunks read before a seek landed are stale; pop drops them.
		s.queue.push(w.epoch, chunk)
	}

	return false, nil
}

// chunkSize is one buffer worth of interleaved samples, in whole frames.
func (w *worker) chunkSize() int {
	perBuffer := w.s.opts.PerBuffer().Seconds()
	frames := max(int(perBuffer*float64(w.format.SampleRate)), 1)
	return frames * w.format.Channels
}

func (w *worker) endSession() {
	empty := w.cur.SamplesRead() == 0
	w.closeSession()

	w.ended = !w.s.looping.Load()
	if w.ended {
		w.s.log.Debug("end of stream")
	}
	// A source with no samples would otherwise reopen in a tight loop.
	if empty {
		w.sleep()
	}
}

func (w *worker) closeSession() {
	if w.cur == nil {
		return
	}

	if err := w.cur.Close(); err != nil {
		w.s.log.Warn("closing decode session", "err", err)
	}
	w.cur = nil
}

// sleep waits for the poll interval, a wake-up or Close.
func (w *worker) sleep() {
	d := w.s.opts.PollInterval
	if w.timer == nil {
		w.timer = time.NewTimer(d)
	} else {
		w.timer.Reset(d)
	}

	select {
	case <-w.timer.C:
	case <-w.s.wake:
	case <-w.s.quit:
	}
}
