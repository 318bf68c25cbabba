// SPDX-License-Identifier: EPL-2.0

package memory

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ik5/audstream/stream"
)

// State of a Voice.
type State int

const (
	Initial State = iota
	Playing
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Initial:
		return "initial"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Voice plays a queue of backend buffers in order, like a hardware source.
// Buffers that were fully rendered move to the processed list until Unqueue
// collects them. A playing voice that runs out of buffers stops.
//
// Render and Read are meant for the audio goroutine; everything else for the
// consumer. All methods are goroutine-safe.
type Voice struct {
	b *Backend

	mu        sync.Mutex
	queue     []stream.Buffer
	processed []stream.Buffer
	offset    int
	state     State
	scratch   []int16
}

func (b *Backend) NewVoice() *Voice {
	return &Voice{b: b}
}

// Queue appends buf to the play queue.
func (v *Voice) Queue(buf stream.Buffer) error {
	v.b.mu.Lock()
	_, ok := v.b.buffers[buf]
	v.b.mu.Unlock()
	if !ok {
		return fmt.Errorf("buffer %d: %w", buf, ErrUnknownBuffer)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.queue = append(v.queue, buf)
	return nil
}

// Queued counts buffers still attached to the voice, processed ones included.
func (v *Voice) Queued() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return len(v.queue) + len(v.processed)
}

// Unqueue detaches the oldest processed buffer.
func (v *Voice) Unqueue() (stream.Buffer, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.processed) == 0 {
		return 0, false
	}

	buf := v.processed[0]
	v.processed = v.processed[1:]
	return buf, true
}

func (v *Voice) Play() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state = Playing
}

func (v *Voice) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == Playing {
		v.state = Paused
	}
}

// Stop marks every queued buffer processed.
func (v *Voice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state = Stopped
	v.processed = append(v.processed, v.queue...)
	v.queue = nil
	v.offset = 0
}

func (v *Voice) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.state
}

func (v *Voice) Playing() bool { return v.State() == Playing }
func (v *Voice) Paused() bool  { return v.State() == Paused }
func (v *Voice) Stopped() bool { return v.State() == Stopped }

// Render fills dst with queued audio and pads with silence. It returns how
// many samples came from buffers.
func (v *Voice) Render(dst []int16) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.render(dst)
}

func (v *Voice) render(dst []int16) int {
	n := 0
	for v.state == Playing && n < len(dst) {
		if len(v.queue) == 0 {
			v.state = Stopped
			break
		}

		data, _, _ := v.b.Data(v.queue[0])
		copied := copy(dst[n:], data[min(v.offset, len(data)):])
		n += copied
		v.offset += copied

		if v.offset >= len(data) {
			v.processed = append(v.processed, v.queue[0])
			v.queue = v.queue[1:]
			v.offset = 0
		}
	}

	clear(dst[n:])
	return n
}

// Read renders 16-bit little-endian PCM into p, for players that pull bytes.
// It always fills whole samples and never returns an error.
func (v *Voice) Read(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	samples := len(p) / 2
	if cap(v.scratch) < samples {
		v.scratch = make([]int16, samples)
	}
	v.scratch = v.scratch[:samples]

	v.render(v.scratch)
	for i, s := range v.scratch {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
	}
	return samples * 2, nil
}
