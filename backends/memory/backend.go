// SPDX-License-Identifier: EPL-2.0

package memory

import (
	"fmt"
	"sync"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/stream"
)

type buffer struct {
	format audio.Format
	data   []int16
}

// Backend keeps playback buffers in memory. Teardown requested through
// Release is queued and only runs when the owner calls RunPending, the way a
// hardware context is only touched from its own goroutine.
type Backend struct {
	mu      sync.Mutex
	next    stream.Buffer
	buffers map[stream.Buffer]*buffer
	tasks   []func()
	uploads int
}

func New() *Backend {
	return &Backend{
		buffers: make(map[stream.Buffer]*buffer),
	}
}

func (b *Backend) NewBuffer() (stream.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	b.buffers[b.next] = &buffer{}
	return b.next, nil
}

func (b *Backend) Upload(buf stream.Buffer, format audio.Format, samples []int16) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("buffer %d: %w", buf, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	dst, ok := b.buffers[buf]
	if !ok {
		return fmt.Errorf("buffer %d: %w", buf, ErrUnknownBuffer)
	}

	dst.format = format
	dst.data = append(dst.data[:0], samples...)
	b.uploads++
	return nil
}

// Release queues deletion of bufs for the next RunPending.
func (b *Backend) Release(bufs []stream.Buffer) {
	owned := append([]stream.Buffer(nil), bufs...)

	b.Post(func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		for _, buf := range owned {
			delete(b.buffers, buf)
		}
	})
}

// Post queues fn to run on the owning goroutine.
func (b *Backend) Post(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tasks = append(b.tasks, fn)
}

// RunPending runs queued tasks on the calling goroutine and returns how many ran.
func (b *Backend) RunPending() int {
	b.mu.Lock()
	tasks := b.tasks
	b.tasks = nil
	b.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}

// Live counts buffers that have not been torn down.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.buffers)
}

// Uploads counts successful Upload calls.
func (b *Backend) Uploads() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.uploads
}

// Data returns a copy of what was last uploaded into buf.
func (b *Backend) Data(buf stream.Buffer) ([]int16, audio.Format, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	src, ok := b.buffers[buf]
	if !ok {
		return nil, audio.Format{}, false
	}
	return append([]int16(nil), src.data...), src.format, true
}
