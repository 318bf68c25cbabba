// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"fmt"
	"sync"
)

// chunk is decoded PCM tagged with the seek epoch it was read in.
type chunk struct {
	epoch   int64
	samples []int16
}

// chunkQueue is the FIFO between the decode goroutine and the consumer.
type chunkQueue struct {
	mu     sync.Mutex
	chunks []chunk
}

func (q *chunkQueue) push(epoch int64, samples []int16) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.chunks = append(q.chunks, chunk{epoch: epoch, samples: samples})
}

// pop returns the oldest chunk read in epoch. Older chunks are dropped.
func (q *chunkQueue) pop(epoch int64) ([]int16, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.chunks) > 0 {
		c := q.chunks[0]
		q.chunks[0] = chunk{}
		q.chunks = q.chunks[1:]
		if c.epoch == epoch {
			return c.samples, true
		}
	}
	return nil, false
}

func (q *chunkQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.chunks)
}

// clear drops everything queued and returns how many chunks were dropped.
func (q *chunkQueue) clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.chunks)
	q.chunks = nil
	return n
}

// bufferPool tracks handle ownership. A created handle is either awaiting
// return (handed out by NextBuffer) or free for reuse, never both.
type bufferPool struct {
	mu       sync.Mutex
	created  map[Buffer]struct{}
	pending  map[Buffer]struct{}
	free     []Buffer
	released bool
}

func newBufferPool() *bufferPool {
	return &bufferPool{
		created: make(map[Buffer]struct{}),
		pending: make(map[Buffer]struct{}),
	}
}

// take pops a recycled handle.
func (p *bufferPool) take() (Buffer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return 0, false
	}

	b := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return b, true
}

func (p *bufferPool) track(b Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.created[b] = struct{}{}
}

func (p *bufferPool) lend(b Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return
	}
	p.pending[b] = struct{}{}
}

// recycle puts a handle that never left the stream back on the free list.
func (p *bufferPool) recycle(b Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return
	}
	p.free = append(p.free, b)
}

func (p *bufferPool) giveBack(b Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.created[b]; !ok {
		return fmt.Errorf("buffer %d: %w", b, ErrForeignBuffer)
	}

	if _, ok := p.pending[b]; ok {
		delete(p.pending, b)
		p.free = append(p.free, b)
	}
	return nil
}

// release forgets pending and free handles and returns every handle created.
func (p *bufferPool) release() []Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.released = true
	clear(p.pending)
	p.free = nil

	bufs := make([]Buffer, 0, len(p.created))
	for b := range p.created {
		bufs = append(bufs, b)
	}
	return bufs
}

func (p *bufferPool) stats() (created, pending, free int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.created), len(p.pending), len(p.free)
}
