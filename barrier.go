package hgemm

import (
	"sync"
)

// barrier is a reusable rendezvous for the warps of one block. A Wait
// establishes a total order between every staging write issued before it and
// every staging read issued after it; it is the only ordering primitive the
// pipeline uses.
type barrier struct {
	mu    sync.Mutex
	cond  *sync.Cond
	n     int
	count int
	phase int
}

func newBarrier(n int) *barrier {
	b := &barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until all n participants have arrived, then releases them
// together. The barrier resets itself for the next phase.
func (b *barrier) Wait() {
	b.mu.Lock()
	b.count++
	if b.count == b.n {
		b.count = 0
		b.phase++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}
	phase := b.phase
	for b.phase == phase {
		b.cond.Wait()
	}
	b.mu.Unlock()
}
