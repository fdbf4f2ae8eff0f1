// SPDX-License-Identifier: MIT

package bnb

import (
	"container/heap"
	"sync"
)

// frontierItem is a branched node waiting for expansion.
type frontierItem struct {
	n   node
	seq uint64
}

// itemHeap orders by bound ascending, then depth descending (dive toward
// leaves among equal bounds), then insertion order.
type itemHeap []frontierItem

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].n.bound != h[j].n.bound {
		return h[i].n.bound < h[j].n.bound
	}
	if di, dj := h[i].n.depth(), h[j].n.depth(); di != dj {
		return di > dj
	}

	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(frontierItem)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = frontierItem{}
	*h = old[:n-1]

	return it
}

// frontier is the shared best-first queue of the Parallel strategy.
//
// Termination: the search is drained when the heap is empty and no popped
// node is still being expanded (inFlight == 0). Workers push children before
// calling done, so an idle worker never observes a false drain.
type frontier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    itemHeap
	seq      uint64
	inFlight int
	closed   bool
	drained  bool
	stats    *counters
}

func newFrontier(stats *counters) *frontier {
	f := &frontier{stats: stats}
	f.cond = sync.NewCond(&f.mu)

	return f
}

func (f *frontier) push(n node) {
	f.mu.Lock()
	f.seq++
	heap.Push(&f.items, frontierItem{n: n, seq: f.seq})
	size := len(f.items)
	f.mu.Unlock()

	frontierSize.Set(float64(size))
	storeMax(&f.stats.maxFrontier, int64(size))
	f.cond.Signal()
}

// pop blocks until a node is available, the search is drained, or the
// frontier is closed. ok=false means the caller should stop.
func (f *frontier) pop() (node, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for !f.closed && len(f.items) == 0 && f.inFlight > 0 {
		f.cond.Wait()
	}
	if f.closed {
		return node{}, false
	}
	if len(f.items) == 0 {
		f.drained = true
		f.closed = true
		f.cond.Broadcast()

		return node{}, false
	}
	it := heap.Pop(&f.items).(frontierItem)
	f.inFlight++
	frontierSize.Set(float64(len(f.items)))

	return it.n, true
}

// done marks one popped node as fully expanded.
func (f *frontier) done() {
	f.mu.Lock()
	f.inFlight--
	wake := f.inFlight == 0 && len(f.items) == 0
	f.mu.Unlock()
	if wake {
		f.cond.Broadcast()
	}
}

// close stops every worker at its next pop.
func (f *frontier) close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.cond.Broadcast()
}

// isDrained reports whether the search ran out of nodes (as opposed to being closed).
func (f *frontier) isDrained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.drained
}

// size returns the number of queued nodes.
func (f *frontier) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.items)
}
