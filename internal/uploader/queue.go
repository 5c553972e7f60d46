package uploader

import (
	"sync"
	"time"
)

// itemQueue is a FIFO seeded once at run start. Workers pop items
// exclusively, mark them done after reaching a terminal state, and the run
// joins on full completion. Because the queue is never refilled, an
// exhausted queue is terminal and Pop returns immediately.
type itemQueue struct {
	mu          sync.Mutex
	items       []*Item
	next        int
	outstanding int
	done        chan struct{}
	closed      bool
}

func newItemQueue(items []*Item) *itemQueue {
	q := &itemQueue{items: items, done: make(chan struct{})}
	if len(items) == 0 {
		q.closeDone()
	}
	return q
}

// Pop returns the next pending item and its stable index. ok is false once
// the queue is exhausted or cleared.
func (q *itemQueue) Pop() (int, *Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.items) {
		return 0, nil, false
	}
	index := q.next
	item := q.items[index]
	q.next++
	q.outstanding++
	return index, item, true
}

// MarkDone records that a popped item reached a terminal state.
func (q *itemQueue) MarkDone() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.outstanding > 0 {
		q.outstanding--
	}
	q.maybeClose()
}

// Clear drops all not-yet-popped items. Returns how many were dropped.
func (q *itemQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := len(q.items) - q.next
	q.next = len(q.items)
	q.maybeClose()
	return dropped
}

// Remaining reports how many items have not been popped yet.
func (q *itemQueue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.next
}

// Join blocks until every popped item has been marked done and no items
// remain, or the timeout elapses. It reports whether the queue fully
// drained.
func (q *itemQueue) Join(timeout time.Duration) bool {
	select {
	case <-q.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (q *itemQueue) maybeClose() {
	if q.next >= len(q.items) && q.outstanding == 0 {
		q.closeDone()
	}
}

func (q *itemQueue) closeDone() {
	if !q.closed {
		q.closed = true
		close(q.done)
	}
}
