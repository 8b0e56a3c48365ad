// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queue provides a bounded, fixed-capacity array queue: plain
// modulo-ring indexing guarded by the caller's critical section, not a
// lock-free algorithm. Every active object's event queue (am/event,
// am/ao) is one of these, constructed in place over a caller-supplied
// backing array; am/timer's per-domain lists are intrusive linked lists
// instead, since timers need O(1) removal from the middle.
//
// Queue is not safe for concurrent use on its own — callers that share
// a Queue across goroutines (every AO's queue does: one or more posting
// producers, one dispatching consumer) must bracket every call with a
// pal.CritSection, exactly as am/event's push/pop helpers do.
package queue

import "code.hybscloud.com/am"

// Queue is a bounded FIFO over a caller-supplied backing array. The
// zero value is not usable; construct with New.
type Queue[T any] struct {
	buf   []T
	head  int // index of the oldest element
	count int
}

// New constructs a Queue using buf as backing storage. buf's length is
// the queue's capacity; New does not allocate.
func New[T any](buf []T) *Queue[T] {
	return &Queue[T]{buf: buf}
}

// Cap returns the queue's fixed capacity.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}

// Len returns the number of elements currently queued.
func (q *Queue[T]) Len() int {
	return q.count
}

// Room returns the number of additional elements that can be pushed
// before the queue is full — the quantity am/event's margin checks
// compare against.
func (q *Queue[T]) Room() int {
	return len(q.buf) - q.count
}

// IsEmpty reports whether the queue holds no elements.
func (q *Queue[T]) IsEmpty() bool {
	return q.count == 0
}

// IsFull reports whether the queue is at capacity.
func (q *Queue[T]) IsFull() bool {
	return q.count == len(q.buf)
}

// PushBack appends v at the tail. Returns am.ErrWouldBlock if the queue
// is full.
func (q *Queue[T]) PushBack(v T) error {
	if q.IsFull() {
		return am.ErrWouldBlock
	}
	idx := (q.head + q.count) % len(q.buf)
	q.buf[idx] = v
	q.count++
	return nil
}

// PushFront prepends v at the head, so it is the next element popped.
// Used to re-queue an event ahead of what is already waiting (LIFO
// priority re-insertion). Returns am.ErrWouldBlock if the queue is full.
func (q *Queue[T]) PushFront(v T) error {
	if q.IsFull() {
		return am.ErrWouldBlock
	}
	q.head = (q.head - 1 + len(q.buf)) % len(q.buf)
	q.buf[q.head] = v
	q.count++
	return nil
}

// PopFront removes and returns the head element. Returns
// am.ErrWouldBlock (zero value, error) if the queue is empty.
func (q *Queue[T]) PopFront() (T, error) {
	var zero T
	if q.IsEmpty() {
		return zero, am.ErrWouldBlock
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return v, nil
}

// PeekFront returns the head element without removing it.
func (q *Queue[T]) PeekFront() (T, bool) {
	var zero T
	if q.IsEmpty() {
		return zero, false
	}
	return q.buf[q.head], true
}

// Drain removes every element, calling fn for each from head to tail,
// leaving the queue empty.
func (q *Queue[T]) Drain(fn func(T)) {
	for {
		v, err := q.PopFront()
		if err != nil {
			return
		}
		fn(v)
	}
}
