// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package event

import (
	"code.hybscloud.com/am"
	"code.hybscloud.com/am/queue"
)

// Queue is the bounded pointer queue every active object's inbox is
// built from.
type Queue = queue.Queue[*Event]

// NewQueue constructs an event Queue over a caller-provided backing
// array, sized in event pointers.
func NewQueue(buf []*Event) *Queue {
	return queue.New[*Event](buf)
}

// PushBackX delivers e to the tail of q under the platform's critical
// section. If q's free slots are at or below margin, e is freed instead
// (balancing whatever reference the caller expected this push to take)
// and am.RCErr is returned. Otherwise the refcount is incremented (a
// no-op for a static event) and e is pushed; the result distinguishes
// am.RCOKQueueWasEmpty so callers can wake a sleeping consumer.
func (p *Pools) PushBackX(q *Queue, e *Event, margin int) am.RC {
	p.plat.Enter()
	defer p.plat.Exit()
	wasEmpty := q.IsEmpty()
	if q.Room() <= margin {
		p.freeLocked(e)
		return am.RCErr
	}
	e.incRef()
	_ = q.PushBack(e)
	if wasEmpty {
		return am.RCOKQueueWasEmpty
	}
	return am.RCOK
}

// TryPushBack is PushBackX's fan-out counterpart: on rejection it leaves
// e's refcount untouched instead of freeing it. PushBackX's free-on-reject
// behavior is correct for a single-destination post (the event has
// nowhere else to go, so it must be reclaimed immediately); a multi-
// destination publish instead holds one extra reference for the whole
// delivery round and reclaims once at the end, so an individual
// subscriber's rejection must not prematurely decrement — see
// am/ao.Registry.PublishExcludeX.
func (p *Pools) TryPushBack(q *Queue, e *Event, margin int) am.RC {
	p.plat.Enter()
	defer p.plat.Exit()
	wasEmpty := q.IsEmpty()
	if q.Room() <= margin {
		return am.RCErr
	}
	e.incRef()
	_ = q.PushBack(e)
	if wasEmpty {
		return am.RCOKQueueWasEmpty
	}
	return am.RCOK
}

// PushFrontX is PushBackX's LIFO counterpart, used to re-queue an event
// ahead of whatever is already waiting.
func (p *Pools) PushFrontX(q *Queue, e *Event, margin int) am.RC {
	p.plat.Enter()
	defer p.plat.Exit()
	wasEmpty := q.IsEmpty()
	if q.Room() <= margin {
		p.freeLocked(e)
		return am.RCErr
	}
	e.incRef()
	_ = q.PushFront(e)
	if wasEmpty {
		return am.RCOKQueueWasEmpty
	}
	return am.RCOK
}

// PopFront pops one event from q under the critical section, invokes cb
// with it outside the section, verifies cb did not change the event's
// id (the common allocated-but-never-queued misuse this detects), and
// frees it. It reports false if q was empty.
func (p *Pools) PopFront(q *Queue, cb func(*Event)) bool {
	p.plat.Enter()
	e, err := q.PopFront()
	p.plat.Exit()
	if err != nil {
		return false
	}

	before := e.ID()
	cb(e)
	if e.ID() != before {
		p.fatal("event.PopFront", "event id changed during dispatch callback")
	}
	p.Free(e)
	return true
}
