// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ao implements the active-object runtime: a priority-indexed
// registry of AOs, each owning an HSM and a private event queue, run by
// either a single-threaded cooperative scheduler or a one-task-per-AO
// preemptive binding over pal.Tasks. Both back-ends share the same AO
// type and Registry.
package ao

import (
	"context"
	"fmt"

	"code.hybscloud.com/am"
	"code.hybscloud.com/am/bitset"
	"code.hybscloud.com/am/event"
	"code.hybscloud.com/am/hsm"
	"code.hybscloud.com/am/pal"
)

// MaxAOs is the largest number of active objects a Registry can hold,
// fixed by the ready bitmap's width.
const MaxAOs = bitset.Max + 1

// AO is one active object: an HSM instance, a priority (also its slot
// index in the owning Registry), and a private inbox. The zero value is
// not usable; build one with New and register it with Cooperative.Start
// or Preemptive.Start.
type AO struct {
	HSM    hsm.HSM
	prio   int
	queue  *event.Queue
	taskID pal.TaskID
	ctx    context.Context
}

// New allocates an AO at priority prio with a queue backed by buf (sized
// in event pointers). prio must be in [0, MaxAOs).
func New(prio int, buf []*event.Event) *AO {
	if prio < 0 || prio >= MaxAOs {
		panic(&am.Fault{Op: "ao.New", Msg: fmt.Sprintf("priority %d out of range [0,%d)", prio, MaxAOs)})
	}
	return &AO{prio: prio, queue: event.NewQueue(buf)}
}

// Prio returns the AO's priority / registry slot.
func (a *AO) Prio() int { return a.prio }

// Context returns the context the AO's own task is running under, set
// by the preemptive back-end's Start just before the task body begins.
// It is nil for an AO run under the cooperative back-end, which has no
// per-task context. Code that must call Preemptive.Stop from within the
// AO's own task (e.g. a shutdown handler dispatched to this AO) should
// pass this along, not a foreign ctx.
func (a *AO) Context() context.Context { return a.ctx }

// Queue returns the AO's private inbox.
func (a *AO) Queue() *event.Queue { return a.queue }

// dispatchOne pops one event from the AO's queue and runs it through the
// HSM, freeing it afterward. It reports whether an event was dispatched.
func (a *AO) dispatchOne(pools *event.Pools) bool {
	return pools.PopFront(a.queue, func(e *event.Event) {
		hsm.Dispatch(&a.HSM, e)
	})
}

// Post delivers e to this AO's own queue, identical in contract to a
// post_fifo from any producer: FIFO per-producer ordering, margin-gated
// backpressure, and RC_OK_QUEUE_WAS_EMPTY when the caller should wake
// the runtime.
func (a *AO) Post(pools *event.Pools, e *event.Event, margin int) am.RC {
	return pools.PushBackX(a.queue, e, margin)
}

// PostFront is Post's priority counterpart, used for urgent redelivery
// (e.g. a timer's own owner post).
func (a *AO) PostFront(pools *event.Pools, e *event.Event, margin int) am.RC {
	return pools.PushFrontX(a.queue, e, margin)
}

// postTry is Post without free-on-reject, used by Registry.PublishExcludeX
// so one subscriber's rejection does not consume the refcount Hold is
// keeping alive for the rest of the delivery round.
func (a *AO) postTry(pools *event.Pools, e *event.Event, margin int) am.RC {
	return pools.TryPushBack(a.queue, e, margin)
}

