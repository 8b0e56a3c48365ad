// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ao

import (
	"fmt"
	"sync"

	"code.hybscloud.com/am"
	"code.hybscloud.com/am/bitset"
	"code.hybscloud.com/am/event"
	"code.hybscloud.com/am/pal"
)

// Registry is the shared priority-indexed AO table: one slot per
// priority, a ready bitmap (consulted by the cooperative back-end
// only), and the running count the preemptive back-end's RunAll waits
// on to reach zero. Cooperative and Preemptive each own one Registry
// and supply their own wake callback.
type Registry struct {
	plat   pal.Platform
	pools  *event.Pools
	router *Router

	slots   [MaxAOs]*AO
	ready   bitset.Set
	running int
	wake    func(prio int)

	doneCh   chan struct{}
	doneOnce sync.Once
}

func newRegistry(plat pal.Platform, pools *event.Pools, router *Router, wake func(int)) *Registry {
	return &Registry{
		plat:   plat,
		pools:  pools,
		router: router,
		wake:   wake,
		doneCh: make(chan struct{}),
	}
}

// register installs a at its priority slot, which must be vacant, and
// bumps the running count.
func (r *Registry) register(a *AO) {
	r.plat.Enter()
	if r.slots[a.prio] != nil {
		r.plat.Exit()
		r.fatal("ao.Start", fmt.Sprintf("priority %d already registered", a.prio))
		return
	}
	r.slots[a.prio] = a
	r.running++
	r.plat.Exit()
}

// Stop tears a down: unsubscribes it from every event, drains and frees
// its queue, clears its ready bit and registry slot, and decrements the
// running count. Must be called from a's own task/scheduler slot — the
// cooperative back-end has no concept of "foreign task" to check
// (RunAll itself is the only caller of any handler), but Preemptive.Stop
// enforces it before ever reaching here.
func (r *Registry) Stop(a *AO) {
	if r.router != nil {
		r.router.UnsubscribeAll(a.prio)
	}

	r.plat.Enter()
	if r.slots[a.prio] != a {
		r.plat.Exit()
		r.fatal("ao.Stop", fmt.Sprintf("stop called for a priority %d slot it does not own", a.prio))
		return
	}
	for {
		e, err := a.queue.PopFront()
		if err != nil {
			break
		}
		r.pools.Free(e)
	}
	r.ready.Clear(a.prio)
	r.slots[a.prio] = nil
	r.running--
	running := r.running
	r.plat.Exit()

	if running == 0 {
		r.doneOnce.Do(func() { close(r.doneCh) })
	}
}

// Running reports the number of AOs currently registered.
func (r *Registry) Running() int {
	r.plat.Enter()
	defer r.plat.Exit()
	return r.running
}

// Post delivers e to the AO at prio's queue and wakes it (backend-
// specific) if the queue was empty before the push.
func (r *Registry) Post(prio int, e *event.Event, margin int) am.RC {
	a := r.at(prio)
	rc := a.Post(r.pools, e, margin)
	if rc == am.RCOKQueueWasEmpty && r.wake != nil {
		r.wake(prio)
	}
	return rc
}

func (r *Registry) at(prio int) *AO {
	r.plat.Enter()
	a := r.slots[prio]
	r.plat.Exit()
	if a == nil {
		r.fatal("ao.Post", fmt.Sprintf("no AO registered at priority %d", prio))
	}
	return a
}

func (r *Registry) slotActive(a *AO) bool {
	r.plat.Enter()
	defer r.plat.Exit()
	return r.slots[a.prio] == a
}

func (r *Registry) fatal(op, msg string) {
	r.plat.Printf("FATAL[%s]: %s\n", op, msg)
	r.plat.Flush()
	panic(&am.Fault{Op: op, Msg: msg})
}
