// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ao

import (
	"context"
	"fmt"

	"code.hybscloud.com/am/event"
	"code.hybscloud.com/am/hsm"
	"code.hybscloud.com/am/pal"
)

// Preemptive runs one platform task per AO; OS-supplied priorities map
// to AO priorities. Handlers for different AOs may run in parallel on
// multicore; per-AO run-to-completion holds because each AO has exactly
// one runner.
type Preemptive struct {
	reg  *Registry
	plat pal.Platform
}

// NewPreemptive builds a preemptive scheduler over plat/pools,
// delivering publishes through router (nil if this system uses no
// pub/sub).
func NewPreemptive(plat pal.Platform, pools *event.Pools, router *Router) *Preemptive {
	p := &Preemptive{plat: plat}
	p.reg = newRegistry(plat, pools, router, p.wake)
	return p
}

func (p *Preemptive) wake(prio int) {
	a := p.reg.at(prio)
	p.plat.Notify(a.taskID)
}

// Registry returns the scheduler's underlying AO table, for Post/Stop/
// pub-sub calls shared with the cooperative back-end.
func (p *Preemptive) Registry() *Registry { return p.reg }

// Start registers a and spawns its task. The task body waits out the
// startup barrier (so the ticker and other user tasks created before
// RunAll cannot observe a half-started AO set), drives init, then loops
// waiting for a notification and draining the queue completely before
// waiting again, until Stop clears its registry slot.
//
// A notification is a coalescing binary semaphore (pal.Host's Notify/
// Wait): a post that finds the queue non-empty never sends a second
// one, since the task is already guaranteed to observe the new event on
// its current wakeup — but only if that wakeup drains the queue down to
// empty before returning to Wait. Dispatching a single event per
// notification would strand every event posted after the first one
// that arrived while the task was already awake.
func (p *Preemptive) Start(name string, a *AO, initial hsm.State) {
	p.reg.register(a)
	a.taskID = p.plat.Create(name, a.prio, func(taskCtx context.Context, id pal.TaskID) {
		a.ctx = taskCtx
		if err := p.plat.WaitAll(taskCtx); err != nil {
			return
		}
		hsm.Ctor(&a.HSM, initial)
		hsm.Init(&a.HSM)
		for p.reg.slotActive(a) {
			if err := p.plat.Wait(taskCtx, id); err != nil {
				return
			}
			for p.reg.slotActive(a) && a.dispatchOne(p.reg.pools) {
			}
		}
	})
}

// Stop tears a down; ctx must be the context a's own task body received
// (a.Context() from inside that task, e.g. a handler it dispatched to
// itself), not a foreign caller's. A mismatched or task-less ctx is a
// fatal contract violation, mirroring the original port's task_id
// assertion. See Registry.Stop for what tearing down does.
func (p *Preemptive) Stop(ctx context.Context, a *AO) {
	id, ok := pal.TaskIDFromContext(ctx)
	if !ok || id != a.taskID {
		p.reg.fatal("ao.Stop", fmt.Sprintf("stop for priority %d called from a foreign task", a.prio))
		return
	}
	p.reg.Stop(a)
}

// RunAll opens the startup barrier, releasing every task blocked in
// WaitAll, then blocks until the last AO has stopped (Registry.running
// reaches zero) or ctx is done. This is the Go-idiomatic stand-in for
// "the main task is notified and run_all returns": a one-shot done
// channel closed by Registry.Stop rather than a platform notification
// primitive aimed at one specific task.
func (p *Preemptive) RunAll(ctx context.Context) error {
	p.plat.ReleaseAll()
	select {
	case <-p.reg.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
