// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ao

import (
	"code.hybscloud.com/am/event"
	"code.hybscloud.com/am/hsm"
	"code.hybscloud.com/am/pal"
)

// Cooperative is the single-threaded run-all scheduler: one 64-bit ready
// bitmap, most-significant-bit-first selection, at most one handler
// running system-wide.
type Cooperative struct {
	reg *Registry
}

// NewCooperative builds a cooperative scheduler over plat/pools,
// delivering publishes through router (nil if this system uses no
// pub/sub).
func NewCooperative(plat pal.Platform, pools *event.Pools, router *Router) *Cooperative {
	c := &Cooperative{}
	c.reg = newRegistry(plat, pools, router, c.wake)
	return c
}

func (c *Cooperative) wake(prio int) {
	c.reg.ready.Set(prio)
}

// Registry returns the scheduler's underlying AO table, for Post/Stop/
// pub-sub calls shared with the preemptive back-end.
func (c *Cooperative) Registry() *Registry { return c.reg }

// Start registers a at its priority slot and drives its initial HSM
// transition inline — the cooperative back-end always runs init
// synchronously from the caller's stack.
func (c *Cooperative) Start(a *AO, initial hsm.State) {
	c.reg.register(a)
	hsm.Ctor(&a.HSM, initial)
	hsm.Init(&a.HSM)
}

// Stop tears a down; see Registry.Stop.
func (c *Cooperative) Stop(a *AO) {
	c.reg.Stop(a)
}

// RunAll dispatches exactly one event from the highest-priority ready
// AO. If no AO is ready it calls the platform's idle hook (inside the
// critical section, so the hook may atomically arm a low-power sleep)
// and returns false. It returns true when an event was dispatched.
func (c *Cooperative) RunAll() bool {
	c.reg.plat.Enter()
	prio := c.reg.ready.MSB()
	if prio < 0 {
		c.reg.plat.OnIdle()
		c.reg.plat.Exit()
		return false
	}
	c.reg.plat.Exit()

	a := c.reg.at(prio)
	dispatched := a.dispatchOne(c.reg.pools)

	c.reg.plat.Enter()
	if a.queue.IsEmpty() {
		c.reg.ready.Clear(prio)
	}
	c.reg.plat.Exit()

	return dispatched
}
