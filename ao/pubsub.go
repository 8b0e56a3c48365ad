// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ao

import (
	"fmt"

	"code.hybscloud.com/am"
	"code.hybscloud.com/am/bitset"
	"code.hybscloud.com/am/event"
)

// Router holds one subscriber bitmap per event id in [base, base+n),
// each bit position corresponding to an AO's priority/registry slot. A
// Router is wired into exactly one Registry (via NewCooperative/
// NewPreemptive) and must be shared across every AO that publishes or
// subscribes within that system.
type Router struct {
	base int32
	subs []bitset.Set
}

// NewRouter installs a table of n subscriber bitmaps for event ids
// starting at base (typically event.UserBase, but any caller-chosen
// split between posted-only and published ids is allowed).
func NewRouter(base int32, n int) *Router {
	return &Router{base: base, subs: make([]bitset.Set, n)}
}

func (r *Router) slot(id int32) *bitset.Set {
	i := int(id - r.base)
	if i < 0 || i >= len(r.subs) {
		panic(&am.Fault{Op: "ao.Router", Msg: fmt.Sprintf("event id %d outside the registered subscribe range", id)})
	}
	return &r.subs[i]
}

// Subscribe flips on prio's bit in id's subscriber bitmap. Idempotent.
func (r *Router) Subscribe(prio int, id int32) { r.slot(id).Set(prio) }

// Unsubscribe flips off prio's bit in id's subscriber bitmap. Idempotent.
func (r *Router) Unsubscribe(prio int, id int32) { r.slot(id).Clear(prio) }

// UnsubscribeAll clears prio's bit across every registered event id,
// used by Registry.Stop.
func (r *Router) UnsubscribeAll(prio int) {
	for i := range r.subs {
		r.subs[i].Clear(prio)
	}
}

// PublishExcludeX delivers e to every subscriber of e's id except the
// AO at priority exclude (pass -1 to exclude none), visiting subscribers
// highest-priority first so the immediate handoff cannot invert
// priority. It returns true iff every eligible subscriber accepted the
// event.
//
// e is held across the whole delivery round by one extra reference
// taken up front and released by one trailing Free once delivery is
// complete — including when there were no eligible subscribers at all,
// which frees e exactly as a plain Free would.
func (r *Registry) PublishExcludeX(e *event.Event, exclude int, margin int) bool {
	bm := r.router.slot(e.ID())

	r.pools.Hold(e)

	ok := true
	bm.Descend(func(prio int) bool {
		if prio == exclude {
			return true
		}
		a := r.at(prio)
		rc := a.postTry(r.pools, e, margin)
		switch rc {
		case am.RCOKQueueWasEmpty:
			if r.wake != nil {
				r.wake(prio)
			}
		case am.RCErr:
			ok = false
			if margin == 0 {
				return false
			}
		}
		return true
	})

	r.pools.Free(e)
	return ok
}

// Publish is PublishExcludeX with no exclusion.
func (r *Registry) Publish(e *event.Event, margin int) bool {
	return r.PublishExcludeX(e, -1, margin)
}
