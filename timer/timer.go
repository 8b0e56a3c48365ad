// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package timer implements the per-tick-domain timer wheel: each domain
// keeps two intrusive lists, armed and pending-insert, so that arming a
// timer from any context (including an ISR on a bare-metal target) never
// touches the list a concurrent Tick is iterating. A timer is armed in
// ticks or milliseconds, may be re-armed in place, and fires by either
// posting to its owner or publishing, depending on how it was
// constructed.
package timer

import (
	"code.hybscloud.com/am/event"
	"code.hybscloud.com/am/pal"
)

// MaxDomains is the number of independent tick domains the wheel
// supports, fixed by the event header's tick-domain field width.
const MaxDomains = event.MaxTickDomains

// PostFunc delivers e to a single AO, identified by whatever priority/
// slot scheme the embedding runtime uses (am/ao.Registry.Post).
type PostFunc func(owner int, e *event.Event)

// PublishFunc delivers e to every subscriber (am/ao.Registry.Publish).
type PublishFunc func(e *event.Event)

// UpdateFunc is an optional hook called just before a firing timer is
// delivered, outside the critical section, e.g. to refresh payload
// fields for the upcoming delivery.
type UpdateFunc func(t *Timer)

// Timer is a timer's own bookkeeping, separate from the event.Event it
// carries: the event lives in the Go fields event.Event already has
// (id, refcount, pool origin); Timer adds the arm state and tick-domain
// list membership the wheel needs, exactly as am/event keeps the pooled
// header out of the pool block's bytes.
type Timer struct {
	next *Timer // next-pointer intrusive list membership, see timerList

	evt      *event.Event
	domain   int
	hasOwner bool
	owner    int

	shotInTicks   uint64
	intervalTicks uint64
	disarmPending bool
	linked        bool
}

// New constructs a timer that will carry evt, tagging evt with domain.
// If hasOwner, firing posts to owner (an am/ao registry priority);
// otherwise it publishes.
func New(evt *event.Event, domain int, hasOwner bool, owner int) *Timer {
	evt.SetTickDomain(domain)
	return &Timer{evt: evt, domain: domain, hasOwner: hasOwner, owner: owner}
}

// Event returns the event this timer delivers on fire.
func (t *Timer) Event() *event.Event { return t.evt }

// timerList is a singly-linked intrusive list of *Timer, following the
// same next-pointer convention as am/ilist.List but specialized to
// *Timer directly: Go has no portable "container of" from an embedded
// node back to its owning struct without unsafe offset arithmetic (as
// am/pool.Pool uses for raw byte blocks), and a typed next field here is
// simpler than reaching for that for a fixed, non-generic element type.
type timerList struct {
	head, tail *Timer
}

func (l *timerList) isEmpty() bool { return l.head == nil }

func (l *timerList) pushBack(t *Timer) {
	t.next = nil
	if l.tail == nil {
		l.head, l.tail = t, t
		return
	}
	l.tail.next = t
	l.tail = t
}

// appendFrom splices other onto l's tail and empties other, mirroring
// am/ilist.List.Append.
func (l *timerList) appendFrom(other *timerList) {
	if other.isEmpty() {
		return
	}
	if l.tail == nil {
		l.head = other.head
	} else {
		l.tail.next = other.head
	}
	l.tail = other.tail
	other.head, other.tail = nil, nil
}

// unlink removes cur, whose predecessor in the list is prev (nil if cur
// is the head).
func (l *timerList) unlink(prev, cur *Timer) {
	if prev == nil {
		l.head = cur.next
	} else {
		prev.next = cur.next
	}
	if l.tail == cur {
		l.tail = prev
	}
	cur.next = nil
}

type domainState struct {
	pending timerList
	armed   timerList
}

// Wheel owns every tick domain's armed/pending lists and the callback
// pair (plus optional update hook) timers fire through.
type Wheel struct {
	crit    pal.CritSection
	post    PostFunc
	publish PublishFunc
	update  UpdateFunc

	domains [MaxDomains]domainState
}

// NewWheel builds a Wheel delivering through post/publish, guarded by
// crit. update may be nil.
func NewWheel(crit pal.CritSection, post PostFunc, publish PublishFunc, update UpdateFunc) *Wheel {
	return &Wheel{crit: crit, post: post, publish: publish, update: update}
}

func (w *Wheel) mustDomain(d int) *domainState {
	if d < 0 || d >= MaxDomains {
		panic("timer: tick domain out of range")
	}
	return &w.domains[d]
}

// ArmTicks arms t to fire after ticks ticks (clamped up to at least 1),
// reloading every interval ticks thereafter if interval > 0 (one-shot
// if 0). Re-arming an already-armed timer is legal and simply updates
// its fields in place.
func (w *Wheel) ArmTicks(t *Timer, ticks, interval uint64) {
	if ticks < 1 {
		ticks = 1
	}
	d := w.mustDomain(t.domain)

	w.crit.Enter()
	t.shotInTicks = ticks
	t.intervalTicks = interval
	t.disarmPending = false
	if !t.linked {
		t.linked = true
		d.pending.pushBack(t)
	}
	w.crit.Exit()
}

// ArmMS is ArmTicks with ticks/intervalTicks converted from milliseconds
// via clk's per-domain ratio.
func (w *Wheel) ArmMS(t *Timer, clk pal.Clock, ms, intervalMS int64) {
	ticks := clk.TickFromMS(t.domain, ms)
	var interval uint64
	if intervalMS > 0 {
		interval = clk.TickFromMS(t.domain, intervalMS)
	}
	w.ArmTicks(t, ticks, interval)
}

// Disarm requests t stop firing. The list is not mutated here — only
// Tick, which owns the list it is iterating, unlinks a disarmed timer —
// so Disarm is safe to call from any context, including one racing a
// concurrent Tick.
func (w *Wheel) Disarm(t *Timer) {
	w.crit.Enter()
	t.disarmPending = true
	w.crit.Exit()
}

// IsArmed reports whether t is currently linked and not pending disarm.
func (w *Wheel) IsArmed(t *Timer) bool {
	w.crit.Enter()
	defer w.crit.Exit()
	return t.linked && !t.disarmPending
}

// Tick advances domain d by one tick: pending insertions are spliced
// onto the armed list, every armed timer's countdown is decremented,
// and any that reach zero fire (post or publish, outside the critical
// section) and either reload (interval > 0) or unlink (one-shot).
func (w *Wheel) Tick(d int) {
	dom := w.mustDomain(d)

	w.crit.Enter()
	dom.armed.appendFrom(&dom.pending)

	var firing []*Timer
	var prev, cur *Timer
	cur = dom.armed.head
	for cur != nil {
		next := cur.next
		if cur.disarmPending {
			dom.armed.unlink(prev, cur)
			cur.linked = false
			cur.disarmPending = false
			cur = next
			continue
		}

		cur.shotInTicks--
		if cur.shotInTicks > 0 {
			prev = cur
			cur = next
			continue
		}

		if cur.intervalTicks > 0 {
			cur.shotInTicks = cur.intervalTicks
			prev = cur
		} else {
			dom.armed.unlink(prev, cur)
			cur.linked = false
		}
		firing = append(firing, cur)
		cur = next
	}
	w.crit.Exit()

	for _, t := range firing {
		if w.update != nil {
			w.update(t)
		}
		if !t.hasOwner {
			w.publish(t.evt)
			continue
		}
		w.crit.Enter()
		raced := t.disarmPending
		w.crit.Exit()
		if raced {
			continue
		}
		w.post(t.owner, t.evt)
	}
}
