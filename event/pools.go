// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package event

import (
	"code.hybscloud.com/am"
	"code.hybscloud.com/am/pool"
)

// platform is the narrow slice of pal.Platform Pools needs: a critical
// section to guard allocation/free, and a logger to dump diagnostics
// before a fatal fault aborts. Declared locally (rather than importing
// pal.CritSection/pal.Logger composed) so event has no import-time
// dependency on pal's task/clock machinery.
type platform interface {
	Enter()
	Exit()
	Printf(format string, args ...any)
	Flush()
}

// Pools registers payload-sized size-class pools and allocates,
// duplicates, and frees events out of them under the platform's
// critical section. The event header itself never lives in a pool
// block; see AllocateX.
type Pools struct {
	reg  *pool.Registry
	plat platform
}

// NewPools constructs an empty pool registry bound to plat's critical
// section and fault-reporting hooks.
func NewPools(plat platform) *Pools {
	return &Pools{reg: pool.NewRegistry(), plat: plat}
}

// AddPool registers a size class able to hold payloads up to
// payloadSize bytes. Pools must be added in strictly increasing
// payloadSize order, checked by the underlying registry.
//
// The registry's own capacity (pool.MaxPools) is wider than the event
// header's pool_index_plus_one field can represent: AddPool rejects a
// registration past MaxPoolIndex before it could reach the registry and
// silently overflow that field.
func (p *Pools) AddPool(buf []byte, payloadSize, alignment int) error {
	if p.reg.Len() > MaxPoolIndex {
		return pool.ErrTooManyPools
	}
	return p.reg.AddPool(buf, payloadSize, alignment)
}

// AllocateX allocates an event of the given id and payload size,
// failing (returning nil) rather than aborting if the winning pool's
// free count is at or below margin. A request no registered pool can
// satisfy is a contract violation and triggers a fatal fault.
//
// The header itself (id, refcount, pool index, tick domain) lives in
// the returned Event's Go fields, not in the pool block's bytes — the
// block backs only the payload, so AddPool registers pools sized for
// payloads directly and Free never needs to reconstruct a header
// region from a payload slice.
func (p *Pools) AllocateX(id int32, size, margin int) *Event {
	p.plat.Enter()
	block, idx, err := p.reg.Alloc(size, margin)
	p.plat.Exit()

	if err == am.ErrWouldBlock {
		return nil
	}
	if err != nil {
		p.fatal("event.AllocateX", "no pool large enough for requested payload size")
		return nil
	}
	e := &Event{payload: block}
	e.setID(id)
	e.setPoolIndex(idx)
	return e
}

// Allocate allocates with margin 0 and aborts via a fatal fault rather
// than returning nil on exhaustion.
func (p *Pools) Allocate(id int32, size int) *Event {
	e := p.AllocateX(id, size, 0)
	if e == nil {
		p.fatal("event.Allocate", "pool exhausted")
	}
	return e
}

// Duplicate allocates a fresh event of the same id and size and copies
// e's payload bytes into it.
func (p *Pools) Duplicate(e *Event) *Event {
	n := p.Allocate(e.id, len(e.payload))
	copy(n.payload, e.payload)
	return n
}

// Hold increments e's refcount without queuing it anywhere (a no-op for
// a static event). Used by a multi-destination fan-out (am/ao's
// publish_exclude_x) to keep e alive across the whole delivery round
// before a single trailing Free balances this call.
func (p *Pools) Hold(e *Event) {
	if e == nil || e.IsStatic() {
		return
	}
	e.incRef()
}

// Free is a no-op for a static event. Otherwise it verifies id_lsw,
// decrements the refcount, and — if it reached zero — returns the
// block to its pool. The caller must discard its pointer to e
// immediately after Free returns; Free cannot null it out for the
// caller (Go has no reference-to-pointer out-param idiom here), so
// double-free protection relies entirely on the id_lsw tamper check.
func (p *Pools) Free(e *Event) {
	p.plat.Enter()
	defer p.plat.Exit()
	p.freeLocked(e)
}

// freeLocked is Free's body, assuming the caller already holds the
// platform's critical section — used by PushBackX/PushFrontX, which
// must free a rejected event inside the same section as their margin
// check, and by PopFront, which frees after the callback runs.
func (p *Pools) freeLocked(e *Event) {
	if e == nil || e.IsStatic() {
		return
	}
	if !e.CheckIDLSW() {
		p.fatal("event.Free", "id_lsw mismatch: double-free or corrupted event pointer")
		return
	}
	idx, ok := e.PoolIndex()
	if !ok {
		return
	}
	if !e.decRef() {
		return
	}
	if err := p.reg.Free(idx, e.payload); err != nil {
		p.fatal("event.Free", err.Error())
	}
	// Invert id_lsw so a later Free or Dispatch of this stale pointer
	// fails CheckIDLSW.
	e.meta ^= idLSWMask << idLSWShift
}

// PoolFree reports the free-block count of the pool at idx, for
// diagnostics and tests (compare to am/pool's nfree invariant).
func (p *Pools) PoolFree(idx int) int {
	return p.reg.Pool(idx).NFree()
}

func (p *Pools) fatal(op, msg string) {
	p.plat.Printf("FATAL[%s]: %s\n", op, msg)
	p.plat.Flush()
	panic(&am.Fault{Op: op, Msg: msg})
}
