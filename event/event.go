// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package event implements the pooled, reference-counted event header
// every active object exchanges: allocation and duplication out of a
// code.hybscloud.com/am/pool registry, a saturating refcount, and the
// push/pop helpers am/ao and am/timer deliver events through. A static
// event (one the caller constructed without going through Allocate) is
// never pooled and every refcount operation on it is a no-op.
package event

import "code.hybscloud.com/am"

// HeaderSize documents the wire size, in bytes, of the header this
// package's bit layout models: an int32 id plus a packed uint32 of
// ref_counter/pool_index_plus_one/tick_domain/id_lsw. The header lives
// in Event's Go fields rather than pool-block bytes, so no pool
// arithmetic depends on this constant; it exists to keep the layout's
// size invariant checkable from tests.
const HeaderSize = 8

// Reserved event ids, dispatched only by am/hsm.
const (
	Entry int32 = iota
	Exit
	Init
	spareReserved
	// UserBase is the first id available to application events.
	UserBase
)

// Empty is the synthetic id the HSM dispatcher uses to ask a state for
// its superstate. It is never posted, published, or enqueued, and
// deliberately aliases no other id (negative, outside int32 id space
// any real event would use).
const Empty int32 = -2

// Invalid marks an id field that has not been set.
const Invalid int32 = -1

// bit widths within the 32-bit packed metadata word, mirroring the
// 8-byte wire header: id (int32) + meta (uint32).
const (
	refCounterBits   = 6
	poolIdxBits      = 5
	tickDomainBits   = 3
	reservedBits     = 1
	idLSWBits        = 16
	refCounterShift  = 0
	poolIdxShift     = refCounterShift + refCounterBits
	tickDomainShift  = poolIdxShift + poolIdxBits
	reservedShift    = tickDomainShift + tickDomainBits
	idLSWShift       = reservedShift + reservedBits
	refCounterMask   = uint32(1)<<refCounterBits - 1
	poolIdxMask      = uint32(1)<<poolIdxBits - 1
	tickDomainMask   = uint32(1)<<tickDomainBits - 1
	idLSWMask        = uint32(1)<<idLSWBits - 1
	maxRefCounter    = refCounterMask
	// MaxPoolIndex is the largest zero-based pool index representable by
	// the 5-bit pool_index_plus_one field (one value, 0, is reserved to
	// mean "static event").
	MaxPoolIndex = int(poolIdxMask) - 1
	// MaxTickDomains is the number of tick domains the 3-bit field can
	// distinguish.
	MaxTickDomains = int(tickDomainMask) + 1
)

// Event is the header shared by every in-flight message, plus its
// payload bytes: for a pooled event, one block of the pool it was
// allocated from (the header itself is held in these Go fields, not in
// the block); for a static event, a caller-owned byte slice with no pool
// affiliation.
type Event struct {
	id      int32
	meta    uint32
	payload []byte
}

// NewStatic wraps a caller-owned, never-freed event: pool_index_plus_one
// stays 0, so every refcount and free operation on it is a no-op. Used
// for reserved dispatcher events (Entry/Exit/Init) and for compile-time
// constant events an application never wants pooled.
func NewStatic(id int32, payload []byte) *Event {
	e := &Event{payload: payload}
	e.setID(id)
	return e
}

func (e *Event) setID(id int32) {
	e.id = id
	e.meta = (e.meta &^ (idLSWMask << idLSWShift)) | (uint32(uint16(id))&idLSWMask)<<idLSWShift
}

// ID returns the event's identifier.
func (e *Event) ID() int32 { return e.id }

// IDLSW returns the low 16 bits of id as last written — compared
// against id&0xFFFF at every API boundary to detect a stale or
// corrupted pointer.
func (e *Event) IDLSW() uint16 {
	return uint16((e.meta >> idLSWShift) & idLSWMask)
}

// CheckIDLSW reports whether IDLSW is still consistent with ID, i.e.
// no use-after-free/double-free tampering has been observed.
func (e *Event) CheckIDLSW() bool {
	return e.IDLSW() == uint16(e.id)
}

// RefCount returns the current saturating reference count.
func (e *Event) RefCount() uint8 {
	return uint8((e.meta >> refCounterShift) & refCounterMask)
}

// IsStatic reports whether the event is exempt from pooling and
// refcounting.
func (e *Event) IsStatic() bool {
	return (e.meta>>poolIdxShift)&poolIdxMask == 0
}

// PoolIndex returns the zero-based pool registry index this event was
// allocated from, and false if the event is static.
func (e *Event) PoolIndex() (int, bool) {
	v := (e.meta >> poolIdxShift) & poolIdxMask
	if v == 0 {
		return 0, false
	}
	return int(v - 1), true
}

func (e *Event) setPoolIndex(idx int) {
	e.meta = (e.meta &^ (poolIdxMask << poolIdxShift)) | (uint32(idx+1)&poolIdxMask)<<poolIdxShift
}

// TickDomain returns the timer tick domain this event is tagged with.
func (e *Event) TickDomain() int {
	return int((e.meta >> tickDomainShift) & tickDomainMask)
}

// SetTickDomain tags the event with a timer tick domain.
func (e *Event) SetTickDomain(d int) {
	e.meta = (e.meta &^ (tickDomainMask << tickDomainShift)) | (uint32(d)&tickDomainMask)<<tickDomainShift
}

// Payload returns the bytes following the header. The framework never
// copies these; the caller owns them between Allocate and the handoff
// through a push/publish call, and the consumer owns them between pop
// and Free.
func (e *Event) Payload() []byte { return e.payload }

func (e *Event) incRef() {
	if e.IsStatic() {
		return
	}
	rc := (e.meta >> refCounterShift) & refCounterMask
	if rc < maxRefCounter {
		rc++
	}
	e.meta = (e.meta &^ (refCounterMask << refCounterShift)) | (rc << refCounterShift)
}

// decRef decrements the refcount and reports whether it reached zero.
// No-op (returns false) on a static event.
func (e *Event) decRef() bool {
	if e.IsStatic() {
		return false
	}
	rc := (e.meta >> refCounterShift) & refCounterMask
	if rc == 0 {
		return true
	}
	rc--
	e.meta = (e.meta &^ (refCounterMask << refCounterShift)) | (rc << refCounterShift)
	return rc == 0
}

// IsValid reports whether id is outside the reserved [Empty, Entry) gap
// and not Invalid.
func IsValid(id int32) bool {
	return id != Invalid && id != Empty
}
