// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bitset provides a 64-bit priority bitmap with O(1) highest-bit
// selection.
//
// It backs the active-object ready-set (code.hybscloud.com/am/ao) and the
// pub/sub subscriber bitmaps (code.hybscloud.com/am/ao's Router): both need
// to answer "which is the highest-priority index with bit N set" without
// scanning.
package bitset

import (
	"math/bits"

	"code.hybscloud.com/atomix"
)

// Max is the largest bit index a Set can hold (priorities live in [0, Max]).
const Max = 63

// Set is a 64-bit array of flags, one per priority level.
//
// The zero value is an empty set, ready to use. All operations are safe to
// call from multiple goroutines; Set/Clear/Test use a single atomic
// read-modify-write so callers do not need an external lock merely to
// maintain the bitmap (callers still need the framework's critical section
// around any operation that must be atomic with other state, e.g. toggling
// a bit together with swapping a registry slot).
type Set struct {
	bits atomix.Uint64
}

// IsEmpty reports whether no bit is set.
func (s *Set) IsEmpty() bool {
	return s.bits.LoadAcquire() == 0
}

// Set sets bit n (0-based, must be in [0, Max]).
func (s *Set) Set(n int) {
	mustValid(n)
	for {
		old := s.bits.LoadAcquire()
		nv := old | (uint64(1) << uint(n))
		if s.bits.CompareAndSwapAcqRel(old, nv) {
			return
		}
	}
}

// Clear clears bit n (0-based, must be in [0, Max]).
func (s *Set) Clear(n int) {
	mustValid(n)
	for {
		old := s.bits.LoadAcquire()
		nv := old &^ (uint64(1) << uint(n))
		if s.bits.CompareAndSwapAcqRel(old, nv) {
			return
		}
	}
}

// Test reports whether bit n is set.
func (s *Set) Test(n int) bool {
	mustValid(n)
	return s.bits.LoadAcquire()&(uint64(1)<<uint(n)) != 0
}

// MSB returns the index of the most significant set bit, or -1 if the set
// is empty.
//
// This is the scheduling primitive: the cooperative back-end in
// code.hybscloud.com/am/ao selects the ready active object with the
// highest MSB index as the next one to run.
func (s *Set) MSB() int {
	v := s.bits.LoadAcquire()
	if v == 0 {
		return -1
	}
	return bits.Len64(v) - 1
}

// Raw returns the underlying 64-bit word, mainly for tests and diagnostics.
func (s *Set) Raw() uint64 {
	return s.bits.LoadAcquire()
}

// Descend calls fn once for every set bit, from the highest index to the
// lowest, against a snapshot taken at the start of the call (bits set or
// cleared concurrently by other goroutines are not reflected mid-iteration).
// It stops early if fn returns false.
//
// This is the pub/sub router's delivery order: publish_exclude_x must visit
// subscribers highest-priority-first to avoid priority inversion in the
// immediate handoff.
func (s *Set) Descend(fn func(n int) bool) {
	v := s.bits.LoadAcquire()
	for v != 0 {
		n := bits.Len64(v) - 1
		if !fn(n) {
			return
		}
		v &^= uint64(1) << uint(n)
	}
}

func mustValid(n int) {
	if n < 0 || n > Max {
		panic("bitset: index out of range [0,63]")
	}
}
