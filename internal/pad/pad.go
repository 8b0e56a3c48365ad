// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pad holds cache-line padding types and small bit-twiddling
// helpers shared by the pooled/queued/ring data structures, which lay
// out their hot fields (head/tail indices, free-list counters) on
// separate cache lines to avoid false sharing between producer and
// consumer cores.
package pad

import "unsafe"

// Line is cache line padding to prevent false sharing.
type Line [64]byte

// AfterUint64 pads out a cache line after an 8-byte field.
type AfterUint64 [64 - 8]byte

// AfterPtr pads out a cache line after a pointer-sized field.
type AfterPtr [64 - PtrSize]byte

// PtrSize is the size of a pointer in bytes on the build target.
const PtrSize = int(unsafe.Sizeof(uintptr(0)))

// RoundToPow2 rounds n up to the next power of 2; n < 2 rounds to 2.
func RoundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
