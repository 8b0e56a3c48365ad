// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pool implements a fixed-block, single-size-class allocator
// over a caller-supplied backing buffer, and a registry of such pools
// ordered by ascending block size. am/event layers the pooled,
// reference-counted event header on top of Registry.Alloc/Free; pool
// itself knows nothing about events, refcounts, or ids.
//
// A Pool never allocates Go memory after construction: free blocks are
// threaded into an am/ilist list using the block's own storage for the
// list node, exactly as the size-class allocator this package is
// modeled on does in C with an intrusive singly-linked free list.
package pool

import (
	"errors"
	"unsafe"

	"code.hybscloud.com/am/ilist"
	"code.hybscloud.com/am/internal/pad"
)

// ErrBlockTooSmall is returned by NewPool when blockSize cannot hold a
// free-list node.
var ErrBlockTooSmall = errors.New("pool: block size too small to hold a free-list node")

// ErrBufferTooSmall is returned when buf, after alignment correction,
// cannot hold even one block.
var ErrBufferTooSmall = errors.New("pool: buffer too small for alignment and one block")

// ErrNotOwned is returned by Free when block was not allocated from
// this Pool — a double-free or corruption indicator, treated as a
// contract violation by callers with access to the fatal-fault hook.
var ErrNotOwned = errors.New("pool: block not owned by this pool")

// Pool is a fixed-block allocator for one size class.
type Pool struct {
	buf       []byte
	blockSize int
	nblocks   int
	free      ilist.List
	nfree     int
	nfreeMin  int
}

// NewPool carves buf into blocks of blockSize bytes, aligning the first
// block upward to alignment (must be a power of 2), and links every
// resulting block onto the free list.
func NewPool(buf []byte, blockSize, alignment int) (*Pool, error) {
	if blockSize < pad.PtrSize {
		return nil, ErrBlockTooSmall
	}
	if alignment <= 0 {
		alignment = 1
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	aligned := alignUp(base, uintptr(alignment))
	off := int(aligned - base)
	if off >= len(buf) {
		return nil, ErrBufferTooSmall
	}
	usable := buf[off:]
	nblocks := len(usable) / blockSize
	if nblocks == 0 {
		return nil, ErrBufferTooSmall
	}
	p := &Pool{
		buf:       usable,
		blockSize: blockSize,
		nblocks:   nblocks,
	}
	for i := nblocks - 1; i >= 0; i-- {
		p.free.PushFront(p.nodeAt(i))
	}
	p.nfree = nblocks
	p.nfreeMin = nblocks
	return p, nil
}

// BlockSize returns the pool's fixed block size.
func (p *Pool) BlockSize() int { return p.blockSize }

// NBlocks returns the total number of blocks carved from the backing
// buffer.
func (p *Pool) NBlocks() int { return p.nblocks }

// NFree returns the current count of free blocks.
func (p *Pool) NFree() int { return p.nfree }

// NFreeMin returns the lowest NFree has ever been, for high-watermark
// sizing diagnostics.
func (p *Pool) NFreeMin() int { return p.nfreeMin }

// Alloc pops one block from the free list. ok is false if the pool is
// exhausted. The returned slice is zeroed.
func (p *Pool) Alloc() (block []byte, ok bool) {
	n := p.free.PopFront()
	if n == nil {
		return nil, false
	}
	p.nfree--
	if p.nfree < p.nfreeMin {
		p.nfreeMin = p.nfree
	}
	off := p.offsetOf(n)
	blk := p.buf[off : off+p.blockSize : off+p.blockSize]
	clear(blk)
	return blk, true
}

// Free returns block to the free list. block must be a slice
// previously returned by Alloc on this Pool, sliced to no less than
// its original bounds at offset 0 (am/event always passes back the
// exact slice Alloc handed out).
func (p *Pool) Free(block []byte) error {
	if !p.Owns(block) {
		return ErrNotOwned
	}
	n := (*ilist.Node)(unsafe.Pointer(unsafe.SliceData(block)))
	*n = ilist.Node{} // the block's first bytes still hold caller data
	p.free.PushFront(n)
	p.nfree++
	return nil
}

// Owns reports whether block's backing storage lies within this pool
// and starts at a block boundary.
func (p *Pool) Owns(block []byte) bool {
	if len(block) == 0 {
		return false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(p.buf)))
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(block)))
	if ptr < base {
		return false
	}
	off := ptr - base
	if off >= uintptr(len(p.buf)) {
		return false
	}
	return off%uintptr(p.blockSize) == 0
}

func (p *Pool) nodeAt(i int) *ilist.Node {
	off := i * p.blockSize
	return (*ilist.Node)(unsafe.Pointer(unsafe.SliceData(p.buf[off:])))
}

func (p *Pool) offsetOf(n *ilist.Node) int {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(p.buf)))
	return int(uintptr(unsafe.Pointer(n)) - base)
}

func alignUp(addr, align uintptr) uintptr {
	if align <= 1 {
		return addr
	}
	return (addr + align - 1) &^ (align - 1)
}
