// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pool

import (
	"errors"
	"sort"

	"code.hybscloud.com/am"
)

// MaxPools is the largest number of size classes a Registry accepts.
const MaxPools = 32

// ErrTooManyPools is returned by AddPool once MaxPools entries are
// registered.
var ErrTooManyPools = errors.New("pool: registry already holds the maximum number of pools")

// ErrOutOfOrder is returned by AddPool when blockSize does not exceed
// the previously registered pool's block size — pools must be added in
// strictly increasing block-size order so Alloc's binary search is
// valid.
var ErrOutOfOrder = errors.New("pool: pools must be registered in strictly increasing block-size order")

// ErrNoSuitablePool is returned by Alloc when no registered pool's
// block size is large enough for the request — a contract violation in
// the framework above (an AO that allocates an event bigger than any
// configured pool), not a recoverable back-pressure condition.
var ErrNoSuitablePool = errors.New("pool: no registered pool is large enough for this request")

// Registry is an ordered sequence of Pools, one per size class, probed
// by a binary search for the smallest class that satisfies a request.
type Registry struct {
	pools      []*Pool
	blockSizes []int
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddPool registers a new size class over buf. blockSize must be
// strictly greater than every previously registered pool's block size.
func (r *Registry) AddPool(buf []byte, blockSize, alignment int) error {
	if len(r.pools) >= MaxPools {
		return ErrTooManyPools
	}
	if len(r.blockSizes) > 0 && blockSize <= r.blockSizes[len(r.blockSizes)-1] {
		return ErrOutOfOrder
	}
	p, err := NewPool(buf, blockSize, alignment)
	if err != nil {
		return err
	}
	r.pools = append(r.pools, p)
	r.blockSizes = append(r.blockSizes, blockSize)
	return nil
}

// Len returns the number of registered pools.
func (r *Registry) Len() int { return len(r.pools) }

// Pool returns the pool at index i, as returned in Alloc's poolIndex.
func (r *Registry) Pool(i int) *Pool { return r.pools[i] }

// find performs the binary search for the smallest pool whose block
// size is at least size.
func (r *Registry) find(size int) (idx int, ok bool) {
	i := sort.Search(len(r.blockSizes), func(i int) bool { return r.blockSizes[i] >= size })
	if i == len(r.blockSizes) {
		return 0, false
	}
	return i, true
}

// Alloc finds the smallest pool that fits size and pops a block from
// it, provided the pool's free count exceeds margin. It returns
// ErrNoSuitablePool if no pool is large enough (fatal, per the caller's
// contract), or am.ErrWouldBlock if the fitting pool's free count is at
// or below margin (recoverable back-pressure).
func (r *Registry) Alloc(size, margin int) (block []byte, poolIndex int, err error) {
	idx, ok := r.find(size)
	if !ok {
		return nil, 0, ErrNoSuitablePool
	}
	p := r.pools[idx]
	if p.NFree() <= margin {
		return nil, 0, am.ErrWouldBlock
	}
	blk, ok := p.Alloc()
	if !ok {
		return nil, 0, am.ErrWouldBlock
	}
	return blk, idx, nil
}

// Free returns block to the pool at poolIndex.
func (r *Registry) Free(poolIndex int, block []byte) error {
	return r.pools[poolIndex].Free(block)
}
