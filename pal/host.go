// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pal

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Host is a goroutine-backed Platform: every task is a goroutine, the
// critical section is a spinlock (the framework's sections are short
// and never call user handlers, so a spinlock is cheap here and
// mirrors what a bare-metal binding would do by disabling interrupts),
// and tick domains are driven entirely by callers invoking Advance —
// Host does not free-run a wall clock against ticks, since the ticker
// protocol (one user task per domain calling SleepTillTicks then
// advancing its own domain) is the caller's responsibility.
type Host struct {
	critLocked atomix.Bool

	tasksMu sync.Mutex
	tasks   map[TaskID]*hostTask
	nextID  TaskID

	barrierOnce sync.Once
	barrierCh   chan struct{}

	domainsMu sync.Mutex
	domains   map[int]*hostDomain

	logMu sync.Mutex
}

type hostTask struct {
	notifyCh chan struct{}
	pending  atomix.Bool
}

type hostDomain struct {
	tick atomix.Uint64
	// waiters are released by Advance once tick reaches their target.
	mu      sync.Mutex
	waiters []domainWaiter
}

type domainWaiter struct {
	target uint64
	ch     chan struct{}
}

// NewHost constructs a ready-to-use Host. Every tick domain starts at
// tick 0 and moves only when Advance is called.
func NewHost() *Host {
	return &Host{
		tasks:     make(map[TaskID]*hostTask),
		barrierCh: make(chan struct{}),
		domains:   make(map[int]*hostDomain),
	}
}

var _ Platform = (*Host)(nil)

// --- Tasks ---

func (h *Host) Create(name string, prio int, fn TaskFunc) TaskID {
	h.tasksMu.Lock()
	h.nextID++
	id := h.nextID
	t := &hostTask{notifyCh: make(chan struct{}, 1)}
	h.tasks[id] = t
	h.tasksMu.Unlock()

	go func() {
		ctx := WithTaskID(context.Background(), id)
		fn(ctx, id)
	}()
	return id
}

func (h *Host) Notify(id TaskID) {
	h.tasksMu.Lock()
	t := h.tasks[id]
	h.tasksMu.Unlock()
	if t == nil {
		return
	}
	select {
	case t.notifyCh <- struct{}{}:
	default:
		// already has a pending notification; binary semaphore coalesces.
	}
}

func (h *Host) Wait(ctx context.Context, id TaskID) error {
	h.tasksMu.Lock()
	t := h.tasks[id]
	h.tasksMu.Unlock()
	if t == nil {
		return fmt.Errorf("pal: Wait on unknown task %d", id)
	}
	select {
	case <-t.notifyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Host) WaitAll(ctx context.Context) error {
	select {
	case <-h.barrierCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Host) ReleaseAll() {
	h.barrierOnce.Do(func() {
		close(h.barrierCh)
	})
}

func (h *Host) LockAll() {
	h.critLocked.StoreRelease(true)
}

func (h *Host) UnlockAll() {
	h.critLocked.StoreRelease(false)
}

// --- Mutex ---

func (h *Host) NewMutex() Mutex {
	return &sync.Mutex{}
}

// --- CritSection ---

func (h *Host) Enter() {
	sw := spin.Wait{}
	for !h.critLocked.CompareAndSwapAcqRel(false, true) {
		sw.Once()
	}
}

func (h *Host) Exit() {
	h.critLocked.StoreRelease(false)
}

// --- Clock ---

func (h *Host) domain(d int) *hostDomain {
	h.domainsMu.Lock()
	defer h.domainsMu.Unlock()
	dom := h.domains[d]
	if dom == nil {
		dom = &hostDomain{}
		h.domains[d] = dom
	}
	return dom
}

func (h *Host) NowMS() int64 {
	return time.Now().UnixMilli()
}

func (h *Host) Tick(d int) uint64 {
	return h.domain(d).tick.LoadAcquire()
}

// msPerTick is the host's fixed tick/millisecond ratio: 1 tick == 1 ms.
// A real target defines this from its ticker's configured period; the
// goroutine host has no hardware timer to take the period from, so it
// fixes the simplest ratio and exposes Advance for callers to drive it.
const msPerTick = 1

func (h *Host) TickFromMS(d int, ms int64) uint64 {
	return uint64(ms / msPerTick)
}

func (h *Host) MSFromTick(d int, tick uint64) int64 {
	return int64(tick) * msPerTick
}

// Advance moves tick domain d forward by delta ticks and releases any
// waiter whose target has now been reached. This is the host's stand-in
// for a hardware ticker driving am/timer's tick domain.
func (h *Host) Advance(d int, delta uint64) {
	dom := h.domain(d)
	nv := dom.tick.AddAcqRel(int64(delta))
	cur := uint64(nv)

	dom.mu.Lock()
	remaining := dom.waiters[:0]
	for _, w := range dom.waiters {
		if cur >= w.target {
			close(w.ch)
		} else {
			remaining = append(remaining, w)
		}
	}
	dom.waiters = remaining
	dom.mu.Unlock()
}

func (h *Host) SleepTillTicks(ctx context.Context, d int, target uint64) error {
	dom := h.domain(d)
	if dom.tick.LoadAcquire() >= target {
		return nil
	}
	ch := make(chan struct{})
	dom.mu.Lock()
	if dom.tick.LoadAcquire() >= target {
		dom.mu.Unlock()
		return nil
	}
	dom.waiters = append(dom.waiters, domainWaiter{target: target, ch: ch})
	dom.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Host) SleepTicks(ctx context.Context, d int, ticks uint64) error {
	return h.SleepTillTicks(ctx, d, h.Tick(d)+ticks)
}

func (h *Host) SleepMS(ctx context.Context, ms int64) error {
	t := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Host) SleepTillMS(ctx context.Context, target int64) error {
	d := target - h.NowMS()
	if d <= 0 {
		return nil
	}
	return h.SleepMS(ctx, d)
}

// --- Idle ---

// OnIdle yields the goroutine's scheduling slot. A goroutine host has no
// low-power state to arm; Gosched gives other goroutines a chance to
// make the ready set non-empty again without a busy spin.
func (h *Host) OnIdle() {
	runtime.Gosched()
}

// --- Logger ---

func (h *Host) Printf(format string, args ...any) {
	h.logMu.Lock()
	defer h.logMu.Unlock()
	fmt.Printf(format, args...)
}

func (h *Host) Flush() {}

// --- misc ---

func (h *Host) CPUCount() int {
	return runtime.NumCPU()
}
