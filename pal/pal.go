// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pal declares the platform abstraction layer every other
// package in this module is written against: task creation and
// notification, mutexes, a short non-reentrant critical section, ticks
// and wall-clock time, sleeping, and an idle hook. code.hybscloud.com/am
// itself never talks to an OS scheduler or a clock directly — it calls
// through a pal.Platform so the same dispatcher, event pool, and
// active-object runtime run unmodified on a goroutine-backed host
// (pal.NewHost, used by every test in this module) or on a future
// RTOS/bare-metal binding that satisfies the same interfaces.
package pal

import (
	"context"
	"time"
)

// TaskID identifies a task created by a Platform. The zero value never
// names a real task.
type TaskID int

// TaskFunc is the body of a task created by Tasks.Create. The platform
// passes the task its own id so it can later call Tasks.Wait on itself
// or compare against a foreign-caller check.
type TaskFunc func(ctx context.Context, id TaskID)

type taskIDKey struct{}

// WithTaskID returns a context carrying id, for platforms that propagate
// task identity through context.Context (pal.Host does).
func WithTaskID(ctx context.Context, id TaskID) context.Context {
	return context.WithValue(ctx, taskIDKey{}, id)
}

// TaskIDFromContext returns the TaskID stored by WithTaskID, or false if
// ctx carries none.
func TaskIDFromContext(ctx context.Context) (TaskID, bool) {
	id, ok := ctx.Value(taskIDKey{}).(TaskID)
	return id, ok
}

// Tasks creates, notifies, and waits on platform tasks (OS threads on a
// hosted build, RTOS tasks on an embedded one). Notify/Wait is a binary
// semaphore per task: a Notify that arrives before the matching Wait is
// not lost.
type Tasks interface {
	// Create starts a new task named name at priority prio and returns
	// its id. prio is platform-defined; pal.Host treats it as a hint only.
	Create(name string, prio int, fn TaskFunc) TaskID
	// Notify wakes one pending Wait on id, or arms one future Wait if
	// none is currently pending.
	Notify(id TaskID)
	// Wait blocks the calling task until Notify(id) is called, or ctx is
	// done.
	Wait(ctx context.Context, id TaskID) error
	// WaitAll blocks until the platform's startup barrier opens — see
	// Platform's doc comment on the ticker protocol.
	WaitAll(ctx context.Context) error
	// ReleaseAll opens the startup barrier exactly once; subsequent calls
	// are no-ops. Only the scheduler's run-all entry point should call it.
	ReleaseAll()
	// LockAll and UnlockAll bracket a region that must run without any
	// other task being scheduled in (cooperative mode: no-op, since only
	// one handler ever runs at a time).
	LockAll()
	UnlockAll()
}

// Mutex is a lock with ownership outside the critical-section fast path
// — for code that may legitimately block, never inside
// CritSection.Enter/Exit.
type Mutex interface {
	Lock()
	Unlock()
}

// CritSection is a short, non-reentrant, interrupt/ISR-safe exclusion
// region. Every mutation of shared framework state — the event pools,
// the AO registry, the ready bitmap, the subscribe table, the timer
// lists, and any AO's event queue — happens between Enter and Exit.
// Handlers must never be called from inside one.
type CritSection interface {
	Enter()
	Exit()
}

// Clock provides monotonic wall-clock milliseconds and per-domain tick
// counters. Each tick domain is an independent logical clock; am/timer
// is driven entirely by Tick advancing, never by wall-clock time
// directly.
type Clock interface {
	NowMS() int64
	Tick(domain int) uint64
	TickFromMS(domain int, ms int64) uint64
	MSFromTick(domain int, tick uint64) int64
	SleepTicks(ctx context.Context, domain int, ticks uint64) error
	SleepMS(ctx context.Context, ms int64) error
	SleepTillTicks(ctx context.Context, domain int, tick uint64) error
	SleepTillMS(ctx context.Context, ms int64) error
}

// Logger is the minimal sink the framework writes fatal-fault dumps and
// optional spy traces to. code.hybscloud.com/am/amlog.Logger satisfies
// this structurally; pal does not import amlog to avoid a cycle.
type Logger interface {
	Printf(format string, args ...any)
	Flush()
}

// Idle is called by the cooperative scheduler while holding the
// critical section and finding no AO ready to run, so the platform may
// atomically arm a low-power sleep and enable interrupts (the pattern
// this framework's prior art calls the "Samek pattern"). The hook must
// not post or publish — doing so from inside the critical section that
// invoked it would deadlock against itself.
type Idle interface {
	OnIdle()
}

// Platform aggregates every contract the core depends on. A binding for
// a new target implements Platform once; every other package in this
// module accepts a Platform (or the narrower sub-interface it actually
// needs) rather than importing an OS or HAL package directly.
type Platform interface {
	Tasks
	Clock
	CritSection
	Idle
	Logger
	// NewMutex creates a platform mutex.
	NewMutex() Mutex
	// CPUCount reports the number of schedulable cores.
	CPUCount() int
}

// defaultTimeout is a 24-hour bound that no code in this package
// references; Host's SleepTillMS and SleepTillTicks return immediately
// for a target already in the past.
const defaultTimeout = 24 * time.Hour
