// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package am is the root of an active-object application framework:
// a hierarchical state machine dispatcher (am/hsm), a pooled
// reference-counted event subsystem (am/event) built on a size-class
// allocator (am/pool) and a critical-section-guarded bounded queue
// (am/queue), an active-object scheduler with cooperative and
// preemptive back-ends plus a publish/subscribe router (am/ao), a
// per-tick-domain timer wheel (am/timer), an SPSC byte ring buffer
// (am/ring), and an async coroutine pattern (am/coro). am/pal carries
// the platform contract every other package depends on.
//
// This package holds the return codes and error sentinels shared
// across all of the above, so callers can write one error-handling
// idiom regardless of which subsystem returned it.
package am

import "code.hybscloud.com/iox"

// RC is a push/delivery result code, returned by operations that may
// back off under a caller-supplied margin rather than fail outright.
type RC int

const (
	// RCOK indicates the operation completed normally.
	RCOK RC = iota
	// RCOKQueueWasEmpty indicates the operation completed normally and the
	// destination queue was empty immediately before this push — the
	// scheduler notify hook must run so a sleeping consumer wakes up.
	RCOKQueueWasEmpty
	// RCErr indicates the operation was refused because fewer free slots
	// remained than the caller's margin required. The event passed in,
	// if non-static, has already been freed by the callee.
	RCErr
)

// String renders the result code for logging.
func (rc RC) String() string {
	switch rc {
	case RCOK:
		return "OK"
	case RCOKQueueWasEmpty:
		return "OK_QUEUE_WAS_EMPTY"
	case RCErr:
		return "ERR"
	default:
		return "RC(?)"
	}
}

// ErrWouldBlock indicates a push, pop, or allocation could not proceed
// immediately because of a margin or capacity constraint.
//
// ErrWouldBlock is a control-flow signal, not a failure: callers should
// retry, degrade, or account the drop rather than treat it as fatal.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control-flow signal rather than a
// failure.
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

// Fault is a contract violation: double-free, use-after-free, reentrant
// dispatch, priority collision, and the other conditions this framework
// treats as fatal rather than recoverable. Faults are not returned as
// errors: the detecting package panics with a *Fault (am/ao and am/event
// first log the violation through their platform's Printf and Flush),
// matching the teacher system's abort-with-diagnostic-dump behavior; this
// type exists so that the panic value carries structured detail instead
// of a bare string.
type Fault struct {
	// Op names the operation that detected the violation, e.g.
	// "event.Free" or "hsm.Dispatch".
	Op string
	// Msg is a short, human-readable description of the violation.
	Msg string
}

func (f *Fault) Error() string {
	return f.Op + ": " + f.Msg
}
