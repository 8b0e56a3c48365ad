// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package coro implements a resumable step function: an HSM state
// handler that wants to do several things across several dispatches of
// the same event (typically a repeating timer) without blocking the AO
// that owns it. A Routine saves nothing but an integer step; calling it
// again re-enters the body at that step, the same way a generator
// resumes after a yield.
//
// The source this pattern is adapted from drives resumption with a
// line-numbering preprocessor macro (GCC's __LINE__ switched on inside
// a single function body), a trick Go's lack of macros rules out
// outright. The idiomatic Go shape is the one protothread libraries
// without a C preprocessor already use: the caller hand-assigns step
// numbers and switches on Routine.Step() directly, same as a manually
// unrolled generator.
package coro

// Step identifies a resumption point. Init (the zero value) is both the
// starting point and the value a finished Routine returns to.
type Step int

// Init is the step a freshly constructed or just-finished Routine sits
// at.
const Init Step = 0

// Routine holds the resumption point for one resumable step function.
// The zero value is ready to use.
type Routine struct {
	step Step
}

// Reset returns r to its initial step, as if it had never run.
func (r *Routine) Reset() { r.step = Init }

// IsBusy reports whether r is paused mid-body (anywhere other than
// Init) — i.e. whether calling its body again would resume work rather
// than start fresh.
func (r *Routine) IsBusy() bool { return r.step != Init }

// Begin returns the step to resume at. Call it as the tag of the
// body's switch statement:
//
//	switch me.routine.Begin() {
//	case 0:
//	        ...
//	        me.routine.Yield(1)
//	        return
//	case 1:
//	        ...
//	}
//	me.routine.End()
func (r *Routine) Begin() Step { return r.step }

// Yield records that the body should resume at step s on the next
// call. The caller must return immediately after calling Yield.
func (r *Routine) Yield(s Step) { r.step = s }

// Await records resumption step s and reports whether cond holds. A
// false result means the caller must return without doing any more
// work this call; a true result means the awaited condition is
// satisfied and the body may fall through to the code following the
// case it resumed at.
//
//	case 2:
//	        if !me.routine.Await(2, queueNotEmpty) {
//	                return
//	        }
//	        ...
func (r *Routine) Await(s Step, cond bool) bool {
	r.step = s
	return cond
}

// End returns r to Init, marking the routine as finished. Call it once
// at the end of the body, after the last case falls through.
func (r *Routine) End() { r.step = Init }
