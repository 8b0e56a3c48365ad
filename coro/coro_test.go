// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import "testing"

// ryg is a resumable traffic-light sequencer: each call to step advances
// one color, mirroring a timer-driven handler that does one thing per
// dispatch rather than sleeping between colors.
type ryg struct {
	routine Routine
	trace   []string
}

func (m *ryg) step() {
	switch m.routine.Begin() {
	case 0:
		m.trace = append(m.trace, "red")
		m.routine.Yield(1)
		return
	case 1:
		m.trace = append(m.trace, "yellow")
		m.routine.Yield(2)
		return
	case 2:
		m.trace = append(m.trace, "green")
		m.routine.Yield(3)
		return
	case 3:
		m.trace = append(m.trace, "off")
	}
	m.routine.End()
}

func TestRoutineResumesAtEachYieldInOrder(t *testing.T) {
	m := &ryg{}
	if m.routine.IsBusy() {
		t.Fatal("expected a fresh routine not to be busy")
	}

	for i := 0; i < 4; i++ {
		m.step()
	}

	want := []string{"red", "yellow", "green", "off"}
	if len(m.trace) != len(want) {
		t.Fatalf("got %v, want %v", m.trace, want)
	}
	for i := range want {
		if m.trace[i] != want[i] {
			t.Fatalf("got %v, want %v", m.trace, want)
		}
	}
	if m.routine.IsBusy() {
		t.Fatal("expected routine to be back at Init after the last step falls through to End")
	}
}

func TestRoutineRestartsCleanlyAfterFinishing(t *testing.T) {
	m := &ryg{}
	for i := 0; i < 4; i++ {
		m.step()
	}
	m.trace = nil

	for i := 0; i < 2; i++ {
		m.step()
	}
	if len(m.trace) != 2 || m.trace[0] != "red" || m.trace[1] != "yellow" {
		t.Fatalf("expected a finished routine to restart from the top, got %v", m.trace)
	}
	if !m.routine.IsBusy() {
		t.Fatal("expected routine to be busy mid-sequence")
	}
}

func TestResetAbandonsMidSequenceProgress(t *testing.T) {
	m := &ryg{}
	m.step() // red, paused at step 1
	if !m.routine.IsBusy() {
		t.Fatal("expected routine to be busy after the first step")
	}

	m.routine.Reset()
	if m.routine.IsBusy() {
		t.Fatal("expected Reset to return the routine to Init")
	}

	m.trace = nil
	m.step()
	if len(m.trace) != 1 || m.trace[0] != "red" {
		t.Fatalf("expected a reset routine to restart from the top, got %v", m.trace)
	}
}

type awaiter struct {
	routine Routine
	ready   bool
	trace   []string
}

func (a *awaiter) step() {
	switch a.routine.Begin() {
	case 0:
		a.trace = append(a.trace, "start")
		a.routine.Yield(1)
		return
	case 1:
		if !a.routine.Await(1, a.ready) {
			return
		}
		a.trace = append(a.trace, "proceeded")
	}
	a.routine.End()
}

func TestAwaitBlocksUntilConditionHolds(t *testing.T) {
	a := &awaiter{}
	a.step() // "start", now awaiting
	a.step() // ready is false, should not advance
	a.step() // still false
	if len(a.trace) != 1 {
		t.Fatalf("expected await to block progress while the condition is false, got %v", a.trace)
	}

	a.ready = true
	a.step()
	if len(a.trace) != 2 || a.trace[1] != "proceeded" {
		t.Fatalf("expected await to release once the condition became true, got %v", a.trace)
	}
	if a.routine.IsBusy() {
		t.Fatal("expected the routine to finish after proceeding past the await")
	}
}
