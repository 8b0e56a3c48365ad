// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hsm implements a UML-statechart dispatcher: a state is a
// function of (hsm, event) returning one of four codes (Handled,
// Super, Tran, TranRedispatch). The dispatcher discovers a state's
// superstate by re-invoking it with a synthetic Empty event rather than
// walking an explicit tree, exactly as the active-object core this
// package is modeled on does — there is no separate state-graph data
// structure anywhere in this package.
package hsm

import (
	"fmt"
	"reflect"

	"code.hybscloud.com/am"
	"code.hybscloud.com/am/event"
)

// Code is a state function's return code.
type Code int

const (
	// Handled means the event requires no further action.
	Handled Code = iota
	// Super bubbles the event to a named superstate/instance.
	Super
	// Tran transitions to a named target state/instance.
	Tran
	// TranRedispatch transitions, then redelivers the same event once to
	// the new leaf.
	TranRedispatch
)

func (c Code) String() string {
	switch c {
	case Handled:
		return "HANDLED"
	case Super:
		return "SUPER"
	case Tran:
		return "TRAN"
	case TranRedispatch:
		return "TRAN_REDISPATCH"
	default:
		return "Code(?)"
	}
}

// Func is a state's handler: given the hsm (for Instance()/spy context)
// and the dispatched event, it returns what the state did.
type Func func(h *HSM, e *event.Event) Result

// Result is what a state function returns.
type Result struct {
	Code  Code
	State State
}

// HandledResult is returned by a state that fully processed the event.
func HandledResult() Result { return Result{Code: Handled} }

// SuperResult declares parent as the state's immediate superstate. A
// state must return this, unmodified, when dispatched the Empty event.
func SuperResult(parent State) Result { return Result{Code: Super, State: parent} }

// TranResult transitions to target.
func TranResult(target State) Result { return Result{Code: Tran, State: target} }

// TranRedispatchResult transitions to target, then redelivers the
// triggering event once to the new leaf.
func TranRedispatchResult(target State) Result { return Result{Code: TranRedispatch, State: target} }

// State names a state function together with the submachine instance
// it should run as — the same Func body can serve several instances,
// each potentially declaring a different superstate or behavior by
// branching on Instance().
type State struct {
	fn       Func
	instance int
}

// NewState pairs a state function with a submachine instance index.
func NewState(fn Func, instance int) State {
	return State{fn: fn, instance: instance}
}

// Instance returns the submachine instance this State was built with.
func (s State) Instance() int { return s.instance }

type stateKey struct {
	ptr      uintptr
	instance int
}

func (s State) key() stateKey {
	return stateKey{ptr: reflect.ValueOf(s.fn).Pointer(), instance: s.instance}
}

// Equal reports whether two States name the same function and
// instance — Go function values are not otherwise comparable, so
// identity here is by code pointer, matching the pair-equality the
// dispatcher's submachine support requires.
func (s State) Equal(o State) bool {
	return s.key() == o.key()
}

func (s State) String() string {
	return fmt.Sprintf("state@%#x/%d", s.key().ptr, s.instance)
}

// topFn is the universal root's handler. It is never actually invoked —
// ancestor walks stop as soon as they reach Top — but it exists so Top
// is a distinct, comparable State like any other.
func topFn(_ *HSM, _ *event.Event) Result { return HandledResult() }

// Top is the synthetic universal root. Every top-level state's
// EMPTY-event handler must return SuperResult(hsm.Top).
var Top = NewState(topFn, 0)

// Empty is the reserved event id used to ask a state for its
// superstate; Entry/Exit/Init are the reserved lifecycle event ids. All
// four are declared in code.hybscloud.com/am/event and must never be
// posted, published, or redispatched by application code.
var (
	emptyEvent = event.NewStatic(event.Empty, nil)
	entryEvent = event.NewStatic(event.Entry, nil)
	exitEvent  = event.NewStatic(event.Exit, nil)
	initEvent  = event.NewStatic(event.Init, nil)
)

// Spy is called at the start of every Dispatch, before any state
// function runs, with the event about to be delivered. A spy must not
// itself trigger a transition or call Dispatch — Dispatch's reentrancy
// guard turns such an attempt into a fatal fault, which is deliberate:
// the interaction of a transition-triggering spy with the dispatch
// algorithm is not defined.
type Spy func(h *HSM, e *event.Event)

// HSM is one hierarchical state machine instance: the active leaf
// state, a one-shot init flag, a reentrancy guard, and an optional spy.
// The zero value is not usable; construct with Ctor.
type HSM struct {
	active      State
	curInst     int
	initCalled  bool
	dispatching bool
	spy         Spy
}

// Ctor stores initial as the active state but does not invoke it —
// Init does that. initial's handler is expected to be an initial
// pseudostate: when later dispatched the Init event, it must return
// TranResult naming the real top-level state to enter.
func Ctor(h *HSM, initial State) {
	*h = HSM{active: initial}
}

// SetSpy installs (or, with nil, removes) a trace callback.
func (h *HSM) SetSpy(spy Spy) { h.spy = spy }

// Instance returns the submachine instance of the state function
// currently executing. Valid only while a state function called by
// this HSM is on the stack.
func (h *HSM) Instance() int { return h.curInst }

// Active returns the current active leaf state.
func (h *HSM) Active() State { return h.active }

// Fatal reports a contract violation. The default implementation
// panics with an *am.Fault; callers that have a pal.Platform should
// prefer routing faults through it for the diagnostic dump, by
// wrapping Dispatch/Init with their own recover and re-reporting.
var Fatal = func(op, msg string) {
	panic(&am.Fault{Op: op, Msg: msg})
}

func (h *HSM) fatal(op, msg string) { Fatal(op, msg) }

// findSuper asks s for its superstate via the Empty event.
func (h *HSM) findSuper(s State) State {
	if s.Equal(Top) {
		h.fatal("hsm.findSuper", "Top has no superstate")
	}
	h.curInst = s.instance
	r := s.fn(h, emptyEvent)
	if r.Code != Super {
		h.fatal("hsm.findSuper", fmt.Sprintf("state %v did not return SUPER on EMPTY event", s))
	}
	return r.State
}

// ancestors returns the chain from s up to and including Top.
func (h *HSM) ancestors(s State) []State {
	chain := []State{s}
	cur := s
	for !cur.Equal(Top) {
		cur = h.findSuper(cur)
		chain = append(chain, cur)
	}
	return chain
}

// runLifecycle invokes s with evt, expecting Handled or Super (a state
// with no entry/exit action for evt falls through to its default case,
// which returns Super — that is normal and ignored here). Tran or
// TranRedispatch from inside Entry/Exit/Init-chain plumbing is forbidden.
func (h *HSM) runLifecycle(s State, evt *event.Event, op string) {
	h.curInst = s.instance
	r := s.fn(h, evt)
	if r.Code == Tran || r.Code == TranRedispatch {
		h.fatal(op, fmt.Sprintf("state %v attempted a transition from inside ENTRY/EXIT/INIT-chain dispatch", s))
	}
}

// indexOfState returns the index of s within chain (compared with
// Equal), or -1 if absent.
func indexOfState(chain []State, s State) int {
	for i, c := range chain {
		if c.Equal(s) {
			return i
		}
	}
	return -1
}

// transition performs the exit/LCA/entry sequence and then the nested
// INIT loop, and sets the new active leaf. leaf is the state that was
// active when the event was first dispatched; source is the state whose
// handler actually returned TRAN, found by bubbling the event up leaf's
// ancestor chain (source is leaf itself, or one of its ancestors).
// Self-transitions and the LCA are computed relative to source — a
// superstate above the leaf can legally self-transition to itself — but
// the exit sequence always starts at leaf, so every substate between
// leaf and source is exited first, and source itself is exited (and
// re-entered) whenever it is the one that transitioned.
func (h *HSM) transition(leaf, source, target State) {
	leafChain := h.ancestors(leaf)
	srcIdx := indexOfState(leafChain, source)

	var exitPath, entryPath []State

	if source.Equal(target) {
		exitPath = leafChain[:srcIdx+1]
		entryPath = []State{target}
	} else {
		srcChain := h.ancestors(source)
		visited := make(map[stateKey]int, len(srcChain))
		for i, s := range srcChain {
			visited[s.key()] = i
		}

		var targetPath []State
		cur := target
		lcaIdx := -1
		for {
			targetPath = append(targetPath, cur)
			if idx, ok := visited[cur.key()]; ok {
				lcaIdx = idx
				break
			}
			cur = h.findSuper(cur)
		}
		exitPath = leafChain[:srcIdx+lcaIdx]
		entryPath = make([]State, 0, len(targetPath)-1)
		for i := len(targetPath) - 2; i >= 0; i-- {
			entryPath = append(entryPath, targetPath[i])
		}
	}

	for _, s := range exitPath {
		h.runLifecycle(s, exitEvent, "hsm.transition(exit)")
	}
	for _, s := range entryPath {
		h.runLifecycle(s, entryEvent, "hsm.transition(entry)")
	}

	h.active = target
	h.runNestedInit(target)
}

// runNestedInit repeatedly dispatches Init to the active leaf, entering
// any further nested default substates, until a state reports Handled.
func (h *HSM) runNestedInit(leaf State) {
	cur := leaf
	for {
		h.curInst = cur.instance
		r := cur.fn(h, initEvent)
		if r.Code == Handled {
			h.active = cur
			return
		}
		if r.Code != Tran {
			h.fatal("hsm.runNestedInit", fmt.Sprintf("state %v returned %v on INIT, want TRAN or HANDLED", cur, r.Code))
		}
		target := r.State
		var path []State
		c := target
		for !c.Equal(cur) {
			path = append(path, c)
			c = h.findSuper(c)
		}
		for i := len(path) - 1; i >= 0; i-- {
			h.runLifecycle(path[i], entryEvent, "hsm.runNestedInit(entry)")
		}
		cur = target
	}
}

// Init drives the initial transition: initial (as stored by Ctor) is
// dispatched the Init event and must return TranResult naming the
// first real top-level state; the dispatcher then enters down to it
// and runs nested init until a leaf reports Handled. Init may run
// exactly once per Ctor.
func Init(h *HSM) {
	if h.initCalled {
		h.fatal("hsm.Init", "Init called more than once since Ctor")
	}
	initial := h.active
	h.curInst = initial.instance
	r := initial.fn(h, initEvent)
	if r.Code != Tran {
		h.fatal("hsm.Init", fmt.Sprintf("initial pseudostate returned %v, want TRAN", r.Code))
	}
	h.active = initial
	h.transition(initial, initial, r.State)
	h.initCalled = true
}

// Dispatch delivers e to the state machine. Reentrant calls (from
// inside a state function reached by this same Dispatch) are a fatal
// fault.
func Dispatch(h *HSM, e *event.Event) {
	if !h.initCalled {
		h.fatal("hsm.Dispatch", "Dispatch called before Init")
	}
	if h.dispatching {
		h.fatal("hsm.Dispatch", "reentrant dispatch")
	}
	if !event.IsValid(e.ID()) {
		h.fatal("hsm.Dispatch", "attempt to dispatch a reserved/invalid event id")
	}
	if !e.CheckIDLSW() {
		h.fatal("hsm.Dispatch", "id_lsw mismatch on dispatched event")
	}

	h.dispatching = true
	defer func() { h.dispatching = false }()

	if h.spy != nil {
		h.spy(h, e)
	}

	redispatched := false
	for {
		again := h.dispatchOnce(e)
		if !again {
			return
		}
		if redispatched {
			h.fatal("hsm.Dispatch", "redispatching the same event more than once in a single Dispatch is forbidden")
		}
		redispatched = true
	}
}

// dispatchOnce bubbles e up from the active state until some level
// handles it or transitions, returning true if the caller must
// redeliver e once more (TranRedispatch).
func (h *HSM) dispatchOnce(e *event.Event) (redispatch bool) {
	leaf := h.active
	s := h.active
	for {
		h.curInst = s.instance
		r := s.fn(h, e)
		switch r.Code {
		case Handled:
			return false
		case Super:
			s = r.State
		case Tran:
			h.transition(leaf, s, r.State)
			return false
		case TranRedispatch:
			h.transition(leaf, s, r.State)
			return true
		default:
			h.fatal("hsm.Dispatch", fmt.Sprintf("state %v returned invalid code %v", s, r.Code))
			return false
		}
	}
}

// Dtor tears the machine down: EXIT is emitted from the active leaf up
// through each EMPTY-discovered ancestor (excluding the synthetic Top),
// then the active state and init flag are cleared.
func Dtor(h *HSM) {
	chain := h.ancestors(h.active)
	for _, s := range chain {
		if s.Equal(Top) {
			break
		}
		h.runLifecycle(s, exitEvent, "hsm.Dtor")
	}
	h.active = State{}
	h.initCalled = false
}

// IsIn reports whether s is the current active state or one of its
// ancestors.
func IsIn(h *HSM, s State) bool {
	for _, a := range h.ancestors(h.active) {
		if a.Equal(s) {
			return true
		}
	}
	return false
}
