// Package specializer implements the JIT specializer: the three
// module tiers (stub, func, BB) the orchestrator asks for in response to
// instantiate_func/instantiate_bb/increment_branch_counter callbacks.
package specializer

import (
	"github.com/wippyai/lispjit/ir"
	"github.com/wippyai/lispjit/layout"
)

// FuncKey names one function within one registered source module.
type FuncKey struct {
	Module ir.ModuleId
	Func   ir.FuncId
}

// BBKey names one BB within one (module, func, closure-entrypoint)
// specialization — the granularity at which a BBIndexManager and a
// BranchCounter are kept, one per BB within its owning (Module, Func,
// FuncIndex) instance.
type BBKey struct {
	Module    ir.ModuleId
	Func      ir.FuncId
	FuncIndex int
	BB        ir.BasicBlockId
}

// FuncInstanceKey names one (module, func, closure-entrypoint) func-module
// instance — the granularity at which the func-module tier prepares and
// caches its optimized, closure-arg-rewritten clone of the source Func for
// later BB-module builds to clone BBs out of.
type FuncInstanceKey struct {
	Module    ir.ModuleId
	Func      ir.FuncId
	FuncIndex int
}

// State is the specializer's process-wide mutable bookkeeping: the
// GlobalManager, the closure entrypoint layout, the stub-global table,
// and every BB's index manager and branch counter. It is owned and
// mutated exclusively by the orchestrator, never concurrently — callbacks
// from the host arrive one at a time, so there is deliberately no mutex
// here.
type State struct {
	Limits                layout.Limits
	ClosureLayout         *layout.ClosureGlobalLayout
	FuncGlobals           map[FuncKey]ir.GlobalId
	StubGlobals           map[int]ir.GlobalId
	InstantiateFuncGlobal ir.GlobalId
	HaveInstantiateGlobal bool
	BBManagers            map[BBKey]*layout.BBIndexManager
	BranchCounters        map[BBKey]*layout.BranchCounter

	// PreparedFuncs holds the func-module tier's optimized, closure-arg-
	// rewritten clone of each (module, func, funcIndex) instance, kept
	// around so the BB-module tier can clone BBs out of the exact body
	// instantiate_func already committed to, rather than re-deriving it
	// (and risking it diverging) from the raw source Func.
	PreparedFuncs map[FuncInstanceKey]*ir.Func

	// BBArgs is the ordered list of live-in locals the func-module tier
	// assigned as a BB's calling-convention args (ascending LocalId
	// order). BBTypeParams is the subset of BBArgs whose static type is
	// Obj — the dimensions a BB-module instantiation can narrow to a
	// concrete ValType, in the same relative order the BBIndexManager's
	// SpecKey uses.
	BBArgs       map[BBKey][]ir.LocalId
	BBTypeParams map[BBKey][]ir.LocalId

	globalSeq int
}

// NewState returns a fresh specializer state with an empty closure
// layout and no globals minted yet.
func NewState(limits layout.Limits) *State {
	return &State{
		Limits:         limits,
		ClosureLayout:  layout.NewClosureGlobalLayout(limits),
		FuncGlobals:    map[FuncKey]ir.GlobalId{},
		StubGlobals:    map[int]ir.GlobalId{},
		BBManagers:     map[BBKey]*layout.BBIndexManager{},
		BranchCounters: map[BBKey]*layout.BranchCounter{},
		PreparedFuncs:  map[FuncInstanceKey]*ir.Func{},
		BBArgs:         map[BBKey][]ir.LocalId{},
		BBTypeParams:   map[BBKey][]ir.LocalId{},
	}
}

// NewGlobal mints a fresh process-wide unique GlobalId — cross-module
// wiring in the emitted Module format is by GlobalId equality, so every
// module this state ever helps produce must draw from the same sequence.
func (s *State) NewGlobal() ir.GlobalId {
	id := ir.GlobalId(s.globalSeq)
	s.globalSeq++
	return id
}

// BranchCounterFor returns the (lazily created) counter tracking bb's
// branch history within the given (module, func, funcIndex) scope.
func (s *State) BranchCounterFor(key BBKey) *layout.BranchCounter {
	c, ok := s.BranchCounters[key]
	if !ok {
		c = &layout.BranchCounter{}
		s.BranchCounters[key] = c
	}
	return c
}

// BBManagerFor returns the (lazily created) index manager for bb within
// the given scope, seeding slot 0 against defaultGlobal on first use.
func (s *State) BBManagerFor(key BBKey, arity int, defaultGlobal ir.Global) *layout.BBIndexManager {
	m, ok := s.BBManagers[key]
	if !ok {
		m = layout.NewBBIndexManager(arity, defaultGlobal, s.Limits)
		s.BBManagers[key] = m
	}
	return m
}
