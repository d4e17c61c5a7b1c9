package jit

import (
	"github.com/wippyai/lispjit/layout"
	"github.com/wippyai/lispjit/specializer"
)

// Stats is a read-only snapshot of an Orchestrator's internal
// bookkeeping, for host-side observability. It is not itself part of
// the counting or specialization logic — taking a Stats snapshot never
// mutates the orchestrator and never influences a future specialization
// decision.
type Stats struct {
	// InstantiatedFuncs counts distinct (module, func, funcIndex)
	// instances the func tier has prepared.
	InstantiatedFuncs int
	// InstantiatedBBs is the sum, across every tracked BB, of how many
	// dispatch slots (including the default) its index manager has
	// minted.
	InstantiatedBBs int
	// BBSlotsUsed reports, per tracked BB, how many of its manager's
	// MaxSize slots are in use.
	BBSlotsUsed map[specializer.BBKey]int
	// BranchCounters reports the current Then/Else tallies observed for
	// every BB an IncrementBranchCounter callback has touched.
	BranchCounters map[specializer.BBKey]layout.BranchCounter
}

// Stats builds a Stats snapshot of o's current state.
func (o *Orchestrator) Stats() Stats {
	s := Stats{
		InstantiatedFuncs: len(o.state.PreparedFuncs),
		BBSlotsUsed:       make(map[specializer.BBKey]int, len(o.state.BBManagers)),
		BranchCounters:    make(map[specializer.BBKey]layout.BranchCounter, len(o.state.BranchCounters)),
	}
	for key, m := range o.state.BBManagers {
		n := m.Len()
		s.BBSlotsUsed[key] = n
		s.InstantiatedBBs += n
	}
	for key, c := range o.state.BranchCounters {
		s.BranchCounters[key] = *c
	}
	return s
}
