// Package dataflow computes per-BB def/use sets and fixed-point liveness
// over a Func's control-flow graph.
package dataflow

import (
	"sort"

	"github.com/wippyai/lispjit/cfg"
	"github.com/wippyai/lispjit/ir"
)

// DefUse holds, for one BB, the locals it first defines and the locals
// it uses before any local def within the same block. Phi incomings are
// attributed to the predecessor block's use set (the "use at the edge"
// convention), never to the Phi's own block.
type DefUse struct {
	Def map[ir.LocalId]bool
	Use map[ir.LocalId]bool
}

// Compute derives DefUse for every reachable BB of f.
func Compute(f *ir.Func) map[ir.BasicBlockId]*DefUse {
	out := make(map[ir.BasicBlockId]*DefUse)
	// Phi incomings are collected first and folded into the
	// predecessor's Use set once every BB's DefUse exists.
	type edgeUse struct {
		pred  ir.BasicBlockId
		local ir.LocalId
	}
	var edgeUses []edgeUse

	for id := range f.BBIds() {
		bb := f.BB(id)
		du := &DefUse{Def: map[ir.LocalId]bool{}, Use: map[ir.LocalId]bool{}}
		for _, instr := range bb.Instrs {
			if phi, ok := instr.Kind.(ir.Phi); ok {
				if instr.HasDest() {
					du.Def[instr.Dest] = true
				}
				for _, in := range phi.Incomings {
					edgeUses = append(edgeUses, edgeUse{in.BB, in.Local})
				}
				continue
			}
			instr.LocalUsages(func(u ir.Usage) bool {
				switch u.Kind {
				case ir.UseDefined:
					du.Def[u.Local] = true
				case ir.UseNonPhi:
					if !du.Def[u.Local] {
						du.Use[u.Local] = true
					}
				}
				return true
			})
		}
		out[id] = du
	}

	for _, eu := range edgeUses {
		if du, ok := out[eu.pred]; ok {
			if !du.Def[eu.local] {
				du.Use[eu.local] = true
			}
		}
	}
	return out
}

// Liveness holds, for one BB, the locals live on entry and on exit.
type Liveness struct {
	LiveIn  map[ir.LocalId]bool
	LiveOut map[ir.LocalId]bool
}

// ComputeLiveness iterates the standard backward dataflow equations —
// live_out[bb] = union of live_in[succ]; live_in[bb] = use[bb] ∪
// (live_out[bb] \ def[bb]) — in reverse RPO to a fixed point.
func ComputeLiveness(f *ir.Func, defUse map[ir.BasicBlockId]*DefUse) map[ir.BasicBlockId]*Liveness {
	g := cfg.FuncGraph(f)
	rpo := cfg.ReversePostorder(g)

	order := make([]ir.BasicBlockId, 0, len(rpo))
	for id := range rpo {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return rpo[order[i]] < rpo[order[j]] })

	live :=make(map[ir.BasicBlockId]*Liveness, len(order))
	for _, id := range order {
		live[id] = &Liveness{LiveIn: map[ir.LocalId]bool{}, LiveOut: map[ir.LocalId]bool{}}
	}

	changed := true
	for changed {
		changed = false
		// reverse RPO: process higher rpo numbers (further from entry) first
		for i := len(order) - 1; i >= 0; i-- {
			id := order[i]
			bb := f.BB(id)
			newOut := map[ir.LocalId]bool{}
			for s := range ir.Successors(bb.Next) {
				if sl, ok := live[s]; ok {
					for l := range sl.LiveIn {
						newOut[l] = true
					}
				}
			}
			du := defUse[id]
			newIn := map[ir.LocalId]bool{}
			for l := range du.Use {
				newIn[l] = true
			}
			for l := range newOut {
				if !du.Def[l] {
					newIn[l] = true
				}
			}
			l := live[id]
			if !setEqual(l.LiveOut, newOut) || !setEqual(l.LiveIn, newIn) {
				l.LiveOut = newOut
				l.LiveIn = newIn
				changed = true
			}
		}
	}
	return live
}

func setEqual(a, b map[ir.LocalId]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
