// Package optimize implements the SSA optimizer: copy propagation,
// CSE, redundant obj/val round-trip elimination, constant folding, DCE,
// and module-scope inlining, driven to a fixed point by Run.
package optimize

import (
	"github.com/wippyai/lispjit/cfg"
	"github.com/wippyai/lispjit/ir"
)

// CopyPropagation rewrites every use of a Move's or a collapsible Phi's
// destination to its ultimate root source, visiting BBs in RPO order. It
// never removes the Move or Phi itself — that's DCE's job once nothing
// reads them anymore. Returns whether it changed anything.
func CopyPropagation(f *ir.Func) bool {
	g := cfg.FuncGraph(f)
	rpo := cfg.ReversePostorder(g)
	order := orderedByRPO(f, rpo)

	copies := map[ir.LocalId]ir.LocalId{}
	follow := func(l ir.LocalId) ir.LocalId {
		for {
			root, ok := copies[l]
			if !ok {
				return l
			}
			l = root
		}
	}

	changed := false
	for _, id := range order {
		bb := f.BB(id)
		newInstrs := make([]ir.Instr, len(bb.Instrs))
		for i, instr := range bb.Instrs {
			rewritten := ir.MapOperands(instr.Kind, follow)
			if !sameOperands(instr.Kind, rewritten) {
				changed = true
			}
			newInstrs[i] = ir.Instr{Dest: instr.Dest, Kind: rewritten}

			if mv, ok := rewritten.(ir.Move); ok && instr.HasDest() {
				copies[instr.Dest] = follow(mv.Src)
			} else if phi, ok := rewritten.(ir.Phi); ok && instr.HasDest() && !phi.NonExhaustive && len(phi.Incomings) > 0 {
				root := follow(phi.Incomings[0].Local)
				collapsible := true
				for _, in := range phi.Incomings[1:] {
					if follow(in.Local) != root {
						collapsible = false
						break
					}
				}
				if collapsible {
					copies[instr.Dest] = root
				}
			}
		}
		bb.Instrs = newInstrs
		f.BBs.Set(id, bb)
		if nextRewritten, ok := rewriteNext(bb.Next, follow); ok {
			bb.Next = nextRewritten
			f.BBs.Set(id, bb)
			changed = true
		}
	}
	return changed
}

// orderedByRPO returns every live BBId of f sorted by ascending RPO
// number (unreachable BBs, absent from rpo, are appended afterward in Id
// order so passes still touch them deterministically rather than silently
// skipping dead code the CFG hasn't pruned yet).
func orderedByRPO(f *ir.Func, rpo map[ir.BasicBlockId]int) []ir.BasicBlockId {
	var reachable, rest []ir.BasicBlockId
	for id := range f.BBIds() {
		if _, ok := rpo[id]; ok {
			reachable = append(reachable, id)
		} else {
			rest = append(rest, id)
		}
	}
	insertionSortByRPO(reachable, rpo)
	return append(reachable, rest...)
}

func insertionSortByRPO(ids []ir.BasicBlockId, rpo map[ir.BasicBlockId]int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && rpo[ids[j-1]] > rpo[ids[j]]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

func rewriteNext(next ir.BasicBlockNext, follow func(ir.LocalId) ir.LocalId) (ir.BasicBlockNext, bool) {
	switch n := next.(type) {
	case ir.NextIf:
		nc := follow(n.Cond)
		if nc == n.Cond {
			return next, false
		}
		return ir.NextIf{Cond: nc, Then: n.Then, Else: n.Else}, true
	case ir.NextTerminator:
		switch t := n.Terminator.(type) {
		case ir.ReturnExit:
			nv := follow(t.Value)
			if nv == t.Value {
				return next, false
			}
			return ir.NextTerminator{Terminator: ir.ReturnExit{Value: nv}}, true
		case ir.TailCallExit:
			rewritten := ir.MapOperands(t.Call, follow).(ir.Call)
			return ir.NextTerminator{Terminator: ir.TailCallExit{Call: rewritten}}, !sameOperands(t.Call, rewritten)
		case ir.TailCallRefExit:
			rewritten := ir.MapOperands(t.Call, follow).(ir.CallRef)
			return ir.NextTerminator{Terminator: ir.TailCallRefExit{Call: rewritten}}, !sameOperands(t.Call, rewritten)
		case ir.TailCallClosureExit:
			rewritten := ir.MapOperands(t.Call, follow).(ir.CallClosure)
			return ir.NextTerminator{Terminator: ir.TailCallClosureExit{Call: rewritten}}, !sameOperands(t.Call, rewritten)
		case ir.ErrorExit:
			nv := follow(t.Message)
			if nv == t.Message {
				return next, false
			}
			return ir.NextTerminator{Terminator: ir.ErrorExit{Message: nv}}, true
		}
	}
	return next, false
}

// sameOperands is a cheap (usually-accurate) change detector: it compares
// the rendered textual form of before/after, which is good enough to
// decide whether to keep iterating the fixed-point loop without needing
// a deep-equality method on every InstrKind variant.
func sameOperands(a, b ir.InstrKind) bool {
	n := ir.NewNamer(nil, 0)
	return ir.RenderInstrKind(a, n) == ir.RenderInstrKind(b, n)
}
