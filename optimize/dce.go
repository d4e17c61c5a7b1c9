package optimize

import (
	"github.com/wippyai/lispjit/ir"
	"github.com/wippyai/lispjit/ssa"
)

// DCE removes every instruction whose destination has a zero use count
// and whose Purity permits it, propagating through a worklist so that
// dropping one instruction can make its operands' producers dead in
// turn. It never touches a BasicBlockNext's own operands (a branch
// condition or tail-call/return value is always "used" by definition)
// and it leaves destinationless statements (kept only for effect) alone
// regardless of purity. Returns whether anything was removed.
func DCE(f *ir.Func) bool {
	chain := ssa.Build(f)
	useCount := map[ir.LocalId]int{}
	var dests []ir.LocalId

	for id := range f.BBIds() {
		bb := f.BB(id)
		for _, instr := range bb.Instrs {
			if instr.HasDest() {
				dests = append(dests, instr.Dest)
			}
			instr.LocalUsages(func(u ir.Usage) bool {
				if u.Kind != ir.UseDefined {
					useCount[u.Local]++
				}
				return true
			})
		}
		for _, l := range nextOperands(bb.Next) {
			useCount[l]++
		}
	}

	dead := map[ir.LocalId]bool{}
	var worklist []ir.LocalId
	for _, d := range dests {
		if useCount[d] == 0 {
			worklist = append(worklist, d)
		}
	}

	changed := false
	for len(worklist) > 0 {
		l := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if dead[l] || useCount[l] != 0 {
			continue
		}
		site, ok := chain.GetDef(l)
		if !ok {
			continue
		}
		bb := f.BB(site.BB)
		instr := bb.Instrs[site.Index]
		if !instr.HasDest() || instr.Dest != l || !instr.Kind.Purity().CanDCE() {
			continue
		}
		dead[l] = true
		changed = true
		instr.LocalUsages(func(u ir.Usage) bool {
			if u.Kind == ir.UseDefined {
				return true
			}
			useCount[u.Local]--
			if useCount[u.Local] == 0 {
				worklist = append(worklist, u.Local)
			}
			return true
		})
	}

	if !changed {
		return false
	}

	for id := range f.BBIds() {
		bb := f.BB(id)
		kept := make([]ir.Instr, 0, len(bb.Instrs))
		for _, instr := range bb.Instrs {
			if instr.HasDest() && dead[instr.Dest] {
				chain.Remove(instr.Dest)
				continue
			}
			kept = append(kept, instr)
		}
		bb.Instrs = kept
		f.BBs.Set(id, bb)
	}
	return true
}

// nextOperands returns the LocalIds a BasicBlockNext reads directly: the
// branch condition, or the terminator's return/tail-call/error operands.
func nextOperands(next ir.BasicBlockNext) []ir.LocalId {
	switch n := next.(type) {
	case ir.NextIf:
		return []ir.LocalId{n.Cond}
	case ir.NextJump:
		return nil
	case ir.NextTerminator:
		switch t := n.Terminator.(type) {
		case ir.ReturnExit:
			return []ir.LocalId{t.Value}
		case ir.TailCallExit:
			return append([]ir.LocalId{}, t.Call.Args...)
		case ir.TailCallRefExit:
			ops := append([]ir.LocalId{t.Call.Func}, t.Call.Args...)
			return ops
		case ir.TailCallClosureExit:
			ops := append([]ir.LocalId{t.Call.Closure}, t.Call.Args...)
			return ops
		case ir.ErrorExit:
			return []ir.LocalId{t.Message}
		}
	}
	return nil
}
