package optimize

import (
	"github.com/wippyai/lispjit/ir"
	"github.com/wippyai/lispjit/ssa"
)

// RedundantObjElimination rewrites ToObj(t, x) to Move(o) when x's
// non-Move definition is FromObj(t, o) with a matching type tag, and the
// symmetric case for FromObj(t, o) whose o is ToObj(t, x). Mismatched
// tags are left alone deliberately: they only arise in dead branches, so
// there is nothing unsound about leaving them for DCE to clean up once
// unreachable.
func RedundantObjElimination(f *ir.Func) bool {
	chain := ssa.Build(f)
	changed := false
	for id := range f.BBIds() {
		bb := f.BB(id)
		newInstrs := make([]ir.Instr, len(bb.Instrs))
		for i, instr := range bb.Instrs {
			newInstrs[i] = instr
			switch k := instr.Kind.(type) {
			case ir.ToObj:
				if def, ok := chain.GetDefNonMoveExpr(k.Value); ok {
					if fo, ok := def.(ir.FromObj); ok && fo.Type.Equal(k.Type) {
						newInstrs[i] = ir.Instr{Dest: instr.Dest, Kind: ir.Move{Src: fo.Value}}
						changed = true
					}
				}
			case ir.FromObj:
				if def, ok := chain.GetDefNonMoveExpr(k.Value); ok {
					if to, ok := def.(ir.ToObj); ok && to.Type.Equal(k.Type) {
						newInstrs[i] = ir.Instr{Dest: instr.Dest, Kind: ir.Move{Src: to.Value}}
						changed = true
					}
				}
			}
		}
		bb.Instrs = newInstrs
		f.BBs.Set(id, bb)
	}
	return changed
}
