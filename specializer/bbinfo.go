package specializer

import (
	"sort"

	"github.com/wippyai/lispjit/dataflow"
	"github.com/wippyai/lispjit/ir"
)

// bbArgs is one BB's calling-convention shape once it's compiled down to a
// standalone function of its own: args in a canonical (ascending LocalId)
// order, and the subset of those whose static type is Obj — the type
// parameters a BB-module instantiation can narrow to a concrete ValType.
type bbArgs struct {
	args       []ir.LocalId
	typeParams []ir.LocalId
}

// computeBBArgs derives bbArgs for every BB of f from its live-in sets: a
// BB's live-in locals are exactly the values any specialized standalone
// function compiled for it must receive as arguments, since nothing else
// is defined before control reaches it.
func computeBBArgs(f *ir.Func) map[ir.BasicBlockId]bbArgs {
	defUse := dataflow.Compute(f)
	liveness := dataflow.ComputeLiveness(f, defUse)

	out := make(map[ir.BasicBlockId]bbArgs, len(liveness))
	for id, lv := range liveness {
		args := make([]ir.LocalId, 0, len(lv.LiveIn))
		for l := range lv.LiveIn {
			args = append(args, l)
		}
		sort.Slice(args, func(i, j int) bool { return args[i] < args[j] })

		var params []ir.LocalId
		for _, a := range args {
			if f.LocalType(a).Kind == ir.LKType && f.LocalType(a).Elem.IsObj() {
				params = append(params, a)
			}
		}
		out[id] = bbArgs{args: args, typeParams: params}
	}
	return out
}

// argTypesForLocals reads back the current LocalType of each local in ids,
// in order — the signature a BB-stub or BB-body function compiled against
// f's current typing must declare.
func argTypesForLocals(f *ir.Func, ids []ir.LocalId) []ir.LocalType {
	out := make([]ir.LocalType, len(ids))
	for i, id := range ids {
		out[i] = f.LocalType(id)
	}
	return out
}

// funcTypeForLocals derives the CallRef/FuncType signature for passing ids
// as a standalone function's args: a plain Type(Type) local contributes its
// own Type, and a VariadicArgs/EntrypointTable-shaped local (a downstream BB
// can still have the original function's variadic-args value live-in)
// contributes TObj(), mirroring Func.FuncType's own convention.
func funcTypeForLocals(f *ir.Func, ids []ir.LocalId, ret ir.Type) ir.FuncType {
	args := make([]ir.Type, len(ids))
	for i, id := range ids {
		lt := f.LocalType(id)
		if lt.Kind == ir.LKType {
			args[i] = lt.Elem
		} else {
			args[i] = ir.TObj()
		}
	}
	return ir.FuncType{Args: args, Ret: ret}
}
