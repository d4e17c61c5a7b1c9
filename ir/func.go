package ir

import (
	"iter"

	"github.com/wippyai/lispjit/compilerpanic"
)

// Func is one function body: an SSA control-flow graph of BasicBlocks
// over a shared pool of Locals. BBs never reference each other by
// pointer — only by BasicBlockId — and Locals are likewise referenced
// only by LocalId; a Func is a self-contained value, safe to clone and
// hand to the specializer.
type Func struct {
	Id      FuncId
	Args    []LocalId
	RetType Type
	Locals  *Container[LocalId, Local]
	BBEntry BasicBlockId
	BBs     *Container[BasicBlockId, BasicBlock]
}

// NewFunc returns an empty Func ready for BBs/Locals to be inserted into.
func NewFunc(id FuncId, retType Type) *Func {
	return &Func{
		Id:      id,
		RetType: retType,
		Locals:  NewContainer[LocalId, Local](),
		BBs:     NewContainer[BasicBlockId, BasicBlock](),
	}
}

// LocalType looks up the type of a local, panicking (a compiler bug, not
// a recoverable error) if it names no live local.
func (f *Func) LocalType(id LocalId) LocalType {
	l, ok := f.Locals.Get(id)
	if !ok {
		compilerpanic.Failf(compilerpanic.PhaseSSA, compilerpanic.KindUnknownID,
			"local %s not found in func %s", id, f.Id)
	}
	return l.Type
}

// ArgTypes returns the LocalType of each formal argument in order.
func (f *Func) ArgTypes() []LocalType {
	out := make([]LocalType, len(f.Args))
	for i, a := range f.Args {
		out[i] = f.LocalType(a)
	}
	return out
}

// FuncType derives the function's static signature from its argument and
// return types. Args whose LocalType isn't a plain Type(Type) (e.g. a
// VariadicArgs or EntrypointTable slot) contribute TObj(), since those
// shapes are JIT-internal plumbing rather than part of the value-level
// calling convention CallRef reasons about.
func (f *Func) FuncType() FuncType {
	args := make([]Type, len(f.Args))
	for i, lt := range f.ArgTypes() {
		if lt.Kind == LKType {
			args[i] = lt.Elem
		} else {
			args[i] = TObj()
		}
	}
	return FuncType{Args: args, Ret: f.RetType}
}

// BB looks up a basic block, panicking if it names no live block.
func (f *Func) BB(id BasicBlockId) BasicBlock {
	bb, ok := f.BBs.Get(id)
	if !ok {
		compilerpanic.Failf(compilerpanic.PhaseSSA, compilerpanic.KindUnknownID,
			"bb %s not found in func %s", id, f.Id)
	}
	return bb
}

// BBIds iterates every live BasicBlockId in Id order (not reachability
// order — use cfg.ReversePostorder for that).
func (f *Func) BBIds() iter.Seq[BasicBlockId] { return f.BBs.Keys() }

// LocalIds iterates every live LocalId in Id order.
func (f *Func) LocalIds() iter.Seq[LocalId] { return f.Locals.Keys() }

// FuncIDs iterates every FuncId referenced anywhere in the function's
// reachable-or-not instruction set.
func (f *Func) FuncIDs(yield func(FuncId) bool) {
	for _, bb := range f.BBs.All() {
		for _, instr := range bb.Instrs {
			stop := false
			instr.FuncIDs(func(id FuncId) bool {
				if !yield(id) {
					stop = true
					return false
				}
				return true
			})
			if stop {
				return
			}
		}
	}
}
