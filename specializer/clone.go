package specializer

import "github.com/wippyai/lispjit/ir"

// cloneFunc copies f into a fresh Func with its own Locals/BBs containers,
// preserving every LocalId/BasicBlockId exactly (via InsertAt) so none of
// the copied instructions need remapping. The specializer needs this
// because a source Func is shared across every specialization of it — the
// func-module tier rewrites formal args and runs the optimizer on its own
// private copy, never touching the Module the orchestrator registered.
func cloneFunc(f *ir.Func) *ir.Func {
	nf := ir.NewFunc(f.Id, f.RetType)
	nf.Args = append([]ir.LocalId{}, f.Args...)
	for id, l := range f.Locals.All() {
		nf.Locals.InsertAt(id, l)
	}
	for id, bb := range f.BBs.All() {
		nf.BBs.InsertAt(id, ir.BasicBlock{
			Id:     bb.Id,
			Instrs: append([]ir.Instr{}, bb.Instrs...),
			Next:   bb.Next,
		})
	}
	nf.BBEntry = f.BBEntry
	return nf
}
