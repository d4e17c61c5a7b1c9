package specializer

import (
	"testing"

	"github.com/wippyai/lispjit/ir"
)

func TestCloneFuncPreservesIdsAndIsIndependent(t *testing.T) {
	f := ir.NewFunc(3, ir.TVal(ir.VInt()))
	a := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	f.Args = []ir.LocalId{a}
	bb := f.BBs.Insert(ir.BasicBlock{})
	block := f.BB(bb)
	block.Id = bb
	block.Instrs = []ir.Instr{{Dest: ir.NoDest, Kind: ir.Nop{}}}
	block.Next = ir.NextTerminator{Terminator: ir.ReturnExit{Value: a}}
	f.BBs.Set(bb, block)
	f.BBEntry = bb

	clone := cloneFunc(f)

	if clone.Id != f.Id || clone.BBEntry != f.BBEntry {
		t.Fatalf("clone identity mismatch: Id=%v BBEntry=%v, want %v/%v", clone.Id, clone.BBEntry, f.Id, f.BBEntry)
	}
	if len(clone.Args) != 1 || clone.Args[0] != a {
		t.Fatalf("clone.Args = %v, want [%v]", clone.Args, a)
	}
	if got := clone.BB(bb); len(got.Instrs) != 1 {
		t.Fatalf("clone BB has %d instrs, want 1", len(got.Instrs))
	}

	// Mutating the clone must never reach back into the original: each
	// gets its own Locals/BBs containers.
	clone.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VBool()))})
	if f.Locals.Len() != 1 {
		t.Fatalf("original f.Locals.Len() = %d after mutating the clone, want unchanged 1", f.Locals.Len())
	}
}
