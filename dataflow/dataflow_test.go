package dataflow

import (
	"testing"

	"github.com/wippyai/lispjit/ir"
)

// buildBranchy builds bb0(a: Obj, b: Int) --Is(Int,a)--> bb1 | bb2; bb1
// unboxes a and returns it, bb2 returns b untouched.
func buildBranchy(t *testing.T) (*ir.Func, ir.BasicBlockId, ir.BasicBlockId, ir.BasicBlockId, ir.LocalId, ir.LocalId) {
	t.Helper()
	f := ir.NewFunc(0, ir.TVal(ir.VInt()))
	a := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TObj())})
	b := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	f.Args = []ir.LocalId{a, b}

	cond := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VBool()))})
	bb0 := f.BBs.Insert(ir.BasicBlock{})
	bb1 := f.BBs.Insert(ir.BasicBlock{})
	bb2 := f.BBs.Insert(ir.BasicBlock{})

	entry := f.BB(bb0)
	entry.Id = bb0
	entry.Instrs = []ir.Instr{{Dest: cond, Kind: ir.Is{Type: ir.VInt(), Value: a}}}
	entry.Next = ir.NextIf{Cond: cond, Then: bb1, Else: bb2}
	f.BBs.Set(bb0, entry)

	unboxed := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	thenBlock := f.BB(bb1)
	thenBlock.Id = bb1
	thenBlock.Instrs = []ir.Instr{{Dest: unboxed, Kind: ir.FromObj{Type: ir.VInt(), Value: a}}}
	thenBlock.Next = ir.NextTerminator{Terminator: ir.ReturnExit{Value: unboxed}}
	f.BBs.Set(bb1, thenBlock)

	elseBlock := f.BB(bb2)
	elseBlock.Id = bb2
	elseBlock.Next = ir.NextTerminator{Terminator: ir.ReturnExit{Value: b}}
	f.BBs.Set(bb2, elseBlock)

	f.BBEntry = bb0
	return f, bb0, bb1, bb2, a, b
}

func TestComputeDefUseSeparatesDefAndUpwardExposedUse(t *testing.T) {
	f, bb0, bb1, _, a, _ := buildBranchy(t)
	du := Compute(f)

	if !du[bb0].Def[f.BB(bb0).Instrs[0].Dest] {
		t.Fatal("bb0 must define its Is result")
	}
	if !du[bb0].Use[a] {
		t.Fatal("bb0 must record the use of arg a in its Is test")
	}
	if !du[bb1].Use[a] {
		t.Fatal("bb1 uses a (from FromObj) before any local def, so it belongs in bb1's use set")
	}
}

func TestComputeLivenessEntryLiveInIsBothArgs(t *testing.T) {
	f, bb0, _, _, a, b := buildBranchy(t)
	du := Compute(f)
	live := ComputeLiveness(f, du)

	in := live[bb0].LiveIn
	if !in[a] || !in[b] {
		t.Fatalf("LiveIn(bb0) = %v, want both a and b live on entry", in)
	}
}

func TestComputeLivenessJoinlessArmsDontLeakEachOthersLocals(t *testing.T) {
	f, _, bb1, bb2, a, b := buildBranchy(t)
	du := Compute(f)
	live := ComputeLiveness(f, du)

	if !live[bb1].LiveIn[a] {
		t.Fatal("bb1 must have a live-in (it unboxes a)")
	}
	if live[bb1].LiveIn[b] {
		t.Fatal("bb1 never reads b, so b should not be live-in")
	}
	if !live[bb2].LiveIn[b] {
		t.Fatal("bb2 must have b live-in (it returns b)")
	}
	if live[bb2].LiveIn[a] {
		t.Fatal("bb2 never reads a, so a should not be live-in")
	}
}
