package optimize

import (
	"testing"

	"github.com/wippyai/lispjit/ir"
)

func TestConstantFoldFoldsIntArith(t *testing.T) {
	f := ir.NewFunc(0, ir.TVal(ir.VInt()))
	bb := f.BBs.Insert(ir.BasicBlock{})
	block := f.BB(bb)
	block.Id = bb

	l := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	r := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	sum := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})

	block.Instrs = []ir.Instr{
		{Dest: l, Kind: ir.ConstInt{Value: 3}},
		{Dest: r, Kind: ir.ConstInt{Value: 4}},
		{Dest: sum, Kind: ir.BinArith{Op: ir.OpAddInt, L: l, R: r}},
	}
	block.Next = ir.NextTerminator{Terminator: ir.ReturnExit{Value: sum}}
	f.BBs.Set(bb, block)
	f.BBEntry = bb

	changed := ConstantFold(f)
	if !changed {
		t.Fatal("ConstantFold should report a change when it folds a literal BinArith")
	}

	got := f.BB(bb).Instrs[2]
	ci, ok := got.Kind.(ir.ConstInt)
	if !ok || ci.Value != 7 {
		t.Fatalf("folded instr = %#v, want ConstInt{7}", got.Kind)
	}
}

func TestConstantFoldLeavesNonLiteralArithAlone(t *testing.T) {
	f := ir.NewFunc(0, ir.TVal(ir.VInt()))
	bb := f.BBs.Insert(ir.BasicBlock{})
	block := f.BB(bb)
	block.Id = bb

	a := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	r := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	sum := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	f.Args = []ir.LocalId{a}

	block.Instrs = []ir.Instr{
		{Dest: r, Kind: ir.ConstInt{Value: 4}},
		{Dest: sum, Kind: ir.BinArith{Op: ir.OpAddInt, L: a, R: r}},
	}
	block.Next = ir.NextTerminator{Terminator: ir.ReturnExit{Value: sum}}
	f.BBs.Set(bb, block)
	f.BBEntry = bb

	if ConstantFold(f) {
		t.Fatal("ConstantFold must not fold a BinArith with a non-literal operand")
	}
}
