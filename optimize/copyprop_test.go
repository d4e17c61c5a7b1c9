package optimize

import (
	"testing"

	"github.com/wippyai/lispjit/ir"
)

func TestCopyPropagationFollowsMoveChainToRoot(t *testing.T) {
	f := ir.NewFunc(0, ir.TVal(ir.VInt()))
	bb := f.BBs.Insert(ir.BasicBlock{})
	block := f.BB(bb)
	block.Id = bb

	root := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	mid := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	sum := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	f.Args = []ir.LocalId{root}

	block.Instrs = []ir.Instr{
		{Dest: mid, Kind: ir.Move{Src: root}},
		{Dest: sum, Kind: ir.BinArith{Op: ir.OpAddInt, L: mid, R: mid}},
	}
	block.Next = ir.NextTerminator{Terminator: ir.ReturnExit{Value: sum}}
	f.BBs.Set(bb, block)
	f.BBEntry = bb

	if !CopyPropagation(f) {
		t.Fatal("CopyPropagation should report a change when it rewrites a Move chain's use")
	}
	got := f.BB(bb).Instrs[1].Kind.(ir.BinArith)
	if got.L != root || got.R != root {
		t.Fatalf("BinArith operands = (%v, %v), want both rewritten to root %v", got.L, got.R, root)
	}
}

func TestCopyPropagationLeavesUnrelatedInstrsAlone(t *testing.T) {
	f := ir.NewFunc(0, ir.TVal(ir.VInt()))
	bb := f.BBs.Insert(ir.BasicBlock{})
	block := f.BB(bb)
	block.Id = bb

	a := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	f.Args = []ir.LocalId{a}
	block.Next = ir.NextTerminator{Terminator: ir.ReturnExit{Value: a}}
	f.BBs.Set(bb, block)
	f.BBEntry = bb

	if CopyPropagation(f) {
		t.Fatal("CopyPropagation must report no change on a func with no Moves or collapsible Phis")
	}
}
