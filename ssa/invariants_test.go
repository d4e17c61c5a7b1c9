package ssa

import (
	"testing"

	"github.com/wippyai/lispjit/ir"
)

func TestCheckInvariantsAcceptsAValidFunc(t *testing.T) {
	f := ir.NewFunc(0, ir.TVal(ir.VInt()))
	bb := f.BBs.Insert(ir.BasicBlock{})
	block := f.BB(bb)
	block.Id = bb
	local := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	block.Instrs = []ir.Instr{{Dest: local, Kind: ir.ConstInt{Value: 1}}}
	block.Next = ir.NextTerminator{Terminator: ir.ReturnExit{Value: local}}
	f.BBs.Set(bb, block)
	f.BBEntry = bb

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("CheckInvariants panicked on a valid func: %v", r)
		}
	}()
	CheckInvariants(f)
}

func TestCheckInvariantsCatchesUseNotDominatedByDef(t *testing.T) {
	f := ir.NewFunc(0, ir.TVal(ir.VInt()))
	bb0 := f.BBs.Insert(ir.BasicBlock{})
	bb1 := f.BBs.Insert(ir.BasicBlock{})

	// local is defined in bb1 but used (returned) from bb0, which bb1
	// does not dominate (bb1 doesn't even run before bb0).
	local := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})

	b0 := f.BB(bb0)
	b0.Id = bb0
	b0.Next = ir.NextTerminator{Terminator: ir.ReturnExit{Value: local}}
	f.BBs.Set(bb0, b0)

	b1 := f.BB(bb1)
	b1.Id = bb1
	b1.Instrs = []ir.Instr{{Dest: local, Kind: ir.ConstInt{Value: 1}}}
	nilLocal := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VNil()))})
	b1.Instrs = append(b1.Instrs, ir.Instr{Dest: nilLocal, Kind: ir.ConstNil{}})
	b1.Next = ir.NextTerminator{Terminator: ir.ReturnExit{Value: nilLocal}}
	f.BBs.Set(bb1, b1)

	f.BBEntry = bb0

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("CheckInvariants must panic on a use not dominated by its def")
		}
	}()
	CheckInvariants(f)
}

func TestCheckPurityMonotonicityCatchesRetainedPureDeadInstr(t *testing.T) {
	f := ir.NewFunc(0, ir.TVal(ir.VNil()))
	bb := f.BBs.Insert(ir.BasicBlock{})
	block := f.BB(bb)
	block.Id = bb
	nilLocal := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VNil()))})
	// a pure, destinationless ConstInt left lying around after DCE
	// should have been removed; its survival is a purity-monotonicity bug.
	block.Instrs = []ir.Instr{
		{Dest: ir.NoDest, Kind: ir.ConstInt{Value: 1}},
		{Dest: nilLocal, Kind: ir.ConstNil{}},
	}
	block.Next = ir.NextTerminator{Terminator: ir.ReturnExit{Value: nilLocal}}
	f.BBs.Set(bb, block)
	f.BBEntry = bb

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("CheckPurityMonotonicity must panic on a retained pure destinationless instr")
		}
	}()
	CheckPurityMonotonicity(f)
}
