package specializer

import (
	"testing"

	"github.com/wippyai/lispjit/ir"
)

// buildBranchyFunc builds: bb0(args a:Obj, b:Int) -- Is(Int, a) --> bb1 | bb2
// bb1 returns a boxed-back sum; bb2 returns b. Used across specializer
// tests that need a BB with a live-in Obj local worth narrowing.
func buildBranchyFunc() *ir.Func {
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
	return f
}

func TestComputeBBArgsLiveInOrderAndTypeParams(t *testing.T) {
	f := buildBranchyFunc()
	info := computeBBArgs(f)

	entry := info[f.BBEntry]
	if len(entry.args) != 2 {
		t.Fatalf("entry live-in args = %v, want both a and b live", entry.args)
	}
	if len(entry.typeParams) != 1 || f.LocalType(entry.typeParams[0]).Elem.IsObj() == false {
		t.Fatalf("entry.typeParams = %v, want exactly the one Obj-typed live-in", entry.typeParams)
	}
}

func TestFuncTypeForLocalsContributesObjForNonPlainLocal(t *testing.T) {
	f := ir.NewFunc(0, ir.TVal(ir.VNil()))
	plain := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	variadic := f.Locals.Insert(ir.Local{Type: ir.LVariadicArgs()})

	ft := funcTypeForLocals(f, []ir.LocalId{plain, variadic}, ir.TVal(ir.VNil()))
	if !ft.Args[0].Equal(ir.TVal(ir.VInt())) {
		t.Fatalf("Args[0] = %v, want val(int)", ft.Args[0])
	}
	if !ft.Args[1].Equal(ir.TObj()) {
		t.Fatalf("Args[1] = %v, want obj for a non-LKType local", ft.Args[1])
	}
}
