package jit

import (
	"testing"

	"github.com/wippyai/lispjit/ir"
	"github.com/wippyai/lispjit/layout"
)

// mustInsertFunc inserts f into funcs and stamps the resulting container
// key back onto the stored copy's Id field, the same discipline
// specializer.insertFunc uses for every module-tier builder.
func mustInsertFunc(funcs *ir.Container[ir.FuncId, ir.Func], f *ir.Func) ir.FuncId {
	id := funcs.Insert(*f)
	stored, _ := funcs.Get(id)
	stored.Id = id
	funcs.Set(id, stored)
	return id
}

// buildBranchySource builds a tiny source module: one function of two
// args (a: Obj, b: Int) whose entry BB tests Is(Int, a) and either
// unboxes and returns a (bb1) or returns b unchanged (bb2). It exercises
// every BB-module lowering case this package's Orchestrator routes to:
// the Is-narrowed Then arm, the untouched Else arm, and (via repeated
// IncrementBranchCounter calls) the dominant-branch collapse.
func buildBranchySource(t *testing.T) (*ir.Module, ir.FuncId, ir.BasicBlockId, ir.BasicBlockId, ir.BasicBlockId) {
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

	module := ir.NewModule(0)
	fid := mustInsertFunc(module.Funcs, f)
	module.Entry = fid
	return module, fid, bb0, bb1, bb2
}

func TestOrchestratorRegisterModuleEmitsOneStubPerFunc(t *testing.T) {
	src, fid, _, _, _ := buildBranchySource(t)
	orch := NewOrchestrator(layout.DefaultLimits())

	_, stub := orch.RegisterModule(src)
	if stub.Funcs.Len() != 1 {
		t.Fatalf("stub module has %d funcs, want 1 (one per source func)", stub.Funcs.Len())
	}
	if _, ok := stub.Funcs.Get(stub.Entry); !ok {
		t.Fatal("stub.Entry must name a live func in the stub module")
	}
	_ = fid
}

func TestOrchestratorInstantiateFuncEmitsBodyAndPerBBStubs(t *testing.T) {
	src, fid, _, _, _ := buildBranchySource(t)
	orch := NewOrchestrator(layout.DefaultLimits())
	module, _ := orch.RegisterModule(src)
	_ = module

	funcMod := orch.InstantiateFunc(ir.ModuleId(0), fid, 0)
	// one thin body wrapper + one default stub per BB (3 BBs) + installer
	if funcMod.Funcs.Len() != 5 {
		t.Fatalf("func module has %d funcs, want 5 (body + 3 bb stubs + installer)", funcMod.Funcs.Len())
	}
}

func TestOrchestratorInstantiateBBNarrowsThenArmAndReusesDefaultElseSlot(t *testing.T) {
	src, fid, bb0, _, _ := buildBranchySource(t)
	orch := NewOrchestrator(layout.DefaultLimits())
	orch.RegisterModule(src)
	orch.InstantiateFunc(ir.ModuleId(0), fid, 0)

	bbMod := orch.InstantiateBB(ir.ModuleId(0), fid, 0, bb0, 0)
	// body (with its Then/Else trampoline BBs) + one freshly minted
	// narrowed slot for bb1 (the Is-narrowed Then target) + installer.
	// bb2 (the Else target) carries no narrowing and its type-param
	// list is empty, so it resolves to the already-seeded default slot
	// and needs no new stub here.
	if bbMod.Funcs.Len() != 3 {
		t.Fatalf("bb module has %d funcs, want 3 (body + 1 new narrowed slot + installer)", bbMod.Funcs.Len())
	}
	if bbMod.Globals.Len() != 2 {
		t.Fatalf("bb module declares %d globals, want 2 (bb0's own slot + bb1's freshly minted narrowed slot)", bbMod.Globals.Len())
	}
}

func TestOrchestratorIncrementBranchCounterIsEdgeTriggered(t *testing.T) {
	src, fid, bb0, _, _ := buildBranchySource(t)
	limits := layout.Limits{MaxSize: 32, DefaultIndex: 0, BranchThreshold: 2}
	orch := NewOrchestrator(limits)
	orch.RegisterModule(src)
	orch.InstantiateFunc(ir.ModuleId(0), fid, 0)
	orch.InstantiateBB(ir.ModuleId(0), fid, 0, bb0, 0)

	mod, ok := orch.IncrementBranchCounter(ir.ModuleId(0), fid, 0, bb0, ir.BranchThen, bb0, 0)
	if ok || mod != nil {
		t.Fatal("first increment (count 1 of 2) must not yet trigger re-specialization")
	}

	mod, ok = orch.IncrementBranchCounter(ir.ModuleId(0), fid, 0, bb0, ir.BranchThen, bb0, 0)
	if !ok || mod == nil {
		t.Fatal("second increment crossing BranchThreshold=2 must trigger re-specialization")
	}
	// Collapsed straight to the dominant (Then) branch: body + installer,
	// no new slot minted since the literal-dominant-branch path doesn't
	// apply Is-narrowing and bb1's default slot already exists.
	if mod.Funcs.Len() != 2 {
		t.Fatalf("re-specialized bb module has %d funcs, want 2 (collapsed body + installer)", mod.Funcs.Len())
	}

	mod, ok = orch.IncrementBranchCounter(ir.ModuleId(0), fid, 0, bb0, ir.BranchThen, bb0, 0)
	if ok || mod != nil {
		t.Fatal("once already eligible, further increments must return (nil, false)")
	}
}

func TestOrchestratorStatsReflectsActivity(t *testing.T) {
	src, fid, bb0, _, _ := buildBranchySource(t)
	orch := NewOrchestrator(layout.DefaultLimits())
	orch.RegisterModule(src)
	orch.InstantiateFunc(ir.ModuleId(0), fid, 0)
	orch.InstantiateBB(ir.ModuleId(0), fid, 0, bb0, 0)

	stats := orch.Stats()
	if stats.InstantiatedFuncs != 1 {
		t.Fatalf("InstantiatedFuncs = %d, want 1", stats.InstantiatedFuncs)
	}
	if stats.InstantiatedBBs == 0 {
		t.Fatal("InstantiatedBBs should count at least the slots minted by InstantiateBB")
	}
}
