package specializer

import (
	"testing"

	"github.com/wippyai/lispjit/ir"
	"github.com/wippyai/lispjit/layout"
)

func TestRewriteInstrPadsEntrypointTableWithStubGlobals(t *testing.T) {
	state := NewState(layout.DefaultLimits())
	module := ir.NewModule(0)
	b := &bbBuilder{state: state, module: module}

	nf := ir.NewFunc(0, ir.TVal(ir.VNil()))
	existingRef := nf.Locals.Insert(ir.Local{Type: ir.LMutFuncRef()})
	dest := nf.Locals.Insert(ir.Local{Type: ir.LEntrypointTable()})
	instr := ir.Instr{Dest: dest, Kind: ir.EntrypointTable{MutRefs: []ir.LocalId{existingRef}}}

	out := b.rewriteInstr(nf, instr)
	if len(out) != state.Limits.MaxSize {
		t.Fatalf("rewriteInstr returned %d instrs, want %d (MaxSize-1 padding + final)", len(out), state.Limits.MaxSize)
	}

	final := out[len(out)-1]
	table, ok := final.Kind.(ir.EntrypointTable)
	if !ok {
		t.Fatalf("final instr.Kind = %T, want ir.EntrypointTable", final.Kind)
	}
	if len(table.MutRefs) != state.Limits.MaxSize {
		t.Fatalf("padded EntrypointTable has %d slots, want %d", len(table.MutRefs), state.Limits.MaxSize)
	}
	if table.MutRefs[0] != existingRef {
		t.Fatalf("slot 0 = %v, want the original caller-supplied ref %v", table.MutRefs[0], existingRef)
	}
	if table.MutRefs[1] == existingRef {
		t.Fatal("padded slots must be fresh locals, not the original ref repeated")
	}

	wantGlobals := state.Limits.MaxSize - 1
	if module.Globals.Len() != wantGlobals {
		t.Fatalf("module declares %d globals after padding, want %d (one stub per padded slot)", module.Globals.Len(), wantGlobals)
	}
	gid, ok := state.StubGlobals[1]
	if !ok {
		t.Fatal("padding slot 1 must lazily mint state.StubGlobals[1]")
	}
	g, ok := module.Globals.Get(gid)
	if !ok || g.Type.Kind != ir.LKMutFuncRef || g.Linkage != ir.LinkageExport {
		t.Fatalf("stub global for slot 1 = %+v, ok=%v, want MutFuncRef/export", g, ok)
	}
}

// buildClosureCallFunc builds a 2-arg func(closure Obj, n Int) whose single
// BB calls the closure with one concrete Int argument and returns the
// result, used to exercise specializeClosureCall's entrypoint-minting path.
func buildClosureCallFunc() (*ir.Func, ir.BasicBlockId) {
	f := ir.NewFunc(0, ir.TVal(ir.VInt()))
	closureArg := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TObj())})
	n := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	f.Args = []ir.LocalId{closureArg, n}

	result := f.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(ir.VInt()))})
	bb0 := f.BBs.Insert(ir.BasicBlock{})
	entry := f.BB(bb0)
	entry.Id = bb0
	entry.Instrs = []ir.Instr{{
		Dest: result,
		Kind: ir.CallClosure{
			Closure:   closureArg,
			Args:      []ir.LocalId{n},
			ArgTypes:  []ir.Type{ir.TVal(ir.VInt())},
			FuncIndex: 0,
		},
	}}
	entry.Next = ir.NextTerminator{Terminator: ir.ReturnExit{Value: result}}
	f.BBs.Set(bb0, entry)
	f.BBEntry = bb0
	return f, bb0
}

func TestBuildBBModuleSpecializesCallClosureAndInstallsLayerOneStub(t *testing.T) {
	f, bb0 := buildClosureCallFunc()
	src := ir.NewModule(0)
	fid := insertFunc(src, f)
	src.Entry = fid

	state := NewState(layout.DefaultLimits())
	BuildStubModule(state, ir.ModuleId(0), src)
	BuildFuncModule(state, ir.ModuleId(0), src, fid, 0)

	if state.ClosureLayout.Len() != 1 {
		t.Fatalf("closure layout has %d entries before any BB build, want 1 (variadic only)", state.ClosureLayout.Len())
	}

	bbMod := BuildBBModule(state, ir.ModuleId(0), src, fid, 0, bb0, state.Limits.DefaultIndex)

	if state.ClosureLayout.Len() != 2 {
		t.Fatalf("closure layout has %d entries after specializing one CallClosure, want 2", state.ClosureLayout.Len())
	}

	var sawSpecialized bool
	for id := range bbMod.Funcs.Keys() {
		body, _ := bbMod.Funcs.Get(id)
		for _, bb := range body.BBs.All() {
			for _, instr := range bb.Instrs {
				if cc, ok := instr.Kind.(ir.CallClosure); ok {
					if cc.FuncIndex == 0 {
						t.Fatal("CallClosure with all-concrete ArgTypes must not stay on the generic index 0")
					}
					sawSpecialized = true
				}
			}
		}
	}
	if !sawSpecialized {
		t.Fatal("expected the rewritten CallClosure to survive in the emitted BB module")
	}

	// body func + layer-1 closure stub + installer.
	if bbMod.Funcs.Len() != 3 {
		t.Fatalf("bb module has %d funcs, want 3 (body, closure stub, installer)", bbMod.Funcs.Len())
	}

	newIndex := -1
	for i := 0; i < state.Limits.MaxSize; i++ {
		if i == state.Limits.DefaultIndex {
			continue
		}
		if _, ok := state.StubGlobals[i]; ok {
			newIndex = i
			break
		}
	}
	if newIndex < 0 {
		t.Fatal("expected a newly minted entrypoint index's StubGlobals cell")
	}
	args, ok := state.ClosureLayout.FromIdx(newIndex)
	if !ok || args.Variadic || len(args.Types) != 1 || !args.Types[0].Equal(ir.TVal(ir.VInt())) {
		t.Fatalf("FromIdx(%d) = %+v, ok=%v, want specified(int)", newIndex, args, ok)
	}
	if _, ok := bbMod.Globals.Get(state.StubGlobals[newIndex]); !ok {
		t.Fatal("bb module must declare the rebound stub global for the newly minted index")
	}
}
