package specializer

import (
	"testing"

	"github.com/wippyai/lispjit/ir"
	"github.com/wippyai/lispjit/layout"
)

func TestBuildFuncModuleEmitsBodyWrapperPlusOneStubPerBB(t *testing.T) {
	f := buildBranchyFunc()
	src := ir.NewModule(0)
	fid := insertFunc(src, f)
	src.Entry = fid

	state := NewState(layout.DefaultLimits())
	funcMod := BuildFuncModule(state, ir.ModuleId(0), src, fid, 0)

	// body wrapper + one default stub per BB (3) + installer.
	if funcMod.Funcs.Len() != 5 {
		t.Fatalf("func module has %d funcs, want 5", funcMod.Funcs.Len())
	}
	if _, ok := funcMod.Funcs.Get(funcMod.Entry); !ok {
		t.Fatal("func module's Entry must name the installer func")
	}

	instKey := FuncInstanceKey{Module: ir.ModuleId(0), Func: fid, FuncIndex: 0}
	if _, ok := state.PreparedFuncs[instKey]; !ok {
		t.Fatal("BuildFuncModule must record its prepared clone for the BB tier to read back")
	}
}

func TestBuildFuncModuleSeedsOneBBManagerPerBB(t *testing.T) {
	f := buildBranchyFunc()
	src := ir.NewModule(0)
	fid := insertFunc(src, f)
	src.Entry = fid

	state := NewState(layout.DefaultLimits())
	BuildFuncModule(state, ir.ModuleId(0), src, fid, 0)

	count := 0
	for key := range state.BBManagers {
		if key.Module == ir.ModuleId(0) && key.Func == fid && key.FuncIndex == 0 {
			count++
		}
	}
	if count != 3 {
		t.Fatalf("expected one BBIndexManager per BB (3), got %d", count)
	}
}
