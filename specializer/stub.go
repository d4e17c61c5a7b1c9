package specializer

import "github.com/wippyai/lispjit/ir"

// BuildStubModule emits the module registered for src: one global per
// function (holding its current specialized FuncRef) and one stub
// function per function that, on first call, invokes InstantiateFunc and
// then tail-calls through the freshly reloaded global. Only the very
// first call across the lifetime of state reserves the MaxSize closure
// entrypoint stub globals and the instantiate_func_global; every later
// stub module just imports them, so cross-module references keep
// resolving to the same cells.
func BuildStubModule(state *State, srcID ir.ModuleId, src *ir.Module) *ir.Module {
	first := len(state.StubGlobals) == 0
	if first {
		for i := 0; i < state.Limits.MaxSize; i++ {
			state.StubGlobals[i] = state.NewGlobal()
		}
		state.InstantiateFuncGlobal = state.NewGlobal()
		state.HaveInstantiateGlobal = true
	}
	reserveLinkage := ir.LinkageImport
	if first {
		reserveLinkage = ir.LinkageExport
	}

	var moduleEntry ir.FuncId
	module := ir.NewModule(0)

	for i := 0; i < state.Limits.MaxSize; i++ {
		gid := state.StubGlobals[i]
		module.Globals.InsertAt(gid, ir.Global{Id: gid, Type: ir.LMutFuncRef(), Linkage: reserveLinkage})
	}
	module.Globals.InsertAt(state.InstantiateFuncGlobal, ir.Global{
		Id: state.InstantiateFuncGlobal, Type: ir.LFuncRef(), Linkage: reserveLinkage,
	})

	for fid := range src.Funcs.Keys() {
		srcFunc, _ := src.Funcs.Get(fid)
		ft := srcFunc.FuncType()
		key := FuncKey{Module: srcID, Func: fid}
		gid, ok := state.FuncGlobals[key]
		if !ok {
			gid = state.NewGlobal()
			state.FuncGlobals[key] = gid
		}
		module.Globals.InsertAt(gid, ir.Global{Id: gid, Type: ir.LFuncRef(), Linkage: ir.LinkageExport})

		fb := newFuncBuilder(0, ft.Ret)
		argLocals := make([]ir.LocalId, len(ft.Args))
		for i, t := range ft.Args {
			argLocals[i] = fb.arg(ir.LType(t))
		}
		entry := fb.newBB()
		fb.entry(entry)
		fb.stmt(entry, ir.InstantiateFunc{Module: srcID, Func: fid, FuncIndex: 0})
		ref := fb.local(ir.LFuncRef())
		fb.emit(entry, ref, ir.GlobalGet{Global: gid})
		fb.setNext(entry, ir.NextTerminator{Terminator: ir.TailCallRefExit{
			Call: ir.CallRef{Func: ref, Args: argLocals, FuncType: ft},
		}})

		stubID := insertFunc(module, fb.build())
		if fid == src.Entry {
			moduleEntry = stubID
		}
	}

	module.Entry = moduleEntry
	return module
}
