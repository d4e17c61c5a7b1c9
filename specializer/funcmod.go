package specializer

import (
	"github.com/wippyai/lispjit/compilerpanic"
	"github.com/wippyai/lispjit/ir"
	"github.com/wippyai/lispjit/layout"
	"github.com/wippyai/lispjit/optimize"
)

// BuildFuncModule implements the specializer's second tier: instantiate_func
// for a (module, func, funcIndex) the stub tier's InstantiateFunc intrinsic
// named. funcIndex 0 keeps the source function's own [Closure, VariadicArgs]
// calling convention; funcIndex > 0 names a closure entrypoint signature
// from state's ClosureGlobalLayout, and the source body is wrapped so its
// formal args become [Closure, T1, ..., Tn] while the original body still
// sees a VariadicArgs value built from boxed copies of T1..Tn.
//
// The emitted module never contains a BB's real instructions — those are
// deferred to BuildBBModule. It publishes the rewritten Func's FuncRef into
// func_to_globals[fid] when funcIndex is the canonical (non-closure) 0
// entry, and unconditionally into instantiate_func_global — the cell the
// closure entrypoint stub (BuildBBModule's specializeClosureCall path)
// reads back after every InstantiateClosureFunc call regardless of which
// funcIndex it produced — and installs, in every BB's slot 0, a stub that
// calls InstantiateBB on first invocation and tail-calls through the
// reloaded slot after.
func BuildFuncModule(state *State, srcID ir.ModuleId, src *ir.Module, fid ir.FuncId, funcIndex int) *ir.Module {
	srcFunc, ok := src.Funcs.Get(fid)
	if !ok {
		compilerpanic.Failf(compilerpanic.PhaseSpecialize, compilerpanic.KindUnknownID,
			"instantiate_func: unknown func %s in module %s", fid, srcID)
	}
	cf := cloneFunc(&srcFunc)

	if funcIndex > 0 {
		args, ok := state.ClosureLayout.FromIdx(funcIndex)
		if !ok || args.Variadic {
			compilerpanic.Failf(compilerpanic.PhaseSpecialize, compilerpanic.KindUnknownID,
				"instantiate_func: func_index %d names no specified closure signature", funcIndex)
		}
		applyClosureArgRewrite(cf, args)
	}

	optimize.Run(cf, optimize.Options{CSE: false, FinalDCE: true})

	instKey := FuncInstanceKey{Module: srcID, Func: fid, FuncIndex: funcIndex}
	state.PreparedFuncs[instKey] = cf

	perBB := computeBBArgs(cf)

	if !state.HaveInstantiateGlobal {
		state.InstantiateFuncGlobal = state.NewGlobal()
		state.HaveInstantiateGlobal = true
	}

	module := ir.NewModule(0)
	funcKey := FuncKey{Module: srcID, Func: fid}
	funcGid, ok := state.FuncGlobals[funcKey]
	if !ok {
		funcGid = state.NewGlobal()
		state.FuncGlobals[funcKey] = funcGid
	}
	if funcIndex == 0 {
		module.Globals.InsertAt(funcGid, ir.Global{Id: funcGid, Type: ir.LFuncRef(), Linkage: ir.LinkageExport})
	}
	module.Globals.InsertAt(state.InstantiateFuncGlobal, ir.Global{
		Id: state.InstantiateFuncGlobal, Type: ir.LFuncRef(), Linkage: ir.LinkageExport,
	})

	bbDefaultGlobal := make(map[ir.BasicBlockId]ir.GlobalId, len(perBB))
	bbStubFunc := make(map[ir.BasicBlockId]ir.FuncId, len(perBB))

	for bbID := range cf.BBIds() {
		info := perBB[bbID]
		key := BBKey{Module: srcID, Func: fid, FuncIndex: funcIndex, BB: bbID}
		if _, ok := state.BBArgs[key]; !ok {
			state.BBArgs[key] = info.args
			state.BBTypeParams[key] = info.typeParams
		}

		var defaultGid ir.GlobalId
		if m, ok := state.BBManagers[key]; ok {
			_, g, _ := m.FromIdx(state.Limits.DefaultIndex)
			defaultGid = g.Id
		} else {
			defaultGid = state.NewGlobal()
			state.BBManagerFor(key, len(info.typeParams),
				ir.Global{Id: defaultGid, Type: ir.LFuncRef(), Linkage: ir.LinkageExport})
		}
		bbDefaultGlobal[bbID] = defaultGid
		module.Globals.InsertAt(defaultGid, ir.Global{Id: defaultGid, Type: ir.LFuncRef(), Linkage: ir.LinkageExport})

		ft := funcTypeForLocals(cf, info.args, cf.RetType)
		fb := newFuncBuilder(0, ft.Ret)
		argLocals := make([]ir.LocalId, len(info.args))
		for i, t := range ft.Args {
			argLocals[i] = fb.arg(ir.LType(t))
		}

		entry := fb.newBB()
		fb.entry(entry)
		fb.stmt(entry, ir.InstantiateBB{Module: srcID, Func: fid, FuncIndex: funcIndex, BB: bbID, Index: state.Limits.DefaultIndex})
		ref := fb.local(ir.LFuncRef())
		fb.emit(entry, ref, ir.GlobalGet{Global: defaultGid})
		fb.setNext(entry, ir.NextTerminator{Terminator: ir.TailCallRefExit{
			Call: ir.CallRef{Func: ref, Args: argLocals, FuncType: ft},
		}})

		bbStubFunc[bbID] = insertFunc(module, fb.build())
	}

	entryArgs := state.BBArgs[BBKey{Module: srcID, Func: fid, FuncIndex: funcIndex, BB: cf.BBEntry}]
	posOf := make(map[ir.LocalId]int, len(cf.Args))
	for i, a := range cf.Args {
		posOf[a] = i
	}

	bodyFt := cf.FuncType()
	bodyFb := newFuncBuilder(0, bodyFt.Ret)
	wrapperArgs := make([]ir.LocalId, len(cf.Args))
	for i, t := range bodyFt.Args {
		wrapperArgs[i] = bodyFb.arg(ir.LType(t))
	}
	callArgs := make([]ir.LocalId, len(entryArgs))
	for i, lid := range entryArgs {
		callArgs[i] = wrapperArgs[posOf[lid]]
	}
	wrapperEntry := bodyFb.newBB()
	bodyFb.entry(wrapperEntry)
	entryRef := bodyFb.local(ir.LFuncRef())
	bodyFb.emit(wrapperEntry, entryRef, ir.GlobalGet{Global: bbDefaultGlobal[cf.BBEntry]})
	bodyFb.setNext(wrapperEntry, ir.NextTerminator{Terminator: ir.TailCallRefExit{
		Call: ir.CallRef{Func: entryRef, Args: callArgs, FuncType: funcTypeForLocals(cf, entryArgs, cf.RetType)},
	}})
	bodyFuncID := insertFunc(module, bodyFb.build())

	installer := newFuncBuilder(0, ir.TVal(ir.VNil()))
	installEntry := installer.newBB()
	installer.entry(installEntry)

	bodyRefLocal := installer.local(ir.LFuncRef())
	installer.emit(installEntry, bodyRefLocal, ir.FuncRef{Func: bodyFuncID})
	if funcIndex == 0 {
		installer.stmt(installEntry, ir.GlobalSet{Global: funcGid, Value: bodyRefLocal})
	}
	installer.stmt(installEntry, ir.GlobalSet{Global: state.InstantiateFuncGlobal, Value: bodyRefLocal})

	for bbID := range cf.BBIds() {
		stubRefLocal := installer.local(ir.LFuncRef())
		installer.emit(installEntry, stubRefLocal, ir.FuncRef{Func: bbStubFunc[bbID]})
		installer.stmt(installEntry, ir.GlobalSet{Global: bbDefaultGlobal[bbID], Value: stubRefLocal})
	}

	nilLocal := installer.local(ir.LType(ir.TVal(ir.VNil())))
	installer.emit(installEntry, nilLocal, ir.ConstNil{})
	installer.setNext(installEntry, ir.NextTerminator{Terminator: ir.ReturnExit{Value: nilLocal}})

	module.Entry = insertFunc(module, installer.build())
	return module
}

// applyClosureArgRewrite rewrites cf in place from its source-level
// [Closure, VariadicArgs] calling convention to [Closure, T1, ..., Tn] for
// the given closure entrypoint signature, prepending a synthetic entry BB
// that boxes each unboxed T-typed arg and assembles a VariadicArgs value
// the original body still reads from, unmodified.
func applyClosureArgRewrite(cf *ir.Func, args layout.ClosureArgs) {
	if len(cf.Args) != 2 {
		compilerpanic.Failf(compilerpanic.PhaseSpecialize, compilerpanic.KindTypeMismatch,
			"closure-callable func %s must declare exactly [closure, variadic_args] args, got %d", cf.Id, len(cf.Args))
	}
	closureLocal := cf.Args[0]
	variadicLocal := cf.Args[1]

	newArgs := make([]ir.LocalId, 0, 1+len(args.Types))
	newArgs = append(newArgs, closureLocal)

	entry := cf.BBs.Insert(ir.BasicBlock{})
	bb := cf.BB(entry)
	bb.Id = entry

	boxed := make([]ir.LocalId, len(args.Types))
	for i, t := range args.Types {
		typedLocal := cf.Locals.Insert(ir.Local{Type: ir.LType(t)})
		newArgs = append(newArgs, typedLocal)

		objLocal := cf.Locals.Insert(ir.Local{Type: ir.LType(ir.TObj())})
		bb.Instrs = append(bb.Instrs, ir.Instr{Dest: objLocal, Kind: ir.ToObj{Type: t.MustVal(), Value: typedLocal}})
		boxed[i] = objLocal
	}
	bb.Instrs = append(bb.Instrs, ir.Instr{Dest: variadicLocal, Kind: ir.VariadicArgs{Args: boxed}})
	bb.Next = ir.NextJump{Target: cf.BBEntry}
	cf.BBs.Set(entry, bb)

	cf.Args = newArgs
	cf.BBEntry = entry
}
