package specializer

import (
	"github.com/wippyai/lispjit/compilerpanic"
	"github.com/wippyai/lispjit/ir"
	"github.com/wippyai/lispjit/layout"
)

// BuildBBModule implements the specializer's third tier: instantiate_bb for
// a previously minted (module, func, funcIndex, bb, index) dispatch slot.
// It emits exactly one compiled BB as a standalone function — the same
// per-BB granularity the func-module tier's uniform stub dispatch already
// established — reaching every successor through that same mechanism,
// refined by whatever the resolved SpecKey's type params narrow to, by a
// runtime-observed dominant branch once its counter crosses threshold, and
// by any Is-tested type narrowing available on the branch's taken side.
func BuildBBModule(state *State, srcID ir.ModuleId, src *ir.Module, fid ir.FuncId, funcIndex int, bbID ir.BasicBlockId, index int) *ir.Module {
	instKey := FuncInstanceKey{Module: srcID, Func: fid, FuncIndex: funcIndex}
	cf, ok := state.PreparedFuncs[instKey]
	if !ok {
		compilerpanic.Failf(compilerpanic.PhaseSpecialize, compilerpanic.KindUnknownID,
			"instantiate_bb: func instance (%s,%s,%d) was never prepared by instantiate_func", srcID, fid, funcIndex)
	}
	key := BBKey{Module: srcID, Func: fid, FuncIndex: funcIndex, BB: bbID}
	manager, ok := state.BBManagers[key]
	if !ok {
		compilerpanic.Failf(compilerpanic.PhaseSpecialize, compilerpanic.KindUnknownID,
			"instantiate_bb: bb %s has no index manager", bbID)
	}
	specKey, _, ok := manager.FromIdx(index)
	if !ok {
		compilerpanic.Failf(compilerpanic.PhaseSpecialize, compilerpanic.KindUnknownID,
			"instantiate_bb: index %d unknown for bb %s", index, bbID)
	}
	typeParams := state.BBTypeParams[key]
	liveArgs := state.BBArgs[key]

	b := &bbBuilder{state: state, srcID: srcID, src: src, fid: fid, funcIndex: funcIndex, cf: cf, bbID: bbID, index: index}
	nf := ir.NewFunc(0, cf.RetType)

	for id, l := range cf.Locals.All() {
		nf.Locals.InsertAt(id, l)
	}

	refined := make(map[ir.LocalId]ir.ValType, len(typeParams))
	for i, tp := range typeParams {
		if i < len(specKey) && specKey[i].Present {
			refined[tp] = specKey[i].Type
		}
	}

	var preamble []ir.Instr
	for _, a := range liveArgs {
		if t, ok := refined[a]; ok {
			typed := nf.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(t))})
			nf.Args = append(nf.Args, typed)
			preamble = append(preamble, ir.Instr{Dest: a, Kind: ir.ToObj{Type: t, Value: typed}})
			continue
		}
		nf.Args = append(nf.Args, a)
	}

	module := ir.NewModule(0)
	b.module = module

	entryID := nf.BBs.Insert(ir.BasicBlock{})
	nf.BBEntry = entryID
	bb := nf.BB(entryID)
	bb.Id = entryID

	srcBB := cf.BB(bbID)
	bb.Instrs = append(bb.Instrs, preamble...)
	for _, instr := range srcBB.Instrs {
		bb.Instrs = append(bb.Instrs, b.rewriteInstr(nf, instr)...)
	}
	nf.BBs.Set(entryID, bb)

	bodyFuncID := insertFunc(module, nf)

	b.lowerNext(module, nf, entryID, srcBB.Next, bbID)

	installer := newFuncBuilder(0, ir.TVal(ir.VNil()))
	installEntry := installer.newBB()
	installer.entry(installEntry)

	_, slotGlobal, _ := manager.FromIdx(index)
	bodyRef := installer.local(ir.LFuncRef())
	installer.emit(installEntry, bodyRef, ir.FuncRef{Func: bodyFuncID})
	installer.stmt(installEntry, ir.GlobalSet{Global: slotGlobal.Id, Value: bodyRef})
	module.Globals.InsertAt(slotGlobal.Id, ir.Global{Id: slotGlobal.Id, Type: ir.LFuncRef(), Linkage: ir.LinkageExport})

	for _, pending := range b.newSlots {
		module.Globals.InsertAt(pending.global.Id, pending.global)
		ref := installer.local(ir.LFuncRef())
		installer.emit(installEntry, ref, ir.FuncRef{Func: pending.stub})
		installer.stmt(installEntry, ir.GlobalSet{Global: pending.global.Id, Value: ref})
	}

	for _, pending := range b.closureStubs {
		gid := b.stubGlobal(pending.index)
		stubRef := installer.local(ir.LFuncRef())
		installer.emit(installEntry, stubRef, ir.FuncRef{Func: pending.stub})
		cell := installer.local(ir.LMutFuncRef())
		installer.emit(installEntry, cell, ir.CreateMutFuncRef{Func: stubRef})
		installer.stmt(installEntry, ir.GlobalSet{Global: gid, Value: cell})
	}

	nilLocal := installer.local(ir.LType(ir.TVal(ir.VNil())))
	installer.emit(installEntry, nilLocal, ir.ConstNil{})
	installer.setNext(installEntry, ir.NextTerminator{Terminator: ir.ReturnExit{Value: nilLocal}})
	module.Entry = insertFunc(module, installer.build())

	return module
}

// newSlot records a freshly minted (bb, index) BBIndexManager entry this
// build discovered mid-lowering (a branch's narrowed successor key), which
// needs its own dispatch stub emitted and installed alongside the BB's own
// body.
type newSlot struct {
	global ir.Global
	stub   ir.FuncId
}

// closureStub records a freshly minted ClosureGlobalLayout index this
// build discovered mid-lowering, whose shared state.StubGlobals[index]
// cell needs rebinding to point at the layer-1 stub built for it.
type closureStub struct {
	index int
	stub  ir.FuncId
}

type bbBuilder struct {
	state        *State
	srcID        ir.ModuleId
	src          *ir.Module
	fid          ir.FuncId
	funcIndex    int
	cf           *ir.Func
	bbID         ir.BasicBlockId
	index        int
	newSlots     []newSlot
	closureStubs []closureStub
	module       *ir.Module
}

// rewriteInstr lowers the two instruction shapes a BB module can't emit
// as-is because they name a source-level FuncId directly: Call and
// FuncRef become a GlobalGet against that callee's current specialization
// plus (for Call) a CallRef, and CallClosure is upgraded from the generic
// variadic entrypoint to a statically known one when its ArgTypes are all
// concrete.
func (b *bbBuilder) rewriteInstr(nf *ir.Func, instr ir.Instr) []ir.Instr {
	switch k := instr.Kind.(type) {
	case ir.FuncRef:
		g := b.funcGlobal(k.Func)
		return []ir.Instr{{Dest: instr.Dest, Kind: ir.GlobalGet{Global: g}}}
	case ir.Call:
		g := b.funcGlobal(k.Func)
		refLocal := nf.Locals.Insert(ir.Local{Type: ir.LFuncRef()})
		callee, _ := b.src.Funcs.Get(k.Func)
		return []ir.Instr{
			{Dest: refLocal, Kind: ir.GlobalGet{Global: g}},
			{Dest: instr.Dest, Kind: ir.CallRef{Func: refLocal, Args: k.Args, FuncType: callee.FuncType()}},
		}
	case ir.CallClosure:
		if idx, ok := b.specializeClosureCall(k); ok {
			k.FuncIndex = idx
		}
		return []ir.Instr{{Dest: instr.Dest, Kind: k}}
	case ir.EntrypointTable:
		refs := make([]ir.LocalId, b.state.Limits.MaxSize)
		var pad []ir.Instr
		for i := 0; i < b.state.Limits.MaxSize; i++ {
			if i < len(k.MutRefs) {
				refs[i] = k.MutRefs[i]
				continue
			}
			refLocal := nf.Locals.Insert(ir.Local{Type: ir.LMutFuncRef()})
			pad = append(pad, ir.Instr{Dest: refLocal, Kind: ir.GlobalGet{Global: b.stubGlobal(i)}})
			refs[i] = refLocal
		}
		return append(pad, ir.Instr{Dest: instr.Dest, Kind: ir.EntrypointTable{MutRefs: refs}})
	default:
		return []ir.Instr{instr}
	}
}

// stubGlobal returns the (lazily minted, for callers that build a BB module
// without a preceding stub-module build) shared MutFuncRef cell backing
// entrypoint table slot i before any closure has specialized that slot.
func (b *bbBuilder) stubGlobal(i int) ir.GlobalId {
	gid, ok := b.state.StubGlobals[i]
	if !ok {
		gid = b.state.NewGlobal()
		b.state.StubGlobals[i] = gid
	}
	b.module.Globals.InsertAt(gid, ir.Global{Id: gid, Type: ir.LMutFuncRef(), Linkage: ir.LinkageExport})
	return gid
}

// funcGlobal returns the (lazily minted) global publishing target's current
// specialization, the same cell BuildStubModule/BuildFuncModule maintain.
func (b *bbBuilder) funcGlobal(target ir.FuncId) ir.GlobalId {
	fk := FuncKey{Module: b.srcID, Func: target}
	g, ok := b.state.FuncGlobals[fk]
	if !ok {
		g = b.state.NewGlobal()
		b.state.FuncGlobals[fk] = g
	}
	return g
}

// specializeClosureCall tries to mint a statically typed closure entrypoint
// index for a CallClosure whose ArgTypes are all concrete (non-Obj);
// leaves the call on its current (generic) index when any arg is still
// Obj, or when the layout is already at capacity. When the index is newly
// minted it also emits the layer-1 dispatch stub that index's shared
// MutFuncRef cell must point to until some closure reaching it actually
// specializes its own table slot.
func (b *bbBuilder) specializeClosureCall(k ir.CallClosure) (int, bool) {
	for _, t := range k.ArgTypes {
		if t.IsObj() {
			return 0, false
		}
	}
	args := layout.Specified(k.ArgTypes)
	idx, flag, ok := b.state.ClosureLayout.ToIdx(args)
	if !ok {
		return 0, false
	}
	if flag == layout.NewInstance {
		b.closureStubs = append(b.closureStubs, closureStub{
			index: idx,
			stub:  b.closureStubFor(idx, args),
		})
	}
	return idx, true
}

// closureStubFor builds the layer-1 dispatch stub a freshly minted closure
// entrypoint index needs: on first call through a closure's table slot it
// resolves that closure's home module/func dynamically, instantiates the
// chosen entrypoint, wraps the result in a fresh MutFuncRef cell, installs
// that cell into the calling closure's own table slot (so later calls
// through that same closure skip the stub), and then makes the call.
func (b *bbBuilder) closureStubFor(idx int, args layout.ClosureArgs) ir.FuncId {
	ft := ir.FuncType{Args: append([]ir.Type{ir.TObj()}, args.Types...), Ret: ir.TObj()}
	fb := newFuncBuilder(0, ft.Ret)
	closureArg := fb.arg(ir.LType(ir.TObj()))
	typedArgs := make([]ir.LocalId, len(args.Types))
	for i, t := range args.Types {
		typedArgs[i] = fb.arg(ir.LType(t))
	}

	entry := fb.newBB()
	fb.entry(entry)

	modLocal := fb.local(ir.LType(ir.TVal(ir.VInt())))
	fb.emit(entry, modLocal, ir.ClosureModuleId{Closure: closureArg})
	funcLocal := fb.local(ir.LType(ir.TVal(ir.VInt())))
	fb.emit(entry, funcLocal, ir.ClosureFuncId{Closure: closureArg})
	fb.stmt(entry, ir.InstantiateClosureFunc{ModuleLocal: modLocal, FuncLocal: funcLocal, FuncIndex: idx})

	instantiated := fb.local(ir.LFuncRef())
	fb.emit(entry, instantiated, ir.GlobalGet{Global: b.state.InstantiateFuncGlobal})
	cell := fb.local(ir.LMutFuncRef())
	fb.emit(entry, cell, ir.CreateMutFuncRef{Func: instantiated})

	table := fb.local(ir.LEntrypointTable())
	fb.emit(entry, table, ir.ClosureEntrypointTable{Closure: closureArg})
	fb.stmt(entry, ir.SetEntrypointTable{Index: idx, Table: table, MutRef: cell})

	bodyRef := fb.local(ir.LFuncRef())
	fb.emit(entry, bodyRef, ir.DerefMutFuncRef{Ref: cell})
	callArgs := append([]ir.LocalId{closureArg}, typedArgs...)
	fb.setNext(entry, ir.NextTerminator{Terminator: ir.TailCallRefExit{
		Call: ir.CallRef{Func: bodyRef, Args: callArgs, FuncType: ft},
	}})
	return insertFunc(b.module, fb.build())
}

// definingInstr scans bb's already-lowered instructions for the one
// defining local, used to detect a literal branch condition or an Is-typed
// condition worth narrowing the taken side's args by.
func definingInstr(bb ir.BasicBlock, local ir.LocalId) (ir.InstrKind, bool) {
	for i := len(bb.Instrs) - 1; i >= 0; i-- {
		if bb.Instrs[i].Dest == local {
			return bb.Instrs[i].Kind, true
		}
	}
	return nil, false
}

// lowerNext lowers the source BB's exit into nf's entry BB terminator: a
// literal condition or a branch counter already past threshold collapses
// straight to a Jump-equivalent TailCallRef into the surviving side; an
// undecided If keeps both sides, each reached through a tiny counter-
// bumping trampoline BB, with the Then side's args narrowed by an Is-typed
// condition when one is available.
func (b *bbBuilder) lowerNext(module *ir.Module, nf *ir.Func, entryID ir.BasicBlockId, next ir.BasicBlockNext, srcBBID ir.BasicBlockId) {
	bb := nf.BB(entryID)

	switch n := next.(type) {
	case ir.NextJump:
		b.setTailCallTo(module, nf, entryID, n.Target, nil)
		return

	case ir.NextTerminator:
		switch t := n.Terminator.(type) {
		case ir.TailCallExit:
			g := b.funcGlobal(t.Call.Func)
			refLocal := nf.Locals.Insert(ir.Local{Type: ir.LFuncRef()})
			bb.Instrs = append(bb.Instrs, ir.Instr{Dest: refLocal, Kind: ir.GlobalGet{Global: g}})
			callee, _ := b.src.Funcs.Get(t.Call.Func)
			bb.Next = ir.NextTerminator{Terminator: ir.TailCallRefExit{
				Call: ir.CallRef{Func: refLocal, Args: t.Call.Args, FuncType: callee.FuncType()},
			}}
		case ir.TailCallClosureExit:
			if idx, ok := b.specializeClosureCall(t.Call); ok {
				t.Call.FuncIndex = idx
			}
			bb.Next = ir.NextTerminator{Terminator: t}
		default:
			bb.Next = n
		}
		nf.BBs.Set(entryID, bb)
		return

	case ir.NextIf:
		counterKey := BBKey{Module: b.srcID, Func: b.fid, FuncIndex: b.funcIndex, BB: srcBBID}
		counter := b.state.BranchCounterFor(counterKey)
		if k, ok := definingInstr(bb, n.Cond); ok {
			if cb, ok := k.(ir.ConstBool); ok {
				target := n.Else
				if cb.Value {
					target = n.Then
				}
				b.setTailCallTo(module, nf, entryID, target, nil)
				return
			}
		}
		if counter.ShouldSpecialize(b.state.Limits) {
			target := n.Then
			if counter.DominantBranch() == ir.BranchElse {
				target = n.Else
			}
			b.setTailCallTo(module, nf, entryID, target, nil)
			return
		}

		var narrow map[ir.LocalId]ir.ValType
		if k, ok := definingInstr(bb, n.Cond); ok {
			if is, ok := k.(ir.Is); ok {
				narrow = map[ir.LocalId]ir.ValType{is.Value: is.Type}
			}
		}

		thenBB := nf.BBs.Insert(ir.BasicBlock{})
		tb := nf.BB(thenBB)
		tb.Id = thenBB
		tb.Instrs = append(tb.Instrs, ir.Instr{Dest: ir.NoDest, Kind: ir.IncrementBranchCounter{
			Module: b.srcID, Func: b.fid, FuncIndex: b.funcIndex, BB: srcBBID,
			Kind: ir.BranchThen, CallerBB: srcBBID, CallerIndex: b.index,
		}})
		nf.BBs.Set(thenBB, tb)
		b.setTailCallTo(module, nf, thenBB, n.Then, narrow)

		elseBB := nf.BBs.Insert(ir.BasicBlock{})
		eb := nf.BB(elseBB)
		eb.Id = elseBB
		eb.Instrs = append(eb.Instrs, ir.Instr{Dest: ir.NoDest, Kind: ir.IncrementBranchCounter{
			Module: b.srcID, Func: b.fid, FuncIndex: b.funcIndex, BB: srcBBID,
			Kind: ir.BranchElse, CallerBB: srcBBID, CallerIndex: b.index,
		}})
		nf.BBs.Set(elseBB, eb)
		b.setTailCallTo(module, nf, elseBB, n.Else, nil)

		bb.Next = ir.NextIf{Cond: n.Cond, Then: thenBB, Else: elseBB}
		nf.BBs.Set(entryID, bb)
		return
	}
}

// setTailCallTo appends (into the BB named by fromBB) whatever locals a
// dispatch to target needs and sets that BB's terminator to a TailCallRef
// through target's resolved dispatch slot — the slot a narrow map upgrades
// beyond target's current default, minting a fresh one via its
// BBIndexManager when necessary and recording the stub a new slot needs.
func (b *bbBuilder) setTailCallTo(module *ir.Module, nf *ir.Func, fromBB ir.BasicBlockId, target ir.BasicBlockId, narrow map[ir.LocalId]ir.ValType) {
	targetKey := BBKey{Module: b.srcID, Func: b.fid, FuncIndex: b.funcIndex, BB: target}
	targetArgs := b.state.BBArgs[targetKey]
	targetParams := b.state.BBTypeParams[targetKey]
	manager := b.state.BBManagers[targetKey]

	specKey := layout.AllUnknown(len(targetParams))
	for i, p := range targetParams {
		if t, ok := narrow[p]; ok {
			specKey[i] = layout.Known(t)
		}
	}

	global, idx, flag, ok := manager.ToIdx(specKey, func() ir.Global {
		return ir.Global{Id: b.state.NewGlobal(), Type: ir.LFuncRef(), Linkage: ir.LinkageExport}
	})
	if !ok {
		specKey = layout.AllUnknown(len(targetParams))
		global, idx, flag, _ = manager.ToIdx(specKey, nil)
	}
	if flag == layout.NewInstance {
		stub := b.stubFor(module, targetKey, target, targetArgs, narrow, idx, global)
		b.newSlots = append(b.newSlots, newSlot{global: global, stub: stub})
	}

	bb := nf.BB(fromBB)
	refLocal := nf.Locals.Insert(ir.Local{Type: ir.LFuncRef()})
	bb.Instrs = append(bb.Instrs, ir.Instr{Dest: refLocal, Kind: ir.GlobalGet{Global: global.Id}})

	callArgs := make([]ir.LocalId, len(targetArgs))
	for i, a := range targetArgs {
		if t, ok := narrow[a]; ok {
			unboxed := nf.Locals.Insert(ir.Local{Type: ir.LType(ir.TVal(t))})
			bb.Instrs = append(bb.Instrs, ir.Instr{Dest: unboxed, Kind: ir.FromObj{Type: t, Value: a}})
			callArgs[i] = unboxed
			continue
		}
		callArgs[i] = a
	}
	ft := funcTypeForLocals(b.cf, targetArgs, b.cf.RetType)
	for i, a := range targetArgs {
		if t, ok := narrow[a]; ok {
			ft.Args[i] = ir.TVal(t)
		}
	}

	bb.Next = ir.NextTerminator{Terminator: ir.TailCallRefExit{
		Call: ir.CallRef{Func: refLocal, Args: callArgs, FuncType: ft},
	}}
	nf.BBs.Set(fromBB, bb)
}

// stubFor emits (into module) the InstantiateBB-on-first-call stub every
// freshly minted (bb, index) dispatch slot needs, mirroring the
// func-module tier's uniform per-BB stub shape. Its signature must match
// the narrowed one the minting call site already committed to in its own
// CallRef.FuncType, since both the caller and (once instantiated) the real
// body agree on that same narrowed shape.
func (b *bbBuilder) stubFor(module *ir.Module, key BBKey, target ir.BasicBlockId, targetArgs []ir.LocalId, narrow map[ir.LocalId]ir.ValType, idx int, global ir.Global) ir.FuncId {
	ft := funcTypeForLocals(b.cf, targetArgs, b.cf.RetType)
	for i, a := range targetArgs {
		if t, ok := narrow[a]; ok {
			ft.Args[i] = ir.TVal(t)
		}
	}
	fb := newFuncBuilder(0, ft.Ret)
	argLocals := make([]ir.LocalId, len(targetArgs))
	for i, t := range ft.Args {
		argLocals[i] = fb.arg(ir.LType(t))
	}
	entry := fb.newBB()
	fb.entry(entry)
	fb.stmt(entry, ir.InstantiateBB{Module: key.Module, Func: key.Func, FuncIndex: key.FuncIndex, BB: target, Index: idx})
	ref := fb.local(ir.LFuncRef())
	fb.emit(entry, ref, ir.GlobalGet{Global: global.Id})
	fb.setNext(entry, ir.NextTerminator{Terminator: ir.TailCallRefExit{
		Call: ir.CallRef{Func: ref, Args: argLocals, FuncType: ft},
	}})
	return insertFunc(module, fb.build())
}
