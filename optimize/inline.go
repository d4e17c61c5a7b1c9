package optimize

import (
	"github.com/wippyai/lispjit/ir"
	"github.com/wippyai/lispjit/ssa"
)

// closureEdge is a BB whose terminator is a TailCallClosure resolved
// (through Move) to a literal Closure{FuncId}: the effective argument
// list is [closure, args...], matching the callee Func's own Args
// convention (its formal parameter 0 is the closure value itself, used
// by the callee's own ClosureEnv/ClosureSetEnv reads).
type closureEdge struct {
	callee ir.FuncId
	args   []ir.LocalId
}

func resolveClosureFunc(chain *ssa.DefUseChain, closure ir.LocalId) (ir.FuncId, bool) {
	def, ok := chain.GetDefNonMoveExpr(closure)
	if !ok {
		return 0, false
	}
	cl, ok := def.(ir.Closure)
	if !ok {
		return 0, false
	}
	return cl.FuncId, true
}

func findClosureEdges(f *ir.Func, chain *ssa.DefUseChain) map[ir.BasicBlockId]closureEdge {
	edges := map[ir.BasicBlockId]closureEdge{}
	for id := range f.BBIds() {
		bb := f.BB(id)
		nt, ok := bb.Next.(ir.NextTerminator)
		if !ok {
			continue
		}
		tc, ok := nt.Terminator.(ir.TailCallClosureExit)
		if !ok {
			continue
		}
		callee, ok := resolveClosureFunc(chain, tc.Call.Closure)
		if !ok {
			continue
		}
		args := append([]ir.LocalId{tc.Call.Closure}, tc.Call.Args...)
		edges[id] = closureEdge{callee: callee, args: args}
	}
	return edges
}

// InlineModule runs InlineFunc over every function currently in m,
// replacing each with its inlined form where one was produced. It
// returns whether any function changed.
func InlineModule(m *ir.Module) bool {
	changed := false
	for id := range m.Funcs.Keys() {
		if nf, ok := InlineFunc(m, id); ok {
			m.Funcs.Set(id, *nf)
			changed = true
		}
	}
	return changed
}

// InlineFunc merges the transitive closure of id's function body's
// reachable TailCallClosure callees (every callee, every callee's own
// callees, and so on, not just the root's direct ones) into a single
// super-function: a fresh Phi-headed entry block per merged callee takes
// over binding its formal parameters, every rewired call site becomes a
// plain Jump into that entry, and everything else is renamed straight
// across. A callee edge that recurses back into the root, or names a
// callee the module doesn't have, is left as a real tail call rather than
// merged. Returns ok=false (unchanged) if id's function has no statically
// resolvable closure tail calls at all.
func InlineFunc(m *ir.Module, id ir.FuncId) (*ir.Func, bool) {
	root, ok := m.Funcs.Get(id)
	if !ok {
		return nil, false
	}
	rootChain := ssa.Build(&root)
	rootEdges := findClosureEdges(&root, rootChain)
	if len(rootEdges) == 0 {
		return nil, false
	}

	type member struct {
		fid   ir.FuncId
		fn    ir.Func
		edges map[ir.BasicBlockId]closureEdge
	}
	members := map[ir.FuncId]*member{}
	var order []ir.FuncId

	// Walk the reachable closure-callee graph breadth-first, starting
	// from the root's own edges: every newly discovered member
	// contributes its own closure tail calls to the frontier, so a
	// callee-of-a-callee is merged just as eagerly as a direct one.
	// seen[id] = true from the start keeps root self-recursion (direct
	// or through a cycle of merged members) from ever being queued as
	// a member; such edges stay real tail calls.
	seen := map[ir.FuncId]bool{id: true}
	var queue []ir.FuncId
	enqueue := func(fid ir.FuncId) {
		if seen[fid] {
			return
		}
		seen[fid] = true
		queue = append(queue, fid)
	}
	for _, e := range rootEdges {
		enqueue(e.callee)
	}
	for len(queue) > 0 {
		fid := queue[0]
		queue = queue[1:]
		fn, ok := m.Funcs.Get(fid)
		if !ok {
			continue
		}
		chain := ssa.Build(&fn)
		edges := findClosureEdges(&fn, chain)
		members[fid] = &member{fid: fid, fn: fn, edges: edges}
		order = append(order, fid)
		for _, e := range edges {
			enqueue(e.callee)
		}
	}
	if len(members) == 0 {
		return nil, false
	}

	nf := ir.NewFunc(root.Id, root.RetType)

	localMapRoot := map[ir.LocalId]ir.LocalId{}
	for lid := range root.LocalIds() {
		l, _ := root.Locals.Get(lid)
		localMapRoot[lid] = nf.Locals.Insert(ir.Local{Type: l.Type})
	}
	bbMapRoot := map[ir.BasicBlockId]ir.BasicBlockId{}
	for bid := range root.BBIds() {
		bbMapRoot[bid] = nf.BBs.Insert(ir.BasicBlock{})
	}

	localMaps := map[ir.FuncId]map[ir.LocalId]ir.LocalId{}
	bbMaps := map[ir.FuncId]map[ir.BasicBlockId]ir.BasicBlockId{}
	for _, fid := range order {
		fn := members[fid].fn
		lm := map[ir.LocalId]ir.LocalId{}
		for lid := range fn.LocalIds() {
			l, _ := fn.Locals.Get(lid)
			lm[lid] = nf.Locals.Insert(ir.Local{Type: l.Type})
		}
		localMaps[fid] = lm
		bm := map[ir.BasicBlockId]ir.BasicBlockId{}
		for bid := range fn.BBIds() {
			bm[bid] = nf.BBs.Insert(ir.BasicBlock{})
		}
		bbMaps[fid] = bm
	}

	nf.Args = make([]ir.LocalId, len(root.Args))
	for i, a := range root.Args {
		nf.Args[i] = localMapRoot[a]
	}
	nf.BBEntry = bbMapRoot[root.BBEntry]

	copyBody(nf, &root, localMapRoot, bbMapRoot)
	for _, fid := range order {
		fn := members[fid].fn
		copyBody(nf, &fn, localMaps[fid], bbMaps[fid])
	}

	calleeEntry := map[ir.FuncId]ir.BasicBlockId{}
	calleeIncomings := map[ir.FuncId][][]ir.PhiIncoming{}
	for _, fid := range order {
		calleeIncomings[fid] = make([][]ir.PhiIncoming, len(members[fid].fn.Args))
	}

	// collectIncomings feeds one owner's (root's or a merged member's)
	// edges into the target callee's phi incomings; an edge naming the
	// root or a callee that never made it into members (module lookup
	// failed during the BFS) is left untouched here and picked up again
	// by redirectCalls below, which leaves it as a real tail call.
	collectIncomings := func(edges map[ir.BasicBlockId]closureEdge, bbMap map[ir.BasicBlockId]ir.BasicBlockId, localMap map[ir.LocalId]ir.LocalId) {
		for oldBB, edge := range edges {
			if edge.callee == id {
				continue
			}
			if _, ok := members[edge.callee]; !ok {
				continue
			}
			newCallerBB := bbMap[oldBB]
			for i, argOld := range edge.args {
				calleeIncomings[edge.callee][i] = append(calleeIncomings[edge.callee][i],
					ir.PhiIncoming{BB: newCallerBB, Local: localMap[argOld]})
			}
		}
	}
	collectIncomings(rootEdges, bbMapRoot, localMapRoot)
	for _, fid := range order {
		collectIncomings(members[fid].edges, bbMaps[fid], localMaps[fid])
	}

	for _, fid := range order {
		fn := members[fid].fn
		argsNew := make([]ir.LocalId, len(fn.Args))
		for i, a := range fn.Args {
			argsNew[i] = localMaps[fid][a]
		}
		phiInstrs := make([]ir.Instr, len(argsNew))
		for i, argNew := range argsNew {
			phiInstrs[i] = ir.Instr{Dest: argNew, Kind: ir.Phi{Incomings: calleeIncomings[fid][i]}}
		}
		entryBB := nf.BBs.Insert(ir.BasicBlock{})
		nf.BBs.Set(entryBB, ir.BasicBlock{
			Id:     entryBB,
			Instrs: phiInstrs,
			Next:   ir.NextJump{Target: bbMaps[fid][fn.BBEntry]},
		})
		calleeEntry[fid] = entryBB
	}

	redirectCalls := func(edges map[ir.BasicBlockId]closureEdge, bbMap map[ir.BasicBlockId]ir.BasicBlockId) {
		for oldBB, edge := range edges {
			if edge.callee == id {
				continue
			}
			if _, ok := members[edge.callee]; !ok {
				continue
			}
			newCallerBB := bbMap[oldBB]
			bb, _ := nf.BBs.Get(newCallerBB)
			bb.Next = ir.NextJump{Target: calleeEntry[edge.callee]}
			nf.BBs.Set(newCallerBB, bb)
		}
	}
	redirectCalls(rootEdges, bbMapRoot)
	for _, fid := range order {
		redirectCalls(members[fid].edges, bbMaps[fid])
	}

	return nf, true
}

func copyBody(nf *ir.Func, fn *ir.Func, lm map[ir.LocalId]ir.LocalId, bm map[ir.BasicBlockId]ir.BasicBlockId) {
	for oldID := range fn.BBIds() {
		bb := fn.BB(oldID)
		newInstrs := make([]ir.Instr, len(bb.Instrs))
		for i, instr := range bb.Instrs {
			dest := ir.NoDest
			if instr.HasDest() {
				dest = lm[instr.Dest]
			}
			newInstrs[i] = ir.Instr{Dest: dest, Kind: remapInstrKind(instr.Kind, lm, bm)}
		}
		newID := bm[oldID]
		nf.BBs.Set(newID, ir.BasicBlock{Id: newID, Instrs: newInstrs, Next: remapNext(bb.Next, lm, bm)})
	}
}

func remapInstrKind(k ir.InstrKind, lm map[ir.LocalId]ir.LocalId, bm map[ir.BasicBlockId]ir.BasicBlockId) ir.InstrKind {
	if phi, ok := k.(ir.Phi); ok {
		incs := make([]ir.PhiIncoming, len(phi.Incomings))
		for i, in := range phi.Incomings {
			incs[i] = ir.PhiIncoming{BB: bm[in.BB], Local: lm[in.Local]}
		}
		return ir.Phi{Incomings: incs, NonExhaustive: phi.NonExhaustive}
	}
	return ir.MapOperands(k, func(l ir.LocalId) ir.LocalId { return lm[l] })
}

func remapNext(next ir.BasicBlockNext, lm map[ir.LocalId]ir.LocalId, bm map[ir.BasicBlockId]ir.BasicBlockId) ir.BasicBlockNext {
	switch n := next.(type) {
	case ir.NextIf:
		return ir.NextIf{Cond: lm[n.Cond], Then: bm[n.Then], Else: bm[n.Else]}
	case ir.NextJump:
		return ir.NextJump{Target: bm[n.Target]}
	case ir.NextTerminator:
		return ir.NextTerminator{Terminator: remapTerminator(n.Terminator, lm)}
	}
	return next
}

func remapTerminator(t ir.BasicBlockTerminator, lm map[ir.LocalId]ir.LocalId) ir.BasicBlockTerminator {
	follow := func(l ir.LocalId) ir.LocalId { return lm[l] }
	switch t := t.(type) {
	case ir.ReturnExit:
		return ir.ReturnExit{Value: lm[t.Value]}
	case ir.TailCallExit:
		return ir.TailCallExit{Call: ir.MapOperands(t.Call, follow).(ir.Call)}
	case ir.TailCallRefExit:
		return ir.TailCallRefExit{Call: ir.MapOperands(t.Call, follow).(ir.CallRef)}
	case ir.TailCallClosureExit:
		return ir.TailCallClosureExit{Call: ir.MapOperands(t.Call, follow).(ir.CallClosure)}
	case ir.ErrorExit:
		return ir.ErrorExit{Message: lm[t.Message]}
	}
	return t
}
