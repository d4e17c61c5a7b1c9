// Package jit implements the orchestrator: the single object the
// host talks to. It holds every module registered with it, routes the
// four host-facing operations to the specializer tier that answers them,
// and owns the process-wide mutable bookkeeping (GlobalId sequence,
// closure layout, per-BB index managers and branch counters) that makes
// cross-module wiring and re-specialization decisions possible.
package jit

import (
	"go.uber.org/zap"

	"github.com/wippyai/lispjit/compilerpanic"
	"github.com/wippyai/lispjit/ir"
	"github.com/wippyai/lispjit/layout"
	"github.com/wippyai/lispjit/specializer"
)

// Orchestrator is the sole entry point the host holds onto. It serializes
// every mutation through a single goroutine's worth of method calls —
// there is deliberately no mutex here, and re-entrant calls from within a
// callback are a caller bug.
type Orchestrator struct {
	state   *specializer.State
	sources map[ir.ModuleId]*ir.Module
	nextID  int
}

// NewOrchestrator returns an orchestrator with no modules registered yet,
// using limits for every BBIndexManager and ClosureGlobalLayout it goes
// on to create.
func NewOrchestrator(limits layout.Limits) *Orchestrator {
	return &Orchestrator{
		state:   specializer.NewState(limits),
		sources: map[ir.ModuleId]*ir.Module{},
	}
}

func (o *Orchestrator) nextModuleID() ir.ModuleId {
	id := ir.ModuleId(o.nextID)
	o.nextID++
	return id
}

func (o *Orchestrator) sourceModule(id ir.ModuleId) *ir.Module {
	src, ok := o.sources[id]
	if !ok {
		compilerpanic.Failf(compilerpanic.PhaseOrchestrate, compilerpanic.KindUnknownID,
			"unknown source module %s", id)
	}
	return src
}

// RegisterModule adopts src as a new source module, mints it a ModuleId,
// and returns the stub-tier Module the host should load: one stub
// function per source function, each instantiating lazily on first call.
func (o *Orchestrator) RegisterModule(src *ir.Module) (ir.ModuleId, *ir.Module) {
	id := o.nextModuleID()
	o.sources[id] = src
	stub := specializer.BuildStubModule(o.state, id, src)
	Logger().Info("registered module",
		zap.Stringer("module", id),
		zap.Int("funcs", src.Funcs.Len()))
	return id, stub
}

// InstantiateFunc answers the stub tier's InstantiateFunc intrinsic:
// module/func/funcIndex name a (module, func, closure-entrypoint) that
// has never been specialized before, or is being re-specialized after a
// layout change. The returned Module publishes the rewritten function
// body and installs every BB's default dispatch stub.
func (o *Orchestrator) InstantiateFunc(module ir.ModuleId, fid ir.FuncId, funcIndex int) *ir.Module {
	src := o.sourceModule(module)
	Logger().Debug("instantiate_func",
		zap.Stringer("module", module), zap.Stringer("func", fid), zap.Int("func_index", funcIndex))
	return specializer.BuildFuncModule(o.state, module, src, fid, funcIndex)
}

// InstantiateBB answers the func tier's InstantiateBB intrinsic: bb/index
// name a previously minted dispatch slot for one BB within an already
// prepared func instance. The returned Module compiles that BB's
// instructions down to a standalone function, refined by whatever the
// resolved specialization key narrows.
func (o *Orchestrator) InstantiateBB(module ir.ModuleId, fid ir.FuncId, funcIndex int, bb ir.BasicBlockId, index int) *ir.Module {
	src := o.sourceModule(module)
	Logger().Debug("instantiate_bb",
		zap.Stringer("module", module), zap.Stringer("func", fid),
		zap.Int("func_index", funcIndex), zap.Stringer("bb", bb), zap.Int("index", index))
	return specializer.BuildBBModule(o.state, module, src, fid, funcIndex, bb, index)
}

// IncrementBranchCounter answers a BB module's IncrementBranchCounter
// intrinsic. It always records the observation; it only returns a
// replacement Module the instant the combined count crosses
// state.Limits.BranchThreshold, re-emitting the (callerBB, callerIndex)
// instance that made the call so it collapses straight to the now-
// dominant branch instead of continuing to pay the counter-bump cost.
// Every later call against the same source BB sees ShouldSpecialize
// already true and this returns (nil, false).
func (o *Orchestrator) IncrementBranchCounter(
	module ir.ModuleId, fid ir.FuncId, funcIndex int, bb ir.BasicBlockId,
	kind ir.BranchKind, callerBB ir.BasicBlockId, callerIndex int,
) (*ir.Module, bool) {
	key := specializer.BBKey{Module: module, Func: fid, FuncIndex: funcIndex, BB: bb}
	counter := o.state.BranchCounterFor(key)
	wasEligible := counter.ShouldSpecialize(o.state.Limits)
	counter.Increment(kind)
	if wasEligible || !counter.ShouldSpecialize(o.state.Limits) {
		return nil, false
	}

	Logger().Info("branch counter crossed threshold, re-specializing",
		zap.Stringer("module", module), zap.Stringer("func", fid), zap.Int("func_index", funcIndex),
		zap.Stringer("bb", bb), zap.Stringer("caller_bb", callerBB), zap.Int("caller_index", callerIndex),
		zap.Int("then_count", counter.ThenCount), zap.Int("else_count", counter.ElseCount))

	src := o.sourceModule(module)
	return specializer.BuildBBModule(o.state, module, src, fid, funcIndex, callerBB, callerIndex), true
}
