package ssa

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/wippyai/lispjit/cfg"
	"github.com/wippyai/lispjit/compilerpanic"
	"github.com/wippyai/lispjit/ir"
)

// CheckInvariants verifies every universal SSA/dominance/reachability
// invariant a Func must hold, collecting every violation found (rather
// than stopping at the first) via multierr so a single bad Func reports
// its full defect list at once, then panics if anything was found. It can
// be called on any Func; optimize.Run calls it after each optimizer pass
// when Options.Debug is set.
func CheckInvariants(f *ir.Func) {
	var err error

	g := cfg.FuncGraph(f)
	rpo := cfg.ReversePostorder(g)

	if _, ok := rpo[f.BBEntry]; !ok {
		err = multierr.Append(err, fmt.Errorf("bb_entry %s is not reachable (or missing)", f.BBEntry))
	}

	total := 0
	for range f.BBIds() {
		total++
	}
	if len(rpo) != total {
		err = multierr.Append(err, fmt.Errorf("unreachable bb(s) present: %d reachable of %d total", len(rpo), total))
	}

	doms := cfg.Dominators(g)
	preds := cfg.Predecessors(g)

	defSite := map[ir.LocalId]ir.BasicBlockId{}
	defCount := map[ir.LocalId]int{}

	for id := range f.BBIds() {
		bb := f.BB(id)
		seenNonPhi := false
		for _, instr := range bb.Instrs {
			_, isPhi := instr.Kind.(ir.Phi)
			_, isNop := instr.Kind.(ir.Nop)
			if isPhi {
				if seenNonPhi {
					err = multierr.Append(err, fmt.Errorf("bb %s: phi after non-phi instruction", id))
				}
			} else if !isNop {
				seenNonPhi = true
			}
			if instr.HasDest() {
				defCount[instr.Dest]++
				defSite[instr.Dest] = id
			}
		}
	}
	for local, n := range defCount {
		if n > 1 {
			err = multierr.Append(err, fmt.Errorf("local %s defined %d times", local, n))
		}
	}

	for id := range f.BBIds() {
		bb := f.BB(id)
		for _, instr := range bb.Instrs {
			if phi, ok := instr.Kind.(ir.Phi); ok {
				if !phi.NonExhaustive {
					want := map[ir.BasicBlockId]bool{}
					for _, p := range preds[id] {
						want[p] = true
					}
					got := map[ir.BasicBlockId]bool{}
					for _, in := range phi.Incomings {
						got[in.BB] = true
					}
					if len(want) != len(got) {
						err = multierr.Append(err, fmt.Errorf("bb %s: phi incomings %d do not match predecessor count %d", id, len(got), len(want)))
					}
					for p := range want {
						if !got[p] {
							err = multierr.Append(err, fmt.Errorf("bb %s: phi missing incoming from predecessor %s", id, p))
						}
					}
				}
				for _, in := range phi.Incomings {
					defBB, ok := defSite[in.Local]
					if ok && !doms[in.BB][defBB] {
						err = multierr.Append(err, fmt.Errorf("bb %s: phi incoming %s from %s not dominated by its def in %s", id, in.Local, in.BB, defBB))
					}
				}
				continue
			}
			instr.LocalUsages(func(u ir.Usage) bool {
				if u.Kind != ir.UseNonPhi {
					return true
				}
				defBB, ok := defSite[u.Local]
				if ok && !doms[id][defBB] {
					err = multierr.Append(err, fmt.Errorf("bb %s: use of %s not dominated by its def in %s", id, u.Local, defBB))
				}
				return true
			})
		}
	}

	if err != nil {
		panic(compilerpanic.Wrap(compilerpanic.PhaseSSA, compilerpanic.KindUseNotDominated, err, "func "+f.Id.String()))
	}
}

// CheckPurityMonotonicity additionally verifies the post-DCE invariant:
// every retained destinationless instruction is Effectful, Phi, or Nop.
// Callers invoke this only after a DCE pass, separately from
// CheckInvariants, since it is not a universal SSA property.
func CheckPurityMonotonicity(f *ir.Func) {
	var err error
	for id := range f.BBIds() {
		bb := f.BB(id)
		for _, instr := range bb.Instrs {
			if instr.HasDest() {
				continue
			}
			if _, ok := instr.Kind.(ir.Nop); ok {
				continue
			}
			if _, ok := instr.Kind.(ir.Phi); ok {
				continue
			}
			if instr.Kind.Purity() != ir.PurityEffectful {
				err = multierr.Append(err, fmt.Errorf("bb %s: destinationless non-effectful instruction retained after dce: %s", id, ir.RenderInstrKind(instr.Kind, ir.NewNamer(nil, f.Id))))
			}
		}
	}
	if err != nil {
		panic(compilerpanic.Wrap(compilerpanic.PhaseOptimize, compilerpanic.KindIllegalRewrite, err, "func "+f.Id.String()))
	}
}
