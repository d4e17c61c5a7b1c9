package optimize

import (
	"github.com/wippyai/lispjit/ir"
	"github.com/wippyai/lispjit/ssa"
)

// Options tunes a Run: which optional passes participate, and whether to
// re-verify SSA invariants after every pass (expensive; meant for debug
// builds and tests, not the hot specializer path).
type Options struct {
	CSE      bool
	FinalDCE bool
	Debug    bool
}

// maxRounds bounds the fixed-point loop: copy propagation, redundant
// obj/val elimination, constant folding, and (optionally) CSE each feed
// opportunities to one another, so the loop runs until nothing changes
// or this many rounds have passed, whichever comes first.
const maxRounds = 5

// Run drives the optimizer to a fixed point over f: copy propagation,
// redundant obj/val round-trip elimination, constant folding, and
// (if enabled) CSE, repeated until a round makes no further change or
// maxRounds is reached, followed by an optional final DCE sweep.
func Run(f *ir.Func, opts Options) {
	for round := 0; round < maxRounds; round++ {
		changed := false

		if CopyPropagation(f) {
			changed = true
		}
		verify(f, opts)

		if RedundantObjElimination(f) {
			changed = true
		}
		verify(f, opts)

		if ConstantFold(f) {
			changed = true
		}
		verify(f, opts)

		if opts.CSE {
			if CSE(f) {
				changed = true
			}
			verify(f, opts)
		}

		if !changed {
			break
		}
	}

	if opts.FinalDCE {
		DCE(f)
		if opts.Debug {
			ssa.CheckInvariants(f)
			ssa.CheckPurityMonotonicity(f)
		}
	}
}

func verify(f *ir.Func, opts Options) {
	if opts.Debug {
		ssa.CheckInvariants(f)
	}
}
