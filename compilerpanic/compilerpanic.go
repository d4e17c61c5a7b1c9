// Package compilerpanic defines the structured payload every internal
// invariant violation panics with.
//
// There are two error categories: static (program-bug) errors, which are
// always local panics because they mean the compiler itself is broken,
// and runtime (emitted-program) errors, which lower to an IR Error
// instruction and are the emitted module's problem, not this package's.
// Nothing here is ever returned as an `error` value — see
// jit/orchestrator.go, whose host-facing operations either return a
// Module or panic with a *Violation.
package compilerpanic

import (
	"fmt"
	"strings"
)

// Phase names the stage that discovered the violation.
type Phase string

const (
	PhaseContainer   Phase = "container"   // sparse keyed container misuse
	PhaseSSA         Phase = "ssa"         // SSA invariant check
	PhaseDominance   Phase = "dominance"   // dominance/reachability check
	PhaseOptimize    Phase = "optimize"    // an optimizer pass rewrote into an illegal state
	PhaseLayout      Phase = "layout"      // BB index / closure layout bookkeeping
	PhaseSpecialize  Phase = "specialize"  // JIT specializer emission
	PhaseOrchestrate Phase = "orchestrate" // orchestrator routing
)

// Kind categorizes the violation within a Phase.
type Kind string

const (
	KindUnknownID        Kind = "unknown_id"
	KindMultipleDefs     Kind = "multiple_defs"
	KindUseNotDominated  Kind = "use_not_dominated"
	KindPhiMisplaced     Kind = "phi_misplaced"
	KindPhiIncomplete    Kind = "phi_incomplete"
	KindUnreachableBB    Kind = "unreachable_bb"
	KindMissingEntry     Kind = "missing_entry"
	KindTypeMismatch     Kind = "type_mismatch"
	KindIllegalRewrite   Kind = "illegal_rewrite"
	KindCapacityExceeded Kind = "capacity_exceeded"
)

// Violation is the payload every internal panic carries.
type Violation struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Detail  string
	Context []string // e.g. ["func f3", "bb bb1", "local l7"]
}

func (v *Violation) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(v.Phase))
	b.WriteString("] ")
	b.WriteString(string(v.Kind))
	if len(v.Context) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(v.Context, "/"))
	}
	if v.Detail != "" {
		b.WriteString(": ")
		b.WriteString(v.Detail)
	}
	if v.Cause != nil {
		b.WriteString(": ")
		b.WriteString(v.Cause.Error())
	}
	return b.String()
}

func (v *Violation) Unwrap() error { return v.Cause }

// New builds a Violation; typical use is `panic(compilerpanic.New(...))`.
func New(phase Phase, kind Kind, detail string, context ...string) *Violation {
	return &Violation{Phase: phase, Kind: kind, Detail: detail, Context: context}
}

// Wrap attaches a lower-level cause to a new Violation.
func Wrap(phase Phase, kind Kind, cause error, context ...string) *Violation {
	return &Violation{Phase: phase, Kind: kind, Cause: cause, Context: context}
}

// Fail panics with a freshly built Violation; shorthand for the common
// `panic(New(...))` call at a check site.
func Fail(phase Phase, kind Kind, detail string, context ...string) {
	panic(New(phase, kind, detail, context...))
}

// Failf is Fail with fmt.Sprintf-style formatting of detail.
func Failf(phase Phase, kind Kind, format string, args ...any) {
	panic(New(phase, kind, fmt.Sprintf(format, args...)))
}
