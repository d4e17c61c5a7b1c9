// Package layout holds the two index managers that turn a specialization
// key into a dense dispatch slot — BBIndexManager for per-BB type-arg
// specializations, ClosureGlobalLayout for per-closure argument-shape
// entrypoints — plus the branch counter that decides when a BB is hot
// enough to re-specialize under a dominant-branch assumption.
package layout

// Limits is the tunable-constants surface for the index managers'
// capacity and the branch counter's specialization threshold — tuning
// knobs, not fixed correctness thresholds. Each orchestrator instance
// carries its own Limits (constructed with
// DefaultLimits unless a caller has a reason to override it) rather than
// reading package-level globals, so boundary behavior is exercised by
// tests without recompiling.
type Limits struct {
	// MaxSize bounds both BBIndexManager and ClosureGlobalLayout: once
	// this many keys are registered, a lookup of a new key fails rather
	// than growing further.
	MaxSize int
	// DefaultIndex is the slot reserved for the fully generic
	// specialization (all type params unknown, or the closure's
	// variadic entry).
	DefaultIndex int
	// BranchThreshold is the Then+Else count at or above which a BB's
	// branch counter marks it eligible for re-specialization under its
	// dominant branch.
	BranchThreshold int
}

// DefaultLimits returns the standard production values: a layout
// capacity of 32, the default slot at index 0, and a branch-counter
// threshold of 20.
func DefaultLimits() Limits {
	return Limits{MaxSize: 32, DefaultIndex: 0, BranchThreshold: 20}
}
