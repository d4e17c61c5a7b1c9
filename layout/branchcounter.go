package layout

import "github.com/wippyai/lispjit/ir"

// BranchCounter tallies how many times each side of an If has been taken
// at run time, reported back through IncrementBranchCounter callbacks.
// It lives per-BB rather than per-(BB,index): multiple specialized
// instances of the same BB share one counter so their branch history
// can be merged into a single re-specialization decision.
type BranchCounter struct {
	ThenCount int
	ElseCount int
}

func (c *BranchCounter) Increment(kind ir.BranchKind) {
	if kind == ir.BranchThen {
		c.ThenCount++
	} else {
		c.ElseCount++
	}
}

// DominantBranch returns the more-taken side; ties favor Then.
func (c *BranchCounter) DominantBranch() ir.BranchKind {
	if c.ElseCount > c.ThenCount {
		return ir.BranchElse
	}
	return ir.BranchThen
}

// ShouldSpecialize reports whether the combined branch count has crossed
// limits.BranchThreshold, the point at which the specializer should
// re-emit this BB's module with its dominant branch inlined.
func (c *BranchCounter) ShouldSpecialize(limits Limits) bool {
	return c.ThenCount+c.ElseCount >= limits.BranchThreshold
}
