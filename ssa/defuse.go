// Package ssa provides the def-use chain used by the optimizer's
// constant folding, DCE, redundant obj elimination and inlining passes,
// and the SSA invariant checker optimize.Run applies in debug mode.
package ssa

import "github.com/wippyai/lispjit/ir"

// DefSite names exactly where a LocalId is defined: the BB and the
// index of its defining Instr within that BB's instruction list.
type DefSite struct {
	BB    ir.BasicBlockId
	Index int
}

// DefUseChain maps each LocalId to its unique definition site. Each pass
// that uses it builds it once and then incrementally patches it by
// Remove/AddBB as a pass mutates the function, rather than rebuilt from
// scratch after every edit.
type DefUseChain struct {
	f    *ir.Func
	defs map[ir.LocalId]DefSite
}

// Build scans every BB of f, reachable or not, and records each instruction's
// (and Phi's) definition site.
func Build(f *ir.Func) *DefUseChain {
	c := &DefUseChain{f: f, defs: make(map[ir.LocalId]DefSite)}
	for id := range f.BBIds() {
		c.scanBB(id)
	}
	return c
}

func (c *DefUseChain) scanBB(id ir.BasicBlockId) {
	bb := c.f.BB(id)
	for i, instr := range bb.Instrs {
		if instr.HasDest() {
			c.defs[instr.Dest] = DefSite{BB: id, Index: i}
		}
	}
}

// GetDef returns the definition site of local, if it is still present
// (a pass may have removed its destination via DCE).
func (c *DefUseChain) GetDef(local ir.LocalId) (DefSite, bool) {
	d, ok := c.defs[local]
	return d, ok
}

// GetDefNonMoveExpr is the canonical "what really produced this value"
// lookup every analysis that wants a value's true origin should use: it
// walks Move chains transparently and returns the underlying non-Move
// InstrKind, or ok=false if the chain runs off the edge of what's known
// (destination removed, or it terminates in a Phi/argument rather than
// an expression).
func (c *DefUseChain) GetDefNonMoveExpr(local ir.LocalId) (ir.InstrKind, bool) {
	seen := map[ir.LocalId]bool{}
	for {
		if seen[local] {
			return nil, false // Move cycle: only reachable via a compiler bug upstream
		}
		seen[local] = true
		site, ok := c.GetDef(local)
		if !ok {
			return nil, false
		}
		bb := c.f.BB(site.BB)
		instr := bb.Instrs[site.Index]
		mv, isMove := instr.Kind.(ir.Move)
		if !isMove {
			return instr.Kind, true
		}
		local = mv.Src
	}
}

// Remove forgets local's definition site, to be called once a pass has
// destroyed (DCE'd) its defining instruction.
func (c *DefUseChain) Remove(local ir.LocalId) {
	delete(c.defs, local)
}

// AddBB re-scans bb's current instruction list, replacing whatever
// definition sites were previously recorded against it — called after a
// pass has replaced a BB's instruction slice wholesale (e.g. CSE rewrote
// several instructions to Move).
func (c *DefUseChain) AddBB(id ir.BasicBlockId) {
	bb := c.f.BB(id)
	for local, site := range c.defs {
		if site.BB == id {
			delete(c.defs, local)
		}
	}
	for i, instr := range bb.Instrs {
		if instr.HasDest() {
			c.defs[instr.Dest] = DefSite{BB: id, Index: i}
		}
	}
}
