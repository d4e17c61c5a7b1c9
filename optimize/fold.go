package optimize

import (
	"github.com/wippyai/lispjit/cfg"
	"github.com/wippyai/lispjit/ir"
	"github.com/wippyai/lispjit/ssa"
)

// ConstantFold folds every literal-operand instruction it recognizes, in
// RPO order so a fold earlier in the function is visible (through the
// def-use chain) to a fold later in the same pass. It returns whether
// anything changed.
func ConstantFold(f *ir.Func) bool {
	g := cfg.FuncGraph(f)
	rpo := cfg.ReversePostorder(g)
	order := orderedByRPO(f, rpo)
	doms := cfg.Dominators(g)
	chain := ssa.Build(f)

	changed := false
	for _, id := range order {
		bb := f.BB(id)
		for i, instr := range bb.Instrs {
			if folded, ok := foldOne(f, chain, doms, id, i, instr); ok {
				bb.Instrs[i] = folded
				changed = true
				chain.AddBB(id)
			}
		}
		f.BBs.Set(id, bb)
	}
	return changed
}

func literalInt(chain *ssa.DefUseChain, l ir.LocalId) (int64, bool) {
	if k, ok := chain.GetDefNonMoveExpr(l); ok {
		if ci, ok := k.(ir.ConstInt); ok {
			return ci.Value, true
		}
	}
	return 0, false
}

func literalFloat(chain *ssa.DefUseChain, l ir.LocalId) (float64, bool) {
	if k, ok := chain.GetDefNonMoveExpr(l); ok {
		if cf, ok := k.(ir.ConstFloat); ok {
			return cf.Value, true
		}
	}
	return 0, false
}

func literalBool(chain *ssa.DefUseChain, l ir.LocalId) (bool, bool) {
	if k, ok := chain.GetDefNonMoveExpr(l); ok {
		if cb, ok := k.(ir.ConstBool); ok {
			return cb.Value, true
		}
	}
	return false, false
}

// rootLocal walks transparently through Move chains (unlike
// GetDefNonMoveExpr, it does not require the chain to bottom out in a
// non-Move expression — an argument or Phi destination is a perfectly
// good root) so two locals that are really "the same closure value" can
// be compared for identity.
func rootLocal(f *ir.Func, chain *ssa.DefUseChain, l ir.LocalId) ir.LocalId {
	seen := map[ir.LocalId]bool{}
	for {
		if seen[l] {
			return l
		}
		seen[l] = true
		site, ok := chain.GetDef(l)
		if !ok {
			return l
		}
		instr := f.BB(site.BB).Instrs[site.Index]
		mv, isMove := instr.Kind.(ir.Move)
		if !isMove {
			return l
		}
		l = mv.Src
	}
}

func foldOne(f *ir.Func, chain *ssa.DefUseChain, doms map[ir.BasicBlockId]map[ir.BasicBlockId]bool, bbID ir.BasicBlockId, idx int, instr ir.Instr) (ir.Instr, bool) {
	mk := func(k ir.InstrKind) (ir.Instr, bool) { return ir.Instr{Dest: instr.Dest, Kind: k}, true }

	switch k := instr.Kind.(type) {
	case ir.BinArith:
		if isFloatArithOp(k.Op) {
			if lf, ok1 := literalFloat(chain, k.L); ok1 {
				if rf, ok2 := literalFloat(chain, k.R); ok2 {
					return mk(ir.ConstFloat{Value: foldFloatArith(k.Op, lf, rf)})
				}
			}
		} else {
			if li, ok1 := literalInt(chain, k.L); ok1 {
				if ri, ok2 := literalInt(chain, k.R); ok2 {
					if v, ok := foldIntArith(k.Op, li, ri); ok {
						return mk(ir.ConstInt{Value: v})
					}
				}
			}
		}
	case ir.Compare:
		if isFloatCompareOp(k.Op) {
			if lf, ok1 := literalFloat(chain, k.L); ok1 {
				if rf, ok2 := literalFloat(chain, k.R); ok2 {
					return mk(ir.ConstBool{Value: foldFloatCompare(k.Op, lf, rf)})
				}
			}
		} else {
			if li, ok1 := literalInt(chain, k.L); ok1 {
				if ri, ok2 := literalInt(chain, k.R); ok2 {
					return mk(ir.ConstBool{Value: foldIntCompare(k.Op, li, ri)})
				}
			}
		}
	case ir.Not:
		if b, ok := literalBool(chain, k.V); ok {
			return mk(ir.ConstBool{Value: !b})
		}
	case ir.Logical:
		lb, lok := literalBool(chain, k.L)
		rb, rok := literalBool(chain, k.R)
		switch k.Op {
		case ir.OpAnd:
			if lok && !lb {
				return mk(ir.ConstBool{Value: false})
			}
			if rok && !rb {
				return mk(ir.ConstBool{Value: false})
			}
			if lok && lb {
				return mk(ir.Move{Src: k.R})
			}
			if rok && rb {
				return mk(ir.Move{Src: k.L})
			}
		case ir.OpOr:
			if lok && lb {
				return mk(ir.ConstBool{Value: true})
			}
			if rok && rb {
				return mk(ir.ConstBool{Value: true})
			}
			if lok && !lb {
				return mk(ir.Move{Src: k.R})
			}
			if rok && !rb {
				return mk(ir.Move{Src: k.L})
			}
		}
	case ir.VariadicArgsRef:
		if def, ok := chain.GetDefNonMoveExpr(k.Args); ok {
			if va, ok := def.(ir.VariadicArgs); ok {
				if i, ok := literalInt(chain, k.Index); ok && i >= 0 && int(i) < len(va.Args) {
					return mk(ir.Move{Src: va.Args[i]})
				}
			}
		}
	case ir.VariadicArgsLength:
		if def, ok := chain.GetDefNonMoveExpr(k.Args); ok {
			if va, ok := def.(ir.VariadicArgs); ok {
				return mk(ir.ConstInt{Value: int64(len(va.Args))})
			}
		}
	case ir.VectorLength:
		if def, ok := chain.GetDefNonMoveExpr(k.Vector); ok {
			if v, ok := def.(ir.Vector); ok {
				return mk(ir.ConstInt{Value: int64(len(v.Elements))})
			}
		}
	case ir.Is:
		if def, ok := chain.GetDefNonMoveExpr(k.Value); ok {
			if to, ok := def.(ir.ToObj); ok {
				return mk(ir.ConstBool{Value: k.Type.Equal(to.Type)})
			}
		}
	case ir.ClosureEnv:
		if def, ok := chain.GetDefNonMoveExpr(k.Closure); ok {
			if cl, ok := def.(ir.Closure); ok && k.Index < len(cl.Envs) {
				if e := cl.Envs[k.Index]; e.Present {
					return mk(ir.Move{Src: e.Local})
				}
				if v, ok := findDominatingSetEnv(f, chain, doms, bbID, idx, k.Closure, k.Index); ok {
					return mk(ir.Move{Src: v})
				}
			}
		}
	case ir.EqObj:
		la, lok := chain.GetDefNonMoveExpr(k.L)
		rb, rok := chain.GetDefNonMoveExpr(k.R)
		if lok && rok {
			lo, lIsToObj := la.(ir.ToObj)
			ro, rIsToObj := rb.(ir.ToObj)
			if lIsToObj && rIsToObj {
				if !lo.Type.Equal(ro.Type) {
					return mk(ir.ConstBool{Value: false})
				}
				switch lo.Type.Kind {
				case ir.KNil:
					return mk(ir.ConstBool{Value: true})
				case ir.KBool:
					if lv, lok := literalBool(chain, lo.Value); lok {
						if rv, rok := literalBool(chain, ro.Value); rok {
							return mk(ir.ConstBool{Value: lv == rv})
						}
					}
				case ir.KInt:
					if lv, lok := literalInt(chain, lo.Value); lok {
						if rv, rok := literalInt(chain, ro.Value); rok {
							return mk(ir.ConstBool{Value: lv == rv})
						}
					}
				}
			}
		}
	}
	return instr, false
}

// findDominatingSetEnv looks for the (unique, per the closure-env-once
// invariant enforced upstream of this compiler) ClosureSetEnv that fills
// closure's env slot index and whose site dominates the use at
// (useBB, useIdx): either in a strictly dominating block, or earlier in
// the same block.
func findDominatingSetEnv(f *ir.Func, chain *ssa.DefUseChain, doms map[ir.BasicBlockId]map[ir.BasicBlockId]bool, useBB ir.BasicBlockId, useIdx int, closure ir.LocalId, index int) (ir.LocalId, bool) {
	closureRoot := rootLocal(f, chain, closure)
	for id := range f.BBIds() {
		bb := f.BB(id)
		for i, instr := range bb.Instrs {
			se, ok := instr.Kind.(ir.ClosureSetEnv)
			if !ok || se.Index != index {
				continue
			}
			if rootLocal(f, chain, se.Closure) != closureRoot {
				continue
			}
			if id == useBB {
				if i < useIdx {
					return se.Value, true
				}
				continue
			}
			if doms[useBB][id] {
				return se.Value, true
			}
		}
	}
	return 0, false
}
