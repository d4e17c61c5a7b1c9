package optimize

import "github.com/wippyai/lispjit/ir"

func isFloatArithOp(op ir.ArithOp) bool {
	switch op {
	case ir.OpAddFloat, ir.OpSubFloat, ir.OpMulFloat, ir.OpDivFloat:
		return true
	default:
		return false
	}
}

func isFloatCompareOp(op ir.CompareOp) bool {
	switch op {
	case ir.OpEqFloat, ir.OpLtFloat, ir.OpGtFloat, ir.OpLeFloat, ir.OpGeFloat:
		return true
	default:
		return false
	}
}

// foldIntArith evaluates an integer BinArith at compile time. It reports
// false for Quotient/Remainder/Modulo by zero, leaving the trap to
// happen at runtime instead of folding it away.
func foldIntArith(op ir.ArithOp, l, r int64) (int64, bool) {
	switch op {
	case ir.OpAddInt:
		return l + r, true
	case ir.OpSubInt:
		return l - r, true
	case ir.OpMulInt:
		return l * r, true
	case ir.OpQuotientInt:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case ir.OpRemainderInt:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case ir.OpModuloInt:
		if r == 0 {
			return 0, false
		}
		m := l % r
		if m != 0 && (m < 0) != (r < 0) {
			m += r
		}
		return m, true
	default:
		return 0, false
	}
}

func foldFloatArith(op ir.ArithOp, l, r float64) float64 {
	switch op {
	case ir.OpAddFloat:
		return l + r
	case ir.OpSubFloat:
		return l - r
	case ir.OpMulFloat:
		return l * r
	case ir.OpDivFloat:
		return l / r
	default:
		return 0
	}
}

func foldIntCompare(op ir.CompareOp, l, r int64) bool {
	switch op {
	case ir.OpEqInt:
		return l == r
	case ir.OpLtInt:
		return l < r
	case ir.OpGtInt:
		return l > r
	case ir.OpLeInt:
		return l <= r
	case ir.OpGeInt:
		return l >= r
	default:
		return false
	}
}

func foldFloatCompare(op ir.CompareOp, l, r float64) bool {
	switch op {
	case ir.OpEqFloat:
		return l == r
	case ir.OpLtFloat:
		return l < r
	case ir.OpGtFloat:
		return l > r
	case ir.OpLeFloat:
		return l <= r
	case ir.OpGeFloat:
		return l >= r
	default:
		return false
	}
}
