package ir

import "iter"

// BasicBlockTerminator is the exit family of a BB whose BasicBlockNext is
// Terminator: it leaves the function entirely rather than branching to
// another BB in the same Func.
type BasicBlockTerminator interface {
	isTerminator()
}

type ReturnExit struct{ Value LocalId }

func (ReturnExit) isTerminator() {}

type TailCallExit struct{ Call Call }

func (TailCallExit) isTerminator() {}

type TailCallRefExit struct{ Call CallRef }

func (TailCallRefExit) isTerminator() {}

type TailCallClosureExit struct{ Call CallClosure }

func (TailCallClosureExit) isTerminator() {}

// ErrorExit surfaces a dynamic-type or arity error from the source
// program; Message names the local holding the printable string. This is
// the one IR-level "error path" — a trap, not a panic (see compilerpanic
// for the compiler's own, unrelated, invariant-violation panics).
type ErrorExit struct{ Message LocalId }

func (ErrorExit) isTerminator() {}

// BasicBlockNext is how control leaves a BB: a two-way branch, an
// unconditional jump, or an exit out of the function. The If/Jump graph
// may be cyclic; a BasicBlockTerminator never is (it contains no nested
// BasicBlockNext).
type BasicBlockNext interface {
	isBasicBlockNext()
}

type NextIf struct {
	Cond       LocalId
	Then, Else BasicBlockId
}

func (NextIf) isBasicBlockNext() {}

type NextJump struct{ Target BasicBlockId }

func (NextJump) isBasicBlockNext() {}

type NextTerminator struct{ Terminator BasicBlockTerminator }

func (NextTerminator) isBasicBlockNext() {}

// Successors iterates the BasicBlockId targets of n within the same Func
// (empty for NextTerminator, since a terminator leaves the function).
func Successors(n BasicBlockNext) iter.Seq[BasicBlockId] {
	return func(yield func(BasicBlockId) bool) {
		switch n := n.(type) {
		case NextIf:
			if !yield(n.Then) {
				return
			}
			yield(n.Else)
		case NextJump:
			yield(n.Target)
		case NextTerminator:
			// no in-func successors
		}
	}
}

// BasicBlock is a straight-line sequence of Instrs ending in a
// BasicBlockNext.
type BasicBlock struct {
	Id     BasicBlockId
	Instrs []Instr
	Next   BasicBlockNext
}
