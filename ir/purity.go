package ir

import "fmt"

// Purity classifies an InstrKind for optimization legality. Pure permits
// both DCE and CSE; Phi permits DCE but not CSE, keeping Phis contiguous
// at block head; ImpureRead permits DCE only (fresh identity, mutable-cell
// read, closure-env read); Effectful permits neither.
type Purity uint8

const (
	PurityPhi Purity = iota
	PurityPure
	PurityImpureRead
	PurityEffectful
)

func (p Purity) String() string {
	switch p {
	case PurityPhi:
		return "phi"
	case PurityPure:
		return "pure"
	case PurityImpureRead:
		return "impure_read"
	case PurityEffectful:
		return "effectful"
	default:
		return fmt.Sprintf("purity(%d)", uint8(p))
	}
}

// CanDCE reports whether an instruction of this purity may be dropped once
// its destination has a zero use count.
func (p Purity) CanDCE() bool { return p != PurityEffectful }

// CanCSE reports whether an instruction of this purity may be the source
// of a common-subexpression rewrite.
func (p Purity) CanCSE() bool { return p == PurityPure }
