package ir

// UsageKind distinguishes how a LocalId appears at an instruction: as the
// instruction's own destination, as an operand read directly within the
// block (NonPhi), or as a Phi incoming attributed to a predecessor edge.
type UsageKind uint8

const (
	UseDefined UsageKind = iota
	UseNonPhi
	UsePhi
)

func (k UsageKind) String() string {
	switch k {
	case UseDefined:
		return "defined"
	case UseNonPhi:
		return "used_non_phi"
	case UsePhi:
		return "used_phi"
	default:
		return "usage(?)"
	}
}

// Usage is one yielded element of Instr.LocalUsages: the local in
// question, how it's used, and (for UsePhi only) the predecessor BB the
// use is attributed to.
type Usage struct {
	Local   LocalId
	Kind    UsageKind
	PhiPred BasicBlockId // meaningful only when Kind == UsePhi
}

// Instr pairs an optional destination with its computing InstrKind. A
// destination of -1 (see NoDest) marks a statement: an instruction kept
// only for its effect.
type Instr struct {
	Dest LocalId // NoDest if this instruction has no destination
	Kind InstrKind
}

// NoDest is the sentinel LocalId meaning "this instruction defines
// nothing"; no container ever issues this value as a real key.
const NoDest LocalId = -1

func (i Instr) HasDest() bool { return i.Dest != NoDest }

// LocalUsages walks every LocalId this instruction mentions, in the
// convention spelled out by the data model: the destination first (if
// any), then every operand, with Phi incomings tagged UsePhi/predecessor
// rather than UseNonPhi. Optimizer and analysis code must traverse
// instructions exclusively through this (and FuncIDs below), never by
// switching on InstrKind variants themselves.
func (i Instr) LocalUsages(yield func(Usage) bool) {
	if i.HasDest() {
		if !yield(Usage{Local: i.Dest, Kind: UseDefined}) {
			return
		}
	}
	if phi, ok := i.Kind.(Phi); ok {
		for _, in := range phi.Incomings {
			if !yield(Usage{Local: in.Local, Kind: UsePhi, PhiPred: in.BB}) {
				return
			}
		}
		return
	}
	for _, l := range operandLocals(i.Kind) {
		if !yield(Usage{Local: l, Kind: UseNonPhi}) {
			return
		}
	}
}

// FuncIDs walks every FuncId this instruction references directly
// (FuncRef, Call, Closure, and the InstantiateFunc, InstantiateBB and
// IncrementBranchCounter intrinsics). CallClosure/CallRef do not
// reference a static FuncId and are excluded.
func (i Instr) FuncIDs(yield func(FuncId) bool) {
	switch k := i.Kind.(type) {
	case FuncRef:
		yield(k.Func)
	case Call:
		yield(k.Func)
	case Closure:
		yield(k.FuncId)
	case InstantiateFunc:
		yield(k.Func)
	case InstantiateBB:
		yield(k.Func)
	case IncrementBranchCounter:
		yield(k.Func)
	}
}
