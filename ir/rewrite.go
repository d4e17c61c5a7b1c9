package ir

// MapOperands returns a copy of k with every operand LocalId (and, for
// Phi, every incoming's Local) replaced by f(id). Destinations are
// untouched — callers rewrite Instr.Dest themselves when renaming
// defs (inlining does; copy propagation and folding never rename a
// def, only its uses). This is the single place that knows how to
// reconstruct each variant from new operands; everything that needs to
// rewrite an instruction in place (copy propagation, CSE's Move rewrite,
// the specializer's type-argument assignment and Call/FuncRef lowering,
// inlining's local renaming) goes through this rather than repeating the
// type switch.
func MapOperands(k InstrKind, f func(LocalId) LocalId) InstrKind {
	switch k := k.(type) {
	case Nop, ConstNil, ConstBool, ConstInt, ConstFloat, ConstChar, ConstString,
		CreateEmptyMutFuncRef, FuncRef, InstantiateFunc, InstantiateBB,
		IncrementBranchCounter, Uninitialized, GlobalGet:
		return k
	case Phi:
		incs := make([]PhiIncoming, len(k.Incomings))
		for i, in := range k.Incomings {
			incs[i] = PhiIncoming{BB: in.BB, Local: f(in.Local)}
		}
		return Phi{Incomings: incs, NonExhaustive: k.NonExhaustive}
	case StringToSymbol:
		return StringToSymbol{Str: f(k.Str)}
	case Cons:
		return Cons{Car: f(k.Car), Cdr: f(k.Cdr)}
	case Vector:
		return Vector{Elements: mapSlice(k.Elements, f)}
	case MakeVector:
		return MakeVector{Length: f(k.Length)}
	case UVector:
		return UVector{Kind: k.Kind, Elements: mapSlice(k.Elements, f)}
	case MakeUVector:
		return MakeUVector{Kind: k.Kind, Length: f(k.Length)}
	case CreateRef:
		return CreateRef{Init: f(k.Init)}
	case DerefRef:
		return DerefRef{Ref: f(k.Ref)}
	case SetRef:
		return SetRef{Ref: f(k.Ref), Value: f(k.Value)}
	case ToObj:
		return ToObj{Type: k.Type, Value: f(k.Value)}
	case FromObj:
		return FromObj{Type: k.Type, Value: f(k.Value)}
	case Is:
		return Is{Type: k.Type, Value: f(k.Value)}
	case BinArith:
		return BinArith{Op: k.Op, L: f(k.L), R: f(k.R)}
	case Compare:
		return Compare{Op: k.Op, L: f(k.L), R: f(k.R)}
	case Not:
		return Not{V: f(k.V)}
	case Logical:
		return Logical{Op: k.Op, L: f(k.L), R: f(k.R)}
	case EqObj:
		return EqObj{L: f(k.L), R: f(k.R)}
	case Car:
		return Car{Pair: f(k.Pair)}
	case Cdr:
		return Cdr{Pair: f(k.Pair)}
	case SetCar:
		return SetCar{Pair: f(k.Pair), Value: f(k.Value)}
	case SetCdr:
		return SetCdr{Pair: f(k.Pair), Value: f(k.Value)}
	case VectorLength:
		return VectorLength{Vector: f(k.Vector)}
	case VectorRef:
		return VectorRef{Vector: f(k.Vector), Index: f(k.Index)}
	case VectorSet:
		return VectorSet{Vector: f(k.Vector), Index: f(k.Index), Value: f(k.Value)}
	case UVectorLength:
		return UVectorLength{Vector: f(k.Vector)}
	case UVectorRef:
		return UVectorRef{Vector: f(k.Vector), Index: f(k.Index)}
	case UVectorSet:
		return UVectorSet{Vector: f(k.Vector), Index: f(k.Index), Value: f(k.Value)}
	case SymbolToString:
		return SymbolToString{Symbol: f(k.Symbol)}
	case IntToString:
		return IntToString{Value: f(k.Value)}
	case FloatToString:
		return FloatToString{Value: f(k.Value)}
	case VariadicArgs:
		return VariadicArgs{Args: mapSlice(k.Args, f)}
	case VariadicArgsRef:
		return VariadicArgsRef{Args: f(k.Args), Index: f(k.Index)}
	case VariadicArgsLength:
		return VariadicArgsLength{Args: f(k.Args)}
	case VariadicArgsRest:
		return VariadicArgsRest{Args: f(k.Args), Index: f(k.Index)}
	case Call:
		return Call{Func: k.Func, Args: mapSlice(k.Args, f)}
	case CallRef:
		return CallRef{Func: f(k.Func), Args: mapSlice(k.Args, f), FuncType: k.FuncType}
	case CallClosure:
		return CallClosure{Closure: f(k.Closure), Args: mapSlice(k.Args, f), ArgTypes: k.ArgTypes, FuncIndex: k.FuncIndex}
	case Closure:
		envs := make([]OptionalLocal, len(k.Envs))
		for i, e := range k.Envs {
			if e.Present {
				envs[i] = SomeLocal(f(e.Local))
			} else {
				envs[i] = NoLocal()
			}
		}
		return Closure{Envs: envs, EnvTypes: k.EnvTypes, ModuleId: k.ModuleId, FuncId: k.FuncId, EntrypointTable: f(k.EntrypointTable)}
	case ClosureSetEnv:
		return ClosureSetEnv{Closure: f(k.Closure), Index: k.Index, Value: f(k.Value)}
	case ClosureEnv:
		return ClosureEnv{EnvTypes: k.EnvTypes, Closure: f(k.Closure), Index: k.Index}
	case ClosureModuleId:
		return ClosureModuleId{Closure: f(k.Closure)}
	case ClosureFuncId:
		return ClosureFuncId{Closure: f(k.Closure)}
	case ClosureEntrypointTable:
		return ClosureEntrypointTable{Closure: f(k.Closure)}
	case CreateMutFuncRef:
		return CreateMutFuncRef{Func: f(k.Func)}
	case DerefMutFuncRef:
		return DerefMutFuncRef{Ref: f(k.Ref)}
	case SetMutFuncRef:
		return SetMutFuncRef{Ref: f(k.Ref), Func: f(k.Func)}
	case EntrypointTable:
		return EntrypointTable{MutRefs: mapSlice(k.MutRefs, f)}
	case EntrypointTableRef:
		return EntrypointTableRef{Index: k.Index, Table: f(k.Table)}
	case SetEntrypointTable:
		return SetEntrypointTable{Index: k.Index, Table: f(k.Table), MutRef: f(k.MutRef)}
	case InstantiateClosureFunc:
		return InstantiateClosureFunc{ModuleLocal: f(k.ModuleLocal), FuncLocal: f(k.FuncLocal), FuncIndex: k.FuncIndex}
	case GlobalSet:
		return GlobalSet{Global: k.Global, Value: f(k.Value)}
	case Move:
		return Move{Src: f(k.Src)}
	case Display:
		return Display{V: f(k.V)}
	case WriteChar:
		return WriteChar{V: f(k.V)}
	default:
		panic("ir: MapOperands: unhandled InstrKind variant")
	}
}

func mapSlice(ids []LocalId, f func(LocalId) LocalId) []LocalId {
	if ids == nil {
		return nil
	}
	out := make([]LocalId, len(ids))
	for i, id := range ids {
		out[i] = f(id)
	}
	return out
}
