package ir

// operandLocals lists the LocalId operands an InstrKind reads, in the
// order they're held in the struct. Phi is handled separately by
// Instr.LocalUsages and never reaches here. This is the single place
// that has to learn about a new variant's operand shape; every other
// piece of the optimizer goes through Instr.LocalUsages instead of
// repeating this switch.
func operandLocals(k InstrKind) []LocalId {
	switch k := k.(type) {
	case Nop, ConstNil, ConstBool, ConstInt, ConstFloat, ConstChar, ConstString,
		CreateEmptyMutFuncRef, FuncRef, InstantiateFunc, InstantiateBB,
		IncrementBranchCounter, Uninitialized:
		return nil
	case StringToSymbol:
		return []LocalId{k.Str}
	case Cons:
		return []LocalId{k.Car, k.Cdr}
	case Vector:
		return k.Elements
	case MakeVector:
		return []LocalId{k.Length}
	case UVector:
		return k.Elements
	case MakeUVector:
		return []LocalId{k.Length}
	case CreateRef:
		return []LocalId{k.Init}
	case DerefRef:
		return []LocalId{k.Ref}
	case SetRef:
		return []LocalId{k.Ref, k.Value}
	case ToObj:
		return []LocalId{k.Value}
	case FromObj:
		return []LocalId{k.Value}
	case Is:
		return []LocalId{k.Value}
	case BinArith:
		return []LocalId{k.L, k.R}
	case Compare:
		return []LocalId{k.L, k.R}
	case Not:
		return []LocalId{k.V}
	case Logical:
		return []LocalId{k.L, k.R}
	case EqObj:
		return []LocalId{k.L, k.R}
	case Car:
		return []LocalId{k.Pair}
	case Cdr:
		return []LocalId{k.Pair}
	case SetCar:
		return []LocalId{k.Pair, k.Value}
	case SetCdr:
		return []LocalId{k.Pair, k.Value}
	case VectorLength:
		return []LocalId{k.Vector}
	case VectorRef:
		return []LocalId{k.Vector, k.Index}
	case VectorSet:
		return []LocalId{k.Vector, k.Index, k.Value}
	case UVectorLength:
		return []LocalId{k.Vector}
	case UVectorRef:
		return []LocalId{k.Vector, k.Index}
	case UVectorSet:
		return []LocalId{k.Vector, k.Index, k.Value}
	case SymbolToString:
		return []LocalId{k.Symbol}
	case IntToString:
		return []LocalId{k.Value}
	case FloatToString:
		return []LocalId{k.Value}
	case VariadicArgs:
		return k.Args
	case VariadicArgsRef:
		return []LocalId{k.Args, k.Index}
	case VariadicArgsLength:
		return []LocalId{k.Args}
	case VariadicArgsRest:
		return []LocalId{k.Args, k.Index}
	case Call:
		return k.Args
	case CallRef:
		ls := make([]LocalId, 0, len(k.Args)+1)
		ls = append(ls, k.Func)
		return append(ls, k.Args...)
	case CallClosure:
		ls := make([]LocalId, 0, len(k.Args)+1)
		ls = append(ls, k.Closure)
		return append(ls, k.Args...)
	case Closure:
		ls := make([]LocalId, 0, len(k.Envs)+1)
		for _, e := range k.Envs {
			if e.Present {
				ls = append(ls, e.Local)
			}
		}
		return append(ls, k.EntrypointTable)
	case ClosureSetEnv:
		return []LocalId{k.Closure, k.Value}
	case ClosureEnv:
		return []LocalId{k.Closure}
	case ClosureModuleId:
		return []LocalId{k.Closure}
	case ClosureFuncId:
		return []LocalId{k.Closure}
	case ClosureEntrypointTable:
		return []LocalId{k.Closure}
	case CreateMutFuncRef:
		return []LocalId{k.Func}
	case DerefMutFuncRef:
		return []LocalId{k.Ref}
	case SetMutFuncRef:
		return []LocalId{k.Ref, k.Func}
	case EntrypointTable:
		return k.MutRefs
	case EntrypointTableRef:
		return []LocalId{k.Table}
	case SetEntrypointTable:
		return []LocalId{k.Table, k.MutRef}
	case InstantiateClosureFunc:
		return []LocalId{k.ModuleLocal, k.FuncLocal}
	case GlobalGet:
		return nil
	case GlobalSet:
		return []LocalId{k.Value}
	case Move:
		return []LocalId{k.Src}
	case Display:
		return []LocalId{k.V}
	case WriteChar:
		return []LocalId{k.V}
	default:
		panic("ir: operandLocals: unhandled InstrKind variant")
	}
}
