package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Namer resolves the diagnostic name of an id from a Module's Meta,
// falling back to the id's raw textual form. It is scoped to a single
// Func so local names don't collide across functions.
type Namer struct {
	meta *Meta
	fn   FuncId
}

func NewNamer(meta *Meta, fn FuncId) *Namer { return &Namer{meta: meta, fn: fn} }

func (n *Namer) Local(id LocalId) string {
	if id == NoDest {
		return "_"
	}
	if name, ok := n.meta.LocalName(n.fn, id); ok {
		return name
	}
	return id.String()
}

func (n *Namer) Global(id GlobalId) string {
	if name, ok := n.meta.GlobalName(id); ok {
		return name
	}
	return id.String()
}

func localsList(n *Namer, ids []LocalId) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = n.Local(id)
	}
	return strings.Join(parts, ", ")
}

func floatLit(v float64) string {
	if v != v { // NaN
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// RenderInstrKind produces the canonical `snake_case(args)` textual form
// of k, matching the source language's own Display convention closely
// enough to diff optimizer output by eye.
func RenderInstrKind(k InstrKind, n *Namer) string {
	switch k := k.(type) {
	case Nop:
		return "nop"
	case Phi:
		parts := make([]string, len(k.Incomings))
		for i, in := range k.Incomings {
			parts[i] = fmt.Sprintf("%s: %s", n.Local(in.Local), in.BB)
		}
		suffix := ""
		if k.NonExhaustive {
			suffix = " non_exhaustive"
		}
		return fmt.Sprintf("phi(%s)%s", strings.Join(parts, ", "), suffix)
	case ConstNil:
		return "nil"
	case ConstBool:
		return fmt.Sprintf("bool(%t)", k.Value)
	case ConstInt:
		return fmt.Sprintf("int(%d)", k.Value)
	case ConstFloat:
		return fmt.Sprintf("float(%s)", floatLit(k.Value))
	case ConstChar:
		return fmt.Sprintf("char(%q)", k.Value)
	case ConstString:
		return fmt.Sprintf("string(%q)", k.Value)
	case StringToSymbol:
		return fmt.Sprintf("string_to_symbol(%s)", n.Local(k.Str))
	case Cons:
		return fmt.Sprintf("cons(%s, %s)", n.Local(k.Car), n.Local(k.Cdr))
	case Vector:
		return fmt.Sprintf("vector(%s)", localsList(n, k.Elements))
	case MakeVector:
		return fmt.Sprintf("make_vector(%s)", n.Local(k.Length))
	case UVector:
		return fmt.Sprintf("uvector<%s>(%s)", k.Kind, localsList(n, k.Elements))
	case MakeUVector:
		return fmt.Sprintf("make_uvector<%s>(%s)", k.Kind, n.Local(k.Length))
	case CreateRef:
		return fmt.Sprintf("create_ref(%s)", n.Local(k.Init))
	case DerefRef:
		return fmt.Sprintf("deref_ref(%s)", n.Local(k.Ref))
	case SetRef:
		return fmt.Sprintf("set_ref(%s, %s)", n.Local(k.Ref), n.Local(k.Value))
	case ToObj:
		return fmt.Sprintf("to_obj<%s>(%s)", k.Type, n.Local(k.Value))
	case FromObj:
		return fmt.Sprintf("from_obj<%s>(%s)", k.Type, n.Local(k.Value))
	case Is:
		return fmt.Sprintf("is<%s>(%s)", k.Type, n.Local(k.Value))
	case BinArith:
		return fmt.Sprintf("%s(%s, %s)", k.Op, n.Local(k.L), n.Local(k.R))
	case Compare:
		return fmt.Sprintf("%s(%s, %s)", k.Op, n.Local(k.L), n.Local(k.R))
	case Not:
		return fmt.Sprintf("not(%s)", n.Local(k.V))
	case Logical:
		return fmt.Sprintf("%s(%s, %s)", k.Op, n.Local(k.L), n.Local(k.R))
	case EqObj:
		return fmt.Sprintf("eq_obj(%s, %s)", n.Local(k.L), n.Local(k.R))
	case Car:
		return fmt.Sprintf("car(%s)", n.Local(k.Pair))
	case Cdr:
		return fmt.Sprintf("cdr(%s)", n.Local(k.Pair))
	case SetCar:
		return fmt.Sprintf("set_car(%s, %s)", n.Local(k.Pair), n.Local(k.Value))
	case SetCdr:
		return fmt.Sprintf("set_cdr(%s, %s)", n.Local(k.Pair), n.Local(k.Value))
	case VectorLength:
		return fmt.Sprintf("vector_length(%s)", n.Local(k.Vector))
	case VectorRef:
		return fmt.Sprintf("vector_ref(%s, %s)", n.Local(k.Vector), n.Local(k.Index))
	case VectorSet:
		return fmt.Sprintf("vector_set(%s, %s, %s)", n.Local(k.Vector), n.Local(k.Index), n.Local(k.Value))
	case UVectorLength:
		return fmt.Sprintf("uvector_length(%s)", n.Local(k.Vector))
	case UVectorRef:
		return fmt.Sprintf("uvector_ref(%s, %s)", n.Local(k.Vector), n.Local(k.Index))
	case UVectorSet:
		return fmt.Sprintf("uvector_set(%s, %s, %s)", n.Local(k.Vector), n.Local(k.Index), n.Local(k.Value))
	case SymbolToString:
		return fmt.Sprintf("symbol_to_string(%s)", n.Local(k.Symbol))
	case IntToString:
		return fmt.Sprintf("int_to_string(%s)", n.Local(k.Value))
	case FloatToString:
		return fmt.Sprintf("float_to_string(%s)", n.Local(k.Value))
	case VariadicArgs:
		return fmt.Sprintf("variadic_args(%s)", localsList(n, k.Args))
	case VariadicArgsRef:
		return fmt.Sprintf("variadic_args_ref(%s, %s)", n.Local(k.Args), n.Local(k.Index))
	case VariadicArgsLength:
		return fmt.Sprintf("variadic_args_length(%s)", n.Local(k.Args))
	case VariadicArgsRest:
		return fmt.Sprintf("variadic_args_rest(%s, %s)", n.Local(k.Args), n.Local(k.Index))
	case FuncRef:
		return fmt.Sprintf("func_ref(%s)", k.Func)
	case Call:
		return fmt.Sprintf("call(%s, [%s])", k.Func, localsList(n, k.Args))
	case CallRef:
		return fmt.Sprintf("call_ref<%s>(%s, [%s])", k.FuncType, n.Local(k.Func), localsList(n, k.Args))
	case CallClosure:
		return fmt.Sprintf("call_closure<%d>(%s, [%s])", k.FuncIndex, n.Local(k.Closure), localsList(n, k.Args))
	case Closure:
		envs := make([]string, len(k.Envs))
		for i, e := range k.Envs {
			if e.Present {
				envs[i] = n.Local(e.Local)
			} else {
				envs[i] = "_"
			}
		}
		return fmt.Sprintf("closure<%s, %s>(%s)", k.ModuleId, k.FuncId, strings.Join(envs, ", "))
	case ClosureSetEnv:
		return fmt.Sprintf("closure_set_env(%s, %d, %s)", n.Local(k.Closure), k.Index, n.Local(k.Value))
	case ClosureEnv:
		return fmt.Sprintf("closure_env(%s, %d)", n.Local(k.Closure), k.Index)
	case ClosureModuleId:
		return fmt.Sprintf("closure_module_id(%s)", n.Local(k.Closure))
	case ClosureFuncId:
		return fmt.Sprintf("closure_func_id(%s)", n.Local(k.Closure))
	case ClosureEntrypointTable:
		return fmt.Sprintf("closure_entrypoint_table(%s)", n.Local(k.Closure))
	case CreateMutFuncRef:
		return fmt.Sprintf("create_mut_func_ref(%s)", n.Local(k.Func))
	case CreateEmptyMutFuncRef:
		return "create_empty_mut_func_ref()"
	case DerefMutFuncRef:
		return fmt.Sprintf("deref_mut_func_ref(%s)", n.Local(k.Ref))
	case SetMutFuncRef:
		return fmt.Sprintf("set_mut_func_ref(%s, %s)", n.Local(k.Ref), n.Local(k.Func))
	case EntrypointTable:
		return fmt.Sprintf("entrypoint_table(%s)", localsList(n, k.MutRefs))
	case EntrypointTableRef:
		return fmt.Sprintf("entrypoint_table_ref(%d, %s)", k.Index, n.Local(k.Table))
	case SetEntrypointTable:
		return fmt.Sprintf("set_entrypoint_table(%d, %s, %s)", k.Index, n.Local(k.Table), n.Local(k.MutRef))
	case InstantiateFunc:
		return fmt.Sprintf("instantiate_func(%s, %s, %d)", k.Module, k.Func, k.FuncIndex)
	case InstantiateClosureFunc:
		return fmt.Sprintf("instantiate_closure_func(%s, %s, %d)", n.Local(k.ModuleLocal), n.Local(k.FuncLocal), k.FuncIndex)
	case InstantiateBB:
		return fmt.Sprintf("instantiate_bb(%s, %s, %d, %s, %d)", k.Module, k.Func, k.FuncIndex, k.BB, k.Index)
	case IncrementBranchCounter:
		return fmt.Sprintf("increment_branch_counter(%s, %s, %d, %s, %s, %s, %d)",
			k.Module, k.Func, k.FuncIndex, k.BB, k.Kind, k.CallerBB, k.CallerIndex)
	case GlobalGet:
		return fmt.Sprintf("global_get(%s)", n.Global(k.Global))
	case GlobalSet:
		return fmt.Sprintf("global_set(%s, %s)", n.Global(k.Global), n.Local(k.Value))
	case Move:
		return fmt.Sprintf("move(%s)", n.Local(k.Src))
	case Uninitialized:
		return fmt.Sprintf("uninitialized<%s>()", k.Type)
	case Display:
		return fmt.Sprintf("display(%s)", n.Local(k.V))
	case WriteChar:
		return fmt.Sprintf("write_char(%s)", n.Local(k.V))
	default:
		return fmt.Sprintf("<?%T>", k)
	}
}

// RenderInstr prints a whole Instr as `dest = kind(args)` or just
// `kind(args)` for destinationless statements.
func RenderInstr(i Instr, n *Namer) string {
	body := RenderInstrKind(i.Kind, n)
	if !i.HasDest() {
		return body
	}
	return fmt.Sprintf("%s = %s", n.Local(i.Dest), body)
}

func renderNext(next BasicBlockNext, n *Namer) string {
	switch nx := next.(type) {
	case NextIf:
		return fmt.Sprintf("if %s then %s else %s", n.Local(nx.Cond), nx.Then, nx.Else)
	case NextJump:
		return fmt.Sprintf("jump %s", nx.Target)
	case NextTerminator:
		switch t := nx.Terminator.(type) {
		case ReturnExit:
			return fmt.Sprintf("return %s", n.Local(t.Value))
		case TailCallExit:
			return "tail_" + RenderInstrKind(t.Call, n)
		case TailCallRefExit:
			return "tail_" + RenderInstrKind(t.Call, n)
		case TailCallClosureExit:
			return "tail_" + RenderInstrKind(t.Call, n)
		case ErrorExit:
			return fmt.Sprintf("error(%s)", n.Local(t.Message))
		default:
			return fmt.Sprintf("<?terminator %T>", t)
		}
	default:
		return fmt.Sprintf("<?next %T>", next)
	}
}

// RenderBB prints a whole basic block as golden text: one instruction per
// line, followed by its terminator line.
func RenderBB(bb BasicBlock, n *Namer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", bb.Id)
	for _, instr := range bb.Instrs {
		fmt.Fprintf(&b, "  %s\n", RenderInstr(instr, n))
	}
	fmt.Fprintf(&b, "  %s\n", renderNext(bb.Next, n))
	return b.String()
}

// RenderFunc prints a whole function: its signature line followed by
// every BB in ascending BasicBlockId order.
func RenderFunc(f *Func, meta *Meta) string {
	n := NewNamer(meta, f.Id)
	var b strings.Builder
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = fmt.Sprintf("%s: %s", n.Local(a), f.LocalType(a))
	}
	fmt.Fprintf(&b, "func %s(%s) -> %s entry=%s {\n", f.Id, strings.Join(args, ", "), f.RetType, f.BBEntry)
	for id := range f.BBIds() {
		bb := f.BB(id)
		for _, line := range strings.Split(strings.TrimRight(RenderBB(bb, n), "\n"), "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// RenderModule prints every function in a Module in ascending FuncId
// order.
func RenderModule(m *Module) string {
	var b strings.Builder
	for id := range m.Funcs.Keys() {
		f := m.Funcs.MustGet(id, func(id FuncId) {
			panic("ir: RenderModule: func container corrupted")
		})
		b.WriteString(RenderFunc(&f, m.Meta))
	}
	return b.String()
}
