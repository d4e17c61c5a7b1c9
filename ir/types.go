package ir

import "fmt"

// ValTypeKind discriminates the leaf categories an unboxed value may hold.
type ValTypeKind uint8

const (
	KNil ValTypeKind = iota
	KBool
	KChar
	KInt
	KFloat
	KString
	KSymbol
	KCons
	KVector
	KUVector
	KClosure
	KFuncRef
)

func (k ValTypeKind) String() string {
	switch k {
	case KNil:
		return "nil"
	case KBool:
		return "bool"
	case KChar:
		return "char"
	case KInt:
		return "int"
	case KFloat:
		return "float"
	case KString:
		return "string"
	case KSymbol:
		return "symbol"
	case KCons:
		return "cons"
	case KVector:
		return "vector"
	case KUVector:
		return "uvector"
	case KClosure:
		return "closure"
	case KFuncRef:
		return "funcref"
	default:
		return fmt.Sprintf("valtypekind(%d)", uint8(k))
	}
}

// UVectorKind is the element kind of an unboxed-element vector.
type UVectorKind uint8

const (
	UVecS64 UVectorKind = iota
	UVecF64
)

func (k UVectorKind) String() string {
	switch k {
	case UVecS64:
		return "s64"
	case UVecF64:
		return "f64"
	default:
		return fmt.Sprintf("uvectorkind(%d)", uint8(k))
	}
}

// ElementType returns the unboxed ValType held by each slot of a vector
// of this kind.
func (k UVectorKind) ElementType() ValType {
	switch k {
	case UVecS64:
		return ValType{Kind: KInt}
	case UVecF64:
		return ValType{Kind: KFloat}
	default:
		panic(fmt.Sprintf("ir: unknown uvector kind %d", uint8(k)))
	}
}

// ValType is a leaf static type: every category from spec's static lattice
// except UVector is fully described by Kind alone; UVector additionally
// carries the kind of its unboxed elements.
type ValType struct {
	Kind        ValTypeKind
	UVectorKind UVectorKind
}

func VNil() ValType             { return ValType{Kind: KNil} }
func VBool() ValType            { return ValType{Kind: KBool} }
func VChar() ValType            { return ValType{Kind: KChar} }
func VInt() ValType             { return ValType{Kind: KInt} }
func VFloat() ValType           { return ValType{Kind: KFloat} }
func VString() ValType          { return ValType{Kind: KString} }
func VSymbol() ValType          { return ValType{Kind: KSymbol} }
func VCons() ValType            { return ValType{Kind: KCons} }
func VVector() ValType          { return ValType{Kind: KVector} }
func VClosure() ValType         { return ValType{Kind: KClosure} }
func VFuncRef() ValType         { return ValType{Kind: KFuncRef} }
func VUVector(k UVectorKind) ValType {
	return ValType{Kind: KUVector, UVectorKind: k}
}

func (t ValType) String() string {
	if t.Kind == KUVector {
		return fmt.Sprintf("uvector<%s>", t.UVectorKind)
	}
	return t.Kind.String()
}

func (t ValType) Equal(o ValType) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind == KUVector {
		return t.UVectorKind == o.UVectorKind
	}
	return true
}

// Type is either Obj (the boxed/tagged-object category) or Val(ValType).
// Only Obj carries runtime type tagging; every Val(t) is statically typed.
type Type struct {
	obj bool
	val ValType
}

// TObj is the dynamically typed boxed value category.
func TObj() Type { return Type{obj: true} }

// TVal wraps a leaf ValType as a statically typed category.
func TVal(v ValType) Type { return Type{val: v} }

func (t Type) IsObj() bool { return t.obj }

// Val returns the wrapped ValType and whether t actually is a Val(_); for
// Obj it returns a zero-value ValType with ok=false rather than panicking.
func (t Type) Val() (ValType, bool) {
	if t.obj {
		return ValType{}, false
	}
	return t.val, true
}

// MustVal panics if t is Obj; used where the caller has already checked
// IsObj or structurally knows t must be a Val.
func (t Type) MustVal() ValType {
	if t.obj {
		panic("ir: Type.MustVal called on Obj")
	}
	return t.val
}

func (t Type) String() string {
	if t.obj {
		return "obj"
	}
	return fmt.Sprintf("val(%s)", t.val)
}

func (t Type) Equal(o Type) bool {
	if t.obj != o.obj {
		return false
	}
	if t.obj {
		return true
	}
	return t.val.Equal(o.val)
}

// LocalTypeKind discriminates the shape of a Local's static type.
type LocalTypeKind uint8

const (
	LKType LocalTypeKind = iota
	LKRef
	LKVariadicArgs
	LKFuncRef
	LKMutFuncRef
	LKEntrypointTable
)

func (k LocalTypeKind) String() string {
	switch k {
	case LKType:
		return "type"
	case LKRef:
		return "ref"
	case LKVariadicArgs:
		return "variadic_args"
	case LKFuncRef:
		return "func_ref"
	case LKMutFuncRef:
		return "mut_func_ref"
	case LKEntrypointTable:
		return "entrypoint_table"
	default:
		return fmt.Sprintf("localtypekind(%d)", uint8(k))
	}
}

// LocalType is a Local's static type: a plain Type(Type), a single-cell
// mutable Ref(Type) (never recursive — no Ref(Ref(...))), or one of the
// JIT's own run-time value shapes (VariadicArgs, FuncRef, MutFuncRef,
// EntrypointTable).
type LocalType struct {
	Kind LocalTypeKind
	Elem Type // meaningful only for Kind == LKType or LKRef
}

func LType(t Type) LocalType        { return LocalType{Kind: LKType, Elem: t} }
func LRef(t Type) LocalType         { return LocalType{Kind: LKRef, Elem: t} }
func LVariadicArgs() LocalType      { return LocalType{Kind: LKVariadicArgs} }
func LFuncRef() LocalType           { return LocalType{Kind: LKFuncRef} }
func LMutFuncRef() LocalType        { return LocalType{Kind: LKMutFuncRef} }
func LEntrypointTable() LocalType   { return LocalType{Kind: LKEntrypointTable} }

func (lt LocalType) String() string {
	switch lt.Kind {
	case LKType:
		return lt.Elem.String()
	case LKRef:
		return fmt.Sprintf("ref(%s)", lt.Elem)
	default:
		return lt.Kind.String()
	}
}

func (lt LocalType) Equal(o LocalType) bool {
	if lt.Kind != o.Kind {
		return false
	}
	switch lt.Kind {
	case LKType, LKRef:
		return lt.Elem.Equal(o.Elem)
	default:
		return true
	}
}

// FuncType is a function's static signature: ordered argument types and a
// single return type.
type FuncType struct {
	Args []Type
	Ret  Type
}

func (ft FuncType) String() string {
	s := "("
	for i, a := range ft.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ") -> " + ft.Ret.String()
}

func (ft FuncType) Equal(o FuncType) bool {
	if len(ft.Args) != len(o.Args) || !ft.Ret.Equal(o.Ret) {
		return false
	}
	for i := range ft.Args {
		if !ft.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}
