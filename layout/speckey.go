package layout

import (
	"fmt"
	"strings"

	"github.com/wippyai/lispjit/ir"
)

// OptValType is an optional ValType: present when a type parameter has
// been refined to a concrete leaf type at this specialization, absent
// when it is still fully generic (Obj).
type OptValType struct {
	Type    ir.ValType
	Present bool
}

func Known(t ir.ValType) OptValType { return OptValType{Type: t, Present: true} }
func Unknown() OptValType           { return OptValType{} }

func (o OptValType) String() string {
	if !o.Present {
		return "_"
	}
	return o.Type.String()
}

// SpecKey is an ordered specialization key: one OptValType per
// TypeParamId of the BB being specialized. As a slice it is not
// comparable and cannot key a Go map itself; encode() below is its
// canonical string form, used only as the map key, never surfaced to
// callers.
type SpecKey []OptValType

func (k SpecKey) encode() string {
	var b strings.Builder
	for i, p := range k {
		if i > 0 {
			b.WriteByte(',')
		}
		if !p.Present {
			b.WriteByte('_')
			continue
		}
		fmt.Fprintf(&b, "%d:%d", p.Type.Kind, p.Type.UVectorKind)
	}
	return b.String()
}

// AllUnknown builds the fully generic key of the given arity — the
// default/zero key every manager reserves slot 0 for.
func AllUnknown(arity int) SpecKey {
	k := make(SpecKey, arity)
	for i := range k {
		k[i] = Unknown()
	}
	return k
}

func (k SpecKey) Equal(o SpecKey) bool {
	if len(k) != len(o) {
		return false
	}
	for i := range k {
		if k[i].Present != o[i].Present {
			return false
		}
		if k[i].Present && !k[i].Type.Equal(o[i].Type) {
			return false
		}
	}
	return true
}
