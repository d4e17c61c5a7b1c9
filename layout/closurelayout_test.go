package layout

import (
	"testing"

	"github.com/wippyai/lispjit/ir"
)

func TestClosureGlobalLayoutSlotZeroIsVariadic(t *testing.T) {
	l := NewClosureGlobalLayout(DefaultLimits())
	idx, flag, ok := l.ToIdx(Variadic())
	if !ok || idx != 0 || flag != ExistingInstance {
		t.Fatalf("ToIdx(Variadic()) = (%v, %v, %v), want (0, ExistingInstance, true) — already instantiated at construction", idx, flag, ok)
	}
}

func TestClosureGlobalLayoutIndexVsInstantiatedAreTrackedSeparately(t *testing.T) {
	l := NewClosureGlobalLayout(DefaultLimits())
	sig := Specified([]ir.Type{ir.TVal(ir.VInt())})

	idx1, flag1, ok := l.ToIdx(sig)
	if !ok || flag1 != NewInstance {
		t.Fatalf("first ToIdx(sig) flag = %v, want NewInstance", flag1)
	}
	idx2, flag2, ok := l.ToIdx(sig)
	if !ok || idx2 != idx1 || flag2 != ExistingInstance {
		t.Fatalf("second ToIdx(sig) = (%v, %v), want (%v, ExistingInstance)", idx2, flag2, idx1)
	}

	got, ok := l.FromIdx(idx1)
	if !ok || got.Variadic || len(got.Types) != 1 {
		t.Fatalf("FromIdx(%v) = %+v, want the specified signature back", idx1, got)
	}
}

func TestClosureGlobalLayoutRefusesBeyondCapacity(t *testing.T) {
	l := NewClosureGlobalLayout(Limits{MaxSize: 1, DefaultIndex: 0, BranchThreshold: 20})
	if _, _, ok := l.ToIdx(Specified([]ir.Type{ir.TVal(ir.VBool())})); ok {
		t.Fatal("with MaxSize 1 already consumed by the variadic slot, a new signature must be refused")
	}
}
