package layout

import (
	"testing"

	"github.com/wippyai/lispjit/ir"
)

func defaultGlobal(id ir.GlobalId) ir.Global {
	return ir.Global{Id: id, Type: ir.LFuncRef(), Linkage: ir.LinkageExport}
}

func TestBBIndexManagerSeedsDefaultSlotZero(t *testing.T) {
	m := NewBBIndexManager(1, defaultGlobal(0), DefaultLimits())
	key, g, ok := m.FromIdx(0)
	if !ok {
		t.Fatal("FromIdx(0) should resolve the seeded default slot")
	}
	if !key.Equal(AllUnknown(1)) {
		t.Fatalf("slot 0 key = %v, want all-unknown", key)
	}
	if g.Id != 0 {
		t.Fatalf("slot 0 global = %v, want the seeded default", g.Id)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
}

func TestBBIndexManagerToIdxMintsAndReuses(t *testing.T) {
	m := NewBBIndexManager(1, defaultGlobal(0), DefaultLimits())
	key := SpecKey{Known(ir.VInt())}

	minted := 0
	mint := func() ir.Global { minted++; return defaultGlobal(ir.GlobalId(minted)) }

	g1, idx1, flag1, ok := m.ToIdx(key, mint)
	if !ok || flag1 != NewInstance || idx1 != 1 {
		t.Fatalf("first ToIdx = (%v, %v, %v, %v), want (_, 1, NewInstance, true)", g1, idx1, flag1, ok)
	}
	g2, idx2, flag2, ok := m.ToIdx(key, mint)
	if !ok || flag2 != ExistingInstance || idx2 != idx1 || g2.Id != g1.Id {
		t.Fatalf("second ToIdx should return the same existing slot, got (%v, %v, %v, %v)", g2, idx2, flag2, ok)
	}
	if minted != 1 {
		t.Fatalf("mint called %d times, want 1 (only on first ToIdx)", minted)
	}
}

func TestBBIndexManagerRefusesBeyondCapacity(t *testing.T) {
	limits := Limits{MaxSize: 2, DefaultIndex: 0, BranchThreshold: 20}
	m := NewBBIndexManager(1, defaultGlobal(0), limits)
	mint := func() ir.Global { return defaultGlobal(1) }

	if _, _, _, ok := m.ToIdx(SpecKey{Known(ir.VInt())}, mint); !ok {
		t.Fatal("first new key should fit under MaxSize 2 (slot 0 is the default)")
	}
	if _, _, _, ok := m.ToIdx(SpecKey{Known(ir.VBool())}, mint); ok {
		t.Fatal("a second distinct key should be refused once MaxSize is reached")
	}
}

func TestBBIndexManagerFromIdxOutOfRange(t *testing.T) {
	m := NewBBIndexManager(1, defaultGlobal(0), DefaultLimits())
	if _, _, ok := m.FromIdx(5); ok {
		t.Fatal("FromIdx on a never-minted index should report !ok")
	}
}
