package layout

import (
	"testing"

	"github.com/wippyai/lispjit/ir"
)

func TestSpecKeyEqual(t *testing.T) {
	a := SpecKey{Known(ir.VInt()), Unknown()}
	b := SpecKey{Known(ir.VInt()), Unknown()}
	c := SpecKey{Known(ir.VBool()), Unknown()}

	if !a.Equal(b) {
		t.Fatal("identical keys should be Equal")
	}
	if a.Equal(c) {
		t.Fatal("keys differing in a Known type should not be Equal")
	}
	if a.Equal(AllUnknown(2)) {
		t.Fatal("a partially-known key should not equal the all-unknown key")
	}
}

func TestAllUnknownArity(t *testing.T) {
	k := AllUnknown(3)
	if len(k) != 3 {
		t.Fatalf("len = %d, want 3", len(k))
	}
	for i, p := range k {
		if p.Present {
			t.Fatalf("AllUnknown()[%d] should be absent", i)
		}
	}
}
