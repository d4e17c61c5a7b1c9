package ir

import "testing"

func TestContainerInsertAssignsSequentialKeys(t *testing.T) {
	c := NewContainer[LocalId, string]()
	a := c.Insert("a")
	b := c.Insert("b")
	if a != 0 || b != 1 {
		t.Fatalf("got keys %v, %v, want 0, 1", a, b)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestContainerRemoveReusesSlot(t *testing.T) {
	c := NewContainer[LocalId, string]()
	a := c.Insert("a")
	c.Insert("b")
	c.Remove(a)
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Get(a); ok {
		t.Fatalf("Get(%v) after Remove should report !ok", a)
	}
	reused := c.Insert("c")
	if reused != a {
		t.Fatalf("Insert after Remove got %v, want reused slot %v", reused, a)
	}
}

func TestContainerInsertAtPreservesKeyAndFillsGap(t *testing.T) {
	c := NewContainer[GlobalId, int]()
	if ok := c.InsertAt(3, 30); !ok {
		t.Fatal("InsertAt(3, _) should succeed on empty container")
	}
	if v, ok := c.Get(3); !ok || v != 30 {
		t.Fatalf("Get(3) = %v, %v, want 30, true", v, ok)
	}
	for _, gap := range []GlobalId{0, 1, 2} {
		if _, ok := c.Get(gap); ok {
			t.Fatalf("Get(%v) over filler slot should be !ok", gap)
		}
	}
	if ok := c.InsertAt(1, 10); !ok {
		t.Fatal("InsertAt(1, _) into a filler slot should succeed")
	}
	if v, _ := c.Get(1); v != 10 {
		t.Fatalf("Get(1) = %v, want 10", v)
	}
	if ok := c.InsertAt(1, 99); ok {
		t.Fatal("InsertAt on an already-live key should fail")
	}
}

func TestContainerAllIteratesAscendingLiveKeys(t *testing.T) {
	c := NewContainer[LocalId, int]()
	c.Insert(10)
	mid := c.Insert(20)
	c.Insert(30)
	c.Remove(mid)

	var keys []LocalId
	for k := range c.All() {
		keys = append(keys, k)
	}
	if len(keys) != 2 || keys[0] != 0 || keys[1] != 2 {
		t.Fatalf("All() keys = %v, want [0 2]", keys)
	}
}
