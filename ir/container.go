package ir

import "iter"

// Container is a densely indexed slot array keyed by a small integer id,
// with tombstoned removal and free-list reuse of freed slots. It is the
// canonical storage for a Func's locals and basic blocks and a Module's
// funcs and globals. Looking up a removed key reports a miss until Insert
// reuses that freed key for a new value; after that, a stale reference to
// the old key reads the new value.
//
// Follows the entries+freeList+tombstone shape of a resource-table
// backend, with a paired AddX/GetX accessor convention.
type Container[K ~int, V any] struct {
	entries  []entry[V]
	freeList []K
}

type entry[V any] struct {
	value V
	live  bool
}

// NewContainer returns an empty container.
func NewContainer[K ~int, V any]() *Container[K, V] {
	return &Container[K, V]{}
}

// Insert stores v under a fresh key, reusing a freed slot when one is
// available, and returns the key it was stored under.
func (c *Container[K, V]) Insert(v V) K {
	if n := len(c.freeList); n > 0 {
		k := c.freeList[n-1]
		c.freeList = c.freeList[:n-1]
		c.entries[int(k)] = entry[V]{value: v, live: true}
		return k
	}
	k := K(len(c.entries))
	c.entries = append(c.entries, entry[V]{value: v, live: true})
	return k
}

// InsertAt stores v under the specific key k, growing past any gap with
// tombstoned filler entries (returned to the free list) as needed. It
// serves callers that cannot accept an auto-assigned key: the
// specializer's globals, whose GlobalId must stay equal across every
// emitted Module that imports or exports the same underlying cell, and
// the specializer's Func clones, which keep the source's LocalId and
// BasicBlockId numbering — properties Insert's per-container sequential
// numbering can't provide on its own. ok is false if k already holds a
// live value.
func (c *Container[K, V]) InsertAt(k K, v V) bool {
	i := int(k)
	if i < 0 {
		return false
	}
	for len(c.entries) <= i {
		filler := K(len(c.entries))
		c.entries = append(c.entries, entry[V]{live: false})
		c.freeList = append(c.freeList, filler)
	}
	if c.entries[i].live {
		return false
	}
	c.entries[i] = entry[V]{value: v, live: true}
	for j, fk := range c.freeList {
		if fk == k {
			c.freeList = append(c.freeList[:j], c.freeList[j+1:]...)
			break
		}
	}
	return true
}

// Get returns the value stored at k and whether k currently holds a live
// value (false if k was never issued, or was issued and then Removed).
func (c *Container[K, V]) Get(k K) (V, bool) {
	var zero V
	if int(k) < 0 || int(k) >= len(c.entries) {
		return zero, false
	}
	e := c.entries[int(k)]
	if !e.live {
		return zero, false
	}
	return e.value, true
}

// MustGet returns the value stored at k, panicking via the caller-supplied
// fail func if k is not live. Callers in this module pass
// compilerpanic.Fail-shaped closures so every lookup failure carries phase
// context.
func (c *Container[K, V]) MustGet(k K, onMiss func(k K)) V {
	v, ok := c.Get(k)
	if !ok {
		onMiss(k)
	}
	return v
}

// Set overwrites the value at an already-live k. It does not create new
// entries; use Insert for that.
func (c *Container[K, V]) Set(k K, v V) bool {
	if int(k) < 0 || int(k) >= len(c.entries) || !c.entries[int(k)].live {
		return false
	}
	c.entries[int(k)].value = v
	return true
}

// Remove tombstones k and returns it to the free list. Removing an
// already-dead or out-of-range key is a no-op reported via the bool.
func (c *Container[K, V]) Remove(k K) bool {
	if int(k) < 0 || int(k) >= len(c.entries) || !c.entries[int(k)].live {
		return false
	}
	var zero V
	c.entries[int(k)] = entry[V]{value: zero, live: false}
	c.freeList = append(c.freeList, k)
	return true
}

// Len returns the number of live entries.
func (c *Container[K, V]) Len() int {
	n := 0
	for _, e := range c.entries {
		if e.live {
			n++
		}
	}
	return n
}

// Keys iterates live keys in ascending order.
func (c *Container[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for i, e := range c.entries {
			if !e.live {
				continue
			}
			if !yield(K(i)) {
				return
			}
		}
	}
}

// All iterates (key, value) pairs in ascending key order.
func (c *Container[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, e := range c.entries {
			if !e.live {
				continue
			}
			if !yield(K(i), e.value) {
				return
			}
		}
	}
}
