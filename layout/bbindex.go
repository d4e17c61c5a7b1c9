package layout

import "github.com/wippyai/lispjit/ir"

// IndexFlag tells the caller of ToIdx whether the returned slot already
// existed (so the specializer can skip re-emitting a stub for it) or was
// just minted (so it must install one).
type IndexFlag uint8

const (
	NewInstance IndexFlag = iota
	ExistingInstance
)

func (f IndexFlag) String() string {
	if f == NewInstance {
		return "new_instance"
	}
	return "existing_instance"
}

// BBIndexManager maps a BB's specialization keys to dense dispatch slots
// and the Global (of LocalType FuncRef) holding that slot's specialized
// code. It lives inside the owning JitBB — the mapping is monotonically
// growing and entries are never removed over the manager's lifetime.
type BBIndexManager struct {
	limits  Limits
	keys    []SpecKey
	globals []ir.Global
	byKey   map[string]int
}

// NewBBIndexManager seeds slot 0 with the fully generic ("all unknown")
// key of the given arity against defaultGlobal, which the caller must
// already have reserved (it is not minted here).
func NewBBIndexManager(arity int, defaultGlobal ir.Global, limits Limits) *BBIndexManager {
	m := &BBIndexManager{
		limits:  limits,
		byKey:   make(map[string]int),
		keys:    []SpecKey{AllUnknown(arity)},
		globals: []ir.Global{defaultGlobal},
	}
	m.byKey[m.keys[0].encode()] = limits.DefaultIndex
	return m
}

// ToIdx looks up key, minting a fresh Global via mint() and a fresh dense
// slot if key is new and the manager is under capacity. ok is false if
// key is new and the manager is already at MaxSize — callers must fall
// back to the default (all-unknown) key, which always succeeds since it
// was seeded at construction.
func (m *BBIndexManager) ToIdx(key SpecKey, mint func() ir.Global) (global ir.Global, index int, flag IndexFlag, ok bool) {
	enc := key.encode()
	if idx, found := m.byKey[enc]; found {
		return m.globals[idx], idx, ExistingInstance, true
	}
	if len(m.keys) >= m.limits.MaxSize {
		return ir.Global{}, 0, 0, false
	}
	g := mint()
	idx := len(m.keys)
	m.keys = append(m.keys, key)
	m.globals = append(m.globals, g)
	m.byKey[enc] = idx
	return g, idx, NewInstance, true
}

// FromIdx reconstructs the specialization key and Global stored at a
// previously minted index, so a callback carrying only the dense index
// can recover concrete ValTypes for the specializer to assign.
func (m *BBIndexManager) FromIdx(index int) (SpecKey, ir.Global, bool) {
	if index < 0 || index >= len(m.keys) {
		return nil, ir.Global{}, false
	}
	return m.keys[index], m.globals[index], true
}

// Len reports how many specializations (including the default) this
// manager has minted.
func (m *BBIndexManager) Len() int { return len(m.keys) }
