package ir

// funcLocalKey identifies a Local scoped to one Func, for Meta's naming
// table — locals are only unique within their owning Func.
type funcLocalKey struct {
	Func  FuncId
	Local LocalId
}

// Meta carries optional diagnostic names; it never affects semantics,
// only Display output. A Module with a nil Meta (or any lookup miss)
// falls back to the raw "l3"/"f1"/"g0" identifier forms.
type Meta struct {
	localNames  map[funcLocalKey]string
	globalNames map[GlobalId]string
}

func NewMeta() *Meta {
	return &Meta{
		localNames:  make(map[funcLocalKey]string),
		globalNames: make(map[GlobalId]string),
	}
}

func (m *Meta) NameLocal(fn FuncId, local LocalId, name string) {
	m.localNames[funcLocalKey{fn, local}] = name
}

func (m *Meta) NameGlobal(id GlobalId, name string) {
	m.globalNames[id] = name
}

func (m *Meta) LocalName(fn FuncId, local LocalId) (string, bool) {
	if m == nil {
		return "", false
	}
	n, ok := m.localNames[funcLocalKey{fn, local}]
	return n, ok
}

func (m *Meta) GlobalName(id GlobalId) (string, bool) {
	if m == nil {
		return "", false
	}
	n, ok := m.globalNames[id]
	return n, ok
}
