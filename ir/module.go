package ir

// Module is a complete unit the specializer can emit as a WebAssembly
// module: the function bodies that make it up, the globals it imports or
// exports, and the function to invoke on load.
type Module struct {
	Globals *Container[GlobalId, Global]
	Funcs   *Container[FuncId, Func]
	Entry   FuncId
	Meta    *Meta
}

func NewModule(entry FuncId) *Module {
	return &Module{
		Globals: NewContainer[GlobalId, Global](),
		Funcs:   NewContainer[FuncId, Func](),
		Entry:   entry,
		Meta:    NewMeta(),
	}
}
