package ir

import "fmt"

// LocalId names a local variable slot within a single Func.
type LocalId int

func (id LocalId) String() string { return fmt.Sprintf("l%d", int(id)) }

// BasicBlockId names a basic block within a single Func.
type BasicBlockId int

func (id BasicBlockId) String() string { return fmt.Sprintf("bb%d", int(id)) }

// FuncId names a function within a single Module.
type FuncId int

func (id FuncId) String() string { return fmt.Sprintf("f%d", int(id)) }

// ModuleId names one of the JIT's generated WebAssembly modules.
type ModuleId int

func (id ModuleId) String() string { return fmt.Sprintf("m%d", int(id)) }

// GlobalId names a WebAssembly global within a single Module.
type GlobalId int

func (id GlobalId) String() string { return fmt.Sprintf("g%d", int(id)) }

// TypeParamId names one slot of a BasicBlock's type-parameter list: the
// dimension along which the specializer can narrow an incoming Obj local
// to a concrete ValType.
type TypeParamId int

func (id TypeParamId) String() string { return fmt.Sprintf("t%d", int(id)) }
