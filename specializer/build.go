package specializer

import "github.com/wippyai/lispjit/ir"

// funcBuilder is a small append-only helper for the glue functions every
// tier emits (stubs, module entries): it never needs the full power of
// the optimizer-facing ir.Func API, just "add an arg", "add a BB",
// "append an instruction", "set a BB's terminator".
type funcBuilder struct {
	f *ir.Func
}

func newFuncBuilder(id ir.FuncId, retType ir.Type) *funcBuilder {
	return &funcBuilder{f: ir.NewFunc(id, retType)}
}

func (b *funcBuilder) arg(lt ir.LocalType) ir.LocalId {
	id := b.f.Locals.Insert(ir.Local{Type: lt})
	b.f.Args = append(b.f.Args, id)
	return id
}

func (b *funcBuilder) local(lt ir.LocalType) ir.LocalId {
	return b.f.Locals.Insert(ir.Local{Type: lt})
}

func (b *funcBuilder) newBB() ir.BasicBlockId {
	id := b.f.BBs.Insert(ir.BasicBlock{})
	bb, _ := b.f.BBs.Get(id)
	bb.Id = id
	b.f.BBs.Set(id, bb)
	return id
}

// insertFunc inserts f into m's Funcs container and stamps the resulting
// container key back onto the stored Func's Id field, so a Func's
// self-identity always matches the key everything else (Closure.FuncId,
// Call.Func, module.Entry) addresses it by.
func insertFunc(m *ir.Module, f *ir.Func) ir.FuncId {
	id := m.Funcs.Insert(*f)
	stored, _ := m.Funcs.Get(id)
	stored.Id = id
	m.Funcs.Set(id, stored)
	return id
}

func (b *funcBuilder) emit(bb ir.BasicBlockId, dest ir.LocalId, k ir.InstrKind) {
	block := b.f.BB(bb)
	block.Instrs = append(block.Instrs, ir.Instr{Dest: dest, Kind: k})
	b.f.BBs.Set(bb, block)
}

func (b *funcBuilder) stmt(bb ir.BasicBlockId, k ir.InstrKind) {
	b.emit(bb, ir.NoDest, k)
}

func (b *funcBuilder) setNext(bb ir.BasicBlockId, next ir.BasicBlockNext) {
	block := b.f.BB(bb)
	block.Next = next
	b.f.BBs.Set(bb, block)
}

func (b *funcBuilder) entry(bb ir.BasicBlockId) {
	b.f.BBEntry = bb
}

func (b *funcBuilder) build() *ir.Func { return b.f }

// argTypesAsLocalTypes converts a FuncType's static Args into the
// LocalType each formal parameter should carry (plain typed locals,
// since stub/glue functions never see VariadicArgs or EntrypointTable
// shapes directly).
func argTypesAsLocalTypes(ft ir.FuncType) []ir.LocalType {
	out := make([]ir.LocalType, len(ft.Args))
	for i, t := range ft.Args {
		out[i] = ir.LType(t)
	}
	return out
}
