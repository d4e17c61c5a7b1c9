package optimize

import (
	"github.com/wippyai/lispjit/cfg"
	"github.com/wippyai/lispjit/ir"
)

// CSE performs dominator-tree-scoped common subexpression elimination:
// walking the dom tree, it extends a kind-text → LocalId map with every
// Pure instruction seen, cloning the map per child so a sibling subtree
// never sees another sibling's definitions. On a hit it rewrites the
// instruction to Move(hit), leaving removal of the now-dead original
// destination to DCE.
func CSE(f *ir.Func) bool {
	g := cfg.FuncGraph(f)
	rpo := cfg.ReversePostorder(g)
	if _, ok := rpo[f.BBEntry]; !ok {
		return false
	}
	doms := cfg.Dominators(g)
	tree := cfg.BuildDomTree(g, doms)
	namer := ir.NewNamer(nil, 0)

	changed := false
	var walk func(id ir.BasicBlockId, seen map[string]ir.LocalId)
	walk = func(id ir.BasicBlockId, seen map[string]ir.LocalId) {
		local := make(map[string]ir.LocalId, len(seen))
		for k, v := range seen {
			local[k] = v
		}
		bb := f.BB(id)
		newInstrs := make([]ir.Instr, len(bb.Instrs))
		for i, instr := range bb.Instrs {
			if instr.HasDest() && instr.Kind.Purity().CanCSE() {
				key := ir.RenderInstrKind(instr.Kind, namer)
				if hit, ok := local[key]; ok {
					newInstrs[i] = ir.Instr{Dest: instr.Dest, Kind: ir.Move{Src: hit}}
					changed = true
					continue
				}
				local[key] = instr.Dest
				newInstrs[i] = instr
				continue
			}
			newInstrs[i] = instr
		}
		bb.Instrs = newInstrs
		f.BBs.Set(id, bb)
		for _, child := range tree.Children[id] {
			walk(child, local)
		}
	}
	walk(f.BBEntry, map[string]ir.LocalId{})
	return changed
}
