// Package cfg computes the standard control-flow analyses — reverse
// postorder, predecessors, dominators, the dominator tree, and dominance
// frontiers — as pure functions of a Func's basic blocks and entry point.
// Every analysis here is a snapshot: the caller must recompute it after
// any mutation to bbs/bb_entry, since nothing in this package observes
// mutation itself.
package cfg

import (
	"sort"

	"github.com/wippyai/lispjit/ir"
)

// Graph is the minimal view of a Func's control-flow shape these
// analyses need: live BB ids, their successors, and the entry point.
type Graph struct {
	Func  *ir.Func
	Entry ir.BasicBlockId
}

func FuncGraph(f *ir.Func) Graph {
	return Graph{Func: f, Entry: f.BBEntry}
}

func (g Graph) successors(id ir.BasicBlockId) []ir.BasicBlockId {
	bb := g.Func.BB(id)
	var out []ir.BasicBlockId
	for s := range ir.Successors(bb.Next) {
		out = append(out, s)
	}
	return out
}

// ReversePostorder assigns lower numbers to blocks visited later in a
// depth-first postorder walk of the successor graph, reversed: the entry
// block is always 0. Blocks unreachable from Entry are omitted.
func ReversePostorder(g Graph) map[ir.BasicBlockId]int {
	var post []ir.BasicBlockId
	visited := make(map[ir.BasicBlockId]bool)

	var visit func(id ir.BasicBlockId)
	visit = func(id ir.BasicBlockId) {
		if visited[id] {
			return
		}
		visited[id] = true
		succs := g.successors(id)
		sort.Slice(succs, func(i, j int) bool { return succs[i] < succs[j] })
		for _, s := range succs {
			visit(s)
		}
		post = append(post, id)
	}
	visit(g.Entry)

	rpo := make(map[ir.BasicBlockId]int, len(post))
	n := len(post)
	for i, id := range post {
		rpo[id] = n - 1 - i
	}
	return rpo
}

// Predecessors returns, for every BB reachable from Entry, the set of BBs
// whose terminator names it.
func Predecessors(g Graph) map[ir.BasicBlockId][]ir.BasicBlockId {
	preds := make(map[ir.BasicBlockId][]ir.BasicBlockId)
	rpo := ReversePostorder(g)
	for id := range rpo {
		preds[id] = nil
	}
	for id := range rpo {
		for _, s := range g.successors(id) {
			preds[s] = append(preds[s], id)
		}
	}
	for id := range preds {
		sort.Slice(preds[id], func(i, j int) bool { return preds[id][i] < preds[id][j] })
	}
	return preds
}

// Dominators computes, for each reachable BB, the set of strict-plus-self
// dominators via iterative intersection over predecessors visited in RPO
// order, to a fixed point.
func Dominators(g Graph) map[ir.BasicBlockId]map[ir.BasicBlockId]bool {
	rpo := ReversePostorder(g)
	preds := Predecessors(g)

	order := make([]ir.BasicBlockId, 0, len(rpo))
	for id := range rpo {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return rpo[order[i]] < rpo[order[j]] })

	idom := make(map[ir.BasicBlockId]ir.BasicBlockId)
	idom[g.Entry] = g.Entry

	changed := true
	for changed {
		changed = false
		for _, id := range order {
			if id == g.Entry {
				continue
			}
			var newIdom ir.BasicBlockId
			found := false
			for _, p := range preds[id] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !found {
					newIdom = p
					found = true
					continue
				}
				newIdom = intersect(newIdom, p, idom, rpo)
			}
			if !found {
				continue
			}
			if old, ok := idom[id]; !ok || old != newIdom {
				idom[id] = newIdom
				changed = true
			}
		}
	}

	doms := make(map[ir.BasicBlockId]map[ir.BasicBlockId]bool, len(order))
	for _, id := range order {
		set := map[ir.BasicBlockId]bool{id: true}
		cur := id
		for cur != g.Entry {
			cur = idom[cur]
			set[cur] = true
		}
		doms[id] = set
	}
	return doms
}

func intersect(a, b ir.BasicBlockId, idom map[ir.BasicBlockId]ir.BasicBlockId, rpo map[ir.BasicBlockId]int) ir.BasicBlockId {
	for a != b {
		for rpo[a] < rpo[b] {
			b = idom[b]
		}
		for rpo[b] < rpo[a] {
			a = idom[a]
		}
	}
	return a
}

// DomTree is the immediate-dominator tree: Parent maps each non-entry BB
// to its immediate dominator, Children maps each BB to the BBs it
// immediately dominates.
type DomTree struct {
	Entry    ir.BasicBlockId
	Parent   map[ir.BasicBlockId]ir.BasicBlockId
	Children map[ir.BasicBlockId][]ir.BasicBlockId
}

// BuildDomTree derives the immediate-dominator tree from Dominators'
// per-BB dominator sets: a BB's immediate dominator is the unique
// dominator (other than itself) that dominates no other proper dominator
// of the BB.
func BuildDomTree(g Graph, doms map[ir.BasicBlockId]map[ir.BasicBlockId]bool) DomTree {
	tree := DomTree{
		Entry:    g.Entry,
		Parent:   make(map[ir.BasicBlockId]ir.BasicBlockId),
		Children: make(map[ir.BasicBlockId][]ir.BasicBlockId),
	}
	for id, set := range doms {
		if id == g.Entry {
			continue
		}
		var idom ir.BasicBlockId
		found := false
		for cand := range set {
			if cand == id {
				continue
			}
			isImmediate := true
			for other := range set {
				if other == id || other == cand {
					continue
				}
				if doms[other][cand] {
					isImmediate = false
					break
				}
			}
			if isImmediate {
				idom = cand
				found = true
				break
			}
		}
		if found {
			tree.Parent[id] = idom
			tree.Children[idom] = append(tree.Children[idom], id)
		}
	}
	for id := range tree.Children {
		sort.Slice(tree.Children[id], func(i, j int) bool { return tree.Children[id][i] < tree.Children[id][j] })
	}
	return tree
}

// DominanceFrontiers computes the standard Cytron dominance frontier of
// every reachable BB over the dominator tree.
func DominanceFrontiers(g Graph, tree DomTree) map[ir.BasicBlockId]map[ir.BasicBlockId]bool {
	df := make(map[ir.BasicBlockId]map[ir.BasicBlockId]bool)
	preds := Predecessors(g)
	for id := range preds {
		df[id] = map[ir.BasicBlockId]bool{}
	}
	for id, ps := range preds {
		if len(ps) < 2 {
			continue
		}
		for _, p := range ps {
			runner := p
			for runner != tree.Parent[id] && runner != id {
				df[runner][id] = true
				parent, ok := tree.Parent[runner]
				if !ok {
					break
				}
				runner = parent
			}
		}
	}
	return df
}
