package resolver

import (
	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
)

// node is one mod of the working set.
type node struct {
	mod   mod.Mod
	depth int
	// requiredBy is the mod that pulled a dependency in; empty for selected mods.
	requiredBy mod.ID
	removed    bool
}

func (n *node) isDependency() bool { return n.depth > 0 }

// graph is an arena of nodes indexed by mod id. Nodes are never deleted,
// only marked removed, so indices stay stable for the whole run.
type graph struct {
	nodes []node
	index map[mod.ID]int
}

func newGraph(capacity int) *graph {
	return &graph{
		nodes: make([]node, 0, capacity),
		index: make(map[mod.ID]int, capacity),
	}
}

// add appends m and returns its index. The caller guarantees m.ID is new.
func (g *graph) add(m mod.Mod, depth int, requiredBy mod.ID) int {
	i := len(g.nodes)
	g.nodes = append(g.nodes, node{mod: m, depth: depth, requiredBy: requiredBy})
	g.index[m.ID] = i
	return i
}

func (g *graph) has(id mod.ID) bool {
	_, ok := g.index[id]
	return ok
}

// requirers returns nodes marked in live whose required dependencies include
// id, in arena order.
func (g *graph) requirers(id mod.ID, live []bool) []int {
	var out []int
	for i := range g.nodes {
		n := &g.nodes[i]
		if !live[i] || n.mod.ID == id {
			continue
		}
		if e, ok := n.mod.Dependencies[id]; ok && e.IsRequired() {
			out = append(out, i)
		}
	}
	return out
}
