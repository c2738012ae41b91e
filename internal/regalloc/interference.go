// Package regalloc implements Chaitin-style graph-coloring register
// allocation with spilling (spec §4.7), consuming the liveness data the
// ir package already computes rather than recomputing it.
package regalloc

import (
	"sort"

	"wlpc/internal/ir"
)

// Graph is an interference graph over variable names: an edge means the
// two variables are simultaneously live at some program point.
type Graph struct {
	adj map[string]map[string]bool
}

func newGraph() *Graph {
	return &Graph{adj: map[string]map[string]bool{}}
}

func (g *Graph) addNode(v string) {
	if g.adj[v] == nil {
		g.adj[v] = map[string]bool{}
	}
}

func (g *Graph) addEdge(a, b string) {
	if a == b {
		return
	}
	g.addNode(a)
	g.addNode(b)
	g.adj[a][b] = true
	g.adj[b][a] = true
}

func (g *Graph) removeNode(v string) {
	for n := range g.adj[v] {
		delete(g.adj[n], v)
	}
	delete(g.adj, v)
}

func (g *Graph) degree(v string) int { return len(g.adj[v]) }

func (g *Graph) nodes() []string {
	out := make([]string, 0, len(g.adj))
	for n := range g.adj {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// BuildInterferenceGraph connects every pair of variables simultaneously
// live at some point, including function parameters (pairwise connected
// at entry), and returns the cached liveness alongside the graph. Any
// variable taken by `addressof` is forced out of the graph up front and
// returned separately, since it is spilled unconditionally (spec §4.7).
func BuildInterferenceGraph(fn *ir.Function) (*Graph, *ir.LivenessInfo, map[string]bool) {
	liveness := ir.ComputeLiveness(fn)
	g := newGraph()

	forcedSpill := map[string]bool{}
	for _, lbl := range fn.Order {
		for _, inst := range fn.Blocks[lbl].Insts {
			if ao, ok := inst.(*ir.AddressOf); ok {
				forcedSpill[ao.Var] = true
			}
		}
	}

	for _, lbl := range fn.Order {
		sets := liveness.LiveIn[lbl]
		for _, live := range sets {
			vars := make([]string, 0, len(live))
			for v := range live {
				if forcedSpill[v] {
					continue
				}
				vars = append(vars, v)
				g.addNode(v)
			}
			for i := 0; i < len(vars); i++ {
				for j := i + 1; j < len(vars); j++ {
					g.addEdge(vars[i], vars[j])
				}
			}
		}
	}

	var params []string
	for _, p := range fn.Params {
		if forcedSpill[p.Name] {
			continue
		}
		params = append(params, p.Name)
		g.addNode(p.Name)
	}
	for i := 0; i < len(params); i++ {
		for j := i + 1; j < len(params); j++ {
			g.addEdge(params[i], params[j])
		}
	}

	for v := range forcedSpill {
		g.removeNode(v)
	}

	return g, liveness, forcedSpill
}
