package ir

import "sort"

// CallGraph is the whole-program call relation: Edges[f] is the set of
// functions f calls directly.
type CallGraph struct {
	Edges map[string]map[string]bool
}

func BuildCallGraph(p *Program) *CallGraph {
	cg := &CallGraph{Edges: map[string]map[string]bool{}}
	for name, fn := range p.Functions {
		callees := map[string]bool{}
		for _, lbl := range fn.Order {
			for _, inst := range fn.Blocks[lbl].Insts {
				if c, ok := inst.(*Call); ok {
					callees[c.Func] = true
				}
			}
		}
		cg.Edges[name] = callees
	}
	return cg
}

// tarjanState carries Tarjan's SCC algorithm's working state.
type tarjanState struct {
	cg      *CallGraph
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	next    int
	sccs    [][]string
}

// StronglyConnectedComponents computes the call graph's SCCs via Tarjan's
// algorithm, returned in reverse-topological order (callees' SCCs appear
// before their callers' — spec §4.4 processes SCCs "in topological
// order", i.e. the reverse of this slice).
func (cg *CallGraph) StronglyConnectedComponents() [][]string {
	st := &tarjanState{
		cg:      cg,
		index:   map[string]int{},
		low:     map[string]int{},
		onStack: map[string]bool{},
	}
	names := make([]string, 0, len(cg.Edges))
	for n := range cg.Edges {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if _, visited := st.index[n]; !visited {
			st.strongConnect(n)
		}
	}
	return st.sccs
}

func (st *tarjanState) strongConnect(v string) {
	st.index[v] = st.next
	st.low[v] = st.next
	st.next++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	callees := make([]string, 0, len(st.cg.Edges[v]))
	for w := range st.cg.Edges[v] {
		callees = append(callees, w)
	}
	sort.Strings(callees)

	for _, w := range callees {
		if _, ok := st.cg.Edges[w]; !ok {
			continue // call to an unknown/external function
		}
		if _, visited := st.index[w]; !visited {
			st.strongConnect(w)
			if st.low[w] < st.low[v] {
				st.low[v] = st.low[w]
			}
		} else if st.onStack[w] {
			if st.index[w] < st.low[v] {
				st.low[v] = st.index[w]
			}
		}
	}

	if st.low[v] == st.index[v] {
		var scc []string
		for {
			n := len(st.stack) - 1
			w := st.stack[n]
			st.stack = st.stack[:n]
			st.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		sort.Strings(scc)
		st.sccs = append(st.sccs, scc)
	}
}

// ReachableFrom returns the set of functions transitively reachable from
// root (inclusive), used to identify live functions for dead-function
// elimination (spec §4.4: "a function is reachable if wain calls it
// transitively").
func (cg *CallGraph) ReachableFrom(root string) map[string]bool {
	seen := map[string]bool{root: true}
	worklist := []string{root}
	for len(worklist) > 0 {
		n := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for callee := range cg.Edges[n] {
			if !seen[callee] {
				seen[callee] = true
				worklist = append(worklist, callee)
			}
		}
	}
	return seen
}
