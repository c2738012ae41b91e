package ir

// computeDominators runs the iterative forward dataflow described in
// spec §4.2. The source's alternative (Lengauer-Tarjan) is not
// implemented — spec.md §9 notes either is acceptable and the iterative
// form is what the §8 testable properties are phrased against.
func computeDominators(f *Function) *DomInfo {
	all := map[string]bool{}
	for _, lbl := range f.Order {
		all[lbl] = true
	}

	dom := map[string]map[string]bool{}
	for _, lbl := range f.Order {
		if lbl == f.Entry {
			dom[lbl] = map[string]bool{f.Entry: true}
		} else {
			dom[lbl] = cloneSet(all)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, lbl := range f.Order {
			if lbl == f.Entry {
				continue
			}
			b := f.Blocks[lbl]
			var inter map[string]bool
			first := true
			for p := range b.Preds {
				if first {
					inter = cloneSet(dom[p])
					first = false
				} else {
					inter = intersect(inter, dom[p])
				}
			}
			if first {
				// unreachable block: no predecessors, dominated by
				// everything trivially until we find a path.
				continue
			}
			inter[lbl] = true
			if !setEqual(inter, dom[lbl]) {
				dom[lbl] = inter
				changed = true
			}
		}
	}

	idom := map[string]string{}
	frontier := map[string]map[string]bool{}
	for _, lbl := range f.Order {
		frontier[lbl] = map[string]bool{}
	}

	strictDominates := func(a, b string) bool {
		return a != b && dom[b][a]
	}

	for _, lbl := range f.Order {
		if lbl == f.Entry {
			idom[lbl] = ""
			continue
		}
		var best string
		for cand := range dom[lbl] {
			if !strictDominates(cand, lbl) {
				continue
			}
			isImmediate := true
			for other := range dom[lbl] {
				if other == cand || !strictDominates(other, lbl) {
					continue
				}
				if strictDominates(cand, other) {
					isImmediate = false
					break
				}
			}
			if isImmediate {
				best = cand
				break
			}
		}
		idom[lbl] = best
	}

	// Standard Cytron et al. dominance-frontier construction from idom:
	// for each block b with predecessors p, walk p's idom chain up to
	// (but not including) idom[b], adding b to each frontier along the
	// way.
	for _, b := range f.Order {
		bb := f.Blocks[b]
		if len(bb.Preds) < 2 {
			continue
		}
		for p := range bb.Preds {
			runner := p
			for runner != "" && runner != idom[b] {
				frontier[runner][b] = true
				runner = idom[runner]
			}
		}
	}

	return &DomInfo{Dominators: dom, IDom: idom, Frontier: frontier}
}

func cloneSet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func intersect(a, b map[string]bool) map[string]bool {
	out := map[string]bool{}
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func setEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// StrictlyDominates reports whether a strictly dominates b.
func (d *DomInfo) StrictlyDominates(a, b string) bool {
	return a != b && d.Dominators[b][a]
}

// Dominates reports whether a dominates b (reflexively).
func (d *DomInfo) Dominates(a, b string) bool {
	return d.Dominators[b][a]
}
