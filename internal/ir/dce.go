package ir

// GlobalUnusedAssignmentElimination removes any pure instruction whose
// destination is never used as an argument and never address-taken,
// function-wide (spec §4.4).
func GlobalUnusedAssignmentElimination(fn *Function) int {
	used := map[string]bool{}
	for _, lbl := range fn.Order {
		for _, inst := range fn.Blocks[lbl].Insts {
			for _, a := range inst.Args() {
				used[a] = true
			}
		}
	}

	removed := 0
	for _, lbl := range fn.Order {
		b := fn.Blocks[lbl]
		newInsts := make([]Instruction, 0, len(b.Insts))
		for _, inst := range b.Insts {
			d, hasDest := inst.Dest()
			if hasDest && inst.IsPure() && !used[d] {
				removed++
				continue
			}
			newInsts = append(newInsts, inst)
		}
		b.Insts = newInsts
	}
	if removed > 0 {
		fn.MarkDirty()
	}
	return removed
}

// LocalUnusedAssignmentElimination removes an instruction within a block
// whose destination is overwritten later in the same block with no
// intervening read and no intervening memory instruction, provided the
// value is not live out of an exit block (spec §4.4).
func LocalUnusedAssignmentElimination(fn *Function) int {
	fn.EnsureFresh()
	li := ComputeLiveness(fn)
	removed := 0

	for _, lbl := range fn.Order {
		b := fn.Blocks[lbl]
		isExit := fn.Exits[lbl]
		liveOut := li.BlockOut[lbl]

		keep := make([]bool, len(b.Insts))
		for i := range keep {
			keep[i] = true
		}

		lastDef := map[string]int{} // destination -> index of its last-seen def so far
		for i, inst := range b.Insts {
			if inst.TouchesMemory() {
				lastDef = map[string]int{}
			}
			for _, a := range inst.Args() {
				delete(lastDef, a)
			}
			if d, ok := inst.Dest(); ok && d != "" {
				if prev, had := lastDef[d]; had {
					if !(isExit && liveOut[d]) {
						keep[prev] = false
						removed++
					}
				}
				lastDef[d] = i
			}
		}

		newInsts := make([]Instruction, 0, len(b.Insts))
		for i, inst := range b.Insts {
			if keep[i] {
				newInsts = append(newInsts, inst)
			}
		}
		b.Insts = newInsts
	}
	if removed > 0 {
		fn.MarkDirty()
	}
	return removed
}

// TrivialPhiContraction turns a phi whose (label, argument) list reduces
// to a single distinct argument, after filtering to the block's actual
// predecessors, into an `id` (spec §4.4).
func TrivialPhiContraction(fn *Function) int {
	fn.EnsureFresh()
	removed := 0
	for _, lbl := range fn.Order {
		b := fn.Blocks[lbl]
		preds := b.Preds
		for i, inst := range b.Insts {
			phi, ok := inst.(*Phi)
			if !ok {
				continue
			}
			var distinct string
			ok2 := true
			seen := false
			for j, l := range phi.Lbls {
				if !preds[l] {
					continue
				}
				v := phi.Vals[j]
				if !seen {
					distinct = v
					seen = true
				} else if v != distinct {
					ok2 = false
					break
				}
			}
			if seen && ok2 {
				b.Insts[i] = &ID{D: phi.D, T: phi.T, Src: distinct}
				removed++
			}
		}
	}
	if removed > 0 {
		fn.MarkDirty()
	}
	return removed
}

// UnreachableBlockRemoval recomputes predecessor sets and removes any
// non-entry block with empty predecessors, stripping its label from the
// phi-argument slots of surviving blocks (spec §4.4).
func UnreachableBlockRemoval(fn *Function) int {
	recomputeEdges(fn)
	removed := 0
	changed := true
	for changed {
		changed = false
		var survivors []string
		for _, lbl := range fn.Order {
			if lbl != fn.Entry && len(fn.Blocks[lbl].Preds) == 0 {
				delete(fn.Blocks, lbl)
				removed++
				changed = true
				continue
			}
			survivors = append(survivors, lbl)
		}
		fn.Order = survivors
		if changed {
			recomputeEdges(fn)
			for _, lbl := range fn.Order {
				b := fn.Blocks[lbl]
				for _, inst := range b.Insts {
					phi, ok := inst.(*Phi)
					if !ok {
						continue
					}
					var lbls, vals []string
					for i, l := range phi.Lbls {
						if _, alive := fn.Blocks[l]; alive {
							lbls = append(lbls, l)
							vals = append(vals, phi.Vals[i])
						}
					}
					phi.Lbls, phi.Vals = lbls, vals
				}
			}
		}
	}
	fn.MarkDirty()
	return removed
}
