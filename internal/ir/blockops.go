package ir

// ExtendedBlockCombination merges block B into its unique successor C
// when B has exactly one successor C and C has exactly one predecessor
// B: B's trailing jmp is dropped and C's body appended; any phi in C
// (which must have exactly one (label=B) entry once B is its only
// predecessor) becomes an `id` (spec §4.4).
func ExtendedBlockCombination(fn *Function) int {
	fn.EnsureFresh()
	merged := 0

	changed := true
	for changed {
		changed = false
		for _, lbl := range append([]string(nil), fn.Order...) {
			b, ok := fn.Blocks[lbl]
			if !ok {
				continue
			}
			if len(b.Succs) != 1 {
				continue
			}
			var succLbl string
			for s := range b.Succs {
				succLbl = s
			}
			if succLbl == fn.Entry {
				continue // never fold the entry block away
			}
			c := fn.Blocks[succLbl]
			if len(c.Preds) != 1 || !c.Preds[lbl] {
				continue
			}

			// drop B's terminating jmp, then append C's body (minus its
			// leading label), rewriting any phi to an `id`.
			b.Insts = b.Insts[:len(b.Insts)-1]
			for _, inst := range c.Insts[1:] {
				if phi, isPhi := inst.(*Phi); isPhi {
					var val string
					for i, l := range phi.Lbls {
						if l == lbl {
							val = phi.Vals[i]
						}
					}
					b.Insts = append(b.Insts, &ID{D: phi.D, T: phi.T, Src: val})
					continue
				}
				b.Insts = append(b.Insts, inst)
			}

			delete(fn.Blocks, succLbl)
			var newOrder []string
			for _, l := range fn.Order {
				if l != succLbl {
					newOrder = append(newOrder, l)
				}
			}
			fn.Order = newOrder
			merged++
			changed = true
			fn.MarkDirty()
			fn.EnsureFresh()
			break
		}
	}
	return merged
}
