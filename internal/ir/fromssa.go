package ir

import "fmt"

// FromSSA replaces every phi by copies placed at the tail of each
// predecessor's straight-line section, immediately before its terminating
// jump (spec §4.5). A fresh auxiliary variable makes the transform safe
// even when predecessors share a renamed destination or form a swap
// cycle.
func FromSSA(fn *Function) {
	aux := 0
	for _, lbl := range fn.Order {
		b := fn.Blocks[lbl]
		var phis []*Phi
		rest := b.Insts[:0:0]
		for _, inst := range b.Insts {
			if p, ok := inst.(*Phi); ok {
				phis = append(phis, p)
				continue
			}
			rest = append(rest, inst)
		}
		if len(phis) == 0 {
			continue
		}
		b.Insts = rest

		for _, phi := range phis {
			auxName := fmt.Sprintf("%%phiaux%d", aux)
			aux++
			for i, predLbl := range phi.Lbls {
				insertCopyBeforeJump(fn.Blocks[predLbl], auxName, phi.DestType(), phi.Vals[i])
			}
			prependAfterLabel(b, &ID{D: phi.D, T: phi.DestType(), Src: auxName})
		}
	}
	fn.MarkDirty()
}

// insertCopyBeforeJump inserts `d = id src` immediately before pred's
// terminating jump.
func insertCopyBeforeJump(pred *Block, d string, t Type, src string) {
	n := len(pred.Insts)
	copyInst := &ID{D: d, T: t, Src: src}
	pred.Insts = append(pred.Insts[:n-1:n-1], copyInst, pred.Insts[n-1])
}

// prependAfterLabel inserts inst right after the block's leading label,
// ahead of whatever remains (other phi-replacement copies, in reverse
// order of processing, still land in a harmless order since they're all
// independent reads of already-materialized aux variables).
func prependAfterLabel(b *Block, inst Instruction) {
	b.Insts = append(b.Insts[:1:1], append([]Instruction{inst}, b.Insts[1:]...)...)
}
