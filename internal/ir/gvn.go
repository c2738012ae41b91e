package ir

import "sort"

// GlobalValueNumbering runs a dominator-tree walk of the same numbering
// scheme LVN uses, extended to phis and cross-instruction algebraic
// cancellation, over an SSA-form function with no memory-touching
// instruction (spec §4.4).
// On returning up the dominator tree, each block's own table extensions
// are discarded so sibling blocks never observe each other's numbering.
func GlobalValueNumbering(fn *Function) int {
	if hasMemoryInstruction(fn) {
		return 0
	}
	fn.EnsureFresh()

	t := newLVNTable()
	removed := gvnVisit(fn, fn.Entry, t)
	if removed > 0 {
		fn.MarkDirty()
	}
	return removed
}

func gvnVisit(fn *Function, label string, t *lvnTable) int {
	b := fn.Blocks[label]
	removed := 0

	// snapshot the bindings this block will add, so they can be
	// unwound when we return to the parent in the dominator tree.
	addedNumberOf := map[string]bool{}
	addedCanonOf := map[string]bool{}
	addedConstOf := map[int]bool{}
	addedRecipeOf := map[int]bool{}

	bindLocal := func(v string, n int) {
		if _, existed := t.numberOf[v]; !existed {
			addedNumberOf[v] = true
		}
		t.numberOf[v] = n
		if _, ok := t.canonVar[n]; !ok {
			t.canonVar[n] = v
		}
	}

	newInsts := make([]Instruction, 0, len(b.Insts))
	for _, inst := range b.Insts {
		switch v := inst.(type) {
		case *Phi:
			if collapsed, ok := collapsePhi(t, v); ok {
				bindLocal(v.D, t.numberFor(collapsed))
				newInsts = append(newInsts, &ID{D: v.D, T: v.T, Src: collapsed})
				removed++
				continue
			}
			n := t.nextNumber
			t.nextNumber++
			bindLocal(v.D, n)
			newInsts = append(newInsts, inst)

		case *Const:
			n := t.nextNumber
			t.nextNumber++
			t.constOf[n] = v.Imm
			addedConstOf[n] = true
			bindLocal(v.D, n)
			newInsts = append(newInsts, inst)

		case *ID:
			n := t.numberFor(v.Src)
			bindLocal(v.D, n)
			if holder := t.canonVar[n]; holder != v.D {
				newInsts = append(newInsts, &ID{D: v.D, T: v.T, Src: holder})
			} else {
				newInsts = append(newInsts, inst)
			}

		case *Binary:
			ln, rn := t.numberFor(v.Left), t.numberFor(v.Right)
			if folded, ok := foldBinary(t, v.Op, ln, rn); ok {
				n := t.nextNumber
				t.nextNumber++
				t.constOf[n] = folded
				addedConstOf[n] = true
				bindLocal(v.D, n)
				newInsts = append(newInsts, &Const{D: v.D, T: v.T, Imm: folded})
				removed++
				continue
			}
			if lit, ok := sameVarIdentity(v.Op, ln, rn); ok {
				n := t.nextNumber
				t.nextNumber++
				t.constOf[n] = lit
				addedConstOf[n] = true
				bindLocal(v.D, n)
				newInsts = append(newInsts, &Const{D: v.D, T: v.T, Imm: lit})
				removed++
				continue
			}
			if simplified, ok := simplifyIdentity(t, v.Op, v.Left, v.Right, ln, rn); ok {
				n := t.numberFor(simplified)
				bindLocal(v.D, n)
				newInsts = append(newInsts, &ID{D: v.D, T: v.T, Src: simplified})
				removed++
				continue
			}

			if left, isConst, constVal, ok := cancelIdentity(t, v.Op, ln, rn); ok {
				if isConst {
					n := t.nextNumber
					t.nextNumber++
					t.constOf[n] = constVal
					addedConstOf[n] = true
					bindLocal(v.D, n)
					newInsts = append(newInsts, &Const{D: v.D, T: v.T, Imm: constVal})
					removed++
					continue
				}
				if holder, exists := t.canonVar[left]; exists {
					bindLocal(v.D, left)
					newInsts = append(newInsts, &ID{D: v.D, T: v.T, Src: holder})
					removed++
					continue
				}
			}

			canon := canonicalBinary(v.Op, ln, rn)
			if holderNum, ok := t.canonOf[canon]; ok {
				if name, exists := t.canonVar[holderNum]; exists {
					bindLocal(v.D, holderNum)
					newInsts = append(newInsts, &ID{D: v.D, T: v.T, Src: name})
					removed++
					continue
				}
			}
			n := t.nextNumber
			t.nextNumber++
			bindLocal(v.D, n)
			if _, existed := t.canonOf[canon]; !existed {
				t.canonOf[canon] = n
				addedCanonOf[canon] = true
			}
			if _, existed := t.recipeOf[n]; !existed {
				t.recipeOf[n] = binRecipe{Op: v.Op, Left: ln, Right: rn}
				addedRecipeOf[n] = true
			}
			newInsts = append(newInsts, inst)

		default:
			newInsts = append(newInsts, inst)
		}
	}
	b.Insts = newInsts

	if br, ok := b.Terminator().(*Br); ok {
		if n, known := t.numberOf[br.Cond]; known {
			if c, isConst := t.constOf[n]; isConst {
				target := br.Else
				if c != 0 {
					target = br.Then
				}
				b.Insts[len(b.Insts)-1] = &Jmp{Target: target}
				fn.MarkDirty()
				removed++
			}
		}
	}

	for _, k := range domChildren(fn, label) {
		removed += gvnVisit(fn, k, t)
	}

	for v := range addedNumberOf {
		delete(t.numberOf, v)
	}
	for c := range addedCanonOf {
		delete(t.canonOf, c)
	}
	for n := range addedConstOf {
		delete(t.constOf, n)
		delete(t.canonVar, n)
	}
	for n := range addedRecipeOf {
		delete(t.recipeOf, n)
	}
	return removed
}

// collapsePhi reports whether every argument of phi (all listed
// arguments, without filtering by current predecessors) has the same
// value number, in
// which case the phi collapses to an `id` of that shared value (spec
// §4.4).
func collapsePhi(t *lvnTable, phi *Phi) (string, bool) {
	if len(phi.Vals) == 0 {
		return "", false
	}
	var common int
	haveCommon := false
	for _, v := range phi.Vals {
		n := t.numberFor(v)
		if !haveCommon {
			common = n
			haveCommon = true
			continue
		}
		if n != common {
			return "", false
		}
	}
	if holder, ok := t.canonVar[common]; ok {
		return holder, true
	}
	return phi.Vals[0], true
}

func domChildren(fn *Function, label string) []string {
	var kids []string
	for _, lbl := range fn.Order {
		if fn.Dom.IDom[lbl] == label {
			kids = append(kids, lbl)
		}
	}
	sort.Strings(kids)
	return kids
}
