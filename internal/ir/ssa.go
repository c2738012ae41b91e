package ir

import (
	"fmt"
	"sort"
)

// hasMemoryInstruction reports whether the function still contains any of
// the eight memory-touching opcodes. SSA conversion is skipped for such a
// function (spec §4.3 precondition) — mem2reg is expected to have removed
// what it can beforehand.
func hasMemoryInstruction(fn *Function) bool {
	for _, lbl := range fn.Order {
		for _, inst := range fn.Blocks[lbl].Insts {
			if inst.TouchesMemory() {
				return true
			}
		}
	}
	return false
}

// ToSSA converts fn to SSA form in place: phi placement at dominance
// frontiers, then dominator-tree-walk renaming (spec §4.3). Returns false
// (no-op) if the precondition isn't met.
func ToSSA(fn *Function) bool {
	if hasMemoryInstruction(fn) {
		return false
	}
	// Already single-assignment (e.g. converted in an earlier round):
	// renaming again would rebuild phi arguments from the wrong stacks.
	defs := map[string]int{}
	for _, p := range fn.Params {
		defs[p.Name]++
	}
	single := true
	for _, lbl := range fn.Order {
		for _, inst := range fn.Blocks[lbl].Insts {
			if d, ok := inst.Dest(); ok {
				defs[d]++
				single = single && defs[d] == 1
			}
		}
	}
	if single {
		return true
	}
	fn.EnsureFresh()

	defBlocks, varType := collectDefs(fn)
	placePhis(fn, defBlocks, varType)
	fn.MarkDirty()
	fn.EnsureFresh() // phi insertion changes nothing structural, but keep fresh for renaming's dominator-tree walk
	rename(fn)
	return true
}

func collectDefs(fn *Function) (map[string]map[string]bool, map[string]Type) {
	defBlocks := map[string]map[string]bool{}
	varType := map[string]Type{}
	for _, lbl := range fn.Order {
		for _, inst := range fn.Blocks[lbl].Insts {
			d, ok := inst.Dest()
			if !ok {
				continue
			}
			if defBlocks[d] == nil {
				defBlocks[d] = map[string]bool{}
			}
			defBlocks[d][lbl] = true
			varType[d] = inst.DestType()
		}
	}
	for _, p := range fn.Params {
		if defBlocks[p.Name] == nil {
			defBlocks[p.Name] = map[string]bool{fn.Entry: true}
		}
		varType[p.Name] = p.Type
	}
	return defBlocks, varType
}

// placePhis inserts phi instructions at dominance frontiers for every
// variable defined in two or more blocks (spec §4.3 step 2).
func placePhis(fn *Function, defBlocks map[string]map[string]bool, varType map[string]Type) {
	hasPhiFor := map[string]map[string]bool{} // block -> set of variables with a phi there

	vars := make([]string, 0, len(defBlocks))
	for v := range defBlocks {
		vars = append(vars, v)
	}
	sort.Strings(vars) // deterministic iteration order

	for _, v := range vars {
		if len(defBlocks[v]) < 2 {
			continue
		}
		worklist := make([]string, 0, len(defBlocks[v]))
		for b := range defBlocks[v] {
			worklist = append(worklist, b)
		}
		sort.Strings(worklist)
		seen := map[string]bool{}

		for len(worklist) > 0 {
			b := worklist[0]
			worklist = worklist[1:]
			frontier := make([]string, 0, len(fn.Dom.Frontier[b]))
			for f := range fn.Dom.Frontier[b] {
				frontier = append(frontier, f)
			}
			sort.Strings(frontier)
			for _, f := range frontier {
				if hasPhiFor[f][v] {
					continue
				}
				insertPhi(fn, f, v, varType[v])
				if hasPhiFor[f] == nil {
					hasPhiFor[f] = map[string]bool{}
				}
				hasPhiFor[f][v] = true
				if !seen[f] {
					seen[f] = true
					worklist = append(worklist, f)
				}
			}
		}
	}
}

func insertPhi(fn *Function, block, v string, t Type) {
	b := fn.Blocks[block]
	preds := make([]string, 0, len(b.Preds))
	for p := range b.Preds {
		preds = append(preds, p)
	}
	sort.Strings(preds)
	vals := make([]string, len(preds))
	for i := range preds {
		vals[i] = v
	}
	phi := &Phi{D: v, T: t, Lbls: preds, Vals: vals}
	// phis live in a contiguous prefix right after the leading label.
	insertAt := 1
	for insertAt < len(b.Insts) {
		if _, ok := b.Insts[insertAt].(*Phi); !ok {
			break
		}
		insertAt++
	}
	b.Insts = append(b.Insts[:insertAt:insertAt], append([]Instruction{phi}, b.Insts[insertAt:]...)...)
}

// renamer carries the per-variable rename stack and counters used by the
// dominator-tree walk (spec §4.3 step 3).
type renamer struct {
	fn      *Function
	stack   map[string][]string
	counter map[string]int
	kids    map[string][]string
}

func rename(fn *Function) {
	r := &renamer{
		fn:      fn,
		stack:   map[string][]string{},
		counter: map[string]int{},
		kids:    map[string][]string{},
	}
	for _, lbl := range fn.Order {
		idom := fn.Dom.IDom[lbl]
		if idom != "" {
			r.kids[idom] = append(r.kids[idom], lbl)
		}
	}
	for _, kids := range r.kids {
		sort.Strings(kids)
	}
	// parameters are defined on entry under their own names.
	for _, p := range fn.Params {
		r.stack[p.Name] = []string{p.Name}
	}
	r.visit(fn.Entry)
	fn.MarkDirty()
}

func (r *renamer) push(v string) string {
	idx := r.counter[v]
	r.counter[v]++
	newName := fmt.Sprintf("%s.%d", v, idx)
	r.stack[v] = append(r.stack[v], newName)
	return newName
}

func (r *renamer) top(v string) string {
	s := r.stack[v]
	if len(s) == 0 {
		return Undefined
	}
	return s[len(s)-1]
}

func (r *renamer) visit(label string) {
	b := r.fn.Blocks[label]
	pushedHere := map[string]int{}

	for _, inst := range b.Insts {
		if _, ok := inst.(*Label); ok {
			continue // leading label, not part of the phi prefix
		}
		phi, ok := inst.(*Phi)
		if !ok {
			break // phis are a contiguous prefix; stop at the first non-phi
		}
		old := phi.D
		phi.D = r.push(old)
		pushedHere[old]++
	}

	for _, inst := range b.Insts {
		if _, ok := inst.(*Phi); ok {
			continue
		}
		if _, ok := inst.(*Label); ok {
			continue
		}
		args := inst.Args()
		newArgs := make([]string, len(args))
		for i, a := range args {
			newArgs[i] = r.top(a)
		}
		inst.SetArgs(newArgs)
		if d, ok := inst.Dest(); ok {
			newD := r.push(d)
			pushedHere[d]++
			switch v := inst.(type) {
			case *Binary:
				v.D = newD
			case *Const:
				v.D = newD
			case *ID:
				v.D = newD
			case *Call:
				v.D = newD
			case *Alloc:
				v.D = newD
			case *Load:
				v.D = newD
			case *AddressOf:
				v.D = newD
			}
		}
	}

	for succ := range b.Succs {
		sb := r.fn.Blocks[succ]
		for _, inst := range sb.Insts {
			if _, ok := inst.(*Label); ok {
				continue
			}
			phi, ok := inst.(*Phi)
			if !ok {
				break
			}
			base := baseName(phi.D)
			for i, l := range phi.Lbls {
				if l == label {
					phi.Vals[i] = r.top(base)
				}
			}
		}
	}

	for _, k := range r.kids[label] {
		r.visit(k)
	}

	for v, n := range pushedHere {
		r.stack[v] = r.stack[v][:len(r.stack[v])-n]
	}
}

// baseName strips the ".k" SSA rename suffix a phi destination already
// received when its own block was renamed, recovering the source
// variable name used to key the rename stack.
func baseName(renamed string) string {
	for i := len(renamed) - 1; i >= 0; i-- {
		if renamed[i] == '.' {
			return renamed[:i]
		}
	}
	return renamed
}
