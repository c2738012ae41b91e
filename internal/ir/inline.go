package ir

import (
	"fmt"
	"sort"
)

var (
	inlineMaxInstructions = 10
	inlineMaxBlocks       = 5
)

// SetInlineThresholds overrides the inlining candidacy thresholds (spec
// §4.4: "small" callee, default <10 instructions or <5 blocks). Exposed
// so internal/config/internal/driver can apply a loaded configuration.
func SetInlineThresholds(maxInstructions, maxBlocks int) {
	inlineMaxInstructions = maxInstructions
	inlineMaxBlocks = maxBlocks
}

// DeadFunctionElimination deletes every function not transitively
// reachable from wain (spec §4.4, §4.4 "Unused-parameter and
// unused-function removal").
func DeadFunctionElimination(p *Program) int {
	if _, ok := p.Functions["wain"]; !ok {
		return 0
	}
	cg := BuildCallGraph(p)
	live := cg.ReachableFrom("wain")
	removed := 0
	var order []string
	for _, name := range p.Order {
		if live[name] {
			order = append(order, name)
		} else {
			delete(p.Functions, name)
			removed++
		}
	}
	p.Order = order
	return removed
}

// InlineFunctions inlines call sites whose callee is small (<10
// instructions or <5 blocks) and not in the caller's own call-graph SCC,
// processing SCCs in topological order and re-running to a local
// fixpoint within each SCC (spec §4.4).
func InlineFunctions(p *Program) int {
	cg := BuildCallGraph(p)
	sccs := cg.StronglyConnectedComponents() // reverse-topological
	sccOf := map[string]int{}
	for i, scc := range sccs {
		for _, f := range scc {
			sccOf[f] = i
		}
	}

	isCandidate := func(name string) bool {
		fn, ok := p.Functions[name]
		if !ok {
			return false
		}
		return fn.InstructionCount() < inlineMaxInstructions || len(fn.Order) < inlineMaxBlocks
	}

	total := 0
	// process in topological order: reverse of the SCC list, since
	// StronglyConnectedComponents returns callees before callers.
	for i := len(sccs) - 1; i >= 0; i-- {
		for _, caller := range sccs[i] {
			fn := p.Functions[caller]
			if fn == nil {
				continue
			}
			for {
				callLbl, callIdx, call := findInlinableCall(fn, sccOf, caller, isCandidate)
				if call == nil {
					break
				}
				callee := p.Functions[call.Func]
				inlineCallSite(fn, callLbl, callIdx, call, callee)
				total++
			}
		}
	}
	return total
}

func findInlinableCall(fn *Function, sccOf map[string]int, caller string, isCandidate func(string) bool) (string, int, *Call) {
	for _, lbl := range fn.Order {
		b := fn.Blocks[lbl]
		for i, inst := range b.Insts {
			c, ok := inst.(*Call)
			if !ok {
				continue
			}
			if sccOf[c.Func] == sccOf[caller] {
				continue // same SCC: mutually (or self-) recursive, never inlined
			}
			if isCandidate(c.Func) {
				return lbl, i, c
			}
		}
	}
	return "", 0, nil
}

// inlineCallSite splits callerFn's block at the call site and splices in
// a renamed copy of callee, rewriting `ret v` to an assignment to the
// call's destination followed by a jump to the continuation block (spec
// §4.4 mechanics).
func inlineCallSite(callerFn *Function, blockLbl string, callIdx int, call *Call, callee *Function) {
	suffix := fmt.Sprintf(".i%d", callerFn.nextTemp)
	callerFn.nextTemp++

	rename := func(n string) string { return n + suffix }

	b := callerFn.Blocks[blockLbl]
	before := append([]Instruction(nil), b.Insts[:callIdx]...)
	after := append([]Instruction(nil), b.Insts[callIdx+1:]...)

	contLbl := callerFn.freshLabel("inlinecont")
	contBlock := &Block{EntryLabel: contLbl, Insts: append([]Instruction{&Label{Name: contLbl}}, after...)}

	// argument-copy instructions materializing callee parameters.
	var head []Instruction
	for i, p := range callee.Params {
		head = append(head, &ID{D: rename(p.Name), T: p.Type, Src: call.Arg[i]})
	}

	entryBlock := &Block{EntryLabel: blockLbl, Insts: append(append([]Instruction(nil), before...), head...)}
	entryBlock.Insts = append(entryBlock.Insts, &Jmp{Target: rename(callee.Entry)})

	callerFn.Blocks[blockLbl] = entryBlock

	for _, lbl := range callee.Order {
		src := callee.Blocks[lbl]
		newLbl := rename(lbl)
		var insts []Instruction
		insts = append(insts, &Label{Name: newLbl})
		for _, inst := range src.Insts[1:] { // skip the original label
			cloned := inst.Clone()
			switch v := cloned.(type) {
			case *Ret:
				insts = append(insts, &ID{D: call.D, T: call.T, Src: rename(v.Value)})
				insts = append(insts, &Jmp{Target: contLbl})
				continue
			case *Jmp:
				v.Target = rename(v.Target)
			case *Br:
				v.Then, v.Else = rename(v.Then), rename(v.Else)
			case *Phi:
				for i, l := range v.Lbls {
					v.Lbls[i] = rename(l)
				}
				// v.Vals is renamed below via the generic Args()/SetArgs
				// path, since Phi.Args() returns v.Vals directly.
			}
			if d, ok := cloned.Dest(); ok && d != "" {
				setDest(cloned, rename(d))
			}
			args := cloned.Args()
			renamed := make([]string, len(args))
			for i, a := range args {
				renamed[i] = rename(a)
			}
			cloned.SetArgs(renamed)
			insts = append(insts, cloned)
		}
		callerFn.Blocks[newLbl] = insts2block(newLbl, insts)
	}

	callerFn.Blocks[contLbl] = contBlock
	rebuildOrder(callerFn, blockLbl, contLbl)
	callerFn.MarkDirty()
}

func insts2block(label string, insts []Instruction) *Block {
	return &Block{EntryLabel: label, Insts: insts, Preds: map[string]bool{}, Succs: map[string]bool{}}
}

func setDest(inst Instruction, name string) {
	switch v := inst.(type) {
	case *Binary:
		v.D = name
	case *Const:
		v.D = name
	case *ID:
		v.D = name
	case *Call:
		v.D = name
	case *Alloc:
		v.D = name
	case *Load:
		v.D = name
	case *AddressOf:
		v.D = name
	case *Phi:
		v.D = name
	}
}

// rebuildOrder recomputes fn.Order after splicing in the inlined callee's
// blocks, keeping a stable (non-dominator-dependent) ordering: everything
// already in Order stays, with the new callee blocks and the
// continuation spliced in right after the split block.
func rebuildOrder(fn *Function, splitLbl, contLbl string) {
	seen := map[string]bool{}
	var order []string
	for _, lbl := range fn.Order {
		if seen[lbl] {
			continue
		}
		seen[lbl] = true
		order = append(order, lbl)
		if lbl == splitLbl {
			var newBlocks []string
			for l := range fn.Blocks {
				if l != lbl && l != contLbl && !seen[l] {
					newBlocks = append(newBlocks, l)
				}
			}
			sort.Strings(newBlocks)
			for _, l := range newBlocks {
				seen[l] = true
				order = append(order, l)
			}
			if !seen[contLbl] {
				seen[contLbl] = true
				order = append(order, contLbl)
			}
		}
	}
	fn.Order = order
}
