package ir

import "fmt"

// Block is a maximal straight-line instruction sequence ending in a jump
// (spec §3). Its first instruction is always a Label matching EntryLabel.
type Block struct {
	EntryLabel string
	Insts      []Instruction
	Preds      map[string]bool
	Succs      map[string]bool
}

func newBlock(label string) *Block {
	return &Block{
		EntryLabel: label,
		Insts:      []Instruction{&Label{Name: label}},
		Preds:      map[string]bool{},
		Succs:      map[string]bool{},
	}
}

// Terminator returns the block's trailing jump/br/ret, or nil if the
// block is (transiently) unterminated.
func (b *Block) Terminator() Instruction {
	if n := len(b.Insts); n > 0 && b.Insts[n-1].IsJump() {
		return b.Insts[n-1]
	}
	return nil
}

// SuccessorLabels derives the block's successors directly from its
// terminator, independent of the cached Succs map.
func (b *Block) SuccessorLabels() []string {
	t := b.Terminator()
	if t == nil {
		return nil
	}
	return t.Labels()
}

// Dominator data cached per function; recomputed whenever Function.Dirty
// is set (spec §5).
type DomInfo struct {
	// Dominators[b] is the set of labels dominating b (including b).
	Dominators map[string]map[string]bool
	IDom       map[string]string // immediate dominator, "" for entry
	Frontier   map[string]map[string]bool
}

// Function is one procedure's compiled representation: its CFG plus
// cached analyses.
type Function struct {
	Name       string
	Params     []Param
	ReturnType Type

	Blocks    map[string]*Block
	Order     []string // emission order, preserves construction order
	Entry     string
	Exits     map[string]bool

	Dom   *DomInfo
	Dirty bool

	nextTemp  int
	nextLabel map[string]int
}

type Param struct {
	Name string
	Type Type
}

// Program is a whole compiled program: every function plus the handful of
// whole-program predicates the backend needs.
type Program struct {
	Functions map[string]*Function
	Order     []string
}

func (p *Program) UsesHeap() bool {
	for _, fn := range p.Functions {
		for _, lbl := range fn.Order {
			for _, inst := range fn.Blocks[lbl].Insts {
				switch inst.(type) {
				case *Alloc, *Free:
					return true
				}
			}
		}
	}
	return false
}

func (p *Program) UsesPrint() bool {
	for _, fn := range p.Functions {
		for _, lbl := range fn.Order {
			for _, inst := range fn.Blocks[lbl].Insts {
				if _, ok := inst.(*Print); ok {
					return true
				}
			}
		}
	}
	return false
}

// NewFunction creates an empty function ready to receive blocks from the
// IR builder.
func NewFunction(name string, params []Param, ret Type) *Function {
	return &Function{
		Name:       name,
		Params:     params,
		ReturnType: ret,
		Blocks:     map[string]*Block{},
		Exits:      map[string]bool{},
		nextLabel:  map[string]int{},
		Dirty:      true,
	}
}

func (f *Function) freshLabel(kind string) string {
	idx := f.nextLabel[kind]
	f.nextLabel[kind] = idx + 1
	return fmt.Sprintf(".%s%d", kind, idx)
}

func (f *Function) appendBlock(b *Block) {
	f.Blocks[b.EntryLabel] = b
	f.Order = append(f.Order, b.EntryLabel)
	f.Dirty = true
}

// MarkDirty invalidates cached predecessor/successor/dominator data; any
// mutation that may change control flow must call this (spec §5).
func (f *Function) MarkDirty() { f.Dirty = true }

// BuildCFG constructs the per-function CFG from a flat instruction stream
// (spec §4.2): slices at labels/jumps, synthesizes fallthrough jumps,
// canonicalizes collapsed labels, and guarantees the entry block has no
// predecessors.
func BuildCFG(fn *Function, flat []Instruction) {
	fn.Blocks = map[string]*Block{}
	fn.Order = nil
	fn.Exits = map[string]bool{}

	// Step 1: canonicalize back-to-back labels to a single representative
	// so every other reference to a collapsed label is rewritten.
	canon := map[string]string{}
	var rep string
	for i := 0; i < len(flat); i++ {
		lbl, ok := flat[i].(*Label)
		if !ok {
			rep = ""
			continue
		}
		if rep == "" {
			rep = lbl.Name
			canon[lbl.Name] = lbl.Name
		} else {
			canon[lbl.Name] = rep
		}
	}
	rewrite := func(name string) string {
		if c, ok := canon[name]; ok {
			return c
		}
		return name
	}
	for _, inst := range flat {
		switch v := inst.(type) {
		case *Jmp:
			v.Target = rewrite(v.Target)
		case *Br:
			v.Then, v.Else = rewrite(v.Then), rewrite(v.Else)
		case *Phi:
			for i, l := range v.Lbls {
				v.Lbls[i] = rewrite(l)
			}
		}
	}

	// Step 2: slice into blocks, dropping collapsed (non-representative)
	// label instructions and synthesizing a fallthrough jmp wherever one
	// block runs into the next without its own terminator.
	var cur *Block
	for _, inst := range flat {
		if lbl, ok := inst.(*Label); ok {
			canonical := rewrite(lbl.Name)
			if canonical != lbl.Name {
				continue // collapsed duplicate, already folded into cur
			}
			if cur != nil && cur.Terminator() == nil {
				next := canonical
				cur.Insts = append(cur.Insts, &Jmp{Target: next})
			}
			cur = newBlock(canonical)
			fn.appendBlock(cur)
			continue
		}
		if cur == nil {
			// Instructions before any label belong to a synthesized
			// entry block.
			cur = newBlock(fn.freshLabel("entry"))
			fn.appendBlock(cur)
		}
		cur.Insts = append(cur.Insts, inst)
	}
	if cur != nil && cur.Terminator() == nil {
		cur.Insts = append(cur.Insts, &Ret{})
	}

	if len(fn.Order) == 0 {
		return
	}
	fn.Entry = fn.Order[0]

	recomputeEdges(fn)

	// Step 3: guarantee the entry block has no predecessors by inserting
	// a shim that jumps straight to it.
	if len(fn.Blocks[fn.Entry].Preds) > 0 {
		shim := newBlock(fn.freshLabel("entry_shim"))
		shim.Insts = append(shim.Insts, &Jmp{Target: fn.Entry})
		fn.Blocks[shim.EntryLabel] = shim
		fn.Order = append([]string{shim.EntryLabel}, fn.Order...)
		fn.Entry = shim.EntryLabel
		recomputeEdges(fn)
	}

	for _, lbl := range fn.Order {
		if _, ok := fn.Blocks[lbl].Terminator().(*Ret); ok {
			fn.Exits[lbl] = true
		}
	}
	fn.Dom = computeDominators(fn)
	fn.Dirty = false
}

// recomputeEdges rebuilds every block's predecessor/successor sets from
// terminators. Any structural pass that dirties the graph calls this
// (directly or via EnsureFresh) before reading predecessor data.
func recomputeEdges(fn *Function) {
	for _, b := range fn.Blocks {
		b.Preds = map[string]bool{}
		b.Succs = map[string]bool{}
	}
	for _, lbl := range fn.Order {
		b := fn.Blocks[lbl]
		for _, s := range b.SuccessorLabels() {
			if s == "" {
				continue
			}
			if target, ok := fn.Blocks[s]; ok {
				b.Succs[s] = true
				target.Preds[lbl] = true
			}
		}
	}
}

// EnsureFresh recomputes edges and dominators if the function is marked
// dirty, and clears the flag. Every reader of predecessor/dominator data
// must call this first (spec §5).
func (f *Function) EnsureFresh() {
	if !f.Dirty {
		return
	}
	recomputeEdges(f)
	f.Dom = computeDominators(f)
	f.Dirty = false
}

func (f *Function) InstructionCount() int {
	n := 0
	for _, lbl := range f.Order {
		n += len(f.Blocks[lbl].Insts)
	}
	return n
}
