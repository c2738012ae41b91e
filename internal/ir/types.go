// Package ir implements the compiler's middle-end: the three-address SSA
// IR, its control-flow and dominator analyses, the optimization pipeline,
// and (via the sibling regalloc/codegen packages) the path down to target
// assembly.
package ir

import "fmt"

// Type is the IR's value type. Bool is produced only by comparisons
// inside the IR and never crosses the source-language boundary.
type Type int

const (
	Void Type = iota
	Bool
	Int
	IntStar
)

func (t Type) String() string {
	switch t {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case IntStar:
		return "int*"
	default:
		return "?"
	}
}

// Instruction is implemented by one Go type per opcode family, mirroring
// the teacher's Instruction-interface design rather than a single
// three-parallel-string struct (spec.md §9 permits either).
type Instruction interface {
	// Dest returns the destination variable name and true, or ("", false)
	// for instructions with no result (store, print, jmp/br/ret, free).
	Dest() (string, bool)
	// DestType is the type of Dest(), or Void if there is none.
	DestType() Type
	// Args returns the variable names read by this instruction.
	Args() []string
	// SetArgs overwrites the variable names read, in the same order Args
	// returned them. Used by renaming/rewriting passes.
	SetArgs([]string)
	// Labels returns the block labels this instruction references (both
	// branch targets for br, the predecessor labels for phi).
	Labels() []string
	// IsJump reports whether this instruction ends a block (jmp/br/ret).
	IsJump() bool
	// IsPure reports whether the instruction has no side effects.
	IsPure() bool
	// TouchesMemory reports whether the instruction is one of the eight
	// memory opcodes (alloc, free, store, load, ptradd, ptrsub, ptrdiff,
	// addressof).
	TouchesMemory() bool
	String() string
	// Clone returns a deep-enough copy safe to mutate independently
	// (used by inlining).
	Clone() Instruction
}

// ---- arithmetic / comparison ----

// BinOp is the opcode of a Binary instruction.
type BinOp string

const (
	OpAdd BinOp = "add"
	OpSub BinOp = "sub"
	OpMul BinOp = "mul"
	OpDiv BinOp = "div"
	OpMod BinOp = "mod"
	OpLt  BinOp = "lt"
	OpLe  BinOp = "le"
	OpGt  BinOp = "gt"
	OpGe  BinOp = "ge"
	OpEq  BinOp = "eq"
	OpNe  BinOp = "ne"

	// pointer arithmetic, emitted instead of the plain arithmetic ops
	// whenever an operand has IntStar type (spec §4.1).
	OpPtrAdd  BinOp = "ptradd"
	OpPtrSub  BinOp = "ptrsub"
	OpPtrDiff BinOp = "ptrdiff"
)

var comparisonOps = map[BinOp]bool{OpLt: true, OpLe: true, OpGt: true, OpGe: true, OpEq: true, OpNe: true}

func (o BinOp) IsComparison() bool { return comparisonOps[o] }

type Binary struct {
	D           string
	T           Type
	Op          BinOp
	Left, Right string
}

func (b *Binary) Dest() (string, bool)  { return b.D, true }
func (b *Binary) DestType() Type        { return b.T }
func (b *Binary) Args() []string        { return []string{b.Left, b.Right} }
func (b *Binary) SetArgs(a []string)    { b.Left, b.Right = a[0], a[1] }
func (b *Binary) Labels() []string      { return nil }
func (b *Binary) IsJump() bool          { return false }
func (b *Binary) IsPure() bool          { return true }
func (b *Binary) TouchesMemory() bool   { return b.Op == OpPtrAdd || b.Op == OpPtrSub || b.Op == OpPtrDiff }
func (b *Binary) Clone() Instruction    { c := *b; return &c }
func (b *Binary) String() string {
	return fmt.Sprintf("%s: %s = %s %s %s", b.D, b.T, b.Op, b.Left, b.Right)
}

// ---- data ----

type Const struct {
	D   string
	T   Type
	Imm int64
}

func (c *Const) Dest() (string, bool) { return c.D, true }
func (c *Const) DestType() Type       { return c.T }
func (c *Const) Args() []string       { return nil }
func (c *Const) SetArgs([]string)     {}
func (c *Const) Labels() []string     { return nil }
func (c *Const) IsJump() bool         { return false }
func (c *Const) IsPure() bool         { return true }
func (c *Const) TouchesMemory() bool  { return false }
func (c *Const) Clone() Instruction   { d := *c; return &d }
func (c *Const) String() string       { return fmt.Sprintf("%s: %s = const %d", c.D, c.T, c.Imm) }

type ID struct {
	D   string
	T   Type
	Src string
}

func (i *ID) Dest() (string, bool) { return i.D, true }
func (i *ID) DestType() Type       { return i.T }
func (i *ID) Args() []string       { return []string{i.Src} }
func (i *ID) SetArgs(a []string)   { i.Src = a[0] }
func (i *ID) Labels() []string     { return nil }
func (i *ID) IsJump() bool         { return false }
func (i *ID) IsPure() bool         { return true }
func (i *ID) TouchesMemory() bool  { return false }
func (i *ID) Clone() Instruction   { c := *i; return &c }
func (i *ID) String() string       { return fmt.Sprintf("%s: %s = id %s", i.D, i.T, i.Src) }

type Print struct {
	Value string
}

func (p *Print) Dest() (string, bool) { return "", false }
func (p *Print) DestType() Type       { return Void }
func (p *Print) Args() []string       { return []string{p.Value} }
func (p *Print) SetArgs(a []string)   { p.Value = a[0] }
func (p *Print) Labels() []string     { return nil }
func (p *Print) IsJump() bool         { return false }
func (p *Print) IsPure() bool         { return false }
func (p *Print) TouchesMemory() bool  { return false }
func (p *Print) Clone() Instruction   { c := *p; return &c }
func (p *Print) String() string       { return fmt.Sprintf("print %s", p.Value) }

type Nop struct{}

func (n *Nop) Dest() (string, bool) { return "", false }
func (n *Nop) DestType() Type       { return Void }
func (n *Nop) Args() []string       { return nil }
func (n *Nop) SetArgs([]string)     {}
func (n *Nop) Labels() []string     { return nil }
func (n *Nop) IsJump() bool         { return false }
func (n *Nop) IsPure() bool         { return true }
func (n *Nop) TouchesMemory() bool  { return false }
func (n *Nop) Clone() Instruction   { c := *n; return &c }
func (n *Nop) String() string       { return "nop" }

// Label marks the start of a block; every block's first instruction is a
// Label whose Name equals the block's entry label.
type Label struct {
	Name string
}

func (l *Label) Dest() (string, bool) { return "", false }
func (l *Label) DestType() Type       { return Void }
func (l *Label) Args() []string       { return nil }
func (l *Label) SetArgs([]string)     {}
func (l *Label) Labels() []string     { return []string{l.Name} }
func (l *Label) IsJump() bool         { return false }
func (l *Label) IsPure() bool         { return true }
func (l *Label) TouchesMemory() bool  { return false }
func (l *Label) Clone() Instruction   { c := *l; return &c }
func (l *Label) String() string       { return l.Name + ":" }

// ---- control ----

type Jmp struct {
	Target string
}

func (j *Jmp) Dest() (string, bool) { return "", false }
func (j *Jmp) DestType() Type       { return Void }
func (j *Jmp) Args() []string       { return nil }
func (j *Jmp) SetArgs([]string)     {}
func (j *Jmp) Labels() []string     { return []string{j.Target} }
func (j *Jmp) IsJump() bool         { return true }
func (j *Jmp) IsPure() bool         { return true }
func (j *Jmp) TouchesMemory() bool  { return false }
func (j *Jmp) Clone() Instruction   { c := *j; return &c }
func (j *Jmp) String() string       { return fmt.Sprintf("jmp %s", j.Target) }

type Br struct {
	Cond             string
	Then, Else       string
}

func (b *Br) Dest() (string, bool) { return "", false }
func (b *Br) DestType() Type       { return Void }
func (b *Br) Args() []string       { return []string{b.Cond} }
func (b *Br) SetArgs(a []string)   { b.Cond = a[0] }
func (b *Br) Labels() []string     { return []string{b.Then, b.Else} }
func (b *Br) IsJump() bool         { return true }
func (b *Br) IsPure() bool         { return true }
func (b *Br) TouchesMemory() bool  { return false }
func (b *Br) Clone() Instruction   { c := *b; return &c }
func (b *Br) String() string       { return fmt.Sprintf("br %s %s %s", b.Cond, b.Then, b.Else) }

type Ret struct {
	Value string // "" for a void return, unused in this spec (wain always returns Int)
}

func (r *Ret) Dest() (string, bool) { return "", false }
func (r *Ret) DestType() Type       { return Void }
func (r *Ret) Args() []string {
	if r.Value == "" {
		return nil
	}
	return []string{r.Value}
}
func (r *Ret) SetArgs(a []string) {
	if len(a) > 0 {
		r.Value = a[0]
	}
}
func (r *Ret) Labels() []string    { return nil }
func (r *Ret) IsJump() bool        { return true }
func (r *Ret) IsPure() bool        { return true }
func (r *Ret) TouchesMemory() bool { return false }
func (r *Ret) Clone() Instruction  { c := *r; return &c }
func (r *Ret) String() string      { return fmt.Sprintf("ret %s", r.Value) }

type Call struct {
	D        string
	T        Type
	Func     string
	Arg      []string
}

func (c *Call) Dest() (string, bool) { return c.D, c.D != "" }
func (c *Call) DestType() Type       { return c.T }
func (c *Call) Args() []string       { return c.Arg }
func (c *Call) SetArgs(a []string)   { c.Arg = a }
func (c *Call) Labels() []string     { return nil }
func (c *Call) IsJump() bool         { return false }
func (c *Call) IsPure() bool         { return false }
func (c *Call) TouchesMemory() bool  { return false }
func (c *Call) Clone() Instruction {
	d := *c
	d.Arg = append([]string(nil), c.Arg...)
	return &d
}
func (c *Call) String() string {
	return fmt.Sprintf("%s: %s = call %s %v", c.D, c.T, c.Func, c.Arg)
}

// ---- memory ----

type Alloc struct {
	D    string
	Size string
}

func (a *Alloc) Dest() (string, bool) { return a.D, true }
func (a *Alloc) DestType() Type       { return IntStar }
func (a *Alloc) Args() []string       { return []string{a.Size} }
func (a *Alloc) SetArgs(s []string)   { a.Size = s[0] }
func (a *Alloc) Labels() []string     { return nil }
func (a *Alloc) IsJump() bool         { return false }
func (a *Alloc) IsPure() bool         { return false }
func (a *Alloc) TouchesMemory() bool  { return true }
func (a *Alloc) Clone() Instruction   { c := *a; return &c }
func (a *Alloc) String() string       { return fmt.Sprintf("%s: int* = alloc %s", a.D, a.Size) }

type Free struct {
	Ptr string
}

func (f *Free) Dest() (string, bool) { return "", false }
func (f *Free) DestType() Type       { return Void }
func (f *Free) Args() []string       { return []string{f.Ptr} }
func (f *Free) SetArgs(a []string)   { f.Ptr = a[0] }
func (f *Free) Labels() []string     { return nil }
func (f *Free) IsJump() bool         { return false }
func (f *Free) IsPure() bool         { return false }
func (f *Free) TouchesMemory() bool  { return true }
func (f *Free) Clone() Instruction   { c := *f; return &c }
func (f *Free) String() string       { return fmt.Sprintf("free %s", f.Ptr) }

type Store struct {
	Ptr, Value string
}

func (s *Store) Dest() (string, bool) { return "", false }
func (s *Store) DestType() Type       { return Void }
func (s *Store) Args() []string       { return []string{s.Ptr, s.Value} }
func (s *Store) SetArgs(a []string)   { s.Ptr, s.Value = a[0], a[1] }
func (s *Store) Labels() []string     { return nil }
func (s *Store) IsJump() bool         { return false }
func (s *Store) IsPure() bool         { return false }
func (s *Store) TouchesMemory() bool  { return true }
func (s *Store) Clone() Instruction   { c := *s; return &c }
func (s *Store) String() string       { return fmt.Sprintf("store %s %s", s.Ptr, s.Value) }

type Load struct {
	D   string
	Ptr string
}

func (l *Load) Dest() (string, bool) { return l.D, true }
func (l *Load) DestType() Type       { return Int }
func (l *Load) Args() []string       { return []string{l.Ptr} }
func (l *Load) SetArgs(a []string)   { l.Ptr = a[0] }
func (l *Load) Labels() []string     { return nil }
func (l *Load) IsJump() bool         { return false }
func (l *Load) IsPure() bool         { return false }
func (l *Load) TouchesMemory() bool  { return true }
func (l *Load) Clone() Instruction   { c := *l; return &c }
func (l *Load) String() string       { return fmt.Sprintf("%s: int = load %s", l.D, l.Ptr) }

// AddressOf marks Var (which must be a bare variable, enforced upstream)
// for forced spilling during register allocation (§4.7).
type AddressOf struct {
	D   string
	Var string
}

func (a *AddressOf) Dest() (string, bool) { return a.D, true }
func (a *AddressOf) DestType() Type       { return IntStar }
func (a *AddressOf) Args() []string       { return []string{a.Var} }
func (a *AddressOf) SetArgs(s []string)   { a.Var = s[0] }
func (a *AddressOf) Labels() []string     { return nil }
func (a *AddressOf) IsJump() bool         { return false }
func (a *AddressOf) IsPure() bool         { return true }
func (a *AddressOf) TouchesMemory() bool  { return true }
func (a *AddressOf) Clone() Instruction   { c := *a; return &c }
func (a *AddressOf) String() string       { return fmt.Sprintf("%s: int* = addressof %s", a.D, a.Var) }

// ---- ssa ----

// Phi holds one (predecessor label, argument) pair per predecessor. Args
// and Labels are kept index-aligned: Args()[i] came in via Labels()[i].
type Phi struct {
	D    string
	T    Type
	Lbls []string
	Vals []string
}

func (p *Phi) Dest() (string, bool) { return p.D, true }
func (p *Phi) DestType() Type       { return p.T }
func (p *Phi) Args() []string       { return p.Vals }
func (p *Phi) SetArgs(a []string)   { p.Vals = a }
func (p *Phi) Labels() []string     { return p.Lbls }
func (p *Phi) IsJump() bool         { return false }
func (p *Phi) IsPure() bool         { return true }
func (p *Phi) TouchesMemory() bool  { return false }
func (p *Phi) Clone() Instruction {
	c := *p
	c.Lbls = append([]string(nil), p.Lbls...)
	c.Vals = append([]string(nil), p.Vals...)
	return &c
}
func (p *Phi) String() string {
	s := fmt.Sprintf("%s: %s = phi", p.D, p.T)
	for i, l := range p.Lbls {
		s += fmt.Sprintf(" %s:%s", l, p.Vals[i])
	}
	return s
}

// Undefined is the sentinel substituted for a phi argument whose rename
// stack was empty along that predecessor path (spec §4.3 step 3). It must
// never survive to a well-formed SSA program (spec §8).
const Undefined = "__undefined"
