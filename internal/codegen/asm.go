// Package codegen lowers the allocated IR to the target ISA's assembly
// text form (spec §4.8): integer arithmetic, signed-16-bit-offset
// loads/stores, slt/sltu comparisons, beq/bne branches, jr/jalr, and
// 32-bit immediate loads via lis+.word.
package codegen

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"wlpc/internal/regalloc"
)

// Opcode is one target-ISA instruction kind (spec §4.8's instruction
// inventory).
type Opcode int

const (
	OpAdd Opcode = iota
	OpSub
	OpMult
	OpMultu
	OpDiv
	OpDivu
	OpMfhi
	OpMflo
	OpLis
	OpLw
	OpSw
	OpSlt
	OpSltu
	OpBeq
	OpBne
	OpJr
	OpJalr
	OpWord
	OpLabel
	OpImport
	OpComment
)

// Instr is one emitted assembly instruction. Not every field applies to
// every opcode; see String for the per-opcode text form.
type Instr struct {
	Op       Opcode
	S, T, D  int
	Imm      int32
	HasLabel bool
	Text     string // label name / import symbol / .word target label
	Comment  string
}

func (in *Instr) IsJump() bool {
	switch in.Op {
	case OpJr, OpJalr, OpBeq, OpBne:
		return true
	default:
		return false
	}
}

// WrittenRegister returns the register this instruction defines, or
// (0, false) if it writes none.
func (in *Instr) WrittenRegister() (int, bool) {
	switch in.Op {
	case OpAdd, OpSub, OpMfhi, OpMflo, OpLis, OpSlt, OpSltu:
		return in.D, true
	case OpLw:
		return in.T, true
	default:
		return 0, false
	}
}

// ReadRegisters returns the registers this instruction reads.
func (in *Instr) ReadRegisters() []int {
	switch in.Op {
	case OpAdd, OpSub, OpMult, OpMultu, OpDiv, OpDivu, OpSlt, OpSltu, OpBeq, OpBne, OpSw:
		return []int{in.S, in.T}
	case OpLw, OpJr, OpJalr:
		return []int{in.S}
	default:
		return nil
	}
}

func (in *Instr) String() string {
	var body string
	switch in.Op {
	case OpAdd:
		body = fmt.Sprintf("add $%d, $%d, $%d", in.D, in.S, in.T)
	case OpSub:
		body = fmt.Sprintf("sub $%d, $%d, $%d", in.D, in.S, in.T)
	case OpSlt:
		body = fmt.Sprintf("slt $%d, $%d, $%d", in.D, in.S, in.T)
	case OpSltu:
		body = fmt.Sprintf("sltu $%d, $%d, $%d", in.D, in.S, in.T)
	case OpMult:
		body = fmt.Sprintf("mult $%d, $%d", in.S, in.T)
	case OpMultu:
		body = fmt.Sprintf("multu $%d, $%d", in.S, in.T)
	case OpDiv:
		body = fmt.Sprintf("div $%d, $%d", in.S, in.T)
	case OpDivu:
		body = fmt.Sprintf("divu $%d, $%d", in.S, in.T)
	case OpMfhi:
		body = fmt.Sprintf("mfhi $%d", in.D)
	case OpMflo:
		body = fmt.Sprintf("mflo $%d", in.D)
	case OpLis:
		body = fmt.Sprintf("lis $%d", in.D)
	case OpLw:
		body = fmt.Sprintf("lw $%d, %d($%d)", in.T, in.Imm, in.S)
	case OpSw:
		body = fmt.Sprintf("sw $%d, %d($%d)", in.T, in.Imm, in.S)
	case OpBeq:
		if in.HasLabel {
			body = fmt.Sprintf("beq $%d, $%d, %s", in.S, in.T, in.Text)
		} else {
			body = fmt.Sprintf("beq $%d, $%d, %d", in.S, in.T, in.Imm)
		}
	case OpBne:
		if in.HasLabel {
			body = fmt.Sprintf("bne $%d, $%d, %s", in.S, in.T, in.Text)
		} else {
			body = fmt.Sprintf("bne $%d, $%d, %d", in.S, in.T, in.Imm)
		}
	case OpJr:
		body = fmt.Sprintf("jr $%d", in.S)
	case OpJalr:
		body = fmt.Sprintf("jalr $%d", in.S)
	case OpWord:
		if in.HasLabel {
			body = ".word " + in.Text
		} else {
			body = fmt.Sprintf(".word %d", in.Imm)
		}
	case OpLabel:
		return in.Text + ":"
	case OpImport:
		body = ".import " + in.Text
	case OpComment:
		return "; " + in.Comment
	}
	if in.Comment != "" {
		pad := 32 - len(body)
		if pad < 1 {
			pad = 1
		}
		body += strings.Repeat(" ", pad) + "; " + in.Comment
	}
	return body
}

// Program is the emitted instruction stream for the whole compiled
// program.
type Program struct {
	Insts         []Instr
	constantsInit bool
	labelCounters map[string]int
}

func NewProgram() *Program {
	return &Program{labelCounters: map[string]int{}}
}

func (p *Program) emit(in Instr) { p.Insts = append(p.Insts, in) }

func (p *Program) Annotate(comment string) {
	if len(p.Insts) == 0 {
		return
	}
	p.Insts[len(p.Insts)-1].Comment = comment
}

// GenerateLabel returns a fresh label of the given kind, numbered from 0.
// kind is canonicalized to kebab-case first (preserving a leading ".",
// the convention ir.Function.freshLabel also uses for synthetic labels)
// so callers passing ad hoc casing ("loopBody" vs "loop_body") still land
// in the same counter bucket and produce assembler-friendly label text.
func (p *Program) GenerateLabel(kind string) string {
	dot := strings.HasPrefix(kind, ".")
	kind = strcase.ToKebab(strings.TrimPrefix(kind, "."))
	if dot {
		kind = "." + kind
	}
	idx := p.labelCounters[kind]
	p.labelCounters[kind] = idx + 1
	return fmt.Sprintf("%s%d", kind, idx)
}

// InitConstants emits the one-time setup loading #4 := 4 and #11 := 1
// (spec §4.8's reserved constant registers), after which LoadConst can
// exploit them for small immediates.
func (p *Program) InitConstants() {
	if p.constantsInit {
		return
	}
	p.LoadConst(4, 4)
	p.Slt(11, 0, 4)
	p.Annotate("$11 = ($0 < $4) = 1")
	p.constantsInit = true
}

// LoadConst materializes value into reg, reusing the reserved constant
// registers for small values once InitConstants has run, and lis+.word
// otherwise (grounded on original_source's mips_generator.hpp load_const).
func (p *Program) LoadConst(reg int, value int32) {
	switch {
	case value == 0:
		p.Add(reg, 0, 0)
	case value == -4 && p.constantsInit:
		p.Sub(reg, 0, 4)
	case value == -1 && p.constantsInit:
		p.Sub(reg, 0, 11)
	case value == -3 && p.constantsInit:
		p.Sub(reg, 11, 4)
	case value == 1 && p.constantsInit:
		p.Copy(reg, 11)
	case value == 2 && p.constantsInit:
		p.Add(reg, 11, 11)
	case value == 3 && p.constantsInit:
		p.Sub(reg, 4, 11)
	case value == 4 && p.constantsInit:
		p.Copy(reg, 4)
	case value == 5 && p.constantsInit:
		p.Add(reg, 11, 4)
	case value == 8 && p.constantsInit:
		p.Add(reg, 4, 4)
	default:
		p.Lis(reg)
		p.Word(value)
	}
}

func (p *Program) LoadConstLabel(reg int, label string) {
	p.Lis(reg)
	p.WordLabel(label)
}

// Copy emits a register-to-register move, skipping the instruction
// entirely when the source and destination coincide.
func (p *Program) Copy(d, s int) {
	if d != s {
		p.Add(d, s, 0)
	}
}

// Push stores reg at −4($30) and decrements the stack pointer.
func (p *Program) Push(reg int) {
	p.Sw(reg, -4, 30)
	p.Annotate(fmt.Sprintf("push $%d", reg))
	p.Sub(30, 30, 4)
}

// Pop increments the stack pointer and loads reg from −4($30).
func (p *Program) Pop(reg int) {
	p.Add(30, 30, 4)
	p.Annotate(fmt.Sprintf("pop $%d", reg))
	p.Lw(reg, -4, 30)
}

// PopAndDiscard drops n values off the stack without loading them,
// batching the adjustment through a scratch register once it is cheaper
// than repeating `add $30, $30, $4` (original_source mips_generator.hpp).
func (p *Program) PopAndDiscard(n int) {
	if n <= 0 {
		return
	}
	if n > 3 {
		scratch := regalloc.ScratchRegs[0]
		p.LoadConst(scratch, int32(n*4))
		p.Add(30, 30, scratch)
		return
	}
	for i := 0; i < n; i++ {
		p.Add(30, 30, 4)
	}
}

func (p *Program) Mult(d, s, t int) { p.mult(s, t); p.Mflo(d) }
func (p *Program) Div(d, s, t int)  { p.div(s, t); p.Mflo(d) }
func (p *Program) Mod(d, s, t int)  { p.div(s, t); p.Mfhi(d) }

func (p *Program) Add(d, s, t int)    { p.emit(Instr{Op: OpAdd, D: d, S: s, T: t}) }
func (p *Program) Sub(d, s, t int)    { p.emit(Instr{Op: OpSub, D: d, S: s, T: t}) }
func (p *Program) mult(s, t int)      { p.emit(Instr{Op: OpMult, S: s, T: t}) }
func (p *Program) div(s, t int)       { p.emit(Instr{Op: OpDiv, S: s, T: t}) }
func (p *Program) Mfhi(d int)         { p.emit(Instr{Op: OpMfhi, D: d}) }
func (p *Program) Mflo(d int)         { p.emit(Instr{Op: OpMflo, D: d}) }
func (p *Program) Lis(d int)          { p.emit(Instr{Op: OpLis, D: d}) }
func (p *Program) Lw(t int, i int32, s int) { p.emit(Instr{Op: OpLw, T: t, Imm: i, S: s}) }
func (p *Program) Sw(t int, i int32, s int) { p.emit(Instr{Op: OpSw, T: t, Imm: i, S: s}) }
func (p *Program) Slt(d, s, t int)    { p.emit(Instr{Op: OpSlt, D: d, S: s, T: t}) }
func (p *Program) Sltu(d, s, t int)   { p.emit(Instr{Op: OpSltu, D: d, S: s, T: t}) }
func (p *Program) BeqLabel(s, t int, label string) {
	p.emit(Instr{Op: OpBeq, S: s, T: t, HasLabel: true, Text: label})
}
func (p *Program) BneLabel(s, t int, label string) {
	p.emit(Instr{Op: OpBne, S: s, T: t, HasLabel: true, Text: label})
}
func (p *Program) Jr(s int)                { p.emit(Instr{Op: OpJr, S: s}) }
func (p *Program) Jalr(s int)               { p.emit(Instr{Op: OpJalr, S: s}) }
func (p *Program) Word(i int32)            { p.emit(Instr{Op: OpWord, Imm: i}) }
func (p *Program) WordLabel(label string)  { p.emit(Instr{Op: OpWord, HasLabel: true, Text: label}) }
func (p *Program) Label(name string)       { p.emit(Instr{Op: OpLabel, Text: name}) }
func (p *Program) Import(name string)      { p.emit(Instr{Op: OpImport, Text: name}) }
func (p *Program) Comment(text string)     { p.emit(Instr{Op: OpComment, Comment: text}) }

// NumAssemblyInstructions counts real instructions, excluding labels and
// standalone comments (used by the round-trip testable property).
func (p *Program) NumAssemblyInstructions() int {
	n := 0
	for _, in := range p.Insts {
		if in.Op != OpLabel && in.Op != OpComment {
			n++
		}
	}
	return n
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, in := range p.Insts {
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
