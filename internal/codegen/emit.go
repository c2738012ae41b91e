package codegen

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"wlpc/internal/diag"
	"wlpc/internal/ir"
	"wlpc/internal/regalloc"
)

// scratch0/scratch1 are the two dedicated scratch registers operand
// materialization reaches for most often; regalloc.ScratchRegs[2:] alias
// the argument registers, free to reuse once a function's prologue has
// moved them into their allocated homes, and back the third operand of
// pointer arithmetic and the cycle-breaking copy sequencer.
var scratch0, scratch1 = regalloc.ScratchRegs[0], regalloc.ScratchRegs[1]

// funcState carries one function's emission context: its allocation, the
// whole program's allocations (needed at call sites to marshal arguments
// directly into the callee's own homes), the running asm program, and its
// own label namespace (every IR label is prefixed by the function name so
// two functions can reuse block names).
type funcState struct {
	fn     *ir.Function
	alloc  *regalloc.Allocation
	prog   *ir.Program
	allocs map[string]*regalloc.Allocation
	asm    *Program
}

// EmitProgram lowers an entire allocated program to target assembly
// (spec §4.8). registerCount sizes the allocator's palette. Every
// function's allocation is computed up front so that call sites can
// marshal arguments directly into the callee's parameter homes (spec
// §4.8's cycle-breaking copy sequencer) regardless of call order.
func EmitProgram(prog *ir.Program, registerCount int) *Program {
	asm := NewProgram()

	if prog.UsesHeap() {
		asm.Import("new")
		asm.Import("delete")
	}
	if prog.UsesPrint() {
		asm.Import("print")
	}
	asm.Import("init")
	asm.InitConstants()

	order := make([]string, 0, len(prog.Order))
	if _, ok := prog.Functions["wain"]; ok {
		order = append(order, "wain")
	}
	for _, name := range prog.Order {
		if name != "wain" {
			order = append(order, name)
		}
	}

	allocs := map[string]*regalloc.Allocation{}
	for _, name := range order {
		allocs[name] = regalloc.Allocate(prog.Functions[name], registerCount)
	}

	asm.Comment(programFingerprint(prog, order))

	for _, name := range order {
		fn := prog.Functions[name]
		fs := &funcState{fn: fn, alloc: allocs[name], prog: prog, allocs: allocs, asm: asm}
		fs.emitFunction()
	}

	Peephole(asm)
	return asm
}

// programFingerprint content-addresses the IR that produced this
// assembly: a blake2b-256 hash over each function's name and instruction
// count, in emission order. Two builds of the same IR always agree on
// this comment regardless of build ID, which is what makes it useful
// alongside the per-invocation ksuid stamped by internal/driver.
func programFingerprint(prog *ir.Program, order []string) string {
	var sb strings.Builder
	for _, name := range order {
		fmt.Fprintf(&sb, "%s:%d;", name, prog.Functions[name].InstructionCount())
	}
	sum := blake2b.Sum256([]byte(sb.String()))
	return fmt.Sprintf("ir fingerprint %x", sum[:8])
}

func (fs *funcState) label(blockLbl string) string {
	return fs.fn.Name + blockLbl
}

func (fs *funcState) emitFunction() {
	asm := fs.asm
	asm.Label(fs.fn.Name)

	if fs.fn.Name == "wain" {
		fs.emitWainPrologue()
	}

	// Reserve this function's own spill slots and establish its frame
	// pointer (spec §4.8: "the callee's own spill slots are reserved").
	asm.Sub(regalloc.RegFramePointer, regalloc.RegStackPointer, 4)
	if n := fs.alloc.NumSpilled; n > 0 {
		asm.LoadConst(scratch0, int32(n*4))
		asm.Sub(regalloc.RegStackPointer, regalloc.RegStackPointer, scratch0)
	}

	for _, lbl := range fs.fn.Order {
		asm.Label(fs.label(lbl))
		for _, inst := range fs.fn.Blocks[lbl].Insts[1:] { // skip the IR Label
			fs.emitInst(inst)
		}
	}
}

// emitWainPrologue moves the incoming arguments from #1/#2 into their
// allocated homes, then invokes init per spec §4.8's convention.
func (fs *funcState) emitWainPrologue() {
	asm := fs.asm
	diag.Assert(len(fs.fn.Params) == 2, "wain must have exactly two parameters")

	// preserve the raw incoming args before overwriting #1/#2.
	asm.Copy(scratch0, regalloc.RegArg1)
	asm.Copy(scratch1, regalloc.RegArg2)

	fs.storeOperand(fs.fn.Params[0].Name, scratch0)
	fs.storeOperand(fs.fn.Params[1].Name, scratch1)

	if fs.fn.Params[0].Type == ir.Int {
		asm.LoadConst(regalloc.RegArg1, 0)
		asm.LoadConst(regalloc.RegArg2, 0)
	} else {
		asm.Copy(regalloc.RegArg1, scratch0)
		asm.Copy(regalloc.RegArg2, scratch1)
	}
	asm.LoadConstLabel(scratch0, "init")
	asm.Jalr(scratch0)
	asm.Annotate("call init")
}

// loadOperand materializes var into a register, using its own register if
// allocated or a scratch register loaded from its spill slot otherwise.
func (fs *funcState) loadOperand(v string, scratch int) int {
	if r, ok := fs.alloc.Register[v]; ok {
		return r
	}
	off, ok := fs.alloc.StackOffset[v]
	diag.Assert(ok, "variable %s has neither a register nor a stack slot", v)
	fs.asm.Lw(scratch, int32(off), regalloc.RegFramePointer)
	return scratch
}

// storeOperand writes the value currently in src into var's home.
func (fs *funcState) storeOperand(v string, src int) {
	if r, ok := fs.alloc.Register[v]; ok {
		fs.asm.Copy(r, src)
		return
	}
	off, ok := fs.alloc.StackOffset[v]
	diag.Assert(ok, "variable %s has neither a register nor a stack slot", v)
	fs.asm.Sw(src, int32(off), regalloc.RegFramePointer)
}

func (fs *funcState) emitInst(inst ir.Instruction) {
	switch v := inst.(type) {
	case *ir.Const:
		fs.emitConst(v)
	case *ir.ID:
		src := fs.loadOperand(v.Src, scratch0)
		fs.storeOperand(v.D, src)
	case *ir.Binary:
		fs.emitBinary(v)
	case *ir.Print:
		val := fs.loadOperand(v.Value, scratch0)
		fs.asm.Copy(regalloc.RegArg1, val)
		fs.asm.LoadConstLabel(scratch1, "print")
		fs.asm.Jalr(scratch1)
	case *ir.Jmp:
		fs.asm.BeqLabel(0, 0, fs.label(v.Target))
	case *ir.Br:
		cond := fs.loadOperand(v.Cond, scratch0)
		fs.asm.BeqLabel(cond, 0, fs.label(v.Else))
		fs.asm.BeqLabel(0, 0, fs.label(v.Then))
	case *ir.Ret:
		if v.Value != "" {
			rv := fs.loadOperand(v.Value, scratch0)
			fs.asm.Copy(regalloc.RegReturnValue, rv)
		}
		fs.asm.Jr(regalloc.RegReturnAddr)
	case *ir.Call:
		fs.emitCall(v)
	case *ir.Alloc:
		fs.emitAlloc(v)
	case *ir.Free:
		fs.emitFree(v)
	case *ir.Store:
		ptr := fs.loadOperand(v.Ptr, scratch0)
		val := fs.loadOperand(v.Value, scratch1)
		fs.asm.Sw(val, 0, ptr)
	case *ir.Load:
		ptr := fs.loadOperand(v.Ptr, scratch0)
		fs.asm.Lw(scratch1, 0, ptr)
		fs.storeOperand(v.D, scratch1)
	case *ir.AddressOf:
		// spilled by construction (§4.7): the address is simply the
		// variable's frame-pointer-relative stack slot.
		off, ok := fs.alloc.StackOffset[v.Var]
		diag.Assert(ok, "addressof operand %s must be spilled", v.Var)
		fs.asm.Add(scratch0, regalloc.RegFramePointer, 0)
		fs.asm.LoadConst(scratch1, int32(off))
		fs.asm.Add(scratch0, scratch0, scratch1)
		fs.storeOperand(v.D, scratch0)
	case *ir.Nop, *ir.Label:
		// nothing to emit
	case *ir.Phi:
		diag.Assert(false, "phi must not survive to target emission")
	default:
		diag.Assert(false, "unhandled instruction kind in emission")
	}
}

func (fs *funcState) emitConst(c *ir.Const) {
	fs.asm.LoadConst(scratch0, int32(c.Imm))
	fs.storeOperand(c.D, scratch0)
}

func (fs *funcState) emitBinary(b *ir.Binary) {
	asm := fs.asm
	l := fs.loadOperand(b.Left, scratch0)
	// avoid clobbering l if Right reuses scratch0 internally.
	r := fs.loadOperand(b.Right, scratch1)

	switch b.Op {
	case ir.OpAdd:
		asm.Add(scratch0, l, r)
	case ir.OpSub:
		asm.Sub(scratch0, l, r)
	case ir.OpMul:
		asm.Mult(scratch0, l, r)
	case ir.OpDiv:
		asm.Div(scratch0, l, r)
	case ir.OpMod:
		asm.Mod(scratch0, l, r)
	case ir.OpPtrAdd:
		asm.Mult(regalloc.ScratchRegs[2], r, regalloc.RegConstFour)
		asm.Add(scratch0, l, regalloc.ScratchRegs[2])
	case ir.OpPtrSub:
		asm.Mult(regalloc.ScratchRegs[2], r, regalloc.RegConstFour)
		asm.Sub(scratch0, l, regalloc.ScratchRegs[2])
	case ir.OpPtrDiff:
		asm.Sub(regalloc.ScratchRegs[2], l, r)
		asm.Div(scratch0, regalloc.ScratchRegs[2], regalloc.RegConstFour)
	case ir.OpLt:
		asm.Slt(scratch0, l, r)
	case ir.OpLe:
		// le(l, r) = !lt(r, l) = 1 - slt(r, l)
		asm.Slt(scratch0, r, l)
		asm.Sub(scratch0, regalloc.RegConstOne, scratch0)
	case ir.OpGt:
		asm.Slt(scratch0, r, l)
	case ir.OpGe:
		asm.Slt(scratch0, l, r)
		asm.Sub(scratch0, regalloc.RegConstOne, scratch0)
	case ir.OpEq:
		asm.Sub(scratch0, l, r)
		asm.Sltu(scratch0, 0, scratch0) // 1 iff diff != 0, unsigned (diff==0 is the only non-negative-as-unsigned-zero case)
		asm.Sub(scratch0, regalloc.RegConstOne, scratch0)
	case ir.OpNe:
		asm.Sub(scratch0, l, r)
		asm.Sltu(scratch0, 0, scratch0)
	default:
		diag.Assert(false, "unhandled binary opcode %s", b.Op)
	}
	fs.storeOperand(b.D, scratch0)
}

func (fs *funcState) emitAlloc(a *ir.Alloc) {
	asm := fs.asm
	size := fs.loadOperand(a.Size, scratch0)
	asm.Copy(regalloc.RegArg1, size)
	asm.LoadConstLabel(scratch1, "new")
	asm.Jalr(scratch1)
	asm.Annotate("call new")
	// substitute the NULL sentinel (#11 == 1) when new returns 0 (spec §6).
	okLbl := fs.asm.GenerateLabel(".allocok")
	asm.BneLabel(regalloc.RegReturnValue, 0, okLbl)
	asm.Copy(regalloc.RegReturnValue, regalloc.RegConstOne)
	asm.Label(okLbl)
	fs.storeOperand(a.D, regalloc.RegReturnValue)
}

func (fs *funcState) emitFree(f *ir.Free) {
	asm := fs.asm
	ptr := fs.loadOperand(f.Ptr, scratch0)
	skipLbl := asm.GenerateLabel(".freeskip")
	asm.BeqLabel(ptr, regalloc.RegConstOne, skipLbl)
	asm.Copy(regalloc.RegArg1, ptr)
	asm.LoadConstLabel(scratch1, "delete")
	asm.Jalr(scratch1)
	asm.Annotate("call delete")
	asm.Label(skipLbl)
}

// emitCall saves caller-saved registers (every register this function has
// allocated plus the frame pointer), marshals arguments directly into the
// callee's own parameter homes via the cycle-breaking copy sequencer,
// jalrs the callee, then restores (spec §4.8).
func (fs *funcState) emitCall(c *ir.Call) {
	asm := fs.asm
	callee := c.Func
	calleeFn := fs.prog.Functions[callee]
	calleeAlloc := fs.allocs[callee]
	diag.Assert(calleeFn != nil && calleeAlloc != nil, "call to unknown function %s", callee)

	var saved []int
	seen := map[int]bool{regalloc.RegFramePointer: true}
	saved = append(saved, regalloc.RegFramePointer)
	regs := make([]int, 0, len(fs.alloc.Register))
	for _, r := range fs.alloc.Register {
		regs = append(regs, r)
	}
	sort.Ints(regs)
	for _, r := range regs {
		if !seen[r] {
			seen[r] = true
			saved = append(saved, r)
		}
	}
	for _, r := range saved {
		asm.Push(r)
	}

	fs.marshalArguments(c.Arg, calleeFn, calleeAlloc)

	asm.LoadConstLabel(scratch0, callee)
	asm.Jalr(scratch0)
	asm.Annotate("call " + callee)

	// #3 is now an allocatable register (spec §4.8) and may be restored
	// by the pop loop below, so the return value is captured into a
	// dedicated scratch register (never pushed/popped) before restoring.
	if c.D != "" {
		asm.Copy(scratch1, regalloc.RegReturnValue)
	}

	for i := len(saved) - 1; i >= 0; i-- {
		asm.Pop(saved[i])
	}
	if c.D != "" {
		fs.storeOperand(c.D, scratch1)
	}
}

// marshalArguments copies each argument directly into the callee's
// parameter home. Register-homed destinations whose values come from this
// function's own registers are collected into a parallel-move problem and
// resolved by the cycle-breaking sequencer (spec §4.8): chains ending in a
// register nothing else targets are peeled by emitting copies from the
// sink backward; any remainder forms cycles, broken by saving one member
// to scratch, rotating the rest, then restoring from scratch. Stack-homed
// destinations and register destinations fed by a spilled source are
// written directly first, since neither can participate in a cycle.
func (fs *funcState) marshalArguments(args []string, callee *ir.Function, calleeAlloc *regalloc.Allocation) {
	asm := fs.asm
	moves := map[int]int{} // destReg -> srcReg, for register-to-register moves only

	for i, a := range args {
		destName := callee.Params[i].Name
		if destReg, ok := calleeAlloc.Register[destName]; ok {
			if srcReg, ok := fs.alloc.Register[a]; ok {
				moves[destReg] = srcReg
				continue
			}
			// spilled source: load it straight into the destination
			// register, no cycle possible.
			fs.loadOperand(a, destReg)
			continue
		}
		off, ok := calleeAlloc.StackOffset[destName]
		diag.Assert(ok, "callee parameter %s has neither a register nor a stack slot", destName)
		v := fs.loadOperand(a, scratch1)
		// address = calleeFP + off = (sp - 4) + off = sp + (off - 4);
		// the callee's frame pointer is established right after entry,
		// at its own sp minus 4, and sp is unchanged by this marshaling.
		asm.Sw(v, int32(off-4), regalloc.RegStackPointer)
	}

	resolveParallelMoves(asm, moves, regalloc.ScratchRegs[2])
}

// resolveParallelMoves emits register copies realizing the simultaneous
// assignment moves[dst] = src for every entry, handling aliasing between
// sources and destinations via chain-peeling and cycle-breaking.
func resolveParallelMoves(asm *Program, moves map[int]int, scratch int) {
	isSource := func(r int) bool {
		for _, s := range moves {
			if s == r {
				return true
			}
		}
		return false
	}

	for len(moves) > 0 {
		progressed := false
		dests := make([]int, 0, len(moves))
		for d := range moves {
			dests = append(dests, d)
		}
		sort.Ints(dests)
		for _, d := range dests {
			if _, stillPending := moves[d]; !stillPending {
				continue
			}
			if !isSource(d) || moves[d] == d {
				asm.Copy(d, moves[d])
				delete(moves, d)
				progressed = true
			}
		}
		if progressed {
			continue
		}

		// every remaining move is part of a cycle; break the
		// lexicographically-first one.
		dests = dests[:0]
		for d := range moves {
			dests = append(dests, d)
		}
		sort.Ints(dests)
		start := dests[0]
		asm.Copy(scratch, start)
		cur := start
		for {
			src := moves[cur]
			delete(moves, cur)
			if src == start {
				asm.Copy(cur, scratch)
				break
			}
			asm.Copy(cur, src)
			cur = src
		}
	}
}
