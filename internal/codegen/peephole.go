package codegen

import "wlpc/internal/regalloc"

// Peephole runs the post-emission cleanup to a fixpoint (spec §4.8):
// dead-register-write removal, branch-to-next-label removal,
// never-referenced-label removal, and `add rd, rs, 0` copy-forwarding.
func Peephole(p *Program) {
	for {
		changed := false
		changed = removeDeadWrites(p) || changed
		changed = removeBranchToNext(p) || changed
		changed = removeUnreferencedLabels(p) || changed
		changed = forwardCopies(p) || changed
		if !changed {
			return
		}
	}
}

// removeDeadWrites deletes any instruction whose written register is
// never read before being overwritten again or the function ends,
// conservatively treating any label (a possible jump target) as "might be
// read downstream" by stopping the look-ahead there.
func removeDeadWrites(p *Program) bool {
	changed := false
	var out []Instr
	for i, in := range p.Insts {
		reg, writes := in.WrittenRegister()
		if !writes || reg == 0 {
			out = append(out, in)
			continue
		}
		if isReadBeforeOverwriteOrLabel(p.Insts[i+1:], reg) {
			out = append(out, in)
			continue
		}
		changed = true
	}
	p.Insts = out
	return changed
}

func isReadBeforeOverwriteOrLabel(rest []Instr, reg int) bool {
	for _, in := range rest {
		for _, r := range in.ReadRegisters() {
			if r == reg {
				return true
			}
		}
		if in.Op == OpLabel {
			return true // conservative: control may join here from elsewhere
		}
		if w, ok := in.WrittenRegister(); ok && w == reg {
			return false // overwritten before any read
		}
		if in.Op == OpJr {
			// function end: only the return value and the frame/stack
			// pointers are still read after the return.
			return reg == regalloc.RegReturnValue || reg == regalloc.RegFramePointer || reg == regalloc.RegStackPointer
		}
		if in.IsJump() {
			return true // conservative: control may leave the straight-line run
		}
	}
	return true // ran off the end without a read; conservatively keep
}

// removeBranchToNext deletes an unconditional-looking beq $0, $0, L whose
// target is the label immediately following it.
func removeBranchToNext(p *Program) bool {
	changed := false
	var out []Instr
	for i, in := range p.Insts {
		if in.Op == OpBeq && in.S == 0 && in.T == 0 && in.HasLabel && i+1 < len(p.Insts) {
			next := p.Insts[i+1]
			if next.Op == OpLabel && next.Text == in.Text {
				changed = true
				continue
			}
		}
		out = append(out, in)
	}
	p.Insts = out
	return changed
}

// removeUnreferencedLabels deletes label lines nothing branches to.
func removeUnreferencedLabels(p *Program) bool {
	referenced := map[string]bool{"wain": true} // the program's entry point
	for _, in := range p.Insts {
		if in.HasLabel && in.Op != OpLabel {
			referenced[in.Text] = true
		}
	}
	changed := false
	var out []Instr
	for _, in := range p.Insts {
		if in.Op == OpLabel && !referenced[in.Text] {
			changed = true
			continue
		}
		out = append(out, in)
	}
	p.Insts = out
	return changed
}

// forwardCopies rewrites `add rd, rs, 0` (a register copy) by forwarding
// rs throughout rd's live range up to the next write of either register, a
// label, or a jump. The copy itself stays in place; removeDeadWrites
// deletes it once its destination is no longer read.
func forwardCopies(p *Program) bool {
	changed := false
	for i := range p.Insts {
		in := &p.Insts[i]
		if in.Op != OpAdd || in.T != 0 || in.D == in.S {
			continue
		}
		rd, rs := in.D, in.S
		for j := i + 1; j < len(p.Insts); j++ {
			nxt := &p.Insts[j]
			if nxt.Op == OpLabel || nxt.IsJump() {
				break
			}
			if w, ok := nxt.WrittenRegister(); ok && (w == rd || w == rs) {
				forwardInto(nxt, rd, rs)
				break
			}
			if forwardInto(nxt, rd, rs) {
				changed = true
			}
		}
	}
	return changed
}

// forwardInto replaces any read of rd in in with rs, returning whether it
// changed anything.
func forwardInto(in *Instr, rd, rs int) bool {
	changed := false
	switch in.Op {
	case OpAdd, OpSub, OpMult, OpMultu, OpDiv, OpDivu, OpSlt, OpSltu, OpBeq, OpBne, OpSw:
		if in.S == rd {
			in.S = rs
			changed = true
		}
		if in.T == rd {
			in.T = rs
			changed = true
		}
	case OpLw, OpJr, OpJalr:
		if in.S == rd {
			in.S = rs
			changed = true
		}
	}
	return changed
}
