package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeepholeRemovesDeadWrite(t *testing.T) {
	p := &Program{Insts: []Instr{
		{Op: OpAdd, D: 9, S: 1, T: 0}, // $9 = $1, never read
		{Op: OpJr, S: 31},
	}}
	Peephole(p)
	for _, in := range p.Insts {
		assert.NotEqual(t, 9, in.D, "dead write to $9 should have been removed")
	}
}

func TestPeepholeKeepsWriteReadByReturnRegister(t *testing.T) {
	p := &Program{Insts: []Instr{
		{Op: OpAdd, D: 3, S: 1, T: 0},
		{Op: OpJr, S: 31},
	}}
	Peephole(p)
	require := assert.New(t)
	require.Len(p.Insts, 2)
	require.Equal(3, p.Insts[0].D)
}

func TestPeepholeRemovesBranchToImmediatelyFollowingLabel(t *testing.T) {
	p := &Program{Insts: []Instr{
		{Op: OpBeq, S: 0, T: 0, HasLabel: true, Text: "skip"},
		{Op: OpLabel, Text: "skip"},
		{Op: OpJr, S: 31},
	}}
	Peephole(p)
	for _, in := range p.Insts {
		assert.NotEqual(t, OpBeq, in.Op)
	}
}

func TestPeepholeRemovesUnreferencedLabels(t *testing.T) {
	p := &Program{Insts: []Instr{
		{Op: OpLabel, Text: "dead"},
		{Op: OpAdd, D: 3, S: 1, T: 0},
		{Op: OpJr, S: 31},
	}}
	Peephole(p)
	for _, in := range p.Insts {
		assert.False(t, in.Op == OpLabel && in.Text == "dead")
	}
}

func TestPeepholeForwardsCopyIntoSubsequentUse(t *testing.T) {
	p := &Program{Insts: []Instr{
		{Op: OpAdd, D: 9, S: 6, T: 0}, // $9 = $6 (copy)
		{Op: OpAdd, D: 3, S: 9, T: 0},
		{Op: OpJr, S: 31},
	}}
	Peephole(p)
	found := false
	for _, in := range p.Insts {
		if in.Op == OpAdd && in.D == 3 && in.S == 6 {
			found = true
		}
	}
	assert.True(t, found, "the copy-forwarded use of $9 should have become $6")
}
