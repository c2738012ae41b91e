package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasPhi(fn *Function) bool {
	for _, lbl := range fn.Order {
		for _, inst := range fn.Blocks[lbl].Insts {
			if _, ok := inst.(*Phi); ok {
				return true
			}
		}
	}
	return false
}

func TestToSSAInsertsPhiAtMergePoint(t *testing.T) {
	prog := Build(diamondProgram())
	fn := prog.Functions["wain"]
	MemToReg(fn) // no-op here: diamondProgram has no memory instructions

	ok := ToSSA(fn)
	require.True(t, ok)
	assert.True(t, hasPhi(fn), "merge block after if/else must gain a phi for b")
}

func TestEverySSADefinitionIsUnique(t *testing.T) {
	prog := Build(diamondProgram())
	fn := prog.Functions["wain"]
	MemToReg(fn)
	ToSSA(fn)

	seen := map[string]bool{}
	for _, lbl := range fn.Order {
		for _, inst := range fn.Blocks[lbl].Insts {
			d, ok := inst.Dest()
			if !ok {
				continue
			}
			assert.False(t, seen[d], "variable %s defined more than once in SSA form", d)
			seen[d] = true
		}
	}
}

func TestFromSSARemovesAllPhis(t *testing.T) {
	prog := Build(diamondProgram())
	fn := prog.Functions["wain"]
	MemToReg(fn)
	ToSSA(fn)
	require.True(t, hasPhi(fn))

	FromSSA(fn)
	assert.False(t, hasPhi(fn), "FromSSA must eliminate every phi")
}

func TestToSSASkipsFunctionsStillTouchingMemory(t *testing.T) {
	prog := Build(pointerProgram())
	fn := prog.Functions["wain"]
	// no MemToReg: the addressof/load/store triplet is still present.
	ok := ToSSA(fn)
	assert.False(t, ok)
}
