package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstrStringFormats(t *testing.T) {
	add := Instr{Op: OpAdd, D: 3, S: 1, T: 2}
	assert.Equal(t, "add $3, $1, $2", add.String())

	lw := Instr{Op: OpLw, T: 5, S: 29, Imm: -8}
	assert.Equal(t, "lw $5, -8($29)", lw.String())

	beq := Instr{Op: OpBeq, S: 1, T: 2, HasLabel: true, Text: "done"}
	assert.Equal(t, "beq $1, $2, done", beq.String())

	label := Instr{Op: OpLabel, Text: "wain"}
	assert.Equal(t, "wain:", label.String())
}

func TestInstrStringAppendsTrailingComment(t *testing.T) {
	in := Instr{Op: OpJr, S: 31, Comment: "return"}
	s := in.String()
	assert.True(t, strings.HasPrefix(s, "jr $31"))
	assert.Contains(t, s, "; return")
}

func TestCopySkipsNoOpMove(t *testing.T) {
	p := NewProgram()
	p.Copy(5, 5)
	assert.Empty(t, p.Insts, "a copy to the same register must emit nothing")

	p.Copy(5, 6)
	assert.Len(t, p.Insts, 1)
}

func TestLoadConstReusesReservedRegistersAfterInit(t *testing.T) {
	p := NewProgram()
	p.InitConstants()
	before := len(p.Insts)

	p.LoadConst(9, 1)
	added := p.Insts[before:]
	for _, in := range added {
		assert.NotEqual(t, OpLis, in.Op, "value 1 should reuse $11, not lis+.word")
	}
}

func TestLoadConstFallsBackToLisWordForArbitraryValues(t *testing.T) {
	p := NewProgram()
	p.InitConstants()
	before := len(p.Insts)

	p.LoadConst(9, 12345)
	added := p.Insts[before:]
	require := assert.New(t)
	require.Len(added, 2)
	require.Equal(OpLis, added[0].Op)
	require.Equal(OpWord, added[1].Op)
	require.Equal(int32(12345), added[1].Imm)
}

func TestGenerateLabelCanonicalizesKindCasing(t *testing.T) {
	p := NewProgram()
	a := p.GenerateLabel("loopBody")
	b := p.GenerateLabel("loop-body")
	assert.Equal(t, "loop-body0", a)
	assert.Equal(t, "loop-body1", b, "differently-cased callers must share one counter bucket")
}

func TestGenerateLabelPreservesLeadingDotConvention(t *testing.T) {
	p := NewProgram()
	lbl := p.GenerateLabel(".allocOk")
	assert.Equal(t, ".alloc-ok0", lbl)
}

func TestGenerateLabelIsUniquePerKind(t *testing.T) {
	p := NewProgram()
	a := p.GenerateLabel("loop")
	b := p.GenerateLabel("loop")
	c := p.GenerateLabel("endif")
	assert.NotEqual(t, a, b)
	assert.Equal(t, "loop0", a)
	assert.Equal(t, "loop1", b)
	assert.Equal(t, "endif0", c)
}
