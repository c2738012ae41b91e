package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wlpc/internal/ir"
)

func trivialWain() *ir.Program {
	fn := ir.NewFunction("wain", []ir.Param{{Name: "a", Type: ir.Int}, {Name: "dummy", Type: ir.Int}}, ir.Int)
	entry := ".entry0"
	flat := []ir.Instruction{
		&ir.Label{Name: entry},
		&ir.Ret{Value: "a"},
	}
	ir.BuildCFG(fn, flat)
	return &ir.Program{Functions: map[string]*ir.Function{"wain": fn}, Order: []string{"wain"}}
}

func TestEmitProgramProducesAWellFormedPrologueAndEpilogue(t *testing.T) {
	asm := EmitProgram(trivialWain(), 22)
	text := asm.String()
	require.Contains(t, text, "wain:")
	assert.Contains(t, text, "jr $31")
	assert.True(t, strings.Contains(text, ".import init"))
}

func TestEmitProgramStampsAContentFingerprintComment(t *testing.T) {
	asm := EmitProgram(trivialWain(), 22)
	found := false
	for _, in := range asm.Insts {
		if in.Op == OpComment && strings.HasPrefix(in.Comment, "ir fingerprint ") {
			found = true
		}
	}
	assert.True(t, found, "EmitProgram should stamp a content-addressed fingerprint comment")
}

func TestEmitProgramFingerprintIsDeterministic(t *testing.T) {
	a := EmitProgram(trivialWain(), 22)
	b := EmitProgram(trivialWain(), 22)
	fingerprint := func(p *Program) string {
		for _, in := range p.Insts {
			if in.Op == OpComment && strings.HasPrefix(in.Comment, "ir fingerprint ") {
				return in.Comment
			}
		}
		return ""
	}
	assert.Equal(t, fingerprint(a), fingerprint(b))
	assert.NotEmpty(t, fingerprint(a))
}

func TestEmitProgramOmitsHeapImportsWhenUnused(t *testing.T) {
	asm := EmitProgram(trivialWain(), 22)
	text := asm.String()
	assert.NotContains(t, text, ".import new")
	assert.NotContains(t, text, ".import delete")
}
