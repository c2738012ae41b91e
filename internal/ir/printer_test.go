package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPrintRoundTripsInstructionCount is the supplemented idempotence
// check: the number of per-instruction lines Print emits for a function
// must match InstructionCount exactly, so re-running the printer after an
// optimization pass is a faithful progress signal.
func TestPrintRoundTripsInstructionCount(t *testing.T) {
	prog := Build(diamondProgram())
	fn := prog.Functions["wain"]

	out := String(prog)
	lines := 0
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "{" || trimmed == "}" || strings.HasPrefix(trimmed, "fn ") {
			continue
		}
		lines++
	}
	assert.Equal(t, fn.InstructionCount(), lines)
}

func TestPrintIsIdempotentOnAnUnchangedProgram(t *testing.T) {
	prog := Build(diamondProgram())
	first := String(prog)
	second := String(prog)
	assert.Equal(t, first, second)
}
