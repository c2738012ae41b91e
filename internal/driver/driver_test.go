package driver

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wlpc/internal/fixture"
)

func compileSrc(t *testing.T, src string) *Result {
	t.Helper()
	prog := fixture.MustParse(t.Name()+".src", src)
	result, err := CompileDefault(prog)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// Scenario A: integer sum over a loop.
func TestScenarioIntegerSum(t *testing.T) {
	result := compileSrc(t, `
proc wain(n int, dummy int) {
	int sum = 0;
	int i = 0;
	while (i < n) {
		sum = sum + i;
		i = i + 1;
	}
	return sum;
}
`)
	asm := result.Assembly.String()
	assert.Contains(t, asm, "wain:")
	assert.Contains(t, asm, "jr $31")
}

// Scenario B: recursive-ish iterative computation (first-N-primes style
// counter loop plus a Collatz-shaped conditional update), exercising
// comparison, modulo, and nested control flow together.
func TestScenarioPrimesAndCollatz(t *testing.T) {
	result := compileSrc(t, `
proc wain(n int, dummy int) {
	int count = 0;
	int i = 2;
	int isPrime = 1;
	int d = 2;
	int steps = 0;
	int x = 0;
	while (i < n) {
		isPrime = 1;
		d = 2;
		while (d < i) {
			if (i % d == 0) {
				isPrime = 0;
			}
			d = d + 1;
		}
		if (isPrime == 1) {
			count = count + 1;
		}
		i = i + 1;
	}

	x = n;
	while (x > 1) {
		if (x % 2 == 0) {
			x = x / 2;
		} else {
			x = x * 3 + 1;
		}
		steps = steps + 1;
	}

	return count + steps;
}
`)
	assert.Contains(t, result.Assembly.String(), "wain:")
}

// Scenario C: heap allocation and free.
func TestScenarioAllocAndFree(t *testing.T) {
	result := compileSrc(t, `
proc wain(n int, dummy int) {
	int* arr = NULL;
	arr = new int[n];
	*arr = n;
	delete[] arr;
	return *arr;
}
`)
	asm := result.Assembly.String()
	assert.Contains(t, asm, ".import new")
	assert.Contains(t, asm, ".import delete")
	// the source allocates exactly one array and never does pointer
	// arithmetic, so no mult should appear: new's size argument is the
	// raw word count (spec §6), not scaled by 4 before the call.
	assert.NotContains(t, asm, "mult", "new's size operand must not be scaled before the call")
}

// Scenario D: NULL guard before a dereference.
func TestScenarioNullGuard(t *testing.T) {
	result := compileSrc(t, `
proc wain(p int*, dummy int) {
	int r = 0;
	if (p == NULL) {
		r = 0;
	} else {
		r = *p;
	}
	return r;
}
`)
	assert.Contains(t, result.Assembly.String(), "wain:")
}

// Scenario E: a small recursive-shaped helper call that the inliner
// should fully absorb, leaving no call/jalr behind for that call site.
func TestScenarioInlinedCall(t *testing.T) {
	result := compileSrc(t, `
proc addOne(x int) {
	return x + 1;
}

proc wain(a int, dummy int) {
	return addOne(a);
}
`)
	asm := result.Assembly.String()
	assert.NotContains(t, asm, "addOne:", "callee should have been inlined and its function label dropped as dead")
}

// Scenario F: many simultaneously live variables, forcing spills under
// the reference 22-register palette.
func TestScenarioRegisterSpill(t *testing.T) {
	var b strings.Builder
	b.WriteString("proc wain(seed int, dummy int) {\n")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "\tint v%d = %d;\n", i, i)
	}
	b.WriteString("\tint total = 0;\n")
	// derive every value from the parameter so constant folding cannot
	// collapse them; all 40 stay live until the summation below.
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "\tv%d = seed + %d;\n", i, i)
	}
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "\ttotal = total + v%d;\n", i)
	}
	b.WriteString("\treturn total;\n}\n")

	result := compileSrc(t, b.String())
	asm := result.Assembly.String()
	assert.Contains(t, asm, "lw", "spilled variables must be reloaded from their stack slots")
	assert.Contains(t, asm, "sw", "spilled variables must be stored to their stack slots")
}

// Boundary: an empty-bodied procedure still produces a well-formed
// prologue/epilogue pair.
func TestEmptyWainReturnsZero(t *testing.T) {
	result := compileSrc(t, `
proc wain(a int, b int) {
	return 0;
}
`)
	asm := result.Assembly.String()
	assert.Contains(t, asm, "wain:")
	assert.Contains(t, asm, "jr $31")
}
