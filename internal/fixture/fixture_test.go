package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleProcedure(t *testing.T) {
	src := `
proc wain(a int, b int) {
	int c = 1;
	return a + b * c;
}
`
	prog, err := Parse("t.src", src)
	require.NoError(t, err)
	require.Len(t, prog.Procedures, 1)

	proc := prog.Procedures[0]
	assert.Equal(t, "wain", proc.Name)
	require.Len(t, proc.Params, 2)
	assert.Equal(t, "a", proc.Params[0].Name)
	require.Len(t, proc.Decls, 1)
	assert.Equal(t, int64(1), proc.Decls[0].Literal)
	assert.NotNil(t, proc.Return)
}

func TestParseControlFlow(t *testing.T) {
	src := `
proc wain(n int) {
	int i = 0;
	int sum = 0;
	while (i < n) {
		sum = sum + i;
		i = i + 1;
	}
	if (sum == 0) {
		println(0);
	} else {
		println(sum);
	}
	return sum;
}
`
	prog, err := Parse("t.src", src)
	require.NoError(t, err)
	proc := prog.Procedures[0]
	assert.Len(t, proc.Stmts, 2)
}

func TestParsePointersAndHeap(t *testing.T) {
	src := `
proc wain(a int*, b int) {
	int* p = NULL;
	p = new int[b];
	*p = a;
	delete[] p;
	return 0;
}
`
	prog, err := Parse("t.src", src)
	require.NoError(t, err)
	proc := prog.Procedures[0]
	require.Len(t, proc.Stmts, 3)
}

func TestParseCallAndAddressOf(t *testing.T) {
	src := `
proc helper(x int) {
	return x * 2;
}

proc wain(a int, b int) {
	int* p = NULL;
	p = &a;
	return helper(*p);
}
`
	prog, err := Parse("t.src", src)
	require.NoError(t, err)
	require.Len(t, prog.Procedures, 2)
}

func TestMustParsePanicsOnSyntaxError(t *testing.T) {
	assert.Panics(t, func() {
		MustParse("t.src", "proc wain( {")
	})
}
