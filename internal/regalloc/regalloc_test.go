package regalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wlpc/internal/ast"
	"wlpc/internal/ir"
)

func manyLiveVarsProgram(n int) *ast.Program {
	proc := &ast.Procedure{
		Name:   "wain",
		Params: []*ast.Param{{Name: "seed", Type: ast.Int}, {Name: "dummy", Type: ast.Int}},
	}
	var sum ast.Expr = &ast.VarExpr{Name: "seed", Typ: ast.Int}
	for i := 0; i < n; i++ {
		name := "v" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		proc.Decls = append(proc.Decls, &ast.Decl{Name: name, Type: ast.Int, Literal: int64(i)})
		sum = &ast.BinaryExpr{Op: ast.Add, Left: sum, Right: &ast.VarExpr{Name: name, Typ: ast.Int}, Typ: ast.Int}
	}
	proc.Return = sum
	return &ast.Program{Procedures: []*ast.Procedure{proc}}
}

func TestAllocateColorsDisjointLowDegreeGraph(t *testing.T) {
	prog := ir.Build(&ast.Program{Procedures: []*ast.Procedure{{
		Name:   "wain",
		Params: []*ast.Param{{Name: "a", Type: ast.Int}, {Name: "dummy", Type: ast.Int}},
		Return: &ast.VarExpr{Name: "a", Typ: ast.Int},
	}}})
	fn := prog.Functions["wain"]
	alloc := Allocate(fn, 22)
	assert.Zero(t, alloc.NumSpilled)
}

func TestAllocateSpillsUnderPressure(t *testing.T) {
	prog := ir.Build(manyLiveVarsProgram(40))
	fn := prog.Functions["wain"]

	alloc := Allocate(fn, 22)
	require.Greater(t, alloc.NumSpilled, 0, "40 simultaneously live vars must not all fit in 22 registers")

	for v, off := range alloc.StackOffset {
		assert.LessOrEqual(t, off, -4, "spill slot for %s must be below the frame pointer", v)
	}
}

func TestInterferenceGraphForcesAddressOfOperandsToSpill(t *testing.T) {
	prog := ir.Build(pointerProgram())
	fn := prog.Functions["wain"]
	_, _, forced := BuildInterferenceGraph(fn)
	assert.True(t, forced["x"], "x is taken by addressof and must be forced to spill")
}

func pointerProgram() *ast.Program {
	return &ast.Program{Procedures: []*ast.Procedure{{
		Name:   "wain",
		Params: []*ast.Param{{Name: "a", Type: ast.Int}, {Name: "dummy", Type: ast.Int}},
		Decls:  []*ast.Decl{{Name: "x", Type: ast.Int, Literal: 5}},
		Stmts: []ast.Stmt{
			&ast.AssignStmt{Target: "p", Value: &ast.AddressOfExpr{Var: "x", Typ: ast.IntStar}},
			&ast.AssignStmt{Deref: &ast.VarExpr{Name: "p", Typ: ast.IntStar}, Value: &ast.IntLit{Value: 9, Typ: ast.Int}},
		},
		Return: &ast.DerefExpr{Value: &ast.VarExpr{Name: "p", Typ: ast.IntStar}, Typ: ast.Int},
	}}}
}

func TestPaletteExcludesReservedRegisters(t *testing.T) {
	pal := Palette(30)
	reserved := map[int]bool{0: true, 1: true, 2: true, 4: true, 6: true, 7: true, 11: true, 29: true, 30: true, 31: true}
	for _, r := range pal {
		assert.False(t, reserved[r], "register %d must not appear in the allocatable palette", r)
	}
}

func TestPaletteClampsToRequestedSize(t *testing.T) {
	pal := Palette(5)
	assert.Len(t, pal, 5)
}

func TestPaletteDeliversTheFullDefaultRegisterCount(t *testing.T) {
	pal := Palette(22)
	assert.Len(t, pal, 22, "the reference's available_registers list has exactly 22 entries")
}
