package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wlpc/internal/ast"
)

func smallCalleeProgram() *ast.Program {
	return &ast.Program{Procedures: []*ast.Procedure{
		{
			Name:   "addOne",
			Params: []*ast.Param{{Name: "x", Type: ast.Int}},
			Return: &ast.BinaryExpr{Op: ast.Add, Left: &ast.VarExpr{Name: "x", Typ: ast.Int}, Right: intLit(1), Typ: ast.Int},
		},
		{
			Name:   "wain",
			Params: []*ast.Param{{Name: "a", Type: ast.Int}, {Name: "dummy", Type: ast.Int}},
			Return: &ast.CallExpr{Callee: "addOne", Args: []ast.Expr{&ast.VarExpr{Name: "a", Typ: ast.Int}}, Typ: ast.Int},
		},
	}}
}

func hasCallTo(fn *Function, callee string) bool {
	for _, lbl := range fn.Order {
		for _, inst := range fn.Blocks[lbl].Insts {
			if c, ok := inst.(*Call); ok && c.Func == callee {
				return true
			}
		}
	}
	return false
}

func TestInlineFunctionsAbsorbsSmallCallee(t *testing.T) {
	prog := Build(smallCalleeProgram())
	wain := prog.Functions["wain"]
	require.True(t, hasCallTo(wain, "addOne"))

	removed := InlineFunctions(prog)
	assert.Greater(t, removed, 0)
	assert.False(t, hasCallTo(wain, "addOne"), "the call site should be replaced by the callee's body")
}

func TestDeadFunctionEliminationKeepsReachableCallees(t *testing.T) {
	prog := Build(smallCalleeProgram())
	removed := DeadFunctionElimination(prog)
	assert.Equal(t, 0, removed, "addOne is reachable from wain and must survive")
	assert.Contains(t, prog.Functions, "addOne")
}

func TestLocalValueNumberingFoldsConstantArithmetic(t *testing.T) {
	prog := Build(&ast.Program{Procedures: []*ast.Procedure{{
		Name:   "wain",
		Params: []*ast.Param{{Name: "a", Type: ast.Int}, {Name: "dummy", Type: ast.Int}},
		Return: &ast.BinaryExpr{
			Op:  ast.Add,
			Left: &ast.BinaryExpr{Op: ast.Mul, Left: intLit(2), Right: intLit(3), Typ: ast.Int},
			Right: &ast.VarExpr{Name: "a", Typ: ast.Int},
			Typ: ast.Int,
		},
	}}})
	fn := prog.Functions["wain"]
	LocalValueNumbering(fn)

	foldedTo6 := false
	for _, lbl := range fn.Order {
		for _, inst := range fn.Blocks[lbl].Insts {
			if c, ok := inst.(*Const); ok && c.Imm == 6 {
				foldedTo6 = true
			}
		}
	}
	assert.True(t, foldedTo6, "2*3 should fold to a constant 6 during local value numbering")
}

func TestDivisionByZeroSurvivesConstantFolding(t *testing.T) {
	prog := Build(&ast.Program{Procedures: []*ast.Procedure{{
		Name:   "wain",
		Params: []*ast.Param{{Name: "a", Type: ast.Int}, {Name: "dummy", Type: ast.Int}},
		Return: &ast.BinaryExpr{Op: ast.Div, Left: intLit(1), Right: intLit(0), Typ: ast.Int},
	}}})
	fn := prog.Functions["wain"]
	LocalValueNumbering(fn)

	stillADivide := false
	for _, lbl := range fn.Order {
		for _, inst := range fn.Blocks[lbl].Insts {
			if b, ok := inst.(*Binary); ok && b.Op == OpDiv {
				stillADivide = true
			}
		}
	}
	assert.True(t, stillADivide, "division by a literal zero must not be folded away at compile time")
}
