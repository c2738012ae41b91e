package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wlpc/internal/ast"
)

func deadFunctionProgram() *ast.Program {
	return &ast.Program{Procedures: []*ast.Procedure{
		{
			Name:   "unused",
			Params: []*ast.Param{{Name: "x", Type: ast.Int}},
			Return: &ast.VarExpr{Name: "x", Typ: ast.Int},
		},
		{
			Name:   "wain",
			Params: []*ast.Param{{Name: "a", Type: ast.Int}, {Name: "dummy", Type: ast.Int}},
			Return: &ast.VarExpr{Name: "a", Typ: ast.Int},
		},
	}}
}

func TestDriverRemovesDeadFunctions(t *testing.T) {
	prog := Build(deadFunctionProgram())
	require.Contains(t, prog.Functions, "unused")

	d := NewDriver()
	d.Run(prog)

	assert.NotContains(t, prog.Functions, "unused")
	assert.Contains(t, prog.Functions, "wain")
}

func redundantComputationProgram() *ast.Program {
	// int b = a + 1; int c = a + 1; return b + c; -- b and c are
	// redundant computations a value-numbering pass should collapse.
	return &ast.Program{Procedures: []*ast.Procedure{{
		Name:   "wain",
		Params: []*ast.Param{{Name: "a", Type: ast.Int}, {Name: "dummy", Type: ast.Int}},
		Stmts: []ast.Stmt{
			&ast.AssignStmt{Target: "b", Value: &ast.BinaryExpr{
				Op: ast.Add, Left: &ast.VarExpr{Name: "a", Typ: ast.Int}, Right: intLit(1), Typ: ast.Int,
			}},
			&ast.AssignStmt{Target: "c", Value: &ast.BinaryExpr{
				Op: ast.Add, Left: &ast.VarExpr{Name: "a", Typ: ast.Int}, Right: intLit(1), Typ: ast.Int,
			}},
		},
		Return: &ast.BinaryExpr{
			Op: ast.Add, Left: &ast.VarExpr{Name: "b", Typ: ast.Int}, Right: &ast.VarExpr{Name: "c", Typ: ast.Int}, Typ: ast.Int,
		},
	}}}
}

func TestDriverFixpointShrinksRedundantComputation(t *testing.T) {
	prog := Build(redundantComputationProgram())
	fn := prog.Functions["wain"]
	before := fn.InstructionCount()

	for _, name := range prog.Order {
		ToSSA(prog.Functions[name])
	}
	d := NewDriver()
	d.Run(prog)
	for _, name := range prog.Order {
		FromSSA(prog.Functions[name])
	}

	after := prog.Functions["wain"].InstructionCount()
	assert.Less(t, after, before, "value numbering + dead-assignment elimination should shrink the function")
}

func TestDriverIsIdempotentAtFixpoint(t *testing.T) {
	prog := Build(redundantComputationProgram())
	for _, name := range prog.Order {
		ToSSA(prog.Functions[name])
	}
	d := NewDriver()
	d.Run(prog)

	removedOnSecondRun := d.Run(prog)
	assert.Equal(t, 0, removedOnSecondRun, "a second run at fixpoint must remove nothing further")
}
