package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wlpc/internal/ast"
)

func intLit(n int64) ast.Expr { return &ast.IntLit{Value: n, Typ: ast.Int} }

func diamondProgram() *ast.Program {
	// if (a) { b = 1; } else { b = 2; } return b;
	return &ast.Program{Procedures: []*ast.Procedure{{
		Name:   "wain",
		Params: []*ast.Param{{Name: "a", Type: ast.Int}, {Name: "dummy", Type: ast.Int}},
		Decls:  []*ast.Decl{{Name: "b", Type: ast.Int, Literal: 0}},
		Stmts: []ast.Stmt{
			&ast.IfStmt{
				Cond: &ast.VarExpr{Name: "a", Typ: ast.Int},
				Then: []ast.Stmt{&ast.AssignStmt{Target: "b", Value: intLit(1)}},
				Else: []ast.Stmt{&ast.AssignStmt{Target: "b", Value: intLit(2)}},
			},
		},
		Return: &ast.VarExpr{Name: "b", Typ: ast.Int},
	}}}
}

func pointerProgram() *ast.Program {
	// int x = 5; int* p = &x; *p = 9; return *p;
	return &ast.Program{Procedures: []*ast.Procedure{{
		Name:   "wain",
		Params: []*ast.Param{{Name: "a", Type: ast.Int}, {Name: "dummy", Type: ast.Int}},
		Decls:  []*ast.Decl{{Name: "x", Type: ast.Int, Literal: 5}},
		Stmts: []ast.Stmt{
			&ast.AssignStmt{
				Target: "p",
				Value:  &ast.AddressOfExpr{Var: "x", Typ: ast.IntStar},
			},
			&ast.AssignStmt{
				Deref: &ast.VarExpr{Name: "p", Typ: ast.IntStar},
				Value: intLit(9),
			},
		},
		Return: &ast.DerefExpr{Value: &ast.VarExpr{Name: "p", Typ: ast.IntStar}, Typ: ast.Int},
	}}}
}

func TestBuildCFGEveryBlockReachable(t *testing.T) {
	prog := Build(diamondProgram())
	fn := prog.Functions["wain"]
	fn.EnsureFresh()

	require.NotEmpty(t, fn.Order)
	for _, lbl := range fn.Order {
		if lbl == fn.Entry {
			continue
		}
		assert.NotEmpty(t, fn.Blocks[lbl].Preds, "block %s must have a predecessor", lbl)
	}
}

func TestDominatorsEntryDominatesEverything(t *testing.T) {
	prog := Build(diamondProgram())
	fn := prog.Functions["wain"]
	fn.EnsureFresh()

	for _, lbl := range fn.Order {
		assert.True(t, fn.Dom.Dominates(fn.Entry, lbl), "entry must dominate %s", lbl)
	}
	assert.Equal(t, "", fn.Dom.IDom[fn.Entry])
}

func TestEachBlockEndsInATerminator(t *testing.T) {
	prog := Build(diamondProgram())
	fn := prog.Functions["wain"]
	for _, lbl := range fn.Order {
		term := fn.Blocks[lbl].Terminator()
		assert.NotNil(t, term, "block %s has no terminator", lbl)
		assert.True(t, term.IsJump())
	}
}
