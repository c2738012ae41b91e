package fixture

import (
	"wlpc/internal/ast"
)

// buildProgram lowers the parsed fixture grammar into internal/ast. It
// performs no semantic checking (type resolution, scope checking) of its
// own: ResolvedType fields are filled in directly from the grammar's
// declared types, mirroring what the out-of-scope upstream checker would
// hand the core in a real pipeline.
func buildProgram(tree *sourceProgram) *ast.Program {
	prog := &ast.Program{}
	for _, p := range tree.Procedures {
		prog.Procedures = append(prog.Procedures, buildProcedure(p))
	}
	return prog
}

func buildProcedure(p *procedure) *ast.Procedure {
	proc := &ast.Procedure{Name: p.Name}

	scope := map[string]ast.Type{}
	for _, prm := range p.Params {
		t := buildType(prm.Type)
		scope[prm.Name] = t
		proc.Params = append(proc.Params, &ast.Param{Name: prm.Name, Type: t})
	}
	for _, d := range p.Decls {
		t := buildType(d.Type)
		scope[d.Name] = t
		proc.Decls = append(proc.Decls, &ast.Decl{
			Name:    d.Name,
			Type:    t,
			Literal: buildLiteralValue(d.Value),
		})
	}
	for _, s := range p.Stmts {
		proc.Stmts = append(proc.Stmts, buildStmt(s, scope))
	}
	proc.Return = buildExpr(p.Return, scope)
	return proc
}

func buildType(t typeName) ast.Type {
	if t.Star {
		return ast.IntStar
	}
	return ast.Int
}

func buildLiteralValue(l literal) int64 {
	if l.Null {
		return 1 // the NULL sentinel, as ir.Build lowers ast.NullLit
	}
	if l.Signed.Neg {
		return -l.Signed.Num
	}
	return l.Signed.Num
}

func buildStmt(s *stmt, scope map[string]ast.Type) ast.Stmt {
	switch {
	case s.If != nil:
		return buildIf(s.If, scope)
	case s.While != nil:
		return buildWhile(s.While, scope)
	case s.Println != nil:
		return &ast.PrintlnStmt{Value: buildExpr(s.Println.Value, scope)}
	case s.Delete != nil:
		return &ast.DeleteStmt{Value: buildExpr(s.Delete.Value, scope)}
	case s.Assign != nil:
		return buildAssign(s.Assign, scope)
	default:
		panic("fixture: empty stmt alternative")
	}
}

func buildAssign(a *assignStmt, scope map[string]ast.Type) *ast.AssignStmt {
	out := &ast.AssignStmt{Value: buildExpr(a.Value, scope)}
	if a.DerefTarget != nil {
		out.Deref = buildExpr(a.DerefTarget, scope)
	} else {
		out.Target = a.Target
	}
	return out
}

func buildIf(n *ifStmt, scope map[string]ast.Type) *ast.IfStmt {
	out := &ast.IfStmt{Cond: buildExpr(n.Cond, scope)}
	for _, s := range n.Then {
		out.Then = append(out.Then, buildStmt(s, scope))
	}
	for _, s := range n.Else {
		out.Else = append(out.Else, buildStmt(s, scope))
	}
	return out
}

func buildWhile(n *whileStmt, scope map[string]ast.Type) *ast.WhileStmt {
	out := &ast.WhileStmt{Cond: buildExpr(n.Cond, scope)}
	for _, s := range n.Body {
		out.Body = append(out.Body, buildStmt(s, scope))
	}
	return out
}

func buildExpr(e *expr, scope map[string]ast.Type) ast.Expr {
	left := buildAdditive(e.Left, scope)
	if e.Op == nil {
		return left
	}
	right := buildAdditive(e.Right, scope)
	return &ast.BinaryExpr{Op: binOp(*e.Op), Left: left, Right: right, Typ: ast.Int}
}

func buildAdditive(a *additive, scope map[string]ast.Type) ast.Expr {
	out := buildTerm(a.Left, scope)
	for _, r := range a.Rest {
		rhs := buildTerm(r.Right, scope)
		out = &ast.BinaryExpr{Op: binOp(r.Op), Left: out, Right: rhs, Typ: resultType(out, rhs, r.Op)}
	}
	return out
}

func buildTerm(t *term, scope map[string]ast.Type) ast.Expr {
	out := buildUnary(t.Left, scope)
	for _, r := range t.Rest {
		rhs := buildUnary(r.Right, scope)
		out = &ast.BinaryExpr{Op: binOp(r.Op), Left: out, Right: rhs, Typ: ast.Int}
	}
	return out
}

func buildUnary(u *unary, scope map[string]ast.Type) ast.Expr {
	switch {
	case u.AddressOf != nil:
		return &ast.AddressOfExpr{Var: u.AddressOf.Var, Typ: ast.IntStar}
	case u.Deref != nil:
		inner := buildUnary(u.Deref.Value, scope)
		return &ast.DerefExpr{Value: inner, Typ: ast.Int}
	case u.Atom != nil:
		return buildPrimary(u.Atom, scope)
	default:
		panic("fixture: empty unary alternative")
	}
}

func buildPrimary(p *primary, scope map[string]ast.Type) ast.Expr {
	switch {
	case p.Null:
		return &ast.NullLit{}
	case p.New != nil:
		return &ast.NewExpr{Size: buildExpr(p.New.Size, scope)}
	case p.Call != nil:
		var args []ast.Expr
		for _, a := range p.Call.Args {
			args = append(args, buildExpr(a, scope))
		}
		return &ast.CallExpr{Callee: p.Call.Callee, Args: args, Typ: ast.Int}
	case p.Num != nil:
		return &ast.IntLit{Value: *p.Num, Typ: ast.Int}
	case p.Ident != nil:
		return &ast.VarExpr{Name: *p.Ident, Typ: scope[*p.Ident]}
	case p.Paren != nil:
		return buildExpr(p.Paren, scope)
	default:
		panic("fixture: empty primary alternative")
	}
}

// resultType keeps pointer/integer arithmetic distinguishable for the IR
// builder's pointer-scaling rule (spec §3): ptr +/- int is a pointer,
// ptr - ptr is an int, everything else is int.
func resultType(left, right ast.Expr, op string) ast.Type {
	lp := left.ResolvedType() == ast.IntStar
	rp := right.ResolvedType() == ast.IntStar
	if op == "+" && (lp || rp) {
		return ast.IntStar
	}
	if op == "-" && lp && !rp {
		return ast.IntStar
	}
	return ast.Int
}

func binOp(op string) ast.BinOp {
	switch op {
	case "+":
		return ast.Add
	case "-":
		return ast.Sub
	case "*":
		return ast.Mul
	case "/":
		return ast.Div
	case "%":
		return ast.Mod
	case "<":
		return ast.Lt
	case "<=":
		return ast.Le
	case ">":
		return ast.Gt
	case ">=":
		return ast.Ge
	case "==":
		return ast.Eq
	case "!=":
		return ast.Ne
	default:
		panic("fixture: unknown operator " + op)
	}
}
