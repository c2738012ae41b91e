package ir

import (
	"fmt"

	"wlpc/internal/ast"
)

// Builder walks a typed AST and emits linear three-address IR per
// procedure (spec §4.1). It mirrors the teacher's Builder: a handful of
// createX/addInstruction/writeVariable/readVariable helpers threaded
// through a recursive expression-lowering walk.
type Builder struct {
	fn       *Function
	flat     []Instruction
	nextTemp int
	nextLbl  map[string]int
}

// NewBuilder creates a builder for a single procedure; Build creates one
// per procedure in the program.
func NewBuilder() *Builder {
	return &Builder{nextLbl: map[string]int{}}
}

// Build lowers a whole program, one procedure at a time.
func Build(prog *ast.Program) *Program {
	out := &Program{Functions: map[string]*Function{}}
	for _, proc := range prog.Procedures {
		b := NewBuilder()
		fn := b.buildProcedure(proc)
		out.Functions[fn.Name] = fn
		out.Order = append(out.Order, fn.Name)
	}
	return out
}

func convType(t ast.Type) Type {
	switch t {
	case ast.Int:
		return Int
	case ast.IntStar:
		return IntStar
	default:
		return Void
	}
}

func (b *Builder) freshTemp() string {
	name := fmt.Sprintf("%%t%d", b.nextTemp)
	b.nextTemp++
	return name
}

func (b *Builder) freshLabel(kind string) string {
	idx := b.nextLbl[kind]
	b.nextLbl[kind]++
	return fmt.Sprintf(".%s%d", kind, idx)
}

func (b *Builder) emit(i Instruction) { b.flat = append(b.flat, i) }

func (b *Builder) buildProcedure(proc *ast.Procedure) *Function {
	params := make([]Param, len(proc.Params))
	for i, p := range proc.Params {
		params[i] = Param{Name: p.Name, Type: convType(p.Type)}
	}
	b.fn = NewFunction(proc.Name, params, Int)
	b.flat = nil

	entryLbl := b.freshLabel("entry")
	b.emit(&Label{Name: entryLbl})

	for _, d := range proc.Decls {
		b.emit(&Const{D: d.Name, T: convType(d.Type), Imm: d.Literal})
	}

	for _, s := range proc.Stmts {
		b.buildStmt(s)
	}

	retVal, _ := b.buildExpr(proc.Return)
	b.emit(&Ret{Value: retVal})

	BuildCFG(b.fn, b.flat)
	return b.fn
}

func (b *Builder) buildStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.AssignStmt:
		b.buildAssign(st)
	case *ast.IfStmt:
		b.buildIf(st)
	case *ast.WhileStmt:
		b.buildWhile(st)
	case *ast.PrintlnStmt:
		v, _ := b.buildExpr(st.Value)
		b.emit(&Print{Value: v})
	case *ast.DeleteStmt:
		b.buildDelete(st)
	}
}

func (b *Builder) buildAssign(st *ast.AssignStmt) {
	val, _ := b.buildExpr(st.Value)
	if st.Deref != nil {
		ptr, _ := b.buildExpr(st.Deref)
		b.emit(&Store{Ptr: ptr, Value: val})
		return
	}
	b.emit(&ID{D: st.Target, T: typeOfExpr(st.Value), Src: val})
}

// buildDelete lowers `delete[] p;` guarded by a branch that skips the
// free call when p equals the NULL sentinel (spec §4.1).
func (b *Builder) buildDelete(st *ast.DeleteStmt) {
	ptr, _ := b.buildExpr(st.Value)
	isNull := b.freshTemp()
	b.emit(&Const{D: "%null_sentinel", T: IntStar, Imm: 1})
	b.emit(&Binary{D: isNull, T: Bool, Op: OpEq, Left: ptr, Right: "%null_sentinel"})
	freeLbl := b.freshLabel("free")
	endLbl := b.freshLabel("endfree")
	b.emit(&Br{Cond: isNull, Then: endLbl, Else: freeLbl})
	b.emit(&Label{Name: freeLbl})
	b.emit(&Free{Ptr: ptr})
	b.emit(&Jmp{Target: endLbl})
	b.emit(&Label{Name: endLbl})
}

func (b *Builder) buildIf(st *ast.IfStmt) {
	cond, _ := b.buildExpr(st.Cond)
	thenLbl, elseLbl, endLbl := b.freshLabel("then"), b.freshLabel("else"), b.freshLabel("endif")
	b.emit(&Br{Cond: cond, Then: thenLbl, Else: elseLbl})
	b.emit(&Label{Name: thenLbl})
	for _, s := range st.Then {
		b.buildStmt(s)
	}
	b.emit(&Jmp{Target: endLbl})
	b.emit(&Label{Name: elseLbl})
	for _, s := range st.Else {
		b.buildStmt(s)
	}
	b.emit(&Jmp{Target: endLbl})
	b.emit(&Label{Name: endLbl})
}

func (b *Builder) buildWhile(st *ast.WhileStmt) {
	headerLbl, bodyLbl, endLbl := b.freshLabel("whilehead"), b.freshLabel("whilebody"), b.freshLabel("endwhile")
	b.emit(&Jmp{Target: headerLbl})
	b.emit(&Label{Name: headerLbl})
	cond, _ := b.buildExpr(st.Cond)
	b.emit(&Br{Cond: cond, Then: bodyLbl, Else: endLbl})
	b.emit(&Label{Name: bodyLbl})
	for _, s := range st.Body {
		b.buildStmt(s)
	}
	b.emit(&Jmp{Target: headerLbl})
	b.emit(&Label{Name: endLbl})
}

// buildExpr lowers an expression in evaluation order, returning the name
// and type of the value it produced (spec §4.1).
func (b *Builder) buildExpr(e ast.Expr) (string, Type) {
	switch ex := e.(type) {
	case *ast.IntLit:
		d := b.freshTemp()
		b.emit(&Const{D: d, T: Int, Imm: ex.Value})
		return d, Int
	case *ast.NullLit:
		d := b.freshTemp()
		b.emit(&Const{D: d, T: IntStar, Imm: 1})
		return d, IntStar
	case *ast.VarExpr:
		d := b.freshTemp()
		b.emit(&ID{D: d, T: convType(ex.Typ), Src: ex.Name})
		return d, convType(ex.Typ)
	case *ast.BinaryExpr:
		return b.buildBinary(ex)
	case *ast.AddressOfExpr:
		d := b.freshTemp()
		b.emit(&AddressOf{D: d, Var: ex.Var})
		return d, IntStar
	case *ast.DerefExpr:
		ptr, _ := b.buildExpr(ex.Value)
		d := b.freshTemp()
		b.emit(&Load{D: d, Ptr: ptr})
		return d, Int
	case *ast.NewExpr:
		size, _ := b.buildExpr(ex.Size)
		d := b.freshTemp()
		b.emit(&Alloc{D: d, Size: size})
		return d, IntStar
	case *ast.CallExpr:
		return b.buildCall(ex)
	default:
		panic(fmt.Sprintf("ir: unhandled expression %T", e))
	}
}

func typeOfExpr(e ast.Expr) Type { return convType(e.ResolvedType()) }

// buildBinary implements the pointer-arithmetic reordering rules in spec
// §4.1: pointer+int, int+pointer (args reordered), pointer-int,
// pointer-pointer (divided by 4 downstream in codegen's ptrdiff lowering,
// spec §8 boundary behavior).
func (b *Builder) buildBinary(ex *ast.BinaryExpr) (string, Type) {
	lv, lt := b.buildExpr(ex.Left)
	rv, rt := b.buildExpr(ex.Right)

	if op, ok := cmpOp(ex.Op); ok {
		d := b.freshTemp()
		b.emit(&Binary{D: d, T: Bool, Op: op, Left: lv, Right: rv})
		return d, Bool
	}

	isAdd := ex.Op == ast.Add
	isSub := ex.Op == ast.Sub
	if (isAdd || isSub) && (lt == IntStar || rt == IntStar) {
		d := b.freshTemp()
		switch {
		case lt == IntStar && rt == IntStar:
			b.emit(&Binary{D: d, T: Int, Op: OpPtrDiff, Left: lv, Right: rv})
		case lt == IntStar && isAdd:
			b.emit(&Binary{D: d, T: IntStar, Op: OpPtrAdd, Left: lv, Right: rv})
		case rt == IntStar && isAdd:
			// int + pointer: reorder so pointer is first.
			b.emit(&Binary{D: d, T: IntStar, Op: OpPtrAdd, Left: rv, Right: lv})
		case lt == IntStar && isSub:
			b.emit(&Binary{D: d, T: IntStar, Op: OpPtrSub, Left: lv, Right: rv})
		default:
			panic("ir: invalid pointer subtraction operand order")
		}
		return d, convType(ex.Typ)
	}

	d := b.freshTemp()
	b.emit(&Binary{D: d, T: Int, Op: arithOp(ex.Op), Left: lv, Right: rv})
	return d, Int
}

func cmpOp(op ast.BinOp) (BinOp, bool) {
	switch op {
	case ast.Lt:
		return OpLt, true
	case ast.Le:
		return OpLe, true
	case ast.Gt:
		return OpGt, true
	case ast.Ge:
		return OpGe, true
	case ast.Eq:
		return OpEq, true
	case ast.Ne:
		return OpNe, true
	}
	return "", false
}

func arithOp(op ast.BinOp) BinOp {
	switch op {
	case ast.Add:
		return OpAdd
	case ast.Sub:
		return OpSub
	case ast.Mul:
		return OpMul
	case ast.Div:
		return OpDiv
	case ast.Mod:
		return OpMod
	}
	panic("ir: unhandled arithmetic operator")
}

func (b *Builder) buildCall(ex *ast.CallExpr) (string, Type) {
	args := make([]string, len(ex.Args))
	for i, a := range ex.Args {
		args[i], _ = b.buildExpr(a)
	}
	d := b.freshTemp()
	t := convType(ex.Typ)
	b.emit(&Call{D: d, T: t, Func: ex.Callee, Arg: args})
	return d, t
}
