package fixture

import (
	"github.com/alecthomas/participle/v2"

	"wlpc/internal/ast"
)

var sourceParser = participle.MustBuild[sourceProgram](
	participle.Lexer(sourceLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)

// Parse turns source text into an *ast.Program, driving the fixture
// grammar then lowering its tree into the shape internal/ir.Build
// expects.
func Parse(name, src string) (*ast.Program, error) {
	tree, err := sourceParser.ParseString(name, src)
	if err != nil {
		return nil, err
	}
	return buildProgram(tree), nil
}

// MustParse is Parse for callers that already know the fixture text is
// well formed (test tables).
func MustParse(name, src string) *ast.Program {
	prog, err := Parse(name, src)
	if err != nil {
		panic(err)
	}
	return prog
}
