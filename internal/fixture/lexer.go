// Package fixture is a minimal textual frontend for the optimizer's test
// suite: a participle grammar and a builder from it into internal/ast,
// standing in for the out-of-scope lexer/parser/AST-builder (spec §1
// places the source-language frontend upstream of the core). It exists
// only to give package tests readable source text instead of constructing
// *ast.Program literals by hand.
package fixture

import "github.com/alecthomas/participle/v2/lexer"

var sourceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Integer", Pattern: `[0-9]+`},
	{Name: "Operator", Pattern: `(==|!=|<=|>=|&&|\|\||[-+*/%<>=&])`},
	{Name: "Punct", Pattern: `[(){}\[\];,]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})
