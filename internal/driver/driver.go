// Package driver wires the whole pipeline together: AST lowering, CFG and
// dominator construction, SSA conversion, the optimization fixpoint,
// exit from SSA, register allocation, and target-code emission (spec §2),
// the way the teacher's cmd/kanso-cli glue drives its own frontend→IR
// pipeline, generalized into a reusable package so cmd/wlpc stays thin.
package driver

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/segmentio/ksuid"

	"wlpc/internal/ast"
	"wlpc/internal/codegen"
	"wlpc/internal/config"
	"wlpc/internal/diag"
	"wlpc/internal/ir"
)

// Options configures one compilation run.
type Options struct {
	Config  config.Config
	Verbose bool
}

// Result carries the emitted assembly plus a build identifier, useful for
// embedding in generated comments or logs.
type Result struct {
	BuildID  string
	Assembly *codegen.Program
}

// Compile runs the full pipeline over prog and returns the emitted
// assembly. Internal contract violations are recovered and returned as an
// error (spec §7 category 1/2); there are no other error returns.
func Compile(prog *ast.Program, opts Options) (result *Result, err error) {
	defer diag.Recover(&err)

	if opts.Config.Verbose {
		opts.Verbose = true
	}
	buildID := ksuid.New().String()
	if opts.Verbose {
		color.Cyan("wlpc build %s", buildID)
	}

	ir.SetInlineThresholds(opts.Config.InlineMaxInstructions, opts.Config.InlineMaxBlocks)

	program := ir.Build(prog)
	logStage(opts, "lowered AST to IR (%d function(s))", len(program.Order))

	for _, name := range program.Order {
		fn := program.Functions[name]
		if ir.ToSSA(fn) {
			logStage(opts, "%s: converted to SSA", name)
		}
	}

	d := ir.NewDriver()
	d.Verbose = opts.Verbose
	changes := d.Run(program)
	logStage(opts, "optimization driver made %d change(s)", changes)

	for _, name := range program.Order {
		fn := program.Functions[name]
		ir.FromSSA(fn)
	}
	logStage(opts, "exited SSA form")

	asm := codegen.EmitProgram(program, opts.Config.Registers)
	logStage(opts, "emitted %d assembly instruction(s)", asm.NumAssemblyInstructions())

	return &Result{BuildID: buildID, Assembly: asm}, nil
}

// CompileDefault runs Compile with the reference configuration.
func CompileDefault(prog *ast.Program) (*Result, error) {
	return Compile(prog, Options{Config: config.Default()})
}

func logStage(opts Options, format string, args ...interface{}) {
	if !opts.Verbose {
		return
	}
	color.Green(format, args...)
}

// WriteAssembly writes the result's assembly text to w.
func WriteAssembly(w io.Writer, r *Result) error {
	_, err := fmt.Fprint(w, r.Assembly.String())
	return err
}
