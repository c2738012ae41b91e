package ir

import (
	"fmt"

	"github.com/fatih/color"
)

// Pass is one optimization transformation over the whole program,
// mirroring the teacher's OptimizationPass/OptimizationPipeline shape
// (Name/Apply/Description), generalized here to whole-program rather
// than per-function since several passes (dead-function elimination,
// unused-parameter removal, inlining) are inherently cross-function.
type Pass struct {
	Name        string
	Description string
	// Apply returns how many changes the pass made, 0 if none. The unit
	// differs by pass: instructions removed or rewritten, functions,
	// parameters or blocks removed, block pairs merged; to-ssa always
	// reports 0.
	Apply       func(*Program) int
}

// Driver composes the fixpoint loop from spec §4.4 and §2 step 6: the
// listed passes repeat until one iteration reports zero changes,
// then inlining is attempted and, if it changed anything, the fixpoint
// re-runs — matching "re-run the optimization driver after inlining".
type Driver struct {
	Verbose bool
	passes  []Pass
}

// NewDriver builds the default pass list in the order spec.md §6 lists:
// dead-function elimination, mem2reg, SSA (re)conversion for functions
// that are not yet in SSA form, global/local unused-assignment
// removal, local/global value numbering, trivial-phi contraction,
// unused-parameter removal, extended-block combination, unreachable-block
// removal.
func NewDriver() *Driver {
	d := &Driver{}
	d.passes = []Pass{
		{"dead-function-elimination", "removes functions unreachable from wain", func(p *Program) int {
			return DeadFunctionElimination(p)
		}},
		{"mem2reg", "promotes address-taken locals with a single known origin to registers", perFunction(MemToReg)},
		{"to-ssa", "rebuilds SSA form after structural edits", perFunctionNoCount(ToSSA)},
		{"global-unused-assignment", "removes pure instructions never used anywhere in the function", perFunction(GlobalUnusedAssignmentElimination)},
		{"local-unused-assignment", "removes locally-overwritten-before-read assignments", perFunction(LocalUnusedAssignmentElimination)},
		{"local-value-numbering", "collapses redundant computation within a block", perFunction(LocalValueNumbering)},
		{"global-value-numbering", "collapses redundant computation across the dominator tree", perFunction(GlobalValueNumbering)},
		{"trivial-phi-contraction", "turns single-valued phis into copies", perFunction(TrivialPhiContraction)},
		{"unused-parameter-elimination", "drops parameters never read, at every call site", func(p *Program) int {
			return UnusedParameterElimination(p)
		}},
		{"extended-block-combination", "merges single-successor/single-predecessor block pairs", perFunction(ExtendedBlockCombination)},
		{"unreachable-block-removal", "deletes blocks with no surviving predecessors", perFunction(UnreachableBlockRemoval)},
	}
	return d
}

func perFunction(f func(*Function) int) func(*Program) int {
	return func(p *Program) int {
		total := 0
		for _, name := range p.Order {
			total += f(p.Functions[name])
		}
		return total
	}
}

func perFunctionNoCount(f func(*Function) bool) func(*Program) int {
	return func(p *Program) int {
		for _, name := range p.Order {
			f(p.Functions[name])
		}
		return 0
	}
}

// Run drives the pass list to a fixpoint, then attempts inlining; if
// inlining changed anything, the fixpoint re-runs (spec §4.4). Returns
// the sum of the pass change counts (see Pass.Apply) across the whole
// run; inlined call sites are not included.
func (d *Driver) Run(p *Program) int {
	total := 0
	for {
		round := d.runFixpoint(p)
		total += round

		inlined := InlineFunctions(p)
		if d.Verbose {
			color.Cyan("  inlining: %d call sites inlined", inlined)
		}
		if inlined == 0 {
			break
		}
	}
	return total
}

func (d *Driver) runFixpoint(p *Program) int {
	total := 0
	for {
		roundRemoved := 0
		for _, pass := range d.passes {
			n := pass.Apply(p)
			roundRemoved += n
			if d.Verbose {
				if n > 0 {
					color.Green("  - %s: %s (removed %d)", pass.Name, pass.Description, n)
				} else {
					fmt.Printf("  - %s: no change\n", pass.Name)
				}
			}
		}
		total += roundRemoved
		if roundRemoved == 0 {
			return total
		}
	}
}
