package ir

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Print writes a textual rendering of the program: one function per
// paragraph, one instruction per line, blocks separated by their label
// lines. The format round-trips through InstructionCount (the
// supplemented idempotence check reconstructs only counts, not a parser,
// since a full textual IR reader is out of core scope).
func Print(w io.Writer, p *Program) {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	for _, name := range p.Order {
		fn := p.Functions[name]
		fmt.Fprintf(bw, "fn %s(", fn.Name)
		for i, prm := range fn.Params {
			if i > 0 {
				fmt.Fprint(bw, ", ")
			}
			fmt.Fprintf(bw, "%s: %s", prm.Name, prm.Type)
		}
		fmt.Fprintf(bw, ") -> %s {\n", fn.ReturnType)
		for _, lbl := range fn.Order {
			b := fn.Blocks[lbl]
			for _, inst := range b.Insts {
				if _, ok := inst.(*Label); ok {
					fmt.Fprintf(bw, "%s:\n", lbl)
					continue
				}
				fmt.Fprintf(bw, "  %s\n", inst.String())
			}
		}
		fmt.Fprint(bw, "}\n\n")
	}
}

// String renders a program to a string, for tests and diagnostics.
func String(p *Program) string {
	var sb strings.Builder
	Print(&sb, p)
	return sb.String()
}
