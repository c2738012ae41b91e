package ir

// UnusedParameterElimination removes, in lock-step, any parameter never
// read in its function's body from the function's signature and from
// every call site's argument list. wain is exempt (spec §4.4: "wain is a
// root and exempt from parameter pruning").
func UnusedParameterElimination(p *Program) int {
	removed := 0
	for name, fn := range p.Functions {
		if name == "wain" {
			continue
		}
		used := map[string]bool{}
		for _, lbl := range fn.Order {
			for _, inst := range fn.Blocks[lbl].Insts {
				for _, a := range inst.Args() {
					used[a] = true
				}
			}
		}

		var keepIdx []int
		var newParams []Param
		for i, param := range fn.Params {
			if used[param.Name] {
				keepIdx = append(keepIdx, i)
				newParams = append(newParams, param)
			}
		}
		if len(newParams) == len(fn.Params) {
			continue
		}
		removed += len(fn.Params) - len(newParams)
		fn.Params = newParams

		for _, caller := range p.Functions {
			for _, lbl := range caller.Order {
				for _, inst := range caller.Blocks[lbl].Insts {
					c, ok := inst.(*Call)
					if !ok || c.Func != name {
						continue
					}
					var newArgs []string
					for _, i := range keepIdx {
						newArgs = append(newArgs, c.Arg[i])
					}
					c.Arg = newArgs
				}
			}
		}
	}
	return removed
}
