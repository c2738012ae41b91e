package ir

// originKind classifies a pointer value's possible origin (spec §4.4
// "may-alias analysis").
type originKind int

const (
	originAddressOf originKind = iota
	originAllocation
	originParameter
	originRaw
)

type origin struct {
	kind originKind
	// AddressOf: key is the named variable.
	// Allocation: key is "<label>#<index>" of the defining alloc/call.
	// Parameter: key is the parameter index as a string.
	// Raw: key is the constant value as a string.
	key string
}

type originSet map[origin]bool

func unionOrigins(sets ...originSet) originSet {
	out := originSet{}
	for _, s := range sets {
		for o := range s {
			out[o] = true
		}
	}
	return out
}

func singleAddressOf(s originSet) (string, bool) {
	if len(s) != 1 {
		return "", false
	}
	for o := range s {
		if o.kind == originAddressOf {
			return o.key, true
		}
	}
	return "", false
}

// MemToReg promotes loads/stores whose pointer provably originates from a
// single address-of'd local variable to direct `id` reads/writes of that
// variable, via the forward may-alias dataflow of spec §4.4. Runs before
// SSA (re)conversion so that the promoted variable becomes eligible for
// SSA renaming.
func MemToReg(fn *Function) int {
	fn.EnsureFresh()

	origins := map[string]originSet{}
	for i, p := range fn.Params {
		origins[p.Name] = originSet{{originParameter, itoa(i)}: true}
	}

	changed := true
	for changed {
		changed = false
		for _, lbl := range fn.Order {
			b := fn.Blocks[lbl]
			for idx, inst := range b.Insts {
				d, hasDest := inst.Dest()
				if !hasDest {
					continue
				}
				var next originSet
				switch v := inst.(type) {
				case *Const:
					next = originSet{{originRaw, itoa64(v.Imm)}: true}
				case *Call:
					next = originSet{{originAllocation, lbl + "#" + itoa(idx)}: true}
				case *Alloc:
					next = originSet{{originAllocation, lbl + "#" + itoa(idx)}: true}
				case *ID:
					next = origins[v.Src]
				case *Binary:
					if v.Op == OpPtrAdd || v.Op == OpPtrSub {
						next = origins[v.Left]
					} else {
						next = originSet{}
					}
				case *AddressOf:
					next = originSet{{originAddressOf, v.Var}: true}
				case *Phi:
					sets := make([]originSet, 0, len(v.Vals))
					for _, a := range v.Vals {
						sets = append(sets, origins[a])
					}
					next = unionOrigins(sets...)
				default:
					next = originSet{}
				}
				if !originSetEqual(origins[d], next) {
					origins[d] = next
					changed = true
				}
			}
		}
	}

	removed := 0
	for _, lbl := range fn.Order {
		b := fn.Blocks[lbl]
		for i, inst := range b.Insts {
			switch v := inst.(type) {
			case *Load:
				if target, ok := singleAddressOf(origins[v.Ptr]); ok {
					b.Insts[i] = &ID{D: v.D, T: Int, Src: target}
					removed++
				}
			case *Store:
				if target, ok := singleAddressOf(origins[v.Ptr]); ok {
					b.Insts[i] = &ID{D: target, T: Int, Src: v.Value}
					removed++
				}
			}
		}
	}
	if removed > 0 {
		fn.MarkDirty()
	}
	return removed
}

func originSetEqual(a, b originSet) bool {
	if len(a) != len(b) {
		return false
	}
	for o := range a {
		if !b[o] {
			return false
		}
	}
	return true
}

func itoa64(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	if n == 0 {
		return "0"
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte('0' + n%10)}, buf...)
		n /= 10
	}
	if neg {
		buf = append([]byte{'-'}, buf...)
	}
	return string(buf)
}
