// Package diag implements the compiler's internal-invariant assertion
// mechanism. Unlike the teacher's internal/errors (source-position
// diagnostics for a well-formed-but-possibly-wrong program), this package
// only ever fires when the core's own preconditions are violated — a
// malformed or ill-typed input AST is a contract violation, not a
// reportable diagnostic (the core assumes well-typed input).
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// ViolationError wraps a failed internal assertion with a stack trace
// captured at the point of failure, via pkg/errors.
type ViolationError struct {
	cause error
}

func (v *ViolationError) Error() string { return v.cause.Error() }
func (v *ViolationError) Unwrap() error { return v.cause }

// Assert panics with a *ViolationError if cond is false. Call sites are
// internal invariants the rest of the compiler relies on always holding
// (well-typed input, structurally consistent IR) — never a user-facing
// diagnostic.
func Assert(cond bool, format string, args ...interface{}) {
	if cond {
		return
	}
	panic(&ViolationError{cause: errors.Errorf(format, args...)})
}

// Wrap annotates err with msg and a stack trace, or returns nil if err is
// nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// Recover turns a panicking *ViolationError into an error return,
// intended for deferred use at the driver's top level (spec §7 category
// 1/2: internal-compiler-error reporting). Panics that are not
// *ViolationError propagate unchanged, since those indicate a bug in the
// assertion mechanism itself rather than a checked contract violation.
func Recover(out *error) {
	r := recover()
	if r == nil {
		return
	}
	v, ok := r.(*ViolationError)
	if !ok {
		panic(r)
	}
	*out = fmt.Errorf("internal compiler error: %w", v)
}
