package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssertPassesSilentlyWhenTrue(t *testing.T) {
	assert.NotPanics(t, func() {
		Assert(true, "unreachable")
	})
}

func TestAssertPanicsWithViolationErrorWhenFalse(t *testing.T) {
	defer func() {
		r := recover()
		require, ok := r.(*ViolationError)
		assert.True(t, ok, "panic value must be a *ViolationError")
		assert.Contains(t, require.Error(), "bad state: 3")
	}()
	Assert(false, "bad state: %d", 3)
	t.Fatal("Assert should have panicked")
}

func TestRecoverTranslatesViolationIntoError(t *testing.T) {
	var err error
	func() {
		defer Recover(&err)
		Assert(false, "boom")
	}()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "internal compiler error")
}

func TestRecoverRepanicsOnUnrelatedPanic(t *testing.T) {
	assert.Panics(t, func() {
		var err error
		defer Recover(&err)
		panic("not a violation")
	})
}

func TestWrapReturnsNilForNilError(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))
}

func TestWrapAddsContextToError(t *testing.T) {
	wrapped := Wrap(errors.New("root cause"), "while doing something")
	assert.Error(t, wrapped)
	assert.Contains(t, wrapped.Error(), "while doing something")
	assert.Contains(t, wrapped.Error(), "root cause")
}
