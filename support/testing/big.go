package testing

import (
	"fmt"
	"testing"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertBigEqual compares big integers by value. Equal values can differ in their
// internal representation (a zero from subtraction is not deeply equal to big.Zero()),
// so assert.Equal is not suitable for them.
func AssertBigEqual(t testing.TB, expected, actual big.Int, msgAndArgs ...interface{}) bool {
	t.Helper()
	if bigEqual(expected, actual) {
		return true
	}
	return assert.Fail(t, fmt.Sprintf("expected %v, actual %v", expected, actual), msgAndArgs...)
}

// RequireBigEqual is AssertBigEqual that stops the test on mismatch.
func RequireBigEqual(t testing.TB, expected, actual big.Int, msgAndArgs ...interface{}) {
	t.Helper()
	if !bigEqual(expected, actual) {
		require.Fail(t, fmt.Sprintf("expected %v, actual %v", expected, actual), msgAndArgs...)
	}
}

func bigEqual(a, b big.Int) bool {
	if a.Nil() || b.Nil() {
		return a.Nil() == b.Nil()
	}
	return a.Equals(b)
}
