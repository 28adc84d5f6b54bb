package vm

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linear-vesting/vesting-actors/actors/runtime"
)

// Applies a message and requires it to succeed, returning its result.
func ApplyOk(t testing.TB, v *VM, from, to address.Address, method abi.MethodNum, params cbor.Marshaler) MessageResult {
	return ApplyCode(t, v, from, to, method, params, exitcode.Ok)
}

// Applies a message and requires it to exit with the given code, returning its result.
func ApplyCode(t testing.TB, v *VM, from, to address.Address, method abi.MethodNum, params cbor.Marshaler, code exitcode.ExitCode) MessageResult {
	result := v.ApplyMessage(from, to, method, params)
	require.Equal(t, code, result.Code, "unexpected exit code applying method %d to %v: %v", method, to, v.Logs())
	return result
}

// Requires the committed state of the VM to satisfy all actor and cross-actor invariants.
func AssertInvariants(t testing.TB, v *VM) {
	msgs, err := v.CheckStateInvariants()
	require.NoError(t, err)
	assert.True(t, msgs.IsEmpty(), msgs.Messages())
}

// AssertEvent checks the emitter and name of an emitted event, and compares its
// fields through their CBOR encoding.
func AssertEvent(t testing.TB, emitter address.Address, expected runtime.Event, actual EmittedEvent) {
	t.Helper()
	assert.Equal(t, emitter, actual.Emitter, "emitter of %s", expected.EventName())
	if assert.Equal(t, expected.EventName(), actual.Event.EventName()) {
		assert.True(t, ExpectObject(expected).matches(actual.Event), "event %v, want %v", actual.Event, expected)
	}
}

// ExpectObject wraps an expected params or return value. Values match when their
// CBOR encodings are identical.
func ExpectObject(v cbor.Marshaler) *objectExpectation {
	return &objectExpectation{v}
}

// ExpectAddress returns a pointer suitable for ExpectInvocation.From.
func ExpectAddress(a address.Address) *address.Address { return &a }

type objectExpectation struct {
	val cbor.Marshaler
}

func (oe objectExpectation) matches(obj interface{}) bool {
	got, _ := obj.(cbor.Marshaler)
	if oe.val == nil || got == nil {
		return oe.val == nil && obj == nil
	}
	var want, have bytes.Buffer
	if oe.val.MarshalCBOR(&want) != nil || got.MarshalCBOR(&have) != nil {
		return false
	}
	return bytes.Equal(want.Bytes(), have.Bytes())
}

// ExpectInvocation describes a recorded invocation tree. To, Method and Exitcode
// always have to match; nil optional fields are not checked, and a nil
// SubInvocations slice skips the nested calls entirely.
type ExpectInvocation struct {
	To       address.Address
	Method   abi.MethodNum
	Exitcode exitcode.ExitCode

	From           *address.Address
	Params         *objectExpectation
	Ret            *objectExpectation
	SubInvocations []ExpectInvocation
}

func (ei ExpectInvocation) Matches(t testing.TB, inv *Invocation) {
	ei.matchAt(t, "", inv)
}

func (ei ExpectInvocation) matchAt(t testing.TB, path string, inv *Invocation) {
	here := fmt.Sprintf("%s[%s:%d]", path, inv.Msg.to, inv.Msg.method)

	// A different target means the call tree diverged; nothing below is comparable.
	require.Equal(t, ei.To, inv.Msg.to, "%s: receiver", here)
	require.Equal(t, ei.Method, inv.Msg.method, "%s: method", here)

	if ei.From != nil {
		assert.Equal(t, *ei.From, inv.Msg.from, "%s: sender", here)
	}
	if ei.Params != nil {
		assert.True(t, ei.Params.matches(inv.Msg.params), "%s: params %v, want %v", here, inv.Msg.params, ei.Params.val)
	}
	if ei.SubInvocations != nil {
		require.Len(t, inv.SubInvocations, len(ei.SubInvocations), "%s: number of nested calls", here)
		for i, sub := range inv.SubInvocations {
			ei.SubInvocations[i].matchAt(t, fmt.Sprintf("%s%d:", here, i), sub)
		}
	}

	assert.Equal(t, ei.Exitcode, inv.Exitcode, "%s: exit code", here)
	if ei.Ret != nil {
		assert.True(t, ei.Ret.matches(inv.Ret), "%s: return %v, want %v", here, inv.Ret, ei.Ret.val)
	}
}
