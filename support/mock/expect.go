package mock

import (
	"fmt"
	"strings"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	cid "github.com/ipfs/go-cid"

	"github.com/linear-vesting/vesting-actors/actors/runtime"
)

// expectations are consumed as the actor method runs; anything left over at Verify
// fails the test.
type expectations struct {
	callerAny   bool
	callerAddrs []addr.Address
	callerTypes []cid.Cid
	sends       []*expectedSend
	events      []runtime.Event
	logLines    []string
}

type expectedSend struct {
	to       addr.Address
	method   abi.MethodNum
	params   cbor.Marshaler
	ret      cbor.Marshaler
	exitCode exitcode.ExitCode
}

func (s *expectedSend) matches(to addr.Address, method abi.MethodNum, params cbor.Marshaler) bool {
	return s.to == to && s.method == method && encodedEqual(s.params, params)
}

func (s *expectedSend) String() string {
	return fmt.Sprintf("to %v method %d params %v (returns %v, exit %v)", s.to, s.method, s.params, s.ret, s.exitCode)
}

func (e *expectations) popSend() *expectedSend {
	if len(e.sends) == 0 {
		return nil
	}
	s := e.sends[0]
	e.sends = e.sends[1:]
	return s
}

func (e *expectations) popEvent() runtime.Event {
	if len(e.events) == 0 {
		return nil
	}
	ev := e.events[0]
	e.events = e.events[1:]
	return ev
}

// outstanding describes every expectation that was registered but never met.
func (e *expectations) outstanding(logs []string) []string {
	var missing []string
	if e.callerAny {
		missing = append(missing, "ValidateImmediateCallerAcceptAny")
	}
	if len(e.callerAddrs) > 0 {
		missing = append(missing, fmt.Sprintf("ValidateImmediateCallerIs%v", e.callerAddrs))
	}
	if len(e.callerTypes) > 0 {
		missing = append(missing, fmt.Sprintf("ValidateImmediateCallerType%v", e.callerTypes))
	}
	for _, s := range e.sends {
		missing = append(missing, "send "+s.String())
	}
	for _, ev := range e.events {
		missing = append(missing, fmt.Sprintf("event %s %v", ev.EventName(), ev))
	}
	for _, substr := range e.logLines {
		if !anyContains(logs, substr) {
			missing = append(missing, fmt.Sprintf("log line containing %q", substr))
		}
	}
	return missing
}

func anyContains(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func (rt *Runtime) ExpectValidateCallerAny() {
	rt.expect.callerAny = true
}

func (rt *Runtime) ExpectValidateCallerAddr(addrs ...addr.Address) {
	rt.require(len(addrs) > 0, "ExpectValidateCallerAddr needs at least one address")
	rt.expect.callerAddrs = addrs
}

func (rt *Runtime) ExpectValidateCallerType(types ...cid.Cid) {
	rt.require(len(types) > 0, "ExpectValidateCallerType needs at least one code CID")
	rt.expect.callerTypes = types
}

// ExpectSend queues a send the actor must make next. When exitCode is success, ret
// is decoded into the actor's return value.
func (rt *Runtime) ExpectSend(to addr.Address, method abi.MethodNum, params cbor.Marshaler, ret cbor.Marshaler, exitCode exitcode.ExitCode) {
	rt.expect.sends = append(rt.expect.sends, &expectedSend{
		to:       to,
		method:   method,
		params:   params,
		ret:      ret,
		exitCode: exitCode,
	})
}

// ExpectEmitted queues events the actor must emit, in order.
func (rt *Runtime) ExpectEmitted(events ...runtime.Event) {
	rt.expect.events = append(rt.expect.events, events...)
}

func (rt *Runtime) ExpectLogsContain(substr string) {
	rt.expect.logLines = append(rt.expect.logLines, substr)
}

// Verify fails the test for every unmet expectation, then clears expectations and logs.
func (rt *Runtime) Verify() {
	for _, m := range rt.expect.outstanding(rt.logs) {
		rt.failTest("expected %s, never happened", m)
	}
	rt.expect = expectations{}
	rt.logs = nil
}

// ExpectAbort runs f, which must abort with the given code. State changes made by f
// are discarded.
func (rt *Runtime) ExpectAbort(code exitcode.ExitCode, f func()) {
	rt.ExpectAbortContainsMessage(code, "", f)
}

// ExpectAbortContainsMessage is ExpectAbort that also requires the abort message to
// contain substr.
func (rt *Runtime) ExpectAbortContainsMessage(code exitcode.ExitCode, substr string, f func()) {
	head := rt.head
	defer func() {
		r := recover()
		if r == nil {
			rt.failTest("expected abort %v, method returned normally", code)
			return
		}
		a, ok := r.(abort)
		if !ok {
			panic(r)
		}
		if a.code != code {
			rt.failTest("expected abort %v, got %v: %s", code, a.code, a.msg)
		}
		if !strings.Contains(a.msg, substr) {
			rt.failTest("abort message %q does not contain %q", a.msg, substr)
		}
		rt.head = head
		rt.inTxn = false
	}()
	f()
}
