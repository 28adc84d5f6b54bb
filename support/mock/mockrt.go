package mock

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"testing"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	rtt "github.com/filecoin-project/go-state-types/rt"
	cid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/linear-vesting/vesting-actors/actors/runtime"
)

// Runtime executes a single actor method against an in-memory store, with every
// observable side effect (caller checks, sends, events) checked against expectations
// registered by the test beforehand.
type Runtime struct {
	t   testing.TB
	ctx context.Context

	epoch      abi.ChainEpoch
	receiver   addr.Address
	caller     addr.Address
	callerType cid.Cid
	idAddrs    map[addr.Address]addr.Address
	codes      map[addr.Address]cid.Cid

	store map[cid.Cid][]byte
	head  cid.Cid

	inCall bool
	inTxn  bool
	logs   []string

	expect expectations
}

var _ runtime.Runtime = &Runtime{}

var stateCIDPrefix = cid.V1Builder{Codec: cid.DagCBOR, MhType: mh.SHA2_256}

type abort struct {
	code exitcode.ExitCode
	msg  string
}

func (a abort) String() string {
	return fmt.Sprintf("abort(%v): %s", a.code, a.msg)
}

func (rt *Runtime) CurrEpoch() abi.ChainEpoch {
	rt.requireInCall()
	return rt.epoch
}

func (rt *Runtime) Caller() addr.Address {
	return rt.caller
}

func (rt *Runtime) Receiver() addr.Address {
	return rt.receiver
}

func (rt *Runtime) ValidateImmediateCallerAcceptAny() {
	rt.requireInCall()
	if !rt.expect.callerAny {
		rt.failTest("ValidateImmediateCallerAcceptAny called without expectation")
	}
	rt.expect.callerAny = false
}

func (rt *Runtime) ValidateImmediateCallerIs(addrs ...addr.Address) {
	rt.requireInCall()
	rt.illegalIf(len(addrs) == 0, "no caller addresses to validate against")
	wanted := rt.expect.callerAddrs
	rt.expect.callerAddrs = nil
	if !reflect.DeepEqual(wanted, addrs) {
		rt.failTest("ValidateImmediateCallerIs(%v), expected %v", addrs, wanted)
	}
	for _, a := range addrs {
		if a == rt.caller {
			return
		}
	}
	rt.Abortf(exitcode.SysErrForbidden, "caller %v is not one of %v", rt.caller, addrs)
}

func (rt *Runtime) ValidateImmediateCallerType(types ...cid.Cid) {
	rt.requireInCall()
	rt.illegalIf(len(types) == 0, "no caller types to validate against")
	wanted := rt.expect.callerTypes
	rt.expect.callerTypes = nil
	if !reflect.DeepEqual(wanted, types) {
		rt.failTest("ValidateImmediateCallerType(%v), expected %v", types, wanted)
	}
	for _, c := range types {
		if rt.callerType.Equals(c) {
			return
		}
	}
	rt.Abortf(exitcode.SysErrForbidden, "caller type %v is not one of %v", rt.callerType, types)
}

func (rt *Runtime) ResolveAddress(a addr.Address) (addr.Address, bool) {
	rt.requireInCall()
	if a.Protocol() == addr.ID {
		return a, true
	}
	id, ok := rt.idAddrs[a]
	return id, ok
}

func (rt *Runtime) GetActorCodeCID(a addr.Address) (cid.Cid, bool) {
	rt.requireInCall()
	if id, ok := rt.idAddrs[a]; ok {
		a = id
	}
	code, ok := rt.codes[a]
	return code, ok
}

func (rt *Runtime) Send(to addr.Address, method abi.MethodNum, params cbor.Marshaler, out cbor.Er) exitcode.ExitCode {
	rt.requireInCall()
	if rt.inTxn {
		rt.Abortf(exitcode.SysErrorIllegalActor, "send to %v inside state transaction", to)
	}
	next := rt.expect.popSend()
	if next == nil {
		rt.failTestNow("unexpected send to %v method %d params %v", to, method, params)
	}
	if !next.matches(to, method, params) {
		rt.failTest("send mismatch\n  got:  to %v method %d params %v\n  want: %v", to, method, params, next)
	}
	if next.exitCode.IsSuccess() && next.ret != nil && out != nil {
		rt.roundTrip(next.ret, out)
	}
	return next.exitCode
}

func (rt *Runtime) Abortf(code exitcode.ExitCode, msg string, args ...interface{}) {
	rt.requireInCall()
	reason := fmt.Sprintf(msg, args...)
	rt.t.Logf("abort %v: %s", code, reason)
	panic(abort{code, reason})
}

func (rt *Runtime) EmitEvent(ev runtime.Event) {
	rt.requireInCall()
	want := rt.expect.popEvent()
	if want == nil {
		rt.failTestNow("unexpected event %s %v", ev.EventName(), ev)
	}
	if want.EventName() != ev.EventName() || !encodedEqual(want, ev) {
		rt.failTest("event mismatch\n  got:  %s %v\n  want: %s %v", ev.EventName(), ev, want.EventName(), want)
	}
}

// Context, StoreGet and StorePut are usable outside a method call so tests can
// load and inspect state collections directly.
func (rt *Runtime) Context() context.Context {
	return rt.ctx
}

func (rt *Runtime) Log(level rtt.LogLevel, msg string, args ...interface{}) {
	line := fmt.Sprintf(msg, args...)
	rt.logs = append(rt.logs, line)
	rt.t.Logf("[%d] %s", level, line)
}

func (rt *Runtime) StoreGet(c cid.Cid, o cbor.Unmarshaler) bool {
	data, ok := rt.store[c]
	if !ok {
		return false
	}
	if err := o.UnmarshalCBOR(bytes.NewReader(data)); err != nil {
		rt.Abortf(exitcode.ErrSerialization, "decoding %v: %s", c, err)
	}
	return true
}

func (rt *Runtime) StorePut(o cbor.Marshaler) cid.Cid {
	var buf bytes.Buffer
	if err := o.MarshalCBOR(&buf); err != nil {
		rt.Abortf(exitcode.ErrSerialization, "encoding %T: %s", o, err)
	}
	c, err := stateCIDPrefix.Sum(buf.Bytes())
	if err != nil {
		rt.Abortf(exitcode.ErrSerialization, "hashing %T: %s", o, err)
	}
	rt.store[c] = buf.Bytes()
	return c
}

func (rt *Runtime) StateCreate(obj cbor.Marshaler) {
	if rt.head.Defined() {
		rt.Abortf(exitcode.SysErrorIllegalActor, "state already created at %v", rt.head)
	}
	rt.head = rt.StorePut(obj)
}

func (rt *Runtime) StateReadonly(obj cbor.Unmarshaler) {
	if !rt.StoreGet(rt.head, obj) {
		rt.Abortf(exitcode.SysErrorIllegalArgument, "no state at %v", rt.head)
	}
}

func (rt *Runtime) StateTransaction(obj cbor.Er, f func()) {
	if rt.inTxn {
		rt.Abortf(exitcode.SysErrorIllegalActor, "state transaction already open")
	}
	rt.StateReadonly(obj)
	rt.inTxn = true
	defer func() { rt.inTxn = false }()
	f()
	rt.head = rt.StorePut(obj)
}

func (rt *Runtime) roundTrip(from cbor.Marshaler, into cbor.Unmarshaler) {
	var buf bytes.Buffer
	if err := from.MarshalCBOR(&buf); err != nil {
		rt.failTestNow("encoding send return %v: %v", from, err)
	}
	if err := into.UnmarshalCBOR(&buf); err != nil {
		rt.failTestNow("decoding send return into %T: %v", into, err)
	}
}

func (rt *Runtime) illegalIf(cond bool, msg string) {
	if cond {
		rt.Abortf(exitcode.SysErrorIllegalArgument, msg)
	}
}

//
// Test-side accessors and setters.
//

func (rt *Runtime) StateRoot() cid.Cid {
	return rt.head
}

// GetState decodes the current actor state into o, failing the test if it cannot.
func (rt *Runtime) GetState(o cbor.Unmarshaler) {
	data, ok := rt.store[rt.head]
	if !ok {
		rt.failTestNow("no state at %v", rt.head)
	}
	if err := o.UnmarshalCBOR(bytes.NewReader(data)); err != nil {
		rt.failTestNow("decoding state into %T: %v", o, err)
	}
}

func (rt *Runtime) GetEpoch() abi.ChainEpoch {
	return rt.epoch
}

// Logs returns the lines logged by actor code since the last Verify.
func (rt *Runtime) Logs() []string {
	return rt.logs
}

func (rt *Runtime) SetCaller(a addr.Address, code cid.Cid) {
	rt.caller = a
	rt.callerType = code
	rt.codes[a] = code
}

func (rt *Runtime) SetEpoch(e abi.ChainEpoch) {
	rt.epoch = e
}

// AddIDAddress makes src resolvable to the ID address id.
func (rt *Runtime) AddIDAddress(src, id addr.Address) {
	rt.require(id.Protocol() == addr.ID, "%v is not an ID address", id)
	rt.idAddrs[src] = id
}
