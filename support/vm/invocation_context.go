package vm

import (
	"bytes"
	"context"
	"fmt"
	"reflect"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	rtt "github.com/filecoin-project/go-state-types/rt"
	"github.com/ipfs/go-cid"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/runtime"
	"github.com/linear-vesting/vesting-actors/actors/states"
)

// Context for a top-level invocation sequence.
type topLevelContext struct {
	message cid.Cid        // identifies the top-level message in logs
	events  []EmittedEvent // events emitted by invocations that have not been rolled back
}

// Context for an individual message invocation, including inter-actor sends.
type invocationContext struct {
	vm               *VM
	topLevel         *topLevelContext
	msg              internalMessage // The message being processed
	fromActor        *states.Actor   // The immediate calling actor
	toActor          *states.Actor   // The receiving actor
	callerValidated  bool
	allowSideEffects bool
	invocation       Invocation
}

// A record of a message and its outcome, including the invocations it made in turn.
type Invocation struct {
	Msg            internalMessage
	Exitcode       exitcode.ExitCode
	Ret            cbor.Marshaler
	SubInvocations []*Invocation
}

func newInvocationContext(vm *VM, topLevel *topLevelContext, msg internalMessage, fromActor *states.Actor) invocationContext {
	return invocationContext{
		vm:               vm,
		topLevel:         topLevel,
		msg:              msg,
		fromActor:        fromActor,
		callerValidated:  false,
		allowSideEffects: true,
		invocation:       Invocation{Msg: msg},
	}
}

var _ runtime.Runtime = (*invocationContext)(nil)

// Wraps a return value so that a nil return is distinguishable from a missing one.
type returnWrapper struct {
	inner cbor.Marshaler
}

func (ic *invocationContext) invoke() (ret returnWrapper, errcode exitcode.ExitCode) {
	// Checkpoint so that a failed callee leaves no writes behind and the caller may continue.
	priorRoot, err := ic.vm.checkpoint()
	if err != nil {
		panic(err)
	}
	eventMark := len(ic.topLevel.events)

	// Catch aborts and roll back the callee's state changes and events.
	defer func() {
		if r := recover(); r != nil {
			a, ok := r.(abort)
			if !ok {
				panic(r)
			}
			if err := ic.vm.rollback(priorRoot); err != nil {
				panic(err)
			}
			ic.topLevel.events = ic.topLevel.events[:eventMark]
			ic.vm.logf(rtt.DEBUG, ic.topLevel.message, "%v aborted %d: %s", ic.msg.to, a.code, a.msg)
			ret = returnWrapper{}
			errcode = a.code
		}
		ic.invocation.Exitcode = errcode
		ic.invocation.Ret = ret.inner
	}()

	// resolve the receiver
	toIDAddr, found := ic.vm.normalizeAddress(ic.msg.to)
	if !found {
		ic.Abortf(exitcode.SysErrInvalidReceiver, "cannot resolve receiver %v", ic.msg.to)
	}
	ic.msg.to = toIDAddr
	ic.invocation.Msg.to = toIDAddr

	toActor, found, err := ic.vm.tree.GetActor(toIDAddr)
	if err != nil {
		panic(err)
	}
	if !found {
		ic.Abortf(exitcode.SysErrInvalidReceiver, "no actor at %v", toIDAddr)
	}
	ic.toActor = toActor

	// a plain send carries no value in this system and runs no code
	if ic.msg.method == builtin.MethodSend {
		return returnWrapper{}, exitcode.Ok
	}

	actorImpl := ic.vm.getActorImpl(toActor.Code)
	out := ic.dispatch(actorImpl, ic.msg.method, ic.msg.params)
	if !ic.callerValidated {
		ic.Abortf(exitcode.SysErrorIllegalActor, "caller MUST be validated during method execution")
	}
	return returnWrapper{out}, exitcode.Ok
}

func (ic *invocationContext) dispatch(actor runtime.VMActor, method abi.MethodNum, arg interface{}) cbor.Marshaler {
	exports := actor.Exports()
	if uint64(method) >= uint64(len(exports)) || exports[method] == nil {
		ic.Abortf(exitcode.SysErrInvalidMethod, "actor %v has no method %d", ic.msg.to, method)
	}
	meth := reflect.ValueOf(exports[method])
	paramType := meth.Type().In(1)

	// Round-trip params through their encoding, as if received over the wire.
	param := reflect.New(paramType.Elem())
	if arg != nil {
		marshaler, ok := arg.(cbor.Marshaler)
		if !ok {
			ic.Abortf(exitcode.ErrSerialization, "params %T are not serializable", arg)
		}
		var buf bytes.Buffer
		if err := marshaler.MarshalCBOR(&buf); err != nil {
			ic.Abortf(exitcode.ErrSerialization, "failed to serialize params: %s", err)
		}
		if buf.Len() > 0 {
			unmarshaler, ok := param.Interface().(cbor.Unmarshaler)
			if !ok {
				ic.Abortf(exitcode.SysErrorIllegalArgument, "method %d params %v are not deserializable", method, paramType)
			}
			if err := unmarshaler.UnmarshalCBOR(&buf); err != nil {
				ic.Abortf(exitcode.ErrSerialization, "failed to deserialize params into %v: %s", paramType, err)
			}
		}
	}

	ret := meth.Call([]reflect.Value{reflect.ValueOf(ic), param})
	if ret[0].IsNil() {
		return nil
	}
	return ret[0].Interface().(cbor.Marshaler)
}

///// Runtime implementation /////

func (ic *invocationContext) CurrEpoch() abi.ChainEpoch {
	return ic.vm.currentEpoch
}

func (ic *invocationContext) ValidateImmediateCallerAcceptAny() {
	ic.assertf(!ic.callerValidated, "caller has been double validated")
	ic.callerValidated = true
}

func (ic *invocationContext) ValidateImmediateCallerIs(addrs ...address.Address) {
	ic.assertf(!ic.callerValidated, "caller has been double validated")
	ic.callerValidated = true
	for _, a := range addrs {
		if ic.msg.from == a {
			return
		}
	}
	ic.Abortf(exitcode.SysErrForbidden, "caller address %v forbidden, allowed: %v", ic.msg.from, addrs)
}

func (ic *invocationContext) ValidateImmediateCallerType(types ...cid.Cid) {
	ic.assertf(!ic.callerValidated, "caller has been double validated")
	ic.callerValidated = true
	for _, t := range types {
		if t.Equals(ic.fromActor.Code) {
			return
		}
	}
	ic.Abortf(exitcode.SysErrForbidden, "caller type %v forbidden, allowed: %v", builtin.ActorNameByCode(ic.fromActor.Code), types)
}

func (ic *invocationContext) ResolveAddress(a address.Address) (address.Address, bool) {
	if a == address.Undef {
		return address.Undef, false
	}
	return ic.vm.normalizeAddress(a)
}

func (ic *invocationContext) GetActorCodeCID(a address.Address) (cid.Cid, bool) {
	idAddr, found := ic.vm.normalizeAddress(a)
	if !found {
		return cid.Undef, false
	}
	actor, found, err := ic.vm.tree.GetActor(idAddr)
	if err != nil {
		panic(err)
	}
	if !found {
		return cid.Undef, false
	}
	return actor.Code, true
}

func (ic *invocationContext) Send(toAddr address.Address, methodNum abi.MethodNum, params cbor.Marshaler, out cbor.Er) exitcode.ExitCode {
	if !ic.allowSideEffects {
		ic.Abortf(exitcode.SysErrorIllegalActor, "Calling Send() is not allowed during side-effect lock")
	}

	newMsg := internalMessage{
		from:   ic.msg.to,
		to:     toAddr,
		method: methodNum,
		params: params,
	}
	newCtx := newInvocationContext(ic.vm, ic.topLevel, newMsg, ic.toActor)
	ret, code := newCtx.invoke()
	ic.invocation.SubInvocations = append(ic.invocation.SubInvocations, &newCtx.invocation)

	// Reload this actor, which a re-entrant callee may have written.
	toActor, found, err := ic.vm.tree.GetActor(ic.msg.to)
	if err != nil {
		panic(err)
	}
	if !found {
		ic.Abortf(exitcode.SysErrorIllegalActor, "actor %v deleted during send", ic.msg.to)
	}
	ic.toActor = toActor

	if code.IsSuccess() && out != nil && ret.inner != nil {
		var buf bytes.Buffer
		if err := ret.inner.MarshalCBOR(&buf); err != nil {
			ic.Abortf(exitcode.ErrSerialization, "failed to serialize send return: %s", err)
		}
		if err := out.UnmarshalCBOR(&buf); err != nil {
			ic.Abortf(exitcode.ErrSerialization, "failed to deserialize send return into %T: %s", out, err)
		}
	}
	return code
}

func (ic *invocationContext) Abortf(errExitCode exitcode.ExitCode, msg string, args ...interface{}) {
	ic.vm.Abortf(errExitCode, msg, args...)
}

func (ic *invocationContext) EmitEvent(event runtime.Event) {
	if !ic.allowSideEffects {
		ic.Abortf(exitcode.SysErrorIllegalActor, "Calling EmitEvent() is not allowed during side-effect lock")
	}
	ic.topLevel.events = append(ic.topLevel.events, EmittedEvent{Emitter: ic.msg.to, Event: event})
}

func (ic *invocationContext) Context() context.Context {
	return ic.vm.ctx
}

func (ic *invocationContext) Log(level rtt.LogLevel, msg string, args ...interface{}) {
	ic.vm.logf(level, ic.topLevel.message, "%v: %s", ic.msg.to, fmt.Sprintf(msg, args...))
}

func (ic *invocationContext) StoreGet(c cid.Cid, o cbor.Unmarshaler) bool {
	if err := ic.vm.store.Get(ic.vm.ctx, c, o); err != nil {
		return false
	}
	return true
}

func (ic *invocationContext) StorePut(x cbor.Marshaler) cid.Cid {
	c, err := ic.vm.store.Put(ic.vm.ctx, x)
	if err != nil {
		ic.Abortf(exitcode.ErrSerialization, "failed to store object: %s", err)
	}
	return c
}

func (ic *invocationContext) Caller() address.Address {
	return ic.msg.from
}

func (ic *invocationContext) Receiver() address.Address {
	return ic.msg.to
}

func (ic *invocationContext) StateCreate(obj cbor.Marshaler) {
	if !ic.toActor.Head.Equals(ic.vm.emptyObject) {
		ic.Abortf(exitcode.SysErrorIllegalActor, "failed to create state; expected empty state at %v", ic.msg.to)
	}
	ic.replace(obj)
}

func (ic *invocationContext) StateReadonly(obj cbor.Unmarshaler) {
	if !ic.StoreGet(ic.toActor.Head, obj) {
		ic.Abortf(exitcode.ErrNotFound, "failed to load state for %v", ic.msg.to)
	}
}

func (ic *invocationContext) StateTransaction(obj cbor.Er, f func()) {
	if obj == nil {
		ic.Abortf(exitcode.SysErrorIllegalActor, "must provide state object to transaction")
	}
	if !ic.allowSideEffects {
		ic.Abortf(exitcode.SysErrorIllegalActor, "nested state transaction")
	}
	ic.StateReadonly(obj)

	ic.allowSideEffects = false
	f()
	ic.allowSideEffects = true

	ic.replace(obj)
}

func (ic *invocationContext) replace(obj cbor.Marshaler) {
	ic.toActor.Head = ic.StorePut(obj)
	if err := ic.vm.setActor(ic.msg.to, ic.toActor); err != nil {
		panic(err)
	}
}

func (ic *invocationContext) assertf(condition bool, msg string, args ...interface{}) {
	if !condition {
		panic(fmt.Errorf(msg, args...))
	}
}
