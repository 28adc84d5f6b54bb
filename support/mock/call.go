package mock

import (
	"bytes"
	"reflect"
	"runtime/debug"
	"testing"

	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/stretchr/testify/require"

	"github.com/linear-vesting/vesting-actors/actors/runtime"
)

var (
	runtimeType     = reflect.TypeOf((*runtime.Runtime)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*cbor.Unmarshaler)(nil)).Elem()
	marshalerType   = reflect.TypeOf((*cbor.Marshaler)(nil)).Elem()
)

// Call invokes an exported actor method with this runtime. Aborts propagate as panics:
// wrap the call in ExpectAbort when one is expected.
func (rt *Runtime) Call(method interface{}, params interface{}) interface{} {
	fn := reflect.ValueOf(method)
	if problem := methodSignatureProblem(fn.Type()); problem != "" {
		rt.failTestNow("%v: %s", fn, problem)
	}

	arg := reflect.Zero(fn.Type().In(1))
	if params != nil {
		arg = reflect.ValueOf(params)
	}

	rt.inCall = true
	defer func() { rt.inCall = false }()
	return fn.Call([]reflect.Value{reflect.ValueOf(rt), arg})[0].Interface()
}

// methodSignatureProblem returns "" when typ has the shape of an exported actor method:
// func(runtime.Runtime, *Params) Return, with CBOR-codable params and return.
func methodSignatureProblem(typ reflect.Type) string {
	switch {
	case typ.Kind() != reflect.Func:
		return "not a function"
	case typ.NumIn() != 2:
		return "must take a runtime and params"
	case typ.In(0) != runtimeType:
		return "first parameter must be runtime.Runtime"
	case typ.In(1).Kind() != reflect.Ptr || !typ.In(1).Implements(unmarshalerType):
		return "params must be a pointer to a CBOR-unmarshalable type"
	case typ.NumOut() != 1:
		return "must return exactly one value"
	case !typ.Out(0).Implements(marshalerType):
		return "return value must be CBOR-marshalable"
	}
	return ""
}

// CheckActorExports requires that method 0 is left empty for plain value sends and
// every other slot of the export table holds a well-formed actor method.
func CheckActorExports(t *testing.T, act interface{ Exports() []interface{} }) {
	for i, m := range act.Exports() {
		if i == 0 {
			require.Nil(t, m, "method 0 is reserved for send")
			continue
		}
		require.NotNil(t, m, "method %d is not exported", i)
		require.Empty(t, methodSignatureProblem(reflect.TypeOf(m)), "method %d", i)
	}
}

func (rt *Runtime) requireInCall() {
	rt.require(rt.inCall, "runtime used outside of a method call")
}

func (rt *Runtime) require(cond bool, msg string, args ...interface{}) {
	if !cond {
		rt.failTestNow(msg, args...)
	}
}

func (rt *Runtime) failTest(msg string, args ...interface{}) {
	rt.t.Helper()
	rt.t.Errorf(msg+"\n%s", append(args, debug.Stack())...)
}

func (rt *Runtime) failTestNow(msg string, args ...interface{}) {
	rt.t.Helper()
	rt.t.Fatalf(msg+"\n%s", append(args, debug.Stack())...)
}

func encodedEqual(a, b cbor.Marshaler) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) == isNil(b)
	}
	var ea, eb bytes.Buffer
	if a.MarshalCBOR(&ea) != nil || b.MarshalCBOR(&eb) != nil {
		return false
	}
	return bytes.Equal(ea.Bytes(), eb.Bytes())
}

func isNil(m cbor.Marshaler) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
