package runtime

import (
	"context"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/filecoin-project/go-state-types/rt"
	cid "github.com/ipfs/go-cid"
)

// Runtime is what an actor method sees of the ledger while it executes. It is
// implemented by the test VM and by the mock runtime used in unit tests.
type Runtime interface {
	// Caller and receiver of the invocation being executed. For a nested send these
	// describe the nested call, not the top-level message.
	Message

	// Access to this actor's state root.
	StateHandle

	// Content-addressed storage backing the actor's collections.
	Store

	// Epoch of the message being applied. Epoch zero is genesis; one epoch is one
	// second (see builtin.EpochDurationSeconds).
	CurrEpoch() abi.ChainEpoch

	// Every exported method must perform exactly one caller validation before it
	// touches state or sends. This one admits any caller.
	ValidateImmediateCallerAcceptAny()

	// Aborts with SysErrForbidden unless the caller's ID address is one of addrs.
	// Callers are always presented as ID addresses, so addrs should be too.
	ValidateImmediateCallerIs(addrs ...addr.Address)

	// Aborts with SysErrForbidden unless the caller's code CID is one of types.
	ValidateImmediateCallerType(types ...cid.Cid)

	// Maps any address to its ID form. ID addresses resolve to themselves; ok is
	// false when no actor is known under the address.
	ResolveAddress(address addr.Address) (addr.Address, bool)

	// Code CID of the actor at addr, resolving addr first if needed.
	GetActorCodeCID(addr addr.Address) (ret cid.Cid, ok bool)

	// Invokes a method on another actor and returns its exit code. On success the
	// return value is decoded into out. A failed callee leaves no state changes
	// behind, including those of anything it sent to in turn.
	Send(toAddr addr.Address, methodNum abi.MethodNum, params cbor.Marshaler, out cbor.Er) exitcode.ExitCode

	// Stops the method with the given non-system exit code. Every state change made
	// by this invocation is discarded. msg and args follow fmt.Sprintf and are only
	// diagnostic. Never returns.
	Abortf(errExitCode exitcode.ExitCode, msg string, args ...interface{})

	// Queues an event. Events reach observers only when the top-level message
	// succeeds; an abort drops the events of every invocation it rolls back.
	EmitEvent(event Event)

	// Context for store and collection operations. Actor logic itself should not
	// depend on it.
	Context() context.Context

	// Debug output. Not part of state.
	Log(level rt.LogLevel, msg string, args ...interface{})
}

// Store is the block store exposed to actors.
type Store interface {
	// Decodes the object at c into o, reporting whether it was present.
	StoreGet(c cid.Cid, o cbor.Unmarshaler) bool
	// Encodes x, stores it and returns its CID.
	StorePut(x cbor.Marshaler) cid.Cid
}

// Message identifies the parties of the executing invocation. Both are ID
// addresses and stay fixed for the whole invocation.
type Message interface {
	Caller() addr.Address
	Receiver() addr.Address
}

// StateHandle gives a method exclusive access to its actor's state.
type StateHandle interface {
	// Writes the initial state. Aborts if the actor already has state.
	StateCreate(obj cbor.Marshaler)

	// Decodes the current state into obj. Changes made to obj are not persisted.
	StateReadonly(obj cbor.Unmarshaler)

	// Decodes the current state into obj, runs f and stores obj as the new state.
	// Sends are forbidden while f runs:
	//
	//	var st State
	//	rt.StateTransaction(&st, func() {
	//		st.NextScheduleID++
	//	})
	StateTransaction(obj cbor.Er, f func())
}

// Event is a notification emitted by an actor when a state change commits.
// Its CBOR encoding carries exactly the event's fields, in declaration order.
type Event interface {
	cbor.Marshaler
	EventName() string
}
