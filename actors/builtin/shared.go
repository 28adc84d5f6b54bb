package builtin

import (
	"fmt"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/ipfs/go-cid"

	"github.com/linear-vesting/vesting-actors/actors/runtime"
)

///// Code shared by multiple built-in actors. /////

// Default log2 of branching factor for HAMTs.
// This value has been empirically chosen, but the optimal value for maps with different mutation profiles may differ.
const DefaultHamtBitwidth = 5

// Default log2 of branching factor for AMTs.
const DefaultAmtBitwidth = 5

// Aborts with an ErrIllegalArgument if predicate is not true.
func RequireParam(rt runtime.Runtime, predicate bool, msg string, args ...interface{}) {
	if !predicate {
		rt.Abortf(exitcode.ErrIllegalArgument, msg, args...)
	}
}

// Propagates a failed send by aborting the current method with the same exit code.
func RequireSuccess(rt runtime.Runtime, e exitcode.ExitCode, msg string, args ...interface{}) {
	if !e.IsSuccess() {
		rt.Abortf(e, msg, args...)
	}
}

// Aborts with an ErrIllegalState if predicate is not true.
func RequireState(rt runtime.Runtime, predicate bool, msg string, args ...interface{}) {
	if !predicate {
		rt.Abortf(exitcode.ErrIllegalState, msg, args...)
	}
}

// Aborts with a formatted message if err is not nil.
// The provided message will be suffixed by ": %s" and the provided args suffixed by the err.
func RequireNoErr(rt runtime.Runtime, err error, defaultExitCode exitcode.ExitCode, msg string, args ...interface{}) {
	if err != nil {
		newMsg := msg + ": %s"
		newArgs := append(args, err)
		rt.Abortf(defaultExitCode, newMsg, newArgs...)
	}
}

// Resolves an address to an ID address and verifies that it is the address of an actor with one of
// the given code CIDs. Aborts with the given exit code if either check fails.
func ResolveToIDAddrOfType(rt runtime.Runtime, raw addr.Address, code exitcode.ExitCode, types ...cid.Cid) addr.Address {
	if raw == addr.Undef {
		rt.Abortf(code, "undefined address")
	}
	resolved, ok := rt.ResolveAddress(raw)
	if !ok {
		rt.Abortf(code, "unable to resolve address %v", raw)
	}
	if len(types) == 0 {
		return resolved
	}
	actual, ok := rt.GetActorCodeCID(resolved)
	if !ok {
		rt.Abortf(code, "no code for address %v", resolved)
	}
	for _, t := range types {
		if actual.Equals(t) {
			return resolved
		}
	}
	rt.Abortf(code, "actor %v has code %v, expected one of %v", resolved, ActorNameByCode(actual), codeNames(types))
	panic("unreachable")
}

func codeNames(types []cid.Cid) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = fmt.Sprintf("%q", ActorNameByCode(t))
	}
	return names
}
