package builtin

import (
	addr "github.com/filecoin-project/go-address"
)

// Addresses for singleton system actors.
var (
	// Distinguished AccountActor that is the source of system implicit messages.
	SystemActorAddr  = mustMakeAddress(0)
	VestingActorAddr = mustMakeAddress(1)

	// Sink for burnt tokens. No actor lives at this address; tokens recorded as transferred to it
	// are no longer part of any token supply.
	BurntTokensActorAddr = mustMakeAddress(99)
)

const FirstNonSingletonActorId = 100

func mustMakeAddress(id uint64) addr.Address {
	address, err := addr.NewIDAddress(id)
	if err != nil {
		panic(err)
	}
	return address
}
