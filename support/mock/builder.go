package mock

import (
	"context"
	"testing"

	addr "github.com/filecoin-project/go-address"
	cid "github.com/ipfs/go-cid"
)

// RuntimeBuilder collects the fixed context of a mock runtime. One builder may
// produce several independent runtimes.
type RuntimeBuilder struct {
	receiver   addr.Address
	caller     addr.Address
	callerType cid.Cid
	codes      map[addr.Address]cid.Cid
}

// NewBuilder starts a runtime for the actor at receiver.
func NewBuilder(receiver addr.Address) *RuntimeBuilder {
	return &RuntimeBuilder{
		receiver: receiver,
		codes:    make(map[addr.Address]cid.Cid),
	}
}

func (b *RuntimeBuilder) WithCaller(a addr.Address, code cid.Cid) *RuntimeBuilder {
	b.caller = a
	b.callerType = code
	return b
}

// WithActorType registers the code CID of the actor at an ID address.
func (b *RuntimeBuilder) WithActorType(a addr.Address, code cid.Cid) *RuntimeBuilder {
	b.codes[a] = code
	return b
}

// Build returns a fresh runtime with an empty store and no actor state.
func (b *RuntimeBuilder) Build(t testing.TB) *Runtime {
	codes := make(map[addr.Address]cid.Cid, len(b.codes))
	for a, c := range b.codes { //nolint:nomaprange
		codes[a] = c
	}
	return &Runtime{
		t:          t,
		ctx:        context.Background(),
		receiver:   b.receiver,
		caller:     b.caller,
		callerType: b.callerType,
		idAddrs:    make(map[addr.Address]addr.Address),
		codes:      codes,
		store:      make(map[cid.Cid][]byte),
	}
}
