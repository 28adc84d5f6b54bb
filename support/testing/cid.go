package testing

import (
	"fmt"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// Returns a generator of CIDs for placeholder code or state in tests.
// The CIDs are distinct across calls to one generator; two generators yield the same sequence.
func NewCidForTestGetter() func() cid.Cid {
	builder := cid.V1Builder{Codec: cid.DagCBOR, MhType: mh.BLAKE2B_MIN + 31}
	next := 31337
	return func() cid.Cid {
		c, err := builder.Sum([]byte(fmt.Sprintf("test-object-%d", next)))
		if err != nil {
			panic(err)
		}
		next++
		return c
	}
}
