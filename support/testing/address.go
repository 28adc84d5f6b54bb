package testing

import (
	"math/rand"
	"testing"

	addr "github.com/filecoin-project/go-address"
)

func NewIDAddr(t testing.TB, id uint64) addr.Address {
	return mustAddress(t)(addr.NewIDAddress(id))
}

// Makes a secp256k1 address. The key material is hashed into the address, so any string will do.
func NewSECP256K1Addr(t testing.TB, pubkey string) addr.Address {
	return mustAddress(t)(addr.NewSecp256k1Address([]byte(pubkey)))
}

// Makes a BLS address from a pseudo-random 48 byte public key derived from seed.
func NewBLSAddr(t testing.TB, seed int64) addr.Address {
	pubkey := make([]byte, 48)
	rand.New(rand.NewSource(seed)).Read(pubkey) // nolint: gosec
	return mustAddress(t)(addr.NewBLSAddress(pubkey))
}

func NewActorAddr(t testing.TB, data string) addr.Address {
	return mustAddress(t)(addr.NewActorAddress([]byte(data)))
}

func mustAddress(t testing.TB) func(addr.Address, error) addr.Address {
	return func(a addr.Address, err error) addr.Address {
		if err != nil {
			t.Fatal(err)
		}
		return a
	}
}
