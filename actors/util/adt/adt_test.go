package adt_test

import (
	"sort"
	"testing"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/util/adt"
	"github.com/linear-vesting/vesting-actors/support/mock"
	tutil "github.com/linear-vesting/vesting-actors/support/testing"
)

func TestAddrKey(t *testing.T) {
	idAddr := tutil.NewIDAddr(t, 101)
	actorAddr := tutil.NewActorAddr(t, "actor")
	secpAddr := tutil.NewSECP256K1Addr(t, "secp")
	blsAddr := tutil.NewBLSAddr(t, 1)

	t.Run("id address key is protocol byte and leb128 id", func(t *testing.T) {
		assert.Equal(t, "\x00\x65", abi.AddrKey(idAddr).Key())
	})

	t.Run("keys are the address bytes", func(t *testing.T) {
		seen := map[string]bool{}
		for _, a := range []address.Address{idAddr, actorAddr, secpAddr, blsAddr} {
			key := abi.AddrKey(a).Key()
			assert.Equal(t, string(a.Bytes()), key)
			assert.Equal(t, byte(a.Protocol()), key[0])
			assert.False(t, seen[key])
			seen[key] = true
		}
	})
}

func TestMap(t *testing.T) {
	rt := mock.NewBuilder(address.Undef).Build(t)
	store := adt.AsStore(rt)

	t.Run("put and get", func(t *testing.T) {
		m, err := adt.MakeEmptyMap(store, builtin.DefaultHamtBitwidth)
		require.NoError(t, err)

		key := tutil.NewIDAddr(t, 100)
		value := abi.NewTokenAmount(42)
		require.NoError(t, m.Put(abi.AddrKey(key), &value))

		var out abi.TokenAmount
		found, err := m.Get(abi.AddrKey(key), &out)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, value, out)

		found, err = m.Get(abi.AddrKey(tutil.NewIDAddr(t, 101)), &out)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("reload from root", func(t *testing.T) {
		m, err := adt.MakeEmptyMap(store, builtin.DefaultHamtBitwidth)
		require.NoError(t, err)

		for i := uint64(0); i < 20; i++ {
			v := big.NewIntUnsigned(i * 10)
			require.NoError(t, m.Put(abi.UIntKey(i), &v))
		}
		root, err := m.Root()
		require.NoError(t, err)

		reloaded, err := adt.AsMap(store, root, builtin.DefaultHamtBitwidth)
		require.NoError(t, err)

		has, err := reloaded.Has(abi.UIntKey(7))
		require.NoError(t, err)
		assert.True(t, has)

		keys, err := reloaded.CollectKeys()
		require.NoError(t, err)
		assert.Len(t, keys, 20)

		sum := big.Zero()
		var v big.Int
		require.NoError(t, reloaded.ForEach(&v, func(string) error {
			sum = big.Add(sum, v)
			return nil
		}))
		tutil.AssertBigEqual(t, big.NewInt(1900), sum)
	})

	t.Run("empty roots are deterministic", func(t *testing.T) {
		r1, err := adt.StoreEmptyMap(store, builtin.DefaultHamtBitwidth)
		require.NoError(t, err)
		r2, err := adt.StoreEmptyMap(store, builtin.DefaultHamtBitwidth)
		require.NoError(t, err)
		assert.Equal(t, r1, r2)
	})
}

func TestArray(t *testing.T) {
	rt := mock.NewBuilder(address.Undef).Build(t)
	store := adt.AsStore(rt)

	t.Run("get missing index", func(t *testing.T) {
		arr, err := adt.MakeEmptyArray(store, 5)
		require.NoError(t, err)

		found, err := arr.Get(7, nil)
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("append is contiguous", func(t *testing.T) {
		arr, err := adt.MakeEmptyArray(store, 5)
		require.NoError(t, err)

		for i := int64(0); i < 40; i++ {
			v := big.NewInt(i)
			require.NoError(t, arr.AppendContinuous(&v))
		}
		assert.Equal(t, uint64(40), arr.Length())

		root, err := arr.Root()
		require.NoError(t, err)
		reloaded, err := adt.AsArray(store, root, 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(40), reloaded.Length())

		var v big.Int
		found, err := reloaded.Get(33, &v)
		require.NoError(t, err)
		require.True(t, found)
		tutil.AssertBigEqual(t, big.NewInt(33), v)

		var seen []int64
		require.NoError(t, reloaded.ForEach(&v, func(i int64) error {
			tutil.AssertBigEqual(t, big.NewInt(i), v)
			seen = append(seen, i)
			return nil
		}))
		assert.Len(t, seen, 40)
		assert.True(t, sort.SliceIsSorted(seen, func(i, j int) bool { return seen[i] < seen[j] }))
	})
}
