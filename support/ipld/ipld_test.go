package ipld_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/filecoin-project/go-state-types/abi"
	cid "github.com/ipfs/go-cid"
	ipldformat "github.com/ipfs/go-ipld-format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cbg "github.com/whyrusleeping/cbor-gen"
	"golang.org/x/xerrors"

	"github.com/linear-vesting/vesting-actors/actors/util/adt"
	"github.com/linear-vesting/vesting-actors/support/ipld"
)

func TestCARRoundTrip(t *testing.T) {
	ctx := context.Background()
	bs := ipld.NewBlockStoreInMemory()
	store := adt.WrapBlockStore(ctx, bs)

	m, err := adt.MakeEmptyMap(store, 5)
	require.NoError(t, err)
	for i := uint64(0); i < 50; i++ {
		v := cbg.CborInt(i * i)
		require.NoError(t, m.Put(abi.UIntKey(i), &v))
	}
	root, err := m.Root()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ipld.WriteCAR(bs, []cid.Cid{root}, &buf))

	loaded, roots, err := ipld.ReadCAR(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []cid.Cid{root}, roots)
	assert.Equal(t, bs.Len(), loaded.Len())

	reloaded, err := adt.AsMap(adt.WrapBlockStore(ctx, loaded), root, 5)
	require.NoError(t, err)
	var v cbg.CborInt
	found, err := reloaded.Get(abi.UIntKey(7), &v)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, cbg.CborInt(49), v)

	t.Run("archives are deterministic", func(t *testing.T) {
		var again bytes.Buffer
		require.NoError(t, ipld.WriteCAR(loaded, roots, &again))
		assert.Equal(t, buf.Bytes(), again.Bytes())
	})

	t.Run("rejects roots missing from the store", func(t *testing.T) {
		v := cbg.CborInt(987654321)
		other, err := ipld.NewADTStore(ctx).Put(ctx, &v)
		require.NoError(t, err)
		err = ipld.WriteCAR(bs, []cid.Cid{other}, &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, xerrors.Is(err, ipldformat.ErrNotFound))
	})
}

func TestMetricsBlockStore(t *testing.T) {
	ctx := context.Background()
	underlying := ipld.NewBlockStoreInMemory()
	ms := ipld.NewMetricsBlockStore(underlying)
	store := adt.WrapBlockStore(ctx, ms)

	arr, err := adt.MakeEmptyArray(store, 3)
	require.NoError(t, err)
	v := cbg.CborInt(1)
	require.NoError(t, arr.Set(0, &v))
	root, err := arr.Root()
	require.NoError(t, err)
	assert.True(t, ms.Writes > 0)
	assert.True(t, ms.WriteBytes > 0)
	assert.True(t, underlying.Has(root))

	ms.Reset()
	_, err = adt.AsArray(store, root, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ms.Writes)
	assert.True(t, ms.Reads > 0)
}
