package states

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	cid "github.com/ipfs/go-cid"
	cbg "github.com/whyrusleeping/cbor-gen"
	"golang.org/x/xerrors"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/util/adt"
)

// Version of the state tree root layout.
const StateTreeVersion = 1

// Value type for the actors HAMT.
type Actor struct {
	Code       cid.Cid
	Head       cid.Cid
	CallSeqNum uint64
}

// Top-level object of the state tree.
// Besides the actors, it holds the map from public-key and actor addresses to ID addresses
// and the next ID to be allocated.
type StateRoot struct {
	Version    uint64
	Actors     cid.Cid // HAMT[addr.Address]Actor, keyed by ID address
	AddressMap cid.Cid // HAMT[addr.Address]cbg.CborInt
	NextID     abi.ActorID
}

// A specialization of a map of ID-addresses to actor heads.
type Tree struct {
	actors    *adt.Map
	addresses *adt.Map
	nextID    abi.ActorID
	Store     adt.Store
}

// Initializes a new, empty state tree backed by a store.
func NewTree(store adt.Store) (*Tree, error) {
	actors, err := adt.MakeEmptyMap(store, builtin.DefaultHamtBitwidth)
	if err != nil {
		return nil, err
	}
	addresses, err := adt.MakeEmptyMap(store, builtin.DefaultHamtBitwidth)
	if err != nil {
		return nil, err
	}
	return &Tree{
		actors:    actors,
		addresses: addresses,
		nextID:    abi.ActorID(builtin.FirstNonSingletonActorId),
		Store:     store,
	}, nil
}

// Loads a tree from a root CID and store.
func LoadTree(store adt.Store, rootCid cid.Cid) (*Tree, error) {
	var r StateRoot
	if err := store.Get(store.Context(), rootCid, &r); err != nil {
		return nil, xerrors.Errorf("failed to load state root %v: %w", rootCid, err)
	}
	if r.Version != StateTreeVersion {
		return nil, xerrors.Errorf("unsupported state tree version %d", r.Version)
	}
	actors, err := adt.AsMap(store, r.Actors, builtin.DefaultHamtBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to load actors: %w", err)
	}
	addresses, err := adt.AsMap(store, r.AddressMap, builtin.DefaultHamtBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to load address map: %w", err)
	}
	return &Tree{
		actors:    actors,
		addresses: addresses,
		nextID:    r.NextID,
		Store:     store,
	}, nil
}

// Writes the tree root node to the store, and returns its CID.
func (t *Tree) Flush() (cid.Cid, error) {
	actorsRoot, err := t.actors.Root()
	if err != nil {
		return cid.Undef, xerrors.Errorf("failed to flush actors: %w", err)
	}
	addressesRoot, err := t.addresses.Root()
	if err != nil {
		return cid.Undef, xerrors.Errorf("failed to flush address map: %w", err)
	}
	return t.Store.Put(t.Store.Context(), &StateRoot{
		Version:    StateTreeVersion,
		Actors:     actorsRoot,
		AddressMap: addressesRoot,
		NextID:     t.nextID,
	})
}

// Loads the actor at an ID address.
func (t *Tree) GetActor(idAddr addr.Address) (*Actor, bool, error) {
	if idAddr.Protocol() != addr.ID {
		return nil, false, xerrors.Errorf("non-ID address %v invalid as actor key", idAddr)
	}
	var actor Actor
	found, err := t.actors.Get(abi.AddrKey(idAddr), &actor)
	return &actor, found, err
}

// Sets the actor at an ID address, overwriting any existing actor.
func (t *Tree) SetActor(idAddr addr.Address, actor *Actor) error {
	if idAddr.Protocol() != addr.ID {
		return xerrors.Errorf("non-ID address %v invalid as actor key", idAddr)
	}
	return t.actors.Put(abi.AddrKey(idAddr), actor)
}

// Traverses all actors in the tree.
func (t *Tree) ForEach(fn func(idAddr addr.Address, actor *Actor) error) error {
	var actor Actor
	return t.actors.ForEach(&actor, func(key string) error {
		idAddr, err := addr.NewFromBytes([]byte(key))
		if err != nil {
			return err
		}
		return fn(idAddr, &actor)
	})
}

// Resolves an address to an ID address via the address map.
// ID addresses are returned unchanged, whether or not an actor exists there.
func (t *Tree) ResolveAddress(a addr.Address) (addr.Address, bool, error) {
	if a.Protocol() == addr.ID {
		return a, true, nil
	}
	var id cbg.CborInt
	found, err := t.addresses.Get(abi.AddrKey(a), &id)
	if err != nil {
		return addr.Undef, false, xerrors.Errorf("failed to resolve address %v: %w", a, err)
	}
	if !found {
		return addr.Undef, false, nil
	}
	idAddr, err := addr.NewIDAddress(uint64(id))
	if err != nil {
		return addr.Undef, false, err
	}
	return idAddr, true, nil
}

// Allocates a new ID address and maps an external address to it.
// Fails if the address is already mapped.
func (t *Tree) MapAddressToNewID(a addr.Address) (addr.Address, error) {
	if a.Protocol() == addr.ID {
		return addr.Undef, xerrors.Errorf("cannot map ID address %v", a)
	}
	if found, err := t.addresses.Has(abi.AddrKey(a)); err != nil {
		return addr.Undef, err
	} else if found {
		return addr.Undef, xerrors.Errorf("address %v already mapped", a)
	}

	id := t.nextID
	idAddr, err := addr.NewIDAddress(uint64(id))
	if err != nil {
		return addr.Undef, err
	}
	cborID := cbg.CborInt(id)
	if err := t.addresses.Put(abi.AddrKey(a), &cborID); err != nil {
		return addr.Undef, xerrors.Errorf("failed to map address %v: %w", a, err)
	}
	t.nextID++
	return idAddr, nil
}

// Allocates a new ID address without mapping any external address to it.
func (t *Tree) NewIDAddress() (addr.Address, error) {
	id := t.nextID
	t.nextID++
	return addr.NewIDAddress(uint64(id))
}
