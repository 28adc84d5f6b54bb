package token

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"
	cbg "github.com/whyrusleeping/cbor-gen"
	"golang.org/x/xerrors"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/util/adt"
)

type State struct {
	Name     string
	Symbol   string
	Decimals uint64

	// Sum of all balances.
	TotalSupply abi.TokenAmount

	Balances   cid.Cid // BalanceTable, HAMT[holder]TokenAmount
	Allowances cid.Cid // HAMT[owner]BalanceTable (HAMT[spender]TokenAmount)
}

func ConstructState(store adt.Store, name, symbol string) (*State, error) {
	emptyBalancesCid, err := adt.StoreEmptyMap(store, adt.BalanceTableBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to create empty balance table: %w", err)
	}
	emptyAllowancesCid, err := adt.StoreEmptyMap(store, builtin.DefaultHamtBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to create empty allowances map: %w", err)
	}

	return &State{
		Name:        name,
		Symbol:      symbol,
		Decimals:    Decimals,
		TotalSupply: big.Zero(),
		Balances:    emptyBalancesCid,
		Allowances:  emptyAllowancesCid,
	}, nil
}

// Returns the balance held by an address, zero if the address has never held tokens.
func (st *State) BalanceOf(store adt.Store, holder addr.Address) (abi.TokenAmount, error) {
	balances, err := adt.AsBalanceTable(store, st.Balances)
	if err != nil {
		return big.Zero(), xerrors.Errorf("failed to load balances: %w", err)
	}
	return balances.Get(holder)
}

// Creates new tokens in a holder's balance.
func (st *State) Mint(store adt.Store, holder addr.Address, amount abi.TokenAmount) error {
	if amount.LessThan(big.Zero()) {
		return xerrors.Errorf("negative mint amount %v", amount)
	}
	balances, err := adt.AsBalanceTable(store, st.Balances)
	if err != nil {
		return xerrors.Errorf("failed to load balances: %w", err)
	}
	if err := balances.Add(holder, amount); err != nil {
		return xerrors.Errorf("failed to credit %v: %w", holder, err)
	}
	if st.Balances, err = balances.Root(); err != nil {
		return xerrors.Errorf("failed to flush balances: %w", err)
	}
	st.TotalSupply = big.Add(st.TotalSupply, amount)
	return nil
}

// Moves tokens between holders.
// Returns false, leaving the state unmodified, if the sender holds less than the amount.
func (st *State) Move(store adt.Store, from, to addr.Address, amount abi.TokenAmount) (bool, error) {
	balances, err := adt.AsBalanceTable(store, st.Balances)
	if err != nil {
		return false, xerrors.Errorf("failed to load balances: %w", err)
	}
	fromBalance, err := balances.Get(from)
	if err != nil {
		return false, xerrors.Errorf("failed to get balance of %v: %w", from, err)
	}
	if fromBalance.LessThan(amount) {
		return false, nil
	}
	if err := balances.MustSubtract(from, amount); err != nil {
		return false, xerrors.Errorf("failed to debit %v: %w", from, err)
	}
	if err := balances.Add(to, amount); err != nil {
		return false, xerrors.Errorf("failed to credit %v: %w", to, err)
	}
	if st.Balances, err = balances.Root(); err != nil {
		return false, xerrors.Errorf("failed to flush balances: %w", err)
	}
	return true, nil
}

// Destroys tokens from a holder's balance, reducing the total supply.
// Returns false, leaving the state unmodified, if the holder holds less than the amount.
func (st *State) Burn(store adt.Store, holder addr.Address, amount abi.TokenAmount) (bool, error) {
	balances, err := adt.AsBalanceTable(store, st.Balances)
	if err != nil {
		return false, xerrors.Errorf("failed to load balances: %w", err)
	}
	balance, err := balances.Get(holder)
	if err != nil {
		return false, xerrors.Errorf("failed to get balance of %v: %w", holder, err)
	}
	if balance.LessThan(amount) {
		return false, nil
	}
	if err := balances.MustSubtract(holder, amount); err != nil {
		return false, xerrors.Errorf("failed to debit %v: %w", holder, err)
	}
	if st.Balances, err = balances.Root(); err != nil {
		return false, xerrors.Errorf("failed to flush balances: %w", err)
	}
	st.TotalSupply = big.Sub(st.TotalSupply, amount)
	return true, nil
}

// Returns the amount an owner has permitted a spender to transfer on its behalf.
func (st *State) Allowance(store adt.Store, owner, spender addr.Address) (abi.TokenAmount, error) {
	allowances, err := adt.AsMap(store, st.Allowances, builtin.DefaultHamtBitwidth)
	if err != nil {
		return big.Zero(), xerrors.Errorf("failed to load allowances: %w", err)
	}
	spenders, _, err := loadSpenders(store, allowances, owner)
	if err != nil {
		return big.Zero(), err
	}
	return spenders.Get(spender)
}

// Overwrites the amount an owner permits a spender to transfer on its behalf.
func (st *State) SetAllowance(store adt.Store, owner, spender addr.Address, amount abi.TokenAmount) error {
	if amount.LessThan(big.Zero()) {
		return xerrors.Errorf("negative allowance %v", amount)
	}
	allowances, err := adt.AsMap(store, st.Allowances, builtin.DefaultHamtBitwidth)
	if err != nil {
		return xerrors.Errorf("failed to load allowances: %w", err)
	}
	spenders, _, err := loadSpenders(store, allowances, owner)
	if err != nil {
		return err
	}
	prev, err := spenders.Get(spender)
	if err != nil {
		return xerrors.Errorf("failed to get allowance of %v for %v: %w", spender, owner, err)
	}
	if err := spenders.Add(spender, big.Sub(amount, prev)); err != nil {
		return xerrors.Errorf("failed to set allowance of %v for %v: %w", spender, owner, err)
	}
	return st.storeSpenders(allowances, owner, spenders)
}

// Reduces the allowance an owner has granted a spender.
// Returns false, leaving the state unmodified, if the allowance is less than the amount.
func (st *State) SpendAllowance(store adt.Store, owner, spender addr.Address, amount abi.TokenAmount) (bool, error) {
	allowances, err := adt.AsMap(store, st.Allowances, builtin.DefaultHamtBitwidth)
	if err != nil {
		return false, xerrors.Errorf("failed to load allowances: %w", err)
	}
	spenders, found, err := loadSpenders(store, allowances, owner)
	if err != nil {
		return false, err
	}
	if !found {
		return amount.Sign() == 0, nil
	}
	allowed, err := spenders.Get(spender)
	if err != nil {
		return false, xerrors.Errorf("failed to get allowance of %v for %v: %w", spender, owner, err)
	}
	if allowed.LessThan(amount) {
		return false, nil
	}
	if err := spenders.MustSubtract(spender, amount); err != nil {
		return false, xerrors.Errorf("failed to spend allowance of %v for %v: %w", spender, owner, err)
	}
	return true, st.storeSpenders(allowances, owner, spenders)
}

func (st *State) storeSpenders(allowances *adt.Map, owner addr.Address, spenders *adt.BalanceTable) error {
	root, err := spenders.Root()
	if err != nil {
		return xerrors.Errorf("failed to flush allowances of %v: %w", owner, err)
	}
	rootCbor := cbg.CborCid(root)
	if err := allowances.Put(abi.AddrKey(owner), &rootCbor); err != nil {
		return xerrors.Errorf("failed to put allowances of %v: %w", owner, err)
	}
	if st.Allowances, err = allowances.Root(); err != nil {
		return xerrors.Errorf("failed to flush allowances: %w", err)
	}
	return nil
}

// Loads the spender table of an owner, or an empty one if the owner has never approved a spender.
func loadSpenders(store adt.Store, allowances *adt.Map, owner addr.Address) (*adt.BalanceTable, bool, error) {
	var root cbg.CborCid
	found, err := allowances.Get(abi.AddrKey(owner), &root)
	if err != nil {
		return nil, false, xerrors.Errorf("failed to get allowances of %v: %w", owner, err)
	}
	rootCid := cid.Cid(root)
	if !found {
		if rootCid, err = adt.StoreEmptyMap(store, adt.BalanceTableBitwidth); err != nil {
			return nil, false, xerrors.Errorf("failed to create allowances of %v: %w", owner, err)
		}
	}
	spenders, err := adt.AsBalanceTable(store, rootCid)
	if err != nil {
		return nil, false, xerrors.Errorf("failed to load allowances of %v: %w", owner, err)
	}
	return spenders, found, nil
}
