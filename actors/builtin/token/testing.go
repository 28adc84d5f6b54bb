package token

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"
	cbg "github.com/whyrusleeping/cbor-gen"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/util/adt"
)

type StateSummary struct {
	Balances    map[addr.Address]abi.TokenAmount
	TotalSupply abi.TokenAmount
}

// Checks internal invariants of token state.
func CheckStateInvariants(st *State, store adt.Store) (*StateSummary, *builtin.MessageAccumulator) {
	acc := &builtin.MessageAccumulator{}
	summary := &StateSummary{
		Balances:    make(map[addr.Address]abi.TokenAmount),
		TotalSupply: st.TotalSupply,
	}

	acc.Require(st.Decimals == Decimals, "decimals %d, expected %d", st.Decimals, Decimals)
	acc.Require(!st.TotalSupply.Nil() && st.TotalSupply.GreaterThanEqual(big.Zero()), "total supply %v is negative", st.TotalSupply)

	if balances, err := adt.AsBalanceTable(store, st.Balances); err != nil {
		acc.Addf("error loading balances: %v", err)
	} else {
		sum := big.Zero()
		err = balances.ForEach(func(holder addr.Address, balance abi.TokenAmount) error {
			acc.Require(holder.Protocol() == addr.ID, "balance holder %v is not an ID address", holder)
			acc.Require(holder != builtin.BurntTokensActorAddr, "burnt tokens sink holds balance %v", balance)
			acc.Require(balance.GreaterThan(big.Zero()), "holder %v has non-positive balance %v", holder, balance)
			summary.Balances[holder] = balance
			sum = big.Add(sum, balance)
			return nil
		})
		acc.RequireNoError(err, "error iterating balances")
		acc.Require(sum.Equals(st.TotalSupply), "sum of balances %v does not match total supply %v", sum, st.TotalSupply)
	}

	if allowances, err := adt.AsMap(store, st.Allowances, builtin.DefaultHamtBitwidth); err != nil {
		acc.Addf("error loading allowances: %v", err)
	} else {
		var root cbg.CborCid
		err = allowances.ForEach(&root, func(key string) error {
			owner, err := addr.NewFromBytes([]byte(key))
			if err != nil {
				return err
			}
			acc.Require(owner.Protocol() == addr.ID, "allowance owner %v is not an ID address", owner)
			spenders, err := adt.AsBalanceTable(store, cid.Cid(root))
			if err != nil {
				return err
			}
			return spenders.ForEach(func(spender addr.Address, _ abi.TokenAmount) error {
				acc.Require(spender.Protocol() == addr.ID, "spender %v approved by %v is not an ID address", spender, owner)
				return nil
			})
		})
		acc.RequireNoError(err, "error iterating allowances")
	}

	return summary, acc
}
