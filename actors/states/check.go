package states

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"golang.org/x/xerrors"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/builtin/account"
	"github.com/linear-vesting/vesting-actors/actors/builtin/system"
	"github.com/linear-vesting/vesting-actors/actors/builtin/token"
	"github.com/linear-vesting/vesting-actors/actors/builtin/vesting"
)

// Within this code, Go errors are not expected, but are often converted to messages so that execution
// can continue to find more errors rather than fail with no insight.
// Only errors that are particularly troublesome to recover from should propagate as Go errors.
func CheckStateInvariants(tree *Tree, priorEpoch abi.ChainEpoch) (*builtin.MessageAccumulator, error) {
	acc := &builtin.MessageAccumulator{}
	tokenSummaries := make(map[addr.Address]*token.StateSummary)
	vestingSummaries := make(map[addr.Address]*vesting.StateSummary)
	pubkeys := make(map[addr.Address]addr.Address)

	if err := tree.ForEach(func(key addr.Address, actor *Actor) error {
		acc := acc.WithPrefix("%v ", key) // Intentional shadow
		if key.Protocol() != addr.ID {
			acc.Addf("unexpected address protocol in state tree root: %v", key)
		}

		switch actor.Code {
		case builtin.SystemActorCodeID:
			var st system.State
			if err := tree.Store.Get(tree.Store.Context(), actor.Head, &st); err != nil {
				return err
			}
			acc.Require(key == builtin.SystemActorAddr, "system actor at unexpected address %v", key)

		case builtin.AccountActorCodeID:
			var st account.State
			if err := tree.Store.Get(tree.Store.Context(), actor.Head, &st); err != nil {
				return err
			}
			summary, msgs := account.CheckStateInvariants(&st, key)
			acc.WithPrefix("account: ").AddAll(msgs)
			pubkeys[key] = summary.PubKeyAddr

		case builtin.TokenActorCodeID:
			var st token.State
			if err := tree.Store.Get(tree.Store.Context(), actor.Head, &st); err != nil {
				return err
			}
			summary, msgs := token.CheckStateInvariants(&st, tree.Store)
			acc.WithPrefix("token: ").AddAll(msgs)
			tokenSummaries[key] = summary

		case builtin.VestingActorCodeID:
			var st vesting.State
			if err := tree.Store.Get(tree.Store.Context(), actor.Head, &st); err != nil {
				return err
			}
			summary, msgs := vesting.CheckStateInvariants(&st, tree.Store, priorEpoch)
			acc.WithPrefix("vesting: ").AddAll(msgs)
			vestingSummaries[key] = summary

		default:
			return xerrors.Errorf("unexpected actor code CID %v for address %v", actor.Code, key)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	//
	// Perform cross-actor checks from state summaries here.
	//

	CheckVestingAgainstTokens(acc, vestingSummaries, tokenSummaries)
	CheckAccountsAgainstAddressMap(acc, tree, pubkeys)

	return acc, nil
}

// Checks that every vesting actor holds, at each token actor, at least the unredeemed principal
// of the schedules it keeps in that token.
func CheckVestingAgainstTokens(acc *builtin.MessageAccumulator, vestingSummaries map[addr.Address]*vesting.StateSummary, tokenSummaries map[addr.Address]*token.StateSummary) {
	for vestingAddr, vestingSummary := range vestingSummaries { // nolint:nomaprange
		for tokenAddr, outstanding := range vestingSummary.Outstanding { // nolint:nomaprange
			tokenSummary, ok := tokenSummaries[tokenAddr]
			acc.Require(ok, "vesting actor %v locks %v in %v, which is not a token actor", vestingAddr, outstanding, tokenAddr)
			if !ok {
				continue
			}
			held, ok := tokenSummary.Balances[vestingAddr]
			if !ok {
				held = big.Zero()
			}
			acc.Require(held.GreaterThanEqual(outstanding),
				"vesting actor %v holds %v of token %v, less than outstanding %v", vestingAddr, held, tokenAddr, outstanding)
		}
	}
}

// Checks that every account's public key resolves back to the account's ID address.
func CheckAccountsAgainstAddressMap(acc *builtin.MessageAccumulator, tree *Tree, pubkeys map[addr.Address]addr.Address) {
	for idAddr, pubkey := range pubkeys { // nolint:nomaprange
		resolved, found, err := tree.ResolveAddress(pubkey)
		if err != nil {
			acc.Addf("failed to resolve %v: %v", pubkey, err)
			continue
		}
		acc.Require(found, "account %v public key %v is not in the address map", idAddr, pubkey)
		acc.Require(!found || resolved == idAddr, "account %v public key %v resolves to %v", idAddr, pubkey, resolved)
	}
}
