package vm

import (
	"context"
	"testing"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/stretchr/testify/require"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/builtin/exported"
	"github.com/linear-vesting/vesting-actors/actors/builtin/token"
	"github.com/linear-vesting/vesting-actors/support/ipld"
	actor_testing "github.com/linear-vesting/vesting-actors/support/testing"
)

//
// Genesis like setup
//

// Creates a new VM and initializes the system and vesting singleton actors.
func NewVMWithSingletons(ctx context.Context, t testing.TB) *VM {
	lookup := ActorImplLookup{}
	for _, actor := range exported.BuiltinActors() {
		lookup[actor.Code()] = actor
	}

	vm := NewVM(ctx, lookup, ipld.NewBlockStoreInMemory())

	result := vm.InstallSingleton(builtin.SystemActorCodeID, builtin.SystemActorAddr, nil)
	require.Equal(t, exitcode.Ok, result.Code, "failed to install system actor")
	result = vm.InstallSingleton(builtin.VestingActorCodeID, builtin.VestingActorAddr, nil)
	require.Equal(t, exitcode.Ok, result.Code, "failed to install vesting actor")

	return vm
}

// An external signer: its public-key address and the ID address of its account actor.
type Account struct {
	PubKey address.Address
	ID     address.Address
}

// Creates n account actors in the VM, with BLS public keys derived from seed.
func CreateAccounts(t testing.TB, vm *VM, n int, seed int64) []Account {
	accounts := make([]Account, n)
	for i := range accounts {
		pubkey := actor_testing.NewBLSAddr(t, seed+int64(i))
		idAddr, result := vm.CreateAccount(pubkey)
		require.Equal(t, exitcode.Ok, result.Code, "failed to create account %v", pubkey)
		accounts[i] = Account{PubKey: pubkey, ID: idAddr}
	}
	return accounts
}

// Deploys a token actor with initial balances and returns its ID address.
func DeployToken(t testing.TB, vm *VM, name, symbol string, holders []address.Address, amounts []abi.TokenAmount) address.Address {
	tokenAddr, result := vm.CreateActor(builtin.TokenActorCodeID, &token.ConstructorParams{
		Name:    name,
		Symbol:  symbol,
		Holders: holders,
		Amounts: amounts,
	})
	require.Equal(t, exitcode.Ok, result.Code, "failed to deploy token %s", symbol)
	return tokenAddr
}
