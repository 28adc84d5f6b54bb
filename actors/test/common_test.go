package test

import (
	"testing"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/stretchr/testify/require"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/builtin/token"
	"github.com/linear-vesting/vesting-actors/actors/builtin/vesting"
	tutil "github.com/linear-vesting/vesting-actors/support/testing"
	"github.com/linear-vesting/vesting-actors/support/vm"
)

func approve(t *testing.T, v *vm.VM, owner, tokenAddr, spender addr.Address, amount abi.TokenAmount) {
	vm.ApplyOk(t, v, owner, tokenAddr, builtin.MethodsToken.Approve, &token.ApproveParams{Spender: spender, Amount: amount})
}

func mintSchedule(t *testing.T, v *vm.VM, issuer, tokenAddr, beneficiary addr.Address, amount abi.TokenAmount, duration abi.ChainEpoch) vesting.ScheduleID {
	result := vm.ApplyOk(t, v, issuer, builtin.VestingActorAddr, builtin.MethodsVesting.Mint, &vesting.MintParams{
		Token:       tokenAddr,
		Beneficiary: beneficiary,
		Amount:      amount,
		Duration:    duration,
	})
	ret, ok := result.Ret.(*vesting.MintReturn)
	require.True(t, ok)
	return ret.ScheduleID
}

func redeemSchedule(t *testing.T, v *vm.VM, beneficiary addr.Address, id vesting.ScheduleID) abi.TokenAmount {
	result := vm.ApplyOk(t, v, beneficiary, builtin.VestingActorAddr, builtin.MethodsVesting.Redeem, &vesting.RedeemParams{ScheduleID: id})
	ret, ok := result.Ret.(*abi.TokenAmount)
	require.True(t, ok)
	return *ret
}

func getSchedule(t *testing.T, v *vm.VM, caller addr.Address, id vesting.ScheduleID) *vesting.ScheduleInfo {
	result := vm.ApplyOk(t, v, caller, builtin.VestingActorAddr, builtin.MethodsVesting.GetSchedule, &vesting.GetScheduleParams{ScheduleID: id})
	info, ok := result.Ret.(*vesting.ScheduleInfo)
	require.True(t, ok)
	return info
}

func balanceOf(t *testing.T, v *vm.VM, caller, tokenAddr, holder addr.Address) abi.TokenAmount {
	result := vm.ApplyOk(t, v, caller, tokenAddr, builtin.MethodsToken.BalanceOf, &holder)
	ret, ok := result.Ret.(*abi.TokenAmount)
	require.True(t, ok)
	return *ret
}

func assertBalance(t *testing.T, v *vm.VM, caller, tokenAddr, holder addr.Address, expected int64) {
	tutil.AssertBigEqual(t, abi.NewTokenAmount(expected), balanceOf(t, v, caller, tokenAddr, holder), "balance of %v", holder)
}
