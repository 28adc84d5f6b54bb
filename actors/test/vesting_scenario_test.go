package test

import (
	"bytes"
	"context"
	"testing"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/builtin/token"
	"github.com/linear-vesting/vesting-actors/actors/builtin/vesting"
	tutil "github.com/linear-vesting/vesting-actors/support/testing"
	"github.com/linear-vesting/vesting-actors/support/vm"
)

var oneToken = big.Mul(big.NewInt(1), big.NewInt(1e18))

func TestLinearVestingOverManyEpochs(t *testing.T) {
	ctx := context.Background()
	v := vm.NewVMWithSingletons(ctx, t)
	accounts := vm.CreateAccounts(t, v, 3, 4223)
	issuer, alice, bob := accounts[0], accounts[1], accounts[2]

	supply := big.Mul(big.NewInt(1_000_000), oneToken)
	tokenAddr := vm.DeployToken(t, v, "Vesting Token", "VST",
		[]addr.Address{issuer.PubKey}, []abi.TokenAmount{supply})

	grant := big.Mul(big.NewInt(12_345), oneToken)
	approve(t, v, issuer.ID, tokenAddr, builtin.VestingActorAddr, big.Mul(grant, big.NewInt(2)))

	year := abi.ChainEpoch(365 * builtin.EpochsInDay)
	aliceID := mintSchedule(t, v, issuer.ID, tokenAddr, alice.PubKey, grant, year)
	v.AdvanceEpoch(30 * builtin.EpochsInDay)
	bobID := mintSchedule(t, v, issuer.ID, tokenAddr, bob.PubKey, grant, year)
	vm.AssertInvariants(t, v)

	p := message.NewPrinter(language.English) // For readable large numbers
	report := &bytes.Buffer{}
	_, _ = p.Fprintf(report, "Day\tAlice redeemed\tBob redeemed\tLocked\n")

	aliceTotal, bobTotal := big.Zero(), big.Zero()
	for day := 0; day < 420; day += 45 {
		v.AdvanceEpoch(45 * builtin.EpochsInDay)
		aliceTotal = big.Add(aliceTotal, redeemSchedule(t, v, alice.ID, aliceID))
		bobTotal = big.Add(bobTotal, redeemSchedule(t, v, bob.ID, bobID))

		// Every payout matches the vested curve at the epoch it was made.
		aliceInfo := getSchedule(t, v, issuer.ID, aliceID)
		tutil.AssertBigEqual(t, aliceInfo.Vested, aliceTotal)
		tutil.AssertBigEqual(t, aliceInfo.Schedule.RedeemedAmount, aliceTotal)
		assert.True(t, aliceInfo.Redeemable.IsZero())
		bobInfo := getSchedule(t, v, issuer.ID, bobID)
		tutil.AssertBigEqual(t, bobInfo.Vested, bobTotal)

		locked := balanceOf(t, v, issuer.ID, tokenAddr, builtin.VestingActorAddr)
		tutil.AssertBigEqual(t, big.Sub(big.Mul(grant, big.NewInt(2)), big.Add(aliceTotal, bobTotal)), locked)
		_, _ = p.Fprintf(report, "%d\t%d\t%d\t%d\n", day+30+45,
			big.Div(aliceTotal, oneToken).Int64(), big.Div(bobTotal, oneToken).Int64(), big.Div(locked, oneToken).Int64())
		vm.AssertInvariants(t, v)
	}
	t.Log("\n" + report.String())

	// Both schedules ran to completion and the vesting actor is empty.
	tutil.AssertBigEqual(t, grant, aliceTotal)
	tutil.AssertBigEqual(t, grant, bobTotal)
	tutil.AssertBigEqual(t, grant, balanceOf(t, v, issuer.ID, tokenAddr, alice.ID))
	tutil.AssertBigEqual(t, grant, balanceOf(t, v, issuer.ID, tokenAddr, bob.ID))
	tutil.AssertBigEqual(t, big.Zero(), balanceOf(t, v, issuer.ID, tokenAddr, builtin.VestingActorAddr))
	tutil.AssertBigEqual(t, big.Sub(supply, big.Mul(grant, big.NewInt(2))), balanceOf(t, v, issuer.ID, tokenAddr, issuer.ID))

	// Nothing more to redeem.
	tutil.AssertBigEqual(t, big.Zero(), redeemSchedule(t, v, alice.ID, aliceID))
}

func TestSchedulesAcrossTokens(t *testing.T) {
	ctx := context.Background()
	v := vm.NewVMWithSingletons(ctx, t)
	accounts := vm.CreateAccounts(t, v, 3, 7331)
	issuerA, issuerB, user := accounts[0], accounts[1], accounts[2]

	tokenA := vm.DeployToken(t, v, "Token A", "TKA",
		[]addr.Address{issuerA.ID}, []abi.TokenAmount{abi.NewTokenAmount(1_000)})
	tokenB := vm.DeployToken(t, v, "Token B", "TKB",
		[]addr.Address{issuerB.ID}, []abi.TokenAmount{abi.NewTokenAmount(1_000)})
	approve(t, v, issuerA.ID, tokenA, builtin.VestingActorAddr, abi.NewTokenAmount(1_000))
	approve(t, v, issuerB.ID, tokenB, builtin.VestingActorAddr, abi.NewTokenAmount(1_000))

	idA := mintSchedule(t, v, issuerA.ID, tokenA, user.ID, abi.NewTokenAmount(600), 60)
	idB := mintSchedule(t, v, issuerB.ID, tokenB, user.ID, abi.NewTokenAmount(300), 30)
	idC := mintSchedule(t, v, issuerA.ID, tokenA, issuerB.ID, abi.NewTokenAmount(400), 10)
	assert.Equal(t, []vesting.ScheduleID{0, 1, 2}, []vesting.ScheduleID{idA, idB, idC})

	result := vm.ApplyOk(t, v, issuerA.ID, builtin.VestingActorAddr, builtin.MethodsVesting.SchedulesOf, &user.PubKey)
	assert.Equal(t, []vesting.ScheduleID{idA, idB}, result.Ret.(*vesting.SchedulesOfReturn).ScheduleIDs)

	v.SetEpoch(15)
	tutil.AssertBigEqual(t, abi.NewTokenAmount(150), redeemSchedule(t, v, user.ID, idA))
	tutil.AssertBigEqual(t, abi.NewTokenAmount(150), redeemSchedule(t, v, user.ID, idB))
	tutil.AssertBigEqual(t, abi.NewTokenAmount(400), redeemSchedule(t, v, issuerB.ID, idC))

	assertBalance(t, v, user.ID, tokenA, user.ID, 150)
	assertBalance(t, v, user.ID, tokenB, user.ID, 150)
	assertBalance(t, v, user.ID, tokenA, issuerB.ID, 400)
	assertBalance(t, v, user.ID, tokenA, builtin.VestingActorAddr, 450)
	assertBalance(t, v, user.ID, tokenB, builtin.VestingActorAddr, 150)
	vm.AssertInvariants(t, v)

	// The user cannot redeem a schedule belonging to someone else.
	vm.ApplyCode(t, v, user.ID, builtin.VestingActorAddr, builtin.MethodsVesting.Redeem,
		&vesting.RedeemParams{ScheduleID: idC}, vesting.ErrNotBeneficiary)
	vm.ApplyCode(t, v, user.ID, builtin.VestingActorAddr, builtin.MethodsVesting.Redeem,
		&vesting.RedeemParams{ScheduleID: 3}, vesting.ErrUnknownSchedule)
}

func TestBeneficiaryMovesRedeemedTokens(t *testing.T) {
	ctx := context.Background()
	v := vm.NewVMWithSingletons(ctx, t)
	accounts := vm.CreateAccounts(t, v, 3, 1129)
	issuer, user, friend := accounts[0], accounts[1], accounts[2]
	tokenAddr := vm.DeployToken(t, v, "Token", "TKN",
		[]addr.Address{issuer.ID}, []abi.TokenAmount{abi.NewTokenAmount(100)})
	approve(t, v, issuer.ID, tokenAddr, builtin.VestingActorAddr, abi.NewTokenAmount(100))
	id := mintSchedule(t, v, issuer.ID, tokenAddr, user.ID, abi.NewTokenAmount(100), 10)

	v.SetEpoch(4)
	tutil.RequireBigEqual(t, abi.NewTokenAmount(40), redeemSchedule(t, v, user.ID, id))

	// Locked tokens are not spendable: the user holds only what was redeemed.
	vm.ApplyOk(t, v, user.ID, tokenAddr, builtin.MethodsToken.Transfer,
		&token.TransferParams{To: friend.PubKey, Amount: abi.NewTokenAmount(40)})
	vm.ApplyCode(t, v, user.ID, tokenAddr, builtin.MethodsToken.Transfer,
		&token.TransferParams{To: friend.ID, Amount: abi.NewTokenAmount(1)}, exitcode.ErrInsufficientFunds)

	assertBalance(t, v, user.ID, tokenAddr, friend.ID, 40)
	assertBalance(t, v, user.ID, tokenAddr, user.ID, 0)
	assertBalance(t, v, user.ID, tokenAddr, builtin.VestingActorAddr, 60)
	vm.AssertInvariants(t, v)
}
