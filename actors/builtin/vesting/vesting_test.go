package vesting_test

import (
	"testing"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/builtin/token"
	"github.com/linear-vesting/vesting-actors/actors/builtin/vesting"
	"github.com/linear-vesting/vesting-actors/actors/util/adt"
	"github.com/linear-vesting/vesting-actors/support/mock"
	tutil "github.com/linear-vesting/vesting-actors/support/testing"
)

const day = abi.ChainEpoch(builtin.EpochsInDay)

func TestExports(t *testing.T) {
	mock.CheckActorExports(t, vesting.Actor{})
}

func TestConstruction(t *testing.T) {
	actor := vesting.Actor{}

	t.Run("simple construction", func(t *testing.T) {
		rt := mock.NewBuilder(builtin.VestingActorAddr).
			WithCaller(builtin.SystemActorAddr, builtin.SystemActorCodeID).
			Build(t)
		rt.ExpectValidateCallerAddr(builtin.SystemActorAddr)
		ret := rt.Call(actor.Constructor, nil)
		assert.Nil(t, ret)
		rt.Verify()

		var st vesting.State
		rt.GetState(&st)
		assert.Equal(t, vesting.ScheduleID(0), st.NextScheduleID)

		store := adt.AsStore(rt)
		schedules, err := adt.AsArray(store, st.Schedules, vesting.SchedulesAmtBitwidth)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), schedules.Length())

		beneficiaries, err := adt.AsMap(store, st.Beneficiaries, vesting.BeneficiariesHamtBitwidth)
		require.NoError(t, err)
		keys, err := beneficiaries.CollectKeys()
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("fails when not called by the system", func(t *testing.T) {
		rt := mock.NewBuilder(builtin.VestingActorAddr).
			WithCaller(tutil.NewIDAddr(t, 101), builtin.AccountActorCodeID).
			Build(t)
		rt.ExpectValidateCallerAddr(builtin.SystemActorAddr)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(actor.Constructor, nil)
		})
		rt.Verify()
	})
}

func TestMint(t *testing.T) {
	issuer := tutil.NewIDAddr(t, 100)
	user1 := tutil.NewIDAddr(t, 101)
	user2 := tutil.NewIDAddr(t, 102)
	tokenAddr := tutil.NewIDAddr(t, 1000)

	setup := func(t *testing.T) (*mock.Runtime, *actorHarness) {
		rt := mock.NewBuilder(builtin.VestingActorAddr).
			WithActorType(tokenAddr, builtin.TokenActorCodeID).
			WithActorType(issuer, builtin.AccountActorCodeID).
			WithActorType(user1, builtin.AccountActorCodeID).
			WithActorType(user2, builtin.AccountActorCodeID).
			Build(t)
		h := newHarness(t, tokenAddr)
		h.constructAndVerify(rt)
		return rt, h
	}

	t.Run("allocates sequential ids", func(t *testing.T) {
		rt, h := setup(t)
		rt.SetEpoch(7)

		id0 := h.mint(rt, issuer, user1, 100, 50*day)
		id1 := h.mint(rt, issuer, user2, 100, 40*day)
		assert.Equal(t, vesting.ScheduleID(0), id0)
		assert.Equal(t, vesting.ScheduleID(1), id1)

		info := h.getSchedule(rt, id0)
		assert.Equal(t, tokenAddr, info.Schedule.Token)
		assert.Equal(t, user1, info.Schedule.Beneficiary)
		tutil.AssertBigEqual(t, abi.NewTokenAmount(100), info.Schedule.TotalAmount)
		assert.Equal(t, 50*day, info.Schedule.Duration)
		assert.Equal(t, abi.ChainEpoch(7), info.Schedule.StartEpoch)
		tutil.AssertBigEqual(t, big.Zero(), info.Schedule.RedeemedAmount)
		tutil.AssertBigEqual(t, big.Zero(), info.Vested)
		tutil.AssertBigEqual(t, big.Zero(), info.Redeemable)

		summary := h.checkState(rt)
		assert.Equal(t, uint64(2), summary.ScheduleCount)
		tutil.AssertBigEqual(t, abi.NewTokenAmount(200), summary.Outstanding[tokenAddr])
	})

	t.Run("logs the new schedule", func(t *testing.T) {
		rt, h := setup(t)
		rt.ExpectLogsContain("schedule 0 locks 100")
		h.mint(rt, issuer, user1, 100, 50*day)
		rt.Verify()
	})

	t.Run("resolves non-id beneficiaries", func(t *testing.T) {
		rt, h := setup(t)
		pubkey := tutil.NewBLSAddr(t, 1)
		rt.AddIDAddress(pubkey, user1)

		rt.SetCaller(issuer, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
		rt.ExpectSend(tokenAddr, builtin.MethodsToken.TransferFrom,
			&token.TransferFromParams{From: issuer, To: builtin.VestingActorAddr, Amount: abi.NewTokenAmount(10)}, nil, exitcode.Ok)
		rt.ExpectEmitted(&vesting.MintedEvent{Token: tokenAddr, Beneficiary: user1, Amount: abi.NewTokenAmount(10), Duration: day})
		rt.Call(h.a.Mint, &vesting.MintParams{Token: tokenAddr, Beneficiary: pubkey, Amount: abi.NewTokenAmount(10), Duration: day})
		rt.Verify()

		assert.Equal(t, []vesting.ScheduleID{0}, h.schedulesOf(rt, user1))
		assert.Equal(t, []vesting.ScheduleID{0}, h.schedulesOf(rt, pubkey))
	})

	rejections := []struct {
		desc     string
		params   func(t *testing.T) vesting.MintParams
		exitCode exitcode.ExitCode
	}{{
		desc: "undefined token",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: addr.Undef, Beneficiary: user1, Amount: abi.NewTokenAmount(100), Duration: day}
		},
		exitCode: vesting.ErrInvalidToken,
	}, {
		desc: "unresolvable token",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: tutil.NewActorAddr(t, "token"), Beneficiary: user1, Amount: abi.NewTokenAmount(100), Duration: day}
		},
		exitCode: vesting.ErrInvalidToken,
	}, {
		desc: "token address holding another actor",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: issuer, Beneficiary: user1, Amount: abi.NewTokenAmount(100), Duration: day}
		},
		exitCode: vesting.ErrInvalidToken,
	}, {
		desc: "undefined beneficiary",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: tokenAddr, Beneficiary: addr.Undef, Amount: abi.NewTokenAmount(100), Duration: day}
		},
		exitCode: vesting.ErrInvalidBeneficiary,
	}, {
		desc: "unresolvable beneficiary",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: tokenAddr, Beneficiary: tutil.NewSECP256K1Addr(t, "nobody"), Amount: abi.NewTokenAmount(100), Duration: day}
		},
		exitCode: vesting.ErrInvalidBeneficiary,
	}, {
		desc: "beneficiary id with no actor",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: tokenAddr, Beneficiary: tutil.NewIDAddr(t, 555), Amount: abi.NewTokenAmount(100), Duration: day}
		},
		exitCode: vesting.ErrInvalidBeneficiary,
	}, {
		desc: "burnt tokens sink as beneficiary",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: tokenAddr, Beneficiary: builtin.BurntTokensActorAddr, Amount: abi.NewTokenAmount(100), Duration: day}
		},
		exitCode: vesting.ErrInvalidBeneficiary,
	}, {
		desc: "token actor as beneficiary",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: tokenAddr, Beneficiary: tokenAddr, Amount: abi.NewTokenAmount(100), Duration: day}
		},
		exitCode: vesting.ErrInvalidBeneficiary,
	}, {
		desc: "zero amount",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: tokenAddr, Beneficiary: user1, Amount: big.Zero(), Duration: day}
		},
		exitCode: vesting.ErrInvalidAmount,
	}, {
		desc: "negative amount",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: tokenAddr, Beneficiary: user1, Amount: abi.NewTokenAmount(-1), Duration: day}
		},
		exitCode: vesting.ErrInvalidAmount,
	}, {
		desc: "nil amount",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: tokenAddr, Beneficiary: user1, Amount: big.Int{}, Duration: day}
		},
		exitCode: vesting.ErrInvalidAmount,
	}, {
		desc: "zero duration",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: tokenAddr, Beneficiary: user1, Amount: abi.NewTokenAmount(100), Duration: 0}
		},
		exitCode: vesting.ErrInvalidDuration,
	}, {
		desc: "negative duration",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: tokenAddr, Beneficiary: user1, Amount: abi.NewTokenAmount(100), Duration: -day}
		},
		exitCode: vesting.ErrInvalidDuration,
	}, {
		desc: "token checked before beneficiary, amount and duration",
		params: func(t *testing.T) vesting.MintParams {
			return vesting.MintParams{Token: addr.Undef, Beneficiary: addr.Undef, Amount: big.Zero(), Duration: 0}
		},
		exitCode: vesting.ErrInvalidToken,
	}}
	for _, tc := range rejections {
		t.Run("rejects "+tc.desc, func(t *testing.T) {
			rt, h := setup(t)
			before := rt.StateRoot()

			params := tc.params(t)
			rt.SetCaller(issuer, builtin.AccountActorCodeID)
			rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
			rt.ExpectAbort(tc.exitCode, func() {
				rt.Call(h.a.Mint, &params)
			})
			rt.Verify()
			assert.Equal(t, before, rt.StateRoot())
		})
	}

	t.Run("propagates failure to lock tokens and consumes no id", func(t *testing.T) {
		rt, h := setup(t)

		rt.SetCaller(issuer, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
		rt.ExpectSend(tokenAddr, builtin.MethodsToken.TransferFrom,
			&token.TransferFromParams{From: issuer, To: builtin.VestingActorAddr, Amount: abi.NewTokenAmount(100)}, nil, token.ErrInsufficientAllowance)
		rt.ExpectAbort(token.ErrInsufficientAllowance, func() {
			rt.Call(h.a.Mint, &vesting.MintParams{Token: tokenAddr, Beneficiary: user1, Amount: abi.NewTokenAmount(100), Duration: day})
		})
		rt.Verify()

		id := h.mint(rt, issuer, user1, 100, day)
		assert.Equal(t, vesting.ScheduleID(0), id)
		h.checkState(rt)
	})

	t.Run("rejects callers that cannot sign", func(t *testing.T) {
		rt, h := setup(t)

		rt.SetCaller(tokenAddr, builtin.TokenActorCodeID)
		rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(h.a.Mint, &vesting.MintParams{Token: tokenAddr, Beneficiary: user1, Amount: abi.NewTokenAmount(100), Duration: day})
		})
		rt.Verify()
	})
}

func TestRedeem(t *testing.T) {
	issuer := tutil.NewIDAddr(t, 100)
	user1 := tutil.NewIDAddr(t, 101)
	user2 := tutil.NewIDAddr(t, 102)
	user3 := tutil.NewIDAddr(t, 103)
	tokenAddr := tutil.NewIDAddr(t, 1000)

	setup := func(t *testing.T) (*mock.Runtime, *actorHarness) {
		rt := mock.NewBuilder(builtin.VestingActorAddr).
			WithActorType(tokenAddr, builtin.TokenActorCodeID).
			WithActorType(user1, builtin.AccountActorCodeID).
			WithActorType(user2, builtin.AccountActorCodeID).
			Build(t)
		h := newHarness(t, tokenAddr)
		h.constructAndVerify(rt)
		return rt, h
	}

	t.Run("linear release over two schedules", func(t *testing.T) {
		rt, h := setup(t)
		id0 := h.mint(rt, issuer, user1, 100, 50*day)
		id1 := h.mint(rt, issuer, user2, 100, 40*day)

		rt.SetEpoch(10 * day)
		h.redeem(rt, user1, id0, 20)
		h.redeem(rt, user2, id1, 25)
		h.checkState(rt)

		rt.SetEpoch(30 * day)
		h.redeem(rt, user1, id0, 40)
		h.redeem(rt, user2, id1, 50)
		h.checkState(rt)

		info := h.getSchedule(rt, id0)
		tutil.AssertBigEqual(t, abi.NewTokenAmount(60), info.Schedule.RedeemedAmount)
		tutil.AssertBigEqual(t, abi.NewTokenAmount(60), info.Vested)
		tutil.AssertBigEqual(t, big.Zero(), info.Redeemable)
	})

	t.Run("redeem at the start pays nothing and sends nothing", func(t *testing.T) {
		rt, h := setup(t)
		id := h.mint(rt, issuer, user1, 100, 50*day)

		h.redeem(rt, user1, id, 0)
		info := h.getSchedule(rt, id)
		tutil.AssertBigEqual(t, big.Zero(), info.Schedule.RedeemedAmount)
	})

	t.Run("second redeem in the same epoch pays nothing", func(t *testing.T) {
		rt, h := setup(t)
		id := h.mint(rt, issuer, user1, 100, 50*day)

		rt.SetEpoch(10 * day)
		h.redeem(rt, user1, id, 20)
		h.redeem(rt, user1, id, 0)
		h.redeem(rt, user1, id, 0)
		h.checkState(rt)
	})

	t.Run("redeem after the end pays the remainder", func(t *testing.T) {
		rt, h := setup(t)
		id := h.mint(rt, issuer, user1, 100, 3)

		rt.SetEpoch(1)
		h.redeem(rt, user1, id, 33)
		rt.SetEpoch(1000)
		h.redeem(rt, user1, id, 67)
		rt.SetEpoch(2000)
		h.redeem(rt, user1, id, 0)

		summary := h.checkState(rt)
		tutil.AssertBigEqual(t, big.Zero(), summary.Outstanding[tokenAddr])
	})

	t.Run("payouts sum to the vested amount", func(t *testing.T) {
		rt, h := setup(t)
		duration := abi.ChainEpoch(97)
		id := h.mint(rt, issuer, user1, 1000, duration)

		total := big.Zero()
		for _, epoch := range []abi.ChainEpoch{3, 10, 11, 50, 51, 96} {
			rt.SetEpoch(epoch)
			info := h.getSchedule(rt, id)
			paid := h.redeem(rt, user1, id, info.Redeemable.Int64())
			total = big.Add(total, paid)
			tutil.AssertBigEqual(t, vesting.VestedAmount(abi.NewTokenAmount(1000), duration, epoch), total)
		}
		h.checkState(rt)
	})

	t.Run("schedules of one beneficiary are independent", func(t *testing.T) {
		rt, h := setup(t)
		idA := h.mint(rt, issuer, user1, 100, 10*day)
		idB := h.mint(rt, issuer, user1, 100, 20*day)

		rt.SetEpoch(5 * day)
		h.redeem(rt, user1, idA, 50)

		infoB := h.getSchedule(rt, idB)
		tutil.AssertBigEqual(t, big.Zero(), infoB.Schedule.RedeemedAmount)
		tutil.AssertBigEqual(t, abi.NewTokenAmount(25), infoB.Redeemable)

		h.redeem(rt, user1, idB, 25)
		assert.Equal(t, []vesting.ScheduleID{idA, idB}, h.schedulesOf(rt, user1))
	})

	t.Run("fails for unknown schedule", func(t *testing.T) {
		rt, h := setup(t)
		h.mint(rt, issuer, user1, 100, 50*day)

		rt.SetCaller(user1, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
		rt.ExpectAbort(vesting.ErrUnknownSchedule, func() {
			rt.Call(h.a.Redeem, &vesting.RedeemParams{ScheduleID: 5})
		})
		rt.Verify()
	})

	t.Run("fails for callers other than the beneficiary", func(t *testing.T) {
		rt, h := setup(t)
		id0 := h.mint(rt, issuer, user1, 100, 50*day)
		id1 := h.mint(rt, issuer, user2, 100, 40*day)
		rt.SetEpoch(10 * day)

		for _, c := range []struct {
			caller addr.Address
			id     vesting.ScheduleID
		}{{user1, id1}, {user2, id0}, {user3, id0}, {user3, id1}, {issuer, id0}} {
			rt.SetCaller(c.caller, builtin.AccountActorCodeID)
			rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
			rt.ExpectAbort(vesting.ErrNotBeneficiary, func() {
				rt.Call(h.a.Redeem, &vesting.RedeemParams{ScheduleID: c.id})
			})
			rt.Verify()
		}
		h.checkState(rt)
	})

	t.Run("failed payout leaves the schedule unchanged", func(t *testing.T) {
		rt, h := setup(t)
		id := h.mint(rt, issuer, user1, 100, 50*day)
		rt.SetEpoch(10 * day)
		before := rt.StateRoot()

		rt.SetCaller(user1, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
		rt.ExpectSend(tokenAddr, builtin.MethodsToken.Transfer,
			&token.TransferParams{To: user1, Amount: abi.NewTokenAmount(20)}, nil, exitcode.ErrInsufficientFunds)
		rt.ExpectAbort(exitcode.ErrInsufficientFunds, func() {
			rt.Call(h.a.Redeem, &vesting.RedeemParams{ScheduleID: id})
		})
		rt.Verify()

		assert.Equal(t, before, rt.StateRoot())
		info := h.getSchedule(rt, id)
		tutil.AssertBigEqual(t, big.Zero(), info.Schedule.RedeemedAmount)

		h.redeem(rt, user1, id, 20)
	})
}

func TestSchedulesOf(t *testing.T) {
	issuer := tutil.NewIDAddr(t, 100)
	user1 := tutil.NewIDAddr(t, 101)
	user2 := tutil.NewIDAddr(t, 102)
	tokenAddr := tutil.NewIDAddr(t, 1000)

	rt := mock.NewBuilder(builtin.VestingActorAddr).
		WithActorType(tokenAddr, builtin.TokenActorCodeID).
		WithActorType(user1, builtin.AccountActorCodeID).
		WithActorType(user2, builtin.AccountActorCodeID).
		Build(t)
	h := newHarness(t, tokenAddr)
	h.constructAndVerify(rt)

	assert.Equal(t, []vesting.ScheduleID{}, h.schedulesOf(rt, user1))
	assert.Equal(t, []vesting.ScheduleID{}, h.schedulesOf(rt, tutil.NewSECP256K1Addr(t, "unknown")))

	for i := 0; i < 10; i++ {
		beneficiary := user1
		if i%3 == 0 {
			beneficiary = user2
		}
		h.mint(rt, issuer, beneficiary, 10, day)
	}

	assert.Equal(t, []vesting.ScheduleID{1, 2, 4, 5, 7, 8}, h.schedulesOf(rt, user1))
	assert.Equal(t, []vesting.ScheduleID{0, 3, 6, 9}, h.schedulesOf(rt, user2))
	h.checkState(rt)
}

func TestGetScheduleUnknown(t *testing.T) {
	rt := mock.NewBuilder(builtin.VestingActorAddr).Build(t)
	h := newHarness(t, tutil.NewIDAddr(t, 1000))
	h.constructAndVerify(rt)

	rt.ExpectValidateCallerAny()
	rt.ExpectAbort(vesting.ErrUnknownSchedule, func() {
		rt.Call(h.a.GetSchedule, &vesting.GetScheduleParams{ScheduleID: 0})
	})
	rt.Verify()
}

type actorHarness struct {
	a         vesting.Actor
	t         testing.TB
	tokenAddr addr.Address
}

func newHarness(t testing.TB, tokenAddr addr.Address) *actorHarness {
	return &actorHarness{
		a:         vesting.Actor{},
		t:         t,
		tokenAddr: tokenAddr,
	}
}

func (h *actorHarness) constructAndVerify(rt *mock.Runtime) {
	rt.SetCaller(builtin.SystemActorAddr, builtin.SystemActorCodeID)
	rt.ExpectValidateCallerAddr(builtin.SystemActorAddr)
	ret := rt.Call(h.a.Constructor, nil)
	assert.Nil(h.t, ret)
	rt.Verify()
}

func (h *actorHarness) mint(rt *mock.Runtime, issuer, beneficiary addr.Address, amount int64, duration abi.ChainEpoch) vesting.ScheduleID {
	rt.SetCaller(issuer, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
	rt.ExpectSend(h.tokenAddr, builtin.MethodsToken.TransferFrom,
		&token.TransferFromParams{From: issuer, To: builtin.VestingActorAddr, Amount: abi.NewTokenAmount(amount)}, nil, exitcode.Ok)
	rt.ExpectEmitted(&vesting.MintedEvent{
		Token:       h.tokenAddr,
		Beneficiary: beneficiary,
		Amount:      abi.NewTokenAmount(amount),
		Duration:    duration,
	})

	ret := rt.Call(h.a.Mint, &vesting.MintParams{
		Token:       h.tokenAddr,
		Beneficiary: beneficiary,
		Amount:      abi.NewTokenAmount(amount),
		Duration:    duration,
	}).(*vesting.MintReturn)
	rt.Verify()
	return ret.ScheduleID
}

func (h *actorHarness) redeem(rt *mock.Runtime, beneficiary addr.Address, id vesting.ScheduleID, expected int64) abi.TokenAmount {
	rt.SetCaller(beneficiary, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
	if expected > 0 {
		rt.ExpectSend(h.tokenAddr, builtin.MethodsToken.Transfer,
			&token.TransferParams{To: beneficiary, Amount: abi.NewTokenAmount(expected)}, nil, exitcode.Ok)
	}
	rt.ExpectEmitted(&vesting.RedeemedEvent{
		ScheduleID:  id,
		Beneficiary: beneficiary,
		Amount:      abi.NewTokenAmount(expected),
	})

	ret := rt.Call(h.a.Redeem, &vesting.RedeemParams{ScheduleID: id}).(*abi.TokenAmount)
	rt.Verify()
	tutil.AssertBigEqual(h.t, abi.NewTokenAmount(expected), *ret)
	return *ret
}

func (h *actorHarness) getSchedule(rt *mock.Runtime, id vesting.ScheduleID) *vesting.ScheduleInfo {
	rt.ExpectValidateCallerAny()
	ret := rt.Call(h.a.GetSchedule, &vesting.GetScheduleParams{ScheduleID: id}).(*vesting.ScheduleInfo)
	rt.Verify()
	return ret
}

func (h *actorHarness) schedulesOf(rt *mock.Runtime, beneficiary addr.Address) []vesting.ScheduleID {
	rt.ExpectValidateCallerAny()
	ret := rt.Call(h.a.SchedulesOf, &beneficiary).(*vesting.SchedulesOfReturn)
	rt.Verify()
	return ret.ScheduleIDs
}

func (h *actorHarness) checkState(rt *mock.Runtime) *vesting.StateSummary {
	var st vesting.State
	rt.GetState(&st)
	summary, msgs := vesting.CheckStateInvariants(&st, adt.AsStore(rt), rt.GetEpoch())
	require.True(h.t, msgs.IsEmpty(), msgs.Messages())
	return summary
}
