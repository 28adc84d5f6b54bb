package vesting_test

import (
	"bytes"
	"fmt"
	gbig "math/big"
	"testing"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/xorcare/golden"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/builtin/vesting"
	tutil "github.com/linear-vesting/vesting-actors/support/testing"
)

func TestVestedAmount(t *testing.T) {
	principal := abi.NewTokenAmount(100)
	duration := abi.ChainEpoch(50 * builtin.EpochsInDay)

	t.Run("nothing vests at the start", func(t *testing.T) {
		tutil.AssertBigEqual(t, big.Zero(), vesting.VestedAmount(principal, duration, 0))
	})

	t.Run("negative elapsed is treated as zero", func(t *testing.T) {
		tutil.AssertBigEqual(t, big.Zero(), vesting.VestedAmount(principal, duration, -1))
	})

	t.Run("everything vests at and after the end", func(t *testing.T) {
		assert.Equal(t, principal, vesting.VestedAmount(principal, duration, duration))
		assert.Equal(t, principal, vesting.VestedAmount(principal, duration, duration+1))
		assert.Equal(t, principal, vesting.VestedAmount(principal, duration, 10*duration))
	})

	t.Run("rounds down", func(t *testing.T) {
		tutil.AssertBigEqual(t, abi.NewTokenAmount(33), vesting.VestedAmount(abi.NewTokenAmount(100), 3, 1))
		tutil.AssertBigEqual(t, abi.NewTokenAmount(66), vesting.VestedAmount(abi.NewTokenAmount(100), 3, 2))
		tutil.AssertBigEqual(t, big.Zero(), vesting.VestedAmount(abi.NewTokenAmount(1), 2, 1))
	})

	t.Run("monotonic in elapsed", func(t *testing.T) {
		p := abi.NewTokenAmount(997)
		d := abi.ChainEpoch(113)
		prev := big.Zero()
		for e := abi.ChainEpoch(-5); e < d+5; e++ {
			v := vesting.VestedAmount(p, d, e)
			assert.True(t, v.GreaterThanEqual(prev), "vested decreased at %d: %v < %v", e, v, prev)
			assert.True(t, v.LessThanEqual(p))
			prev = v
		}
	})

	t.Run("product exceeding 64 bits does not overflow", func(t *testing.T) {
		p := big.Lsh(big.NewInt(1), 100)
		d := abi.ChainEpoch(1 << 40)
		v := vesting.VestedAmount(p, d, d/2)
		tutil.AssertBigEqual(t, big.Lsh(big.NewInt(1), 99), v)
	})
}

func TestRedeemableAmount(t *testing.T) {
	sched := vesting.Schedule{
		TotalAmount:    abi.NewTokenAmount(100),
		Duration:       50,
		StartEpoch:     10,
		RedeemedAmount: big.Zero(),
	}

	tutil.AssertBigEqual(t, big.Zero(), vesting.RedeemableAmount(&sched, 5))
	tutil.AssertBigEqual(t, big.Zero(), vesting.RedeemableAmount(&sched, 10))
	tutil.AssertBigEqual(t, abi.NewTokenAmount(20), vesting.RedeemableAmount(&sched, 20))

	sched.RedeemedAmount = abi.NewTokenAmount(20)
	tutil.AssertBigEqual(t, big.Zero(), vesting.RedeemableAmount(&sched, 20))
	// Nothing left is always the canonical zero, whatever arithmetic produced it.
	assert.Equal(t, big.Zero(), vesting.RedeemableAmount(&sched, 20))
	tutil.AssertBigEqual(t, abi.NewTokenAmount(80), vesting.RedeemableAmount(&sched, 60))
	tutil.AssertBigEqual(t, abi.NewTokenAmount(80), vesting.RedeemableAmount(&sched, 1000))
	assert.Equal(t, abi.ChainEpoch(60), sched.EndEpoch())
}

func TestVestedAmountDailyCurve(t *testing.T) {
	principal := abi.NewTokenAmount(100)
	long := abi.ChainEpoch(50 * builtin.EpochsInDay)
	short := abi.ChainEpoch(40 * builtin.EpochsInDay)

	b := &bytes.Buffer{}
	b.WriteString("elapsed_days, vested_50d, vested_40d\n")
	for day := int64(0); day <= 55; day++ {
		elapsed := abi.ChainEpoch(day * builtin.EpochsInDay)
		fmt.Fprintf(b, "%d,%s,%s\n", day,
			vesting.VestedAmount(principal, long, elapsed),
			vesting.VestedAmount(principal, short, elapsed))
	}

	golden.Assert(t, b.Bytes())
}

func TestVestedAmountLargePrincipal(t *testing.T) {
	principal := big.NewFromGo(new(gbig.Int).Exp(gbig.NewInt(10), gbig.NewInt(30), nil))

	b := &bytes.Buffer{}
	b.WriteString("elapsed, vested\n")
	for elapsed := abi.ChainEpoch(-1); elapsed <= 8; elapsed++ {
		fmt.Fprintf(b, "%d,%s\n", elapsed, vesting.VestedAmount(principal, 7, elapsed))
	}

	golden.Assert(t, b.Bytes())
}
