package vesting

import (
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
)

// VestedAmount returns the part of a principal released by linear vesting over duration epochs,
// once elapsed epochs have passed since the start.
// The result is rounded down, is zero before the start, and is the whole principal from the end
// of the duration onwards.
func VestedAmount(principal abi.TokenAmount, duration, elapsed abi.ChainEpoch) abi.TokenAmount {
	if elapsed <= 0 {
		return big.Zero()
	}
	if elapsed >= duration {
		return principal
	}
	// principal * elapsed is computed at arbitrary precision, so cannot overflow.
	return big.Div(big.Mul(principal, big.NewInt(int64(elapsed))), big.NewInt(int64(duration)))
}

// RedeemableAmount returns the vested part of a schedule that has not yet been paid out at an epoch.
func RedeemableAmount(s *Schedule, now abi.ChainEpoch) abi.TokenAmount {
	return unredeemed(s.VestedAt(now), s.RedeemedAmount)
}

// unredeemed is vested less redeemed, or exactly big.Zero() when nothing is left.
func unredeemed(vested, redeemed abi.TokenAmount) abi.TokenAmount {
	rem := big.Sub(vested, redeemed)
	if rem.LessThanEqual(big.Zero()) {
		return big.Zero()
	}
	return rem
}
