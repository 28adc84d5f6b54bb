package vesting

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"

	"github.com/linear-vesting/vesting-actors/actors/runtime"
)

// Records the creation of a schedule.
type MintedEvent struct {
	Token       addr.Address
	Beneficiary addr.Address
	Amount      abi.TokenAmount
	Duration    abi.ChainEpoch
}

func (e *MintedEvent) EventName() string { return "Minted" }

// Records a redemption, including redemptions that paid nothing.
type RedeemedEvent struct {
	ScheduleID  ScheduleID
	Beneficiary addr.Address
	Amount      abi.TokenAmount
}

func (e *RedeemedEvent) EventName() string { return "Redeemed" }

var _ runtime.Event = (*MintedEvent)(nil)
var _ runtime.Event = (*RedeemedEvent)(nil)
