package token

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"

	"github.com/linear-vesting/vesting-actors/actors/runtime"
)

// Records a movement of tokens. Mints are recorded as transfers from the system actor
// and burns as transfers to the burnt tokens sink.
type TransferEvent struct {
	From   addr.Address
	To     addr.Address
	Amount abi.TokenAmount
}

func (e *TransferEvent) EventName() string { return "Transfer" }

// Records a change of the amount an owner has approved a spender to transfer.
type ApprovalEvent struct {
	Owner   addr.Address
	Spender addr.Address
	Amount  abi.TokenAmount
}

func (e *ApprovalEvent) EventName() string { return "Approval" }

var _ runtime.Event = (*TransferEvent)(nil)
var _ runtime.Event = (*ApprovalEvent)(nil)
