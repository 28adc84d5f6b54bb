package main

import (
	gen "github.com/whyrusleeping/cbor-gen"

	"github.com/linear-vesting/vesting-actors/actors/builtin/account"
	"github.com/linear-vesting/vesting-actors/actors/builtin/system"
	"github.com/linear-vesting/vesting-actors/actors/builtin/token"
	"github.com/linear-vesting/vesting-actors/actors/builtin/vesting"
	"github.com/linear-vesting/vesting-actors/actors/states"
)

func main() {
	// State tree
	if err := gen.WriteTupleEncodersToFile("./actors/states/cbor_gen.go", "states",
		states.Actor{},
		states.StateRoot{},
	); err != nil {
		panic(err)
	}

	// Actors
	if err := gen.WriteTupleEncodersToFile("./actors/builtin/system/cbor_gen.go", "system",
		// actor state
		system.State{},
	); err != nil {
		panic(err)
	}

	if err := gen.WriteTupleEncodersToFile("./actors/builtin/account/cbor_gen.go", "account",
		// actor state
		account.State{},
	); err != nil {
		panic(err)
	}

	if err := gen.WriteTupleEncodersToFile("./actors/builtin/token/cbor_gen.go", "token",
		// actor state
		token.State{},
		// method params and returns
		token.ConstructorParams{},
		token.TransferParams{},
		token.TransferFromParams{},
		token.ApproveParams{},
		token.BurnParams{},
		token.AllowanceParams{},
		token.InfoReturn{},
		// events
		token.TransferEvent{},
		token.ApprovalEvent{},
	); err != nil {
		panic(err)
	}

	if err := gen.WriteTupleEncodersToFile("./actors/builtin/vesting/cbor_gen.go", "vesting",
		// actor state
		vesting.State{},
		vesting.Schedule{},
		// method params and returns
		vesting.MintParams{},
		vesting.MintReturn{},
		vesting.RedeemParams{},
		vesting.GetScheduleParams{},
		vesting.ScheduleInfo{},
		vesting.SchedulesOfReturn{},
		// events
		vesting.MintedEvent{},
		vesting.RedeemedEvent{},
	); err != nil {
		panic(err)
	}
}
