package builtin

import (
	abi "github.com/filecoin-project/go-state-types/abi"
)

const (
	MethodSend        = abi.MethodNum(0)
	MethodConstructor = abi.MethodNum(1)
)

var MethodsAccount = struct {
	Constructor   abi.MethodNum
	PubkeyAddress abi.MethodNum
}{MethodConstructor, 2}

var MethodsToken = struct {
	Constructor  abi.MethodNum
	Transfer     abi.MethodNum
	TransferFrom abi.MethodNum
	Approve      abi.MethodNum
	Burn         abi.MethodNum
	BalanceOf    abi.MethodNum
	Allowance    abi.MethodNum
	Info         abi.MethodNum
}{MethodConstructor, 2, 3, 4, 5, 6, 7, 8}

var MethodsVesting = struct {
	Constructor abi.MethodNum
	Mint        abi.MethodNum
	Redeem      abi.MethodNum
	GetSchedule abi.MethodNum
	SchedulesOf abi.MethodNum
}{MethodConstructor, 2, 3, 4, 5}
