package token

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	rtt "github.com/filecoin-project/go-state-types/rt"
	"github.com/ipfs/go-cid"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/runtime"
	"github.com/linear-vesting/vesting-actors/actors/util/adt"
)

// Token actor specific exit codes.
// These start above the vesting actor's codes, which propagates them unchanged from failed sends.
const firstTokenExitCode = exitcode.FirstActorSpecificExitCode + 32

const (
	// A spender attempted to transfer more than the owner has approved.
	ErrInsufficientAllowance = firstTokenExitCode + iota
)

// The token actor is a fungible token ledger. Vesting schedules lock and release funds held here.
type Actor struct{}

func (a Actor) Exports() []interface{} {
	return []interface{}{
		builtin.MethodConstructor: a.Constructor,
		2:                         a.Transfer,
		3:                         a.TransferFrom,
		4:                         a.Approve,
		5:                         a.Burn,
		6:                         a.BalanceOf,
		7:                         a.Allowance,
		8:                         a.Info,
	}
}

func (a Actor) Code() cid.Cid {
	return builtin.TokenActorCodeID
}

func (a Actor) IsSingleton() bool {
	return false
}

func (a Actor) State() cbor.Er {
	return new(State)
}

var _ runtime.VMActor = Actor{}

type ConstructorParams struct {
	Name    string
	Symbol  string
	Holders []addr.Address
	Amounts []abi.TokenAmount
}

func (a Actor) Constructor(rt runtime.Runtime, params *ConstructorParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerIs(builtin.SystemActorAddr)

	builtin.RequireParam(rt, len(params.Holders) == len(params.Amounts), "must have same number of mint addresses and amounts")
	builtin.RequireParam(rt, len(params.Name) <= MaxNameLength && len(params.Symbol) <= MaxNameLength,
		"name and symbol must be at most %d bytes", MaxNameLength)

	holders := make([]addr.Address, len(params.Holders))
	for i, holder := range params.Holders {
		if holder == addr.Undef {
			rt.Abortf(exitcode.ErrIllegalArgument, "cannot have a non-address as reserve")
		}
		resolved, ok := rt.ResolveAddress(holder)
		if !ok {
			rt.Abortf(exitcode.ErrIllegalArgument, "unable to resolve reserve address %v", holder)
		}
		holders[i] = resolved
		if params.Amounts[i].Nil() || params.Amounts[i].LessThan(big.Zero()) {
			rt.Abortf(exitcode.ErrIllegalArgument, "negative mint amount %v for %v", params.Amounts[i], holder)
		}
	}

	store := adt.AsStore(rt)
	st, err := ConstructState(store, params.Name, params.Symbol)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to construct state")
	for i, holder := range holders {
		err = st.Mint(store, holder, params.Amounts[i])
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to mint %v to %v", params.Amounts[i], holder)
	}
	rt.StateCreate(st)

	for i, holder := range holders {
		rt.EmitEvent(&TransferEvent{From: builtin.SystemActorAddr, To: holder, Amount: params.Amounts[i]})
	}
	rt.Log(builtin.GetActorLogLevel(a, rtt.INFO), "token %s constructed with supply %v", params.Symbol, st.TotalSupply)
	return nil
}

type TransferParams struct {
	To     addr.Address
	Amount abi.TokenAmount
}

// Moves tokens from the caller to a recipient.
func (a Actor) Transfer(rt runtime.Runtime, params *TransferParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerAcceptAny()
	to := resolveRecipient(rt, params.To)
	validateAmount(rt, params.Amount)

	from := rt.Caller()
	a.move(rt, from, to, params.Amount)
	return nil
}

type TransferFromParams struct {
	From   addr.Address
	To     addr.Address
	Amount abi.TokenAmount
}

// Moves tokens from an owner to a recipient, spending the allowance the owner granted the caller.
func (a Actor) TransferFrom(rt runtime.Runtime, params *TransferFromParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerAcceptAny()
	from := resolveParty(rt, params.From, "owner")
	to := resolveRecipient(rt, params.To)
	validateAmount(rt, params.Amount)

	spender := rt.Caller()
	var st State
	rt.StateTransaction(&st, func() {
		store := adt.AsStore(rt)
		spent, err := st.SpendAllowance(store, from, spender, params.Amount)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to spend allowance")
		if !spent {
			allowed, err := st.Allowance(store, from, spender)
			builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to load allowance")
			rt.Abortf(ErrInsufficientAllowance, "spender %v allowance %v from %v less than %v", spender, allowed, from, params.Amount)
		}
		a.moveInTransaction(rt, &st, from, to, params.Amount)
	})
	rt.EmitEvent(&TransferEvent{From: from, To: to, Amount: params.Amount})
	return nil
}

type ApproveParams struct {
	Spender addr.Address
	Amount  abi.TokenAmount
}

// Sets the amount a spender may transfer on the caller's behalf, replacing any prior approval.
func (a Actor) Approve(rt runtime.Runtime, params *ApproveParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerAcceptAny()
	spender := resolveParty(rt, params.Spender, "spender")
	validateAmount(rt, params.Amount)

	owner := rt.Caller()
	var st State
	rt.StateTransaction(&st, func() {
		err := st.SetAllowance(adt.AsStore(rt), owner, spender, params.Amount)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to set allowance")
	})
	rt.EmitEvent(&ApprovalEvent{Owner: owner, Spender: spender, Amount: params.Amount})
	return nil
}

type BurnParams struct {
	Amount abi.TokenAmount
}

// Destroys tokens held by the caller.
func (a Actor) Burn(rt runtime.Runtime, params *BurnParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerAcceptAny()
	validateAmount(rt, params.Amount)

	holder := rt.Caller()
	var st State
	rt.StateTransaction(&st, func() {
		burnt, err := st.Burn(adt.AsStore(rt), holder, params.Amount)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to burn")
		if !burnt {
			rt.Abortf(exitcode.ErrInsufficientFunds, "cannot burn %v, balance of %v is too low", params.Amount, holder)
		}
	})
	rt.EmitEvent(&TransferEvent{From: holder, To: builtin.BurntTokensActorAddr, Amount: params.Amount})
	return nil
}

func (a Actor) BalanceOf(rt runtime.Runtime, holder *addr.Address) *abi.TokenAmount {
	rt.ValidateImmediateCallerAcceptAny()
	resolved, ok := rt.ResolveAddress(*holder)
	if !ok {
		zero := big.Zero()
		return &zero
	}

	var st State
	rt.StateReadonly(&st)
	balance, err := st.BalanceOf(adt.AsStore(rt), resolved)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to load balance of %v", resolved)
	return &balance
}

type AllowanceParams struct {
	Owner   addr.Address
	Spender addr.Address
}

func (a Actor) Allowance(rt runtime.Runtime, params *AllowanceParams) *abi.TokenAmount {
	rt.ValidateImmediateCallerAcceptAny()
	owner := resolveParty(rt, params.Owner, "owner")
	spender := resolveParty(rt, params.Spender, "spender")

	var st State
	rt.StateReadonly(&st)
	allowed, err := st.Allowance(adt.AsStore(rt), owner, spender)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to load allowance")
	return &allowed
}

type InfoReturn struct {
	Name        string
	Symbol      string
	Decimals    uint64
	TotalSupply abi.TokenAmount
}

func (a Actor) Info(rt runtime.Runtime, _ *abi.EmptyValue) *InfoReturn {
	rt.ValidateImmediateCallerAcceptAny()
	var st State
	rt.StateReadonly(&st)
	return &InfoReturn{
		Name:        st.Name,
		Symbol:      st.Symbol,
		Decimals:    st.Decimals,
		TotalSupply: st.TotalSupply,
	}
}

func (a Actor) move(rt runtime.Runtime, from, to addr.Address, amount abi.TokenAmount) {
	var st State
	rt.StateTransaction(&st, func() {
		a.moveInTransaction(rt, &st, from, to, amount)
	})
	rt.EmitEvent(&TransferEvent{From: from, To: to, Amount: amount})
}

func (a Actor) moveInTransaction(rt runtime.Runtime, st *State, from, to addr.Address, amount abi.TokenAmount) {
	moved, err := st.Move(adt.AsStore(rt), from, to, amount)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to move %v from %v to %v", amount, from, to)
	if !moved {
		rt.Abortf(exitcode.ErrInsufficientFunds, "cannot transfer %v, balance of %v is too low", amount, from)
	}
	rt.Log(builtin.GetActorLogLevel(a, rtt.DEBUG), "moved %v from %v to %v", amount, from, to)
}

func resolveParty(rt runtime.Runtime, raw addr.Address, role string) addr.Address {
	if raw == addr.Undef {
		rt.Abortf(exitcode.ErrIllegalArgument, "%s address is undefined", role)
	}
	resolved, ok := rt.ResolveAddress(raw)
	if !ok {
		rt.Abortf(exitcode.ErrNotFound, "unable to resolve %s address %v", role, raw)
	}
	return resolved
}

// Tokens reach the burnt tokens sink only through Burn, which also reduces the supply.
func resolveRecipient(rt runtime.Runtime, raw addr.Address) addr.Address {
	to := resolveParty(rt, raw, "recipient")
	if to == builtin.BurntTokensActorAddr {
		rt.Abortf(exitcode.ErrIllegalArgument, "cannot transfer to the burnt tokens sink %v", to)
	}
	return to
}

func validateAmount(rt runtime.Runtime, amount abi.TokenAmount) {
	if amount.Nil() || amount.LessThan(big.Zero()) {
		rt.Abortf(exitcode.ErrIllegalArgument, "amount %v must be non-negative", amount)
	}
}
