package vesting

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	rtt "github.com/filecoin-project/go-state-types/rt"
	"github.com/ipfs/go-cid"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/builtin/token"
	"github.com/linear-vesting/vesting-actors/actors/runtime"
	"github.com/linear-vesting/vesting-actors/actors/util/adt"
)

// Vesting actor specific exit codes.
const (
	ErrInvalidToken = exitcode.FirstActorSpecificExitCode + iota
	ErrInvalidBeneficiary
	ErrInvalidAmount
	ErrInvalidDuration
	ErrUnknownSchedule
	ErrNotBeneficiary
)

// The vesting actor locks tokens on behalf of beneficiaries and releases them linearly over time.
// Locked tokens are held in the vesting actor's own balance at each token actor.
type Actor struct{}

func (a Actor) Exports() []interface{} {
	return []interface{}{
		builtin.MethodConstructor: a.Constructor,
		2:                         a.Mint,
		3:                         a.Redeem,
		4:                         a.GetSchedule,
		5:                         a.SchedulesOf,
	}
}

func (a Actor) Code() cid.Cid {
	return builtin.VestingActorCodeID
}

func (a Actor) IsSingleton() bool {
	return true
}

func (a Actor) State() cbor.Er {
	return new(State)
}

var _ runtime.VMActor = Actor{}

func (a Actor) Constructor(rt runtime.Runtime, _ *abi.EmptyValue) *abi.EmptyValue {
	rt.ValidateImmediateCallerIs(builtin.SystemActorAddr)

	st, err := ConstructState(adt.AsStore(rt))
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to construct state")
	rt.StateCreate(st)
	return nil
}

type MintParams struct {
	Token       addr.Address
	Beneficiary addr.Address
	Amount      abi.TokenAmount
	Duration    abi.ChainEpoch
}

type MintReturn struct {
	ScheduleID ScheduleID
}

// Locks tokens from the caller in a new schedule vesting to a beneficiary.
// The caller must have approved the vesting actor to transfer the amount at the token actor.
func (a Actor) Mint(rt runtime.Runtime, params *MintParams) *MintReturn {
	rt.ValidateImmediateCallerType(builtin.CallerTypesSignable...)

	tokenAddr := builtin.ResolveToIDAddrOfType(rt, params.Token, ErrInvalidToken, builtin.TokenActorCodeID)
	// Only a principal can later sign the Redeem that pays out the schedule.
	beneficiary := builtin.ResolveToIDAddrOfType(rt, params.Beneficiary, ErrInvalidBeneficiary, builtin.CallerTypesSignable...)
	if params.Amount.Nil() || params.Amount.LessThanEqual(big.Zero()) {
		rt.Abortf(ErrInvalidAmount, "amount %v must be positive", params.Amount)
	}
	if params.Duration <= 0 {
		rt.Abortf(ErrInvalidDuration, "duration %d must be positive", params.Duration)
	}

	issuer := rt.Caller()
	code := rt.Send(
		tokenAddr,
		builtin.MethodsToken.TransferFrom,
		&token.TransferFromParams{From: issuer, To: rt.Receiver(), Amount: params.Amount},
		nil,
	)
	builtin.RequireSuccess(rt, code, "failed to lock %v of token %v from %v", params.Amount, tokenAddr, issuer)

	now := rt.CurrEpoch()
	var id ScheduleID
	var st State
	rt.StateTransaction(&st, func() {
		var err error
		id, err = st.AddSchedule(adt.AsStore(rt), &Schedule{
			Token:          tokenAddr,
			Beneficiary:    beneficiary,
			TotalAmount:    params.Amount,
			Duration:       params.Duration,
			StartEpoch:     now,
			RedeemedAmount: big.Zero(),
		})
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to add schedule")
	})

	rt.EmitEvent(&MintedEvent{
		Token:       tokenAddr,
		Beneficiary: beneficiary,
		Amount:      params.Amount,
		Duration:    params.Duration,
	})
	rt.Log(builtin.GetActorLogLevel(a, rtt.INFO), "schedule %d locks %v of %v for %v over %d epochs", id, params.Amount, tokenAddr, beneficiary, params.Duration)
	return &MintReturn{ScheduleID: id}
}

type RedeemParams struct {
	ScheduleID ScheduleID
}

// Pays the beneficiary of a schedule everything vested and not yet paid out.
// Returns the amount paid, which is zero if nothing more has vested since the last redemption.
func (a Actor) Redeem(rt runtime.Runtime, params *RedeemParams) *abi.TokenAmount {
	rt.ValidateImmediateCallerType(builtin.CallerTypesSignable...)

	now := rt.CurrEpoch()
	caller := rt.Caller()
	var st State
	var sched *Schedule
	var payable abi.TokenAmount
	rt.StateTransaction(&st, func() {
		store := adt.AsStore(rt)
		var found bool
		var err error
		sched, found, err = st.GetSchedule(store, params.ScheduleID)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to load schedule %d", params.ScheduleID)
		if !found {
			rt.Abortf(ErrUnknownSchedule, "no schedule %d", params.ScheduleID)
		}
		if sched.Beneficiary != caller {
			rt.Abortf(ErrNotBeneficiary, "caller %v is not the beneficiary of schedule %d", caller, params.ScheduleID)
		}

		vested := sched.VestedAt(now)
		builtin.RequireState(rt, sched.RedeemedAmount.LessThanEqual(vested),
			"schedule %d redeemed %v beyond vested %v", params.ScheduleID, sched.RedeemedAmount, vested)
		payable = unredeemed(vested, sched.RedeemedAmount)
		if payable.GreaterThan(big.Zero()) {
			sched.RedeemedAmount = big.Add(sched.RedeemedAmount, payable)
			err = st.PutSchedule(store, params.ScheduleID, sched)
			builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to update schedule %d", params.ScheduleID)
		}
	})

	if payable.GreaterThan(big.Zero()) {
		code := rt.Send(
			sched.Token,
			builtin.MethodsToken.Transfer,
			&token.TransferParams{To: sched.Beneficiary, Amount: payable},
			nil,
		)
		builtin.RequireSuccess(rt, code, "failed to pay %v of token %v to %v", payable, sched.Token, sched.Beneficiary)
	}

	rt.EmitEvent(&RedeemedEvent{
		ScheduleID:  params.ScheduleID,
		Beneficiary: sched.Beneficiary,
		Amount:      payable,
	})
	rt.Log(builtin.GetActorLogLevel(a, rtt.DEBUG), "schedule %d paid %v at epoch %d", params.ScheduleID, payable, now)
	return &payable
}

type GetScheduleParams struct {
	ScheduleID ScheduleID
}

type ScheduleInfo struct {
	ScheduleID ScheduleID
	Schedule   Schedule
	// Amount vested at the current epoch.
	Vested abi.TokenAmount
	// Amount vested at the current epoch and not yet paid out.
	Redeemable abi.TokenAmount
}

// Returns a schedule together with its vested and redeemable amounts at the current epoch.
func (a Actor) GetSchedule(rt runtime.Runtime, params *GetScheduleParams) *ScheduleInfo {
	rt.ValidateImmediateCallerAcceptAny()

	var st State
	rt.StateReadonly(&st)
	sched, found, err := st.GetSchedule(adt.AsStore(rt), params.ScheduleID)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to load schedule %d", params.ScheduleID)
	if !found {
		rt.Abortf(ErrUnknownSchedule, "no schedule %d", params.ScheduleID)
	}

	now := rt.CurrEpoch()
	return &ScheduleInfo{
		ScheduleID: params.ScheduleID,
		Schedule:   *sched,
		Vested:     sched.VestedAt(now),
		Redeemable: RedeemableAmount(sched, now),
	}
}

type SchedulesOfReturn struct {
	ScheduleIDs []ScheduleID
}

// Returns the ids of the schedules bound to a beneficiary, in ascending order.
func (a Actor) SchedulesOf(rt runtime.Runtime, beneficiary *addr.Address) *SchedulesOfReturn {
	rt.ValidateImmediateCallerAcceptAny()

	resolved, ok := rt.ResolveAddress(*beneficiary)
	if !ok {
		return &SchedulesOfReturn{ScheduleIDs: []ScheduleID{}}
	}

	var st State
	rt.StateReadonly(&st)
	ids, err := st.SchedulesOf(adt.AsStore(rt), resolved)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to load schedules of %v", resolved)
	return &SchedulesOfReturn{ScheduleIDs: ids}
}
