package vesting

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-bitfield"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/util/adt"
)

type StateSummary struct {
	ScheduleCount uint64
	// Total of unredeemed principal per token, which the vesting actor must hold.
	Outstanding map[addr.Address]abi.TokenAmount
}

// Checks internal invariants of vesting state at an epoch.
func CheckStateInvariants(st *State, store adt.Store, currEpoch abi.ChainEpoch) (*StateSummary, *builtin.MessageAccumulator) {
	acc := &builtin.MessageAccumulator{}
	summary := &StateSummary{
		Outstanding: make(map[addr.Address]abi.TokenAmount),
	}

	beneficiaryOf := make(map[ScheduleID]addr.Address)
	if schedules, err := adt.AsArray(store, st.Schedules, SchedulesAmtBitwidth); err != nil {
		acc.Addf("error loading schedules: %v", err)
	} else {
		var sched Schedule
		err = schedules.ForEach(&sched, func(i int64) error {
			id := ScheduleID(i)
			sacc := acc.WithPrefix("schedule %d: ", id)
			sacc.Require(id < st.NextScheduleID, "id not below next id %d", st.NextScheduleID)
			sacc.Require(sched.Token.Protocol() == addr.ID, "token %v is not an ID address", sched.Token)
			sacc.Require(sched.Beneficiary.Protocol() == addr.ID, "beneficiary %v is not an ID address", sched.Beneficiary)
			sacc.Require(sched.TotalAmount.GreaterThan(big.Zero()), "non-positive total %v", sched.TotalAmount)
			sacc.Require(sched.Duration > 0, "non-positive duration %d", sched.Duration)
			sacc.Require(sched.StartEpoch <= currEpoch, "start %d after current epoch %d", sched.StartEpoch, currEpoch)
			sacc.Require(sched.RedeemedAmount.GreaterThanEqual(big.Zero()), "negative redeemed amount %v", sched.RedeemedAmount)
			vested := sched.VestedAt(currEpoch)
			sacc.Require(sched.RedeemedAmount.LessThanEqual(vested), "redeemed %v exceeds vested %v", sched.RedeemedAmount, vested)
			sacc.Require(vested.LessThanEqual(sched.TotalAmount), "vested %v exceeds total %v", vested, sched.TotalAmount)

			outstanding, ok := summary.Outstanding[sched.Token]
			if !ok {
				outstanding = big.Zero()
			}
			summary.Outstanding[sched.Token] = big.Add(outstanding, big.Sub(sched.TotalAmount, sched.RedeemedAmount))
			beneficiaryOf[id] = sched.Beneficiary
			summary.ScheduleCount++
			return nil
		})
		acc.RequireNoError(err, "error iterating schedules")
		acc.Require(summary.ScheduleCount == uint64(st.NextScheduleID), "schedule count %d does not match next id %d", summary.ScheduleCount, st.NextScheduleID)
	}

	if beneficiaries, err := adt.AsMap(store, st.Beneficiaries, BeneficiariesHamtBitwidth); err != nil {
		acc.Addf("error loading beneficiaries: %v", err)
	} else {
		indexed := uint64(0)
		var ids bitfield.BitField
		err = beneficiaries.ForEach(&ids, func(key string) error {
			beneficiary, err := addr.NewFromBytes([]byte(key))
			if err != nil {
				return err
			}
			return ids.ForEach(func(id uint64) error {
				indexed++
				bound, ok := beneficiaryOf[ScheduleID(id)]
				acc.Require(ok, "beneficiary %v indexes missing schedule %d", beneficiary, id)
				acc.Require(!ok || bound == beneficiary, "beneficiary %v indexes schedule %d bound to %v", beneficiary, id, bound)
				return nil
			})
		})
		acc.RequireNoError(err, "error iterating beneficiaries")
		acc.Require(indexed == summary.ScheduleCount, "beneficiary index holds %d ids for %d schedules", indexed, summary.ScheduleCount)
	}

	return summary, acc
}
