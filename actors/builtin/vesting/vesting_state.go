package vesting

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-bitfield"
	"github.com/filecoin-project/go-state-types/abi"
	cid "github.com/ipfs/go-cid"
	"golang.org/x/xerrors"

	"github.com/linear-vesting/vesting-actors/actors/util/adt"
)

// Identifies a schedule. Ids are allocated sequentially from zero and never reused.
type ScheduleID uint64

type State struct {
	// The id that the next schedule will be assigned.
	// Equal to the number of schedules ever created.
	NextScheduleID ScheduleID

	Schedules     cid.Cid // AMT[ScheduleID]Schedule
	Beneficiaries cid.Cid // HAMT[addr.Address]bitfield.BitField of schedule ids
}

// A quantity of tokens released linearly to a beneficiary over a duration.
type Schedule struct {
	// ID address of the token actor holding the locked funds.
	Token addr.Address
	// ID address of the only party that may redeem the schedule.
	Beneficiary addr.Address
	// Principal, fixed at creation.
	TotalAmount abi.TokenAmount
	// Vesting period in epochs, fixed at creation.
	Duration abi.ChainEpoch
	// Epoch at which the schedule was created and vesting began.
	StartEpoch abi.ChainEpoch
	// Cumulative amount paid out, never more than TotalAmount.
	RedeemedAmount abi.TokenAmount
}

// Amount of the principal vested at an epoch.
func (s *Schedule) VestedAt(now abi.ChainEpoch) abi.TokenAmount {
	return VestedAmount(s.TotalAmount, s.Duration, now-s.StartEpoch)
}

// Epoch from which the whole principal is vested.
func (s *Schedule) EndEpoch() abi.ChainEpoch {
	return s.StartEpoch + s.Duration
}

func ConstructState(store adt.Store) (*State, error) {
	emptySchedulesCid, err := adt.StoreEmptyArray(store, SchedulesAmtBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to create empty schedules array: %w", err)
	}
	emptyBeneficiariesCid, err := adt.StoreEmptyMap(store, BeneficiariesHamtBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to create empty beneficiaries map: %w", err)
	}

	return &State{
		NextScheduleID: 0,
		Schedules:      emptySchedulesCid,
		Beneficiaries:  emptyBeneficiariesCid,
	}, nil
}

// Stores a new schedule under the next id, and indexes it under its beneficiary.
func (st *State) AddSchedule(store adt.Store, sched *Schedule) (ScheduleID, error) {
	id := st.NextScheduleID
	if err := st.PutSchedule(store, id, sched); err != nil {
		return 0, err
	}

	beneficiaries, err := adt.AsMap(store, st.Beneficiaries, BeneficiariesHamtBitwidth)
	if err != nil {
		return 0, xerrors.Errorf("failed to load beneficiaries: %w", err)
	}
	ids := bitfield.New()
	if _, err := beneficiaries.Get(abi.AddrKey(sched.Beneficiary), &ids); err != nil {
		return 0, xerrors.Errorf("failed to load schedules of %v: %w", sched.Beneficiary, err)
	}
	ids, err = bitfield.MergeBitFields(ids, bitfield.NewFromSet([]uint64{uint64(id)}))
	if err != nil {
		return 0, xerrors.Errorf("failed to add schedule %d to %v: %w", id, sched.Beneficiary, err)
	}
	if err := beneficiaries.Put(abi.AddrKey(sched.Beneficiary), &ids); err != nil {
		return 0, xerrors.Errorf("failed to store schedules of %v: %w", sched.Beneficiary, err)
	}
	if st.Beneficiaries, err = beneficiaries.Root(); err != nil {
		return 0, xerrors.Errorf("failed to flush beneficiaries: %w", err)
	}

	st.NextScheduleID++
	return id, nil
}

// Loads a schedule by id. Returns false if no schedule has the id.
func (st *State) GetSchedule(store adt.Store, id ScheduleID) (*Schedule, bool, error) {
	schedules, err := adt.AsArray(store, st.Schedules, SchedulesAmtBitwidth)
	if err != nil {
		return nil, false, xerrors.Errorf("failed to load schedules: %w", err)
	}
	var sched Schedule
	found, err := schedules.Get(uint64(id), &sched)
	if err != nil {
		return nil, false, xerrors.Errorf("failed to load schedule %d: %w", id, err)
	}
	if !found {
		return nil, false, nil
	}
	return &sched, true, nil
}

// Writes a schedule at an id, replacing any schedule stored there.
func (st *State) PutSchedule(store adt.Store, id ScheduleID, sched *Schedule) error {
	schedules, err := adt.AsArray(store, st.Schedules, SchedulesAmtBitwidth)
	if err != nil {
		return xerrors.Errorf("failed to load schedules: %w", err)
	}
	if err := schedules.Set(uint64(id), sched); err != nil {
		return xerrors.Errorf("failed to store schedule %d: %w", id, err)
	}
	if st.Schedules, err = schedules.Root(); err != nil {
		return xerrors.Errorf("failed to flush schedules: %w", err)
	}
	return nil
}

// Returns the ids of all schedules bound to a beneficiary, in ascending order.
func (st *State) SchedulesOf(store adt.Store, beneficiary addr.Address) ([]ScheduleID, error) {
	beneficiaries, err := adt.AsMap(store, st.Beneficiaries, BeneficiariesHamtBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to load beneficiaries: %w", err)
	}
	var ids bitfield.BitField
	found, err := beneficiaries.Get(abi.AddrKey(beneficiary), &ids)
	if err != nil {
		return nil, xerrors.Errorf("failed to load schedules of %v: %w", beneficiary, err)
	}
	if !found {
		return []ScheduleID{}, nil
	}
	all, err := ids.All(uint64(st.NextScheduleID))
	if err != nil {
		return nil, xerrors.Errorf("failed to expand schedules of %v: %w", beneficiary, err)
	}
	out := make([]ScheduleID, len(all))
	for i, id := range all {
		out[i] = ScheduleID(id)
	}
	return out, nil
}
