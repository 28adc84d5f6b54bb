package vesting

import "github.com/linear-vesting/vesting-actors/actors/builtin"

// Bitwidth of the AMT holding schedules by id.
// Schedule ids are dense and only ever appended, so a wide fan-out keeps the tree shallow.
const SchedulesAmtBitwidth = 5

// Bitwidth of the HAMT indexing schedule ids by beneficiary.
const BeneficiariesHamtBitwidth = builtin.DefaultHamtBitwidth
