package system_test

import (
	"testing"

	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/stretchr/testify/require"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/builtin/system"
	"github.com/linear-vesting/vesting-actors/support/mock"
	tutil "github.com/linear-vesting/vesting-actors/support/testing"
)

func TestExports(t *testing.T) {
	mock.CheckActorExports(t, system.Actor{})
}

func TestConstruction(t *testing.T) {
	a := system.Actor{}

	t.Run("construct by system", func(t *testing.T) {
		rt := mock.NewBuilder(builtin.SystemActorAddr).Build(t)
		rt.ExpectValidateCallerAddr(builtin.SystemActorAddr)
		rt.SetCaller(builtin.SystemActorAddr, builtin.SystemActorCodeID)
		rt.Call(a.Constructor, nil)
		rt.Verify()

		var st system.State
		rt.GetState(&st)
		require.Equal(t, system.State{}, st)
	})

	t.Run("reject other callers", func(t *testing.T) {
		rt := mock.NewBuilder(builtin.SystemActorAddr).Build(t)
		rt.ExpectValidateCallerAddr(builtin.SystemActorAddr)
		rt.SetCaller(tutil.NewIDAddr(t, 100), builtin.AccountActorCodeID)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(a.Constructor, nil)
		})
		rt.Verify()
	})
}
