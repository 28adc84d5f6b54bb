package exported

import (
	"github.com/linear-vesting/vesting-actors/actors/builtin/account"
	"github.com/linear-vesting/vesting-actors/actors/builtin/system"
	"github.com/linear-vesting/vesting-actors/actors/builtin/token"
	"github.com/linear-vesting/vesting-actors/actors/builtin/vesting"
	"github.com/linear-vesting/vesting-actors/actors/runtime"
)

func BuiltinActors() []runtime.VMActor {
	return []runtime.VMActor{
		account.Actor{},
		system.Actor{},
		token.Actor{},
		vesting.Actor{},
	}
}
