package builtin_test

import (
	"testing"

	rtt "github.com/filecoin-project/go-state-types/rt"
	"github.com/stretchr/testify/assert"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/builtin/token"
	"github.com/linear-vesting/vesting-actors/actors/builtin/vesting"
)

func TestActorLogLevel(t *testing.T) {
	defer builtin.ResetActorsLogLevel()

	assert.Equal(t, rtt.DEBUG, builtin.GetActorLogLevel(vesting.Actor{}, rtt.DEBUG))
	assert.Equal(t, rtt.INFO, builtin.GetActorLogLevel(token.Actor{}, rtt.INFO))

	builtin.SetActorsLogLevel(rtt.ERROR, vesting.Actor{})
	assert.Equal(t, rtt.ERROR, builtin.GetActorLogLevel(vesting.Actor{}, rtt.DEBUG))
	assert.Equal(t, rtt.ERROR, builtin.GetActorLogLevel(vesting.Actor{}, rtt.WARN))
	assert.Equal(t, rtt.INFO, builtin.GetActorLogLevel(token.Actor{}, rtt.INFO), "other actors keep their default")

	builtin.SetActorsLogLevel(rtt.WARN, vesting.Actor{}, token.Actor{})
	assert.Equal(t, rtt.WARN, builtin.GetActorLogLevel(vesting.Actor{}, rtt.DEBUG))
	assert.Equal(t, rtt.WARN, builtin.GetActorLogLevel(token.Actor{}, rtt.DEBUG))

	builtin.ResetActorsLogLevel()
	assert.Equal(t, rtt.DEBUG, builtin.GetActorLogLevel(vesting.Actor{}, rtt.DEBUG))
}
