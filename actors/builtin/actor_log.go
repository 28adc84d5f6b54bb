package builtin

import (
	"sync"

	rtt "github.com/filecoin-project/go-state-types/rt"
	"github.com/ipfs/go-cid"

	"github.com/linear-vesting/vesting-actors/actors/runtime"
)

// Log level overrides keyed by actor code.
// Actors pass their default level through GetActorLogLevel, so raising an override above
// the VM's threshold surfaces one actor's diagnostics without touching the others.
type actorLogLevels struct {
	mu     sync.RWMutex
	levels map[cid.Cid]rtt.LogLevel
}

var logLevels = actorLogLevels{levels: make(map[cid.Cid]rtt.LogLevel)}

func SetActorsLogLevel(level rtt.LogLevel, actors ...runtime.VMActor) {
	logLevels.mu.Lock()
	defer logLevels.mu.Unlock()
	for _, actor := range actors {
		logLevels.levels[actor.Code()] = level
	}
}

// Removes every override.
func ResetActorsLogLevel() {
	logLevels.mu.Lock()
	defer logLevels.mu.Unlock()
	logLevels.levels = make(map[cid.Cid]rtt.LogLevel)
}

// Returns the level at which an actor should log a message it would otherwise log at defValue.
func GetActorLogLevel(actor runtime.VMActor, defValue rtt.LogLevel) rtt.LogLevel {
	logLevels.mu.RLock()
	defer logLevels.mu.RUnlock()
	if level, ok := logLevels.levels[actor.Code()]; ok {
		return level
	}
	return defValue
}
