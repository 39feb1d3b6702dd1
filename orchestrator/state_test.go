package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateIdle, StateValidating))
	assert.True(t, CanTransition(StateValidating, StateSinglePersona))
	assert.True(t, CanTransition(StateValidating, StateCrewMode))
	assert.True(t, CanTransition(StateValidating, StateFailed))
	assert.True(t, CanTransition(StateCrewMode, StateCompleted))

	assert.False(t, CanTransition(StateIdle, StateCompleted))
	assert.False(t, CanTransition(StateCompleted, StateValidating))
	assert.False(t, CanTransition(StateFailed, StateIdle))
	assert.False(t, CanTransition(StateSinglePersona, StateCrewMode))
}

func TestTurn_AdvancePanicsOnIllegalTransition(t *testing.T) {
	turn := &Turn{State: StateIdle}
	turn.advance(StateValidating)
	assert.Equal(t, StateValidating, turn.State)
	assert.False(t, turn.Terminal())

	turn.advance(StateFailed)
	assert.True(t, turn.Terminal())

	assert.PanicsWithError(t, "invalid turn transition: failed -> completed", func() {
		turn.advance(StateCompleted)
	})
}
