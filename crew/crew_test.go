package crew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/boardroom/types"
)

func testPersona(name, role string) types.Persona {
	return types.Persona{
		ID:          "p-" + name,
		Name:        name,
		Role:        role,
		Personality: "focused",
		Expertise:   []string{"planning"},
		Provider:    types.ProviderOpenAI,
		Model:       "gpt-4o-mini",
		Active:      true,
	}
}

func TestAssemble(t *testing.T) {
	a := NewAssembler(DefaultConfig(), zap.NewNop())
	c, err := a.Assemble([]types.Persona{testPersona("Ada", "Engineer"), testPersona("Bo", "Designer")})
	require.NoError(t, err)

	require.Len(t, c.Agents, 2)
	assert.Equal(t, "Engineer", c.Agents[0].Role)
	assert.Equal(t, "Assist with tasks related to Engineer", c.Agents[0].Goal)
	assert.Contains(t, c.Agents[0].Backstory, "personality: focused")
	assert.Contains(t, c.Agents[0].Backstory, "expertise: planning")
	assert.Equal(t, "openai/gpt-4o-mini", c.Agents[0].Backend)
	assert.True(t, c.Agents[0].AllowDelegation)

	assert.Equal(t, ProcessHierarchical, c.Process)
	assert.Equal(t, DefaultManagerBackend, c.ManagerBackend)
	assert.Empty(t, c.Tasks, "crew must hold zero tasks at assembly time")
}

func TestAssemble_SkipsInactivePersonas(t *testing.T) {
	inactive := testPersona("Ghost", "Analyst")
	inactive.Active = false

	a := NewAssembler(DefaultConfig(), zap.NewNop())
	c, err := a.Assemble([]types.Persona{testPersona("Ada", "Engineer"), inactive})
	require.NoError(t, err)
	require.Len(t, c.Agents, 1)
	assert.Equal(t, "Engineer", c.Agents[0].Role)
}

func TestAssemble_FailFastOnMissingBackend(t *testing.T) {
	broken := testPersona("Ada", "Engineer")
	broken.Model = ""

	a := NewAssembler(DefaultConfig(), zap.NewNop())
	_, err := a.Assemble([]types.Persona{testPersona("Bo", "Designer"), broken})
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
}

func TestBuildTask(t *testing.T) {
	a := NewAssembler(DefaultConfig(), zap.NewNop())
	meeting := &types.Meeting{ID: "m1", Description: "Plan the Q3 launch"}
	msg := &types.Message{Content: "What's the launch date?"}

	task, err := a.BuildTask(meeting, msg)
	require.NoError(t, err)
	assert.Equal(t, "Plan the Q3 launch", task.Description)
	assert.Equal(t, "What's the launch date?\nLimit the result to 900 characters.", task.ExpectedOutput)
	assert.True(t, task.Markdown)
}

func TestBuildTask_NilArguments(t *testing.T) {
	a := NewAssembler(DefaultConfig(), zap.NewNop())

	_, err := a.BuildTask(nil, &types.Message{})
	assert.Equal(t, types.ErrPreconditionFailed, types.GetErrorCode(err))

	_, err = a.BuildTask(&types.Meeting{}, nil)
	assert.Equal(t, types.ErrPreconditionFailed, types.GetErrorCode(err))
}

func TestAssembler_ConfigDefaults(t *testing.T) {
	a := NewAssembler(Config{}, nil)
	assert.Equal(t, DefaultManagerBackend, a.cfg.ManagerBackend)
	assert.Equal(t, DefaultOutputCharLimit, a.cfg.OutputCharLimit)
}
