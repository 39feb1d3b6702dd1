package crew

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/boardroom/llm"
	"github.com/BaSui01/boardroom/types"
)

// fakeProvider echoes through a callback so tests can shape each call.
type fakeProvider struct {
	name string
	fn   func(req *llm.CompletionRequest) (*llm.CompletionResponse, error)
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Completion(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return f.fn(req)
}

func testCrew() *Crew {
	return &Crew{
		ID:             "crew_test",
		Process:        ProcessHierarchical,
		ManagerBackend: "openai/gpt-4.1",
		Agents: []Agent{
			{Role: "Engineer", Goal: "Assist with tasks related to Engineer", Backend: "openai/gpt-4o-mini", AllowDelegation: true},
			{Role: "Designer", Goal: "Assist with tasks related to Designer", Backend: "anthropic/claude-2.1", AllowDelegation: true},
		},
	}
}

func TestRun_HierarchicalDelegation(t *testing.T) {
	// member delegation runs concurrently, so call recording needs a lock
	var (
		mu    sync.Mutex
		calls []string
	)
	record := func(s string) {
		mu.Lock()
		calls = append(calls, s)
		mu.Unlock()
	}

	registry := llm.NewRegistry()
	registry.Register("openai", &fakeProvider{name: "openai", fn: func(req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
		record("openai/" + req.Model + "/" + req.PersonaName)
		if req.PersonaName == "Manager" {
			// manager sees every member contribution, in roster order
			require.Len(t, req.History, 3)
			assert.Equal(t, "engineer take", req.History[1].Content)
			assert.Equal(t, "designer take", req.History[2].Content)
			return &llm.CompletionResponse{Content: "final answer"}, nil
		}
		return &llm.CompletionResponse{Content: "engineer take"}, nil
	}})
	registry.Register("anthropic", &fakeProvider{name: "anthropic", fn: func(req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
		record("anthropic/" + req.Model + "/" + req.PersonaName)
		return &llm.CompletionResponse{Content: "designer take"}, nil
	}})

	r := NewHierarchicalRunner(registry, llm.DefaultGenerationPolicy(), zap.NewNop())
	c := testCrew()
	task := Task{Description: "Plan the launch", ExpectedOutput: "A date.\nLimit the result to 900 characters."}

	out, err := r.Run(context.Background(), c, task)
	require.NoError(t, err)
	assert.Equal(t, "final answer", out)
	assert.ElementsMatch(t, []string{
		"openai/gpt-4o-mini/Engineer",
		"anthropic/claude-2.1/Designer",
		"openai/gpt-4.1/Manager",
	}, calls)
	assert.Equal(t, "openai/gpt-4.1/Manager", calls[len(calls)-1], "synthesis runs after every member finished")
	assert.Len(t, c.Tasks, 1, "task is attached at kickoff, not at assembly")
}

func TestRun_MemberFailureAbortsRun(t *testing.T) {
	managerCalled := false
	registry := llm.NewRegistry()
	registry.Register("openai", &fakeProvider{name: "openai", fn: func(req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
		if req.PersonaName == "Manager" {
			managerCalled = true
		}
		return nil, types.ProviderFailure("openai", assert.AnError)
	}})
	registry.Register("anthropic", &fakeProvider{name: "anthropic", fn: func(req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "ok"}, nil
	}})

	r := NewHierarchicalRunner(registry, llm.DefaultGenerationPolicy(), zap.NewNop())
	_, err := r.Run(context.Background(), testCrew(), Task{Description: "x"})
	require.Error(t, err)
	assert.Equal(t, types.ErrProvider, types.GetErrorCode(err))
	assert.False(t, managerCalled, "a partially delegated answer must never be synthesized")
}

func TestRun_UnknownProviderIsConfigurationError(t *testing.T) {
	r := NewHierarchicalRunner(llm.NewRegistry(), llm.DefaultGenerationPolicy(), zap.NewNop())
	_, err := r.Run(context.Background(), testCrew(), Task{Description: "x"})
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
}

func TestRun_Preconditions(t *testing.T) {
	r := NewHierarchicalRunner(llm.NewRegistry(), llm.DefaultGenerationPolicy(), zap.NewNop())

	_, err := r.Run(context.Background(), nil, Task{})
	assert.Equal(t, types.ErrPreconditionFailed, types.GetErrorCode(err))

	_, err = r.Run(context.Background(), &Crew{ID: "empty"}, Task{})
	assert.Equal(t, types.ErrPreconditionFailed, types.GetErrorCode(err))
}

func TestSplitBackend(t *testing.T) {
	provider, model, err := splitBackend("openai/gpt-4.1")
	require.NoError(t, err)
	assert.Equal(t, "openai", provider)
	assert.Equal(t, "gpt-4.1", model)

	for _, bad := range []string{"", "openai", "/gpt-4.1", "openai/"} {
		_, _, err := splitBackend(bad)
		assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err), "backend %q", bad)
	}
}
