package crew

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/boardroom/llm"
	"github.com/BaSui01/boardroom/types"
)

// Runner executes an assembled crew against a task and returns the raw
// textual result. The orchestrator's responsibility ends at constructing
// the crew and task; execution is this collaborator's concern.
type Runner interface {
	Run(ctx context.Context, c *Crew, task Task) (string, error)
}

// HierarchicalRunner executes a crew by hierarchical delegation: the
// coordinating manager hands the task to each member agent for a
// contribution in its own specialty, then synthesizes the contributions
// into one answer with the manager backend.
//
// A provider failure inside delegation aborts the whole run. A partially
// delegated answer is never returned as if it were complete.
type HierarchicalRunner struct {
	registry *llm.Registry
	policy   llm.GenerationPolicy
	logger   *zap.Logger
}

// NewHierarchicalRunner creates a runner backed by the provider registry.
func NewHierarchicalRunner(registry *llm.Registry, policy llm.GenerationPolicy, logger *zap.Logger) *HierarchicalRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HierarchicalRunner{
		registry: registry,
		policy:   policy,
		logger:   logger.With(zap.String("component", "crew_runner")),
	}
}

// Run attaches the task and drives one hierarchical execution round.
func (r *HierarchicalRunner) Run(ctx context.Context, c *Crew, task Task) (string, error) {
	if c == nil {
		return "", types.PreconditionFailed("crew must be provided to kick off the crew")
	}
	if len(c.Agents) == 0 {
		return "", types.PreconditionFailed("crew has no agents")
	}
	c.AddTask(task)

	// members contribute independently, so delegation fans out in
	// parallel; the first failure cancels the remaining calls
	contributions := make([]types.Message, len(c.Agents))
	g, gctx := errgroup.WithContext(ctx)
	for i, agent := range c.Agents {
		g.Go(func() error {
			out, err := r.contribute(gctx, agent, task)
			if err != nil {
				r.logger.Warn("delegation failed, aborting crew run",
					zap.String("crew", c.ID),
					zap.String("role", agent.Role),
					zap.Error(err))
				return err
			}
			contributions[i] = types.Message{
				SenderName: agent.Role,
				SenderKind: types.SenderPersona,
				Content:    out,
			}
			if c.Verbose {
				r.logger.Info("member contribution",
					zap.String("crew", c.ID),
					zap.String("role", agent.Role),
					zap.Int("chars", len(out)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	answer, err := r.synthesize(ctx, c, task, contributions)
	if err != nil {
		return "", err
	}

	r.logger.Info("crew run completed",
		zap.String("crew", c.ID),
		zap.Int("agents", len(c.Agents)),
		zap.Int("chars", len(answer)))
	return answer, nil
}

// contribute asks one member agent for its take on the task, on the
// member's own backend.
func (r *HierarchicalRunner) contribute(ctx context.Context, agent Agent, task Task) (string, error) {
	provider, model, err := splitBackend(agent.Backend)
	if err != nil {
		return "", err
	}
	p, err := r.registry.Resolve(provider)
	if err != nil {
		return "", err
	}

	system := fmt.Sprintf("You are the %s of a team.\n\n%s\nGoal: %s\nContribute your part of the task from your own specialty. Be concise.",
		agent.Role, agent.Backstory, agent.Goal)

	resp, err := p.Completion(ctx, &llm.CompletionRequest{
		SystemPrompt: system,
		PersonaName:  agent.Role,
		Model:        model,
		History: []types.Message{{
			SenderName: "Manager",
			SenderKind: types.SenderUser,
			Content:    renderBrief(task),
		}},
		Policy: r.policy,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// synthesize has the manager merge the member contributions into the final
// answer under the task's expected-output contract.
func (r *HierarchicalRunner) synthesize(ctx context.Context, c *Crew, task Task, contributions []types.Message) (string, error) {
	provider, model, err := splitBackend(c.ManagerBackend)
	if err != nil {
		return "", err
	}
	p, err := r.registry.Resolve(provider)
	if err != nil {
		return "", err
	}

	system := "You coordinate a team of specialists. Merge their contributions into a single coherent answer that satisfies the expected output. Do not mention the team or the delegation process."

	history := append([]types.Message{{
		SenderName: "Manager",
		SenderKind: types.SenderUser,
		Content:    renderBrief(task),
	}}, contributions...)

	resp, err := p.Completion(ctx, &llm.CompletionRequest{
		SystemPrompt: system,
		PersonaName:  "Manager",
		Model:        model,
		History:      history,
		Policy:       r.policy,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func renderBrief(task Task) string {
	return fmt.Sprintf("%s\n\nExpected output: %s", task.Description, task.ExpectedOutput)
}

// splitBackend parses "<provider>/<model>" into its parts.
func splitBackend(backend string) (provider, model string, err error) {
	provider, model, ok := strings.Cut(backend, "/")
	if !ok || provider == "" || model == "" {
		return "", "", types.Configuration("malformed backend reference: " + backend)
	}
	return provider, model, nil
}
