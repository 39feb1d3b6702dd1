// Package boardroom provides a top-level convenience entry point for wiring
// a turn orchestrator with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/boardroom"
//
//	o, err := boardroom.New(s, boardroom.WithOpenAI(""), boardroom.WithAnthropic(""))
//	o, err := boardroom.New(s, boardroom.WithProvider("openai", myProvider))
//
// This is a thin wrapper over the orchestrator, crew, and llm packages; the
// HTTP service in cmd/boardroom assembles the same pieces from its config.
// Use this package when embedding the respond flow in another program.
package boardroom

import (
	"os"

	"go.uber.org/zap"

	"github.com/BaSui01/boardroom/crew"
	"github.com/BaSui01/boardroom/llm"
	"github.com/BaSui01/boardroom/llm/providers"
	"github.com/BaSui01/boardroom/llm/providers/anthropic"
	"github.com/BaSui01/boardroom/llm/providers/openai"
	"github.com/BaSui01/boardroom/orchestrator"
	"github.com/BaSui01/boardroom/store"
	"github.com/BaSui01/boardroom/types"
)

type options struct {
	logger  *zap.Logger
	policy  llm.GenerationPolicy
	crewCfg crew.Config
	// provider construction is deferred so the logger option applies
	// regardless of option order
	builders map[string]func(o *options) llm.Provider
}

// Option configures the orchestrator created by [New].
type Option func(*options)

// WithOpenAI registers the OpenAI adapter. An empty apiKey falls back to the
// OPENAI_API_KEY environment variable.
func WithOpenAI(apiKey string) Option {
	return func(o *options) {
		o.builders["openai"] = func(o *options) llm.Provider {
			if apiKey == "" {
				apiKey = os.Getenv("OPENAI_API_KEY")
			}
			return openai.New(providers.OpenAIConfig{APIKey: apiKey}, o.logger)
		}
	}
}

// WithAnthropic registers the Anthropic adapter. An empty apiKey falls back
// to the ANTHROPIC_API_KEY environment variable.
func WithAnthropic(apiKey string) Option {
	return func(o *options) {
		o.builders["anthropic"] = func(o *options) llm.Provider {
			if apiKey == "" {
				apiKey = os.Getenv("ANTHROPIC_API_KEY")
			}
			return anthropic.New(providers.AnthropicConfig{APIKey: apiKey}, o.logger)
		}
	}
}

// WithProvider registers a pre-built provider under the given name.
func WithProvider(name string, p llm.Provider) Option {
	return func(o *options) {
		o.builders[name] = func(*options) llm.Provider { return p }
	}
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithGenerationPolicy overrides the default token and temperature policy.
func WithGenerationPolicy(p llm.GenerationPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithCrewConfig overrides the crew defaults (manager backend, output limit).
func WithCrewConfig(cfg crew.Config) Option {
	return func(o *options) { o.crewCfg = cfg }
}

// New wires a ready orchestrator over the given store. At least one provider
// must be registered via [WithOpenAI], [WithAnthropic], or [WithProvider].
func New(s store.Store, opts ...Option) (*orchestrator.Orchestrator, error) {
	if s == nil {
		return nil, types.Configuration("store must be provided")
	}

	o := &options{
		logger:   zap.NewNop(),
		policy:   llm.DefaultGenerationPolicy(),
		crewCfg:  crew.DefaultConfig(),
		builders: make(map[string]func(*options) llm.Provider),
	}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.builders) == 0 {
		return nil, types.Configuration("at least one provider must be registered")
	}

	registry := llm.NewRegistry()
	for name, build := range o.builders {
		registry.Register(name, build(o))
	}

	assembler := crew.NewAssembler(o.crewCfg, o.logger)
	runner := crew.NewHierarchicalRunner(registry, o.policy, o.logger)
	return orchestrator.New(s, registry, assembler, runner, o.policy, o.logger), nil
}
