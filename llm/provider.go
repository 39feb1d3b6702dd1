package llm

import (
	"context"
	"time"

	"github.com/BaSui01/boardroom/types"
)

// HistoryWindow is the bounded recent window of conversation handed to a
// completion call. Adapters never see more than the last HistoryWindow
// messages of a meeting; this bounds request size and cost and is a design
// constant, not a tunable.
const HistoryWindow = 10

// GenerationPolicy carries the tunable completion parameters shared by all
// adapters. Values are deployment policy, configured explicitly rather than
// buried in adapter code.
type GenerationPolicy struct {
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	Temperature float32 `yaml:"temperature" json:"temperature"`
}

// DefaultGenerationPolicy returns the stock generation policy.
func DefaultGenerationPolicy() GenerationPolicy {
	return GenerationPolicy{MaxTokens: 300, Temperature: 0.7}
}

// CompletionRequest is the provider-neutral input to one completion call.
// History is the full conversation, oldest first; the adapter windows it.
type CompletionRequest struct {
	SystemPrompt string
	PersonaName  string
	Model        string
	History      []types.Message
	Policy       GenerationPolicy
	Timeout      time.Duration
}

// CompletionResponse is the provider-neutral result of one completion call.
type CompletionResponse struct {
	Content  string
	Provider string
	Model    string
}

// Provider adapts one LLM backend family to the uniform completion contract.
// Implementations perform exactly one outbound network call per Completion
// and hold no mutable state across calls.
type Provider interface {
	// Completion produces a single reply for the windowed history.
	Completion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider's unique registry identifier.
	Name() string
}

// Window returns the trailing n entries of history. It never copies more
// than needed and returns history itself when it already fits.
func Window(history []types.Message, n int) []types.Message {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
