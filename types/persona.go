package types

import (
	"strings"
	"time"
)

// ProviderName selects the LLM backend family a persona is bound to.
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
)

// Persona is a configured synthetic employee bound to one LLM provider/model.
// A persona is immutable after creation: the system prompt is synthesized at
// creation time when absent and then frozen, and deletion is a soft-delete
// (Active flip) rather than an erase.
type Persona struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Role        string       `json:"role"`
	Personality string       `json:"personality"`
	Expertise   []string     `json:"expertise"`
	Provider    ProviderName `json:"llm_provider"`
	Model       string       `json:"llm_model"`

	// SystemPrompt, when set, overrides synthesis entirely.
	SystemPrompt string `json:"system_prompt,omitempty"`

	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// HasBackend reports whether the persona carries both a provider and a model.
// Crew assembly requires this for every member before any agent is built.
func (p Persona) HasBackend() bool {
	return strings.TrimSpace(string(p.Provider)) != "" && strings.TrimSpace(p.Model) != ""
}

// BackendRef renders the persona's backing model as "<provider>/<model>".
func (p Persona) BackendRef() string {
	return string(p.Provider) + "/" + p.Model
}
