// Package providers holds the concrete provider adapter configurations and
// the error classification shared by the adapter implementations.
package providers

import (
	"net/http"
	"time"

	"github.com/BaSui01/boardroom/types"
)

// OpenAIConfig configures the chat-style OpenAI adapter.
type OpenAIConfig struct {
	APIKey       string        `json:"api_key" yaml:"api_key"`
	BaseURL      string        `json:"base_url" yaml:"base_url"`
	Organization string        `json:"organization,omitempty" yaml:"organization,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// AnthropicConfig configures the completion-style Anthropic adapter.
type AnthropicConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Version string        `json:"version,omitempty" yaml:"version,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// MapUpstreamError classifies an upstream HTTP status into a typed error.
// Credential and quota problems map to non-retryable codes; transient
// upstream conditions stay retryable so callers can tell them apart, even
// though the core itself never retries.
func MapUpstreamError(status int, msg, provider string) *types.Error {
	e := &types.Error{Message: msg, HTTPStatus: status, Provider: provider}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Code = types.ErrUnauthorized
	case status == http.StatusTooManyRequests:
		e.Code = types.ErrRateLimited
		e.Retryable = true
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		e.Code = types.ErrUpstreamTimeout
		e.Retryable = true
	case status >= 500:
		e.Code = types.ErrUpstreamError
		e.Retryable = true
	default:
		e.Code = types.ErrInvalidRequest
	}
	return e
}
