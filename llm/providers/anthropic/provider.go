// Package anthropic implements the completion-style provider adapter.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/boardroom/llm"
	"github.com/BaSui01/boardroom/llm/providers"
	"github.com/BaSui01/boardroom/types"
)

// Provider adapts the Anthropic Text Completions API. Unlike the chat-style
// shape, the whole exchange is rendered into one prompt: system prompt, a
// "name: content" transcript of the windowed history, and a trailing cue
// naming the responding persona.
type Provider struct {
	cfg    providers.AnthropicConfig
	client *http.Client
	logger *zap.Logger
}

// New creates an Anthropic provider adapter.
func New(cfg providers.AnthropicConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Version == "" {
		cfg.Version = "2023-06-01"
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("component", "provider"), zap.String("provider", "anthropic")),
	}
}

func (p *Provider) Name() string { return "anthropic" }

type completeRequest struct {
	Model             string  `json:"model"`
	Prompt            string  `json:"prompt"`
	MaxTokensToSample int     `json:"max_tokens_to_sample"`
	Temperature       float32 `json:"temperature,omitempty"`
}

type completeResponse struct {
	ID         string `json:"id"`
	Completion string `json:"completion"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason,omitempty"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// buildPrompt renders the single completion prompt for the windowed history.
func buildPrompt(req *llm.CompletionRequest) string {
	window := llm.Window(req.History, llm.HistoryWindow)
	return fmt.Sprintf("%s\n\nConversation:\n%s\n%s:",
		req.SystemPrompt, llm.RenderTranscript(window), req.PersonaName)
}

// Completion performs a single prompt completion call.
func (p *Provider) Completion(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return nil, types.Configuration("Anthropic API key is not set").WithProvider(p.Name())
	}

	body := completeRequest{
		Model:             req.Model,
		Prompt:            buildPrompt(req),
		MaxTokensToSample: req.Policy.MaxTokens,
		Temperature:       req.Policy.Temperature,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "encode request").WithCause(err).WithProvider(p.Name())
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/complete"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "build request").WithCause(err).WithProvider(p.Name())
	}
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", p.cfg.Version)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.ProviderFailure(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, providers.MapUpstreamError(resp.StatusCode, readErrMsg(resp.Body), p.Name())
	}

	var out completeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, types.ProviderFailure(p.Name(), err)
	}

	p.logger.Debug("prompt completion",
		zap.String("model", req.Model),
		zap.Int("prompt_len", len(body.Prompt)),
	)

	return &llm.CompletionResponse{
		Content:  strings.TrimSpace(out.Completion),
		Provider: p.Name(),
		Model:    out.Model,
	}, nil
}

func readErrMsg(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	return strings.TrimSpace(string(data))
}
