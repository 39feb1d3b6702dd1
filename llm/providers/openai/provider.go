// Package openai implements the chat-style provider adapter.
package openai

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

// Provider adapts the OpenAI Chat Completions API. The windowed history is
// shaped into a role-tagged message list: persona messages become assistant
// turns, everything else user turns, each prefixed with the sender's display
// name so the model can follow a multi-party conversation.
type Provider struct {
	cfg    providers.OpenAIConfig
	client *http.Client
	logger *zap.Logger
}

// New creates an OpenAI provider adapter.
func New(cfg providers.OpenAIConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("component", "provider"), zap.String("provider", "openai")),
	}
}

func (p *Provider) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		FinishReason string      `json:"finish_reason,omitempty"`
		Message      chatMessage `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// buildMessages converts the windowed history into the outbound message
// list: one system entry plus one entry per history message.
func buildMessages(req *llm.CompletionRequest) []chatMessage {
	window := llm.Window(req.History, llm.HistoryWindow)
	msgs := make([]chatMessage, 0, len(window)+1)
	msgs = append(msgs, chatMessage{Role: "system", Content: req.SystemPrompt})
	for _, m := range window {
		role := "user"
		if m.FromPersona() {
			role = "assistant"
		}
		msgs = append(msgs, chatMessage{
			Role:    role,
			Content: fmt.Sprintf("%s: %s", m.SenderName, m.Content),
		})
	}
	return msgs
}

// Completion performs a single chat completion call.
func (p *Provider) Completion(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return nil, types.Configuration("OpenAI API key is not set").WithProvider(p.Name())
	}

	body := chatRequest{
		Model:       req.Model,
		Messages:    buildMessages(req),
		MaxTokens:   req.Policy.MaxTokens,
		Temperature: req.Policy.Temperature,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "encode request").WithCause(err).WithProvider(p.Name())
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "build request").WithCause(err).WithProvider(p.Name())
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	if p.cfg.Organization != "" {
		httpReq.Header.Set("OpenAI-Organization", p.cfg.Organization)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.ProviderFailure(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, providers.MapUpstreamError(resp.StatusCode, readErrMsg(resp.Body), p.Name())
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, types.ProviderFailure(p.Name(), err)
	}
	if len(out.Choices) == 0 {
		return nil, types.ProviderFailure(p.Name(), fmt.Errorf("empty choices in response"))
	}

	p.logger.Debug("chat completion",
		zap.String("model", req.Model),
		zap.Int("window", len(body.Messages)-1),
	)

	return &llm.CompletionResponse{
		Content:  strings.TrimSpace(out.Choices[0].Message.Content),
		Provider: p.Name(),
		Model:    out.Model,
	}, nil
}

// readErrMsg extracts a human-readable message from an error body.
func readErrMsg(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	return strings.TrimSpace(string(data))
}
