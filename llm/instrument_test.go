package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/boardroom/types"
)

type recordedCall struct {
	provider string
	model    string
	status   string
}

type recordingMetrics struct {
	calls []recordedCall
}

func (r *recordingMetrics) RecordProviderRequest(provider, model, status string, _ time.Duration) {
	r.calls = append(r.calls, recordedCall{provider: provider, model: model, status: status})
}

type failingProvider struct{ name string }

func (f *failingProvider) Name() string { return f.name }

func (f *failingProvider) Completion(_ context.Context, _ *CompletionRequest) (*CompletionResponse, error) {
	return nil, types.ProviderFailure(f.name, assert.AnError)
}

func TestInstrumentProvider_Success(t *testing.T) {
	rec := &recordingMetrics{}
	p := InstrumentProvider(&stubProvider{name: "openai"}, rec)

	assert.Equal(t, "openai", p.Name())

	resp, err := p.Completion(context.Background(), &CompletionRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, recordedCall{provider: "openai", model: "gpt-4o-mini", status: "ok"}, rec.calls[0])
}

func TestInstrumentProvider_FailureStatusIsErrorCode(t *testing.T) {
	rec := &recordingMetrics{}
	p := InstrumentProvider(&failingProvider{name: "anthropic"}, rec)

	_, err := p.Completion(context.Background(), &CompletionRequest{Model: "claude-2.1"})
	require.Error(t, err)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "anthropic", rec.calls[0].provider)
	assert.Equal(t, "claude-2.1", rec.calls[0].model)
	assert.Equal(t, string(types.ErrProvider), rec.calls[0].status)
}
