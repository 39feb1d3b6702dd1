package llm

import (
	"context"
	"time"

	"github.com/BaSui01/boardroom/types"
)

// ProviderMetrics records upstream call outcomes. Implemented by
// internal/metrics.
type ProviderMetrics interface {
	RecordProviderRequest(provider, model, status string, duration time.Duration)
}

// InstrumentProvider wraps p so every completion call is timed and counted.
// The status label is "ok" on success and the typed error code otherwise.
func InstrumentProvider(p Provider, m ProviderMetrics) Provider {
	return &instrumentedProvider{next: p, metrics: m}
}

type instrumentedProvider struct {
	next    Provider
	metrics ProviderMetrics
}

func (p *instrumentedProvider) Name() string { return p.next.Name() }

func (p *instrumentedProvider) Completion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	resp, err := p.next.Completion(ctx, req)

	status := "ok"
	if err != nil {
		status = string(types.GetErrorCode(err))
	}
	p.metrics.RecordProviderRequest(p.next.Name(), req.Model, status, time.Since(start))

	return resp, err
}
