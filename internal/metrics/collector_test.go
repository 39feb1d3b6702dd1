package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

// metric families register globally, so every test gets its own namespace
func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.providerRequestsTotal)
	assert.NotNil(t, collector.turnsTotal)
	assert.NotNil(t, collector.messagesAppended)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("POST", "/api/meetings/{id}/respond", 200, 100*time.Millisecond)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)

	collector.RecordHTTPRequest("POST", "/api/meetings/{id}/respond", 500, 50*time.Millisecond)
	assert.Equal(t, 2, testutil.CollectAndCount(collector.httpRequestsTotal))
}

func TestCollector_ObserveTurn(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.ObserveTurn("crew", "completed", 2*time.Second)
	collector.ObserveTurn("crew", "failed", time.Second)
	collector.ObserveTurn("single", "completed", time.Second)

	assert.Equal(t, 3, testutil.CollectAndCount(collector.turnsTotal))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.turnDuration))
}

func TestCollector_RecordProviderRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordProviderRequest("openai", "gpt-4.1", "success", 800*time.Millisecond)
	collector.RecordProviderRequest("anthropic", "claude-2.1", "error", 100*time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(collector.providerRequestsTotal))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, "2xx", statusCode(201))
	assert.Equal(t, "3xx", statusCode(304))
	assert.Equal(t, "4xx", statusCode(404))
	assert.Equal(t, "5xx", statusCode(502))
	assert.Equal(t, "unknown", statusCode(42))
}
