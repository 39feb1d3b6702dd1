package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startManager brings up a manager on a random port and returns its base URL.
func startManager(t *testing.T, handler http.Handler) (*Manager, string) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Addr = ":0"
	m := NewManager(handler, cfg, zap.NewNop())
	require.NoError(t, m.Start())
	t.Cleanup(func() { m.Shutdown(context.Background()) })
	return m, "http://" + m.listener.Addr().String()
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	// a crew turn fans out several upstream model calls, so writes get
	// far longer than reads
	assert.Equal(t, 120*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 1<<20, cfg.MaxHeaderBytes)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestManager_ServesRequests(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	})
	_, base := startManager(t, handler)

	resp, err := http.Get(base + "/api/meetings")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(body))
}

func TestManager_GracefulShutdownDrainsInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.Write([]byte("done"))
	})
	m, base := startManager(t, handler)

	var (
		wg     sync.WaitGroup
		body   []byte
		getErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := http.Get(base + "/")
		if err != nil {
			getErr = err
			return
		}
		defer resp.Body.Close()
		body, _ = io.ReadAll(resp.Body)
	}()

	<-entered

	shutdownDone := make(chan error, 1)
	go func() { shutdownDone <- m.Shutdown(context.Background()) }()

	select {
	case <-shutdownDone:
		t.Fatal("shutdown finished while a request was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-shutdownDone)
	wg.Wait()

	require.NoError(t, getErr)
	assert.Equal(t, "done", string(body))
	assert.False(t, m.IsRunning())
}

func TestManager_Lifecycle(t *testing.T) {
	newStarted := func(t *testing.T) *Manager {
		cfg := DefaultConfig()
		cfg.Addr = ":0"
		m := NewManager(http.NewServeMux(), cfg, zap.NewNop())
		require.NoError(t, m.Start())
		t.Cleanup(func() { m.Shutdown(context.Background()) })
		return m
	}

	t.Run("double start fails", func(t *testing.T) {
		m := newStarted(t)
		err := m.Start()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already started")
	})

	t.Run("shutdown is idempotent", func(t *testing.T) {
		m := newStarted(t)
		require.NoError(t, m.Shutdown(context.Background()))
		require.NoError(t, m.Shutdown(context.Background()))
	})

	t.Run("start after shutdown fails", func(t *testing.T) {
		m := newStarted(t)
		require.NoError(t, m.Shutdown(context.Background()))
		err := m.Start()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "closed")
	})

	t.Run("running state tracks lifecycle", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Addr = ":0"
		m := NewManager(http.NewServeMux(), cfg, zap.NewNop())
		assert.True(t, m.IsRunning(), "not closed before start")

		require.NoError(t, m.Start())
		assert.True(t, m.IsRunning())

		require.NoError(t, m.Shutdown(context.Background()))
		assert.False(t, m.IsRunning())
	})
}

func TestManager_StartFailsOnOccupiedPort(t *testing.T) {
	m, _ := startManager(t, http.NewServeMux())

	cfg := DefaultConfig()
	cfg.Addr = m.listener.Addr().String()
	second := NewManager(http.NewServeMux(), cfg, zap.NewNop())
	assert.Error(t, second.Start())
}

func TestManager_ErrorsChannelStaysQuiet(t *testing.T) {
	m, _ := startManager(t, http.NewServeMux())

	ch := m.Errors()
	require.NotNil(t, ch)
	select {
	case err := <-ch:
		t.Fatalf("unexpected server error: %v", err)
	default:
	}
}
