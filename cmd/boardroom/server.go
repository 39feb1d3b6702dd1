package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/boardroom/api/handlers"
	"github.com/BaSui01/boardroom/config"
	"github.com/BaSui01/boardroom/crew"
	"github.com/BaSui01/boardroom/internal/metrics"
	"github.com/BaSui01/boardroom/internal/server"
	"github.com/BaSui01/boardroom/internal/telemetry"
	"github.com/BaSui01/boardroom/llm"
	"github.com/BaSui01/boardroom/llm/providers"
	"github.com/BaSui01/boardroom/llm/providers/anthropic"
	"github.com/BaSui01/boardroom/llm/providers/openai"
	"github.com/BaSui01/boardroom/orchestrator"
	"github.com/BaSui01/boardroom/store"
)

// Server wires the boardroom service together.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	otelProviders *telemetry.Providers

	httpManager    *server.Manager
	metricsManager *server.Manager

	store *store.Gorm

	healthHandler  *handlers.HealthHandler
	personaHandler *handlers.PersonaHandler
	meetingHandler *handlers.MeetingHandler
	messageHandler *handlers.MessageHandler

	metricsCollector *metrics.Collector

	// backgroundCancel stops the rate limiter cleanup and the pool
	// stats loop on shutdown.
	backgroundCtx    context.Context
	backgroundCancel context.CancelFunc
}

// NewServer creates a server instance.
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		otelProviders: otelProviders,
	}
}

// Start brings up storage, handlers, and both listeners.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("boardroom", s.logger)
	s.backgroundCtx, s.backgroundCancel = context.WithCancel(context.Background())

	if err := s.initStore(); err != nil {
		return fmt.Errorf("failed to init store: %w", err)
	}
	go s.pollDBStats(s.backgroundCtx)

	if err := s.initHandlers(); err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)

	return nil
}

func (s *Server) initStore() error {
	db, err := store.Open(store.Options{
		Driver:          s.cfg.Database.Driver,
		DSN:             s.cfg.Database.DSN(),
		MaxIdleConns:    s.cfg.Database.MaxIdleConns,
		MaxOpenConns:    s.cfg.Database.MaxOpenConns,
		ConnMaxLifetime: s.cfg.Database.ConnMaxLifetime,
	}, s.logger)
	if err != nil {
		return err
	}

	bus := store.NewEventBus(s.logger)
	s.store = store.NewGorm(db, bus, s.logger)
	s.store.SetMetrics(s.metricsCollector)
	if err := s.store.AutoMigrate(); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	// persona deletions propagate to meeting rosters through the bus
	store.NewRosterJanitor(s.store, s.logger).Bind(bus)

	return nil
}

// pollDBStats feeds connection pool gauges until the context is cancelled.
func (s *Server) pollDBStats(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sqlDB, err := s.store.DB().DB()
			if err != nil {
				continue
			}
			stats := sqlDB.Stats()
			s.metricsCollector.RecordDBConnections(s.cfg.Database.Driver, stats.OpenConnections, stats.Idle)
		}
	}
}

func (s *Server) initHandlers() error {
	registry := llm.NewRegistry()
	registry.Register("openai", llm.InstrumentProvider(openai.New(providers.OpenAIConfig{
		APIKey:       s.cfg.LLM.OpenAI.APIKey,
		BaseURL:      s.cfg.LLM.OpenAI.BaseURL,
		Organization: s.cfg.LLM.OpenAI.Organization,
		Timeout:      s.cfg.LLM.Timeout,
	}, s.logger), s.metricsCollector))
	registry.Register("anthropic", llm.InstrumentProvider(anthropic.New(providers.AnthropicConfig{
		APIKey:  s.cfg.LLM.Anthropic.APIKey,
		BaseURL: s.cfg.LLM.Anthropic.BaseURL,
		Version: s.cfg.LLM.Anthropic.Version,
		Timeout: s.cfg.LLM.Timeout,
	}, s.logger), s.metricsCollector))

	policy := s.cfg.LLM.GenerationPolicy()
	assembler := crew.NewAssembler(s.cfg.Crew, s.logger)
	runner := crew.NewHierarchicalRunner(registry, policy, s.logger)

	orch := orchestrator.New(s.store, registry, assembler, runner, policy, s.logger,
		orchestrator.WithMetrics(s.metricsCollector))

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewDatabaseHealthCheck("database", s.pingDatabase))

	s.personaHandler = handlers.NewPersonaHandler(s.store, s.logger)
	s.meetingHandler = handlers.NewMeetingHandler(s.store, s.logger)
	s.messageHandler = handlers.NewMessageHandler(s.store, orch, s.logger)

	s.logger.Info("Handlers initialized")
	return nil
}

func (s *Server) pingDatabase(ctx context.Context) error {
	sqlDB, err := s.store.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("POST /api/personas", s.personaHandler.HandleCreate)
	mux.HandleFunc("GET /api/personas", s.personaHandler.HandleList)
	mux.HandleFunc("GET /api/personas/{id}", s.personaHandler.HandleGet)
	mux.HandleFunc("DELETE /api/personas/{id}", s.personaHandler.HandleDelete)

	mux.HandleFunc("POST /api/meetings", s.meetingHandler.HandleCreate)
	mux.HandleFunc("GET /api/meetings", s.meetingHandler.HandleList)
	mux.HandleFunc("GET /api/meetings/{id}", s.meetingHandler.HandleGet)
	mux.HandleFunc("DELETE /api/meetings/{id}", s.meetingHandler.HandleDelete)

	mux.HandleFunc("POST /api/meetings/{id}/messages", s.messageHandler.HandleSend)
	mux.HandleFunc("GET /api/meetings/{id}/messages", s.messageHandler.HandleList)
	mux.HandleFunc("POST /api/meetings/{id}/respond", s.messageHandler.HandleRespond)

	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		MetricsMiddleware(s.metricsCollector),
		CORS(s.cfg.Server.CORSOrigins),
		RateLimiter(s.backgroundCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until a signal arrives, then shuts down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	s.Shutdown()
}

// Shutdown stops all components in order.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	if s.backgroundCancel != nil {
		s.backgroundCancel()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	if s.otelProviders != nil {
		if err := s.otelProviders.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
