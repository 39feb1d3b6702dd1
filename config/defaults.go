package config

import (
	"time"

	"github.com/BaSui01/boardroom/crew"
	"github.com/BaSui01/boardroom/llm"
)

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Database:  DefaultDatabaseConfig(),
		LLM:       DefaultLLMConfig(),
		Crew:      crew.DefaultConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default HTTP settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
		CORSOrigins:     []string{"http://localhost:3000"},
	}
}

// DefaultDatabaseConfig returns the default store settings. SQLite keeps
// a fresh checkout runnable without external services.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Host:            "localhost",
		Port:            5432,
		User:            "boardroom",
		Password:        "",
		Name:            "boardroom.db",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultLLMConfig returns the default provider and generation settings.
func DefaultLLMConfig() LLMConfig {
	policy := llm.DefaultGenerationPolicy()
	return LLMConfig{
		OpenAI: OpenAIConfig{
			APIKey: "",
		},
		Anthropic: AnthropicConfig{
			APIKey: "",
		},
		MaxTokens:   policy.MaxTokens,
		Temperature: policy.Temperature,
		Timeout:     2 * time.Minute,
	}
}

// DefaultLogConfig returns the default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig returns the default telemetry settings.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "boardroom",
		Environment:  "development",
		SampleRate:   0.1,
	}
}

// GenerationPolicy converts the LLM section into the policy applied to
// persona completions.
func (c LLMConfig) GenerationPolicy() llm.GenerationPolicy {
	return llm.GenerationPolicy{
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}
}
