// Package config loads runtime configuration for the readmission risk binaries: a
// Viper-backed manager for the HTTP server and an environment-only configuration for
// the MCP server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/readmission-risk-server/internal/domain"
)

// DefaultBundlePath is where the training run writes the model bundle.
const DefaultBundlePath = "models/readmission_model.json"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

var _ domain.ConfigManager = (*Manager)(nil)

// NewManager creates a new configuration manager that searches the standard config
// locations.
func NewManager() (*Manager, error) {
	return NewManagerWithFile("")
}

// NewManagerWithFile creates a configuration manager reading configFile. An empty
// path searches the standard locations instead.
func NewManagerWithFile(configFile string) (*Manager, error) {
	m := &Manager{configFile: configFile}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/readmission-risk/")
	}

	// READMISSION_MODEL_BUNDLE_PATH overrides model.bundle_path, and so on
	v.SetEnvPrefix("READMISSION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || m.configFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.tls_enabled", false)

	// Model and decision policy
	v.SetDefault("model.bundle_path", DefaultBundlePath)
	v.SetDefault("policy.threshold", domain.DefaultRiskThreshold)
	v.SetDefault("policy.high_risk_recommendation", domain.HighRiskRecommendation)
	v.SetDefault("policy.low_risk_recommendation", domain.LowRiskRecommendation)

	v.SetDefault("cache.max_entries", 1024)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetModelConfig returns the model bundle location
func (m *Manager) GetModelConfig() *domain.ModelConfig {
	return &m.config.Model
}

// GetDecisionPolicy returns the configured decision policy
func (m *Manager) GetDecisionPolicy() domain.DecisionPolicy {
	return m.config.Policy
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	return ValidateConfig(m.config)
}

// ValidateConfig checks a configuration for values the binaries cannot run with.
func ValidateConfig(config *domain.Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.TLSEnabled && (config.Server.CertFile == "" || config.Server.KeyFile == "") {
		return fmt.Errorf("TLS requires cert_file and key_file")
	}
	if config.Server.ShutdownTimeout < 0 || config.Server.ShutdownTimeout > 10*time.Minute {
		return fmt.Errorf("invalid shutdown timeout: %s", config.Server.ShutdownTimeout)
	}

	if config.Model.BundlePath == "" {
		return fmt.Errorf("model bundle path is required")
	}
	if err := config.Policy.Validate(); err != nil {
		return err
	}

	if config.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache max_entries must not be negative: %d", config.Cache.MaxEntries)
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requests_per_second must be positive")
		}
		if config.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive")
		}
	}

	if config.Metrics.Enabled && !strings.HasPrefix(config.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /: %q", config.Metrics.Path)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	if f := strings.ToLower(config.Logging.Format); f != "json" && f != "text" {
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
