package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/readmission-risk-server/internal/domain"
)

// LiteConfig is the environment-only configuration of the MCP server. It needs no
// config file and uses sensible defaults.
type LiteConfig struct {
	// Model bundle
	BundlePath string // READMISSION_BUNDLE_PATH
	Threshold  float64

	// Memoization
	CacheMaxItems int

	// Logging; the MCP server always logs to stderr because stdout carries the protocol
	LogLevel  string
	LogFormat string
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	return &LiteConfig{
		BundlePath:    DefaultBundlePath,
		Threshold:     domain.DefaultRiskThreshold,
		CacheMaxItems: 256,
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadLiteConfig loads configuration from environment variables, after merging any
// .env file in the working directory. Variables already set in the environment win
// over the file. Invalid values fall back to defaults.
func LoadLiteConfig() *LiteConfig {
	_ = godotenv.Load()
	return liteConfigFromEnv()
}

// LoadLiteConfigFile is LoadLiteConfig with an explicit env file.
func LoadLiteConfigFile(envFile string) (*LiteConfig, error) {
	if err := godotenv.Load(envFile); err != nil {
		return nil, err
	}
	return liteConfigFromEnv(), nil
}

func liteConfigFromEnv() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("READMISSION_BUNDLE_PATH"); v != "" {
		cfg.BundlePath = v
	}
	if v := os.Getenv("READMISSION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f < 1 {
			cfg.Threshold = f
		}
	}
	if v := os.Getenv("READMISSION_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CacheMaxItems = n
		}
	}

	if v := os.Getenv("READMISSION_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("READMISSION_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// DecisionPolicy returns the default policy with the configured threshold.
func (c *LiteConfig) DecisionPolicy() domain.DecisionPolicy {
	policy := domain.DefaultDecisionPolicy()
	policy.Threshold = c.Threshold
	return policy
}

// LoggingConfig returns the logging section for NewLogger.
func (c *LiteConfig) LoggingConfig() domain.LoggingConfig {
	return domain.LoggingConfig{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: "stderr",
	}
}
