// Package config loads application configuration from underwrite.yaml and
// the environment, and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Rates       RatesConfig       `yaml:"rates" mapstructure:"rates"`
	Structuring StructuringConfig `yaml:"structuring" mapstructure:"structuring"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds credentials and tuning for the narrative generator.
type AnthropicConfig struct {
	APIKey            string `yaml:"api_key" mapstructure:"api_key"`
	Model             string `yaml:"model" mapstructure:"model"`
	MaxTokens         int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// Timeout returns the per-request deadline.
func (c AnthropicConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RatesConfig configures the base-rate source. Overrides replace the static
// fallback values; CacheTTLMinutes bounds how long a fetched rate is reused.
type RatesConfig struct {
	Prime           float64 `yaml:"prime" mapstructure:"prime"`
	SOFR            float64 `yaml:"sofr" mapstructure:"sofr"`
	Treasury        float64 `yaml:"treasury" mapstructure:"treasury"`
	CacheTTLMinutes int     `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
}

// CacheTTL returns the rate cache TTL.
func (c RatesConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// StructuringConfig tunes the deal structuring pipeline.
type StructuringConfig struct {
	// LLMTimeoutSecs bounds each narrative call (enhancement, compliance
	// review) individually.
	LLMTimeoutSecs int `yaml:"llm_timeout_secs" mapstructure:"llm_timeout_secs"`
	// BatchConcurrency caps how many deals structure at once in batch mode.
	BatchConcurrency int `yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
}

// LLMTimeout returns the per-call narrative deadline.
func (c StructuringConfig) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from underwrite.yaml (searched in the working
// directory, ~/.underwrite, and /etc/underwrite), applies UNDERWRITE_*
// environment overrides, and fills defaults for everything else.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("underwrite")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.underwrite")
	v.AddConfigPath("/etc/underwrite")

	// Environment
	v.SetEnvPrefix("UNDERWRITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.timeout_secs", 60)
	v.SetDefault("anthropic.requests_per_minute", 50)
	v.SetDefault("rates.cache_ttl_minutes", 60)
	v.SetDefault("structuring.llm_timeout_secs", 90)
	v.SetDefault("structuring.batch_concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
