package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/leadscout/internal/notify"
	"github.com/sells-group/leadscout/internal/registry"
	"github.com/sells-group/leadscout/internal/store"
	syncpkg "github.com/sells-group/leadscout/internal/sync"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Registry  registry.Config `yaml:"registry" mapstructure:"registry"`
	Sync      syncpkg.Options `yaml:"sync" mapstructure:"sync"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Summary   SummaryConfig   `yaml:"summary" mapstructure:"summary"`
	Logo      LogoConfig      `yaml:"logo" mapstructure:"logo"`
	Notify    notify.Config   `yaml:"notify" mapstructure:"notify"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SummaryConfig configures AI lead summaries.
type SummaryConfig struct {
	Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
	ScoreThreshold int  `yaml:"score_threshold" mapstructure:"score_threshold"`
}

// LogoConfig configures logo lookups during mapping.
type LogoConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadscout.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("registry.country", "NO")
	v.SetDefault("registry.max_retries", 3)
	v.SetDefault("registry.requests_per_sec", 10)
	v.SetDefault("sync.workers", 5)
	v.SetDefault("sync.page_size", 100)
	v.SetDefault("sync.max_pages", 1000)
	v.SetDefault("sync.max_sub_entity_pages", 500)
	v.SetDefault("sync.roles_batch_size", 1000)
	v.SetDefault("sync.summary_threshold", 75)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("summary.enabled", false)
	v.SetDefault("summary.score_threshold", 75)
	v.SetDefault("logo.enabled", false)
	v.SetDefault("logo.base_url", "https://img.logo.dev")
	v.SetDefault("notify.timeout_secs", 10)

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

// RegistryConfig resolves the effective registry configuration: the
// country's preset overlaid with any explicit overrides from file or env.
func (c *Config) RegistryConfig() (registry.Config, error) {
	base, err := registry.ForCountry(c.Registry.Country)
	if err != nil {
		return registry.Config{}, err
	}
	if c.Registry.BaseURL != "" {
		base.BaseURL = c.Registry.BaseURL
	}
	if c.Registry.UserAgent != "" {
		base.UserAgent = c.Registry.UserAgent
	}
	if c.Registry.MaxRetries > 0 {
		base.MaxRetries = c.Registry.MaxRetries
	}
	if c.Registry.RetryBaseDelay > 0 {
		base.RetryBaseDelay = c.Registry.RetryBaseDelay
	}
	if c.Registry.RequestsPerSec > 0 {
		base.RequestsPerSec = c.Registry.RequestsPerSec
	}
	if c.Registry.Timeout > 0 {
		base.Timeout = c.Registry.Timeout
	}
	return base, nil
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
