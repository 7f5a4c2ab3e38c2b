package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Model    ModelConfig    `mapstructure:"model"`
	Scorer   ScorerConfig   `mapstructure:"scorer"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBatchSize    int           `mapstructure:"max_batch_size"`
}

// ModelConfig holds the model artifact paths and prescriptive settings
type ModelConfig struct {
	LookupTablesPath      string  `mapstructure:"lookup_tables_path"`
	LabelEncodersPath     string  `mapstructure:"label_encoders_path"`
	FeatureImportancePath string  `mapstructure:"feature_importance_path"`
	ThresholdPath         string  `mapstructure:"threshold_path"`
	DefaultThreshold      float64 `mapstructure:"default_threshold"`
	TopFactors            int     `mapstructure:"top_factors"`
}

// ScorerConfig holds the remote scoring service configuration
type ScorerConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// TelegramConfig holds the operational alert configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds the prediction history configuration
type StorageConfig struct {
	DBPath     string `mapstructure:"db_path"`
	MaxRecords int    `mapstructure:"max_records"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("FLIGHTONTIME")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.max_batch_size", 100)

	// Model defaults
	v.SetDefault("model.lookup_tables_path", "./artifacts/lookup_tables.json")
	v.SetDefault("model.label_encoders_path", "./artifacts/label_encoders.json")
	v.SetDefault("model.feature_importance_path", "./artifacts/feature_importance.json")
	v.SetDefault("model.threshold_path", "./artifacts/optimal_threshold.txt")
	v.SetDefault("model.default_threshold", 0.409)
	v.SetDefault("model.top_factors", 3)

	// Scorer defaults
	v.SetDefault("scorer.base_url", "http://localhost:8501")
	v.SetDefault("scorer.timeout", "10s")
	v.SetDefault("scorer.max_retries", 3)
	v.SetDefault("scorer.retry_delay_base", "1s")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/flightontime.db")
	v.SetDefault("storage.max_records", 10000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.MaxBatchSize < 1 {
		return fmt.Errorf("server.max_batch_size must be at least 1")
	}

	// Validate Model config
	if c.Model.LabelEncodersPath == "" {
		return fmt.Errorf("model.label_encoders_path is required")
	}
	if c.Model.DefaultThreshold <= 0.0 || c.Model.DefaultThreshold >= 1.0 {
		return fmt.Errorf("model.default_threshold must be between 0.0 and 1.0 exclusive")
	}
	if c.Model.TopFactors < 1 {
		return fmt.Errorf("model.top_factors must be at least 1")
	}

	// Validate Scorer config
	if c.Scorer.BaseURL == "" {
		return fmt.Errorf("scorer.base_url is required")
	}
	if c.Scorer.Timeout < time.Second {
		return fmt.Errorf("scorer.timeout must be at least 1 second")
	}
	if c.Scorer.MaxRetries < 1 {
		return fmt.Errorf("scorer.max_retries must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.MaxRecords < 0 {
		return fmt.Errorf("storage.max_records must not be negative")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Addr returns the host:port address the HTTP server binds to
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
