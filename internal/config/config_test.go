package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
server:
  host: "127.0.0.1"
  port: 8000
  read_timeout: 10s
  write_timeout: 30s
  shutdown_timeout: 15s
  max_batch_size: 50

model:
  lookup_tables_path: "./artifacts/lookup_tables.json"
  label_encoders_path: "./artifacts/label_encoders.json"
  feature_importance_path: "./artifacts/feature_importance.json"
  threshold_path: "./artifacts/optimal_threshold.txt"
  default_threshold: 0.409
  top_factors: 3

scorer:
  base_url: "http://localhost:8501"
  timeout: 10s
  max_retries: 3
  retry_delay_base: 1s

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true

storage:
  db_path: "./data/test.db"
  max_records: 1000

logging:
  level: "info"
  format: "json"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Server.Port != 8000 {
		t.Errorf("Unexpected port: %d", cfg.Server.Port)
	}

	if cfg.Model.DefaultThreshold != 0.409 {
		t.Errorf("Unexpected threshold: %f", cfg.Model.DefaultThreshold)
	}

	if cfg.Scorer.Timeout != 10*time.Second {
		t.Errorf("Unexpected scorer timeout: %v", cfg.Scorer.Timeout)
	}

	if cfg.Server.MaxBatchSize != 50 {
		t.Errorf("Unexpected batch size: %d", cfg.Server.MaxBatchSize)
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if got := cfg.Addr(); got != "127.0.0.1:8000" {
		t.Errorf("Unexpected addr: %s", got)
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			MaxBatchSize: 100,
		},
		Model: ModelConfig{
			LabelEncodersPath: "./artifacts/label_encoders.json",
			DefaultThreshold:  0.409,
			TopFactors:        3,
		},
		Scorer: ScorerConfig{
			BaseURL:    "http://localhost:8501",
			Timeout:    10 * time.Second,
			MaxRetries: 3,
		},
		Storage: StorageConfig{
			DBPath:     "./data/test.db",
			MaxRecords: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Model.DefaultThreshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "missing encoders path",
			mutate:  func(c *Config) { c.Model.LabelEncodersPath = "" },
			wantErr: true,
		},
		{
			name:    "missing scorer url",
			mutate:  func(c *Config) { c.Scorer.BaseURL = "" },
			wantErr: true,
		},
		{
			name: "missing telegram token when enabled",
			mutate: func(c *Config) {
				c.Telegram.Enabled = true
				c.Telegram.ChatID = "chat"
				// Missing BotToken
			},
			wantErr: true,
		},
		{
			name:    "negative max records",
			mutate:  func(c *Config) { c.Storage.MaxRecords = -1 },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
