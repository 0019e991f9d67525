// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like GENAI_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when absent.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries the usual locations so tests running from package
// directories still pick up the .env file.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in yaml values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "content-orchestrator"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.GenAI.Timeout <= 0 {
		cfg.GenAI.Timeout = 30000
	}
	if cfg.GenAI.MaxTokens <= 0 {
		cfg.GenAI.MaxTokens = 2000
	}
	if cfg.GenAI.Temperature <= 0 {
		cfg.GenAI.Temperature = 0.7
	}
	if cfg.GenAI.RetryAttempts < 0 {
		cfg.GenAI.RetryAttempts = 0
	}
	if cfg.GenAI.RetryBaseMs <= 0 {
		cfg.GenAI.RetryBaseMs = 100
	}
	if cfg.Pipeline.MaxConcurrentRequests <= 0 {
		cfg.Pipeline.MaxConcurrentRequests = 5
	}
	if cfg.Pipeline.CacheTTLMinutes <= 0 {
		cfg.Pipeline.CacheTTLMinutes = 60
	}
	if cfg.Scheduler.DefaultIntervalHours <= 0 {
		cfg.Scheduler.DefaultIntervalHours = 24
	}
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = "registry"
	}
	if cfg.Catalog.RegistryPath == "" {
		cfg.Catalog.RegistryPath = "configs/catalog.json"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9091"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.GenAI.BaseURL == "" {
		return fmt.Errorf("genai.base_url is required")
	}
	if cfg.Pipeline.MaxConcurrentRequests > 64 {
		return fmt.Errorf("pipeline.max_concurrent_requests too large: %d", cfg.Pipeline.MaxConcurrentRequests)
	}
	switch cfg.Catalog.Source {
	case "registry", "postgres":
	default:
		return fmt.Errorf("catalog.source must be registry or postgres, got %q", cfg.Catalog.Source)
	}
	return nil
}
