package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".config.yaml"

// Loader reads configuration from a yaml file plus environment overrides.
// Credentials are taken from the environment so they never live in the
// config file: FLICKAI_VISION_API_KEY and FLICKAI_CHAT_API_KEY.
type Loader struct {
	path      string
	useDotEnv bool
}

func NewLoader() *Loader {
	return &Loader{
		path:      defaultConfigFile,
		useDotEnv: true,
	}
}

// WithPath overrides the config file location.
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Load builds the effective configuration. A missing config file is not an
// error; defaults plus environment variables are enough to run.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		_ = godotenv.Load()
	}

	cfg := &Config{}

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", l.path, err)
		}
	case os.IsNotExist(err):
		// run on defaults
	default:
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}

	l.applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *Loader) applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FLICKAI_VISION_API_KEY"); v != "" {
		cfg.Vision.APIKey = v
	}
	if v := os.Getenv("FLICKAI_VISION_URL"); v != "" {
		cfg.Vision.BaseURL = v
	}
	if v := os.Getenv("FLICKAI_CHAT_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
	}
	if v := os.Getenv("FLICKAI_CHAT_URL"); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := os.Getenv("FLICKAI_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Vision.Timeout <= 0 {
		return fmt.Errorf("vision timeout must be positive: %v", cfg.Vision.Timeout)
	}
	if cfg.Chat.MaxTokens <= 0 {
		return fmt.Errorf("chat max_tokens must be positive: %d", cfg.Chat.MaxTokens)
	}
	return nil
}
