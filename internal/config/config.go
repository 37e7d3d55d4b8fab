package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// APIConfig describes how to reach the NextWave API.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

type Config struct {
	API APIConfig `yaml:"api"`
	Log LogConfig `yaml:"log"`
}

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://127.0.0.1:8000/api",
			TimeoutSeconds: 10,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the yaml config at path, falling back to defaults when the file
// is absent, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	overrideFromEnv(cfg)
	return cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if url := os.Getenv("NEXTWAVE_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if timeout := os.Getenv("NEXTWAVE_API_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			cfg.API.TimeoutSeconds = t
		}
	}
	if file := os.Getenv("NEXTWAVE_LOG_FILE"); file != "" {
		cfg.Log.File = file
	}
	if level := os.Getenv("NEXTWAVE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

// Timeout returns the API timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}
