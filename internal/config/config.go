package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	IEX struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"iex"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	HTTP struct {
		TimeoutSec int `yaml:"timeout_sec"`
	} `yaml:"http"`
	Watch struct {
		Cron    string   `yaml:"cron"`
		Symbols []string `yaml:"symbols"`
	} `yaml:"watch"`
	Proxy string `yaml:"proxy"`
}

// DefaultDir returns the per-user configuration directory. It is only a
// suggested default; callers pass in the paths they actually want loaded.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pecunia")
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// A .env file in the working directory feeds the overrides below.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PECUNIA_IEX_TOKEN"); v != "" {
		cfg.IEX.Token = v
	}
	if v := os.Getenv("PECUNIA_IEX_BASE_URL"); v != "" {
		cfg.IEX.BaseURL = v
	}
	if v := os.Getenv("PECUNIA_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PECUNIA_WATCH_CRON"); v != "" {
		cfg.Watch.Cron = v
	}
	if v := os.Getenv("PECUNIA_WATCH_SYMBOLS"); v != "" {
		cfg.Watch.Symbols = splitCSV(v)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.HTTP.TimeoutSec <= 0 {
		cfg.HTTP.TimeoutSec = 30
	}
	if cfg.Watch.Cron == "" {
		// every 15 minutes during extended US trading hours (UTC), Mon-Fri
		cfg.Watch.Cron = "0 */15 13-21 * * 1-5"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.IEX.Token == "" {
		return fmt.Errorf("iex.token is required (config file, auth file or PECUNIA_IEX_TOKEN)")
	}
	return nil
}

// Auth is the credential record stored in auth.json.
type Auth struct {
	APIToken string `json:"api_token"`
}

// LoadAuth reads the API token from a JSON auth file.
func LoadAuth(path string) (*Auth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read auth file: %w", err)
	}
	auth := &Auth{}
	if err := json.Unmarshal(data, auth); err != nil {
		return nil, fmt.Errorf("parse auth file: %w", err)
	}
	return auth, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
