// Package config resolves server and client settings. Environment variables
// supply defaults, an optional YAML file overrides them, and command-line
// flags override both.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	PollTimeout    time.Duration `yaml:"poll_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ExtractTimeout time.Duration `yaml:"extract_timeout"`
	// WatermarkDSN selects the watermark store. Empty means one SQLite file
	// per project; postgres:// URLs use a shared PostgreSQL database.
	WatermarkDSN string `yaml:"watermark_dsn"`
	// Secret signs control-surface tokens. Empty disables authentication.
	Secret    string `yaml:"secret"`
	LogFile   string `yaml:"log_file"`
	ServerURL string `yaml:"server_url"`
	Trace     bool   `yaml:"trace"`
}

func Default() Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           44755,
		PollTimeout:    15 * time.Second,
		RequestTimeout: 30 * time.Second,
		ExtractTimeout: 10 * time.Minute,
	}
}

// Load reads the environment and then, when path is non-empty, the YAML
// file at path.
func Load(path string) (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// FromEnv applies RBXSYNC_* variables over the defaults.
func FromEnv() (*Config, error) {
	cfg := Default()

	cfg.Host = getEnv("RBXSYNC_HOST", cfg.Host)
	cfg.WatermarkDSN = getEnv("RBXSYNC_WATERMARK_DSN", cfg.WatermarkDSN)
	cfg.Secret = getEnv("RBXSYNC_SECRET", cfg.Secret)
	cfg.LogFile = getEnv("RBXSYNC_LOG_FILE", cfg.LogFile)
	cfg.ServerURL = getEnv("RBXSYNC_SERVER_URL", cfg.ServerURL)

	if v := os.Getenv("RBXSYNC_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RBXSYNC_PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("RBXSYNC_TRACE"); v != "" {
		trace, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RBXSYNC_TRACE %q: %w", v, err)
		}
		cfg.Trace = trace
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"RBXSYNC_POLL_TIMEOUT", &cfg.PollTimeout},
		{"RBXSYNC_REQUEST_TIMEOUT", &cfg.RequestTimeout},
		{"RBXSYNC_EXTRACT_TIMEOUT", &cfg.ExtractTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.name)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, v, err)
		}
		*d.dst = parsed
	}

	return &cfg, nil
}

// LoadFile overrides the fields present in the YAML file at path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("poll timeout must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.ExtractTimeout <= 0 {
		return fmt.Errorf("extract timeout must be positive")
	}
	return nil
}

// Addr is the listen address of the server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL is where clients reach the server.
func (c *Config) URL() string {
	if c.ServerURL != "" {
		return strings.TrimRight(c.ServerURL, "/")
	}
	return "http://" + c.Addr()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
