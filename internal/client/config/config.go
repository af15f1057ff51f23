package config

import "time"

// Config holds runtime settings for the ModelVault CLI.
//
// Fields:
//   - ServerAddr: base URL of the backend HTTP API.
//   - DatabaseDSN: path of the local SQLite object store.
//   - RequestTimeout: per-request deadline for remote calls.
type Config struct {
	ServerAddr     string
	DatabaseDSN    string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8080"
	c.DatabaseDSN = "modelvault.db"
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
