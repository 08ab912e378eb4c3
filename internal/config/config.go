package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jusunglee/mrt-go/internal/graph"
)

// Config holds the runtime settings shared by the server and the CLI
type Config struct {
	Port           int
	NetworkDir     string
	ReloadInterval time.Duration
	TransferPolicy graph.TransferPolicy
	MaxWorkers     int
	CacheTTL       time.Duration
	MetricsAddr    string
	CORSOrigins    []string
	LogFormat      string
	Debug          bool
}

// Load reads settings from the environment, after loading a .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		NetworkDir:  getenvDefault("NETWORK_DIR", "networks"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
		CORSOrigins: splitList(getenvDefault("CORS_ORIGINS", "*")),
		LogFormat:   strings.ToUpper(getenvDefault("LOG_FORMAT", "CONSOLE")),
		Debug:       strings.EqualFold(os.Getenv("DEBUG"), "YES") || strings.EqualFold(os.Getenv("DEBUG"), "true"),
	}

	var err error
	if cfg.Port, err = getenvInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.MaxWorkers, err = getenvInt("MAX_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.MaxWorkers < 1 {
		return nil, fmt.Errorf("invalid MAX_WORKERS: %d", cfg.MaxWorkers)
	}
	if cfg.ReloadInterval, err = getenvDuration("RELOAD_INTERVAL", 0); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	policy := os.Getenv("TRANSFER_POLICY")
	if cfg.TransferPolicy, err = graph.ParseTransferPolicy(policy); err != nil {
		return nil, fmt.Errorf("invalid TRANSFER_POLICY: %q", policy)
	}

	if cfg.LogFormat != "CONSOLE" && cfg.LogFormat != "JSON" {
		return nil, fmt.Errorf("invalid LOG_FORMAT: %q", cfg.LogFormat)
	}

	return cfg, nil
}

// GraphOptions returns the build options derived from the config
func (c *Config) GraphOptions() graph.Options {
	return graph.Options{Transfers: c.TransferPolicy}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}
