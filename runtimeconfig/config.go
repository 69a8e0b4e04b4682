// Package runtimeconfig loads the server's startup settings from an optional
// JSON file plus AGENTCANVAS_* environment overrides.
package runtimeconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Addr       string `json:"addr"`
	APIKey     string `json:"apiKey"`
	CanvasName string `json:"canvasName"`

	// RegistryBackend selects where saved agents live: "memory", "sqlite"
	// or "redis".
	RegistryBackend string `json:"registryBackend"`
	// RunLogBackend selects where run events live: "memory" or "sqlite".
	RunLogBackend string `json:"runLogBackend"`

	// DataDir holds the sqlite databases when a sqlite backend is chosen.
	DataDir string `json:"dataDir"`

	RedisAddr     string `json:"redisAddr"`
	RedisPassword string `json:"redisPassword"`
	RedisDB       int    `json:"redisDb"`

	SimulatorSeed      int64    `json:"simulatorSeed"`
	SimulatorResponses []string `json:"simulatorResponses"`

	// RunLogCapacity bounds the in-memory run log; 0 keeps the default.
	RunLogCapacity int `json:"runLogCapacity"`
}

func Default() Config {
	return Config{
		Addr:            "127.0.0.1:7070",
		CanvasName:      "Visual Agent",
		RegistryBackend: "memory",
		RunLogBackend:   "memory",
		DataDir:         "./.agentcanvas",
		RedisAddr:       "127.0.0.1:6379",
	}
}

// Load reads the config file when path is non-empty, then applies
// environment overrides on top. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	path = strings.TrimSpace(path)
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve config path: %w", err)
		}
		data, err := os.ReadFile(absPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %q: %w", absPath, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode config file %q as JSON: %w", absPath, err)
		}
	}

	applyEnv(&cfg)

	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.CanvasName = strings.TrimSpace(cfg.CanvasName)
	cfg.RegistryBackend = strings.ToLower(strings.TrimSpace(cfg.RegistryBackend))
	cfg.RunLogBackend = strings.ToLower(strings.TrimSpace(cfg.RunLogBackend))
	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	cfg.RedisAddr = strings.TrimSpace(cfg.RedisAddr)

	cleanResponses := make([]string, 0, len(cfg.SimulatorResponses))
	for _, r := range cfg.SimulatorResponses {
		if strings.TrimSpace(r) == "" {
			continue
		}
		cleanResponses = append(cleanResponses, r)
	}
	cfg.SimulatorResponses = cleanResponses

	if cfg.Addr == "" {
		cfg.Addr = Default().Addr
	}
	if cfg.RegistryBackend == "" {
		cfg.RegistryBackend = "memory"
	}
	if cfg.RunLogBackend == "" {
		cfg.RunLogBackend = "memory"
	}

	switch cfg.RegistryBackend {
	case "memory", "sqlite", "redis":
	default:
		return Config{}, fmt.Errorf("unknown registry backend %q", cfg.RegistryBackend)
	}
	switch cfg.RunLogBackend {
	case "memory", "sqlite":
	default:
		return Config{}, fmt.Errorf("unknown run log backend %q", cfg.RunLogBackend)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("AGENTCANVAS_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("AGENTCANVAS_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("AGENTCANVAS_CANVAS_NAME"); v != "" {
		cfg.CanvasName = v
	}
	if v := os.Getenv("AGENTCANVAS_REGISTRY_BACKEND"); v != "" {
		cfg.RegistryBackend = v
	}
	if v := os.Getenv("AGENTCANVAS_RUNLOG_BACKEND"); v != "" {
		cfg.RunLogBackend = v
	}
	if v := os.Getenv("AGENTCANVAS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("AGENTCANVAS_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("AGENTCANVAS_REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("AGENTCANVAS_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = n
		}
	}
	if v := os.Getenv("AGENTCANVAS_SIMULATOR_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.SimulatorSeed = n
		}
	}
	if v := os.Getenv("AGENTCANVAS_RUNLOG_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RunLogCapacity = n
		}
	}
}
