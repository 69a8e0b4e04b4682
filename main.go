package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	"github.com/agentcanvas/agentcanvas/api"
	"github.com/agentcanvas/agentcanvas/registry"
	registryredis "github.com/agentcanvas/agentcanvas/registry/redis"
	registrysqlite "github.com/agentcanvas/agentcanvas/registry/sqlite"
	"github.com/agentcanvas/agentcanvas/runlog"
	runlogotel "github.com/agentcanvas/agentcanvas/runlog/otel"
	runlogsqlite "github.com/agentcanvas/agentcanvas/runlog/sqlite"
	"github.com/agentcanvas/agentcanvas/runtimeconfig"
	"github.com/agentcanvas/agentcanvas/simulate"
)

func main() {
	if len(os.Args) > 1 {
		switch strings.TrimSpace(os.Args[1]) {
		case "serve":
			serve(os.Args[2:])
			return
		case "help", "-h", "--help":
			printUsage()
			return
		default:
			serve(os.Args[1:])
			return
		}
	}
	serve(nil)
}

func serve(args []string) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	configPath := strings.TrimSpace(os.Getenv("AGENTCANVAS_CONFIG"))
	for _, arg := range args {
		if strings.HasPrefix(arg, "--config=") {
			configPath = strings.TrimSpace(strings.TrimPrefix(arg, "--config="))
		}
	}

	cfg, err := runtimeconfig.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--addr="):
			cfg.Addr = strings.TrimSpace(strings.TrimPrefix(arg, "--addr="))
		case strings.HasPrefix(arg, "--api-key="):
			cfg.APIKey = strings.TrimSpace(strings.TrimPrefix(arg, "--api-key="))
		case strings.HasPrefix(arg, "--registry="):
			cfg.RegistryBackend = strings.TrimSpace(strings.TrimPrefix(arg, "--registry="))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registryStore, err := buildRegistry(cfg)
	if err != nil {
		log.Fatalf("registry setup failed: %v", err)
	}
	defer func() {
		if err := registryStore.Close(); err != nil {
			log.Printf("registry close failed: %v", err)
		}
	}()

	runStore, err := buildRunLog(cfg)
	if err != nil {
		log.Fatalf("run log setup failed: %v", err)
	}
	defer func() {
		if err := runStore.Close(); err != nil {
			log.Printf("run log close failed: %v", err)
		}
	}()

	simOpts := []simulate.Option{
		simulate.WithStore(runStore),
		simulate.WithSink(runlogotel.NewSink(otel.GetTracerProvider())),
	}
	if cfg.SimulatorSeed != 0 {
		simOpts = append(simOpts, simulate.WithSeed(cfg.SimulatorSeed))
	}
	if len(cfg.SimulatorResponses) > 0 {
		simOpts = append(simOpts, simulate.WithResponses(cfg.SimulatorResponses))
	}

	server := api.NewServer(api.Config{
		Addr:       cfg.Addr,
		APIKey:     cfg.APIKey,
		CanvasName: cfg.CanvasName,
		Registry:   registryStore,
		Runs:       runStore,
		Runner:     simulate.New(simOpts...),
	})

	log.Printf("🎨 Agent canvas listening on http://%s (registry=%s, runlog=%s)",
		cfg.Addr, cfg.RegistryBackend, cfg.RunLogBackend)
	if err := server.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server failed: %v", err)
	}
}

func buildRegistry(cfg runtimeconfig.Config) (registry.Store, error) {
	switch cfg.RegistryBackend {
	case "memory":
		return registry.NewMemoryStore(), nil
	case "sqlite":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return registrysqlite.New(filepath.Join(cfg.DataDir, "agents.db"))
	case "redis":
		return registryredis.New(cfg.RedisAddr,
			registryredis.WithPassword(cfg.RedisPassword),
			registryredis.WithDB(cfg.RedisDB),
		)
	}
	return nil, fmt.Errorf("unknown registry backend %q", cfg.RegistryBackend)
}

func buildRunLog(cfg runtimeconfig.Config) (runlog.Store, error) {
	switch cfg.RunLogBackend {
	case "memory":
		return runlog.NewMemoryStore(cfg.RunLogCapacity), nil
	case "sqlite":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return runlogsqlite.New(filepath.Join(cfg.DataDir, "runs.db"))
	}
	return nil, fmt.Errorf("unknown run log backend %q", cfg.RunLogBackend)
}

func printUsage() {
	fmt.Println("Agent Canvas — visual agent pipeline builder backend")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  agentcanvas serve [--addr=127.0.0.1:7070] [--config=canvas.json] [--api-key=KEY] [--registry=memory|sqlite|redis]")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  AGENTCANVAS_CONFIG             Path to the JSON config file")
	fmt.Println("  AGENTCANVAS_ADDR               Listen address")
	fmt.Println("  AGENTCANVAS_API_KEY            Static API key; empty disables auth")
	fmt.Println("  AGENTCANVAS_REGISTRY_BACKEND   memory | sqlite | redis")
	fmt.Println("  AGENTCANVAS_RUNLOG_BACKEND     memory | sqlite")
	fmt.Println("  AGENTCANVAS_DATA_DIR           Directory for the sqlite databases")
	fmt.Println("  AGENTCANVAS_REDIS_ADDR         Redis address for the redis registry")
	fmt.Println("  AGENTCANVAS_SIMULATOR_SEED     Fixed seed for the simulated runner")
}
