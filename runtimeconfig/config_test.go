package runtimeconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Config(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "canvas.json")
	content := `{"addr":"0.0.0.0:9090","registryBackend":"SQLite","dataDir":"./data","simulatorResponses":["yes","  ",""]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != "0.0.0.0:9090" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if cfg.RegistryBackend != "sqlite" {
		t.Fatalf("unexpected registry backend: %q", cfg.RegistryBackend)
	}
	if cfg.RunLogBackend != "memory" {
		t.Fatalf("unexpected run log backend: %q", cfg.RunLogBackend)
	}
	if len(cfg.SimulatorResponses) != 1 || cfg.SimulatorResponses[0] != "yes" {
		t.Fatalf("unexpected responses: %#v", cfg.SimulatorResponses)
	}
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != "127.0.0.1:7070" || cfg.RegistryBackend != "memory" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AGENTCANVAS_ADDR", "127.0.0.1:8000")
	t.Setenv("AGENTCANVAS_REGISTRY_BACKEND", "redis")
	t.Setenv("AGENTCANVAS_SIMULATOR_SEED", "42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8000" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if cfg.RegistryBackend != "redis" {
		t.Fatalf("unexpected backend: %q", cfg.RegistryBackend)
	}
	if cfg.SimulatorSeed != 42 {
		t.Fatalf("unexpected seed: %d", cfg.SimulatorSeed)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{bad"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("AGENTCANVAS_REGISTRY_BACKEND", "dynamo")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected backend error")
	}
}
