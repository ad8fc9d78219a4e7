package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() config failed to validate: %v", err)
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a config with no tick rate or chunk dimensions")
	}

	cfg = &Config{
		Server: ServerConfig{TickRate: 20},
		World:  WorldConfig{ChunkSize: 16, ChunkHeight: 256},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:12345" {
		t.Fatalf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.GenerateThreadCount != 5 {
		t.Fatalf("GenerateThreadCount = %d, want 5", cfg.Server.GenerateThreadCount)
	}
	if cfg.Client.ViewDistance != 8 {
		t.Fatalf("ViewDistance = %d, want 8", cfg.Client.ViewDistance)
	}
}

func TestValidateRejectsInvalidConfigurations(t *testing.T) {
	tests := map[string]*Config{
		"zero tick rate": {
			Server: ServerConfig{TickRate: 0},
			World:  WorldConfig{ChunkSize: 16, ChunkHeight: 256},
		},
		"negative generate radius": {
			Server: ServerConfig{TickRate: 20, GenerateRadius: -1},
			World:  WorldConfig{ChunkSize: 16, ChunkHeight: 256},
		},
		"zero chunk size": {
			Server: ServerConfig{TickRate: 20},
			World:  WorldConfig{ChunkSize: 0, ChunkHeight: 256},
		},
		"zero chunk height": {
			Server: ServerConfig{TickRate: 20},
			World:  WorldConfig{ChunkSize: 16, ChunkHeight: 0},
		},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected an error for %s", name)
			}
		})
	}
}

func TestLoadReadsAndValidatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	const body = `
server:
  listen_address: "0.0.0.0:9999"
  tick_rate: 20
world:
  chunk_size: 16
  chunk_height: 256
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Fatalf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
