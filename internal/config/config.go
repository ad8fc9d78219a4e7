// Package config loads and validates the YAML configuration shared by the
// server and client binaries, following central/internal/config's
// Load/Default/Validate triad.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for both cmd/server and cmd/client;
// a given binary reads only the section it needs.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	World  WorldConfig  `yaml:"world"`
}

// ServerConfig configures the authoritative world server (spec §4.6, §6).
type ServerConfig struct {
	ListenAddress       string `yaml:"listen_address"`
	TickRate            int    `yaml:"tick_rate"`
	GenerateRadius      int    `yaml:"generate_radius"`
	GenerateThreadCount int    `yaml:"generate_thread_count"`
	Seed                uint32 `yaml:"seed"`
	SavePath            string `yaml:"save_path"`
	// StoragePath, when non-empty, selects the persistent goleveldb chunk
	// backend (internal/voxel/storage) in place of the default in-memory
	// one; it names the database directory, separate from SavePath's single
	// descriptor-table save file.
	StoragePath string `yaml:"storage_path"`
}

// ClientConfig configures a connecting client (spec §4.6, §6).
type ClientConfig struct {
	ServerAddress      string `yaml:"server_address"`
	ViewDistance       uint32 `yaml:"view_distance"`
	MeshBuilderWorkers int    `yaml:"mesh_builder_workers"`
}

// WorldConfig holds world-shape parameters shared by the generator and
// the chunk store (spec §3).
type WorldConfig struct {
	ChunkSize   int `yaml:"chunk_size"`
	ChunkHeight int `yaml:"chunk_height"`
}

// Load reads and validates a YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration a binary can start from with no file at
// all: default TCP port 12345 (spec §6), a 20 Hz tick rate, and a 5-worker
// generation pool.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddress:       "0.0.0.0:12345",
			TickRate:            20,
			GenerateRadius:      4,
			GenerateThreadCount: 5,
			SavePath:            "world.save",
		},
		Client: ClientConfig{
			ServerAddress:      "127.0.0.1:12345",
			ViewDistance:       8,
			MeshBuilderWorkers: 2,
		},
		World: WorldConfig{
			ChunkSize:   16,
			ChunkHeight: 256,
		},
	}
}

// Validate fills in any still-zero fields with their Default() equivalent
// and rejects values that can never be made sense of (negative rates,
// sizes).
func (c *Config) Validate() error {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = "0.0.0.0:12345"
	}
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("server.tick_rate must be positive")
	}
	if c.Server.GenerateRadius < 0 {
		return fmt.Errorf("server.generate_radius cannot be negative")
	}
	if c.Server.GenerateThreadCount <= 0 {
		c.Server.GenerateThreadCount = 5
	}
	if c.Server.SavePath == "" {
		c.Server.SavePath = "world.save"
	}
	if c.Client.ServerAddress == "" {
		c.Client.ServerAddress = "127.0.0.1:12345"
	}
	if c.Client.ViewDistance == 0 {
		c.Client.ViewDistance = 8
	}
	if c.Client.MeshBuilderWorkers <= 0 {
		c.Client.MeshBuilderWorkers = 2
	}
	if c.World.ChunkSize <= 0 {
		return fmt.Errorf("world.chunk_size must be positive")
	}
	if c.World.ChunkHeight <= 0 {
		return fmt.Errorf("world.chunk_height must be positive")
	}
	return nil
}
