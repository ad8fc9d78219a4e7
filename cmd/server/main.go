// Command server runs the authoritative voxel world server (spec §6): it
// loads (or creates) a world at the configured save path, listens for
// client connections, and serves them until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voxelworld/internal/config"
	"voxelworld/internal/registry"
	"voxelworld/internal/serverside"
)

func main() {
	var cfgPath, listen, savePath, storagePath string
	var seed uint
	flag.StringVar(&cfgPath, "config", "", "path to server configuration file")
	flag.StringVar(&listen, "listen", "", "override the configured listen address (host:port)")
	flag.StringVar(&savePath, "save", "", "override the configured world save path")
	flag.StringVar(&storagePath, "storage", "", "override the configured persistent chunk storage directory (empty keeps the in-memory backend)")
	flag.UintVar(&seed, "seed", 0, "override the configured world generation seed (0 keeps the configured value)")
	flag.Parse()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if listen != "" {
		cfg.Server.ListenAddress = listen
	}
	if savePath != "" {
		cfg.Server.SavePath = savePath
	}
	if storagePath != "" {
		cfg.Server.StoragePath = storagePath
	}
	if seed != 0 {
		cfg.Server.Seed = uint32(seed)
	}

	srv, err := serverside.New(cfg, registry.Builtin())
	if err != nil {
		log.Fatalf("initialise server: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		time.AfterFunc(10*time.Second, func() {
			log.Printf("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	return ctx, cancel
}
