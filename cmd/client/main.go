// Command client connects to a voxel world server (spec §6: "client --host
// HOST --port PORT") and runs the connection's reader/writer/mesh-builder
// tasks headlessly; it implements the networking and world-mirroring half
// of a client, not a rendering front end (outside this engine's scope).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"voxelworld/internal/clientside"
	"voxelworld/internal/config"
	"voxelworld/internal/registry"
)

func main() {
	var cfgPath, host string
	var port int
	flag.StringVar(&cfgPath, "config", "", "path to client configuration file")
	flag.StringVar(&host, "host", "", "server host to connect to")
	flag.IntVar(&port, "port", 0, "server port to connect to")
	flag.Parse()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if host != "" || port != 0 {
		cfg.Client.ServerAddress = net.JoinHostPort(addressOrDefault(host, cfg.Client.ServerAddress), portOrDefault(port, cfg.Client.ServerAddress))
	}

	c, err := clientside.Dial(cfg, registry.Builtin())
	if err != nil {
		log.Fatalf("connect to server: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := c.Run(ctx); err != nil {
		log.Fatalf("client exited with error: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path)
}

// addressOrDefault and portOrDefault let --host and --port be given
// independently, falling back to whichever half of the configured
// server_address the flag didn't override.
func addressOrDefault(host, configured string) string {
	if host != "" {
		return host
	}
	h, _, err := net.SplitHostPort(configured)
	if err != nil {
		return configured
	}
	return h
}

func portOrDefault(port int, configured string) string {
	if port != 0 {
		return fmt.Sprintf("%d", port)
	}
	_, p, err := net.SplitHostPort(configured)
	if err != nil {
		return p
	}
	return p
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(signals)
		<-signals
		cancel()
	}()
	return ctx, cancel
}
