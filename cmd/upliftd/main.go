// cmd/upliftd/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/upliftd/uplift/internal/daemon"
)

const (
	defaultConfigPath = "/etc/uplift/config.yaml"
	defaultRemotesDir = "/etc/uplift/remotes"
)

func main() {
	configPath := os.Getenv("UPLIFT_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	remotesDir := os.Getenv("UPLIFT_REMOTES_DIR")
	if remotesDir == "" {
		remotesDir = defaultRemotesDir
	}

	d := daemon.New(configPath, remotesDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nReceived shutdown signal")
		cancel()
	}()

	if err := d.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "daemon error: %v\n", err)
		os.Exit(1)
	}
}
