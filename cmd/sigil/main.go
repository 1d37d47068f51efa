package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sigilhq/sigil/internal/config"
	"github.com/sigilhq/sigil/internal/lock"
	"github.com/sigilhq/sigil/internal/log"
	"github.com/sigilhq/sigil/internal/server"
	"github.com/sigilhq/sigil/internal/store"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "start":
		os.Exit(runStart(args))
	case "config":
		os.Exit(runConfig(args))
	case "version":
		fmt.Printf("sigil version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`sigil - HMAC-authenticated webhook receiver

Usage:
  sigil <command> [flags]

Commands:
  start          Start the receiver in foreground
  config lock    Authorize current config (update integrity hash)
  config check   Validate config syntax and integrity
  version        Show version information
  help           Show this help message
`)
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("sigil starting", "version", version, "config", *configPath)

	pidPath := filepath.Join(filepath.Dir(cfg.Storage.Path), "sigil.pid")
	pidLock, err := lock.Acquire(pidPath)
	if err != nil {
		logger.Error("failed to acquire PID lock", "path", pidPath, "error", err)
		return 1
	}
	defer pidLock.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.Open(ctx, cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Storage.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.Storage.Path)

	srv, err := server.New(cfg, store.New(db), log.WithComponent("server"), nil)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := srv.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("receiver exited", "error", err)
		return 1
	}
	logger.Info("sigil stopped")
	return 0
}

func runConfig(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sigil config <lock|check> [flags]")
		return 1
	}
	action := args[0]

	fs := flag.NewFlagSet("config "+action, flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	switch action {
	case "lock":
		if _, err := config.Load(*configPath); err != nil {
			// Integrity failure is expected here; syntax errors are not.
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		if err := config.WriteChecksum(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write checksum: %v\n", err)
			return 1
		}
		fmt.Println("Config locked.")
		return 0
	case "check":
		if _, err := config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Config check failed: %v\n", err)
			return 1
		}
		fmt.Println("Config OK.")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}
