// Package main is the entry point for the veil-shell Wayland demo host.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/mcrowther/veil/internal/config"
	"github.com/mcrowther/veil/internal/shell"
)

// Build-time variables
var (
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/veil/config.toml)")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		println("veil-shell version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	os.Exit(shell.Run(cfg, logger))
}
