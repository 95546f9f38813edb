package main

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/klondike/internal/server"
)

// ServeCmd runs the session server
type ServeCmd struct {
	Addr        string        `env:"KLONDIKE_ADDR" default:":8080" help:"Server address"`
	IdleTimeout time.Duration `default:"30m" help:"Drop games idle for this long"`
	Seed        *int64        `help:"Deterministic RNG seed for dealt games (optional)"`
	Debug       bool          `help:"Enable debug logging"`
}

func (c *ServeCmd) Run() error {
	level := log.InfoLevel
	if lvl, err := log.ParseLevel(os.Getenv("KLONDIKE_LOG_LEVEL")); err == nil {
		level = lvl
	}
	logger := setupLogger(os.Stderr, level, c.Debug)

	if c.Seed != nil {
		logger.Info("Using deterministic seed", "seed", *c.Seed)
	}

	s := server.NewServer(server.Config{
		Addr:        c.Addr,
		IdleTimeout: c.IdleTimeout,
		Seed:        c.Seed,
	}, logger)

	ctx := setupSignalHandler(logger)
	return s.Start(ctx)
}
