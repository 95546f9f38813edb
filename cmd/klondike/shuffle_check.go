package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lox/klondike/internal/randutil"
	"github.com/lox/klondike/internal/statistics"
)

// ShuffleCheckCmd runs the shuffle uniformity check
type ShuffleCheckCmd struct {
	Trials   int    `default:"100000" help:"Number of decks to shuffle"`
	Workers  int    `default:"0" help:"Worker goroutines (0 = one per CPU)"`
	Seed     *int64 `help:"Seed for a reproducible run (optional)"`
	Position int    `default:"0" help:"Deck position to tally"`
	Debug    bool   `help:"Enable debug logging"`
}

func (c *ShuffleCheckCmd) Run() error {
	logger := setupLogger(os.Stderr, log.InfoLevel, c.Debug)
	ctx := setupSignalHandler(logger)

	cfg := statistics.Config{
		Trials:   c.Trials,
		Workers:  c.Workers,
		Seed:     randutil.Resolve(c.Seed),
		Position: c.Position,
	}
	logger.Debug("Starting shuffle check", "trials", cfg.Trials, "workers", cfg.Workers, "seed", cfg.Seed)

	report, err := statistics.Run(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Println(report.String())
	if !report.Uniform() {
		return fmt.Errorf("shuffle is not uniform: chi2=%.2f exceeds %.2f", report.ChiSquare, statistics.Critical001)
	}
	return nil
}
