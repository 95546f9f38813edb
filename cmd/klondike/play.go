package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lox/klondike/internal/game"
	"github.com/lox/klondike/internal/settings"
	"github.com/lox/klondike/internal/tui"
)

// PlayCmd runs the terminal game
type PlayCmd struct {
	Seed     *int64 `help:"Deal the game for this seed"`
	Settings string `type:"path" help:"Settings file (default ~/.config/klondike/settings.hcl)"`
	Debug    bool   `help:"Enable debug logging"`
}

func (c *PlayCmd) Run() error {
	path := c.Settings
	if path == "" {
		var err error
		if path, err = settings.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := settings.Load(path)
	if err != nil {
		return err
	}

	// Log to a file so the board stays clean
	logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger := setupLogger(logFile, cfg.LogLevel(), c.Debug)
	logger.Info("Starting game", "settings", path)

	session := game.NewSession(game.WithLogger(logger))
	if c.Seed != nil {
		session.NewGameWithSeed(*c.Seed)
	}

	model := tui.NewModel(session, logger, tui.Options{
		Settings:     cfg,
		SettingsPath: path,
	})
	model.AddLogEntry("Type 'help' for commands")

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run terminal UI: %w", err)
	}
	return nil
}
