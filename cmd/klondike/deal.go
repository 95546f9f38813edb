package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/klondike/internal/game"
	"github.com/lox/klondike/internal/settings"
	"github.com/lox/klondike/internal/tui"
)

var titleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#2E7D32")).
	Padding(0, 1).
	Bold(true)

// DealCmd prints a dealt board
type DealCmd struct {
	Seed  *int64 `help:"Deal the game for this seed"`
	Theme string `enum:"auto,dark,light" default:"auto" help:"Colour theme (auto, dark, light)"`
}

func (c *DealCmd) Run() error {
	return c.render(os.Stdout)
}

func (c *DealCmd) render(w io.Writer) error {
	session := game.NewSession()
	if c.Seed != nil {
		session.NewGameWithSeed(*c.Seed)
	}

	cfg := settings.Default()
	cfg.UI.Theme = c.Theme
	model := tui.NewModel(session, log.New(io.Discard), tui.Options{Settings: cfg})

	_, err := fmt.Fprintf(w, "%s\n\n%s\n\ngame %s  seed %d\n",
		titleStyle.Render(" ♠ ♥ Klondike ♦ ♣ "),
		model.RenderBoard(),
		session.ID(), session.Seed())
	return err
}
