package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/klondike/internal/game"
)

// CommandKind identifies a parsed command
type CommandKind string

const (
	CmdDraw   CommandKind = "draw"
	CmdRedeal CommandKind = "redeal"
	CmdUndo   CommandKind = "undo"
	CmdNew    CommandKind = "new"
	CmdMove   CommandKind = "move"
	CmdSelect CommandKind = "select"
	CmdClick  CommandKind = "click"
	CmdClear  CommandKind = "clear"
	CmdHints  CommandKind = "hints"
	CmdTheme  CommandKind = "theme"
	CmdHelp   CommandKind = "help"
	CmdQuit   CommandKind = "quit"
)

// ErrEmptyCommand is returned for blank input
var ErrEmptyCommand = errors.New("empty command")

// Command is a parsed line of player input
type Command struct {
	Kind CommandKind
	// Source and CardIndex name a card for move, select and click. CardIndex
	// is -1 when the player gave only a pile, meaning its top card.
	Source    game.PileRef
	CardIndex int
	Dest      game.PileRef
	// Seed is set for "new <seed>"
	Seed *int64
	// Toggle is the on/off argument of hints; nil flips the current value
	Toggle *bool
	Theme  string
}

// HelpText lists the commands the prompt accepts
const HelpText = `Commands:
  d, draw               turn a card from the stock (redeals when empty)
  r, redeal             turn the waste back into the stock
  u, undo               undo the last action (also ctrl+z)
  n, new [seed]         deal a new game
  m, move FROM TO       move cards, e.g. "m t3:2 t5", "m w f0"
  sel, select PILE      select a card, e.g. "sel t3:2"
  c, click PILE         click a pile; a bare pile like "t3" also clicks
  clear                 drop the selection (also esc)
  hints [on|off]        toggle drop hints
  theme auto|dark|light switch colours
  q, quit               leave the game
Piles: s, w, f0-f3, t0-t6; add :N to pick the Nth card of a tableau column.`

// ParseCommand parses one line of input
func ParseCommand(input string) (Command, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return Command{}, ErrEmptyCommand
	}
	verb, args := fields[0], fields[1:]

	switch verb {
	case "d", "draw":
		return noArgs(CmdDraw, args)
	case "r", "redeal":
		return noArgs(CmdRedeal, args)
	case "u", "z", "undo":
		return noArgs(CmdUndo, args)
	case "clear":
		return noArgs(CmdClear, args)
	case "?", "h", "help":
		return noArgs(CmdHelp, args)
	case "q", "quit", "exit":
		return noArgs(CmdQuit, args)

	case "n", "new":
		cmd := Command{Kind: CmdNew}
		if len(args) > 1 {
			return Command{}, fmt.Errorf("usage: new [seed]")
		}
		if len(args) == 1 {
			seed, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return Command{}, fmt.Errorf("invalid seed %q", args[0])
			}
			cmd.Seed = &seed
		}
		return cmd, nil

	case "m", "mv", "move":
		if len(args) != 2 {
			return Command{}, fmt.Errorf("usage: move FROM TO")
		}
		src, idx, err := parseCardRef(args[0])
		if err != nil {
			return Command{}, err
		}
		dest, err := game.ParsePileRef(args[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdMove, Source: src, CardIndex: idx, Dest: dest}, nil

	case "sel", "select", "c", "click":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: %s PILE", verb)
		}
		src, idx, err := parseCardRef(args[0])
		if err != nil {
			return Command{}, err
		}
		kind := CmdSelect
		if verb == "c" || verb == "click" {
			kind = CmdClick
		}
		return Command{Kind: kind, Source: src, CardIndex: idx}, nil

	case "hints":
		cmd := Command{Kind: CmdHints}
		switch {
		case len(args) == 0:
		case len(args) == 1 && args[0] == "on":
			on := true
			cmd.Toggle = &on
		case len(args) == 1 && args[0] == "off":
			off := false
			cmd.Toggle = &off
		default:
			return Command{}, fmt.Errorf("usage: hints [on|off]")
		}
		return cmd, nil

	case "theme":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: theme auto|dark|light")
		}
		return Command{Kind: CmdTheme, Theme: args[0]}, nil
	}

	// A bare pile reference is a click
	if len(args) == 0 {
		if src, idx, err := parseCardRef(verb); err == nil {
			return Command{Kind: CmdClick, Source: src, CardIndex: idx}, nil
		}
	}
	return Command{}, fmt.Errorf("unknown command %q (type help)", verb)
}

func noArgs(kind CommandKind, args []string) (Command, error) {
	if len(args) > 0 {
		return Command{}, fmt.Errorf("%s takes no arguments", kind)
	}
	return Command{Kind: kind}, nil
}

// parseCardRef parses "t3", "t3:2" or any pile reference. The index suffix is
// only allowed on tableau columns.
func parseCardRef(s string) (game.PileRef, int, error) {
	pile, idxStr, hasIdx := strings.Cut(s, ":")
	ref, err := game.ParsePileRef(pile)
	if err != nil {
		return game.PileRef{}, 0, err
	}
	if !hasIdx {
		return ref, -1, nil
	}
	if ref.Kind != game.Tableau {
		return game.PileRef{}, 0, fmt.Errorf("card index only applies to tableau columns")
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return game.PileRef{}, 0, fmt.Errorf("invalid card index %q", idxStr)
	}
	return ref, idx, nil
}
