package tui

import (
	"fmt"
	"strings"

	"github.com/lox/klondike/internal/deck"
	"github.com/lox/klondike/internal/game"
)

const cellWidth = 5

// boardRenderer draws a game position as text
type boardRenderer struct {
	theme Theme
}

// Render draws the stock, waste and foundations on one row and the tableau
// columns below them. Piles a selection could land on get a highlighted label.
func (r boardRenderer) Render(s game.State, sel *game.Selection, hints game.Hints) string {
	var b strings.Builder

	// Top row labels
	b.WriteString(r.label("s", false))
	b.WriteString(r.label("w", false))
	b.WriteString(strings.Repeat(" ", cellWidth))
	for i := range s.Foundations {
		b.WriteString(r.label(fmt.Sprintf("f%d", i), hints.Allows(game.FoundationRef(i))))
	}
	b.WriteString("\n")

	// Top row cards
	b.WriteString(r.stockCell(s.Stock))
	b.WriteString(r.topCell(s.Waste, sel != nil && sel.Source == game.WasteRef()))
	b.WriteString(strings.Repeat(" ", cellWidth))
	for i, f := range s.Foundations {
		b.WriteString(r.topCell(f, sel != nil && sel.Source == game.FoundationRef(i)))
	}
	b.WriteString("\n\n")

	// Tableau labels
	for i := range s.Tableau {
		b.WriteString(r.label(fmt.Sprintf("t%d", i), hints.Allows(game.TableauRef(i))))
	}
	b.WriteString("\n")

	depth := 1
	for _, col := range s.Tableau {
		depth = max(depth, len(col))
	}
	for row := 0; row < depth; row++ {
		for i, col := range s.Tableau {
			switch {
			case row < len(col):
				selected := sel != nil && sel.Source == game.TableauRef(i) && row >= sel.CardIndex
				b.WriteString(r.card(col[row], selected))
			case row == 0:
				b.WriteString(r.theme.EmptySlot.Render(pad("[ ]")))
			default:
				b.WriteString(pad(""))
			}
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (r boardRenderer) label(text string, hinted bool) string {
	if hinted {
		return r.theme.HintLabel.Render(text) + strings.Repeat(" ", cellWidth-len(text))
	}
	return r.theme.Label.Render(pad(text))
}

func (r boardRenderer) stockCell(stock game.Pile) string {
	if len(stock) == 0 {
		return r.theme.EmptySlot.Render(pad("[ ]"))
	}
	return r.theme.FaceDown.Render(pad(fmt.Sprintf("%d", len(stock))))
}

func (r boardRenderer) topCell(p game.Pile, selected bool) string {
	top, ok := p.Top()
	if !ok {
		return r.theme.EmptySlot.Render(pad("[ ]"))
	}
	return r.card(top, selected)
}

func (r boardRenderer) card(c deck.Card, selected bool) string {
	if !c.FaceUp {
		return r.theme.FaceDown.Render(pad("##"))
	}
	style := r.theme.BlackCard
	if c.IsRed() {
		style = r.theme.RedCard
	}
	if selected {
		style = style.Inherit(r.theme.Selected)
	}
	return style.Render(pad(c.String()))
}

// pad left-aligns text in a board cell. Widths count runes, which is what
// the suit symbols occupy on screen.
func pad(text string) string {
	return fmt.Sprintf("%-*s", cellWidth, text)
}
