package server

import (
	"github.com/lox/klondike/internal/deck"
	"github.com/lox/klondike/internal/game"
)

// CardView is the wire form of a card
type CardView struct {
	ID     string `json:"id"`
	Suit   string `json:"suit"`
	Rank   int    `json:"rank"`
	FaceUp bool   `json:"faceUp"`
}

// SelectionView is the wire form of a pending selection
type SelectionView struct {
	Source    game.PileRef `json:"source"`
	CardIndex int          `json:"cardIndex"`
}

// HintsView lists hinted destination indexes
type HintsView struct {
	Tableau    []int `json:"tableau"`
	Foundation []int `json:"foundation"`
}

// GameView is everything a client needs to draw the board
type GameView struct {
	ID          string         `json:"id"`
	DealID      string         `json:"dealId"`
	Seed        int64          `json:"seed"`
	Stock       []CardView     `json:"stock"`
	Waste       []CardView     `json:"waste"`
	Foundations [][]CardView   `json:"foundations"`
	Tableau     [][]CardView   `json:"tableau"`
	Moves       int            `json:"moves"`
	Won         bool           `json:"won"`
	CanUndo     bool           `json:"canUndo"`
	CanRedeal   bool           `json:"canRedeal"`
	ShowHints   bool           `json:"showHints"`
	Selection   *SelectionView `json:"selection"`
	Hints       HintsView      `json:"hints"`
}

// MoveView is the wire form of a MoveResult
type MoveView struct {
	Kind    game.MoveKind `json:"kind"`
	From    game.PileRef  `json:"from"`
	To      game.PileRef  `json:"to"`
	CardIDs []string      `json:"cardIds"`
	Flipped string        `json:"flipped,omitempty"`
}

// WonView is sent when the last card reaches a foundation
type WonView struct {
	DealID string `json:"dealId"`
	Moves  int    `json:"moves"`
}

func newCardView(c deck.Card) CardView {
	return CardView{ID: c.ID(), Suit: c.Suit.Name(), Rank: int(c.Rank), FaceUp: c.FaceUp}
}

func newPileView(p game.Pile) []CardView {
	out := make([]CardView, len(p))
	for i, c := range p {
		out[i] = newCardView(c)
	}
	return out
}

// newGameView renders session under the store id it is kept at. Callers hold
// the session's entry lock.
func newGameView(id string, s *game.Session) GameView {
	state := s.State()
	hints := s.Hints()

	view := GameView{
		ID:          id,
		DealID:      s.ID(),
		Seed:        s.Seed(),
		Stock:       newPileView(state.Stock),
		Waste:       newPileView(state.Waste),
		Foundations: make([][]CardView, len(state.Foundations)),
		Tableau:     make([][]CardView, len(state.Tableau)),
		Moves:       s.Moves(),
		Won:         s.Won(),
		CanUndo:     s.CanUndo(),
		CanRedeal:   s.CanRedeal(),
		ShowHints:   s.ShowHints(),
		Hints:       newHintsView(hints),
	}
	for i, f := range state.Foundations {
		view.Foundations[i] = newPileView(f)
	}
	for i, t := range state.Tableau {
		view.Tableau[i] = newPileView(t)
	}
	if sel := s.Selection(); sel != nil {
		view.Selection = &SelectionView{Source: sel.Source, CardIndex: sel.CardIndex}
	}
	return view
}

func newHintsView(h game.Hints) HintsView {
	v := HintsView{Tableau: h.Tableau, Foundation: h.Foundation}
	if v.Tableau == nil {
		v.Tableau = []int{}
	}
	if v.Foundation == nil {
		v.Foundation = []int{}
	}
	return v
}

func newMoveView(r game.MoveResult) MoveView {
	return MoveView{Kind: r.Kind, From: r.From, To: r.To, CardIDs: r.CardIDs, Flipped: r.Flipped}
}
