package game

import "github.com/lox/klondike/internal/deck"

// Selection identifies the first card of an outgoing run
type Selection struct {
	Source    PileRef
	CardIndex int
}

// MoveKind classifies an accepted state transition
type MoveKind string

const (
	MoveCards  MoveKind = "move"
	MoveDraw   MoveKind = "draw"
	MoveRedeal MoveKind = "redeal"
)

// MoveResult describes an accepted transition as plain data. The presentation
// layer uses it to decide what to animate; the engine never does.
type MoveResult struct {
	Kind    MoveKind
	From    PileRef
	To      PileRef
	CardIDs []string
	// Flipped is the id of the card turned face up after the move, if any
	Flipped string
}

// Run returns the cards that would leave the pile for sel. Waste and
// foundation sources only ever give up their top card. Tableau sources give
// the suffix starting at sel.CardIndex, which must be a face-up card.
func Run(s State, sel Selection) []deck.Card {
	switch sel.Source.Kind {
	case Waste, Foundation:
		top, ok := s.Pile(sel.Source).Top()
		if !ok {
			return nil
		}
		return []deck.Card{top}
	case Tableau:
		pile := *s.Pile(sel.Source)
		if sel.CardIndex < 0 || sel.CardIndex >= len(pile) {
			return nil
		}
		if !pile[sel.CardIndex].FaceUp {
			return nil
		}
		run := make([]deck.Card, len(pile)-sel.CardIndex)
		copy(run, pile[sel.CardIndex:])
		return run
	default:
		return nil
	}
}

// CanMove reports whether sel may be moved onto dest without changing anything
func CanMove(s State, sel Selection, dest PileRef) bool {
	if dest == sel.Source {
		return false
	}
	run := Run(s, sel)
	if len(run) == 0 {
		return false
	}
	switch dest.Kind {
	case Tableau:
		return CanMoveToTableau(run, s.Tableau[dest.Index])
	case Foundation:
		return len(run) == 1 && CanMoveToFoundation(run[0], s.Foundations[dest.Index])
	default:
		return false
	}
}

// TryMove moves the run described by sel onto dest. It is all or nothing: a
// rejected move returns s itself and false, an accepted one returns a new
// state that shares no piles with s.
func TryMove(s State, sel Selection, dest PileRef) (State, MoveResult, bool) {
	if !CanMove(s, sel, dest) {
		return s, MoveResult{}, false
	}
	run := Run(s, sel)

	next := s.Clone()
	src := next.Pile(sel.Source)
	*src = (*src)[:len(*src)-len(run)]

	dst := next.Pile(dest)
	*dst = append(*dst, run...)

	result := MoveResult{
		Kind:    MoveCards,
		From:    sel.Source,
		To:      dest,
		CardIDs: Pile(run).IDs(),
	}
	result.Flipped = autoFlip(&next, sel.Source)
	return next, result, true
}

// autoFlip turns up every face-down tableau top. It returns the id of the card
// turned up on source, or "" when source exposed nothing.
func autoFlip(s *State, source PileRef) string {
	var flipped string
	for i, pile := range s.Tableau {
		top, ok := pile.Top()
		if !ok || top.FaceUp {
			continue
		}
		pile[len(pile)-1] = top.Flipped(true)
		if source == TableauRef(i) {
			flipped = top.ID()
		}
	}
	return flipped
}

// DrawStock turns the top stock card onto the waste. With an empty stock it
// redeals the waste instead. It reports false when both piles are empty.
func DrawStock(s State) (State, MoveResult, bool) {
	top, ok := s.Stock.Top()
	if !ok {
		return Redeal(s)
	}

	next := s.Clone()
	next.Stock = next.Stock[:len(next.Stock)-1]
	next.Waste = append(next.Waste, top.Flipped(true))

	return next, MoveResult{
		Kind:    MoveDraw,
		From:    StockRef(),
		To:      WasteRef(),
		CardIDs: []string{top.ID()},
	}, true
}

// Redeal turns the waste back over to form the stock. It only applies once
// the stock is exhausted; a waste built by single draws comes back in the
// stock's original order.
func Redeal(s State) (State, MoveResult, bool) {
	if len(s.Stock) > 0 || len(s.Waste) == 0 {
		return s, MoveResult{}, false
	}

	next := s.Clone()
	stock := make(Pile, 0, len(s.Waste))
	for i := len(s.Waste) - 1; i >= 0; i-- {
		stock = append(stock, s.Waste[i].Flipped(false))
	}
	next.Stock = stock
	next.Waste = Pile{}

	return next, MoveResult{
		Kind:    MoveRedeal,
		From:    WasteRef(),
		To:      StockRef(),
		CardIDs: stock.IDs(),
	}, true
}
