package game

import "github.com/lox/klondike/internal/deck"

// CanMoveToTableau reports whether the run cards may be placed on target.
// cards[0] is the card that lands on the pile; the rest of the run rides along.
func CanMoveToTableau(cards []deck.Card, target Pile) bool {
	if len(cards) == 0 {
		return false
	}
	moving := cards[0]

	top, ok := target.Top()
	if !ok {
		return moving.Rank == deck.King
	}
	if !top.FaceUp {
		return false
	}
	return moving.Rank == top.Rank-1 && moving.Color() != top.Color()
}

// CanMoveToFoundation reports whether a single card may be placed on target.
// Callers reject multi-card runs before asking.
func CanMoveToFoundation(card deck.Card, target Pile) bool {
	top, ok := target.Top()
	if !ok {
		return card.Rank == deck.Ace
	}
	return card.Suit == top.Suit && card.Rank == top.Rank+1
}

// CheckWin reports whether every foundation holds a complete suit
func CheckWin(s State) bool {
	for _, f := range s.Foundations {
		if len(f) != int(deck.King) {
			return false
		}
	}
	return true
}
