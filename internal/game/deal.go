package game

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/klondike/internal/deck"
)

// StockSize is the number of cards left in the stock after the deal
const StockSize = deck.Size - NumTableau*(NumTableau+1)/2

// Deal shuffles a fresh deck with rng and lays out a new game
func Deal(rng *rand.Rand) State {
	d := deck.NewDeck(rng)
	d.Shuffle()
	return dealFrom(d)
}

// DealFrom lays out a game from an already ordered deck. Column c receives
// the next c+1 cards, column by column, with only its last card face up.
// The remaining cards form the stock face down in their original order, so
// the last card of cards ends up on top of the stock.
func DealFrom(cards []deck.Card) State {
	if len(cards) != deck.Size {
		panic(fmt.Sprintf("deal needs %d cards, got %d", deck.Size, len(cards)))
	}

	return dealFrom(deck.FromCards(cards))
}

func dealFrom(d *deck.Deck) State {
	s := State{Stock: Pile{}, Waste: Pile{}}
	for i := range s.Foundations {
		s.Foundations[i] = Pile{}
	}

	for col := 0; col < NumTableau; col++ {
		cards := d.Deal(col + 1)
		pile := make(Pile, len(cards))
		for row, c := range cards {
			pile[row] = c.Flipped(row == col)
		}
		s.Tableau[col] = pile
	}

	rest := d.Cards()
	s.Stock = make(Pile, len(rest))
	for i, c := range rest {
		s.Stock[i] = c.Flipped(false)
	}
	return s
}
