package game

import (
	"testing"

	"github.com/lox/klondike/internal/deck"
	"github.com/stretchr/testify/require"
)

// up parses face-up cards, e.g. up("8s 7h")
func up(s string) Pile {
	return Pile(deck.MustParseCards(s))
}

// down parses face-down cards
func down(s string) Pile {
	cards := deck.MustParseCards(s)
	for i := range cards {
		cards[i] = cards[i].Flipped(false)
	}
	return Pile(cards)
}

// concat joins piles bottom to top
func concat(piles ...Pile) Pile {
	out := Pile{}
	for _, p := range piles {
		out = append(out, p...)
	}
	return out
}

// emptyState returns a position with every pile present and empty
func emptyState() State {
	s := State{Stock: Pile{}, Waste: Pile{}}
	for i := range s.Foundations {
		s.Foundations[i] = Pile{}
	}
	for i := range s.Tableau {
		s.Tableau[i] = Pile{}
	}
	return s
}

// completeSuit returns Ace..King of suit, face up
func completeSuit(suit deck.Suit) Pile {
	p := make(Pile, 0, deck.King)
	for r := deck.Ace; r <= deck.King; r++ {
		p = append(p, deck.NewCard(suit, r).Flipped(true))
	}
	return p
}

// requireWellFormed checks the layout invariants that every reachable
// position keeps, on top of card conservation.
func requireWellFormed(t *testing.T, s State) {
	t.Helper()
	require.NoError(t, s.Validate())

	for _, c := range s.Stock {
		require.False(t, c.FaceUp, "stock card %s is face up", c)
	}
	for _, c := range s.Waste {
		require.True(t, c.FaceUp, "waste card %s is face down", c)
	}
	for i, f := range s.Foundations {
		for j, c := range f {
			require.Equal(t, f[0].Suit, c.Suit, "foundation %d mixes suits", i)
			require.Equal(t, deck.Rank(j+1), c.Rank, "foundation %d out of order", i)
		}
	}
	for i, col := range s.Tableau {
		if top, ok := col.Top(); ok {
			require.True(t, top.FaceUp, "tableau %d top is face down", i)
		}
		seenUp := false
		for _, c := range col {
			if c.FaceUp {
				seenUp = true
				continue
			}
			require.False(t, seenUp, "tableau %d has a face-down card above a face-up one", i)
		}
	}
}
