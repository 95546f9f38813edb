package game

import (
	"errors"
	"fmt"

	"github.com/lox/klondike/internal/deck"
)

// ErrCardConservation is returned by Validate when the piles no longer hold exactly one deck
var ErrCardConservation = errors.New("card conservation violated")

// State is a complete Klondike position. Values are treated as immutable by
// convention: every transition returns a fresh State built from Clone.
type State struct {
	Stock       Pile
	Waste       Pile
	Foundations [NumFoundations]Pile
	Tableau     [NumTableau]Pile
}

// Clone returns a deep copy that shares no backing arrays with s
func (s State) Clone() State {
	out := State{
		Stock: s.Stock.Clone(),
		Waste: s.Waste.Clone(),
	}
	for i := range s.Foundations {
		out.Foundations[i] = s.Foundations[i].Clone()
	}
	for i := range s.Tableau {
		out.Tableau[i] = s.Tableau[i].Clone()
	}
	return out
}

// Pile returns the pile named by ref
func (s *State) Pile(ref PileRef) *Pile {
	switch ref.Kind {
	case Stock:
		return &s.Stock
	case Waste:
		return &s.Waste
	case Foundation:
		return &s.Foundations[ref.Index]
	case Tableau:
		return &s.Tableau[ref.Index]
	default:
		panic(fmt.Sprintf("unknown pile kind %d", ref.Kind))
	}
}

// CardCount returns the number of cards across all piles
func (s State) CardCount() int {
	n := len(s.Stock) + len(s.Waste)
	for _, f := range s.Foundations {
		n += len(f)
	}
	for _, t := range s.Tableau {
		n += len(t)
	}
	return n
}

// FoundationCount returns the number of cards on the foundations
func (s State) FoundationCount() int {
	n := 0
	for _, f := range s.Foundations {
		n += len(f)
	}
	return n
}

// Validate checks that the piles hold exactly one standard deck with no
// duplicates and no missing cards.
func (s State) Validate() error {
	seen := make(map[string]bool, deck.Size)
	check := func(name string, p Pile) error {
		for _, c := range p {
			if !c.Rank.Valid() {
				return fmt.Errorf("%w: %s holds invalid card %v", ErrCardConservation, name, c)
			}
			if seen[c.ID()] {
				return fmt.Errorf("%w: duplicate %s in %s", ErrCardConservation, c.ID(), name)
			}
			seen[c.ID()] = true
		}
		return nil
	}

	if err := check("stock", s.Stock); err != nil {
		return err
	}
	if err := check("waste", s.Waste); err != nil {
		return err
	}
	for i, f := range s.Foundations {
		if err := check(FoundationRef(i).String(), f); err != nil {
			return err
		}
	}
	for i, t := range s.Tableau {
		if err := check(TableauRef(i).String(), t); err != nil {
			return err
		}
	}
	if len(seen) != deck.Size {
		return fmt.Errorf("%w: found %d cards, want %d", ErrCardConservation, len(seen), deck.Size)
	}
	return nil
}
