package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/klondike/internal/deck"
)

const (
	// NumFoundations is the number of foundation piles, one per suit
	NumFoundations = 4
	// NumTableau is the number of tableau columns
	NumTableau = 7
)

// ErrInvalidPileRef is returned when a pile reference cannot be parsed
var ErrInvalidPileRef = errors.New("invalid pile reference")

// PileKind identifies which family of pile a reference points at
type PileKind int

const (
	Stock PileKind = iota
	Waste
	Foundation
	Tableau
)

// String returns the wire name of the pile kind
func (k PileKind) String() string {
	switch k {
	case Stock:
		return "stock"
	case Waste:
		return "waste"
	case Foundation:
		return "foundation"
	case Tableau:
		return "tableau"
	default:
		return "unknown"
	}
}

// PileRef names a single pile. Index is only meaningful for Foundation and Tableau.
type PileRef struct {
	Kind  PileKind
	Index int
}

// StockRef returns the reference to the stock
func StockRef() PileRef { return PileRef{Kind: Stock} }

// WasteRef returns the reference to the waste
func WasteRef() PileRef { return PileRef{Kind: Waste} }

// FoundationRef returns the reference to foundation i. It panics if i is out of range.
func FoundationRef(i int) PileRef {
	if i < 0 || i >= NumFoundations {
		panic(fmt.Sprintf("foundation index %d out of range", i))
	}
	return PileRef{Kind: Foundation, Index: i}
}

// TableauRef returns the reference to tableau column i. It panics if i is out of range.
func TableauRef(i int) PileRef {
	if i < 0 || i >= NumTableau {
		panic(fmt.Sprintf("tableau index %d out of range", i))
	}
	return PileRef{Kind: Tableau, Index: i}
}

// String encodes the reference as "waste", "stock", "foundation-N" or "tableau-N"
func (r PileRef) String() string {
	switch r.Kind {
	case Foundation, Tableau:
		return fmt.Sprintf("%s-%d", r.Kind, r.Index)
	default:
		return r.Kind.String()
	}
}

// MarshalText implements encoding.TextMarshaler
func (r PileRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *PileRef) UnmarshalText(b []byte) error {
	ref, err := ParsePileRef(string(b))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// ParsePileRef parses the string encoding of a pile reference. Besides the
// canonical form it accepts the short forms used at the terminal: "s", "w",
// "f0".."f3" and "t0".."t6".
func ParsePileRef(s string) (PileRef, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "stock", "s":
		return StockRef(), nil
	case "waste", "w":
		return WasteRef(), nil
	}

	var kind PileKind
	var rest string
	switch {
	case strings.HasPrefix(s, "foundation-"):
		kind, rest = Foundation, strings.TrimPrefix(s, "foundation-")
	case strings.HasPrefix(s, "tableau-"):
		kind, rest = Tableau, strings.TrimPrefix(s, "tableau-")
	case strings.HasPrefix(s, "f"):
		kind, rest = Foundation, strings.TrimPrefix(s, "f")
	case strings.HasPrefix(s, "t"):
		kind, rest = Tableau, strings.TrimPrefix(s, "t")
	default:
		return PileRef{}, fmt.Errorf("%w: %q", ErrInvalidPileRef, s)
	}

	idx, err := strconv.Atoi(rest)
	if err != nil {
		return PileRef{}, fmt.Errorf("%w: %q", ErrInvalidPileRef, s)
	}
	limit := NumTableau
	if kind == Foundation {
		limit = NumFoundations
	}
	if idx < 0 || idx >= limit {
		return PileRef{}, fmt.Errorf("%w: %s index %d out of range", ErrInvalidPileRef, kind, idx)
	}
	return PileRef{Kind: kind, Index: idx}, nil
}

// Pile is an ordered stack of cards; the last element is the top.
type Pile []deck.Card

// Top returns the top card, or false if the pile is empty
func (p Pile) Top() (deck.Card, bool) {
	if len(p) == 0 {
		return deck.Card{}, false
	}
	return p[len(p)-1], true
}

// Clone returns an independent copy of the pile
func (p Pile) Clone() Pile {
	if p == nil {
		return Pile{}
	}
	out := make(Pile, len(p))
	copy(out, p)
	return out
}

// IDs returns the ids of the cards in order
func (p Pile) IDs() []string {
	ids := make([]string, len(p))
	for i, c := range p {
		ids[i] = c.ID()
	}
	return ids
}
