package deck

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// Suits lists every suit in deck-building order
var Suits = [4]Suit{Hearts, Diamonds, Clubs, Spades}

// String returns the symbol for a suit
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// Name returns the lowercase suit name used in card ids
func (s Suit) Name() string {
	switch s {
	case Hearts:
		return "hearts"
	case Diamonds:
		return "diamonds"
	case Clubs:
		return "clubs"
	case Spades:
		return "spades"
	default:
		return "unknown"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Color returns the suit colour
func (s Suit) Color() Color {
	if s.IsRed() {
		return Red
	}
	return Black
}

// Color is the colour of a suit
type Color int

const (
	Black Color = iota
	Red
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

// Rank represents a card rank, Ace low
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// String returns the display form of a rank
func (r Rank) String() string {
	switch {
	case r == Ace:
		return "A"
	case r >= Two && r <= Ten:
		return fmt.Sprintf("%d", int(r))
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	default:
		return "?"
	}
}

// Valid reports whether r is within Ace..King
func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

// Card is a playing card. Identity is suit+rank; FaceUp toggles during play.
type Card struct {
	Suit   Suit
	Rank   Rank
	FaceUp bool
}

// NewCard creates a new face-down card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// ID returns the stable identity of the card, e.g. "hearts-1"
func (c Card) ID() string {
	return fmt.Sprintf("%s-%d", c.Suit.Name(), int(c.Rank))
}

// Index returns the card's position in an unshuffled deck, 0..51
func (c Card) Index() int {
	return int(c.Suit)*int(King) + int(c.Rank) - 1
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// Color returns the card colour
func (c Card) Color() Color {
	return c.Suit.Color()
}

// Flipped returns a copy of the card with FaceUp set to up
func (c Card) Flipped(up bool) Card {
	c.FaceUp = up
	return c
}

// ParseCard parses a short card code like "7h", "Th", "10h" or "as".
// Parsed cards are face up.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	rankPart, suitPart := s[:len(s)-1], s[len(s)-1:]

	rank, err := parseRank(rankPart)
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	suit, err := parseSuit(suitPart)
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	return Card{Suit: suit, Rank: rank, FaceUp: true}, nil
}

// MustParseCard is like ParseCard but panics on error. Intended for tests and fixtures.
func MustParseCard(s string) Card {
	c, err := ParseCard(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCards parses whitespace separated card codes, e.g. "Kd Qs 7h"
func ParseCards(s string) ([]Card, error) {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func parseRank(s string) (Rank, error) {
	switch strings.ToUpper(s) {
	case "A", "1":
		return Ace, nil
	case "T", "10":
		return Ten, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	}
	if len(s) == 1 && s[0] >= '2' && s[0] <= '9' {
		return Rank(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

func parseSuit(s string) (Suit, error) {
	switch strings.ToLower(s) {
	case "h":
		return Hearts, nil
	case "d":
		return Diamonds, nil
	case "c":
		return Clubs, nil
	case "s":
		return Spades, nil
	}
	return 0, fmt.Errorf("unknown suit %q", s)
}

// MustParseCards is like ParseCards but panics on error
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

// ParseID parses a card id such as "hearts-1" back into a face-up card
func ParseID(id string) (Card, error) {
	name, rankStr, ok := strings.Cut(id, "-")
	if !ok {
		return Card{}, fmt.Errorf("invalid card id %q", id)
	}
	var suit Suit
	switch name {
	case "hearts":
		suit = Hearts
	case "diamonds":
		suit = Diamonds
	case "clubs":
		suit = Clubs
	case "spades":
		suit = Spades
	default:
		return Card{}, fmt.Errorf("invalid card id %q: unknown suit", id)
	}
	n, err := strconv.Atoi(rankStr)
	if err != nil || !Rank(n).Valid() {
		return Card{}, fmt.Errorf("invalid card id %q: bad rank", id)
	}
	return Card{Suit: suit, Rank: Rank(n), FaceUp: true}, nil
}
