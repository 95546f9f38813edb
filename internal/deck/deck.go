package deck

import rand "math/rand/v2"

// Size is the number of cards in a standard deck
const Size = 52

// New returns a fresh 52-card deck, face down, ordered by suit then rank
func New() []Card {
	cards := make([]Card, 0, Size)
	for _, suit := range Suits {
		for rank := Ace; rank <= King; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// Shuffle returns a uniformly random permutation of cards using Fisher-Yates.
// The input slice is left untouched.
func Shuffle(cards []Card, rng *rand.Rand) []Card {
	shuffled := make([]Card, len(cards))
	copy(shuffled, cards)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// Deck represents a deck of playing cards with an explicit random source
type Deck struct {
	cards []Card
	next  int
	rng   *rand.Rand
}

// NewDeck creates a new standard 52-card deck. The deck is not shuffled.
func NewDeck(rng *rand.Rand) *Deck {
	return &Deck{
		cards: New(),
		rng:   rng,
	}
}

// FromCards creates a deck that deals cards in the given order
func FromCards(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Shuffle randomizes the order of the undealt cards
func (d *Deck) Shuffle() {
	rest := Shuffle(d.cards[d.next:], d.rng)
	copy(d.cards[d.next:], rest)
}

// Deal removes and returns up to n cards from the front of the deck
func (d *Deck) Deal(n int) []Card {
	if n > d.Remaining() {
		n = d.Remaining()
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards
}

// Cards returns a copy of the undealt cards in order
func (d *Deck) Cards() []Card {
	cards := make([]Card, d.Remaining())
	copy(cards, d.cards[d.next:])
	return cards
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
