package game

import (
	"testing"

	"github.com/lox/klondike/internal/deck"
	"github.com/stretchr/testify/assert"
)

func TestCanMoveToTableau(t *testing.T) {
	tests := []struct {
		name   string
		cards  string
		target Pile
		want   bool
	}{
		{"king onto empty column", "Ks", Pile{}, true},
		{"king run onto empty column", "Kh Qs Jd", Pile{}, true},
		{"queen onto empty column", "Qs", Pile{}, false},
		{"red six on black seven", "6h", up("7s"), true},
		{"black six on red seven", "6c", up("7d"), true},
		{"same colour", "6h", up("7d"), false},
		{"same suit", "6s", up("7s"), false},
		{"rank gap", "6h", up("8s"), false},
		{"higher rank", "8h", up("7s"), false},
		{"equal rank", "7h", up("7s"), false},
		{"run follows its first card", "6h 5s 4d", up("9c 8d 7s"), true},
		{"face-down target", "6h", concat(up("9c"), down("7s")), false},
		{"king on a queen", "Ks", up("Qh"), false},
		{"ace on a two", "Ah", up("2s"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMoveToTableau(deck.MustParseCards(tt.cards), tt.target))
		})
	}
}

func TestCanMoveToTableau_EmptyRun(t *testing.T) {
	assert.False(t, CanMoveToTableau(nil, Pile{}))
	assert.False(t, CanMoveToTableau([]deck.Card{}, up("7s")))
}

func TestCanMoveToFoundation(t *testing.T) {
	tests := []struct {
		name   string
		card   string
		target Pile
		want   bool
	}{
		{"ace onto empty", "Ah", Pile{}, true},
		{"any ace onto empty", "As", Pile{}, true},
		{"two onto empty", "2h", Pile{}, false},
		{"king onto empty", "Kd", Pile{}, false},
		{"next rank same suit", "2h", up("Ah"), true},
		{"next rank other suit", "2d", up("Ah"), false},
		{"skipped rank", "3h", up("Ah"), false},
		{"same rank", "Ah", up("Ah"), false},
		{"king completes suit", "Kc", up("Ac 2c 3c 4c 5c 6c 7c 8c 9c Tc Jc Qc"), true},
		{"lower rank", "4s", up("As 2s 3s 4s 5s"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMoveToFoundation(deck.MustParseCard(tt.card), tt.target))
		})
	}
}

func TestCheckWin(t *testing.T) {
	s := emptyState()
	for i, suit := range deck.Suits {
		s.Foundations[i] = completeSuit(suit)
	}
	assert.True(t, CheckWin(s))

	t.Run("51 cards on foundations", func(t *testing.T) {
		almost := s.Clone()
		king := almost.Foundations[3][12]
		almost.Foundations[3] = almost.Foundations[3][:12]
		almost.Tableau[0] = Pile{king}
		assert.False(t, CheckWin(almost))
	})

	t.Run("fresh deal", func(t *testing.T) {
		assert.False(t, CheckWin(DealFrom(deck.New())))
	})

	t.Run("empty board", func(t *testing.T) {
		assert.False(t, CheckWin(emptyState()))
	})
}
