package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealCmd_Render(t *testing.T) {
	seed := int64(42)
	cmd := DealCmd{Seed: &seed, Theme: "dark"}

	var buf bytes.Buffer
	require.NoError(t, cmd.render(&buf))

	out := buf.String()
	assert.Contains(t, out, "Klondike")
	assert.Contains(t, out, "seed 42")
	assert.Contains(t, out, "t6")
	assert.Equal(t, 1, strings.Count(out, "game "))
}

func TestDealCmd_SameSeedSameBoard(t *testing.T) {
	seed := int64(7)
	var a, b bytes.Buffer
	require.NoError(t, (&DealCmd{Seed: &seed, Theme: "light"}).render(&a))
	require.NoError(t, (&DealCmd{Seed: &seed, Theme: "light"}).render(&b))

	board := func(s string) string { return s[:strings.Index(s, "game ")] }
	assert.Equal(t, board(a.String()), board(b.String()))
}
