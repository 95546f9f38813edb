// Package gameid generates short, time-sortable identifiers for dealt games.
package gameid

import (
	crand "crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	rand "math/rand/v2"
	"strings"

	"github.com/coder/quartz"
)

// Crockford's base32 alphabet, lowercase, so ids sort the same as their timestamps
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the number of characters in a game id
const Length = 16

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// Generator produces ids from a 48-bit millisecond timestamp followed by 32
// random bits. Both the clock and the random source can be injected so tests
// get reproducible ids.
type Generator struct {
	clock quartz.Clock
	rng   *rand.Rand
}

// NewGenerator creates a generator. A nil clock uses wall time and a nil rng
// reads from crypto/rand.
func NewGenerator(clock quartz.Clock, rng *rand.Rand) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Generator{clock: clock, rng: rng}
}

// Generate returns the next id
func (g *Generator) Generate() string {
	var raw [10]byte

	ms := uint64(g.clock.Now().UnixMilli())
	raw[0] = byte(ms >> 40)
	raw[1] = byte(ms >> 32)
	raw[2] = byte(ms >> 24)
	raw[3] = byte(ms >> 16)
	raw[4] = byte(ms >> 8)
	raw[5] = byte(ms)

	if g.rng != nil {
		binary.BigEndian.PutUint32(raw[6:], g.rng.Uint32())
	} else if _, err := crand.Read(raw[6:]); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}

	return encoding.EncodeToString(raw[:])
}

// Validate checks that id has the right length and alphabet
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("game ID must be exactly %d characters, got %d", Length, len(id))
	}
	for i, r := range id {
		if !strings.ContainsRune(alphabet, r) {
			return fmt.Errorf("invalid character %c at position %d", r, i)
		}
	}
	return nil
}
