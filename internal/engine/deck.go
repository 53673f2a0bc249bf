package engine

import (
	"math/rand/v2"
)

// DeckSize is the number of cards in a standard deck.
const DeckSize = 108

// Source is the random number source used for shuffling and for picking the starting
// player. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// NewSource returns a deterministic Source for the given seed.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandomSource returns a Source seeded from the runtime's random generator.
func NewRandomSource() Source {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewDeck builds the 108 card composition in a fixed order: for each color one 0, two of
// each 1-9, two Skip, two Reverse and two DrawTwo; then four Wild and four WildDrawFour,
// alternating.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, color := range Colors {
		deck = append(deck, Card{Color: color, Value: ValueZero})
		for v := ValueOne; v <= ValueNine; v++ {
			deck = append(deck, Card{Color: color, Value: v}, Card{Color: color, Value: v})
		}
		for _, v := range []Value{ValueSkip, ValueReverse, ValueDrawTwo} {
			deck = append(deck, Card{Color: color, Value: v}, Card{Color: color, Value: v})
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck,
			Card{Color: ColorWild, Value: ValueWild},
			Card{Color: ColorWild, Value: ValueWildDrawFour},
		)
	}
	return deck
}

// Shuffle permutes cards in place with Fisher-Yates, walking from the last index down.
func Shuffle(cards []Card, rng Source) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// draw pops the top card of the deck, recycling the piles first when the deck is empty.
// The top of the deck is the end of the slice.
func (g *Game) draw() (Card, bool) {
	if len(g.deck) == 0 && !g.reshuffle() {
		return Card{}, false
	}
	n := len(g.deck) - 1
	c := g.deck[n]
	g.deck = g.deck[:n]
	return c, true
}

// reshuffle moves every play pile card except the top one, plus the whole discard pile,
// into the deck and shuffles it. It reports false when there was nothing to move.
func (g *Game) reshuffle() bool {
	var pool []Card
	if n := len(g.playPile); n > 1 {
		pool = append(pool, g.playPile[:n-1]...)
		g.playPile = []Card{g.playPile[n-1]}
	}
	pool = append(pool, g.discardPile...)
	g.discardPile = nil
	if len(pool) == 0 {
		return false
	}
	Shuffle(pool, g.rng)
	g.deck = append(pool, g.deck...)
	return true
}

// forceDraw moves up to n cards into p's hand and returns how many were moved.
func (g *Game) forceDraw(p *player, n int) int {
	drawn := 0
	for ; drawn < n; drawn++ {
		c, ok := g.draw()
		if !ok {
			break
		}
		p.take(c)
	}
	return drawn
}
