package engine

import "fmt"

// effect is the outcome of a card's special ability. extraAdvances counts turn advances
// the effect needs on top of the one every play makes.
type effect struct {
	extraAdvances int
	message       string
	target        string
	drawn         int
	requested     int
}

type effectHandler func(g *Game, card Card, chosen Color) effect

var effectHandlers = map[Value]effectHandler{
	ValueSkip:         skipEffect,
	ValueReverse:      reverseEffect,
	ValueDrawTwo:      drawTwoEffect,
	ValueWild:         wildEffect,
	ValueWildDrawFour: wildDrawFourEffect,
}

// resolveEffect applies card's ability. The played card is already on the play pile and
// g.current still points at the player who played it.
func (g *Game) resolveEffect(card Card, chosen Color) effect {
	if h, ok := effectHandlers[card.Value]; ok {
		return h(g, card, chosen)
	}
	g.currentColor = card.Color
	return effect{}
}

func skipEffect(g *Game, card Card, _ Color) effect {
	g.currentColor = card.Color
	skipped := g.players[g.nextIndex()].name
	return effect{
		extraAdvances: 1,
		message:       fmt.Sprintf("%s is skipped", skipped),
		target:        skipped,
	}
}

func reverseEffect(g *Game, card Card, _ Color) effect {
	g.currentColor = card.Color
	g.direction = -g.direction
	return effect{message: "direction reversed"}
}

func drawTwoEffect(g *Game, card Card, _ Color) effect {
	g.currentColor = card.Color
	return g.drawEffect(2)
}

func wildEffect(g *Game, _ Card, chosen Color) effect {
	g.currentColor = wildColor(chosen)
	return effect{message: fmt.Sprintf("color changed to %s", g.currentColor)}
}

func wildDrawFourEffect(g *Game, _ Card, chosen Color) effect {
	g.currentColor = wildColor(chosen)
	e := g.drawEffect(4)
	e.message = fmt.Sprintf("%s, color changed to %s", e.message, g.currentColor)
	return e
}

// drawEffect makes the next player draw n cards, as many as the piles allow, and skips them.
func (g *Game) drawEffect(n int) effect {
	target := g.players[g.nextIndex()]
	drawn := g.forceDraw(target, n)
	return effect{
		extraAdvances: 1,
		message:       fmt.Sprintf("%s draws %d cards", target.name, drawn),
		target:        target.name,
		drawn:         drawn,
		requested:     n,
	}
}

func wildColor(chosen Color) Color {
	if chosen.Playable() {
		return chosen
	}
	return FallbackColor
}
