package engine

import (
	"fmt"
	"strings"
)

// PlayResult describes an accepted play.
type PlayResult struct {
	Player string `json:"player"`
	Card   Card   `json:"card"`
	// Message is a readable account of the play and its effects.
	Message      string `json:"message"`
	CurrentColor Color  `json:"current_color"`

	// Target is the player skipped or forced to draw, if any.
	Target string `json:"target,omitempty"`
	// Drawn is how many cards Target drew. It is lower than requested only when the piles
	// ran out, in which case Exhausted is set.
	Drawn     int  `json:"drawn,omitempty"`
	Exhausted bool `json:"exhausted,omitempty"`
	// Penalty is the number of cards drawn for failing to call UNO.
	Penalty int `json:"penalty,omitempty"`

	RoundOver bool `json:"round_over,omitempty"`
	// Award is the number of points the winner scored when RoundOver is set.
	Award int `json:"award,omitempty"`
}

// CanPlay reports whether card may be played on the current pile.
func (g *Game) CanPlay(card Card) bool {
	if card.IsWild() || card.Color == g.currentColor {
		return true
	}
	top, ok := g.TopCard()
	return ok && card.Value == top.Value
}

// PlayCard plays the card at index from name's hand. chosen is the color requested for a
// wild card; any value other than a playable color selects FallbackColor.
//
// Effects resolve before the turn advances. Skip, DrawTwo and WildDrawFour advance once
// themselves, so the regular advance lands on the player after the one they target.
func (g *Game) PlayCard(name string, index int, chosen Color) (PlayResult, error) {
	p, err := g.turnPlayer(name)
	if err != nil {
		return PlayResult{}, err
	}
	if index < 0 || index >= len(p.hand) {
		return PlayResult{}, fmt.Errorf("%w: %d (hand has %d cards)", ErrInvalidCardIndex, index, len(p.hand))
	}
	card := p.hand[index]
	if !g.CanPlay(card) {
		top, _ := g.TopCard()
		return PlayResult{}, fmt.Errorf("%w: %s on %s with %s in play", ErrIllegalPlay, card, top, g.currentColor)
	}

	p.hand = append(p.hand[:index], p.hand[index+1:]...)
	g.playPile = append(g.playPile, card)

	messages := []string{fmt.Sprintf("%s played %s", name, card)}
	eff := g.resolveEffect(card, chosen)
	for i := 0; i < eff.extraAdvances; i++ {
		g.advance()
	}
	if eff.message != "" {
		messages = append(messages, eff.message)
	}

	res := PlayResult{
		Player:    name,
		Card:      card,
		Target:    eff.target,
		Drawn:     eff.drawn,
		Exhausted: eff.drawn < eff.requested,
	}

	if len(p.hand) == 1 && !p.saidUno {
		res.Penalty = g.forceDraw(p, UnoPenalty)
		messages = append(messages, fmt.Sprintf("%s did not call UNO and draws %d penalty cards", name, res.Penalty))
	}

	if len(p.hand) == 0 {
		res.RoundOver = true
		_, res.Award = g.endRound()
		messages = append(messages, fmt.Sprintf("%s wins the round and scores %d points", name, res.Award))
	}

	g.advance()
	res.CurrentColor = g.currentColor
	res.Message = strings.Join(messages, "; ")
	return res, nil
}

// DrawCard draws one card for the current player and passes the turn. When no card can be
// drawn even after recycling the piles, it returns ErrDeckExhausted and the turn still
// passes.
func (g *Game) DrawCard(name string) (Card, error) {
	p, err := g.turnPlayer(name)
	if err != nil {
		return Card{}, err
	}
	c, ok := g.draw()
	g.advance()
	if !ok {
		return Card{}, ErrDeckExhausted
	}
	p.take(c)
	return c, nil
}

// SayUno marks name as having called UNO and reports whether the flag was set. The call
// takes effect while the player holds exactly one card, or two cards on their own turn so
// the call can precede the play that leaves them with one. Otherwise it is a no-op.
func (g *Game) SayUno(name string) (bool, error) {
	if g.phase != PhasePlaying {
		return false, ErrWrongPhase
	}
	idx, p := g.find(name)
	if p == nil {
		return false, fmt.Errorf("%w: %s", ErrPlayerNotFound, name)
	}
	if len(p.hand) != 1 && !(len(p.hand) == 2 && idx == g.current) {
		return false, nil
	}
	p.saidUno = true
	return true, nil
}
