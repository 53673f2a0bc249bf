package engine

import "fmt"

// PlayerState is the public view of one player.
type PlayerState struct {
	Name      string `json:"name"`
	CardCount int    `json:"card_count"`
	Score     int    `json:"score"`
	SaidUno   bool   `json:"said_uno"`
}

// GameState is the view of a game every participant may see.
type GameState struct {
	Players       []PlayerState `json:"players"`
	CurrentPlayer string        `json:"current_player"`
	TopCard       *Card         `json:"top_card"`
	CurrentColor  Color         `json:"current_color,omitempty"`
	DeckCount     int           `json:"deck_count"`
	Direction     int           `json:"direction"`
	Started       bool          `json:"started"`
	Phase         Phase         `json:"phase"`
	Round         int           `json:"round"`
}

// PlayerView is the GameState as seen by one player, including their hand.
type PlayerView struct {
	GameState
	Hand     []Card `json:"hand"`
	YourTurn bool   `json:"your_turn"`
}

// PublicState returns the view without any hand contents.
func (g *Game) PublicState() GameState {
	st := GameState{
		Players:       make([]PlayerState, len(g.players)),
		CurrentPlayer: g.CurrentPlayer(),
		DeckCount:     len(g.deck),
		Direction:     g.direction,
		Started:       g.phase != PhaseWaiting,
		Phase:         g.phase,
		Round:         g.round,
	}
	if st.Started {
		st.CurrentColor = g.currentColor
	}
	if top, ok := g.TopCard(); ok {
		st.TopCard = &top
	}
	for i, p := range g.players {
		st.Players[i] = PlayerState{
			Name:      p.name,
			CardCount: len(p.hand),
			Score:     p.score,
			SaidUno:   p.saidUno,
		}
	}
	return st
}

// StateFor returns the view of the player called name.
func (g *Game) StateFor(name string) (PlayerView, error) {
	idx, p := g.find(name)
	if p == nil {
		return PlayerView{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, name)
	}
	hand := make([]Card, len(p.hand))
	copy(hand, p.hand)
	return PlayerView{
		GameState: g.PublicState(),
		Hand:      hand,
		YourTurn:  g.phase == PhasePlaying && idx == g.current,
	}, nil
}
