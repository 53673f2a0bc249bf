package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundScoring(t *testing.T) {
	g := newTestGame(t, Card{ColorRed, ValueFive}, filler(5),
		[]Card{{ColorRed, ValueOne}},
		[]Card{{ColorRed, ValueFive}, {ColorBlue, ValueSkip}, {ColorWild, ValueWild}},
		[]Card{{ColorGreen, ValueNine}},
	)
	assert.False(t, g.HasRoundWinner())
	winner, award := g.CalculateScores()
	assert.Empty(t, winner)
	assert.Zero(t, award)

	res, err := g.PlayCard("alice", 0, 0)
	require.NoError(t, err)
	assert.True(t, res.RoundOver)
	assert.Equal(t, 5+20+50+9, res.Award)
	assert.Contains(t, res.Message, "alice wins the round and scores 84 points")

	assert.True(t, g.HasRoundWinner())
	winner, award = g.CalculateScores()
	assert.Equal(t, "alice", winner)
	assert.Equal(t, 84, award)
	assert.Equal(t, map[string]int{"alice": 84, "bob": 0, "carol": 0}, g.Scores(), "scoring twice must not double count")

	_, err = g.PlayCard("bob", 0, 0)
	assert.ErrorIs(t, err, ErrWrongPhase)

	require.NoError(t, g.StartNewRound())
	assert.Equal(t, PhasePlaying, g.Phase())
	assert.Equal(t, 2, g.Round())
	assert.Equal(t, 84, g.Scores()["alice"])
	assert.False(t, g.HasRoundWinner())
	for _, p := range g.players {
		assert.Len(t, p.hand, HandSize)
	}
	assert.Equal(t, DeckSize, g.CardCount())
	assert.ErrorIs(t, g.StartNewRound(), ErrWrongPhase)
}

func TestMatchOverHook(t *testing.T) {
	g := newTestGame(t, Card{ColorRed, ValueFive}, filler(5),
		[]Card{{ColorRed, ValueOne}},
		[]Card{{ColorWild, ValueWildDrawFour}},
	)
	g.matchOver = ScoreLimit(50)

	res, err := g.PlayCard("alice", 0, 0)
	require.NoError(t, err)
	assert.True(t, res.RoundOver)
	assert.Equal(t, PhaseFinished, g.Phase())
	assert.ErrorIs(t, g.StartNewRound(), ErrWrongPhase)
	assert.Equal(t, "alice", g.RoundWinner())
}

func TestScoreLimit(t *testing.T) {
	over := ScoreLimit(500)
	assert.False(t, over(map[string]int{"a": 499, "b": 10}))
	assert.True(t, over(map[string]int{"a": 12, "b": 500}))
}

// playGreedy plays the first legal card of the current player or draws. It fails the
// test if the card count ever changes.
func playGreedy(t *testing.T, g *Game, maxTurns int) {
	t.Helper()
	for turn := 0; turn < maxTurns && g.Phase() == PhasePlaying; turn++ {
		name := g.CurrentPlayer()
		view, err := g.StateFor(name)
		require.NoError(t, err)

		played := false
		for i, c := range view.Hand {
			if !g.CanPlay(c) {
				continue
			}
			if len(view.Hand) == 2 {
				_, _ = g.SayUno(name)
			}
			_, err := g.PlayCard(name, i, Colors[turn%len(Colors)])
			require.NoError(t, err)
			played = true
			break
		}
		if !played {
			if _, err := g.DrawCard(name); err != nil {
				require.ErrorIs(t, err, ErrDeckExhausted)
			}
		}
		require.Equal(t, DeckSize, g.CardCount(), "turn %d", turn)
	}
}

func TestCardConservation(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		players := 2 + int(seed%3)
		g := NewGame(NewSource(seed))
		for _, name := range testNames[:players] {
			_, err := g.AddPlayer(name, "")
			require.NoError(t, err)
		}
		require.NoError(t, g.StartGame())
		require.Equal(t, DeckSize, g.CardCount())

		playGreedy(t, g, 1000)
		if g.Phase() == PhaseRoundOver {
			winners := 0
			for _, p := range g.players {
				if len(p.hand) == 0 {
					winners++
				}
			}
			assert.Equal(t, 1, winners, "seed %d", seed)
			require.NoError(t, g.StartNewRound())
			require.Equal(t, DeckSize, g.CardCount())
		}

		if g.Phase() == PhasePlaying {
			require.NoError(t, g.RemovePlayer(g.Players()[0]))
			assert.Equal(t, DeckSize, g.CardCount(), "seed %d after leave", seed)
		}
	}
}
