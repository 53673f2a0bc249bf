package engine

// HasRoundWinner reports whether some player has emptied their hand this round.
func (g *Game) HasRoundWinner() bool {
	return g.RoundWinner() != ""
}

// RoundWinner returns the name of the player with an empty hand, or "".
func (g *Game) RoundWinner() string {
	if g.phase == PhaseWaiting {
		return ""
	}
	for _, p := range g.players {
		if len(p.hand) == 0 {
			return p.name
		}
	}
	return ""
}

// CalculateScores credits the round winner with the points left in every other hand and
// returns the winner and the points awarded. It scores a round at most once; later calls
// return the same result. It returns "", 0 while nobody has won.
func (g *Game) CalculateScores() (string, int) {
	winner := g.RoundWinner()
	if winner == "" {
		return "", 0
	}
	if g.roundScored {
		return winner, g.lastAward
	}
	_, w := g.find(winner)
	award := 0
	for _, p := range g.players {
		if p != w {
			award += handPoints(p.hand)
		}
	}
	w.score += award
	g.roundScored = true
	g.lastAward = award
	return winner, award
}

// endRound scores the round and moves to RoundOver, or to Finished when the match hook
// says so.
func (g *Game) endRound() (string, int) {
	winner, award := g.CalculateScores()
	g.phase = PhaseRoundOver
	if g.matchOver != nil && g.matchOver(g.Scores()) {
		g.phase = PhaseFinished
	}
	return winner, award
}

// StartNewRound deals a fresh round to the same players. Scores carry over.
func (g *Game) StartNewRound() error {
	if g.phase != PhaseRoundOver {
		return ErrWrongPhase
	}
	g.CalculateScores()
	g.round++
	g.deal()
	g.phase = PhasePlaying
	return nil
}

// Scores returns the cumulative score of every player.
func (g *Game) Scores() map[string]int {
	scores := make(map[string]int, len(g.players))
	for _, p := range g.players {
		scores[p.name] = p.score
	}
	return scores
}
