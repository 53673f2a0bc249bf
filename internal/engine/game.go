package engine

import "fmt"

const (
	MinPlayers = 2
	MaxPlayers = 4
	HandSize   = 7
	// UnoPenalty is the number of cards drawn by a player who reaches one card without
	// having called UNO.
	UnoPenalty = 2
	// FallbackColor is applied when a wild card is played without a valid chosen color.
	FallbackColor = ColorRed
)

// MatchOverFunc decides, after a round has been scored, whether the match is finished.
type MatchOverFunc func(scores map[string]int) bool

// ScoreLimit returns a MatchOverFunc that ends the match once any player reaches limit.
func ScoreLimit(limit int) MatchOverFunc {
	return func(scores map[string]int) bool {
		for _, s := range scores {
			if s >= limit {
				return true
			}
		}
		return false
	}
}

type player struct {
	name    string
	session string
	hand    []Card
	saidUno bool
	score   int
}

// take adds c to the hand. Any earlier UNO call no longer applies.
func (p *player) take(c Card) {
	p.hand = append(p.hand, c)
	p.saidUno = false
}

// Game is the authoritative state of one UNO match.
type Game struct {
	players      []*player
	deck         []Card
	playPile     []Card
	discardPile  []Card
	current      int
	direction    int
	currentColor Color
	phase        Phase
	round        int

	roundScored bool
	lastAward   int

	rng       Source
	matchOver MatchOverFunc
}

// Option configures a Game.
type Option func(*Game)

// WithMatchOver installs the hook consulted after each scored round.
func WithMatchOver(f MatchOverFunc) Option {
	return func(g *Game) { g.matchOver = f }
}

// NewGame returns an empty game in the Waiting phase. A nil rng uses NewRandomSource.
func NewGame(rng Source, opts ...Option) *Game {
	if rng == nil {
		rng = NewRandomSource()
	}
	g := &Game{
		direction: 1,
		rng:       rng,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddPlayer seats a new player and returns their seat index.
func (g *Game) AddPlayer(name, session string) (int, error) {
	if g.phase != PhaseWaiting {
		return 0, ErrWrongPhase
	}
	if len(g.players) >= MaxPlayers {
		return 0, ErrGameFull
	}
	if _, p := g.find(name); p != nil {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	g.players = append(g.players, &player{name: name, session: session})
	return len(g.players) - 1, nil
}

// RemovePlayer removes a player in any phase. Once the game has started the leaver's hand
// goes to the discard pile, and a game left with fewer than MinPlayers is Finished.
func (g *Game) RemovePlayer(name string) error {
	idx, p := g.find(name)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, name)
	}
	g.discardPile = append(g.discardPile, p.hand...)
	g.players = append(g.players[:idx], g.players[idx+1:]...)

	n := len(g.players)
	if n == 0 {
		g.current = 0
	} else {
		if idx < g.current || (idx == g.current && g.direction < 0) {
			g.current--
		}
		g.current = mod(g.current, n)
	}

	if g.phase != PhaseWaiting && g.phase != PhaseFinished && n < MinPlayers {
		g.phase = PhaseFinished
	}
	return nil
}

// StartGame deals the first round.
func (g *Game) StartGame() error {
	if g.phase != PhaseWaiting {
		return ErrWrongPhase
	}
	if len(g.players) < MinPlayers {
		return ErrNotEnoughPlayers
	}
	g.round = 1
	g.deal()
	g.phase = PhasePlaying
	return nil
}

// deal resets piles and hands, shuffles a fresh deck, deals HandSize cards to each player
// in seat order, flips the opening card and picks the starting player.
func (g *Game) deal() {
	g.deck = NewDeck()
	Shuffle(g.deck, g.rng)
	g.playPile = nil
	g.discardPile = nil
	g.direction = 1
	g.roundScored = false
	g.lastAward = 0

	for _, p := range g.players {
		p.hand = make([]Card, 0, HandSize)
		p.saidUno = false
	}
	for _, p := range g.players {
		for i := 0; i < HandSize; i++ {
			c, _ := g.draw()
			p.take(c)
		}
	}

	g.flip()
	g.current = g.rng.IntN(len(g.players))
}

// flip turns deck cards over until a non-wild card opens the play pile. Wild cards turned
// over on the way are set aside on the discard pile.
func (g *Game) flip() {
	g.currentColor = FallbackColor
	for len(g.deck) > 0 {
		n := len(g.deck) - 1
		c := g.deck[n]
		g.deck = g.deck[:n]
		if c.IsWild() {
			g.discardPile = append(g.discardPile, c)
			continue
		}
		g.playPile = append(g.playPile, c)
		g.currentColor = c.Color
		return
	}
}

func (g *Game) find(name string) (int, *player) {
	for i, p := range g.players {
		if p.name == name {
			return i, p
		}
	}
	return -1, nil
}

// turnPlayer resolves name to the player whose turn it is.
func (g *Game) turnPlayer(name string) (*player, error) {
	if g.phase != PhasePlaying {
		return nil, ErrWrongPhase
	}
	idx, p := g.find(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, name)
	}
	if idx != g.current {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

func (g *Game) nextIndex() int {
	return mod(g.current+g.direction, len(g.players))
}

func (g *Game) advance() {
	if len(g.players) == 0 {
		return
	}
	g.current = g.nextIndex()
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

// Phase returns the lifecycle phase.
func (g *Game) Phase() Phase { return g.phase }

// Round returns the 1-based round number, or 0 before the game starts.
func (g *Game) Round() int { return g.round }

// CurrentColor returns the color the next non-wild card must match.
func (g *Game) CurrentColor() Color { return g.currentColor }

// Direction returns +1 for seat order and -1 for reverse order.
func (g *Game) Direction() int { return g.direction }

// PlayerCount returns the number of seated players.
func (g *Game) PlayerCount() int { return len(g.players) }

// CurrentPlayer returns the name of the player to act, or "" before the game starts.
func (g *Game) CurrentPlayer() string {
	if g.phase == PhaseWaiting || len(g.players) == 0 {
		return ""
	}
	return g.players[g.current].name
}

// TopCard returns the active card of the play pile.
func (g *Game) TopCard() (Card, bool) {
	if len(g.playPile) == 0 {
		return Card{}, false
	}
	return g.playPile[len(g.playPile)-1], true
}

// Players returns the player names in seat order.
func (g *Game) Players() []string {
	names := make([]string, len(g.players))
	for i, p := range g.players {
		names[i] = p.name
	}
	return names
}

// SessionOf returns the session handle a player joined with.
func (g *Game) SessionOf(name string) (string, bool) {
	_, p := g.find(name)
	if p == nil {
		return "", false
	}
	return p.session, true
}

// CardCount returns the number of cards across hands, deck and both piles.
func (g *Game) CardCount() int {
	total := len(g.deck) + len(g.playPile) + len(g.discardPile)
	for _, p := range g.players {
		total += len(p.hand)
	}
	return total
}
