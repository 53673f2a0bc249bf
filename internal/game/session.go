package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/engine"
	"github.com/sirupsen/logrus"
)

// MaxNameLength bounds player names in runes.
const MaxNameLength = 24

// ErrInvalidName is returned for empty or overlong player names.
var ErrInvalidName = errors.New("invalid player name")

// ActionRecorder receives every accepted action. *cache.Queue implements it.
type ActionRecorder interface {
	PublishGameAction(ctx context.Context, record cache.ActionRecord) error
}

// RoundArchive receives every finished round. database.Store implementations satisfy it.
type RoundArchive interface {
	RecordRound(ctx context.Context, rec database.RoundRecord) error
}

// Options configures a new Session.
type Options struct {
	// RNG drives every shuffle and starting-player pick. Nil means a random source.
	RNG engine.Source
	// TargetScore finishes the match once a player reaches it. Zero plays rounds forever.
	TargetScore int
	// AutoStart starts the game as soon as this many players have joined. Zero disables it.
	AutoStart int
	// PasscodeHash is an argon2id hash produced by auth.HashPasscode, or "" for open games.
	PasscodeHash string

	Recorder ActionRecorder
	Archive  RoundArchive
	Logger   logrus.FieldLogger
}

// Session is a live game: the engine plus everything needed to tell clients about it.
// All exported methods lock Mu. Broadcast callbacks run with Mu held and must not call
// back into the session.
type Session struct {
	ID           uuid.UUID
	Code         string
	CreatedAt    time.Time
	PasscodeHash string

	Mu        sync.Mutex
	engine    *engine.Game
	autoStart int

	// BroadcastFn sends an event to every connected player. If nil, nothing is sent.
	BroadcastFn func(ev GameEvent)
	// BroadcastToPlayerFn sends an event to one player.
	BroadcastToPlayerFn func(name string, ev GameEvent)
	// OnEmpty is called without Mu held once the last player has left.
	OnEmpty func(s *Session)

	recorder    ActionRecorder
	archive     RoundArchive
	actionIndex int
	// lastArchive closes once the most recent round write has finished.
	lastArchive chan struct{}
	pending     sync.WaitGroup
	log         *logrus.Entry
}

// NewSession builds a session in the Waiting phase with a fresh ID and join code.
func NewSession(opts Options) *Session {
	return newSession(opts, newCode())
}

func newSession(opts Options, code string) *Session {
	var engineOpts []engine.Option
	if opts.TargetScore > 0 {
		engineOpts = append(engineOpts, engine.WithMatchOver(engine.ScoreLimit(opts.TargetScore)))
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Session{
		ID:           uuid.New(),
		Code:         code,
		CreatedAt:    time.Now(),
		PasscodeHash: opts.PasscodeHash,
		engine:       engine.NewGame(opts.RNG, engineOpts...),
		autoStart:    opts.AutoStart,
		recorder:     opts.Recorder,
		archive:      opts.Archive,
	}
	s.log = logger.WithFields(logrus.Fields{"game_id": s.ID, "code": s.Code})
	return s
}

func newCode() string {
	return uuid.NewString()[:8]
}

// ValidateName trims name and checks its length.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// CanJoin reports whether name could take a seat right now without taking it.
func (s *Session) CanJoin(name string) error {
	name, err := ValidateName(name)
	if err != nil {
		return err
	}
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.engine.Phase() != engine.PhaseWaiting {
		return engine.ErrWrongPhase
	}
	if s.engine.PlayerCount() >= engine.MaxPlayers {
		return engine.ErrGameFull
	}
	if _, ok := s.engine.SessionOf(name); ok {
		return engine.ErrDuplicateName
	}
	return nil
}

// Join seats name. handle identifies the connection that owns the seat.
func (s *Session) Join(name, handle string) error {
	name, err := ValidateName(name)
	if err != nil {
		return err
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	seat, err := s.engine.AddPlayer(name, handle)
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"player": name, "seat": seat}).Info("player joined")
	s.fireEvent(GameEvent{
		Type:   EventPlayerJoined,
		Player: name,
		Payload: map[string]interface{}{
			"seat":    seat,
			"players": s.engine.Players(),
		},
	})
	s.logAction(name, "join", map[string]interface{}{"seat": seat})

	if s.autoStart > 0 && s.engine.PlayerCount() >= s.autoStart {
		if err := s.start(); err != nil {
			s.log.WithError(err).Warn("auto start failed")
		}
		return nil
	}
	s.broadcastState()
	return nil
}

// Leave removes name from the game. A started game left with a single player finishes.
func (s *Session) Leave(name string) error {
	s.Mu.Lock()
	before := s.engine.Phase()
	if err := s.engine.RemovePlayer(name); err != nil {
		s.Mu.Unlock()
		return err
	}
	s.log.WithField("player", name).Info("player left")
	s.fireEvent(GameEvent{
		Type:    EventPlayerLeft,
		Player:  name,
		Payload: map[string]interface{}{"players": s.engine.Players()},
	})
	s.logAction(name, "leave", nil)

	if before != engine.PhaseFinished && s.engine.Phase() == engine.PhaseFinished {
		s.finishGame("abandoned")
	}
	s.broadcastState()
	empty := s.engine.PlayerCount() == 0
	s.Mu.Unlock()

	if empty && s.OnEmpty != nil {
		s.OnEmpty(s)
	}
	return nil
}

// Start deals the first round.
func (s *Session) Start() error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.start()
}

func (s *Session) start() error {
	if err := s.engine.StartGame(); err != nil {
		return err
	}
	s.log.WithField("players", s.engine.Players()).Info("game started")
	s.fireEvent(GameEvent{
		Type:    EventGameStarted,
		Payload: s.roundPayload(),
	})
	s.logAction("", "start", map[string]interface{}{"players": s.engine.Players()})
	s.broadcastState()
	return nil
}

// Play plays the card at index from name's hand. chosen only matters for wild cards.
func (s *Session) Play(name string, index int, chosen engine.Color) (engine.PlayResult, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	res, err := s.engine.PlayCard(name, index, chosen)
	if err != nil {
		return res, err
	}
	card := res.Card
	s.fireEvent(GameEvent{
		Type:    EventCardPlayed,
		Player:  name,
		Card:    &card,
		Message: res.Message,
		Payload: map[string]interface{}{
			"current_color": res.CurrentColor,
			"target":        res.Target,
			"drawn":         res.Drawn,
			"penalty":       res.Penalty,
		},
	})
	s.logAction(name, "play_card", map[string]interface{}{
		"card_index":   index,
		"card":         card.String(),
		"chosen_color": chosen.String(),
		"message":      res.Message,
	})

	if res.RoundOver {
		s.finishRound(name, res.Award)
	}
	s.broadcastState()
	return res, nil
}

// Draw draws a card for name and passes the turn. On engine.ErrDeckExhausted the turn
// has still passed.
func (s *Session) Draw(name string) (engine.Card, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	card, err := s.engine.DrawCard(name)
	switch {
	case errors.Is(err, engine.ErrDeckExhausted):
		s.log.WithField("player", name).Warn("draw with no cards left")
		s.fireEvent(GameEvent{
			Type:    EventPlayerDrewCard,
			Player:  name,
			Message: name + " could not draw, no cards left",
			Payload: map[string]interface{}{"hand_count": s.handCount(name), "exhausted": true},
		})
		s.logAction(name, "draw_card", map[string]interface{}{"exhausted": true})
		s.broadcastState()
		return card, err
	case err != nil:
		return card, err
	}

	s.fireEventToPlayer(name, GameEvent{Type: EventPrivateCardDraw, Player: name, Card: &card})
	s.fireEvent(GameEvent{
		Type:    EventPlayerDrewCard,
		Player:  name,
		Message: name + " drew a card",
		Payload: map[string]interface{}{"hand_count": s.handCount(name)},
	})
	s.logAction(name, "draw_card", nil)
	s.broadcastState()
	return card, nil
}

// SayUno records name's UNO call. It reports false when the call had no effect.
func (s *Session) SayUno(name string) (bool, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	ok, err := s.engine.SayUno(name)
	if err != nil || !ok {
		return ok, err
	}
	s.fireEvent(GameEvent{Type: EventUnoSaid, Player: name, Message: name + " says UNO"})
	s.logAction(name, "say_uno", nil)
	s.broadcastState()
	return true, nil
}

// SendState pushes name's private view to name alone.
func (s *Session) SendState(name string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	view, err := s.engine.StateFor(name)
	if err != nil {
		return err
	}
	s.fireEventToPlayer(name, GameEvent{Type: EventPrivateState, State: &view})
	return nil
}

// StateFor returns name's private view.
func (s *Session) StateFor(name string) (engine.PlayerView, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.engine.StateFor(name)
}

// PublicState returns the view shared by everyone.
func (s *Session) PublicState() engine.GameState {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.engine.PublicState()
}

// Scores returns the cumulative scores.
func (s *Session) Scores() map[string]int {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.engine.Scores()
}

// Phase returns the engine phase.
func (s *Session) Phase() engine.Phase {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.engine.Phase()
}

// PlayerCount returns the number of seated players.
func (s *Session) PlayerCount() int {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.engine.PlayerCount()
}

// Wait blocks until every queued action and round record has been handed off.
func (s *Session) Wait() {
	s.pending.Wait()
}

// finishRound reports the round result, archives it and deals the next round unless the
// match is over. Assumes lock is held.
func (s *Session) finishRound(winner string, award int) {
	scores := s.engine.Scores()
	round := s.engine.Round()
	finished := s.engine.Phase() == engine.PhaseFinished

	s.log.WithFields(logrus.Fields{"winner": winner, "points": award, "round": round}).Info("round ended")
	s.fireEvent(GameEvent{
		Type:    EventRoundEnded,
		Player:  winner,
		Message: winner + " wins the round",
		Payload: map[string]interface{}{
			"round":  round,
			"points": award,
			"scores": scores,
		},
	})
	s.logAction(winner, "round_end", map[string]interface{}{"round": round, "points": award})
	s.archiveRound(database.RoundRecord{
		GameID:   s.ID,
		Code:     s.Code,
		Round:    round,
		Winner:   winner,
		Points:   award,
		Scores:   scores,
		Finished: finished,
		EndedAt:  time.Now(),
	})

	if finished {
		s.finishGame("score_limit")
		return
	}
	if err := s.engine.StartNewRound(); err != nil {
		s.log.WithError(err).Error("failed to deal next round")
		return
	}
	s.fireEvent(GameEvent{
		Type:    EventNewRoundStarted,
		Payload: s.roundPayload(),
	})
	s.logAction("", "new_round", map[string]interface{}{"round": s.engine.Round()})
}

// finishGame announces the end of the match. Assumes lock is held.
func (s *Session) finishGame(reason string) {
	scores := s.engine.Scores()
	leader, best := "", -1
	for _, name := range s.engine.Players() {
		if scores[name] > best {
			leader, best = name, scores[name]
		}
	}
	s.log.WithFields(logrus.Fields{"reason": reason, "leader": leader}).Info("game finished")
	s.fireEvent(GameEvent{
		Type:   EventGameFinished,
		Player: leader,
		Payload: map[string]interface{}{
			"reason": reason,
			"scores": scores,
		},
	})
	s.logAction(leader, "game_finished", map[string]interface{}{"reason": reason})
}

func (s *Session) roundPayload() map[string]interface{} {
	payload := map[string]interface{}{
		"round":          s.engine.Round(),
		"current_player": s.engine.CurrentPlayer(),
		"current_color":  s.engine.CurrentColor(),
	}
	if top, ok := s.engine.TopCard(); ok {
		payload["top_card"] = top
	}
	return payload
}

func (s *Session) handCount(name string) int {
	for _, p := range s.engine.PublicState().Players {
		if p.Name == name {
			return p.CardCount
		}
	}
	return 0
}

// broadcastState sends every player their own view. Assumes lock is held.
func (s *Session) broadcastState() {
	for _, name := range s.engine.Players() {
		view, err := s.engine.StateFor(name)
		if err != nil {
			continue
		}
		s.fireEventToPlayer(name, GameEvent{Type: EventPrivateState, State: &view})
	}
}

// fireEvent broadcasts to all players. Assumes lock is held.
func (s *Session) fireEvent(ev GameEvent) {
	if s.BroadcastFn == nil {
		s.log.WithField("event", ev.Type).Debug("no broadcaster attached")
		return
	}
	s.BroadcastFn(ev)
}

// fireEventToPlayer sends an event only to one player. Assumes lock is held.
func (s *Session) fireEventToPlayer(name string, ev GameEvent) {
	if s.BroadcastToPlayerFn == nil {
		s.log.WithFields(logrus.Fields{"event": ev.Type, "player": name}).Debug("no private broadcaster attached")
		return
	}
	s.BroadcastToPlayerFn(name, ev)
}

// logAction numbers the action and hands it to the recorder in the background.
// Assumes lock is held.
func (s *Session) logAction(actor, actionType string, payload map[string]interface{}) {
	s.actionIndex++
	if s.recorder == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.ActionRecord{
		GameID:        s.ID,
		ActionIndex:   s.actionIndex,
		Actor:         actor,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	s.pending.Add(1)
	go func(rec cache.ActionRecord) {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.recorder.PublishGameAction(ctx, rec); err != nil {
			s.log.WithError(err).WithField("action_index", rec.ActionIndex).Warn("failed to publish game action")
		}
	}(record)
}

// archiveRound stores a round result in the background. Writes for one session land in
// round order. Assumes lock is held.
func (s *Session) archiveRound(rec database.RoundRecord) {
	if s.archive == nil {
		return
	}
	prev, done := s.lastArchive, make(chan struct{})
	s.lastArchive = done
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.archive.RecordRound(ctx, rec); err != nil {
			s.log.WithError(err).WithField("round", rec.Round).Error("failed to archive round")
		}
	}()
}
