package handlers

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus"
)

// GameServer holds the live games and the per-game connection hubs.
type GameServer struct {
	Registry *game.Registry
	Logger   *logrus.Logger
	Config   config.Config

	// Recorder and Archive are handed to every new session. Either may be nil.
	Recorder game.ActionRecorder
	Archive  game.RoundArchive

	mu   sync.Mutex
	hubs map[uuid.UUID]*hub
}

func NewGameServer(logger *logrus.Logger, cfg config.Config) *GameServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GameServer{
		Registry: game.NewRegistry(logger),
		Logger:   logger,
		Config:   cfg,
		hubs:     make(map[uuid.UUID]*hub),
	}
}

// CreateGame registers a new session and wires its broadcasts to a fresh hub.
func (gs *GameServer) CreateGame(passcodeHash string) *game.Session {
	s := gs.Registry.Create(game.Options{
		TargetScore:  gs.Config.TargetScore,
		AutoStart:    gs.Config.AutoStart,
		PasscodeHash: passcodeHash,
		Recorder:     gs.Recorder,
		Archive:      gs.Archive,
		Logger:       gs.Logger,
	})
	h := newHub(gs.Logger.WithField("code", s.Code))

	s.Mu.Lock()
	s.BroadcastFn = h.broadcast
	s.BroadcastToPlayerFn = h.sendTo
	removeFromRegistry := s.OnEmpty
	s.OnEmpty = func(s *game.Session) {
		removeFromRegistry(s)
		gs.dropHub(s.ID)
	}
	s.Mu.Unlock()

	gs.mu.Lock()
	gs.hubs[s.ID] = h
	gs.mu.Unlock()
	return s
}

func (gs *GameServer) hubFor(id uuid.UUID) (*hub, bool) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	h, ok := gs.hubs[id]
	return h, ok
}

func (gs *GameServer) dropHub(id uuid.UUID) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	delete(gs.hubs, id)
}

// ReapIdle removes games older than maxAge that have no players, and returns how many it
// removed.
func (gs *GameServer) ReapIdle(maxAge time.Duration) int {
	removed := 0
	for _, s := range gs.Registry.List() {
		if time.Since(s.CreatedAt) < maxAge || s.PlayerCount() > 0 {
			continue
		}
		gs.Registry.Delete(s.ID)
		gs.dropHub(s.ID)
		removed++
	}
	return removed
}
