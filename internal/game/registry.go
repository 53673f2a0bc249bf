package game

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Registry tracks live sessions by ID and by join code.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	codes    map[string]uuid.UUID
	log      logrus.FieldLogger
}

func NewRegistry(logger logrus.FieldLogger) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		codes:    make(map[string]uuid.UUID),
		log:      logger,
	}
}

// Create registers a new session with a code no live session uses. The session removes
// itself once its last player leaves.
func (r *Registry) Create(opts Options) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := newCode()
	for {
		if _, taken := r.codes[code]; !taken {
			break
		}
		code = newCode()
	}
	s := newSession(opts, code)
	s.OnEmpty = func(s *Session) { r.Delete(s.ID) }

	r.sessions[s.ID] = s
	r.codes[s.Code] = s.ID
	r.log.WithFields(logrus.Fields{"game_id": s.ID, "code": s.Code}).Info("game created")
	return s
}

func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// GetByCode looks a session up by its join code, ignoring case.
func (r *Registry) GetByCode(code string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.codes[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		r.log.WithField("game_id", id).Warn("delete of unknown game")
		return
	}
	delete(r.sessions, id)
	delete(r.codes, s.Code)
	r.log.WithFields(logrus.Fields{"game_id": id, "code": s.Code}).Info("game removed")
}

// List returns a snapshot of the live sessions.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
