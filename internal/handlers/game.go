package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/engine"
	"github.com/jason-s-yu/uno/internal/game"
)

const seatCookieName = "seat_token"

type createGameRequest struct {
	Passcode string `json:"passcode"`
}

type joinGameRequest struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode"`
}

// GameInfo is the public summary served before joining.
type GameInfo struct {
	ID               string       `json:"id"`
	Code             string       `json:"code"`
	Players          []string     `json:"players"`
	MaxPlayers       int          `json:"max_players"`
	Phase            engine.Phase `json:"phase"`
	PasscodeRequired bool         `json:"passcode_required"`
}

// ServeHTTP routes the REST side of /game/:
//
//	POST /game/create
//	GET  /game/{code}
//	POST /game/{code}/join
//
// Sockets are served by GameWSHandler on /game/ws/{code}.
func (gs *GameServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/game/create" {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		gs.handleCreateGame(w, r)
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/game/"), "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		gs.handleGameInfo(w, parts[0])
	case len(parts) == 2 && parts[1] == "join":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		gs.handleJoinGame(w, r, parts[0])
	default:
		http.Error(w, "unsupported route, use /game/ws/{code} for websockets", http.StatusNotFound)
	}
}

func (gs *GameServer) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", "invalid JSON body")
			return
		}
	}

	var hash string
	if req.Passcode != "" {
		var err error
		hash, err = auth.HashPasscode(req.Passcode, auth.DefaultHashParams)
		if err != nil {
			gs.Logger.WithError(err).Error("failed to hash passcode")
			writeError(w, http.StatusInternalServerError, "Internal", "could not create game")
			return
		}
	}

	s := gs.CreateGame(hash)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":   s.ID,
		"code": s.Code,
	})
}

func (gs *GameServer) handleGameInfo(w http.ResponseWriter, code string) {
	s, ok := gs.Registry.GetByCode(code)
	if !ok {
		writeError(w, http.StatusNotFound, "GameNotFound", "game not found")
		return
	}

	st := s.PublicState()
	info := GameInfo{
		ID:               s.ID.String(),
		Code:             s.Code,
		Players:          make([]string, len(st.Players)),
		MaxPlayers:       engine.MaxPlayers,
		Phase:            st.Phase,
		PasscodeRequired: s.PasscodeHash != "",
	}
	for i, p := range st.Players {
		info.Players[i] = p.Name
	}

	status := http.StatusOK
	if st.Phase != engine.PhaseWaiting || len(st.Players) >= engine.MaxPlayers {
		status = http.StatusConflict
	}
	writeJSON(w, status, info)
}

// handleJoinGame checks that the seat is free and issues a seat token for it. The seat is
// taken when the socket connects.
func (gs *GameServer) handleJoinGame(w http.ResponseWriter, r *http.Request, code string) {
	s, ok := gs.Registry.GetByCode(code)
	if !ok {
		writeError(w, http.StatusNotFound, "GameNotFound", "game not found")
		return
	}

	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "invalid JSON body")
		return
	}
	name, err := game.ValidateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, game.ErrorCode(err), "name must be 1 to 24 characters")
		return
	}

	if s.PasscodeHash != "" {
		match, err := auth.VerifyPasscode(req.Passcode, s.PasscodeHash)
		if err != nil {
			gs.Logger.WithError(err).WithField("code", s.Code).Error("stored passcode hash is unusable")
			writeError(w, http.StatusInternalServerError, "Internal", "could not verify passcode")
			return
		}
		if !match {
			writeError(w, http.StatusForbidden, "BadPasscode", "incorrect passcode")
			return
		}
	}

	if err := s.CanJoin(name); err != nil {
		status := http.StatusConflict
		if errors.Is(err, game.ErrInvalidName) {
			status = http.StatusBadRequest
		}
		writeError(w, status, game.ErrorCode(err), err.Error())
		return
	}

	token, err := auth.CreateSeatToken(auth.Seat{GameID: s.ID, Name: name})
	if err != nil {
		gs.Logger.WithError(err).Error("failed to sign seat token")
		writeError(w, http.StatusInternalServerError, "Internal", "could not issue seat token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     seatCookieName,
		Value:    token,
		Path:     "/game/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"game_id": s.ID,
		"code":    s.Code,
		"name":    name,
	})
}
