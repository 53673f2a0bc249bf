package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/engine"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGameServer(t *testing.T, autoStart int) *GameServer {
	t.Helper()
	require.NoError(t, auth.Init(0))
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewGameServer(logger, config.Config{
		AllowedOrigins: []string{"*"},
		AutoStart:      autoStart,
		RateInterval:   time.Millisecond,
		RateBurst:      100,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createGame(t *testing.T, gs *GameServer, passcode string) string {
	t.Helper()
	var body interface{}
	if passcode != "" {
		body = map[string]string{"passcode": passcode}
	}
	w := doJSON(t, gs, http.MethodPost, "/game/create", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		ID   string `json:"id"`
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Code, 8)
	return resp.Code
}

func TestCreateGame(t *testing.T) {
	gs := newTestGameServer(t, 0)
	code := createGame(t, gs, "")

	s, ok := gs.Registry.GetByCode(code)
	require.True(t, ok)
	assert.Empty(t, s.PasscodeHash)
	_, ok = gs.hubFor(s.ID)
	assert.True(t, ok)

	w := doJSON(t, gs, http.MethodGet, "/game/create", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestGameInfo(t *testing.T) {
	gs := newTestGameServer(t, 0)
	code := createGame(t, gs, "hunter2")

	w := doJSON(t, gs, http.MethodGet, "/game/"+code, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info GameInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, code, info.Code)
	assert.Empty(t, info.Players)
	assert.Equal(t, engine.MaxPlayers, info.MaxPlayers)
	assert.Equal(t, engine.PhaseWaiting, info.Phase)
	assert.True(t, info.PasscodeRequired)

	w = doJSON(t, gs, http.MethodGet, "/game/deadbeef", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s, _ := gs.Registry.GetByCode(code)
	for _, name := range []string{"alice", "bob"} {
		require.NoError(t, s.Join(name, name))
	}
	require.NoError(t, s.Start())
	w = doJSON(t, gs, http.MethodGet, "/game/"+code, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, []string{"alice", "bob"}, info.Players)
	assert.Equal(t, engine.PhasePlaying, info.Phase)
}

func TestJoinGame(t *testing.T) {
	gs := newTestGameServer(t, 0)
	code := createGame(t, gs, "")

	w := doJSON(t, gs, http.MethodPost, "/game/"+code+"/join", map[string]string{"name": " alice "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
		Name  string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Name)

	seat, err := auth.AuthenticateSeatToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", seat.Name)
	s, _ := gs.Registry.GetByCode(code)
	assert.Equal(t, s.ID, seat.GameID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, seatCookieName, cookies[0].Name)
	assert.Equal(t, resp.Token, cookies[0].Value)
	assert.Zero(t, s.PlayerCount(), "the seat is only taken by the socket")
}

func TestJoinGameRejections(t *testing.T) {
	gs := newTestGameServer(t, 0)
	code := createGame(t, gs, "")
	locked := createGame(t, gs, "hunter2")
	s, _ := gs.Registry.GetByCode(code)
	require.NoError(t, s.Join("alice", "a"))

	tests := []struct {
		name   string
		code   string
		body   interface{}
		status int
	}{
		{"unknown game", "deadbeef", map[string]string{"name": "bob"}, http.StatusNotFound},
		{"empty name", code, map[string]string{"name": "  "}, http.StatusBadRequest},
		{"bad json", code, "not an object", http.StatusBadRequest},
		{"name taken", code, map[string]string{"name": "alice"}, http.StatusConflict},
		{"missing passcode", locked, map[string]string{"name": "bob"}, http.StatusForbidden},
		{"wrong passcode", locked, map[string]string{"name": "bob", "passcode": "hunter3"}, http.StatusForbidden},
		{"right passcode", locked, map[string]string{"name": "bob", "passcode": "hunter2"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, gs, http.MethodPost, "/game/"+tt.code+"/join", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	require.NoError(t, s.Join("bob", "b"))
	require.NoError(t, s.Start())
	w := doJSON(t, gs, http.MethodPost, "/game/"+code+"/join", map[string]string{"name": "carol"})
	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "WrongPhase", body["code"])
}

func TestReapIdle(t *testing.T) {
	gs := newTestGameServer(t, 0)
	idle := createGame(t, gs, "")
	busy := createGame(t, gs, "")
	s, _ := gs.Registry.GetByCode(busy)
	require.NoError(t, s.Join("alice", "a"))

	assert.Zero(t, gs.ReapIdle(time.Hour))
	assert.Equal(t, 1, gs.ReapIdle(0))

	_, ok := gs.Registry.GetByCode(idle)
	assert.False(t, ok)
	_, ok = gs.Registry.GetByCode(busy)
	assert.True(t, ok)
}

func TestSessionEmptyDropsHub(t *testing.T) {
	gs := newTestGameServer(t, 0)
	code := createGame(t, gs, "")
	s, _ := gs.Registry.GetByCode(code)

	require.NoError(t, s.Join("alice", "a"))
	require.NoError(t, s.Leave("alice"))

	_, ok := gs.hubFor(s.ID)
	assert.False(t, ok)
	assert.Zero(t, gs.Registry.Len())
}
