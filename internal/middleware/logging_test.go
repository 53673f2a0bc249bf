package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMiddlewareRecordsStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/game/abc", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "HTTP Request", entry.Message)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "/game/abc", entry.Data["path"])
	assert.Equal(t, http.MethodGet, entry.Data["method"])
}

func TestLogMiddlewareDefaultsToOK(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/game/create", nil))
	assert.Equal(t, http.StatusOK, hook.LastEntry().Data["status"])
}

func TestLogMiddlewareWarnsOnServerError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

// hijackRecorder is a recorder that can be hijacked like a real HTTP/1 connection.
type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	server, client := net.Pipe()
	client.Close()
	return server, bufio.NewReadWriter(bufio.NewReader(server), bufio.NewWriter(server)), nil
}

func (h *hijackRecorder) ReadFrom(r io.Reader) (int64, error) {
	return io.Copy(h.ResponseRecorder, r)
}

func TestLogMiddlewarePassesHijackThrough(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok, "wrapped writer must stay hijackable for websocket upgrades")
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		conn.Close()
	}))

	rec := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/game/ws/abc", nil))

	assert.True(t, rec.hijacked)
	assert.Equal(t, "HTTP Request", hook.LastEntry().Message)
}

func TestLogMiddlewareWithoutHijacker(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var hijackable bool
	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hijackable = w.(http.Hijacker)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, hijackable)
}

func TestLogWebSocketDisconnect(t *testing.T) {
	logger, hook := test.NewNullLogger()

	LogWebSocketConnect(logger, "1.2.3.4:5", "/game/ws/abc")
	assert.Equal(t, "WebSocket connected", hook.LastEntry().Message)

	LogWebSocketDisconnect(logger, "1.2.3.4:5", "/game/ws/abc", errors.New("reset"))
	entry := hook.LastEntry()
	assert.Equal(t, "WebSocket disconnected", entry.Message)
	assert.EqualError(t, entry.Data["error"].(error), "reset")

	LogWebSocketDisconnect(logger, "1.2.3.4:5", "/game/ws/abc", nil)
	_, hasErr := hook.LastEntry().Data["error"]
	assert.False(t, hasErr)
}
