package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeatTokenFrom(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		target string
		want   string
	}{
		{"cookie", "seat_token=real", "/game/ws/abc", "real"},
		{"similar cookie name first", "old_seat_token=stale; seat_token=real", "/game/ws/abc", "real"},
		{"only similar cookie", "old_seat_token=stale", "/game/ws/abc?token=query", "query"},
		{"cookie wins over query", "seat_token=real", "/game/ws/abc?token=query", "real"},
		{"nothing", "", "/game/ws/abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.cookie != "" {
				r.Header.Set("Cookie", tt.cookie)
			}
			assert.Equal(t, tt.want, seatTokenFrom(r))
		})
	}
}
