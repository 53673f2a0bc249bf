package handlers

import (
	"encoding/json"
	"net/http"
)

// seatTokenFrom reads the seat token from the cookie, falling back to the token query param.
func seatTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(seatCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}
