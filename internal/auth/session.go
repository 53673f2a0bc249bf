// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// privateKey and publicKey sign and verify seat tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is how long a seat token stays valid (0 => never expires).
	tokenTTL time.Duration
)

// ErrNotInitialized is returned when tokens are used before Init.
var ErrNotInitialized = errors.New("auth keys not initialized")

// Seat identifies a player name reserved at one game table.
type Seat struct {
	GameID uuid.UUID
	Name   string
}

// Init generates a fresh ed25519 key pair. Tokens do not survive a restart, and neither
// do the games they point at.
func Init(ttl time.Duration) error {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	publicKey, privateKey = pub, priv
	tokenTTL = ttl
	return nil
}

// CreateSeatToken signs a token with "sub" = player name and "gid" = game id.
func CreateSeatToken(seat Seat) (string, error) {
	if privateKey == nil {
		return "", ErrNotInitialized
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": seat.Name,
		"gid": seat.GameID.String(),
		"iat": now.Unix(),
	}
	if tokenTTL > 0 {
		claims["exp"] = now.Add(tokenTTL).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateSeatToken verifies a token and returns the seat it grants.
func AuthenticateSeatToken(tokenString string) (Seat, error) {
	if publicKey == nil {
		return Seat{}, ErrNotInitialized
	}
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return Seat{}, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return Seat{}, fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Seat{}, fmt.Errorf("invalid jwt claims")
	}
	name, ok := claims["sub"].(string)
	if !ok || name == "" {
		return Seat{}, fmt.Errorf("missing sub in jwt")
	}
	gid, ok := claims["gid"].(string)
	if !ok {
		return Seat{}, fmt.Errorf("missing gid in jwt")
	}
	gameID, err := uuid.Parse(gid)
	if err != nil {
		return Seat{}, fmt.Errorf("invalid gid in jwt: %w", err)
	}
	return Seat{GameID: gameID, Name: name}, nil
}
