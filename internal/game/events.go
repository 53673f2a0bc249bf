package game

import (
	"errors"

	"github.com/jason-s-yu/uno/internal/engine"
)

// GameEventType names an event pushed to clients.
type GameEventType string

const (
	EventPlayerJoined    GameEventType = "player_joined"
	EventPlayerLeft      GameEventType = "player_left"
	EventGameStarted     GameEventType = "game_started"
	EventCardPlayed      GameEventType = "card_played"
	EventPrivateCardDraw GameEventType = "card_drawn" // only sent to the drawing player
	EventPlayerDrewCard  GameEventType = "player_drew_card"
	EventUnoSaid         GameEventType = "uno_said"
	EventRoundEnded      GameEventType = "round_ended"
	EventNewRoundStarted GameEventType = "new_round_started"
	EventGameFinished    GameEventType = "game_finished"
	EventPrivateState    GameEventType = "game_state" // per player view, sent after every change
	EventError           GameEventType = "error"
)

// GameEvent is the envelope for everything the session broadcasts.
type GameEvent struct {
	Type    GameEventType `json:"type"`
	Player  string        `json:"player,omitempty"`
	Card    *engine.Card  `json:"card,omitempty"`
	Message string        `json:"message,omitempty"`

	// Code is the machine readable error code on EventError.
	Code string `json:"code,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`
	State   *engine.PlayerView     `json:"state,omitempty"`
}

// ErrorEvent builds the event sent to a client whose action was rejected.
func ErrorEvent(err error) GameEvent {
	return GameEvent{
		Type:    EventError,
		Code:    ErrorCode(err),
		Message: err.Error(),
	}
}

// ErrorCode extends engine.ErrorCode with the errors raised by the session layer.
func ErrorCode(err error) string {
	if errors.Is(err, ErrInvalidName) {
		return "InvalidName"
	}
	return engine.ErrorCode(err)
}
