package engine

import "errors"

var (
	ErrGameFull         = errors.New("game is full")
	ErrDuplicateName    = errors.New("player name already taken")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidCardIndex = errors.New("invalid card index")
	ErrIllegalPlay      = errors.New("card cannot be played")
	ErrDeckExhausted    = errors.New("no cards left to draw")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrWrongPhase       = errors.New("action not allowed in the current phase")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrGameFull, "GameFull"},
	{ErrDuplicateName, "DuplicateName"},
	{ErrNotEnoughPlayers, "NotEnoughPlayers"},
	{ErrNotYourTurn, "NotYourTurn"},
	{ErrInvalidCardIndex, "InvalidCardIndex"},
	{ErrIllegalPlay, "IllegalPlay"},
	{ErrDeckExhausted, "DeckExhausted"},
	{ErrPlayerNotFound, "PlayerNotFound"},
	{ErrWrongPhase, "WrongPhase"},
}

// ErrorCode returns the machine-readable name of a rule error, or "Internal" for errors
// that did not come from the engine.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "Internal"
}
