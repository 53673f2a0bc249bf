package handlers

// Custom WebSocket close codes used by the game socket.
const (
	BadSubprotocolError   = 3000 // Client connected without the "uno" subprotocol.
	InvalidSeatTokenError = 3001 // Seat token missing, invalid, expired or issued for another game.
	InvalidGameCodeError  = 3003 // No live game has the code in the URL.
	JoinRejectedError     = 3004 // The game refused the seat (full, started, name taken).
)
