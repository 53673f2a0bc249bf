package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/engine"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const subprotocol = "uno"

// GameMessage is an inbound socket message.
type GameMessage struct {
	Type string `json:"type"`

	// CardIndex and ChosenColor are only read for play_card. A missing index is rejected.
	CardIndex   *int   `json:"card_index,omitempty"`
	ChosenColor string `json:"chosen_color,omitempty"`
}

var errLeave = errors.New("player left")

// GameWSHandler upgrades /game/ws/{code} to a socket, seats the player named in the seat
// token, and relays their actions until the socket closes. Closing the socket gives up
// the seat.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.Trim(strings.TrimPrefix(r.URL.Path, "/game/ws/"), "/")

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{subprotocol},
			OriginPatterns: gs.Config.AllowedOrigins,
		})
		if err != nil {
			logger.WithError(err).Warn("websocket accept failed")
			return
		}
		defer c.CloseNow()
		c.SetReadLimit(maxMessageSize)

		if c.Subprotocol() != subprotocol {
			c.Close(BadSubprotocolError, "client must speak the uno subprotocol")
			return
		}

		s, ok := gs.Registry.GetByCode(code)
		if !ok {
			c.Close(InvalidGameCodeError, "game not found")
			return
		}
		h, ok := gs.hubFor(s.ID)
		if !ok {
			c.Close(InvalidGameCodeError, "game not found")
			return
		}

		seat, err := auth.AuthenticateSeatToken(seatTokenFrom(r))
		if err != nil || seat.GameID != s.ID {
			logger.WithError(err).WithField("code", s.Code).Warn("rejected seat token")
			c.Close(InvalidSeatTokenError, "invalid seat token")
			return
		}

		log := logger.WithFields(logrus.Fields{"code": s.Code, "player": seat.Name})
		cl := newClient(seat.Name, c, log)
		if !h.add(cl) {
			c.Close(JoinRejectedError, "player already connected")
			return
		}
		defer h.remove(cl)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go cl.writePump(ctx)

		if err := s.Join(seat.Name, uuid.NewString()); err != nil {
			log.WithError(err).Info("join rejected")
			c.Close(JoinRejectedError, err.Error())
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		limiter := rate.NewLimiter(rate.Every(gs.Config.RateInterval), gs.Config.RateBurst)
		err = readGameMessages(ctx, c, s, cl, limiter)
		if leaveErr := s.Leave(seat.Name); leaveErr != nil && !errors.Is(leaveErr, engine.ErrPlayerNotFound) {
			log.WithError(leaveErr).Warn("leave failed")
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)

		if errors.Is(err, errLeave) {
			c.Close(websocket.StatusNormalClosure, "left the game")
		}
	}
}

// readGameMessages reads and dispatches messages until the socket fails or the player
// leaves. Normal closures return nil.
func readGameMessages(ctx context.Context, c *websocket.Conn, s *game.Session, cl *client, l *rate.Limiter) error {
	for {
		if err := l.Wait(ctx); err != nil {
			return err
		}
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			cl.log.Warn("ignoring non-text message")
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWsError(cl, "BadRequest", "invalid JSON format")
			continue
		}
		cl.log.WithField("type", msg.Type).Debug("received action")

		if err := handleGameMessage(s, cl, msg); err != nil {
			if errors.Is(err, errLeave) {
				return err
			}
			cl.sendJSON(game.ErrorEvent(err))
		}
	}
}

func handleGameMessage(s *game.Session, cl *client, msg GameMessage) error {
	switch msg.Type {
	case "start_game":
		return s.Start()
	case "play_card":
		if msg.CardIndex == nil {
			return fmt.Errorf("%w: card_index is required", engine.ErrInvalidCardIndex)
		}
		color, err := engine.ParseColor(msg.ChosenColor)
		if err != nil {
			sendWsError(cl, "BadRequest", err.Error())
			return nil
		}
		_, err = s.Play(cl.name, *msg.CardIndex, color)
		return err
	case "draw_card":
		_, err := s.Draw(cl.name)
		return err
	case "say_uno":
		_, err := s.SayUno(cl.name)
		return err
	case "get_state":
		return s.SendState(cl.name)
	case "leave":
		return errLeave
	case "ping":
		sendWsMessage(cl, map[string]string{"type": "pong"})
		return nil
	default:
		sendWsError(cl, "UnknownAction", fmt.Sprintf("unknown action type: %s", msg.Type))
		return nil
	}
}

func sendWsMessage(cl *client, message interface{}) {
	cl.sendJSON(message)
}

// sendWsError sends a structured error that did not come from the game rules.
func sendWsError(cl *client, code, message string) {
	sendWsMessage(cl, game.GameEvent{
		Type:    game.EventError,
		Code:    code,
		Message: message,
	})
}
