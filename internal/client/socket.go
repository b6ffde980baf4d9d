package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/convosphere/convosphere-server/internal/proto"
)

// Socket is one live connection to the relay.
type Socket struct {
	conn *websocket.Conn
	log  zerolog.Logger
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Dial connects to the relay's websocket endpoint.
func Dial(ctx context.Context, addr string, logger *zerolog.Logger) (*Socket, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	return &Socket{
		conn: conn,
		log:  logger.With().Str("component", "socket").Logger(),
	}, nil
}

// Emit sends one intent event to the relay. Fire-and-forget: the relay
// never answers an emit directly.
func (s *Socket) Emit(ctx context.Context, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return wsjson.Write(ctx, s.conn, proto.Inbound{Event: event, Data: raw})
}

// Register binds this connection to the user's identity. The full
// profile goes along so the relay can announce presence.
func (s *Socket) Register(ctx context.Context, user proto.User) error {
	return s.Emit(ctx, proto.EventRegisterUser, proto.Identity{Name: user.Name, Profile: &user})
}

// Join subscribes this connection to a room.
func (s *Socket) Join(ctx context.Context, roomID string) error {
	return s.Emit(ctx, proto.EventJoinRoom, proto.JoinInfo{RoomID: roomID})
}

// Listen reads relay events and feeds them to the reconciler until the
// connection or context ends. Handlers run to completion one at a
// time, so log mutations are race-free within this client.
func (s *Socket) Listen(ctx context.Context, r *Reconciler) error {
	for {
		var env envelope
		if err := wsjson.Read(ctx, s.conn, &env); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return err
		}

		if err := r.HandleEvent(ctx, env.Event, env.Data); err != nil {
			s.log.Warn().Err(err).Str("event", env.Event).Msg("event dropped")
		}
	}
}

// Close closes the connection.
func (s *Socket) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "bye")
}
