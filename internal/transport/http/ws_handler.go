package http

import (
	"context"
	"errors"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/convosphere/convosphere-server/internal/config"
	"github.com/convosphere/convosphere-server/internal/proto"
	"github.com/convosphere/convosphere-server/internal/relay"
)

// WSHandler upgrades connections and bridges them to the hub: one read
// loop feeding the session's command channel, one write loop draining
// its event channel.
type WSHandler struct {
	hub             *relay.Hub
	log             zerolog.Logger
	maxMessageBytes int64
	rateLimit       int
}

// NewWSHandler creates the websocket endpoint handler.
func NewWSHandler(hub *relay.Hub, cfg config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:             hub,
		log:             logger.With().Str("component", "ws").Logger(),
		maxMessageBytes: cfg.MaxMessageBytes,
		rateLimit:       cfg.WSRateLimit,
	}
}

// Handle upgrades the request and runs the connection until either
// side goes away.
// GET /ws
func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	session := relay.NewSession(uuid.New().String())
	h.hub.RegisterSession(session)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stop := make(chan struct{})
	defer close(stop)

	limiter := newRateLimiter(h.rateLimit)
	limiter.startReset(stop)

	errCh := make(chan error, 2)
	go func() {
		err := h.readLoop(ctx, conn, session, limiter)
		// The read loop is the only sender on the command channel, so
		// closing it here is race-free and lets the hub's pump drain
		// and exit instead of blocking forever.
		close(session.Commands)
		errCh <- err
	}()
	go func() { errCh <- h.writeLoop(ctx, conn, session) }()

	err = <-errCh
	cancel()
	h.hub.UnregisterSession(session)

	if err != nil && !isExpectedClose(err) {
		h.log.Debug().Err(err).Str("session_id", session.ID).Msg("connection closed")
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

// readLoop decodes envelopes off the wire and forwards them to the
// hub. Unknown events and undecodable payloads are skipped; the
// connection stays up.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, s *relay.Session, limiter *rateLimiter) error {
	for {
		var in proto.Inbound
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			return err
		}
		if !limiter.allow() {
			h.log.Warn().Str("session_id", s.ID).Msg("rate limit exceeded, frame dropped")
			continue
		}

		cmd, err := inboundToCommand(in)
		if err != nil {
			h.log.Debug().Err(err).Str("event", in.Event).Msg("malformed payload skipped")
			continue
		}
		if cmd == nil {
			h.log.Debug().Str("event", in.Event).Msg("unknown event skipped")
			continue
		}

		select {
		case s.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, s *relay.Session) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.Events:
			out, ok := outboundFromEvent(ev)
			if !ok {
				continue
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return err
			}
		}
	}
}

func isExpectedClose(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
