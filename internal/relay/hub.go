package relay

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/convosphere/convosphere-server/internal/proto"
)

// Hub routes events between sessions without interpreting message
// content. All routing state (sessions, rooms, the name directory) is
// mutated by the single Run goroutine; sessions talk to it through
// their command channels. Every operation is fire-and-forget: invalid
// payloads are dropped silently, never answered with an error.
type Hub struct {
	log        zerolog.Logger
	directory  *Directory
	sessions   map[*Session]struct{}
	rooms      map[string]*Room
	register   chan *Session
	unregister chan *Session
	commands   chan sessionCommand
}

type sessionCommand struct {
	session *Session
	cmd     *Command
}

// NewHub constructs a hub around the given directory.
func NewHub(directory *Directory, logger *zerolog.Logger) *Hub {
	return &Hub{
		log:        logger.With().Str("component", "hub").Logger(),
		directory:  directory,
		sessions:   make(map[*Session]struct{}),
		rooms:      make(map[string]*Room),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		commands:   make(chan sessionCommand, 64),
	}
}

// Directory exposes the presence directory for read-only consumers.
func (h *Hub) Directory() *Directory {
	return h.directory
}

// RegisterSession attaches a new connection to the hub.
func (h *Hub) RegisterSession(s *Session) {
	h.register <- s
}

// UnregisterSession detaches a connection, purging its routing state.
func (h *Hub) UnregisterSession(s *Session) {
	h.unregister <- s
}

// Run processes registrations and commands until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.register:
			h.addSession(ctx, s)
		case s := <-h.unregister:
			h.removeSession(s)
		case sc := <-h.commands:
			h.dispatch(sc.session, sc.cmd)
		}
	}
}

func (h *Hub) addSession(ctx context.Context, s *Session) {
	h.sessions[s] = struct{}{}
	h.joinRoom(s, proto.GlobalRoom)
	go h.pump(ctx, s)
	h.log.Debug().Str("session_id", s.ID).Msg("session attached")
}

// pump forwards a session's commands into the hub loop so that all
// state mutations stay on the Run goroutine.
func (h *Hub) pump(ctx context.Context, s *Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-s.Commands:
			if !ok {
				return
			}
			select {
			case h.commands <- sessionCommand{session: s, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Hub) dispatch(s *Session, cmd *Command) {
	// Commands may still be buffered when a session is torn down; a
	// detached session must not re-enter routing state.
	if _, ok := h.sessions[s]; !ok {
		return
	}
	switch cmd.Kind {
	case CommandRegister:
		h.handleRegister(s, cmd.Identity)
	case CommandJoinRoom:
		h.joinRoom(s, cmd.Room)
	case CommandSendMessage:
		h.handleSendMessage(s, cmd.Message)
	case CommandSendAudio:
		if cmd.Message != nil {
			h.relayToRoom(s, cmd.Message.RoomID, &Event{Kind: EventAudio, Room: cmd.Message.RoomID, Message: cmd.Message})
		}
	case CommandSendSticker:
		if cmd.Message != nil {
			h.relayToRoom(s, cmd.Message.RoomID, &Event{Kind: EventSticker, Room: cmd.Message.RoomID, Message: cmd.Message})
		}
	case CommandReact:
		if cmd.Reaction != nil {
			h.relayToRoom(s, cmd.Reaction.RoomID, &Event{Kind: EventReaction, Room: cmd.Reaction.RoomID, Reaction: cmd.Reaction})
		}
	case CommandEdit:
		if cmd.Edit != nil {
			h.relayToRoom(s, cmd.Edit.RoomID, &Event{Kind: EventEdited, Room: cmd.Edit.RoomID, Edit: cmd.Edit})
		}
	case CommandTyping:
		if cmd.Typing != nil {
			h.relayToRoom(s, cmd.Typing.RoomID, &Event{Kind: EventTyping, Room: cmd.Typing.RoomID, Typing: cmd.Typing})
		}
	case CommandStopTyping:
		if cmd.Typing != nil {
			h.relayToRoom(s, cmd.Typing.RoomID, &Event{Kind: EventStopTyping, Room: cmd.Typing.RoomID, Typing: cmd.Typing})
		}
	case CommandReadReceipt:
		h.handleReadReceipt(cmd.Receipt)
	case CommandClearChat:
		h.handleClearChat(cmd.Room)
	case CommandUpdateProfile:
		h.handleUpdateProfile(s, cmd.Profile)
	default:
		h.log.Debug().Int("kind", int(cmd.Kind)).Msg("unknown command dropped")
	}
}

// handleRegister binds the session to a user name, last writer wins.
// A full profile additionally goes into the directory and is announced
// to everyone else; a bare name registers routing only.
func (h *Hub) handleRegister(s *Session, id proto.Identity) {
	if id.Name == "" {
		h.log.Debug().Str("session_id", s.ID).Msg("register without a name dropped")
		return
	}

	// A rename on a live connection releases the old binding; leaving
	// it would keep the stale name online and route its directed
	// events to this session.
	if s.Name != "" && s.Name != id.Name && h.directory.Release(s.Name, s) {
		h.broadcastAll(&Event{Kind: EventUserDisconnected, Name: s.Name}, s)
	}

	s.Name = id.Name
	h.directory.Bind(id.Name, s)

	if !id.Full() {
		return
	}
	h.directory.SetProfile(*id.Profile)
	h.broadcastAll(&Event{Kind: EventUserConnected, User: id.Profile}, s)
	h.log.Info().Str("user", id.Name).Msg("user registered")
}

// joinRoom is idempotent; any session may join any room id.
func (h *Hub) joinRoom(s *Session, roomID string) {
	if roomID == "" {
		return
	}

	room, ok := h.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		h.rooms[roomID] = room
	}
	if room.Add(s) {
		s.rooms[roomID] = struct{}{}
	}
}

// handleSendMessage relays to the room excluding the sender, then acks
// delivery back to the sender when the addressed recipient is online.
// Global sends carry no recipient and produce no ack.
func (h *Hub) handleSendMessage(s *Session, msg *proto.Message) {
	if msg == nil {
		return
	}
	if !h.relayToRoom(s, msg.RoomID, &Event{Kind: EventMessage, Room: msg.RoomID, Message: msg}) {
		return
	}

	if msg.To == "" {
		return
	}
	if h.directory.Lookup(msg.To) == nil {
		h.log.Debug().Str("to", msg.To).Msg("recipient offline, no delivery ack")
		return
	}
	s.send(&Event{
		Kind:    EventDelivered,
		Room:    msg.RoomID,
		Receipt: &proto.Receipt{ID: msg.ID, RoomID: msg.RoomID},
	})
}

// relayToRoom fans an event out to the room excluding the sender.
// Events without a room id are dropped silently.
func (h *Hub) relayToRoom(s *Session, roomID string, ev *Event) bool {
	if roomID == "" {
		h.log.Debug().Str("session_id", s.ID).Msg("room event without roomId dropped")
		return false
	}
	if room, ok := h.rooms[roomID]; ok {
		room.Broadcast(ev, s)
	}
	return true
}

// handleReadReceipt forwards the receipt directly to the author's
// session; an unknown name is a silent no-op.
func (h *Hub) handleReadReceipt(rcpt *proto.Receipt) {
	if rcpt == nil || rcpt.UserName == "" {
		return
	}
	target := h.directory.Lookup(rcpt.UserName)
	if target == nil {
		return
	}
	target.send(&Event{Kind: EventRead, Room: rcpt.RoomID, Receipt: rcpt})
}

// handleClearChat tells the whole room, sender included, to wipe its
// local log. There is no server-side log to clear.
func (h *Hub) handleClearChat(roomID string) {
	if roomID == "" {
		return
	}
	if room, ok := h.rooms[roomID]; ok {
		room.Broadcast(&Event{Kind: EventCleared, Room: roomID}, nil)
	}
}

func (h *Hub) handleUpdateProfile(s *Session, u *proto.User) {
	if u == nil || u.Name == "" {
		return
	}
	h.directory.SetProfile(*u)
	h.broadcastAll(&Event{Kind: EventProfileUpdated, User: u}, s)
}

func (h *Hub) broadcastAll(ev *Event, except *Session) {
	for s := range h.sessions {
		if s == except {
			continue
		}
		s.send(ev)
	}
}

// removeSession purges routing state for a closed connection and
// announces the user offline, unless a later registration under the
// same name already superseded this session.
func (h *Hub) removeSession(s *Session) {
	if _, ok := h.sessions[s]; !ok {
		return
	}
	delete(h.sessions, s)

	for roomID := range s.rooms {
		if room, ok := h.rooms[roomID]; ok {
			room.Remove(s)
			if room.Empty() {
				delete(h.rooms, roomID)
			}
		}
	}

	if s.Name != "" && h.directory.Release(s.Name, s) {
		h.broadcastAll(&Event{Kind: EventUserDisconnected, Name: s.Name}, s)
		h.log.Info().Str("user", s.Name).Msg("user disconnected")
	}
	h.log.Debug().Str("session_id", s.ID).Msg("session detached")
}
