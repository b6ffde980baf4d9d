package relay

import "github.com/convosphere/convosphere-server/internal/proto"

// EventKind is a notification the relay emits to sessions.
type EventKind int

const (
	// EventMessage carries a relayed chat message.
	EventMessage EventKind = iota
	// EventAudio carries a relayed audio message.
	EventAudio
	// EventSticker carries a relayed sticker.
	EventSticker
	// EventReaction carries a relayed reaction.
	EventReaction
	// EventEdited carries a relayed message edit.
	EventEdited
	// EventDelivered acknowledges delivery to the original sender.
	EventDelivered
	// EventRead forwards a read receipt to the original sender.
	EventRead
	// EventTyping signals a user started typing in a room.
	EventTyping
	// EventStopTyping signals a user stopped typing in a room.
	EventStopTyping
	// EventCleared asks the receiving client to wipe a room log.
	EventCleared
	// EventUserConnected announces a user coming online with a profile.
	EventUserConnected
	// EventUserDisconnected announces a user going offline.
	EventUserDisconnected
	// EventProfileUpdated announces a profile change.
	EventProfileUpdated
)

// Event is sent to sessions to describe what happened.
type Event struct {
	Kind     EventKind
	Room     string
	Message  *proto.Message
	Reaction *proto.Reaction
	Edit     *proto.Edit
	Receipt  *proto.Receipt
	Typing   *proto.TypingInfo
	User     *proto.User
	Name     string
}
