package relay

import "github.com/convosphere/convosphere-server/internal/proto"

// CommandKind describes what a session wants the relay to do.
type CommandKind int

const (
	// CommandRegister binds the session to a user identity.
	CommandRegister CommandKind = iota
	// CommandJoinRoom subscribes the session to a room.
	CommandJoinRoom
	// CommandSendMessage relays a text/media message to a room.
	CommandSendMessage
	// CommandSendAudio relays an audio message to a room.
	CommandSendAudio
	// CommandSendSticker relays a sticker to a room.
	CommandSendSticker
	// CommandReact relays a reaction to a room.
	CommandReact
	// CommandEdit relays a message edit to a room.
	CommandEdit
	// CommandReadReceipt forwards a read receipt to the message author.
	CommandReadReceipt
	// CommandTyping relays a typing indicator to a room.
	CommandTyping
	// CommandStopTyping relays the end of a typing indicator.
	CommandStopTyping
	// CommandClearChat asks a whole room to wipe its local logs.
	CommandClearChat
	// CommandUpdateProfile stores and fans out a profile change.
	CommandUpdateProfile
)

// Command is an action requested by a session. Exactly one payload
// field matching the kind is set.
type Command struct {
	Kind     CommandKind
	Identity proto.Identity
	Room     string
	Message  *proto.Message
	Reaction *proto.Reaction
	Edit     *proto.Edit
	Receipt  *proto.Receipt
	Typing   *proto.TypingInfo
	Profile  *proto.User
}
