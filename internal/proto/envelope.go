package proto

import "encoding/json"

// Inbound is the envelope for events coming from a client.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is the envelope for events sent to a client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Events a client may send to the relay.
const (
	EventRegisterUser   = "register_user"
	EventJoinRoom       = "join_room"
	EventSendMessage    = "send_message"
	EventSendAudio      = "send_audio"
	EventSendSticker    = "send_sticker"
	EventReactMessage   = "react_message"
	EventEditMessage    = "edit_message"
	EventMessageRead    = "message_read"
	EventTyping         = "typing"
	EventStopTyping     = "stop_typing"
	EventClearChat      = "clear_chat"
	EventProfileUpdated = "profile_updated"
)

// Events the relay sends to clients.
const (
	EventReceiveMessage     = "receive_message"
	EventReceiveAudio       = "receive_audio"
	EventReceiveSticker     = "receive_sticker"
	EventMessageReaction    = "message_reaction"
	EventMessageEdited      = "message_edited"
	EventMessageDelivered   = "message_delivered"
	EventChatCleared        = "chat_cleared"
	EventUserConnected      = "user_connected"
	EventUserDisconnected   = "user_disconnected"
	EventUserProfileUpdated = "user_profile_updated"
)
