package http

import (
	"encoding/json"

	"github.com/convosphere/convosphere-server/internal/proto"
	"github.com/convosphere/convosphere-server/internal/relay"
)

// inboundToCommand translates a wire envelope into a relay command.
// A nil command with a nil error means the event is unknown and should
// be ignored; a non-nil error means the payload did not decode.
func inboundToCommand(in proto.Inbound) (*relay.Command, error) {
	switch in.Event {
	case proto.EventRegisterUser:
		var id proto.Identity
		if err := json.Unmarshal(in.Data, &id); err != nil {
			return nil, err
		}
		return &relay.Command{Kind: relay.CommandRegister, Identity: id}, nil

	case proto.EventJoinRoom:
		var info proto.JoinInfo
		if err := json.Unmarshal(in.Data, &info); err != nil {
			return nil, err
		}
		return &relay.Command{Kind: relay.CommandJoinRoom, Room: info.RoomID}, nil

	case proto.EventSendMessage, proto.EventSendAudio, proto.EventSendSticker:
		var msg proto.Message
		if err := json.Unmarshal(in.Data, &msg); err != nil {
			return nil, err
		}
		kind := relay.CommandSendMessage
		switch in.Event {
		case proto.EventSendAudio:
			kind = relay.CommandSendAudio
		case proto.EventSendSticker:
			kind = relay.CommandSendSticker
		}
		return &relay.Command{Kind: kind, Message: &msg}, nil

	case proto.EventReactMessage:
		var r proto.Reaction
		if err := json.Unmarshal(in.Data, &r); err != nil {
			return nil, err
		}
		return &relay.Command{Kind: relay.CommandReact, Reaction: &r}, nil

	case proto.EventEditMessage:
		var e proto.Edit
		if err := json.Unmarshal(in.Data, &e); err != nil {
			return nil, err
		}
		return &relay.Command{Kind: relay.CommandEdit, Edit: &e}, nil

	case proto.EventMessageRead:
		var rcpt proto.Receipt
		if err := json.Unmarshal(in.Data, &rcpt); err != nil {
			return nil, err
		}
		return &relay.Command{Kind: relay.CommandReadReceipt, Receipt: &rcpt}, nil

	case proto.EventTyping, proto.EventStopTyping:
		var t proto.TypingInfo
		if err := json.Unmarshal(in.Data, &t); err != nil {
			return nil, err
		}
		kind := relay.CommandTyping
		if in.Event == proto.EventStopTyping {
			kind = relay.CommandStopTyping
		}
		return &relay.Command{Kind: kind, Typing: &t}, nil

	case proto.EventClearChat:
		var info proto.ClearInfo
		if err := json.Unmarshal(in.Data, &info); err != nil {
			return nil, err
		}
		return &relay.Command{Kind: relay.CommandClearChat, Room: info.RoomID}, nil

	case proto.EventProfileUpdated:
		var u proto.User
		if err := json.Unmarshal(in.Data, &u); err != nil {
			return nil, err
		}
		return &relay.Command{Kind: relay.CommandUpdateProfile, Profile: &u}, nil
	}

	return nil, nil
}

// outboundFromEvent translates a relay event into a wire envelope.
// Returns false for event kinds with no wire representation.
func outboundFromEvent(ev *relay.Event) (proto.Outbound, bool) {
	switch ev.Kind {
	case relay.EventMessage:
		return proto.Outbound{Event: proto.EventReceiveMessage, Data: ev.Message}, true
	case relay.EventAudio:
		return proto.Outbound{Event: proto.EventReceiveAudio, Data: ev.Message}, true
	case relay.EventSticker:
		return proto.Outbound{Event: proto.EventReceiveSticker, Data: ev.Message}, true
	case relay.EventReaction:
		return proto.Outbound{Event: proto.EventMessageReaction, Data: ev.Reaction}, true
	case relay.EventEdited:
		return proto.Outbound{Event: proto.EventMessageEdited, Data: ev.Edit}, true
	case relay.EventDelivered:
		return proto.Outbound{Event: proto.EventMessageDelivered, Data: ev.Receipt}, true
	case relay.EventRead:
		return proto.Outbound{Event: proto.EventMessageRead, Data: ev.Receipt}, true
	case relay.EventTyping:
		return proto.Outbound{Event: proto.EventTyping, Data: ev.Typing}, true
	case relay.EventStopTyping:
		return proto.Outbound{Event: proto.EventStopTyping, Data: ev.Typing}, true
	case relay.EventCleared:
		return proto.Outbound{Event: proto.EventChatCleared, Data: proto.ClearInfo{RoomID: ev.Room}}, true
	case relay.EventUserConnected:
		return proto.Outbound{Event: proto.EventUserConnected, Data: ev.User}, true
	case relay.EventUserDisconnected:
		return proto.Outbound{Event: proto.EventUserDisconnected, Data: proto.Presence{Name: ev.Name}}, true
	case relay.EventProfileUpdated:
		return proto.Outbound{Event: proto.EventUserProfileUpdated, Data: ev.User}, true
	}
	return proto.Outbound{}, false
}
