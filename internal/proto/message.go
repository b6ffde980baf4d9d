package proto

import "encoding/json"

// GlobalRoom is the implicit room every session belongs to.
const GlobalRoom = "global"

// User is a profile snapshot as it travels on the wire.
type User struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Admin       bool   `json:"admin,omitempty"`
}

// ReplyRef is a frozen snapshot of the message being replied to.
// Later edits to the original do not propagate into it.
type ReplyRef struct {
	ID   int64  `json:"id"`
	User User   `json:"user"`
	Text string `json:"text"`
}

// Message is a chat message. Ids are client-generated millisecond
// timestamps; uniqueness is best-effort under clock skew.
type Message struct {
	RoomID    string              `json:"roomId"`
	ID        int64               `json:"id"`
	Text      string              `json:"text,omitempty"`
	Image     string              `json:"image,omitempty"`
	Audio     string              `json:"audio,omitempty"`
	Sticker   string              `json:"sticker,omitempty"`
	User      User                `json:"user"`
	ReplyTo   *ReplyRef           `json:"replyTo,omitempty"`
	Reactions map[string][]string `json:"reactions,omitempty"`
	Edited    bool                `json:"edited,omitempty"`
	Status    Status              `json:"status,omitempty"`
	To        string              `json:"to,omitempty"`
	CreatedAt string              `json:"createdAt,omitempty"`
}

// HasMedia reports whether the message carries a non-text payload.
func (m *Message) HasMedia() bool {
	return m.Image != "" || m.Audio != "" || m.Sticker != ""
}

// Reaction toggles an emoji on a message. Reactors only accumulate;
// the protocol has no removal event.
type Reaction struct {
	RoomID   string `json:"roomId"`
	ID       int64  `json:"id"`
	Emoji    string `json:"emoji"`
	UserName string `json:"userName"`
}

// Edit replaces a message's text and marks it edited.
type Edit struct {
	RoomID  string `json:"roomId"`
	ID      int64  `json:"id"`
	NewText string `json:"newText"`
}

// Receipt is a delivery or read acknowledgment for a single message.
// UserName is set on read receipts and names the original author.
type Receipt struct {
	ID       int64  `json:"id"`
	RoomID   string `json:"roomId"`
	UserName string `json:"userName,omitempty"`
}

// TypingInfo signals that a user started or stopped typing in a room.
type TypingInfo struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

// ClearInfo asks every member of a room to wipe its local log.
type ClearInfo struct {
	RoomID string `json:"roomId"`
}

// Presence announces a user going offline.
type Presence struct {
	Name string `json:"name"`
}

// JoinInfo requests membership in a room.
type JoinInfo struct {
	RoomID string `json:"roomId"`
}

func (j *JoinInfo) UnmarshalJSON(data []byte) error {
	// Tolerate both a bare room id string and an object.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		j.RoomID = s
		return nil
	}
	type alias JoinInfo
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*j = JoinInfo(a)
	return nil
}
