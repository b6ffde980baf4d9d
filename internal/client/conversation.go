package client

import (
	"encoding/json"

	"github.com/convosphere/convosphere-server/internal/proto"
)

// Conversation is one room's local message log: insertion-ordered, with
// an id index so edits, reactions and status updates are O(1) lookups
// instead of linear scans.
type Conversation struct {
	messages []*proto.Message
	index    map[int64]int
}

// NewConversation constructs an empty log.
func NewConversation() *Conversation {
	return &Conversation{index: make(map[int64]int)}
}

// Append adds a message at the tail. Returns false if the id is
// already present.
func (c *Conversation) Append(m *proto.Message) bool {
	if _, exists := c.index[m.ID]; exists {
		return false
	}
	c.index[m.ID] = len(c.messages)
	c.messages = append(c.messages, m)
	return true
}

// Get returns the message with the given id, or nil.
func (c *Conversation) Get(id int64) *proto.Message {
	pos, ok := c.index[id]
	if !ok {
		return nil
	}
	return c.messages[pos]
}

// Remove deletes the message with the given id, preserving order.
func (c *Conversation) Remove(id int64) bool {
	pos, ok := c.index[id]
	if !ok {
		return false
	}
	c.messages = append(c.messages[:pos], c.messages[pos+1:]...)
	delete(c.index, id)
	for i := pos; i < len(c.messages); i++ {
		c.index[c.messages[i].ID] = i
	}
	return true
}

// Clear wipes the log.
func (c *Conversation) Clear() {
	c.messages = nil
	c.index = make(map[int64]int)
}

// Len returns the number of messages in the log.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Messages returns the log in insertion order. The slice is shared;
// callers must not mutate it.
func (c *Conversation) Messages() []*proto.Message {
	return c.messages
}

// Last returns the most recent message, or nil for an empty log.
func (c *Conversation) Last() *proto.Message {
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

// MarshalJSON serializes the log as a plain message array, the same
// shape the browser client kept in localStorage.
func (c *Conversation) MarshalJSON() ([]byte, error) {
	if c.messages == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.messages)
}

// UnmarshalJSON restores the log and rebuilds the id index. Duplicate
// ids keep the earliest entry.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var messages []*proto.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return err
	}

	c.messages = nil
	c.index = make(map[int64]int)
	for _, m := range messages {
		c.Append(m)
	}
	return nil
}
