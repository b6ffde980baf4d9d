package client

import (
	"encoding/json"
	"testing"

	"github.com/convosphere/convosphere-server/internal/proto"
)

func TestConversationAppendRejectsDuplicateIDs(t *testing.T) {
	c := NewConversation()

	if !c.Append(&proto.Message{ID: 1, Text: "a"}) {
		t.Fatal("first append refused")
	}
	if c.Append(&proto.Message{ID: 1, Text: "b"}) {
		t.Fatal("duplicate id accepted")
	}
	if c.Len() != 1 || c.Get(1).Text != "a" {
		t.Fatalf("log corrupted: %+v", c.Messages())
	}
}

func TestConversationRemoveKeepsIndexConsistent(t *testing.T) {
	c := NewConversation()
	for i := int64(1); i <= 4; i++ {
		c.Append(&proto.Message{ID: i})
	}

	if !c.Remove(2) {
		t.Fatal("remove failed")
	}
	if c.Remove(2) {
		t.Fatal("second remove of same id succeeded")
	}

	// Remaining messages must stay addressable by id after reindexing.
	for _, id := range []int64{1, 3, 4} {
		if got := c.Get(id); got == nil || got.ID != id {
			t.Fatalf("id %d lost after removal", id)
		}
	}
	if c.Len() != 3 || c.Messages()[1].ID != 3 {
		t.Fatalf("unexpected order after removal: %+v", c.Messages())
	}
}

func TestConversationJSONRoundTrip(t *testing.T) {
	c := NewConversation()
	c.Append(&proto.Message{ID: 10, Text: "hello", User: proto.User{Name: "alice"}})
	c.Append(&proto.Message{ID: 11, Text: "hi", User: proto.User{Name: "bob"}, Status: proto.StatusRead})

	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored := NewConversation()
	if err := json.Unmarshal(raw, restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", restored.Len())
	}
	if got := restored.Get(11); got == nil || got.Status != proto.StatusRead {
		t.Fatalf("status lost in round trip: %+v", got)
	}
	if restored.Messages()[0].ID != 10 {
		t.Fatal("insertion order lost in round trip")
	}
}

func TestEmptyConversationMarshalsAsArray(t *testing.T) {
	raw, err := json.Marshal(NewConversation())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("expected [], got %s", raw)
	}
}
