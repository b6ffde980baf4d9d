package proto

import (
	"encoding/json"
	"testing"
)

func TestIdentityDecodeBareName(t *testing.T) {
	var id Identity
	if err := json.Unmarshal([]byte(`"alice"`), &id); err != nil {
		t.Fatalf("unmarshal bare name: %v", err)
	}
	if id.Name != "alice" {
		t.Fatalf("unexpected name: %q", id.Name)
	}
	if id.Full() {
		t.Fatal("bare name must not count as a full profile")
	}
	if got := id.User(); got.Name != "alice" || got.DisplayName != "" {
		t.Fatalf("expected minimal identity, got %+v", got)
	}
}

func TestIdentityDecodeProfileObject(t *testing.T) {
	raw := []byte(`{"name":"bob","displayName":"Bob","avatar":"xx","admin":true}`)

	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		t.Fatalf("unmarshal profile: %v", err)
	}
	if !id.Full() {
		t.Fatal("profile object must count as full")
	}
	if id.Name != "bob" || id.Profile.DisplayName != "Bob" || !id.Profile.Admin {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestIdentityMarshalRoundTrip(t *testing.T) {
	orig := Identity{Name: "carol", Profile: &User{Name: "carol", DisplayName: "Carol"}}

	raw, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Identity
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Full() || back.Profile.DisplayName != "Carol" {
		t.Fatalf("round trip lost profile: %+v", back)
	}
}

func TestJoinInfoAcceptsStringAndObject(t *testing.T) {
	var fromString JoinInfo
	if err := json.Unmarshal([]byte(`"alice--bob"`), &fromString); err != nil {
		t.Fatalf("unmarshal string form: %v", err)
	}
	if fromString.RoomID != "alice--bob" {
		t.Fatalf("unexpected room: %q", fromString.RoomID)
	}

	var fromObject JoinInfo
	if err := json.Unmarshal([]byte(`{"roomId":"global"}`), &fromObject); err != nil {
		t.Fatalf("unmarshal object form: %v", err)
	}
	if fromObject.RoomID != "global" {
		t.Fatalf("unexpected room: %q", fromObject.RoomID)
	}
}
