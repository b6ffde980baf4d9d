package relay

import (
	"testing"

	"github.com/convosphere/convosphere-server/internal/proto"
)

func TestDirectoryLastWriterWins(t *testing.T) {
	d := NewDirectory()
	s1 := NewSession("s1")
	s2 := NewSession("s2")

	d.Bind("alice", s1)
	d.Bind("alice", s2)

	if d.Lookup("alice") != s2 {
		t.Fatal("later bind must supersede the earlier session")
	}

	// The orphaned session cannot purge its successor.
	if d.Release("alice", s1) {
		t.Fatal("release by a superseded session must be refused")
	}
	if d.Lookup("alice") != s2 {
		t.Fatal("binding lost after refused release")
	}

	if !d.Release("alice", s2) {
		t.Fatal("release by the current session must succeed")
	}
	if d.Lookup("alice") != nil {
		t.Fatal("binding survived release")
	}
}

func TestDirectoryProfileFallback(t *testing.T) {
	d := NewDirectory()

	if got := d.Profile("mystery"); got.Name != "mystery" || got.DisplayName != "" {
		t.Fatalf("expected minimal identity fallback, got %+v", got)
	}

	d.SetProfile(proto.User{Name: "bob", DisplayName: "Bob", Avatar: "pic"})
	if got := d.Profile("bob"); got.DisplayName != "Bob" {
		t.Fatalf("stored profile not returned: %+v", got)
	}
}

func TestDirectoryOnlineListing(t *testing.T) {
	d := NewDirectory()
	d.Bind("zoe", NewSession("s1"))
	d.Bind("adam", NewSession("s2"))
	d.SetProfile(proto.User{Name: "zoe", DisplayName: "Zoe"})

	online := d.Online()
	if len(online) != 2 {
		t.Fatalf("expected 2 online users, got %d", len(online))
	}
	if online[0].Name != "adam" || online[1].Name != "zoe" {
		t.Fatalf("listing not sorted by name: %+v", online)
	}
	if online[1].DisplayName != "Zoe" {
		t.Fatalf("profile not merged into listing: %+v", online[1])
	}
}
