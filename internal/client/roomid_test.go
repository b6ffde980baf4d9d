package client

import "testing"

func TestDMRoomIDSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"bob", "alice"},
		{"zoe", "adam"},
		{"a", "b"},
	}
	for _, p := range pairs {
		if got, want := DMRoomID(p[0], p[1]), DMRoomID(p[1], p[0]); got != want {
			t.Fatalf("roomId(%q,%q)=%q but roomId(%q,%q)=%q", p[0], p[1], got, p[1], p[0], want)
		}
	}

	if got := DMRoomID("alice", "bob"); got != "alice--bob" {
		t.Fatalf("expected alice--bob, got %q", got)
	}
	if got := DMRoomID("bob", "alice"); got != "alice--bob" {
		t.Fatalf("expected alice--bob regardless of initiator, got %q", got)
	}
}

func TestDMRoomIDDegeneratePairsCollapseToGlobal(t *testing.T) {
	cases := [][2]string{
		{"", "bob"},
		{"alice", ""},
		{"", ""},
		{"alice", "alice"},
	}
	for _, c := range cases {
		if got := DMRoomID(c[0], c[1]); got != "global" {
			t.Fatalf("roomId(%q,%q)=%q, want global", c[0], c[1], got)
		}
	}
}

func TestPeerName(t *testing.T) {
	if got := PeerName("alice--bob", "alice"); got != "bob" {
		t.Fatalf("peer of alice in alice--bob = %q", got)
	}
	if got := PeerName("alice--bob", "bob"); got != "alice" {
		t.Fatalf("peer of bob in alice--bob = %q", got)
	}
	if got := PeerName("global", "alice"); got != "" {
		t.Fatalf("global room has no peer, got %q", got)
	}
}
