package client

import (
	"strings"

	"github.com/convosphere/convosphere-server/internal/proto"
)

const dmSeparator = "--"

// DMRoomID derives the deterministic room id for a direct conversation:
// both participant names sorted lexicographically and joined, so either
// side computes the same id. Degenerate pairs (empty or equal names)
// collapse to the global room.
func DMRoomID(a, b string) string {
	if a == "" || b == "" || a == b {
		return proto.GlobalRoom
	}
	if a > b {
		a, b = b, a
	}
	return a + dmSeparator + b
}

// PeerName extracts the other participant from a DM room id. Returns
// empty for the global room or ids that do not mention self.
func PeerName(roomID, self string) string {
	if roomID == proto.GlobalRoom {
		return ""
	}
	for _, name := range strings.Split(roomID, dmSeparator) {
		if name != self {
			return name
		}
	}
	return ""
}
