package utils

import (
	"sync/atomic"
	"time"
)

var lastMessageID atomic.Int64

// MessageID returns a millisecond-timestamp message id, matching the
// ids browser clients generate. Uniqueness is best-effort across
// clients; within this process ids are forced strictly increasing so
// two sends in the same millisecond cannot collide locally.
func MessageID() int64 {
	for {
		id := time.Now().UnixMilli()
		prev := lastMessageID.Load()
		if id <= prev {
			id = prev + 1
		}
		if lastMessageID.CompareAndSwap(prev, id) {
			return id
		}
	}
}
