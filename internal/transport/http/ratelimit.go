package http

import (
	"sync"
	"time"
)

// rateLimiter caps how many inbound frames a single connection may
// push per minute. The window resets wholesale rather than sliding,
// which is crude but plenty for keeping one misbehaving client from
// monopolizing the hub.
type rateLimiter struct {
	mx    sync.Mutex
	limit int
	count int
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{limit: limit}
}

// allow reports whether one more frame fits in the current window.
// A non-positive limit disables limiting.
func (rl *rateLimiter) allow() bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mx.Lock()
	defer rl.mx.Unlock()
	if rl.count >= rl.limit {
		return false
	}
	rl.count++
	return true
}

// startReset clears the window every minute until stop is closed.
func (rl *rateLimiter) startReset(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				rl.mx.Lock()
				rl.count = 0
				rl.mx.Unlock()
			}
		}
	}()
}
