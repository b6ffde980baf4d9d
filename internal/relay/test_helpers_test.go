package relay

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/convosphere/convosphere-server/internal/proto"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	logger := zerolog.Nop()
	hub := NewHub(NewDirectory(), &logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return hub
}

// attach registers a session under the given name with a full profile.
func attach(t *testing.T, hub *Hub, id, name string) *Session {
	t.Helper()

	s := NewSession(id)
	hub.RegisterSession(s)
	s.Commands <- &Command{
		Kind:     CommandRegister,
		Identity: proto.Identity{Name: name, Profile: &proto.User{Name: name, DisplayName: name}},
	}
	return s
}

var flushSeq int64

// flush pushes a self-addressed read receipt through the hub and waits
// for it to come back, guaranteeing every command the session queued
// earlier has been processed. The name the session registered under is
// passed explicitly so the helper never reads s.Name, which belongs to
// the hub goroutine. Events received before the marker are returned
// for inspection.
func flush(t *testing.T, s *Session, name string) []*Event {
	t.Helper()

	marker := atomic.AddInt64(&flushSeq, -1)
	s.Commands <- &Command{
		Kind:    CommandReadReceipt,
		Receipt: &proto.Receipt{ID: marker, RoomID: proto.GlobalRoom, UserName: name},
	}

	var seen []*Event
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-s.Events:
			if ev.Kind == EventRead && ev.Receipt != nil && ev.Receipt.ID == marker {
				return seen
			}
			seen = append(seen, ev)
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatal("flush marker never came back")
	return nil
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func hasKind(events []*Event, kind EventKind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}
