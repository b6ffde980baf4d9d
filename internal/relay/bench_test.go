package relay

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/convosphere/convosphere-server/internal/proto"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := zerolog.Nop()
	hub := NewHub(NewDirectory(), &logger)
	go hub.Run(ctx)

	sender := NewSession("sender")
	hub.RegisterSession(sender)
	sender.Commands <- &Command{
		Kind:     CommandRegister,
		Identity: proto.Identity{Name: "sender"},
	}

	receivers := make([]*Session, 0, recipients)
	for i := range recipients {
		s := NewSession(fmt.Sprintf("r%d", i))
		hub.RegisterSession(s)
		receivers = append(receivers, s)
	}

	// Drain events for all but the first recipient to avoid channel
	// backpressure.
	target := receivers[0]
	for _, s := range receivers[1:] {
		go func(sess *Session) {
			for range sess.Events {
			}
		}(s)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{
			Kind:    CommandSendMessage,
			Message: &proto.Message{RoomID: proto.GlobalRoom, ID: int64(i), Text: "payload", User: proto.User{Name: "sender"}},
		}
		<-target.Events
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
