package relay

// Session is one live client connection as the relay sees it.
// Name stays empty until the client registers. All fields besides the
// channels are touched only by the hub goroutine.
type Session struct {
	ID       string
	Name     string
	Commands chan *Command
	Events   chan *Event
	rooms    map[string]struct{}
}

// NewSession constructs a session with initialized channels.
func NewSession(id string) *Session {
	return &Session{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 16),
		rooms:    make(map[string]struct{}),
	}
}

// send queues an event for the session, dropping it if the consumer
// is too slow. Delivery is best-effort by design.
func (s *Session) send(ev *Event) bool {
	select {
	case s.Events <- ev:
		return true
	default:
		return false
	}
}
