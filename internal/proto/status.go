package proto

// Status is the delivery state of a message as one client sees it.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

var statusRank = map[Status]int{
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// Rank orders statuses; unknown values rank below sent.
func (s Status) Rank() int {
	return statusRank[s]
}

// Merge advances cur to next only if next is strictly later.
// Once read, a delivered ack must not move the status backward.
func (s Status) Merge(next Status) Status {
	if next.Rank() > s.Rank() {
		return next
	}
	return s
}
