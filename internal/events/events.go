// Package events carries door traffic over the message bus.
//
// Each supervised door uses three subjects: a request subject consumed by
// the bridge, a state subject carrying encoded snapshots, and a diagnostic
// subject for rejected requests. Payloads are opaque bytes here; the codec
// package owns the wire format.
package events

import "context"

// Subject suffixes under "doors.<door>.".
const (
	suffixRequests = "requests"
	suffixState    = "state"
	suffixRejected = "rejected"
)

// RequestSubject returns the subject the bridge consumes door requests from.
func RequestSubject(door string) string {
	return "doors." + door + "." + suffixRequests
}

// StateSubject returns the subject state snapshots are published to.
func StateSubject(door string) string {
	return "doors." + door + "." + suffixState
}

// RejectedSubject returns the diagnostic subject for rejected requests.
func RejectedSubject(door string) string {
	return "doors." + door + "." + suffixRejected
}

// Publisher is the interface for emitting payloads to the bus.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// Subscriber receives payloads from the bus.
type Subscriber interface {
	// Subscribe delivers raw payloads on the returned channel. Call the
	// returned cancel function to unsubscribe and close the channel.
	Subscribe(subject string) (<-chan []byte, func(), error)
	Close() error
}

// NoopPublisher is a Publisher that does nothing (used when NATS is not configured).
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
