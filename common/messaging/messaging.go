// Package messaging provides abstractions for the agent message bus.
// It defines the interfaces agents use to exchange typed messages without
// being coupled to a specific broker implementation.
package messaging

import (
	"context"
	"time"
)

// Message represents a message received from or sent to the bus.
type Message struct {
	// Subject is the topic the message was published to.
	Subject string

	// Data is the raw message payload (JSON-encoded chat or task records).
	Data []byte

	// Reply is an optional subject for request/reply correlation.
	// When set, the receiving agent publishes its response there.
	Reply string

	// Metadata contains optional key-value pairs for message headers.
	// Agents use it to carry the sender address.
	Metadata map[string]string

	// Timestamp is when the message was received.
	Timestamp time.Time
}

// Sender returns the sending agent's address from the message headers,
// or empty string when the sender did not identify itself.
func (m *Message) Sender() string {
	if m.Metadata == nil {
		return ""
	}
	return m.Metadata[HeaderSender]
}

// HeaderSender is the metadata key carrying the sending agent's address.
const HeaderSender = "Vocal-Sender"

// MessageHandler processes a received message. Returning an error indicates
// a processing failure; the bus implementation logs it.
type MessageHandler func(ctx context.Context, msg *Message) error

// Subscription represents an active subscription to a subject.
type Subscription interface {
	// Unsubscribe stops receiving messages on this subscription.
	Unsubscribe() error

	// Subject returns the subject this subscription is listening to.
	Subject() string

	// IsValid returns true if the subscription is still active.
	IsValid() bool
}

// Publisher publishes messages to subjects.
type Publisher interface {
	// Publish sends a fire-and-forget message to the specified subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishMsg sends a Message with full control over reply and headers.
	PublishMsg(ctx context.Context, msg *Message) error

	// Request sends a message and waits for a response (request/reply).
	Request(ctx context.Context, subject string, data []byte, timeout time.Duration) (*Message, error)

	// Close releases any resources held by the publisher.
	Close() error
}

// Subscriber subscribes to messages on subjects.
type Subscriber interface {
	// Subscribe creates a fan-out subscription to the specified subject.
	Subscribe(subject string, handler MessageHandler) (Subscription, error)

	// QueueSubscribe creates a queue subscription. Messages are
	// load-balanced across subscribers in the same queue group, so an
	// agent can run replicated without double-handling requests.
	QueueSubscribe(subject, queue string, handler MessageHandler) (Subscription, error)

	// Close releases any resources and unsubscribes all active subscriptions.
	Close() error
}

// Client combines Publisher and Subscriber. Agents use Client for full
// bus capabilities.
type Client interface {
	Publisher
	Subscriber

	// Drain gracefully closes the connection, letting in-flight messages
	// complete.
	Drain() error

	// IsConnected returns true if the client is connected to the broker.
	IsConnected() bool
}
