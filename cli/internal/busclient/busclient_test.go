package busclient

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocal-agents/vocal-stack/common/agentrt"
	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/messaging"
)

// fakeBus simulates an agent on the other side of the bus: on publish it
// acknowledges (optionally) and then replies.
type fakeBus struct {
	handlers map[string]messaging.MessageHandler
	ack      bool
	response chatproto.ChatResponse
	silent   bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string]messaging.MessageHandler)}
}

type fakeSub struct{ subject string }

func (s *fakeSub) Unsubscribe() error { return nil }
func (s *fakeSub) Subject() string    { return s.subject }
func (s *fakeSub) IsValid() bool      { return true }

func (f *fakeBus) Subscribe(subject string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	f.handlers[subject] = handler
	return &fakeSub{subject: subject}, nil
}

func (f *fakeBus) QueueSubscribe(subject, queue string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	return f.Subscribe(subject, handler)
}

func (f *fakeBus) PublishMsg(ctx context.Context, msg *messaging.Message) error {
	if f.silent {
		return nil
	}
	if f.ack {
		if ackSubject := msg.Metadata[agentrt.HeaderAckSubject]; ackSubject != "" {
			ack, _ := json.Marshal(chatproto.ChatAcknowledgement{})
			f.handlers[ackSubject](ctx, &messaging.Message{Subject: ackSubject, Data: ack})
		}
	}
	reply, _ := json.Marshal(f.response)
	f.handlers[msg.Reply](ctx, &messaging.Message{Subject: msg.Reply, Data: reply})
	return nil
}

func (f *fakeBus) Publish(ctx context.Context, subject string, data []byte) error { return nil }
func (f *fakeBus) Request(ctx context.Context, subject string, data []byte, timeout time.Duration) (*messaging.Message, error) {
	return nil, nil
}
func (f *fakeBus) Close() error      { return nil }
func (f *fakeBus) Drain() error      { return nil }
func (f *fakeBus) IsConnected() bool { return true }

func TestChatRoundTrip(t *testing.T) {
	bus := newFakeBus()
	bus.ack = true
	bus.response = chatproto.ChatResponse{Success: true, Text: "Hello back"}

	exchange, err := Chat(context.Background(), bus, "mailbox", chatproto.NewChatMessage("c1", "hello"), time.Second)
	require.NoError(t, err)
	assert.True(t, exchange.Acked)
	assert.Equal(t, "Hello back", exchange.Response.Text)
}

func TestChatWithoutAck(t *testing.T) {
	bus := newFakeBus()
	bus.response = chatproto.ChatResponse{Success: true, Text: "ok"}

	exchange, err := Chat(context.Background(), bus, "mailbox", chatproto.NewChatMessage("c1", "hello"), time.Second)
	require.NoError(t, err)
	assert.False(t, exchange.Acked)
}

func TestChatTimesOut(t *testing.T) {
	bus := newFakeBus()
	bus.silent = true

	_, err := Chat(context.Background(), bus, "mailbox", chatproto.NewChatMessage("c1", "hello"), 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not reply")
}
