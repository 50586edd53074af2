package agentrt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/messaging"
)

type recordingBus struct {
	published  []busRecord
	subscribed []string
}

type busRecord struct {
	subject string
	data    []byte
}

type recordingSub struct{ subject string }

func (s recordingSub) Unsubscribe() error { return nil }
func (s recordingSub) Subject() string    { return s.subject }
func (s recordingSub) IsValid() bool      { return true }

func (b *recordingBus) Publish(ctx context.Context, subject string, data []byte) error {
	b.published = append(b.published, busRecord{subject: subject, data: data})
	return nil
}

func (b *recordingBus) PublishMsg(ctx context.Context, msg *messaging.Message) error {
	return b.Publish(ctx, msg.Subject, msg.Data)
}

func (b *recordingBus) Request(ctx context.Context, subject string, data []byte, timeout time.Duration) (*messaging.Message, error) {
	return nil, fmt.Errorf("not supported")
}

func (b *recordingBus) Subscribe(subject string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	b.subscribed = append(b.subscribed, subject)
	return recordingSub{subject: subject}, nil
}

func (b *recordingBus) QueueSubscribe(subject, queue string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	b.subscribed = append(b.subscribed, subject)
	return recordingSub{subject: subject}, nil
}

func (b *recordingBus) Close() error      { return nil }
func (b *recordingBus) Drain() error      { return nil }
func (b *recordingBus) IsConnected() bool { return true }

func (b *recordingBus) lastOn(subject string) []byte {
	for i := len(b.published) - 1; i >= 0; i-- {
		if b.published[i].subject == subject {
			return b.published[i].data
		}
	}
	return nil
}

func newTestAgent(t *testing.T, bus *recordingBus, opts Options) *Agent {
	t.Helper()
	if opts.Name == "" {
		opts.Name = "mailbox"
	}
	if opts.Seed == "" {
		opts.Seed = "test agent seed"
	}
	agent, err := New(bus, opts)
	require.NoError(t, err)
	return agent
}

func TestStartSubscribesAndAnnounces(t *testing.T) {
	bus := &recordingBus{}
	agent := newTestAgent(t, bus, Options{Capabilities: []string{"send_email"}})
	agent.OnChat(func(ctx context.Context, sender string, msg chatproto.ChatMessage) (string, error) {
		return "ok", nil
	})
	agent.OnTask(func(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
		return chatproto.TaskResult{Success: true}
	})

	require.NoError(t, agent.Start(context.Background()))
	defer agent.Stop()

	assert.Contains(t, bus.subscribed, messaging.ChatSubject("mailbox"))
	assert.Contains(t, bus.subscribed, messaging.TaskSubject("mailbox"))

	var ann chatproto.Announcement
	require.NoError(t, json.Unmarshal(bus.lastOn(messaging.SubjectAnnounce), &ann))
	assert.Equal(t, "mailbox", ann.Name)
	assert.Equal(t, agent.Address(), ann.Address)
	assert.Equal(t, []string{"send_email"}, ann.Capabilities)
}

func TestIntervalRunsUntilStop(t *testing.T) {
	bus := &recordingBus{}
	agent := newTestAgent(t, bus, Options{})
	agent.OnChat(func(ctx context.Context, sender string, msg chatproto.ChatMessage) (string, error) {
		return "", nil
	})

	var ticks atomic.Int64
	agent.OnInterval(5*time.Millisecond, func(ctx context.Context) {
		ticks.Add(1)
	})

	require.NoError(t, agent.Start(context.Background()))
	assert.Eventually(t, func() bool { return ticks.Load() >= 2 },
		time.Second, 5*time.Millisecond)
	require.NoError(t, agent.Stop())

	settled := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, ticks.Load())
}

func TestStartTwiceFails(t *testing.T) {
	bus := &recordingBus{}
	agent := newTestAgent(t, bus, Options{})
	agent.OnChat(func(ctx context.Context, sender string, msg chatproto.ChatMessage) (string, error) {
		return "", nil
	})

	require.NoError(t, agent.Start(context.Background()))
	defer agent.Stop()
	require.Error(t, agent.Start(context.Background()))
}

func TestHandleChatRepliesWithText(t *testing.T) {
	bus := &recordingBus{}
	agent := newTestAgent(t, bus, Options{})
	agent.OnChat(func(ctx context.Context, sender string, msg chatproto.ChatMessage) (string, error) {
		return "hello " + sender, nil
	})

	req := chatproto.NewChatMessage("conv-1", "hi")
	data, err := json.Marshal(req)
	require.NoError(t, err)

	msg := &messaging.Message{
		Data:     data,
		Reply:    "inbox.reply",
		Metadata: map[string]string{messaging.HeaderSender: "agent1caller"},
	}
	require.NoError(t, agent.handleChat(context.Background(), msg))

	var resp chatproto.ChatResponse
	require.NoError(t, json.Unmarshal(bus.lastOn("inbox.reply"), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "hello agent1caller", resp.Text)
	assert.Equal(t, req.MessageID, resp.InReplyTo)
	assert.Equal(t, "conv-1", resp.ConversationID)
}

func TestHandleChatAssignsConversationID(t *testing.T) {
	bus := &recordingBus{}
	agent := newTestAgent(t, bus, Options{})

	var seen string
	agent.OnChat(func(ctx context.Context, sender string, msg chatproto.ChatMessage) (string, error) {
		seen = msg.ConversationID
		return "ok", nil
	})

	data, err := json.Marshal(chatproto.ChatMessage{Text: "hi"})
	require.NoError(t, err)
	require.NoError(t, agent.handleChat(context.Background(), &messaging.Message{Data: data, Reply: "r"}))

	assert.NotEmpty(t, seen)

	var resp chatproto.ChatResponse
	require.NoError(t, json.Unmarshal(bus.lastOn("r"), &resp))
	assert.Equal(t, seen, resp.ConversationID)
}

func TestHandleChatPublishesAckWhenRequested(t *testing.T) {
	bus := &recordingBus{}
	agent := newTestAgent(t, bus, Options{})
	agent.OnChat(func(ctx context.Context, sender string, msg chatproto.ChatMessage) (string, error) {
		return "done", nil
	})

	req := chatproto.NewChatMessage("conv-1", "hi")
	data, err := json.Marshal(req)
	require.NoError(t, err)

	msg := &messaging.Message{
		Data:     data,
		Reply:    "inbox.reply",
		Metadata: map[string]string{HeaderAckSubject: "inbox.ack"},
	}
	require.NoError(t, agent.handleChat(context.Background(), msg))

	var ack chatproto.ChatAcknowledgement
	require.NoError(t, json.Unmarshal(bus.lastOn("inbox.ack"), &ack))
	assert.Equal(t, req.MessageID, ack.AckedMsgID)
}

func TestHandleChatRepliesErrorOnHandlerFailure(t *testing.T) {
	bus := &recordingBus{}
	agent := newTestAgent(t, bus, Options{})
	agent.OnChat(func(ctx context.Context, sender string, msg chatproto.ChatMessage) (string, error) {
		return "", fmt.Errorf("upstream unavailable")
	})

	data, err := json.Marshal(chatproto.NewChatMessage("conv-1", "hi"))
	require.NoError(t, err)
	require.NoError(t, agent.handleChat(context.Background(), &messaging.Message{Data: data, Reply: "r"}))

	var resp chatproto.ChatResponse
	require.NoError(t, json.Unmarshal(bus.lastOn("r"), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "upstream unavailable")
}

func TestHandleChatRateLimitsPerSender(t *testing.T) {
	bus := &recordingBus{}
	agent := newTestAgent(t, bus, Options{RateLimit: 1, RateLimitWindow: time.Minute})
	agent.OnChat(func(ctx context.Context, sender string, msg chatproto.ChatMessage) (string, error) {
		return "ok", nil
	})

	data, err := json.Marshal(chatproto.NewChatMessage("conv-1", "hi"))
	require.NoError(t, err)

	msg := &messaging.Message{
		Data:     data,
		Reply:    "r",
		Metadata: map[string]string{messaging.HeaderSender: "agent1busy"},
	}
	require.NoError(t, agent.handleChat(context.Background(), msg))
	require.NoError(t, agent.handleChat(context.Background(), msg))

	var resp chatproto.ChatResponse
	require.NoError(t, json.Unmarshal(bus.lastOn("r"), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "rate limit exceeded")
}

func TestHandleTaskStampsRequestID(t *testing.T) {
	bus := &recordingBus{}
	agent := newTestAgent(t, bus, Options{Name: "gmail"})
	agent.OnTask(func(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
		return chatproto.TaskResult{Success: true, Message: "sent"}
	})

	task := chatproto.NewTask("send_email", map[string]interface{}{"to": "bob@example.com"})
	data, err := json.Marshal(task)
	require.NoError(t, err)
	require.NoError(t, agent.handleTask(context.Background(), &messaging.Message{Data: data, Reply: "r"}))

	var result chatproto.TaskResult
	require.NoError(t, json.Unmarshal(bus.lastOn("r"), &result))
	assert.True(t, result.Success)
	assert.Equal(t, task.RequestID, result.RequestID)
}

func TestHandleTaskMalformedPayload(t *testing.T) {
	bus := &recordingBus{}
	agent := newTestAgent(t, bus, Options{Name: "gmail"})
	agent.OnTask(func(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
		return chatproto.TaskResult{Success: true}
	})

	require.NoError(t, agent.handleTask(context.Background(), &messaging.Message{Data: []byte("{broken"), Reply: "r"}))

	var result chatproto.TaskResult
	require.NoError(t, json.Unmarshal(bus.lastOn("r"), &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "malformed task")
}
