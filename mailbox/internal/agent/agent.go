// Package agent implements the mailbox agent: the general assistant that
// answers chat messages directly through the completion API or forwards
// them as typed tasks to the service agents.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/vocal-agents/vocal-stack/asi"
	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/contextstore"
	"github.com/vocal-agents/vocal-stack/common/logging"
	"github.com/vocal-agents/vocal-stack/common/messaging"
)

// systemPrompt frames the assistant for direct completions.
const systemPrompt = "You are a helpful voice assistant. Keep answers short and actionable."

// Mailbox holds the assistant's dependencies. Forwarded tasks go out on
// the bus; everything else is answered by the completion API over the
// rolling conversation history.
type Mailbox struct {
	asi          *asi.Client
	history      contextstore.Store
	bus          messaging.Publisher
	defaultModel string
	taskTimeout  time.Duration
	logger       *logging.Logger
}

// New wires a Mailbox. bus may be nil, in which case task intents are
// answered with an explanation instead of a forward.
func New(asiClient *asi.Client, history contextstore.Store, bus messaging.Publisher, defaultModel string, taskTimeout time.Duration) *Mailbox {
	if taskTimeout <= 0 {
		taskTimeout = 30 * time.Second
	}
	return &Mailbox{
		asi:          asiClient,
		history:      history,
		bus:          bus,
		defaultModel: defaultModel,
		taskTimeout:  taskTimeout,
		logger:       logging.Default().With(logging.Agent("mailbox")),
	}
}

// Respond produces the reply for one chat message. The conversation ID
// must already be resolved by the caller.
func (m *Mailbox) Respond(ctx context.Context, msg chatproto.ChatMessage) (string, error) {
	if msg.EndSession {
		m.asi.EndSession(msg.ConversationID)
		if err := m.history.Clear(ctx, msg.ConversationID); err != nil {
			m.logger.Warn("failed to clear conversation history", logging.Error(err))
		}
		return "Session ended. Talk to you later!", nil
	}

	if route := routeIntent(msg.Text); route.Agent != "" {
		return m.forward(ctx, route, msg)
	}

	return m.complete(ctx, msg)
}

// forward sends the command to the owning service agent and relays its
// result.
func (m *Mailbox) forward(ctx context.Context, route Route, msg chatproto.ChatMessage) (string, error) {
	if m.bus == nil {
		return "", fmt.Errorf("the %s agent is not reachable right now (bus disabled)", route.Agent)
	}

	task := chatproto.NewTask(route.Intent, map[string]interface{}{
		"text":            msg.Text,
		"conversation_id": msg.ConversationID,
	})
	payload, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("marshal task: %w", err)
	}

	m.logger.Info("forwarding task",
		slog.String("target", route.Agent),
		logging.Intent(route.Intent),
		logging.Conversation(msg.ConversationID))

	reply, err := m.bus.Request(ctx, messaging.TaskSubject(route.Agent), payload, m.taskTimeout)
	if err != nil {
		return "", fmt.Errorf("the %s agent did not respond: %w", route.Agent, err)
	}

	var result chatproto.TaskResult
	if err := json.Unmarshal(reply.Data, &result); err != nil {
		return "", fmt.Errorf("unreadable reply from %s agent: %w", route.Agent, err)
	}
	if !result.Success {
		return "", fmt.Errorf("%s agent: %s", route.Agent, result.Message)
	}

	m.remember(ctx, msg.ConversationID, msg.Text, result.Message)
	return result.Message, nil
}

// complete answers directly via the completion API over the conversation
// history.
func (m *Mailbox) complete(ctx context.Context, msg chatproto.ChatMessage) (string, error) {
	model := msg.Model
	if model == "" {
		model = m.defaultModel
	}
	if err := asi.ValidateModel(model); err != nil {
		return "", err
	}

	history, err := m.history.History(ctx, msg.ConversationID)
	if err != nil {
		m.logger.Warn("failed to load conversation history", logging.Error(err))
		history = nil
	}

	messages := make([]asi.Message, 0, len(history)+2)
	messages = append(messages, asi.Message{Role: "system", Content: systemPrompt})
	for _, turn := range history {
		messages = append(messages, asi.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, asi.Message{Role: "user", Content: msg.Text})

	resp, err := m.asi.ChatCompletion(ctx, asi.CompletionRequest{
		Model:          model,
		Messages:       messages,
		ConversationID: msg.ConversationID,
	})
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("completion API returned an empty response")
	}

	m.remember(ctx, msg.ConversationID, msg.Text, text)
	return text, nil
}

// History returns the most recent limit turns of a conversation, oldest
// first. limit <= 0 returns the whole retained window.
func (m *Mailbox) History(ctx context.Context, conversationID string, limit int) ([]contextstore.Entry, error) {
	entries, err := m.history.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// remember appends a user/assistant turn pair to the rolling history.
func (m *Mailbox) remember(ctx context.Context, conversationID, userText, assistantText string) {
	now := time.Now().UTC()
	for _, entry := range []contextstore.Entry{
		{Role: "user", Content: userText, Timestamp: now},
		{Role: "assistant", Content: assistantText, Timestamp: now},
	} {
		if err := m.history.Append(ctx, conversationID, entry); err != nil {
			m.logger.Warn("failed to append conversation history", logging.Error(err))
			return
		}
	}
}
