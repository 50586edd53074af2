package agentrt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/logging"
	"github.com/vocal-agents/vocal-stack/common/messaging"
)

// HeaderAckSubject is the optional request header naming a subject where
// the runtime publishes a ChatAcknowledgement before processing. The reply
// subject itself carries exactly one message: the final response.
const HeaderAckSubject = "Vocal-Ack-Subject"

// ChatHandler produces the reply text for an inbound chat message. The
// conversation ID is already resolved (never empty) when the handler runs.
type ChatHandler func(ctx context.Context, sender string, msg chatproto.ChatMessage) (string, error)

// TaskHandler executes a typed task and returns its result.
type TaskHandler func(ctx context.Context, task chatproto.Task) chatproto.TaskResult

// IntervalFunc runs periodically while the agent is started.
type IntervalFunc func(ctx context.Context)

// Agent is a named, addressable process on the bus.
type Agent struct {
	identity *Identity
	client   messaging.Client
	logger   *logging.Logger
	limiter  *RateLimiter

	chatHandler  ChatHandler
	taskHandler  TaskHandler
	capabilities []string

	intervals []intervalSpec
	subs      []messaging.Subscription

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

type intervalSpec struct {
	every time.Duration
	fn    IntervalFunc
}

// Options configures an Agent.
type Options struct {
	Name string
	Seed string

	// Capabilities are advertised in the startup announcement.
	Capabilities []string

	// RateLimit caps requests per sender per window; zero disables.
	RateLimit       int
	RateLimitWindow time.Duration
}

// New creates an agent bound to the given bus client.
func New(client messaging.Client, opts Options) (*Agent, error) {
	identity, err := NewIdentity(opts.Name, opts.Seed)
	if err != nil {
		return nil, err
	}

	return &Agent{
		identity:     identity,
		client:       client,
		logger:       logging.Default().With(logging.Agent(opts.Name), logging.Address(identity.Address)),
		limiter:      NewRateLimiter(opts.RateLimit, opts.RateLimitWindow),
		capabilities: opts.Capabilities,
	}, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.identity.Name }

// Address returns the agent's derived bus address.
func (a *Agent) Address() string { return a.identity.Address }

// Identity returns the agent's cryptographic identity.
func (a *Agent) Identity() *Identity { return a.identity }

// OnChat registers the chat-protocol handler. Must be called before Start.
func (a *Agent) OnChat(h ChatHandler) { a.chatHandler = h }

// OnTask registers the typed task handler. Must be called before Start.
func (a *Agent) OnTask(h TaskHandler) { a.taskHandler = h }

// OnInterval registers fn to run every d while the agent is started.
func (a *Agent) OnInterval(d time.Duration, fn IntervalFunc) {
	a.intervals = append(a.intervals, intervalSpec{every: d, fn: fn})
}

// Start subscribes the agent's subjects, announces the agent on the bus,
// and launches interval goroutines.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return fmt.Errorf("agent %s already started", a.Name())
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.chatHandler != nil {
		sub, err := a.client.QueueSubscribe(
			messaging.ChatSubject(a.Name()),
			messaging.QueueGroup(a.Name()),
			a.handleChat,
		)
		if err != nil {
			cancel()
			return fmt.Errorf("subscribe chat subject: %w", err)
		}
		a.subs = append(a.subs, sub)
	}

	if a.taskHandler != nil {
		sub, err := a.client.QueueSubscribe(
			messaging.TaskSubject(a.Name()),
			messaging.QueueGroup(a.Name()),
			a.handleTask,
		)
		if err != nil {
			cancel()
			return fmt.Errorf("subscribe task subject: %w", err)
		}
		a.subs = append(a.subs, sub)
	}

	if err := a.Announce(runCtx); err != nil {
		a.logger.Warn("startup announcement failed", logging.Error(err))
	}

	for _, spec := range a.intervals {
		a.wg.Add(1)
		go a.runInterval(runCtx, spec)
	}

	a.started = true
	a.logger.Info("agent started",
		slog.String("chat_subject", messaging.ChatSubject(a.Name())),
		slog.String("task_subject", messaging.TaskSubject(a.Name())))
	return nil
}

// Stop unsubscribes, stops interval goroutines, and waits for them.
func (a *Agent) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return nil
	}

	for _, sub := range a.subs {
		if err := sub.Unsubscribe(); err != nil {
			a.logger.Warn("unsubscribe failed", logging.Error(err))
		}
	}
	a.subs = nil

	a.cancel()
	a.wg.Wait()
	a.started = false
	a.logger.Info("agent stopped")
	return nil
}

// Announce publishes the agent's details so clients can discover it. Start
// announces once; agents typically re-announce on an interval so clients
// that attach later still see them.
func (a *Agent) Announce(ctx context.Context) error {
	ann := chatproto.Announcement{
		Name:         a.Name(),
		Address:      a.Address(),
		Capabilities: a.capabilities,
		StartedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(ann)
	if err != nil {
		return err
	}
	return a.client.Publish(ctx, messaging.SubjectAnnounce, data)
}

func (a *Agent) runInterval(ctx context.Context, spec intervalSpec) {
	defer a.wg.Done()
	ticker := time.NewTicker(spec.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			spec.fn(ctx)
		}
	}
}

// handleChat processes an inbound chat-protocol message.
func (a *Agent) handleChat(ctx context.Context, msg *messaging.Message) error {
	MessagesTotal.WithLabelValues(a.Name(), "chat").Inc()
	start := time.Now()
	defer func() {
		HandleDuration.WithLabelValues(a.Name(), "chat").Observe(time.Since(start).Seconds())
	}()

	var req chatproto.ChatMessage
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		HandlerErrors.WithLabelValues(a.Name(), "chat").Inc()
		return a.replyChatError(ctx, msg.Reply, req, fmt.Errorf("malformed chat message: %w", err))
	}

	sender := msg.Sender()

	// Acknowledge receipt before processing, when the sender asked for it.
	if ackSubject := msg.Metadata[HeaderAckSubject]; ackSubject != "" {
		ack := chatproto.ChatAcknowledgement{
			AckedMsgID: req.MessageID,
			Timestamp:  time.Now().UTC(),
		}
		if data, err := json.Marshal(ack); err == nil {
			if err := a.client.Publish(ctx, ackSubject, data); err != nil {
				a.logger.Warn("ack publish failed", logging.Error(err))
			}
		}
	}

	if !a.limiter.Allow(sender) {
		RateLimited.WithLabelValues(a.Name()).Inc()
		a.logger.Warn("rate limit exceeded", logging.Sender(sender))
		return a.replyChatError(ctx, msg.Reply, req,
			fmt.Errorf("rate limit exceeded, try again later"))
	}

	// A fresh conversation gets a new ID; replies always carry it.
	if req.ConversationID == "" {
		req.ConversationID = uuid.New().String()
	}

	text, err := a.chatHandler(ctx, sender, req)
	if err != nil {
		HandlerErrors.WithLabelValues(a.Name(), "chat").Inc()
		a.logger.Error("chat handler failed",
			logging.Conversation(req.ConversationID),
			logging.Error(err))
		return a.replyChatError(ctx, msg.Reply, req, err)
	}

	resp := chatproto.ChatResponse{
		MessageID:      uuid.New().String(),
		InReplyTo:      req.MessageID,
		ConversationID: req.ConversationID,
		Timestamp:      time.Now().UTC(),
		Text:           text,
		Success:        true,
	}
	return a.reply(ctx, msg.Reply, resp)
}

// handleTask processes an inbound typed task.
func (a *Agent) handleTask(ctx context.Context, msg *messaging.Message) error {
	MessagesTotal.WithLabelValues(a.Name(), "task").Inc()
	start := time.Now()
	defer func() {
		HandleDuration.WithLabelValues(a.Name(), "task").Observe(time.Since(start).Seconds())
	}()

	var task chatproto.Task
	if err := json.Unmarshal(msg.Data, &task); err != nil {
		HandlerErrors.WithLabelValues(a.Name(), "task").Inc()
		return a.reply(ctx, msg.Reply, chatproto.TaskResult{
			Success: false,
			Message: fmt.Sprintf("malformed task: %v", err),
		})
	}

	if !a.limiter.Allow(msg.Sender()) {
		RateLimited.WithLabelValues(a.Name()).Inc()
		return a.reply(ctx, msg.Reply, chatproto.TaskResult{
			RequestID: task.RequestID,
			Success:   false,
			Message:   "rate limit exceeded, try again later",
		})
	}

	result := a.taskHandler(ctx, task)
	result.RequestID = task.RequestID
	if !result.Success {
		HandlerErrors.WithLabelValues(a.Name(), "task").Inc()
	}
	return a.reply(ctx, msg.Reply, result)
}

func (a *Agent) replyChatError(ctx context.Context, replySubject string, req chatproto.ChatMessage, cause error) error {
	resp := chatproto.ChatResponse{
		MessageID:      uuid.New().String(),
		InReplyTo:      req.MessageID,
		ConversationID: req.ConversationID,
		Timestamp:      time.Now().UTC(),
		Success:        false,
		Error:          cause.Error(),
	}
	return a.reply(ctx, replySubject, resp)
}

// reply publishes a JSON response to the request's reply subject. Requests
// without a reply subject are fire-and-forget; nothing to do.
func (a *Agent) reply(ctx context.Context, subject string, data interface{}) error {
	if subject == "" {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}
	return a.client.Publish(ctx, subject, payload)
}
