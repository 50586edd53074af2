// Package busclient wraps the message bus for CLI use: connecting from a
// profile and running chat request/reply exchanges with agents.
package busclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vocal-agents/vocal-stack/common/agentrt"
	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/config"
	"github.com/vocal-agents/vocal-stack/common/messaging"
	natsclient "github.com/vocal-agents/vocal-stack/common/messaging/nats"
)

// Connect dials the profile's NATS server.
func Connect(profile *config.CLIProfile) (messaging.Client, error) {
	return natsclient.NewClient(natsclient.Config{
		URL:           profile.NATSURL,
		Name:          "vocal-cli",
		MaxReconnects: 3,
		ReconnectWait: time.Second,
		Timeout:       5 * time.Second,
	})
}

// Exchange is the outcome of one chat round trip.
type Exchange struct {
	Response chatproto.ChatResponse

	// Acked reports whether the agent acknowledged receipt before
	// replying.
	Acked bool
}

// Chat sends one chat message to the named agent and waits for the reply.
// The agent's pre-processing acknowledgement, if any, is reported in the
// result.
func Chat(ctx context.Context, client messaging.Client, agent string, msg chatproto.ChatMessage, timeout time.Duration) (*Exchange, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	inbox := "vocal.cli." + uuid.NewString()
	replySubject := inbox + ".reply"
	ackSubject := inbox + ".ack"

	replies := make(chan *messaging.Message, 1)
	acks := make(chan *messaging.Message, 1)

	replySub, err := client.Subscribe(replySubject, func(ctx context.Context, m *messaging.Message) error {
		select {
		case replies <- m:
		default:
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe reply subject: %w", err)
	}
	defer replySub.Unsubscribe()

	ackSub, err := client.Subscribe(ackSubject, func(ctx context.Context, m *messaging.Message) error {
		select {
		case acks <- m:
		default:
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe ack subject: %w", err)
	}
	defer ackSub.Unsubscribe()

	err = client.PublishMsg(ctx, &messaging.Message{
		Subject:  messaging.ChatSubject(agent),
		Data:     payload,
		Reply:    replySubject,
		Metadata: map[string]string{agentrt.HeaderAckSubject: ackSubject},
	})
	if err != nil {
		return nil, fmt.Errorf("send to %s agent: %w", agent, err)
	}

	exchange := &Exchange{}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-acks:
			exchange.Acked = true
		case m := <-replies:
			if err := json.Unmarshal(m.Data, &exchange.Response); err != nil {
				return nil, fmt.Errorf("unreadable reply: %w", err)
			}
			return exchange, nil
		case <-timer.C:
			return nil, fmt.Errorf("the %s agent did not reply within %s", agent, timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
