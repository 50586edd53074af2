package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vocal-agents/vocal-stack/cli/internal/busclient"
	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/config"
	"github.com/vocal-agents/vocal-stack/common/messaging"
)

type noopClient struct{}

type noopSub struct{}

func (noopSub) Unsubscribe() error { return nil }
func (noopSub) Subject() string    { return "" }
func (noopSub) IsValid() bool      { return true }

func (noopClient) Publish(ctx context.Context, subject string, data []byte) error { return nil }
func (noopClient) PublishMsg(ctx context.Context, msg *messaging.Message) error   { return nil }
func (noopClient) Request(ctx context.Context, subject string, data []byte, timeout time.Duration) (*messaging.Message, error) {
	return nil, nil
}
func (noopClient) Subscribe(subject string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	return noopSub{}, nil
}
func (noopClient) QueueSubscribe(subject, queue string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	return noopSub{}, nil
}
func (noopClient) Close() error      { return nil }
func (noopClient) Drain() error      { return nil }
func (noopClient) IsConnected() bool { return true }

func withFakeBus(t *testing.T, reply chatproto.ChatResponse) *chatproto.ChatMessage {
	t.Helper()

	var sent chatproto.ChatMessage
	origConnect, origExchange := busclientConnect, chatExchange
	t.Cleanup(func() {
		busclientConnect, chatExchange = origConnect, origExchange
	})

	busclientConnect = func(profile *config.CLIProfile) (messaging.Client, error) {
		return noopClient{}, nil
	}
	chatExchange = func(ctx context.Context, client messaging.Client, agent string, msg chatproto.ChatMessage, timeout time.Duration) (*busclient.Exchange, error) {
		sent = msg
		return &busclient.Exchange{Response: reply}, nil
	}
	return &sent
}

// resetFlags restores every flag on cmd and its subcommands to its default,
// so flag values set by one test's Execute do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)

	// A fresh config path keeps the test away from ~/.vocal.
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	args = append([]string{"--config", cfgPath}, args...)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAskPrintsReply(t *testing.T) {
	sent := withFakeBus(t, chatproto.ChatResponse{Success: true, Text: "The capital is Paris."})

	out, err := execute(t, "ask", "what", "is", "the", "capital", "of", "France?")
	require.NoError(t, err)
	assert.Contains(t, out, "The capital is Paris.")
	assert.Equal(t, "what is the capital of France?", sent.Text)
}

func TestAskRejectsInvalidModelBeforeSending(t *testing.T) {
	sent := withFakeBus(t, chatproto.ChatResponse{Success: true, Text: "unused"})

	_, err := execute(t, "ask", "--model", "gpt-5", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
	assert.Empty(t, sent.Text)
}

func TestAskSurfacesAgentError(t *testing.T) {
	withFakeBus(t, chatproto.ChatResponse{Success: false, Error: "rate limited"})

	_, err := execute(t, "ask", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAgentsListsProfileAddresses(t *testing.T) {
	withFakeBus(t, chatproto.ChatResponse{})

	cfg := config.DefaultCLI()
	profile, err := cfg.GetProfile("")
	require.NoError(t, err)
	profile.Agents["mailbox"] = "agent1qxyz"

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, data, 0600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", cfgPath, "agents"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "mailbox")
	assert.Contains(t, out.String(), "agent1qxyz")
}

func TestDemoCommandGeneratesPlausibleText(t *testing.T) {
	gofakeit.Seed(7)
	for i := 0; i < 20; i++ {
		command := demoCommand()
		require.NotEmpty(t, command)
		assert.False(t, strings.Contains(command, "%!"), "bad formatting: %s", command)
	}
}
