package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

type fakeSlack struct {
	channels    []slack.Channel
	posted      map[string]string
	postErr     error
	listErr     error
	listCalls   int
	lastChannel string
}

func newFakeSlack(names ...string) *fakeSlack {
	f := &fakeSlack{posted: make(map[string]string)}
	for i, name := range names {
		ch := slack.Channel{}
		ch.ID = "C00" + string(rune('A'+i))
		ch.Name = name
		f.channels = append(f.channels, ch)
	}
	return f
}

func (f *fakeSlack) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	if f.postErr != nil {
		return "", "", f.postErr
	}
	f.lastChannel = channelID
	f.posted[channelID] = "posted"
	return channelID, "1724659200.000100", nil
}

func (f *fakeSlack) GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, "", f.listErr
	}
	return f.channels, "", nil
}

func TestSendMessageResolvesChannelName(t *testing.T) {
	fake := newFakeSlack("general", "deploys")
	a := New(fake)

	task := chatproto.NewTask(chatproto.IntentSendMessage, map[string]interface{}{
		"text": "send a slack message to #deploys saying the release is out",
	})

	result := a.HandleTask(context.Background(), task)
	require.True(t, result.Success, result.Message)
	assert.Equal(t, "C00B", fake.lastChannel)
	assert.Contains(t, result.Message, "#deploys")
}

func TestSendMessageUnknownChannelPassesNameThrough(t *testing.T) {
	fake := newFakeSlack("general")
	a := New(fake)

	task := chatproto.NewTask(chatproto.IntentSendMessage, map[string]interface{}{
		"channel": "random",
		"message": "hello",
	})

	result := a.HandleTask(context.Background(), task)
	require.True(t, result.Success, result.Message)
	assert.Equal(t, "#random", fake.lastChannel)
}

func TestSendMessageWithoutChannelFails(t *testing.T) {
	a := New(newFakeSlack("general"))

	task := chatproto.NewTask(chatproto.IntentSendMessage, map[string]interface{}{
		"text": "post an update on slack",
	})
	result := a.HandleTask(context.Background(), task)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "channel")
}

func TestSendMessageWithoutTextFails(t *testing.T) {
	a := New(newFakeSlack("general"))

	task := chatproto.NewTask(chatproto.IntentSendMessage, map[string]interface{}{
		"text": "send a slack message to #general",
	})
	result := a.HandleTask(context.Background(), task)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "message")
}

func TestListChannels(t *testing.T) {
	a := New(newFakeSlack("general", "random", "deploys"))

	result := a.HandleTask(context.Background(), chatproto.NewTask(chatproto.IntentListChannels, nil))
	require.True(t, result.Success, result.Message)
	assert.Contains(t, result.Message, "#general")
	assert.Contains(t, result.Message, "#deploys")
	assert.Contains(t, result.Message, "3 channels")
}

func TestListChannelsAPIError(t *testing.T) {
	fake := newFakeSlack()
	fake.listErr = errors.New("invalid_auth")
	a := New(fake)

	result := a.HandleTask(context.Background(), chatproto.NewTask(chatproto.IntentListChannels, nil))
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "invalid_auth")
}

func TestMessageRequestParsing(t *testing.T) {
	task := chatproto.NewTask(chatproto.IntentSendMessage, map[string]interface{}{
		"text": `send a slack message to ops saying "deploy finished"`,
	})
	req := messageRequest(task)
	assert.Equal(t, "ops", req.Channel)
	assert.Equal(t, "deploy finished", req.Text)
}
