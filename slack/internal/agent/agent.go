// Package agent implements the slack service agent. It turns routed
// messaging tasks into Slack Web API calls through the slack-go SDK.
package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/slack-go/slack"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/logging"
)

// channelListLimit caps how many channels one listing fetches.
const channelListLimit = 100

// API is the slice of the Slack SDK the agent uses. *slack.Client
// satisfies it; tests substitute a fake.
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
}

type Agent struct {
	api    API
	logger *logging.Logger
}

func New(api API) *Agent {
	return &Agent{
		api:    api,
		logger: logging.Default().With(logging.Agent("slack")),
	}
}

// HandleTask executes one routed Slack task.
func (a *Agent) HandleTask(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	switch task.Intent {
	case chatproto.IntentSendMessage:
		return a.sendMessage(ctx, task)
	case chatproto.IntentListChannels:
		return a.listChannels(ctx, task)
	default:
		return fail(task, fmt.Sprintf("slack agent does not handle intent %q", task.Intent))
	}
}

func (a *Agent) sendMessage(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	req := messageRequest(task)
	if req.Channel == "" {
		return fail(task, "could not work out which channel to post to (try \"#channel-name\")")
	}
	if req.Text == "" {
		return fail(task, "could not work out what message to send")
	}

	channelID, err := a.resolveChannel(ctx, req.Channel)
	if err != nil {
		a.logger.Error("failed to resolve channel", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to find channel %q: %v", req.Channel, err))
	}

	a.logger.Info("posting message", logging.Intent(task.Intent), logging.Subject(req.Channel))

	_, ts, err := a.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(req.Text, false))
	if err != nil {
		a.logger.Error("failed to post message", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to send Slack message: %v", err))
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   fmt.Sprintf("Message sent to #%s", strings.TrimPrefix(req.Channel, "#")),
		Data:      map[string]interface{}{"channel": channelID, "ts": ts},
	}
}

func (a *Agent) listChannels(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	channels, _, err := a.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		Types:           []string{"public_channel", "private_channel"},
		ExcludeArchived: true,
		Limit:           channelListLimit,
	})
	if err != nil {
		a.logger.Error("failed to list channels", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to list Slack channels: %v", err))
	}
	if len(channels) == 0 {
		return chatproto.TaskResult{RequestID: task.RequestID, Success: true, Message: "You are not in any Slack channels."}
	}

	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = "#" + ch.Name
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   fmt.Sprintf("You are in %d channels: %s", len(names), strings.Join(names, ", ")),
		Data:      map[string]interface{}{"count": len(names)},
	}
}

// resolveChannel maps a channel name to its ID. Unknown names are passed
// through unchanged; the API accepts "#name" for public channels.
func (a *Agent) resolveChannel(ctx context.Context, name string) (string, error) {
	want := strings.TrimPrefix(strings.ToLower(name), "#")

	channels, _, err := a.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		Types:           []string{"public_channel", "private_channel"},
		ExcludeArchived: true,
		Limit:           channelListLimit,
	})
	if err != nil {
		return "", err
	}
	for _, ch := range channels {
		if strings.ToLower(ch.Name) == want {
			return ch.ID, nil
		}
	}
	return "#" + want, nil
}

var channelPattern = regexp.MustCompile(`#([a-zA-Z0-9_\-]+)`)

// messageRequest builds the post parameters from the task. Explicit
// parameters win; otherwise the channel and message are pulled out of the
// natural-language command.
func messageRequest(task chatproto.Task) chatproto.SlackMessageRequest {
	req := chatproto.SlackMessageRequest{
		Channel: stringParam(task, "channel"),
		Text:    stringParam(task, "message"),
	}
	text := stringParam(task, "text")
	if req.Channel == "" {
		if m := channelPattern.FindStringSubmatch(text); m != nil {
			req.Channel = m[1]
		} else {
			req.Channel = extractAfter(text, "to", "in")
		}
	}
	if req.Text == "" {
		req.Text = extractAfter(text, "saying", "that says")
	}
	return req
}

// extractAfter returns the text following the first marker found, trimmed
// of surrounding quotes and punctuation. For channel markers only the
// first word is kept.
func extractAfter(text string, markers ...string) string {
	lower := strings.ToLower(text)
	for _, marker := range markers {
		idx := strings.Index(lower, " "+marker+" ")
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(text[idx+len(marker)+2:])
		rest = strings.Trim(rest, `"'.`)
		if marker == "to" || marker == "in" {
			if fields := strings.Fields(rest); len(fields) > 0 {
				return strings.TrimPrefix(fields[0], "#")
			}
			return ""
		}
		return rest
	}
	return ""
}

func stringParam(task chatproto.Task, key string) string {
	if task.Parameters == nil {
		return ""
	}
	if v, ok := task.Parameters[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func fail(task chatproto.Task, msg string) chatproto.TaskResult {
	return chatproto.TaskResult{RequestID: task.RequestID, Success: false, Message: msg}
}
