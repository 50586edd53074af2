// Package agent implements the discord service agent. It turns routed
// messaging tasks into Discord REST calls through the discordgo SDK,
// authenticated with the user's OAuth bearer token.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/logging"
)

const (
	// defaultReadLimit is how many messages a history request pulls when
	// the command does not say.
	defaultReadLimit = 10

	// memberPageSize is how many guild members one lookup page fetches.
	memberPageSize = 100

	// maxMemberPages caps how deep a username search walks the guild
	// member list.
	maxMemberPages = 10
)

// API is the slice of the discordgo session the agent uses. *discordgo.Session
// satisfies it; tests substitute a fake.
type API interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

type Agent struct {
	api     API
	guildID string
	logger  *logging.Logger

	// userCache remembers resolved usernames so repeated DMs to the same
	// person skip the guild member walk.
	mu        sync.Mutex
	userCache map[string]*discordgo.User
}

// New wires an Agent. guildID names the guild searched when resolving
// usernames; with an empty guildID only numeric user IDs work.
func New(api API, guildID string) *Agent {
	return &Agent{
		api:       api,
		guildID:   guildID,
		logger:    logging.Default().With(logging.Agent("discord")),
		userCache: make(map[string]*discordgo.User),
	}
}

// HandleTask executes one routed Discord task.
func (a *Agent) HandleTask(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	switch task.Intent {
	case chatproto.IntentSendDM:
		return a.sendDM(ctx, task)
	case chatproto.IntentReadMessages:
		return a.readMessages(ctx, task)
	default:
		return fail(task, fmt.Sprintf("discord agent does not handle intent %q", task.Intent))
	}
}

func (a *Agent) sendDM(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	req := dmRequest(task)
	if req.Recipient == "" {
		return fail(task, "could not work out who to message (try a username or a Discord user ID)")
	}
	if req.Text == "" {
		return fail(task, "could not work out what message to send")
	}

	user, err := a.resolveRecipient(ctx, req.Recipient)
	if err != nil {
		a.logger.Error("failed to resolve recipient", logging.Error(err))
		return fail(task, fmt.Sprintf("could not find Discord user %q: %v", req.Recipient, err))
	}

	a.logger.Info("sending direct message", logging.Intent(task.Intent), logging.Subject(user.Username))

	channel, err := a.api.UserChannelCreate(user.ID, discordgo.WithContext(ctx))
	if err != nil {
		a.logger.Error("failed to open DM channel", logging.Error(err))
		return fail(task, fmt.Sprintf("could not open a DM with %s: %v", displayName(user), err))
	}

	sent, err := a.api.ChannelMessageSend(channel.ID, req.Text, discordgo.WithContext(ctx))
	if err != nil {
		a.logger.Error("failed to send direct message", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to send Discord message to %s: %v", displayName(user), err))
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   fmt.Sprintf("Message sent to %s", displayName(user)),
		Data: map[string]interface{}{
			"recipient_id": user.ID,
			"channel_id":   channel.ID,
			"message_id":   sent.ID,
		},
	}
}

func (a *Agent) readMessages(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	recipient, limit := readRequest(task)
	if recipient == "" {
		return fail(task, "could not work out whose messages to read (try \"show messages from Alice\")")
	}

	user, err := a.resolveRecipient(ctx, recipient)
	if err != nil {
		a.logger.Error("failed to resolve recipient", logging.Error(err))
		return fail(task, fmt.Sprintf("could not find Discord user %q: %v", recipient, err))
	}

	channel, err := a.api.UserChannelCreate(user.ID, discordgo.WithContext(ctx))
	if err != nil {
		return fail(task, fmt.Sprintf("could not open the DM with %s: %v", displayName(user), err))
	}

	messages, err := a.api.ChannelMessages(channel.ID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		a.logger.Error("failed to read messages", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to read messages with %s: %v", displayName(user), err))
	}
	if len(messages) == 0 {
		return chatproto.TaskResult{
			RequestID: task.RequestID,
			Success:   true,
			Message:   fmt.Sprintf("No messages with %s yet.", displayName(user)),
		}
	}

	// Discord returns newest first; show the conversation oldest first.
	var b strings.Builder
	fmt.Fprintf(&b, "Last %d messages with %s:", len(messages), displayName(user))
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		author := "them"
		if m.Author != nil {
			author = m.Author.Username
		}
		fmt.Fprintf(&b, "\n[%s] %s: %s", m.Timestamp.Format("Jan 2 15:04"), author, m.Content)
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   b.String(),
		Data:      map[string]interface{}{"count": len(messages), "channel_id": channel.ID},
	}
}

// resolveRecipient maps a username or numeric ID to a Discord user.
// Numeric IDs are looked up directly; usernames are matched against the
// configured guild's member list, accepting the legacy name#discriminator
// form as well as display names.
func (a *Agent) resolveRecipient(ctx context.Context, recipient string) (*discordgo.User, error) {
	if isSnowflake(recipient) {
		return a.api.User(recipient, discordgo.WithContext(ctx))
	}

	key := strings.ToLower(recipient)
	a.mu.Lock()
	cached := a.userCache[key]
	a.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	if a.guildID == "" {
		return nil, fmt.Errorf("username lookup needs DISCORD_GUILD_ID; use a numeric user ID instead")
	}

	name, discriminator := splitDiscriminator(recipient)
	after := ""
	for page := 0; page < maxMemberPages; page++ {
		members, err := a.api.GuildMembers(a.guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("guild member lookup failed: %w", err)
		}
		for _, member := range members {
			if member.User == nil {
				continue
			}
			if matchesUser(member, name, discriminator) {
				a.mu.Lock()
				a.userCache[key] = member.User
				a.mu.Unlock()
				return member.User, nil
			}
		}
		if len(members) < memberPageSize {
			break
		}
		after = members[len(members)-1].User.ID
	}
	return nil, fmt.Errorf("no member named %q in the configured guild", recipient)
}

func matchesUser(member *discordgo.Member, name, discriminator string) bool {
	u := member.User
	if discriminator != "" {
		return strings.EqualFold(u.Username, name) && u.Discriminator == discriminator
	}
	return strings.EqualFold(u.Username, name) ||
		strings.EqualFold(u.GlobalName, name) ||
		strings.EqualFold(member.Nick, name)
}

// splitDiscriminator splits the legacy "name#1234" form.
func splitDiscriminator(recipient string) (name, discriminator string) {
	if idx := strings.LastIndex(recipient, "#"); idx > 0 {
		return strings.TrimSpace(recipient[:idx]), strings.TrimSpace(recipient[idx+1:])
	}
	return strings.TrimSpace(recipient), ""
}

// isSnowflake reports whether s looks like a Discord user ID (17-20
// digits).
func isSnowflake(s string) bool {
	if len(s) < 17 || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// displayName renders a user the way Discord shows them: the legacy
// name#discriminator when present, otherwise the plain username.
func displayName(u *discordgo.User) string {
	if u.Discriminator != "" && u.Discriminator != "0" {
		return u.Username + "#" + u.Discriminator
	}
	return u.Username
}

func fail(task chatproto.Task, msg string) chatproto.TaskResult {
	return chatproto.TaskResult{RequestID: task.RequestID, Success: false, Message: msg}
}
