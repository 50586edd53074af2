// Package chatproto defines the typed message contracts exchanged between
// agents on the bus: the chat protocol used by clients and the mailbox
// agent, and the task records the mailbox agent forwards to the
// service-specific agents.
package chatproto

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a chat-protocol request sent to an agent.
type ChatMessage struct {
	MessageID      string    `json:"msg_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Text           string    `json:"text"`
	// Model optionally pins the completion model for this exchange.
	Model string `json:"model,omitempty"`
	// EndSession signals the agent to drop the conversation context.
	EndSession bool `json:"end_session,omitempty"`
}

// NewChatMessage builds a chat message with a fresh message ID.
func NewChatMessage(conversationID, text string) ChatMessage {
	return ChatMessage{
		MessageID:      uuid.New().String(),
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC(),
		Text:           text,
	}
}

// ChatAcknowledgement confirms receipt of a chat message before the agent
// starts processing it.
type ChatAcknowledgement struct {
	AckedMsgID string    `json:"acknowledged_msg_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChatResponse is the agent's reply to a ChatMessage.
type ChatResponse struct {
	MessageID      string    `json:"msg_id"`
	InReplyTo      string    `json:"in_reply_to"`
	ConversationID string    `json:"conversation_id"`
	Timestamp      time.Time `json:"timestamp"`
	Text           string    `json:"text"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
}

// Task is a typed request the mailbox agent forwards to a service agent.
type Task struct {
	RequestID  string                 `json:"request_id"`
	Intent     string                 `json:"intent"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// NewTask builds a task with a fresh request ID.
func NewTask(intent string, params map[string]interface{}) Task {
	return Task{
		RequestID:  uuid.New().String(),
		Intent:     intent,
		Parameters: params,
	}
}

// TaskResult is a service agent's reply to a Task. Data carries the
// vendor-specific payload (message ID, playlist URL, event link, ...).
type TaskResult struct {
	RequestID string                 `json:"request_id"`
	Success   bool                   `json:"success"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Email task intents handled by the gmail agent.
const (
	IntentSendEmail    = "send_email"
	IntentReadEmails   = "read_emails"
	IntentSearchEmails = "search_emails"
)

// EmailRequest is the payload for send_email tasks.
type EmailRequest struct {
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// EmailResult mirrors the vendor send response.
type EmailResult struct {
	StatusCode   int    `json:"status_code"`
	MessageID    string `json:"message_id,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Success      bool   `json:"success"`
}

// Music task intents handled by the spotify agent.
const (
	IntentCreatePlaylist = "create_playlist"
	IntentSearchMusic    = "search_music"
)

// PlaylistRequest is the payload for create_playlist tasks.
type PlaylistRequest struct {
	Name        string   `json:"playlist_name"`
	Genre       string   `json:"genre,omitempty"`
	Mood        string   `json:"mood,omitempty"`
	Artists     []string `json:"artists,omitempty"`
	SongCount   int      `json:"song_count,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Slack task intents handled by the slack agent.
const (
	IntentSendMessage  = "send_message"
	IntentListChannels = "list_channels"
)

// SlackMessageRequest is the payload for send_message tasks.
type SlackMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// Discord task intents handled by the discord agent. send_dm resolves a
// username or user ID to a direct-message channel; read_messages pulls the
// recent history of that channel.
const (
	IntentSendDM       = "send_dm"
	IntentReadMessages = "read_messages"
)

// DirectMessageRequest is the payload for send_dm tasks. Recipient is a
// Discord username or a numeric user ID.
type DirectMessageRequest struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// Note task intents handled by the notes agent.
const (
	IntentCreateNote  = "create_note"
	IntentListNotes   = "list_notes"
	IntentSearchNotes = "search_notes"
	IntentDeleteNote  = "delete_note"
)

// Note is one stored note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Calendar task intents handled by the calendar agent.
const (
	IntentCreateEvent = "create_event"
	IntentListEvents  = "list_events"
)

// EventRequest is the payload for create_event tasks.
type EventRequest struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Attendees   []string  `json:"attendees,omitempty"`
}

// Announcement is published on agents.announce when an agent starts, so
// clients can discover live agents and their addresses.
type Announcement struct {
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Capabilities []string  `json:"capabilities,omitempty"`
	StartedAt    time.Time `json:"started_at"`
}
