package agent

import (
	"strings"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

// Route names the agent and intent a chat message should be forwarded to.
type Route struct {
	Agent  string
	Intent string
}

// routeIntent inspects a natural-language command and decides which service
// agent owns it. An empty Agent means the mailbox answers directly via the
// completion API. The service agents do their own parameter parsing; the
// mailbox only forwards the raw text.
func routeIntent(text string) Route {
	t := strings.ToLower(text)

	switch {
	case containsAny(t, "email", "e-mail", "inbox", "gmail"):
		switch {
		case containsAny(t, "read", "check", "summarize", "recent"):
			return Route{Agent: "gmail", Intent: chatproto.IntentReadEmails}
		case containsAny(t, "search", "find", "look for"):
			return Route{Agent: "gmail", Intent: chatproto.IntentSearchEmails}
		default:
			return Route{Agent: "gmail", Intent: chatproto.IntentSendEmail}
		}

	case containsAny(t, "playlist", "spotify", "music", "song"):
		if containsAny(t, "search", "find", "look for") {
			return Route{Agent: "spotify", Intent: chatproto.IntentSearchMusic}
		}
		return Route{Agent: "spotify", Intent: chatproto.IntentCreatePlaylist}

	case containsAny(t, "slack"):
		if containsAny(t, "channels", "list") {
			return Route{Agent: "slack", Intent: chatproto.IntentListChannels}
		}
		return Route{Agent: "slack", Intent: chatproto.IntentSendMessage}

	case containsAny(t, "calendar", "meeting", "schedule", "appointment", "book"):
		if containsAny(t, "list", "what's on", "whats on", "upcoming") {
			return Route{Agent: "calendar", Intent: chatproto.IntentListEvents}
		}
		return Route{Agent: "calendar", Intent: chatproto.IntentCreateEvent}

	case containsAny(t, "discord", "direct message") || strings.HasPrefix(t, "dm "):
		if containsAny(t, "read", "show", "history", "messages from") {
			return Route{Agent: "discord", Intent: chatproto.IntentReadMessages}
		}
		return Route{Agent: "discord", Intent: chatproto.IntentSendDM}

	case containsAny(t, "note"):
		switch {
		case containsAny(t, "search", "find", "look for"):
			return Route{Agent: "notes", Intent: chatproto.IntentSearchNotes}
		case containsAny(t, "delete", "remove", "scrap"):
			return Route{Agent: "notes", Intent: chatproto.IntentDeleteNote}
		case containsAny(t, "list", "show", "recent", "what are"):
			return Route{Agent: "notes", Intent: chatproto.IntentListNotes}
		default:
			return Route{Agent: "notes", Intent: chatproto.IntentCreateNote}
		}
	}

	return Route{}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
