package agent

import (
	"regexp"
	"strings"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

// colonPattern matches the "Send Ben: running late" command form.
var colonPattern = regexp.MustCompile(`(?i)^\s*(?:send|text|message|dm|tell)\s+(.+?)\s*:\s*(.+)$`)

// fromPattern pulls the peer out of "show messages from Alice".
var fromPattern = regexp.MustCompile(`(?i)\bfrom\s+(\S+)`)

// dmRequest builds the direct-message parameters from the task. Explicit
// parameters win; otherwise recipient and message are pulled out of the
// natural-language command.
func dmRequest(task chatproto.Task) chatproto.DirectMessageRequest {
	req := chatproto.DirectMessageRequest{
		Recipient: stringParam(task, "recipient"),
		Text:      stringParam(task, "message"),
	}
	if req.Recipient != "" && req.Text != "" {
		return req
	}

	text := stringParam(task, "text")
	recipient, message := parseSendCommand(text)
	if req.Recipient == "" {
		req.Recipient = recipient
	}
	if req.Text == "" {
		req.Text = message
	}
	return req
}

// parseSendCommand extracts recipient and message from commands like
// "send Ben: running late", "text Alice saying hi" or "message user id
// 123456789 that the meeting moved".
func parseSendCommand(text string) (recipient, message string) {
	if m := colonPattern.FindStringSubmatch(text); m != nil {
		return cleanRecipient(m[1]), strings.Trim(strings.TrimSpace(m[2]), `"'`)
	}

	lower := strings.ToLower(text)
	for _, marker := range []string{" saying ", " that says ", " that "} {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		message = strings.Trim(strings.TrimSpace(text[idx+len(marker):]), `"'.`)
		recipient = cleanRecipient(text[:idx])
		return recipient, message
	}
	return cleanRecipient(text), ""
}

// recipientFiller lists the words stripped around the recipient name:
// command verbs and connective filler, per the command forms above.
var recipientFiller = map[string]bool{
	"send": true, "text": true, "message": true, "dm": true, "tell": true,
	"a": true, "to": true, "on": true, "discord": true, "user": true,
	"id": true, "the": true, "via": true,
}

// cleanRecipient strips command verbs and filler words, keeping the
// username (or numeric ID) itself.
func cleanRecipient(s string) string {
	var kept []string
	for _, word := range strings.Fields(s) {
		trimmed := strings.Trim(word, `"',.@`)
		if trimmed == "" || recipientFiller[strings.ToLower(trimmed)] {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, " ")
}

// readRequest pulls the peer and message count out of a read_messages task.
func readRequest(task chatproto.Task) (recipient string, limit int) {
	recipient = stringParam(task, "recipient")
	limit = intParam(task, "limit", defaultReadLimit)

	if recipient == "" {
		text := stringParam(task, "text")
		if m := fromPattern.FindStringSubmatch(text); m != nil {
			recipient = strings.Trim(m[1], `"',.@`)
		}
	}
	return recipient, limit
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

// intParam reads a numeric parameter, accepting the float64 JSON numbers
// decode to.
func intParam(task chatproto.Task, key string, defaultVal int) int {
	if task.Parameters == nil {
		return defaultVal
	}
	switch v := task.Parameters[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return defaultVal
}
