// Package agent implements the gmail service agent. It turns routed email
// tasks into Gmail API calls.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/logging"
	"github.com/vocal-agents/vocal-stack/gmail/internal/client"
)

// readBatchSize caps how many messages a read or search fetches.
const readBatchSize = 5

type Agent struct {
	gmail  *client.Client
	logger *logging.Logger
}

func New(gmail *client.Client) *Agent {
	return &Agent{
		gmail:  gmail,
		logger: logging.Default().With(logging.Agent("gmail")),
	}
}

// HandleTask executes one routed email task.
func (a *Agent) HandleTask(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	switch task.Intent {
	case chatproto.IntentSendEmail:
		return a.sendEmail(ctx, task)
	case chatproto.IntentReadEmails:
		return a.readEmails(ctx, task)
	case chatproto.IntentSearchEmails:
		return a.searchEmails(ctx, task)
	default:
		return fail(task, fmt.Sprintf("gmail agent does not handle intent %q", task.Intent))
	}
}

func (a *Agent) sendEmail(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	req, from := emailRequest(task)
	if len(req.To) == 0 {
		return fail(task, "could not find a recipient email address in the request")
	}
	if req.Subject == "" {
		req.Subject = "Message from your voice assistant"
	}

	a.logger.Info("sending email", logging.Intent(task.Intent))

	to := strings.Join(req.To, ", ")
	sent, err := a.gmail.SendMessage(ctx, from, to, strings.Join(req.Cc, ", "), req.Subject, req.Body)
	if err != nil {
		a.logger.Error("failed to send email", logging.Error(err))
		res := chatproto.EmailResult{ErrorMessage: err.Error()}
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			res.StatusCode = apiErr.StatusCode
		}
		return chatproto.TaskResult{
			RequestID: task.RequestID,
			Success:   false,
			Message:   fmt.Sprintf("failed to send email: %v", err),
			Data:      emailResultData(res),
		}
	}

	res := chatproto.EmailResult{StatusCode: http.StatusOK, MessageID: sent.ID, Success: true}
	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   fmt.Sprintf("Email sent to %s (message ID %s)", to, sent.ID),
		Data:      emailResultData(res),
	}
}

// emailResultData flattens an EmailResult into the generic result payload.
func emailResultData(res chatproto.EmailResult) map[string]interface{} {
	data := map[string]interface{}{
		"status_code": res.StatusCode,
		"success":     res.Success,
	}
	if res.MessageID != "" {
		data["message_id"] = res.MessageID
	}
	if res.ErrorMessage != "" {
		data["error_message"] = res.ErrorMessage
	}
	return data
}

func (a *Agent) readEmails(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	query := ""
	if strings.Contains(strings.ToLower(stringParam(task, "text")), "unread") {
		query = "is:unread"
	}
	return a.listAndSummarize(ctx, task, query, "You have no recent emails.")
}

func (a *Agent) searchEmails(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	query := stringParam(task, "query")
	if query == "" {
		query = searchQueryFromText(stringParam(task, "text"))
	}
	if query == "" {
		return fail(task, "could not work out what to search for")
	}
	return a.listAndSummarize(ctx, task, query, fmt.Sprintf("No emails matched %q.", query))
}

func (a *Agent) listAndSummarize(ctx context.Context, task chatproto.Task, query, emptyMsg string) chatproto.TaskResult {
	refs, err := a.gmail.ListMessages(ctx, query, readBatchSize)
	if err != nil {
		a.logger.Error("failed to list emails", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to read emails: %v", err))
	}
	if len(refs) == 0 {
		return chatproto.TaskResult{RequestID: task.RequestID, Success: true, Message: emptyMsg}
	}

	var lines []string
	for _, ref := range refs {
		msg, err := a.gmail.GetMessage(ctx, ref.ID)
		if err != nil {
			a.logger.Warn("failed to fetch message", logging.MessageID(ref.ID), logging.Error(err))
			continue
		}
		lines = append(lines, fmt.Sprintf("From %s: %s - %s", msg.From, msg.Subject, msg.Snippet))
	}
	if len(lines) == 0 {
		return fail(task, "failed to fetch any of the matching emails")
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   fmt.Sprintf("Here are your %d most recent emails:\n%s", len(lines), strings.Join(lines, "\n")),
		Data:      map[string]interface{}{"count": len(lines)},
	}
}

var emailAddrPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// emailRequest builds the send request from the task, plus the sender
// override when one was given. Explicit parameters win; otherwise the
// recipients, subject and body are pulled out of the natural-language
// command.
func emailRequest(task chatproto.Task) (chatproto.EmailRequest, string) {
	req := chatproto.EmailRequest{
		To:      addressList(task, "to"),
		Cc:      addressList(task, "cc"),
		Subject: stringParam(task, "subject"),
		Body:    stringParam(task, "body"),
	}
	text := stringParam(task, "text")
	if len(req.To) == 0 {
		// Only the command part counts; addresses quoted in the body stay
		// out of the recipient list.
		command := cutAt(text, "saying", "that says", "telling them")
		req.To = emailAddrPattern.FindAllString(command, -1)
	}
	if req.Subject == "" {
		req.Subject = cutAt(extractAfter(text, "subject", "about"), "saying", "that says", "telling them")
	}
	if req.Body == "" {
		req.Body = extractAfter(text, "saying", "that says", "telling them")
		if req.Body == "" {
			req.Body = text
		}
	}
	return req, stringParam(task, "from")
}

// addressList reads a recipient parameter that may arrive as a single
// comma-separated string or a list.
func addressList(task chatproto.Task, key string) []string {
	if task.Parameters == nil {
		return nil
	}
	var out []string
	switch v := task.Parameters[key].(type) {
	case string:
		for _, addr := range strings.Split(v, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				out = append(out, addr)
			}
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, addr := range v {
			if addr = strings.TrimSpace(addr); addr != "" {
				out = append(out, addr)
			}
		}
	}
	return out
}

// searchQueryFromText pulls the search terms out of a command like
// "search my emails for invoices from acme".
func searchQueryFromText(text string) string {
	return extractAfter(text, "for", "about", "mentioning")
}

// extractAfter returns the text following the first marker found, trimmed
// of surrounding quotes and punctuation.
func extractAfter(text string, markers ...string) string {
	lower := strings.ToLower(text)
	for _, marker := range markers {
		idx := strings.Index(lower, " "+marker+" ")
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(text[idx+len(marker)+2:])
		return strings.Trim(rest, `"'.`)
	}
	return ""
}

// cutAt truncates text at the first marker found.
func cutAt(text string, markers ...string) string {
	lower := strings.ToLower(text)
	for _, marker := range markers {
		if idx := strings.Index(lower, " "+marker+" "); idx >= 0 {
			return strings.TrimSpace(text[:idx])
		}
	}
	return text
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
