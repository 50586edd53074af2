// Package agent implements the calendar service agent. It turns routed
// scheduling tasks into Google Calendar API calls.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vocal-agents/vocal-stack/calendar/internal/client"
	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/logging"
)

// listLimit caps how many upcoming events a listing reports.
const listLimit = 10

type Agent struct {
	calendar *client.Client
	logger   *logging.Logger
	now      func() time.Time
}

func New(calendar *client.Client) *Agent {
	return &Agent{
		calendar: calendar,
		logger:   logging.Default().With(logging.Agent("calendar")),
		now:      time.Now,
	}
}

// HandleTask executes one routed calendar task.
func (a *Agent) HandleTask(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	switch task.Intent {
	case chatproto.IntentCreateEvent:
		return a.createEvent(ctx, task)
	case chatproto.IntentListEvents:
		return a.listEvents(ctx, task)
	default:
		return fail(task, fmt.Sprintf("calendar agent does not handle intent %q", task.Intent))
	}
}

func (a *Agent) createEvent(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	req := parseEventRequest(stringParam(task, "text"), a.now())
	if summary := stringParam(task, "summary"); summary != "" {
		req.Summary = summary
	}

	event := client.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       client.EventTime{DateTime: req.Start},
		End:         client.EventTime{DateTime: req.End},
	}
	for _, email := range req.Attendees {
		event.Attendees = append(event.Attendees, client.Attendee{Email: email})
	}

	a.logger.Info("creating event", logging.Intent(task.Intent))

	created, err := a.calendar.CreateEvent(ctx, event)
	if err != nil {
		a.logger.Error("failed to create event", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to create the event: %v", err))
	}

	msg := fmt.Sprintf("Scheduled %q for %s", created.Summary, req.Start.Format("Monday, Jan 2 at 3:04 PM"))
	if len(req.Attendees) > 0 {
		msg += fmt.Sprintf(" with %s", strings.Join(req.Attendees, ", "))
	}
	if created.HTMLLink != "" {
		msg += fmt.Sprintf(". Link: %s", created.HTMLLink)
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   msg,
		Data:      map[string]interface{}{"event_id": created.ID},
	}
}

func (a *Agent) listEvents(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	events, err := a.calendar.ListEvents(ctx, a.now(), listLimit)
	if err != nil {
		a.logger.Error("failed to list events", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to read your calendar: %v", err))
	}
	if len(events) == 0 {
		return chatproto.TaskResult{RequestID: task.RequestID, Success: true, Message: "Your calendar is clear."}
	}

	lines := make([]string, 0, len(events)+1)
	lines = append(lines, fmt.Sprintf("You have %d upcoming events:", len(events)))
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("- %s on %s", ev.Summary, ev.Start.DateTime.Format("Monday, Jan 2 at 3:04 PM")))
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   strings.Join(lines, "\n"),
		Data:      map[string]interface{}{"count": len(events)},
	}
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
