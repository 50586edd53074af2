package agent

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

// defaultDuration is used when the request doesn't say how long.
const defaultDuration = time.Hour

var (
	timePattern     = regexp.MustCompile(`(?i)at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	durationPattern = regexp.MustCompile(`(?i)for\s+(\d+)\s*(hours?|hrs?|minutes?|mins?)`)
)

// parseEventRequest pulls an event out of a natural-language command like
// "schedule a meeting tomorrow at 3pm with bob@example.com about the roadmap".
// now anchors relative dates.
func parseEventRequest(text string, now time.Time) chatproto.EventRequest {
	lower := strings.ToLower(text)

	req := chatproto.EventRequest{
		Summary: extractSummary(text),
	}

	day := now
	switch {
	case strings.Contains(lower, "tomorrow"):
		day = now.AddDate(0, 0, 1)
	case strings.Contains(lower, "next week"):
		day = now.AddDate(0, 0, 7)
	}

	// Default to the next full hour when no time is named.
	start := time.Date(day.Year(), day.Month(), day.Day(), now.Hour()+1, 0, 0, 0, now.Location())
	if m := timePattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		switch strings.ToLower(m[3]) {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		start = time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
	}
	req.Start = start

	duration := defaultDuration
	if m := durationPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if strings.HasPrefix(strings.ToLower(m[2]), "m") {
			duration = time.Duration(n) * time.Minute
		} else {
			duration = time.Duration(n) * time.Hour
		}
	}
	req.End = start.Add(duration)

	req.Attendees = emailPattern.FindAllString(text, -1)
	return req
}

// extractSummary pulls the event title out of the command, preferring an
// explicit "about ..." or quoted clause.
func extractSummary(text string) string {
	lower := strings.ToLower(text)

	for _, marker := range []string{" about ", " called ", " titled ", " for "} {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(text[idx+len(marker):])
		rest = strings.Trim(rest, `"'.`)
		rest = cutAt(rest, "tomorrow", "today", "next week", "at", "with", "for")
		// "for 45 minutes" is a duration, not a title.
		if rest != "" && (rest[0] < '0' || rest[0] > '9') {
			return rest
		}
	}

	switch {
	case strings.Contains(lower, "meeting"):
		return "Meeting"
	case strings.Contains(lower, "appointment"):
		return "Appointment"
	case strings.Contains(lower, "call"):
		return "Call"
	}
	return "New event"
}

// cutAt truncates text at the first marker found.
func cutAt(text string, markers ...string) string {
	lower := strings.ToLower(text)
	for _, marker := range markers {
		if idx := strings.Index(lower, " "+marker+" "); idx >= 0 {
			return strings.TrimSpace(text[:idx])
		}
	}
	return strings.TrimSpace(text)
}
