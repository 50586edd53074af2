package agent

import (
	"strings"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

// noteParams carries the fields a create_note task resolved to.
type noteParams struct {
	Title    string
	Content  string
	Tags     []string
	Category string
}

// noteRequest builds the note fields from the task. Explicit parameters
// win; otherwise title and content are pulled out of the natural-language
// command.
func noteRequest(task chatproto.Task) noteParams {
	req := noteParams{
		Title:    stringParam(task, "title"),
		Content:  stringParam(task, "content"),
		Category: stringParam(task, "category"),
		Tags:     stringList(task, "tags"),
	}
	if req.Title != "" && req.Content != "" {
		return req
	}

	title, content := parseCreateCommand(stringParam(task, "text"))
	if req.Title == "" {
		req.Title = title
	}
	if req.Content == "" {
		req.Content = content
	}
	return req
}

// contentMarkers introduce the note body in spoken commands.
var contentMarkers = []string{" saying ", " that says ", " that "}

// parseCreateCommand extracts title and content from commands like
// "create a note titled Shopping saying milk and eggs", "take a note:
// call the plumber" or "note that the wifi password changed".
func parseCreateCommand(text string) (title, content string) {
	lower := strings.ToLower(text)

	if idx := titleMarkerIndex(lower); idx >= 0 {
		rest := text[idx:]
		restLower := lower[idx:]
		for _, marker := range contentMarkers {
			if m := strings.Index(restLower, marker); m >= 0 {
				title = strings.Trim(strings.TrimSpace(rest[:m]), `"'`)
				content = strings.Trim(strings.TrimSpace(rest[m+len(marker):]), `"'.`)
				return title, content
			}
		}
		if m := strings.Index(rest, ":"); m >= 0 {
			return strings.Trim(strings.TrimSpace(rest[:m]), `"'`),
				strings.Trim(strings.TrimSpace(rest[m+1:]), `"'.`)
		}
		// A bare title with no body: use it for both.
		title = strings.Trim(strings.TrimSpace(rest), `"'.`)
		return title, title
	}

	if idx := strings.Index(lower, ":"); idx >= 0 {
		return "", strings.Trim(strings.TrimSpace(text[idx+1:]), `"'.`)
	}
	for _, marker := range contentMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 {
			return "", strings.Trim(strings.TrimSpace(text[idx+len(marker):]), `"'.`)
		}
	}

	// No structure found: everything after the command verb is the body.
	return "", stripLeadingFiller(text)
}

// titleMarkerIndex locates the word following "titled"/"called"/"named".
func titleMarkerIndex(lower string) int {
	for _, marker := range []string{" titled ", " called ", " named "} {
		if idx := strings.Index(lower, marker); idx >= 0 {
			return idx + len(marker)
		}
	}
	return -1
}

// createFiller lists the leading command words stripped when the whole
// text is the note body.
var createFiller = map[string]bool{
	"create": true, "take": true, "make": true, "add": true, "write": true,
	"a": true, "new": true, "note": true, "down": true, "please": true,
}

func stripLeadingFiller(text string) string {
	words := strings.Fields(text)
	for len(words) > 0 && createFiller[strings.ToLower(words[0])] {
		words = words[1:]
	}
	return strings.Trim(strings.Join(words, " "), `"'.`)
}

// searchQuery pulls the search terms out of a search_notes task.
func searchQuery(task chatproto.Task) string {
	if q := stringParam(task, "query"); q != "" {
		return q
	}

	text := stringParam(task, "text")
	lower := strings.ToLower(text)
	for _, marker := range []string{" about ", " matching ", " containing ", " mentioning ", " for "} {
		if idx := strings.Index(lower, marker); idx >= 0 {
			return strings.Trim(strings.TrimSpace(text[idx+len(marker):]), `"'.`)
		}
	}
	return ""
}

// deleteTarget pulls the note title out of a spoken delete command.
func deleteTarget(text string) string {
	lower := strings.ToLower(text)
	for _, marker := range []string{" titled ", " called ", " named ", " note "} {
		if idx := strings.Index(lower, marker); idx >= 0 {
			return strings.Trim(strings.TrimSpace(text[idx+len(marker):]), `"'.`)
		}
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

// stringList reads a parameter that may arrive as a single comma-separated
// string or a list.
func stringList(task chatproto.Task, key string) []string {
	if task.Parameters == nil {
		return nil
	}
	var out []string
	switch v := task.Parameters[key].(type) {
	case string:
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, item := range v {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
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
