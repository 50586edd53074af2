// Package agent implements the notes service agent: voice commands become
// create/search/list/delete operations on the note store.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/logging"
	"github.com/vocal-agents/vocal-stack/notes/internal/store"
)

// defaultListLimit is how many notes a listing shows when the command
// does not say.
const defaultListLimit = 10

// defaultTitle names notes created without one.
const defaultTitle = "New Note"

type Agent struct {
	store  store.Store
	logger *logging.Logger
	now    func() time.Time
}

func New(s store.Store) *Agent {
	return &Agent{
		store:  s,
		logger: logging.Default().With(logging.Agent("notes")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// HandleTask executes one routed notes task.
func (a *Agent) HandleTask(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	switch task.Intent {
	case chatproto.IntentCreateNote:
		return a.createNote(ctx, task)
	case chatproto.IntentListNotes:
		return a.listNotes(ctx, task)
	case chatproto.IntentSearchNotes:
		return a.searchNotes(ctx, task)
	case chatproto.IntentDeleteNote:
		return a.deleteNote(ctx, task)
	default:
		return fail(task, fmt.Sprintf("notes agent does not handle intent %q", task.Intent))
	}
}

func (a *Agent) createNote(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	req := noteRequest(task)
	if req.Content == "" {
		return fail(task, "could not work out what the note should say")
	}
	if req.Title == "" {
		req.Title = defaultTitle
	}

	now := a.now()
	note := chatproto.Note{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		Category:  req.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	a.logger.Info("creating note", logging.Intent(task.Intent), logging.Subject(note.Title))

	if err := a.store.Save(ctx, note); err != nil {
		a.logger.Error("failed to save note", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to save the note: %v", err))
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   fmt.Sprintf("Note %q created successfully", note.Title),
		Data:      map[string]interface{}{"note_id": note.ID, "title": note.Title},
	}
}

func (a *Agent) listNotes(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	limit := intParam(task, "limit", defaultListLimit)

	notes, err := a.store.List(ctx, limit)
	if err != nil {
		a.logger.Error("failed to list notes", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to list notes: %v", err))
	}
	if len(notes) == 0 {
		return chatproto.TaskResult{RequestID: task.RequestID, Success: true, Message: "You have no notes yet."}
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   fmt.Sprintf("Found %d recent notes:%s", len(notes), renderNotes(notes)),
		Data:      map[string]interface{}{"count": len(notes)},
	}
}

func (a *Agent) searchNotes(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	query := searchQuery(task)
	if query == "" {
		return fail(task, "could not work out what to search for (try \"find notes about the launch\")")
	}

	notes, err := a.store.Search(ctx, query)
	if err != nil {
		a.logger.Error("failed to search notes", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to search notes: %v", err))
	}
	if len(notes) == 0 {
		return chatproto.TaskResult{
			RequestID: task.RequestID,
			Success:   true,
			Message:   fmt.Sprintf("No notes matching %q.", query),
		}
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   fmt.Sprintf("Found %d notes matching %q:%s", len(notes), query, renderNotes(notes)),
		Data:      map[string]interface{}{"count": len(notes), "query": query},
	}
}

func (a *Agent) deleteNote(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	id := stringParam(task, "id")
	title := stringParam(task, "title")
	if title == "" {
		title = deleteTarget(stringParam(task, "text"))
	}

	if id == "" {
		if title == "" {
			return fail(task, "could not work out which note to delete (say its title)")
		}
		match, err := a.findByTitle(ctx, title)
		if err != nil {
			return fail(task, fmt.Sprintf("failed to look up note %q: %v", title, err))
		}
		if match == nil {
			return fail(task, fmt.Sprintf("no note titled %q", title))
		}
		id = match.ID
	}

	existed, err := a.store.Delete(ctx, id)
	if err != nil {
		a.logger.Error("failed to delete note", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to delete the note: %v", err))
	}
	if !existed {
		return fail(task, "that note does not exist (it may already be deleted)")
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   "Note deleted successfully",
		Data:      map[string]interface{}{"note_id": id},
	}
}

// findByTitle returns the newest note whose title matches, ignoring case.
func (a *Agent) findByTitle(ctx context.Context, title string) (*chatproto.Note, error) {
	notes, err := a.store.Search(ctx, title)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		if strings.EqualFold(notes[i].Title, title) {
			return &notes[i], nil
		}
	}
	// Fall back to the best partial match.
	if len(notes) > 0 {
		return &notes[0], nil
	}
	return nil, nil
}

// renderNotes formats a note list for the chat reply, one line per note.
func renderNotes(notes []chatproto.Note) string {
	var b strings.Builder
	for _, note := range notes {
		snippet := note.Content
		if len(snippet) > 60 {
			snippet = snippet[:57] + "..."
		}
		fmt.Fprintf(&b, "\n- %s (%s): %s", note.Title, note.UpdatedAt.Format("Jan 2"), snippet)
	}
	return b.String()
}

func fail(task chatproto.Task, msg string) chatproto.TaskResult {
	return chatproto.TaskResult{RequestID: task.RequestID, Success: false, Message: msg}
}
