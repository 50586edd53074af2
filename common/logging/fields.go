package logging

import "log/slog"

// Common field names for consistent logging across services.
const (
	FieldService      = "service"
	FieldAgent        = "agent"
	FieldAddress      = "address"
	FieldConversation = "conversation_id"
	FieldMessageID    = "message_id"
	FieldIntent       = "intent"
	FieldModel        = "model"
	FieldSubject      = "subject"
	FieldSender       = "sender"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatus       = "status"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Agent returns a slog attribute for the agent name.
func Agent(name string) slog.Attr {
	return slog.String(FieldAgent, name)
}

// Address returns a slog attribute for an agent bus address.
func Address(addr string) slog.Attr {
	return slog.String(FieldAddress, addr)
}

// Conversation returns a slog attribute for a conversation ID.
func Conversation(id string) slog.Attr {
	return slog.String(FieldConversation, id)
}

// MessageID returns a slog attribute for a chat message ID.
func MessageID(id string) slog.Attr {
	return slog.String(FieldMessageID, id)
}

// Intent returns a slog attribute for a task intent.
func Intent(intent string) slog.Attr {
	return slog.String(FieldIntent, intent)
}

// Model returns a slog attribute for a completion model name.
func Model(model string) slog.Attr {
	return slog.String(FieldModel, model)
}

// Subject returns a slog attribute for a bus subject.
func Subject(subject string) slog.Attr {
	return slog.String(FieldSubject, subject)
}

// Sender returns a slog attribute for a message sender address.
func Sender(addr string) slog.Attr {
	return slog.String(FieldSender, addr)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
