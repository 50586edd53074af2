package messaging

import "fmt"

// Subject constants for the Vocal Stack agent bus.
// Follow the pattern: agents.{name}.{kind}
const (
	// SubjectAnnounce carries agent startup announcements (name, address,
	// capabilities) so clients can discover live agents.
	SubjectAnnounce = "agents.announce"
)

// ChatSubject returns the subject an agent listens on for chat-protocol
// messages. Example: agents.mailbox.chat
func ChatSubject(agent string) string {
	return fmt.Sprintf("agents.%s.chat", agent)
}

// TaskSubject returns the subject an agent listens on for typed task
// requests. Example: agents.gmail.task
func TaskSubject(agent string) string {
	return fmt.Sprintf("agents.%s.task", agent)
}

// QueueGroup returns the queue group name for an agent's worker pool.
// Replicas in the same group share messages (each request handled once).
func QueueGroup(agent string) string {
	return agent + "-workers"
}
