package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "agents.mailbox.chat", ChatSubject("mailbox"))
	assert.Equal(t, "agents.gmail.task", TaskSubject("gmail"))
	assert.Equal(t, "spotify-workers", QueueGroup("spotify"))
}

func TestMessageSender(t *testing.T) {
	msg := &Message{Metadata: map[string]string{HeaderSender: "agent1caller"}}
	assert.Equal(t, "agent1caller", msg.Sender())

	assert.Empty(t, (&Message{}).Sender())
	assert.Empty(t, (&Message{Metadata: map[string]string{}}).Sender())
}
