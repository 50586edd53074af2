package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/gmail/internal/client"
)

func TestEmailRequestFromText(t *testing.T) {
	task := chatproto.NewTask(chatproto.IntentSendEmail, map[string]interface{}{
		"text": `send an email to bob@example.com about lunch plans saying "see you at noon"`,
	})

	req, from := emailRequest(task)
	assert.Empty(t, from)
	assert.Equal(t, []string{"bob@example.com"}, req.To)
	assert.Equal(t, "lunch plans", req.Subject)
	assert.Equal(t, "see you at noon", req.Body)
}

func TestEmailRequestExplicitParamsWin(t *testing.T) {
	task := chatproto.NewTask(chatproto.IntentSendEmail, map[string]interface{}{
		"text":    "send an email to someone@else.com",
		"to":      "alice@example.com",
		"cc":      "carol@example.com, dave@example.com",
		"from":    "owner@example.com",
		"subject": "Weekly sync",
		"body":    "Moved to Friday.",
	})

	req, from := emailRequest(task)
	assert.Equal(t, "owner@example.com", from)
	assert.Equal(t, []string{"alice@example.com"}, req.To)
	assert.Equal(t, []string{"carol@example.com", "dave@example.com"}, req.Cc)
	assert.Equal(t, "Weekly sync", req.Subject)
	assert.Equal(t, "Moved to Friday.", req.Body)
}

func TestEmailRequestMultipleRecipientsFromText(t *testing.T) {
	task := chatproto.NewTask(chatproto.IntentSendEmail, map[string]interface{}{
		"text": "send an email to bob@example.com and alice@example.com saying reach me at home@example.com",
	})

	req, _ := emailRequest(task)
	assert.Equal(t, []string{"bob@example.com", "alice@example.com"}, req.To)
	assert.Equal(t, "reach me at home@example.com", req.Body)
}

func TestEmailRequestRecipientListParam(t *testing.T) {
	task := chatproto.NewTask(chatproto.IntentSendEmail, map[string]interface{}{
		"to": []interface{}{"bob@example.com", " alice@example.com "},
	})

	req, _ := emailRequest(task)
	assert.Equal(t, []string{"bob@example.com", "alice@example.com"}, req.To)
}

func TestSendEmailWithoutRecipientFails(t *testing.T) {
	a := New(client.NewClient(http.DefaultClient))

	task := chatproto.NewTask(chatproto.IntentSendEmail, map[string]interface{}{
		"text": "send an email saying hello",
	})
	result := a.HandleTask(context.Background(), task)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "recipient")
}

func TestHandleSendEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me/profile":
			json.NewEncoder(w).Encode(client.Profile{EmailAddress: "owner@example.com"})
		case "/users/me/messages/send":
			json.NewEncoder(w).Encode(client.SentMessage{ID: "sent-42"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	a := New(client.NewClient(srv.Client(), client.WithBaseURL(srv.URL)))
	task := chatproto.NewTask(chatproto.IntentSendEmail, map[string]interface{}{
		"text": "send an email to bob@example.com saying the deploy is done",
	})

	result := a.HandleTask(context.Background(), task)
	require.True(t, result.Success, result.Message)
	assert.Contains(t, result.Message, "bob@example.com")
	assert.Contains(t, result.Message, "sent-42")
	assert.Equal(t, task.RequestID, result.RequestID)
	assert.Equal(t, "sent-42", result.Data["message_id"])
	assert.Equal(t, http.StatusOK, result.Data["status_code"])
	assert.Equal(t, true, result.Data["success"])
}

func TestHandleSendEmailSurfacesVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me/profile":
			json.NewEncoder(w).Encode(client.Profile{EmailAddress: "owner@example.com"})
		case "/users/me/messages/send":
			http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusForbidden)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	a := New(client.NewClient(srv.Client(), client.WithBaseURL(srv.URL)))
	task := chatproto.NewTask(chatproto.IntentSendEmail, map[string]interface{}{
		"text": "send an email to bob@example.com saying hello",
	})

	result := a.HandleTask(context.Background(), task)
	require.False(t, result.Success)
	assert.Contains(t, result.Message, "failed to send email")
	assert.Equal(t, http.StatusForbidden, result.Data["status_code"])
	assert.Equal(t, false, result.Data["success"])
	assert.Contains(t, result.Data["error_message"], "quota exceeded")
}

func TestHandleReadEmails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me/messages":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"messages": []client.MessageRef{{ID: "m1"}},
			})
		case "/users/me/messages/m1":
			w.Write([]byte(`{"id":"m1","snippet":"hi there","payload":{"headers":[
				{"name":"From","value":"alice@example.com"},
				{"name":"Subject","value":"Hello"}]}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	a := New(client.NewClient(srv.Client(), client.WithBaseURL(srv.URL)))
	task := chatproto.NewTask(chatproto.IntentReadEmails, map[string]interface{}{
		"text": "read my recent emails",
	})

	result := a.HandleTask(context.Background(), task)
	require.True(t, result.Success, result.Message)
	assert.Contains(t, result.Message, "alice@example.com")
	assert.Contains(t, result.Message, "Hello")
}

func TestHandleSearchEmailsNeedsQuery(t *testing.T) {
	a := New(client.NewClient(http.DefaultClient))

	task := chatproto.NewTask(chatproto.IntentSearchEmails, map[string]interface{}{
		"text": "search my emails",
	})
	result := a.HandleTask(context.Background(), task)
	assert.False(t, result.Success)
}

func TestHandleUnknownIntent(t *testing.T) {
	a := New(client.NewClient(http.DefaultClient))

	result := a.HandleTask(context.Background(), chatproto.NewTask("make_coffee", nil))
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "make_coffee")
}
