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
	"github.com/vocal-agents/vocal-stack/spotify/internal/client"
)

func newFakeSpotify(t *testing.T) (*Agent, *httptest.Server, *[]string) {
	t.Helper()
	var addedURIs []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/me":
			json.NewEncoder(w).Encode(client.User{ID: "user-1", DisplayName: "Test User"})
		case r.URL.Path == "/users/user-1/playlists":
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			json.NewEncoder(w).Encode(client.Playlist{
				ID:           "pl-1",
				Name:         body["name"].(string),
				ExternalURLs: map[string]string{"spotify": "https://open.spotify.com/playlist/pl-1"},
			})
		case r.URL.Path == "/search":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"tracks": map[string]interface{}{
					"items": []client.Track{
						{Name: "Song A", URI: "spotify:track:a", Artists: []client.Artist{{Name: "Artist A"}}},
						{Name: "Song B", URI: "spotify:track:b", Artists: []client.Artist{{Name: "Artist B"}}},
					},
				},
			})
		case r.URL.Path == "/playlists/pl-1/tracks":
			var body struct {
				URIs []string `json:"uris"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			addedURIs = body.URIs
			w.Write([]byte(`{"snapshot_id":"snap"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)

	a := New(client.NewClient(srv.Client(), client.WithBaseURL(srv.URL)))
	return a, srv, &addedURIs
}

func TestHandleCreatePlaylist(t *testing.T) {
	a, _, added := newFakeSpotify(t)

	task := chatproto.NewTask(chatproto.IntentCreatePlaylist, map[string]interface{}{
		"text": `create a chill playlist called "Evening Wind Down" with 2 songs`,
	})

	result := a.HandleTask(context.Background(), task)
	require.True(t, result.Success, result.Message)
	assert.Contains(t, result.Message, "Evening Wind Down")
	assert.Contains(t, result.Message, "https://open.spotify.com/playlist/pl-1")
	assert.Equal(t, []string{"spotify:track:a", "spotify:track:b"}, *added)
	assert.Equal(t, "pl-1", result.Data["playlist_id"])
}

func TestHandleSearchMusic(t *testing.T) {
	a, _, _ := newFakeSpotify(t)

	task := chatproto.NewTask(chatproto.IntentSearchMusic, map[string]interface{}{
		"text": "find songs by Artist A",
	})

	result := a.HandleTask(context.Background(), task)
	require.True(t, result.Success, result.Message)
	assert.Contains(t, result.Message, "Song A - Artist A")
	assert.Contains(t, result.Message, "Song B - Artist B")
}

func TestHandleSearchMusicNoQuery(t *testing.T) {
	a, _, _ := newFakeSpotify(t)

	task := chatproto.NewTask(chatproto.IntentSearchMusic, map[string]interface{}{
		"text": "play some music",
	})
	result := a.HandleTask(context.Background(), task)
	assert.False(t, result.Success)
}

func TestHandleUnknownIntent(t *testing.T) {
	a, _, _ := newFakeSpotify(t)

	result := a.HandleTask(context.Background(), chatproto.NewTask("send_email", nil))
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "send_email")
}
