// Package agent implements the spotify service agent. It turns routed
// music tasks into Spotify Web API calls.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/logging"
	"github.com/vocal-agents/vocal-stack/spotify/internal/client"
)

// searchResultLimit caps how many tracks a music search reports back.
const searchResultLimit = 8

type Agent struct {
	spotify *client.Client
	logger  *logging.Logger
}

func New(spotify *client.Client) *Agent {
	return &Agent{
		spotify: spotify,
		logger:  logging.Default().With(logging.Agent("spotify")),
	}
}

// HandleTask executes one routed music task.
func (a *Agent) HandleTask(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	switch task.Intent {
	case chatproto.IntentCreatePlaylist:
		return a.createPlaylist(ctx, task)
	case chatproto.IntentSearchMusic:
		return a.searchMusic(ctx, task)
	default:
		return fail(task, fmt.Sprintf("spotify agent does not handle intent %q", task.Intent))
	}
}

func (a *Agent) createPlaylist(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	req := parsePlaylistRequest(stringParam(task, "text"))
	if name := stringParam(task, "playlist_name"); name != "" {
		req.Name = name
	}

	a.logger.Info("creating playlist",
		logging.Intent(task.Intent),
	)

	user, err := a.spotify.CurrentUser(ctx)
	if err != nil {
		a.logger.Error("failed to look up spotify user", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to reach Spotify: %v", err))
	}

	description := fmt.Sprintf("Auto-generated %s playlist created by Vocal Agent", req.Genre)
	playlist, err := a.spotify.CreatePlaylist(ctx, user.ID, req.Name, description, true)
	if err != nil {
		a.logger.Error("failed to create playlist", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to create playlist: %v", err))
	}

	tracks := a.collectTracks(ctx, req)
	if len(tracks) > 0 {
		uris := make([]string, len(tracks))
		for i, t := range tracks {
			uris[i] = t.URI
		}
		if err := a.spotify.AddTracks(ctx, playlist.ID, uris); err != nil {
			a.logger.Error("failed to add tracks", logging.Error(err))
			return fail(task, fmt.Sprintf("created playlist %q but failed to fill it: %v", playlist.Name, err))
		}
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   formatPlaylistReply(playlist, req.Genre, tracks),
		Data: map[string]interface{}{
			"playlist_id":  playlist.ID,
			"playlist_url": playlist.URL(),
			"track_count":  len(tracks),
		},
	}
}

// collectTracks gathers up to req.SongCount tracks across the genre's
// search queries, skipping queries that fail.
func (a *Agent) collectTracks(ctx context.Context, req chatproto.PlaylistRequest) []client.Track {
	var tracks []client.Track
	seen := make(map[string]bool)

	for _, query := range genreSearches(req.Genre) {
		if len(tracks) >= req.SongCount {
			break
		}
		results, err := a.spotify.SearchTracks(ctx, query, req.SongCount)
		if err != nil {
			a.logger.Warn("track search failed", logging.Error(err))
			continue
		}
		for _, t := range results {
			if len(tracks) >= req.SongCount {
				break
			}
			if seen[t.URI] {
				continue
			}
			seen[t.URI] = true
			tracks = append(tracks, t)
		}
	}
	return tracks
}

func (a *Agent) searchMusic(ctx context.Context, task chatproto.Task) chatproto.TaskResult {
	query := stringParam(task, "query")
	if query == "" {
		query = musicQueryFromText(stringParam(task, "text"))
	}
	if query == "" {
		return fail(task, "could not work out what music to search for")
	}

	tracks, err := a.spotify.SearchTracks(ctx, query, searchResultLimit)
	if err != nil {
		a.logger.Error("music search failed", logging.Error(err))
		return fail(task, fmt.Sprintf("failed to search for music: %v", err))
	}
	if len(tracks) == 0 {
		return chatproto.TaskResult{
			RequestID: task.RequestID,
			Success:   true,
			Message:   fmt.Sprintf("Sorry, I couldn't find any songs matching %q. Try different artists or song titles.", query),
		}
	}

	lines := make([]string, 0, len(tracks)+1)
	lines = append(lines, fmt.Sprintf("Found %d results for %q:", len(tracks), query))
	for i, t := range tracks {
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, t.Name, t.ArtistNames()))
	}

	return chatproto.TaskResult{
		RequestID: task.RequestID,
		Success:   true,
		Message:   strings.Join(lines, "\n"),
		Data:      map[string]interface{}{"count": len(tracks)},
	}
}

func formatPlaylistReply(playlist *client.Playlist, genre string, tracks []client.Track) string {
	lines := []string{
		fmt.Sprintf("I've created your playlist %q with %d songs!", playlist.Name, len(tracks)),
	}
	if genre != "" {
		lines = append(lines, fmt.Sprintf("Genre: %s", genre))
	}
	if len(tracks) > 0 {
		lines = append(lines, "Tracklist:")
		shown := tracks
		if len(shown) > 10 {
			shown = shown[:10]
		}
		for i, t := range shown {
			lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, t.Name, t.ArtistNames()))
		}
		if len(tracks) > 10 {
			lines = append(lines, fmt.Sprintf("... and %d more songs!", len(tracks)-10))
		}
	}
	if url := playlist.URL(); url != "" {
		lines = append(lines, fmt.Sprintf("Playlist URL: %s", url))
	}
	return strings.Join(lines, "\n")
}

// musicQueryFromText pulls the search terms out of a command like
// "find songs by Daft Punk".
func musicQueryFromText(text string) string {
	lower := strings.ToLower(text)
	for _, marker := range []string{" songs by ", " music by ", " tracks by ", " for ", " find "} {
		if idx := strings.Index(lower, marker); idx >= 0 {
			return strings.TrimSpace(text[idx+len(marker):])
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

func fail(task chatproto.Task, msg string) chatproto.TaskResult {
	return chatproto.TaskResult{RequestID: task.RequestID, Success: false, Message: msg}
}
