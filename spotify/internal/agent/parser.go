package agent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

// defaultSongCount is used when the request doesn't name one.
const defaultSongCount = 10

// namePatterns match explicit playlist naming, e.g. `a playlist called "Gym Mix"`.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)playlist\s+(?:called|named)\s+["']([^"']+)["']`),
	regexp.MustCompile(`(?i)(?:called|named)\s+["']([^"']+)["']`),
	regexp.MustCompile(`(?i)make\s+.*playlist\s+["']([^"']+)["']`),
	regexp.MustCompile(`(?i)create\s+.*["']([^"']+)["']\s*playlist`),
}

var songCountPattern = regexp.MustCompile(`(\d+)\s*songs?`)

// themeKeywords map request vocabulary onto the genres we search by.
// Order matters: more specific phrases come first.
var themeKeywords = []struct {
	keyword string
	genre   string
}{
	{"hip-hop", "hip-hop"},
	{"hip hop", "hip-hop"},
	{"rap", "hip-hop"},
	{"lo-fi", "chill"},
	{"lofi", "chill"},
	{"edm", "electronic"},
	{"electronic", "electronic"},
	{"rock", "rock"},
	{"pop", "pop"},
	{"chill", "chill"},
	{"workout", "electronic"},
	{"gym", "electronic"},
	{"exercise", "electronic"},
	{"fitness", "electronic"},
	{"study", "chill"},
	{"studying", "chill"},
	{"focus", "chill"},
	{"relax", "chill"},
	{"relaxing", "chill"},
	{"ambient", "chill"},
	{"party", "pop"},
	{"dance", "electronic"},
	{"driving", "rock"},
	{"road trip", "rock"},
	{"energy", "electronic"},
	{"upbeat", "pop"},
	{"mellow", "chill"},
	{"calm", "chill"},
	{"peaceful", "chill"},
}

var defaultNames = map[string]string{
	"hip-hop":    "Hip-Hop Vibes",
	"pop":        "Pop Hits",
	"rock":       "Rock Classics",
	"electronic": "Electronic Energy",
	"chill":      "Chill Vibes",
}

// searchQueries expand a genre into catalog searches that yield enough
// variety to fill a playlist.
var searchQueries = map[string][]string{
	"hip-hop":    {"hip hop rap drake kendrick lamar travis scott", "rap 2020..2024", "hip hop popular"},
	"electronic": {"electronic edm workout gym energy", "workout music", "edm hits"},
	"chill":      {"chill lofi acoustic relaxing study", "lofi hip hop", "acoustic chill"},
	"pop":        {"pop mainstream top hits popular", "pop hits 2020..2024", "top 40"},
	"rock":       {"rock alternative classic rock", "rock hits", "alternative rock"},
}

// parsePlaylistRequest pulls the playlist name, genre and size out of a
// natural-language command, falling back to hip-hop and a themed name.
func parsePlaylistRequest(text string) chatproto.PlaylistRequest {
	lower := strings.ToLower(text)

	req := chatproto.PlaylistRequest{SongCount: defaultSongCount}

	for _, pattern := range namePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			req.Name = titleCase(m[1])
			break
		}
	}

	for _, tk := range themeKeywords {
		if strings.Contains(lower, tk.keyword) {
			req.Genre = tk.genre
			break
		}
	}
	if req.Genre == "" {
		req.Genre = "hip-hop"
	}
	req.Mood = req.Genre

	if m := songCountPattern.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			if n < 1 {
				n = 1
			}
			if n > 50 {
				n = 50
			}
			req.SongCount = n
		}
	}

	if req.Name == "" {
		switch {
		case containsAny(lower, "workout", "gym", "exercise"):
			req.Name = "Workout Vibes"
		case containsAny(lower, "study", "focus"):
			req.Name = "Study Flow"
		case strings.Contains(lower, "party"):
			req.Name = "Party Mix"
		case containsAny(lower, "relax", "calm"):
			req.Name = "Relaxing Sounds"
		default:
			req.Name = defaultNames[req.Genre]
		}
	}

	return req
}

// genreSearches returns the catalog queries for a genre, with the raw
// genre as a fallback for anything unmapped.
func genreSearches(genre string) []string {
	if queries, ok := searchQueries[strings.ToLower(genre)]; ok {
		return queries
	}
	return []string{genre}
}

// titleCase capitalizes each word of a playlist name.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
