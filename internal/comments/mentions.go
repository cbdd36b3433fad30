package comments

import (
	"regexp"
	"strings"

	"github.com/kingrea/forumterm/internal/forum"
)

var mentionPattern = regexp.MustCompile(`(^|[^\w@])@([A-Za-z0-9_.]{1,32})`)

// ExtractMentions returns the distinct @handles in text, in order of first
// appearance and without the leading @.
func ExtractMentions(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		handle := strings.TrimRight(m[2], ".")
		key := strings.ToLower(handle)
		if handle == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, handle)
	}
	return out
}

// Resolver maps handles to forum members.
type Resolver struct {
	byHandle map[string]forum.UserRef
}

func NewResolver(members []forum.UserRef) *Resolver {
	r := &Resolver{byHandle: make(map[string]forum.UserRef, len(members))}
	for _, m := range members {
		if h := strings.ToLower(strings.TrimSpace(m.Username)); h != "" {
			r.byHandle[h] = m
		}
	}
	return r
}

// Resolve splits the handles in text into known members and unknown handles.
func (r *Resolver) Resolve(text string) (found []forum.UserRef, unknown []string) {
	for _, h := range ExtractMentions(text) {
		if u, ok := r.byHandle[strings.ToLower(h)]; ok {
			found = append(found, u)
			continue
		}
		unknown = append(unknown, h)
	}
	return found, unknown
}
