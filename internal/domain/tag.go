package domain

import "strings"

const (
	// MaxEventTags caps the number of tags on one event.
	MaxEventTags = 20
	MaxTagLength = 50
)

// NormalizeTags lowercases and trims tag names, drops blanks and keeps the
// first occurrence of each name. Events store and match tags in this form.
func NormalizeTags(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
