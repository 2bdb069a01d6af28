package notion

import (
	"regexp"
	"strings"
)

var trailingIDRe = regexp.MustCompile(`[0-9a-fA-F]{32}$`)

// ExtractID pulls a page, database or block id out of a Notion URL.
// Plain ids, with or without hyphens, pass through unchanged.
func ExtractID(idOrURL string) string {
	s := strings.TrimSpace(idOrURL)
	if !strings.Contains(s, "://") {
		return s
	}

	// Block anchors live in the fragment
	if i := strings.IndexByte(s, '#'); i >= 0 {
		if id := trailingIDRe.FindString(strings.ReplaceAll(s[i+1:], "-", "")); id != "" {
			return id
		}
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}

	// The id is the tail of the last path segment
	segment := s[strings.LastIndexByte(s, '/')+1:]
	if id := trailingIDRe.FindString(strings.ReplaceAll(segment, "-", "")); id != "" {
		return id
	}
	return idOrURL
}
