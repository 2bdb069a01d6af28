// Package v3 speaks the internal session API's vocabulary: the
// [[value]] rich-text encoding, the pointer/path/command/args operation
// language, and the block-type names the record store understands.
// Builders here are pure; the transport submits what they produce as
// atomic transactions.
package v3

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kairyu/notionctl/internal/notion/types"
)

// Decoration is one formatting or anchor token attached to a span, e.g.
// ["b"] for bold or ["m", discussionID] for an inline-comment anchor.
type Decoration []string

// Span is one run of text with its decorations. It marshals to the
// store's nested-array form: ["text"] or ["text", [[...], ...]].
type Span struct {
	Text        string
	Decorations []Decoration
}

// RichText is an ordered sequence of spans; the empty value encodes as [].
type RichText []Span

// Text wraps a plain string as a single-span rich text value: [[s]].
func Text(s string) RichText {
	return RichText{{Text: s}}
}

// Plain returns the concatenated span text.
func (rt RichText) Plain() string {
	var sb strings.Builder
	for _, s := range rt {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// MarshalJSON encodes the nested-array wire form.
func (s Span) MarshalJSON() ([]byte, error) {
	if len(s.Decorations) == 0 {
		return json.Marshal([]any{s.Text})
	}
	return json.Marshal([]any{s.Text, s.Decorations})
}

// UnmarshalJSON decodes ["text"] or ["text", [[...], ...]]. Decorations
// whose tokens are not all strings (date mentions and the like) are
// dropped rather than failing the whole value.
func (s *Span) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("decode span: %w", err)
	}
	if len(parts) == 0 {
		return fmt.Errorf("decode span: empty array")
	}
	if err := json.Unmarshal(parts[0], &s.Text); err != nil {
		return fmt.Errorf("decode span text: %w", err)
	}
	s.Decorations = nil
	if len(parts) > 1 {
		var raw [][]json.RawMessage
		if err := json.Unmarshal(parts[1], &raw); err != nil {
			return nil
		}
		for _, dec := range raw {
			tokens := make(Decoration, 0, len(dec))
			ok := true
			for _, tok := range dec {
				var str string
				if err := json.Unmarshal(tok, &str); err != nil {
					ok = false
					break
				}
				tokens = append(tokens, str)
			}
			if ok {
				s.Decorations = append(s.Decorations, tokens)
			}
		}
	}
	return nil
}

// SpliceAnchor returns a copy of rt with a discussion-anchor decoration
// ["m", discussionID] applied to the given occurrence of substring in
// the concatenated plain text. Occurrence is 1-based; values below 1
// select the first match. Spans are split at the match boundaries so
// existing decorations outside the range are untouched.
func SpliceAnchor(rt RichText, substring string, occurrence int, discussionID string) (RichText, error) {
	if substring == "" {
		return nil, fmt.Errorf("splice anchor: %w: empty substring", types.ErrInvalidInput)
	}
	if occurrence < 1 {
		occurrence = 1
	}

	plain := rt.Plain()
	start := -1
	from := 0
	for n := 0; n < occurrence; n++ {
		idx := strings.Index(plain[from:], substring)
		if idx < 0 {
			return nil, fmt.Errorf("splice anchor: occurrence %d of %q not found", occurrence, substring)
		}
		start = from + idx
		from = start + len(substring)
	}
	end := start + len(substring)

	anchor := Decoration{"m", discussionID}
	var out RichText
	offset := 0
	for _, span := range rt {
		spanStart := offset
		spanEnd := offset + len(span.Text)
		offset = spanEnd

		// Entirely outside the match range.
		if spanEnd <= start || spanStart >= end {
			out = append(out, span)
			continue
		}

		lo := max(start, spanStart)
		hi := min(end, spanEnd)

		if lo > spanStart {
			out = append(out, Span{Text: span.Text[:lo-spanStart], Decorations: span.Decorations})
		}
		mid := Span{Text: span.Text[lo-spanStart : hi-spanStart]}
		mid.Decorations = append(append([]Decoration{}, span.Decorations...), anchor)
		out = append(out, mid)
		if hi < spanEnd {
			out = append(out, Span{Text: span.Text[hi-spanStart:], Decorations: span.Decorations})
		}
	}
	return out, nil
}
