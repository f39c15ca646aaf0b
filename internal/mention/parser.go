// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mention

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// SEGMENT TYPES
// =============================================================================

// SegmentKind indicates whether a segment is plain text or an @path reference.
type SegmentKind int

const (
	SegmentText   SegmentKind = iota // free text between references
	SegmentAtPath                    // @path reference, content includes the '@'
)

// String returns the string representation of the segment kind.
func (k SegmentKind) String() string {
	switch k {
	case SegmentText:
		return "text"
	case SegmentAtPath:
		return "atPath"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind by name.
func (k SegmentKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *SegmentKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "text":
		*k = SegmentText
	case "atPath":
		*k = SegmentAtPath
	default:
		return fmt.Errorf("unknown segment kind %q", s)
	}
	return nil
}

// Segment is one piece of tokenized input.
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	Content string      `json:"content"`
}

// IsPath reports whether the segment is an @path reference.
func (s Segment) IsPath() bool {
	return s.Kind == SegmentAtPath
}

// IsBareAt reports whether the segment is a lone "@" with no path after it.
func (s Segment) IsBareAt() bool {
	return s.Kind == SegmentAtPath && s.Content == "@"
}

// ParsedReference is the result of tokenizing one input string.
type ParsedReference struct {
	// Segments in left-to-right order
	Segments []Segment `json:"segments"`

	// PathSegments is the @path subsequence of Segments, same order
	PathSegments []Segment `json:"pathSegments"`
}

// =============================================================================
// TOKENIZER
// =============================================================================

// Tokenize splits query into text and @path segments. It never fails: empty
// input yields empty segment lists.
func Tokenize(query string) ParsedReference {
	var parts []Segment
	current := 0

	for current < len(query) {
		at := nextUnescapedAt(query, current)
		if at == -1 {
			parts = append(parts, Segment{Kind: SegmentText, Content: query[current:]})
			break
		}

		if at > current {
			parts = append(parts, Segment{Kind: SegmentText, Content: query[current:at]})
		}

		end := pathEnd(query, at)
		parts = append(parts, Segment{Kind: SegmentAtPath, Content: Unescape(query[at:end])})
		current = end
	}

	// Whitespace-only text shows up between adjacent references and at the
	// edges of the input; it carries nothing.
	segments := make([]Segment, 0, len(parts))
	for _, p := range parts {
		if p.Kind == SegmentText && strings.TrimSpace(p.Content) == "" {
			continue
		}
		segments = append(segments, p)
	}

	return ParsedReference{
		Segments:     segments,
		PathSegments: filterPaths(segments),
	}
}

// nextUnescapedAt returns the byte index of the next '@' at or after from
// that is not escaped, or -1. An '@' is escaped when it follows an odd run of
// backslashes.
func nextUnescapedAt(query string, from int) int {
	for i := from; i < len(query); i++ {
		if query[i] != '@' {
			continue
		}
		backslashes := 0
		for j := i - 1; j >= 0 && query[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 0 {
			return i
		}
	}
	return -1
}

// pathEnd returns the byte index one past the end of the reference that
// starts with the '@' at index at.
func pathEnd(query string, at int) int {
	i := at + 1
	inEscape := false

	for i < len(query) {
		r, size := utf8.DecodeRuneInString(query[i:])

		switch {
		case inEscape:
			inEscape = false
		case r == '\\':
			inEscape = true
		case isTerminator(r):
			return i
		case r == '.':
			// Extensions stay inside the path; a sentence-ending period does not
			next := i + size
			if next >= len(query) {
				return i
			}
			nr, _ := utf8.DecodeRuneInString(query[next:])
			if unicode.IsSpace(nr) {
				return i
			}
		}
		i += size
	}
	return i
}

// isTerminator reports whether r ends a reference when unescaped.
func isTerminator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case ',', ';', '!', '?', '(', ')', '[', ']', '{', '}':
		return true
	}
	return false
}

func filterPaths(segments []Segment) []Segment {
	paths := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if s.Kind == SegmentAtPath {
			paths = append(paths, s)
		}
	}
	return paths
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// HasReferences returns true if the input contains at least one @path
// reference, including a bare "@".
func HasReferences(input string) bool {
	return nextUnescapedAt(input, 0) != -1
}

// Span locates a raw reference inside the original input.
type Span struct {
	Start, End int
	Raw        string
}

// Spans returns the byte ranges of every reference in input, in order. Raw
// is the reference as typed, before unescaping.
func Spans(input string) []Span {
	var spans []Span
	current := 0
	for current < len(input) {
		at := nextUnescapedAt(input, current)
		if at == -1 {
			break
		}
		end := pathEnd(input, at)
		spans = append(spans, Span{Start: at, End: end, Raw: input[at:end]})
		current = end
	}
	return spans
}

// HighlightReferences returns input with every raw reference passed through
// highlighter (for display). Text between references is untouched.
func HighlightReferences(input string, highlighter func(ref string) string) string {
	if highlighter == nil {
		return input
	}

	spans := Spans(input)
	if len(spans) == 0 {
		return input
	}

	var sb strings.Builder
	last := 0
	for _, s := range spans {
		sb.WriteString(input[last:s.Start])
		sb.WriteString(highlighter(s.Raw))
		last = s.End
	}
	sb.WriteString(input[last:])
	return sb.String()
}

// ReferenceAt returns the span containing byte position pos, if any. The
// end of a reference counts as inside it so completion works at the cursor.
func ReferenceAt(input string, pos int) (Span, bool) {
	for _, s := range Spans(input) {
		if pos >= s.Start && pos <= s.End {
			return s, true
		}
	}
	return Span{}, false
}
