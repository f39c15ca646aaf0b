// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mention

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func text(s string) Segment { return Segment{Kind: SegmentText, Content: s} }
func path(s string) Segment { return Segment{Kind: SegmentAtPath, Content: s} }

// =============================================================================
// SEGMENT KIND TESTS
// =============================================================================

func TestSegmentKind_String(t *testing.T) {
	tests := []struct {
		kind SegmentKind
		want string
	}{
		{SegmentText, "text"},
		{SegmentAtPath, "atPath"},
		{SegmentKind(42), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("SegmentKind(%d).String() = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestSegmentKind_JSON(t *testing.T) {
	data, err := json.Marshal(path("@a.go"))
	require.NoError(t, err)
	require.JSONEq(t, `{"kind":"atPath","content":"@a.go"}`, string(data))

	var seg Segment
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"text","content":"hi"}`), &seg))
	require.Equal(t, text("hi"), seg)

	require.Error(t, json.Unmarshal([]byte(`{"kind":"image"}`), &seg))
}

// =============================================================================
// TOKENIZER TESTS
// =============================================================================

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{
			name:  "empty input",
			input: "",
			want:  []Segment{},
		},
		{
			name:  "plain text",
			input: "just words",
			want:  []Segment{text("just words")},
		},
		{
			name:  "two references between text",
			input: "check @src/main.ts and @docs/readme.md please",
			want: []Segment{
				text("check "),
				path("@src/main.ts"),
				text(" and "),
				path("@docs/readme.md"),
				text(" please"),
			},
		},
		{
			name:  "sentence-ending period",
			input: "end of sentence @file.txt. Next sentence",
			want: []Segment{
				text("end of sentence "),
				path("@file.txt"),
				text(". Next sentence"),
			},
		},
		{
			name:  "period at end of input",
			input: "read @notes.md.",
			want:  []Segment{text("read "), path("@notes.md"), text(".")},
		},
		{
			name:  "multiple extensions",
			input: "@src/a.test.js",
			want:  []Segment{path("@src/a.test.js")},
		},
		{
			name:  "bare at sign",
			input: "@",
			want:  []Segment{path("@")},
		},
		{
			name:  "trailing bare at sign",
			input: "look here @",
			want:  []Segment{text("look here "), path("@")},
		},
		{
			name:  "adjacent references drop whitespace text",
			input: "  @a.go   @b.go  ",
			want:  []Segment{path("@a.go"), path("@b.go")},
		},
		{
			name:  "references back to back",
			input: "@a@b",
			want:  []Segment{path("@a@b")},
		},
		{
			name:  "escaped space inside path",
			input: `open @my\ docs/file\ name.txt now`,
			want:  []Segment{text("open "), path("@my docs/file name.txt"), text(" now")},
		},
		{
			name:  "escaped terminator inside path",
			input: `@weird\,name\(1\).txt`,
			want:  []Segment{path("@weird,name(1).txt")},
		},
		{
			name:  "escaped at stays in text verbatim",
			input: `mail me at user\@example.com`,
			want:  []Segment{text(`mail me at user\@example.com`)},
		},
		{
			name:  "escaped backslash before at",
			input: `dir\\@file.go`,
			want:  []Segment{text(`dir\\`), path("@file.go")},
		},
		{
			name:  "trailing backslash kept",
			input: `@dir\`,
			want:  []Segment{path(`@dir\`)},
		},
		{
			name:  "comma terminates",
			input: "@a.go,@b.go",
			want:  []Segment{path("@a.go"), text(","), path("@b.go")},
		},
		{
			name:  "brackets and parens terminate",
			input: "(@src/x.go) [@y] {@z}",
			want: []Segment{
				text("("), path("@src/x.go"), text(") ["),
				path("@y"), text("] {"), path("@z"), text("}"),
			},
		},
		{
			name:  "question and exclamation terminate",
			input: "what is @cfg.toml? fix @main.go!",
			want: []Segment{
				text("what is "), path("@cfg.toml"), text("? fix "),
				path("@main.go"), text("!"),
			},
		},
		{
			name:  "semicolon terminates",
			input: "@a;rest",
			want:  []Segment{path("@a"), text(";rest")},
		},
		{
			name:  "tab and newline terminate",
			input: "@a.go\t@b.go\nnext",
			want:  []Segment{path("@a.go"), path("@b.go"), text("\nnext")},
		},
		{
			name:  "unicode whitespace terminates",
			input: "@a.go\u00a0rest",
			want:  []Segment{path("@a.go"), text("\u00a0rest")},
		},
		{
			name:  "multibyte path",
			input: "see @docs/日本語.md ok",
			want:  []Segment{text("see "), path("@docs/日本語.md"), text(" ok")},
		},
		{
			name:  "period followed by non-space stays",
			input: "@.gitignore",
			want:  []Segment{path("@.gitignore")},
		},
		{
			name:  "relative parent path",
			input: "@outside/../../etc/passwd",
			want:  []Segment{path("@outside/../../etc/passwd")},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.input)
			require.Equal(t, tc.want, got.Segments)
		})
	}
}

func TestTokenize_PathSegmentsIsFilteredView(t *testing.T) {
	inputs := []string{
		"",
		"@",
		"check @src/main.ts and @docs/readme.md please",
		"@a @b @c",
		`no refs \@here`,
		"(@x) text @y. more @z",
	}

	for _, input := range inputs {
		got := Tokenize(input)

		var want []Segment
		for _, s := range got.Segments {
			if s.Kind == SegmentAtPath {
				want = append(want, s)
			}
		}
		if want == nil {
			want = []Segment{}
		}
		require.Equal(t, want, got.PathSegments, "input %q", input)
		require.NotNil(t, got.Segments)
	}
}

func TestTokenize_NoWhitespaceOnlyText(t *testing.T) {
	inputs := []string{" @a ", "@a \t @b", "\n@a\n", "   "}

	for _, input := range inputs {
		for _, s := range Tokenize(input).Segments {
			if s.Kind == SegmentText && strings.TrimSpace(s.Content) == "" {
				t.Errorf("Tokenize(%q) produced whitespace-only text %q", input, s.Content)
			}
		}
	}
}

func TestTokenize_ConcatenationReconstructsInput(t *testing.T) {
	// Inputs without escapes and without whitespace-only gaps concatenate
	// back to themselves.
	inputs := []string{
		"check @src/main.ts and @docs/readme.md please",
		"end of sentence @file.txt. Next sentence",
		"(@src/x.go) [@y] {@z}",
		"what is @cfg.toml? ok",
	}

	for _, input := range inputs {
		var sb strings.Builder
		for _, s := range Tokenize(input).Segments {
			sb.WriteString(s.Content)
		}
		require.Equal(t, input, sb.String())
	}
}

// =============================================================================
// ESCAPE TESTS
// =============================================================================

func TestUnescape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"@plain.txt", "@plain.txt"},
		{`@my\ file.txt`, "@my file.txt"},
		{`@a\\b`, `@a\b`},
		{`@trailing\`, `@trailing\`},
		{`\@`, "@"},
		{"", ""},
		{`@日本\ 語`, "@日本 語"},
		{`@\日本`, "@日本"},
		{"@\xff\\ a", "@\xff a"},
		{"@\xffa", "@\xffa"},
	}

	for _, tc := range tests {
		if got := Unescape(tc.input); got != tc.want {
			t.Errorf("Unescape(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestTokenize_InvalidUTF8KeptWithEscapes(t *testing.T) {
	for _, input := range []string{"@\xffa", "@\xff\\ a"} {
		parsed := Tokenize(input)
		require.Len(t, parsed.PathSegments, 1, "input %q", input)
	}
	require.Equal(t, "@\xffa", Tokenize("@\xffa").PathSegments[0].Content)
	require.Equal(t, "@\xff a", Tokenize("@\xff\\ a").PathSegments[0].Content)
}

func TestEscapePath_RoundTrip(t *testing.T) {
	paths := []string{
		"src/main.go",
		"my docs/file name.txt",
		"weird,name(1).txt",
		`back\slash`,
		"ends.with.",
		"a. b",
		"what?!",
		"{braces}[and]brackets;",
		"user@host/file",
		"tab\there",
	}

	for _, p := range paths {
		parsed := Tokenize("@" + EscapePath(p))
		require.Len(t, parsed.Segments, 1, "path %q escaped as %q", p, EscapePath(p))
		require.Equal(t, path("@"+p), parsed.Segments[0], "path %q", p)
	}
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestHasReferences(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"@a.go", true},
		{"hello @", true},
		{"no refs here", false},
		{`escaped \@ref`, false},
		{"", false},
	}

	for _, tc := range tests {
		if got := HasReferences(tc.input); got != tc.want {
			t.Errorf("HasReferences(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestHighlightReferences(t *testing.T) {
	wrap := func(ref string) string { return "[" + ref + "]" }

	tests := []struct {
		input string
		want  string
	}{
		{"see @a.go and @b.go.", "see [@a.go] and [@b.go]."},
		{"nothing", "nothing"},
		{`open @my\ file`, `open [@my\ file]`},
	}

	for _, tc := range tests {
		if got := HighlightReferences(tc.input, wrap); got != tc.want {
			t.Errorf("HighlightReferences(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}

	require.Equal(t, "keep @x", HighlightReferences("keep @x", nil))
}

func TestReferenceAt(t *testing.T) {
	input := "edit @src/ma"

	span, ok := ReferenceAt(input, len(input))
	require.True(t, ok)
	require.Equal(t, "@src/ma", span.Raw)
	require.Equal(t, 5, span.Start)

	_, ok = ReferenceAt(input, 2)
	require.False(t, ok)
}

func TestSummarize(t *testing.T) {
	parsed := Tokenize("compare @a.go with @b.go @")
	summary := Summarize(parsed)

	require.Equal(t, 3, summary.TotalCount)
	require.Equal(t, 2, summary.PathCount)
	require.Equal(t, 1, summary.BareCount)
	require.Equal(t, []string{"a.go", "b.go"}, summary.Paths)
	require.Equal(t, "2 files", summary.Format())

	require.Equal(t, "1 file", Summarize(Tokenize("@x")).Format())
	require.Equal(t, "", Summarize(Tokenize("none")).Format())
}
