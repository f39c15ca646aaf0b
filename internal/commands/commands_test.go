// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// MATCH TESTS
// =============================================================================

func TestMatch_BuiltinTable(t *testing.T) {
	table := NewRegistry().Table()

	tests := []struct {
		query     string
		wantPath  []string
		wantSub   string
		wantArgs  string
		wantName  string
		wantNoCmd bool
	}{
		{
			query:    "/memory list extra args",
			wantPath: []string{"memory", "show"},
			wantSub:  "show",
			wantArgs: "extra args",
			wantName: "show",
		},
		{
			query:     "/nonexistent foo",
			wantPath:  []string{},
			wantArgs:  "nonexistent foo",
			wantNoCmd: true,
		},
		{
			query:    "/help",
			wantPath: []string{"help"},
			wantName: "help",
		},
		{
			query:    "/?",
			wantPath: []string{"help"},
			wantName: "help",
		},
		{
			query:    "  /exit  ",
			wantPath: []string{"quit"},
			wantName: "quit",
		},
		{
			query:    "/chat load   my-tag",
			wantPath: []string{"chat", "resume"},
			wantSub:  "resume",
			wantArgs: "my-tag",
			wantName: "resume",
		},
		{
			query:    "/dir add ../other\tproject",
			wantPath: []string{"directory", "add"},
			wantSub:  "add",
			wantArgs: "../other project",
			wantName: "add",
		},
		{
			query:    "/chat unknown-sub rest",
			wantPath: []string{"chat"},
			wantArgs: "unknown-sub rest",
			wantName: "chat",
		},
		{
			query:    "/model qwen2.5 extra",
			wantPath: []string{"model"},
			wantArgs: "qwen2.5 extra",
			wantName: "model",
		},
		{
			query:    "/usage tools",
			wantPath: []string{"stats", "tools"},
			wantSub:  "tools",
			wantName: "tools",
		},
		{
			query:     "/",
			wantPath:  []string{},
			wantNoCmd: true,
		},
		{
			query:     "",
			wantPath:  []string{},
			wantNoCmd: true,
		},
		{
			query:     "/HELP",
			wantPath:  []string{},
			wantArgs:  "HELP",
			wantNoCmd: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			got := Match(tc.query, table)

			if !reflect.DeepEqual(got.CanonicalPath, tc.wantPath) {
				t.Errorf("Match(%q).CanonicalPath = %v, want %v", tc.query, got.CanonicalPath, tc.wantPath)
			}
			if got.Subcommand != tc.wantSub {
				t.Errorf("Match(%q).Subcommand = %q, want %q", tc.query, got.Subcommand, tc.wantSub)
			}
			if got.Args != tc.wantArgs {
				t.Errorf("Match(%q).Args = %q, want %q", tc.query, got.Args, tc.wantArgs)
			}
			if tc.wantNoCmd {
				if got.Matched() {
					t.Errorf("Match(%q) matched %q, want no match", tc.query, got.Command.Name)
				}
				return
			}
			if !got.Matched() || got.Command.Name != tc.wantName {
				t.Errorf("Match(%q).Command = %v, want %q", tc.query, got.Command, tc.wantName)
			}
		})
	}
}

func TestMatch_PrimaryNameBeatsEarlierAltName(t *testing.T) {
	table := []Command{
		{Name: "first", AltNames: []string{"target"}},
		{Name: "target"},
	}

	got := Match("/target", table)
	require.Same(t, &table[1], got.Command)
	require.Equal(t, []string{"target"}, got.CanonicalPath)
}

func TestMatch_FirstInTableOrderWins(t *testing.T) {
	table := []Command{
		{Name: "a", AltNames: []string{"x"}},
		{Name: "b", AltNames: []string{"x"}},
	}

	got := Match("/x", table)
	require.Same(t, &table[0], got.Command)
}

func TestMatch_PrimaryPriorityAtNestedLevel(t *testing.T) {
	table := []Command{{
		Name: "root",
		SubCommands: []Command{
			{Name: "alpha", AltNames: []string{"beta"}},
			{Name: "beta"},
		},
	}}

	got := Match("/root beta", table)
	require.Equal(t, []string{"root", "beta"}, got.CanonicalPath)
	require.Equal(t, "beta", got.Subcommand)
}

func TestMatch_AnySigil(t *testing.T) {
	table := NewRegistry().Table()

	for _, query := range []string{"/help", "!help", ":help", "§help"} {
		got := Match(query, table)
		require.True(t, got.Matched(), "query %q", query)
		require.Equal(t, "help", got.Command.Name)
	}
}

func TestMatch_DeepTree(t *testing.T) {
	table := []Command{{
		Name: "a",
		SubCommands: []Command{{
			Name:     "b",
			AltNames: []string{"bee"},
			SubCommands: []Command{{
				Name: "c",
			}},
		}},
	}}

	got := Match("/a bee c d e", table)
	require.Equal(t, []string{"a", "b", "c"}, got.CanonicalPath)
	require.Equal(t, "b c", got.Subcommand)
	require.Equal(t, "d e", got.Args)
	require.True(t, got.HasSubcommand())
	require.Equal(t, "a", got.Name())
}

func TestMatch_CanonicalPathNeverContainsAltNames(t *testing.T) {
	registry := NewRegistry()
	primaries := map[string]bool{}
	registry.Walk(true, func(path []string, cmd *Command) {
		primaries[cmd.Name] = true
	})

	queries := []string{"/? x", "/exit", "/chat load t", "/memory list", "/tools ls", "/usage", "/dir add x"}
	for _, q := range queries {
		for _, name := range registry.Match(q).CanonicalPath {
			if !primaries[name] {
				t.Errorf("Match(%q) put non-primary name %q in canonical path", q, name)
			}
		}
	}
}

func TestMatch_Deterministic(t *testing.T) {
	table := NewRegistry().Table()
	first := Match("/memory list a b", table)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Match("/memory list a b", table))
	}
}

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestIsCommand(t *testing.T) {
	tests := []struct {
		input  string
		prefix string
		want   bool
	}{
		{"/help", "/", true},
		{"/model qwen", "/", true},
		{"  /help", "/", true},
		{"hello", "/", false},
		{"hello /help", "/", false},
		{"", "/", false},
		{"/", "/", true},
		{"!help", "!", true},
		{"/help", "", true},
	}

	for _, tc := range tests {
		got := IsCommand(tc.input, tc.prefix)
		if got != tc.want {
			t.Errorf("IsCommand(%q, %q) = %v, want %v", tc.input, tc.prefix, got, tc.want)
		}
	}
}

func TestExtractCommandName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/help", "help"},
		{"/memory add note", "memory"},
		{"  /help  ", "help"},
		{"hello", ""},
		{"/", ""},
	}

	for _, tc := range tests {
		got := ExtractCommandName(tc.input, "/")
		if got != tc.want {
			t.Errorf("ExtractCommandName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"qwen", []string{"qwen"}},
		{`"my session"`, []string{"my session"}},
		{`'my session' next`, []string{"my session", "next"}},
		{"key value", []string{"key", "value"}},
		{`"say \"hi\""`, []string{`say "hi"`}},
		{`""`, []string{""}},
		{"héllo wörld", []string{"héllo", "wörld"}},
	}

	for _, tc := range tests {
		got := ParseArgs(tc.input)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseArgs(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParser_Parse(t *testing.T) {
	p := NewParser(NewRegistry())

	result := p.Parse(`  /memory add "buy milk" today  `)
	require.True(t, result.IsCommand)
	require.Equal(t, []string{"memory", "add"}, result.Match.CanonicalPath)
	require.Equal(t, []string{"buy milk", "today"}, result.Args)
	require.NoError(t, result.Err())

	result = p.Parse("plain text")
	require.False(t, result.IsCommand)
	require.NoError(t, result.Err())

	result = p.Parse("/bogus")
	require.True(t, result.IsCommand)
	require.ErrorIs(t, result.Err(), ErrUnknownCommand)
}

func TestParser_CustomPrefix(t *testing.T) {
	r := NewRegistry()
	r.SetPrefix("!")
	p := NewParser(r)

	require.False(t, p.Parse("/help").IsCommand)
	require.True(t, p.Parse("!help").Match.Matched())
}

func TestValidateArgs(t *testing.T) {
	r := NewRegistry()
	enumCmd := Command{
		Name: "mode",
		Args: []ArgDef{{Name: "level", Type: ArgTypeEnum, Values: []string{"low", "high"}}},
	}
	r.Register(enumCmd)

	tests := []struct {
		name    string
		query   string
		args    []string
		wantErr bool
	}{
		{"required present", "/chat save", []string{"tag"}, false},
		{"required missing", "/chat save", nil, true},
		{"optional missing", "/model", nil, false},
		{"enum valid", "/mode", []string{"HIGH"}, false},
		{"enum invalid", "/mode", []string{"medium"}, true},
		{"no match", "/nothing", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateArgs(r.Match(tc.query), tc.args)
			if tc.wantErr {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Command:  "chat save",
		Arg:      "tag",
		Message:  "invalid value",
		Got:      "bad",
		Expected: "good1, good2",
	}

	errStr := err.Error()
	for _, s := range []string{"chat save", "tag", "invalid value", "bad", "good1, good2"} {
		if !strings.Contains(errStr, s) {
			t.Errorf("Error() should contain %q, got: %s", s, errStr)
		}
	}
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	want := []string{"help", "clear", "quit", "chat", "memory", "directory", "tools", "stats", "config", "model"}
	var got []string
	for _, cmd := range r.Table() {
		got = append(got, cmd.Name)
	}
	require.Equal(t, want, got)
	require.Equal(t, DefaultPrefix, r.Prefix())
}

func TestRegistry_Register(t *testing.T) {
	r := NewEmptyRegistry()
	r.Register(Command{Name: "one", Description: "first"})
	r.Register(Command{Name: "two"})
	r.Register(Command{Name: "one", Description: "replaced"})

	table := r.Table()
	require.Len(t, table, 2)
	require.Equal(t, "one", table[0].Name)
	require.Equal(t, "replaced", table[0].Description)
}

func TestRegistry_TableIsCopy(t *testing.T) {
	r := NewRegistry()
	table := r.Table()
	table[0].Name = "mutated"
	require.Equal(t, "help", r.Table()[0].Name)
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		want string
	}{
		{"help", "help"},
		{"/help", "help"},
		{"?", "help"},
		{"exit", "quit"},
		{"dir", "directory"},
		{"list", ""},
		{"missing", ""},
	}

	for _, tc := range tests {
		cmd := r.Get(tc.name)
		got := ""
		if cmd != nil {
			got = cmd.Name
		}
		if got != tc.want {
			t.Errorf("Get(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	require.Equal(t, "show", r.Lookup("memory", "list").Name)
	require.Equal(t, "resume", r.Lookup("chat", "load").Name)
	require.Nil(t, r.Lookup("memory", "nope"))
	require.Nil(t, r.Lookup())
}

func TestRegistry_ByCategory(t *testing.T) {
	r := NewEmptyRegistry()
	r.Register(Command{Name: "a", Category: "Tools"})
	r.Register(Command{Name: "b"})
	r.Register(Command{Name: "c", Category: "Tools", Hidden: true})

	cats := r.ByCategory()
	require.Len(t, cats["Tools"], 1)
	require.Len(t, cats["General"], 1)
}

func TestRegistry_Walk(t *testing.T) {
	r := NewEmptyRegistry()
	r.Register(Command{Name: "a", SubCommands: []Command{{Name: "b"}, {Name: "h", Hidden: true}}})
	r.Register(Command{Name: "c"})

	var visible []string
	r.Walk(false, func(path []string, cmd *Command) {
		visible = append(visible, strings.Join(path, " "))
	})
	require.Equal(t, []string{"a", "a b", "c"}, visible)

	var all []string
	r.Walk(true, func(path []string, cmd *Command) {
		all = append(all, strings.Join(path, " "))
	})
	require.Equal(t, []string{"a", "a b", "a h", "c"}, all)
}

func TestCommand_Matches(t *testing.T) {
	cmd := Command{Name: "stats", AltNames: []string{"usage"}}
	require.True(t, cmd.Matches("stats"))
	require.True(t, cmd.Matches("usage"))
	require.False(t, cmd.Matches("Stats"))
	require.False(t, cmd.HasSubCommands())
}
