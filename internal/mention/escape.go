// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mention

import "strings"

// Unescape removes reference escapes: every backslash is dropped and the
// character after it is kept literally. A trailing lone backslash is kept.
// The leading '@' of a raw reference passes through unchanged. Input is
// walked bytewise so invalid UTF-8 is copied as is.
func Unescape(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}

	var sb strings.Builder
	sb.Grow(len(raw))

	inEscape := false
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if inEscape {
			sb.WriteByte(b)
			inEscape = false
			continue
		}
		if b == '\\' {
			inEscape = true
			continue
		}
		sb.WriteByte(b)
	}
	if inEscape {
		sb.WriteByte('\\')
	}
	return sb.String()
}

// EscapePath escapes path so that "@" + EscapePath(path) tokenizes back to a
// single reference whose content is "@" + path. Backslashes, terminators and
// '@' are escaped, as is a trailing '.'.
func EscapePath(path string) string {
	var sb strings.Builder
	sb.Grow(len(path) + 4)

	runes := []rune(path)
	for i, r := range runes {
		switch {
		case r == '\\', r == '@', isTerminator(r):
			sb.WriteByte('\\')
		case r == '.' && i == len(runes)-1:
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
