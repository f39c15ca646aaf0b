// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mention tokenizes free-form chat input into text and @path segments.
//
// A reference starts at an unescaped '@' and runs until the first unescaped
// whitespace or one of , ; ! ? ( ) [ ] { }. A '.' only ends a reference when
// it is followed by whitespace or the end of input, so "@file.txt." stops
// before the sentence-ending period while "@a.test.js" stays whole. A
// backslash escapes the following character inside a reference.
//
// # Key Types
//
//   - Segment: one text or @path piece of the input
//   - ParsedReference: all segments plus the @path-only view
//   - Summary: counts of references for status lines
//
// # Usage
//
//	parsed := mention.Tokenize("check @src/main.go please")
//	for _, seg := range parsed.PathSegments {
//	    fmt.Println(seg.Content) // "@src/main.go"
//	}
//
// Only @path contents are unescaped. Text segments are kept verbatim, so an
// escaped "\@" in text keeps its backslash.
package mention
