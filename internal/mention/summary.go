// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mention

import (
	"strconv"
	"strings"
)

// =============================================================================
// REFERENCE SUMMARY
// =============================================================================

// Summary describes the references found in one input.
type Summary struct {
	TotalCount int
	PathCount  int
	BareCount  int // lone "@" with nothing after it
	Paths      []string
}

// Summarize counts the references in a parsed input.
func Summarize(parsed ParsedReference) Summary {
	summary := Summary{TotalCount: len(parsed.PathSegments)}

	for _, seg := range parsed.PathSegments {
		if seg.IsBareAt() {
			summary.BareCount++
			continue
		}
		summary.PathCount++
		summary.Paths = append(summary.Paths, strings.TrimPrefix(seg.Content, "@"))
	}

	return summary
}

// Format returns a short description such as "2 files".
func (s Summary) Format() string {
	switch s.PathCount {
	case 0:
		return ""
	case 1:
		return "1 file"
	default:
		return strconv.Itoa(s.PathCount) + " files"
	}
}
