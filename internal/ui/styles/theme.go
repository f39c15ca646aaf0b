// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles used to render CLI output.
type Theme struct {
	Prompt    lipgloss.Style
	Header    lipgloss.Style
	Label     lipgloss.Style
	Muted     lipgloss.Style
	Text      lipgloss.Style
	Mention   lipgloss.Style
	Command   lipgloss.Style
	Alias     lipgloss.Style
	Resolved  lipgloss.Style
	Ignored   lipgloss.Style
	Failed    lipgloss.Style
	Indicator StatusIndicatorSet
}

// NewTheme returns the output theme. With color disabled every style is the
// zero style, which renders its input unchanged.
func NewTheme(color bool) *Theme {
	if !color {
		plain := lipgloss.NewStyle()
		return &Theme{
			Prompt:    plain,
			Header:    plain,
			Label:     plain,
			Muted:     plain,
			Text:      plain,
			Mention:   plain,
			Command:   plain,
			Alias:     plain,
			Resolved:  plain,
			Ignored:   plain,
			Failed:    plain,
			Indicator: StatusIndicators,
		}
	}

	return &Theme{
		Prompt:    lipgloss.NewStyle().Foreground(Cyan).Bold(true),
		Header:    lipgloss.NewStyle().Foreground(Purple).Bold(true),
		Label:     lipgloss.NewStyle().Foreground(TextSecondary),
		Muted:     lipgloss.NewStyle().Foreground(TextMuted),
		Text:      lipgloss.NewStyle().Foreground(TextPrimary),
		Mention:   lipgloss.NewStyle().Foreground(Cyan).Underline(true),
		Command:   lipgloss.NewStyle().Foreground(Purple).Bold(true),
		Alias:     lipgloss.NewStyle().Foreground(TextMuted).Italic(true),
		Resolved:  lipgloss.NewStyle().Foreground(Emerald),
		Ignored:   lipgloss.NewStyle().Foreground(Amber),
		Failed:    lipgloss.NewStyle().Foreground(Rose),
		Indicator: StatusIndicators,
	}
}
