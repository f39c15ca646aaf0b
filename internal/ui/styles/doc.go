// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling for rigrun-refs terminal output.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Purple - Headers and command paths
  - Cyan - Prompts and @path references
  - Emerald - Resolved paths, matched commands
  - Amber - Ignored paths, warnings
  - Rose - Failed paths, unmatched commands

# Theme (theme.go)

Theme bundles the named styles the CLI renders with. NewTheme(false) returns
a theme whose styles render plain text, used for --no-color and non-TTY
output.

	theme := styles.NewTheme(true)
	fmt.Println(theme.Mention.Render("@src/main.go"))
*/
package styles
