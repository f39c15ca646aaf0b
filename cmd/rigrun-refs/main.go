// rigrun-refs - @path reference and /slash command parsing for chat input.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/rigrun-refs/internal/cli"
)

// Build with:
//
//	go build -ldflags "-X github.com/jeranaias/rigrun-refs/internal/cli.Version=$(git describe --tags)" ./cmd/rigrun-refs
func main() {
	os.Exit(cli.Execute())
}
