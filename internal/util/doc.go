// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by rigrun-refs packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync (config saves)
//
// Display Width:
//   - TruncateWidth: Column-aware truncation for table output
//   - PadWidth: Right-pad a string to a display width
//   - StringWidth: Display width of a string (CJK aware)
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600)
//	cell := util.PadWidth(util.TruncateWidth(name, 24), 24)
package util
