// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package resolver classifies @path references against a workspace.
//
// Every reference other than a bare "@" lands in exactly one of three
// buckets: resolved (with absolute and display paths), ignored (with the
// rule set that excluded it) or failed. No file existence check or glob
// expansion happens here; the caller decides what to do with each bucket.
//
// The workspace is reached through the Oracle interface, which
// *workspace.Workspace implements.
package resolver
