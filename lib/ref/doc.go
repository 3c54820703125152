// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated value types for Matrix identifiers:
// room IDs, room aliases, user IDs, and event types.
//
// Raw identifier strings arrive from the homeserver and from
// configuration; they are parsed into these types at the boundary so
// that the rest of the codebase never passes an alias where a room ID
// is expected. The zero value of each type is invalid — use IsZero to
// check.
package ref
