// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the typed room-state record shapes the bot
// reads and writes: creation-content tags that mark a room as a
// conference entity, stored person records, subspace records, and the
// third-party-invite person-ID payload.
//
// These shapes are the wire format previously materialized rooms were
// written with. They must remain stable across rebuilds — renaming a
// key here orphans every room created before the rename.
package schema
