// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile converges room membership and moderation
// permissions toward target sets.
//
// Both reconcilers are additive and idempotent: membership
// reconciliation only ever invites (it tracks people who should at
// least be present, not an exact member set, and never removes
// anyone), and permission reconciliation merges grants into the
// existing power-level record without downgrading or re-granting
// entries already there. Either can be re-run safely after partial
// failure.
package reconcile
