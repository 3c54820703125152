// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package redemption verifies third-party-invite redemptions and
// correlates them to backend person records.
//
// A membership event claiming a third-party invite is
// attacker-influenceable: anyone can craft one referencing an
// arbitrary token. The verifier trusts nothing from the event itself.
// It walks a chain of guards — token present, token's invite record
// readable, record carries a person-ID payload, both the room's
// creation event and the invite record were authored by the bot's own
// account, the person ID matches backend records — and only when every
// guard passes does it stamp the joining Matrix ID onto the person.
// Failing any guard is silent rejection: unrelated membership events
// hit the chain constantly and rejection is normal flow, not an error.
package redemption
