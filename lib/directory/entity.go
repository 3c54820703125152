// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"github.com/MTRNord/generic-conference-bot/lib/ref"
)

// Kind identifies which conference entity a room represents.
type Kind int

// The closed set of entity kinds.
const (
	KindUnknown Kind = iota
	KindConference
	KindAuditorium
	KindAuditoriumBackstage
	KindTalk
	KindInterest
)

// String returns the kind's creation-content tag value, or "unknown".
func (k Kind) String() string {
	switch k {
	case KindConference:
		return "conference"
	case KindAuditorium:
		return "auditorium"
	case KindAuditoriumBackstage:
		return "auditorium_backstage"
	case KindTalk:
		return "talk"
	case KindInterest:
		return "interest"
	default:
		return "unknown"
	}
}

// Auditorium is a conference track with its public room.
type Auditorium struct {
	ID     string
	RoomID ref.RoomID
}

// AuditoriumBackstage is the private coordination room paired 1:1 with
// an auditorium. It shares the auditorium's logical ID.
type AuditoriumBackstage struct {
	AuditoriumID string
	RoomID       ref.RoomID
}

// Talk is a single scheduled talk with its room. AuditoriumID is a
// weak reference to the owning auditorium: the auditorium may not be
// cataloged, and lookups through it must fail gracefully.
type Talk struct {
	ID           string
	AuditoriumID string
	RoomID       ref.RoomID
}

// InterestRoom is a special-interest room, either materialized by the
// bot or pre-existing and located by configured alias.
type InterestRoom struct {
	ID     string
	RoomID ref.RoomID
}

// Subspace is a grouping space recorded in the conference root room's
// state.
type Subspace struct {
	ID     string
	RoomID ref.RoomID
}

// EntityRef identifies the entity a physical room backs, as returned
// by reverse lookup.
type EntityRef struct {
	Kind      Kind
	LogicalID string
	RoomID    ref.RoomID
}
