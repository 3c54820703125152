// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

// Raw membership values from m.room.member events.
const (
	MembershipJoin   = "join"
	MembershipInvite = "invite"
	MembershipKnock  = "knock"
	MembershipLeave  = "leave"
	MembershipBan    = "ban"
)

// EffectiveMembership collapses a raw membership value into its
// effective status: "join" for joined members, "invite" for members on
// their way in (invited or knocking), "leave" for everyone out
// (left, banned, or never a member).
//
// Membership reconciliation works on effective status, not raw state:
// an invited member counts as present for "should this person be
// invited?" even though they have not joined yet.
func EffectiveMembership(raw string) string {
	switch raw {
	case MembershipJoin:
		return MembershipJoin
	case MembershipInvite, MembershipKnock:
		return MembershipInvite
	default:
		return MembershipLeave
	}
}

// IsEffectivelyPresent reports whether a member's effective membership
// is join or invite — i.e. whether inviting them again would be
// redundant.
func (m RoomMember) IsEffectivelyPresent() bool {
	effective := EffectiveMembership(m.Membership)
	return effective == MembershipJoin || effective == MembershipInvite
}
