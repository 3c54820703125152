// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"

	"github.com/MTRNord/generic-conference-bot/lib/ref"
)

// Standard Matrix event types referenced by the bot.
const (
	MatrixEventTypeCreate           ref.EventType = "m.room.create"
	MatrixEventTypeMember           ref.EventType = "m.room.member"
	MatrixEventTypePowerLevels      ref.EventType = "m.room.power_levels"
	MatrixEventTypeThirdPartyInvite ref.EventType = "m.room.third_party_invite"
	MatrixEventTypeMessage          ref.EventType = "m.room.message"
)

// Conference state event types. Stored person records and subspace
// records live in the conference root room's state, keyed by person ID
// and subspace ID respectively.
const (
	EventTypeStoredPerson ref.EventType = "org.conference.person"
	EventTypeSubspace     ref.EventType = "org.conference.subspace"
)

// Creation-content keys. Rooms materialized by the bot carry these in
// their immutable m.room.create content; the classifier reads them to
// decide which conference entity (if any) a room represents.
const (
	CreationKindKey         = "org.conference.kind"
	CreationConferenceIDKey = "org.conference.id"
	CreationAuditoriumIDKey = "org.conference.auditorium_id"
	CreationTalkIDKey       = "org.conference.talk_id"
	CreationInterestIDKey   = "org.conference.interest_id"
)

// Kind tags stored under CreationKindKey.
const (
	KindTagConference          = "conference"
	KindTagAuditorium          = "auditorium"
	KindTagAuditoriumBackstage = "auditorium_backstage"
	KindTagTalk                = "talk"
	KindTagInterest            = "interest"
)

// ThirdPartyInvitePersonIDKey is the content key carrying the target
// person ID on email invites. The homeserver copies it into the
// resulting m.room.third_party_invite state event, which is how a
// redeemed invite is traced back to a person record.
const ThirdPartyInvitePersonIDKey = "org.conference.person_id"

// SubspaceContent is the content of an org.conference.subspace state
// record in the conference root room. State key: the subspace's
// logical ID.
type SubspaceContent struct {
	SubspaceID string `json:"subspace_id"`
	RoomID     string `json:"room_id"`
}

// ParseContent parses a Matrix event's Content map into a typed struct
// via JSON round-trip. This matches how the homeserver delivers events:
// the client gives us map[string]any, and we need typed Go structs.
func ParseContent[T any](content map[string]any) (*T, error) {
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	var parsed T
	if err := json.Unmarshal(contentJSON, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}
