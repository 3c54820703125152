// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"github.com/MTRNord/generic-conference-bot/lib/schema"
)

// Classification is the result of classifying one room's creation
// content: the entity kind, the kind-specific logical ID, and for
// talks the owning auditorium's logical ID when present.
type Classification struct {
	Kind         Kind
	LogicalID    string
	AuditoriumID string
}

// Classify decides which conference entity (if any) a room represents
// from its immutable m.room.create content. Pure function, no I/O.
//
// A room classifies only when its conference-ID tag matches, its kind
// tag is one of the known kinds, and the kind's logical-ID key is
// present. Anything else — an unrelated room, a different conference,
// a malformed record — returns false; the bot belongs to many rooms
// that are not part of this conference, so non-classification is
// normal, not an error.
func Classify(conferenceID string, creation map[string]any) (Classification, bool) {
	if stringField(creation, schema.CreationConferenceIDKey) != conferenceID {
		return Classification{}, false
	}

	switch stringField(creation, schema.CreationKindKey) {
	case schema.KindTagConference:
		return Classification{Kind: KindConference, LogicalID: conferenceID}, true

	case schema.KindTagAuditorium:
		return withLogicalID(KindAuditorium,
			stringField(creation, schema.CreationAuditoriumIDKey))

	case schema.KindTagAuditoriumBackstage:
		return withLogicalID(KindAuditoriumBackstage,
			stringField(creation, schema.CreationAuditoriumIDKey))

	case schema.KindTagTalk:
		classification, ok := withLogicalID(KindTalk,
			stringField(creation, schema.CreationTalkIDKey))
		if ok {
			classification.AuditoriumID = stringField(creation, schema.CreationAuditoriumIDKey)
		}
		return classification, ok

	case schema.KindTagInterest:
		return withLogicalID(KindInterest,
			stringField(creation, schema.CreationInterestIDKey))

	default:
		return Classification{}, false
	}
}

func withLogicalID(kind Kind, logicalID string) (Classification, bool) {
	if logicalID == "" {
		return Classification{}, false
	}
	return Classification{Kind: kind, LogicalID: logicalID}, true
}

func stringField(content map[string]any, key string) string {
	value, _ := content[key].(string)
	return value
}
