// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"

	"github.com/MTRNord/generic-conference-bot/lib/schema"
)

// Person is a role-tagged person record from the backend database.
// A person holding several roles (or one role through several
// entities) appears as multiple records sharing the same PersonID.
type Person struct {
	PersonID string
	Name     string
	Email    string
	MatrixID string
	Role     schema.Role
}

// Talk is a talk record from the backend database. AuditoriumID is a
// weak reference by logical ID — the auditorium may not be cataloged.
type Talk struct {
	TalkID       string
	Title        string
	AuditoriumID string
}

// People is the backend query surface the reconciliation engine
// consumes. Lookups that match nothing return empty slices (or nil for
// GetTalk), not errors — absence is expected.
type People interface {
	// FindPeopleWithID returns every role-tagged record for a person ID.
	FindPeopleWithID(ctx context.Context, personID string) ([]Person, error)

	// FindAllPeopleForAuditorium returns the people attached to an
	// auditorium, across all roles.
	FindAllPeopleForAuditorium(ctx context.Context, auditoriumID string) ([]Person, error)

	// FindAllPeopleForTalk returns the people attached to a talk,
	// across all roles.
	FindAllPeopleForTalk(ctx context.Context, talkID string) ([]Person, error)

	// FindAllPeopleForInterest returns the people attached to an
	// interest room, across all roles.
	FindAllPeopleForInterest(ctx context.Context, interestID string) ([]Person, error)

	// GetTalk returns a talk by logical ID, or nil if it does not exist.
	GetTalk(ctx context.Context, talkID string) (*Talk, error)
}
