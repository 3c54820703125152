// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"fmt"

	"github.com/MTRNord/generic-conference-bot/lib/backend"
	"github.com/MTRNord/generic-conference-bot/lib/ref"
	"github.com/MTRNord/generic-conference-bot/lib/schema"
)

// Target pairs a person record with its resolved platform identity at
// the moment of action. MatrixID is zero for people who have not been
// correlated yet; those are reachable only by email.
type Target struct {
	PersonID string
	Name     string
	Email    string
	MatrixID ref.UserID
}

// Resolver answers moderator and invite-target queries for entities,
// joining the backend's role-tagged person records with the catalog's
// identity-correlation cache.
type Resolver struct {
	People  backend.People
	Catalog *Catalog
}

// AuditoriumModerators returns the auditorium's moderators: people
// attached to it with the Host or Coordinator role.
func (r *Resolver) AuditoriumModerators(ctx context.Context, auditoriumID string) ([]Target, error) {
	people, err := r.People.FindAllPeopleForAuditorium(ctx, auditoriumID)
	if err != nil {
		return nil, fmt.Errorf("directory: people for auditorium %q: %w", auditoriumID, err)
	}
	return r.resolveAll(filterRoles(people, schema.RoleHost, schema.RoleCoordinator)), nil
}

// BackstageModerators returns a backstage's moderators: the
// auditorium's hosts and coordinators, plus its speakers.
func (r *Resolver) BackstageModerators(ctx context.Context, auditoriumID string) ([]Target, error) {
	people, err := r.People.FindAllPeopleForAuditorium(ctx, auditoriumID)
	if err != nil {
		return nil, fmt.Errorf("directory: people for auditorium %q: %w", auditoriumID, err)
	}
	return r.resolveAll(filterRoles(people, schema.RoleSpeaker, schema.RoleHost, schema.RoleCoordinator)), nil
}

// TalkModerators returns a talk's moderators: its speakers, hosts, and
// coordinators.
func (r *Resolver) TalkModerators(ctx context.Context, talkID string) ([]Target, error) {
	people, err := r.People.FindAllPeopleForTalk(ctx, talkID)
	if err != nil {
		return nil, fmt.Errorf("directory: people for talk %q: %w", talkID, err)
	}
	return r.resolveAll(filterRoles(people, schema.RoleSpeaker, schema.RoleHost, schema.RoleCoordinator)), nil
}

// AuditoriumInviteTargets returns everyone attached to an auditorium,
// regardless of role.
func (r *Resolver) AuditoriumInviteTargets(ctx context.Context, auditoriumID string) ([]Target, error) {
	people, err := r.People.FindAllPeopleForAuditorium(ctx, auditoriumID)
	if err != nil {
		return nil, fmt.Errorf("directory: people for auditorium %q: %w", auditoriumID, err)
	}
	return r.resolveAll(people), nil
}

// TalkInviteTargets returns everyone attached to a talk.
func (r *Resolver) TalkInviteTargets(ctx context.Context, talkID string) ([]Target, error) {
	people, err := r.People.FindAllPeopleForTalk(ctx, talkID)
	if err != nil {
		return nil, fmt.Errorf("directory: people for talk %q: %w", talkID, err)
	}
	return r.resolveAll(people), nil
}

// InterestInviteTargets returns everyone attached to an interest room.
func (r *Resolver) InterestInviteTargets(ctx context.Context, interestID string) ([]Target, error) {
	people, err := r.People.FindAllPeopleForInterest(ctx, interestID)
	if err != nil {
		return nil, fmt.Errorf("directory: people for interest room %q: %w", interestID, err)
	}
	return r.resolveAll(people), nil
}

// ModeratorsForEntity computes the moderator set for a reverse-looked-up
// entity. Rooms backing no moderated entity kind return nil.
func (r *Resolver) ModeratorsForEntity(ctx context.Context, entity EntityRef) ([]Target, error) {
	switch entity.Kind {
	case KindAuditorium:
		return r.AuditoriumModerators(ctx, entity.LogicalID)
	case KindAuditoriumBackstage:
		return r.BackstageModerators(ctx, entity.LogicalID)
	case KindTalk:
		return r.TalkModerators(ctx, entity.LogicalID)
	default:
		return nil, nil
	}
}

// resolveAll resolves and de-duplicates by person ID. The backend
// returns one record per (person, role) association, so the same
// person can appear several times.
func (r *Resolver) resolveAll(people []backend.Person) []Target {
	seen := make(map[string]bool, len(people))
	targets := make([]Target, 0, len(people))
	for _, person := range people {
		if seen[person.PersonID] {
			continue
		}
		seen[person.PersonID] = true
		targets = append(targets, r.resolve(person))
	}
	return targets
}

// resolve prefers the catalog's correlated identity over whatever the
// backend carries: correlation established at redemption time is
// fresher than the backend's static import.
func (r *Resolver) resolve(person backend.Person) Target {
	target := Target{
		PersonID: person.PersonID,
		Name:     person.Name,
		Email:    person.Email,
	}
	if stored, ok := r.Catalog.Person(person.PersonID); ok && stored.MatrixID != "" {
		if userID, err := ref.ParseUserID(stored.MatrixID); err == nil {
			target.MatrixID = userID
		}
	}
	if target.MatrixID.IsZero() && person.MatrixID != "" {
		if userID, err := ref.ParseUserID(person.MatrixID); err == nil {
			target.MatrixID = userID
		}
	}
	return target
}

func filterRoles(people []backend.Person, roles ...schema.Role) []backend.Person {
	var filtered []backend.Person
	for _, person := range people {
		for _, role := range roles {
			if person.Role == role {
				filtered = append(filtered, person)
				break
			}
		}
	}
	return filtered
}
