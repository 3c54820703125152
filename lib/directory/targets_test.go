// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"testing"

	"github.com/MTRNord/generic-conference-bot/lib/backend"
	"github.com/MTRNord/generic-conference-bot/lib/ref"
	"github.com/MTRNord/generic-conference-bot/lib/schema"
)

func TestResolverRoleFiltering(t *testing.T) {
	people := backend.NewMemory()
	people.AddPerson(backend.Person{PersonID: "speaker", Role: schema.RoleSpeaker}, "aud-1", "", "")
	people.AddPerson(backend.Person{PersonID: "host", Role: schema.RoleHost}, "aud-1", "", "")
	people.AddPerson(backend.Person{PersonID: "coordinator", Role: schema.RoleCoordinator}, "aud-1", "", "")

	resolver := &Resolver{People: people, Catalog: NewCatalog()}

	moderators, err := resolver.AuditoriumModerators(context.Background(), "aud-1")
	if err != nil {
		t.Fatalf("AuditoriumModerators failed: %v", err)
	}
	if len(moderators) != 2 {
		t.Errorf("auditorium moderators = %+v, want host and coordinator only", moderators)
	}
	for _, moderator := range moderators {
		if moderator.PersonID == "speaker" {
			t.Error("speaker included in auditorium moderators")
		}
	}

	backstage, err := resolver.BackstageModerators(context.Background(), "aud-1")
	if err != nil {
		t.Fatalf("BackstageModerators failed: %v", err)
	}
	if len(backstage) != 3 {
		t.Errorf("backstage moderators = %+v, want speaker, host, and coordinator", backstage)
	}

	targets, err := resolver.AuditoriumInviteTargets(context.Background(), "aud-1")
	if err != nil {
		t.Fatalf("AuditoriumInviteTargets failed: %v", err)
	}
	if len(targets) != 3 {
		t.Errorf("invite targets = %+v, want all three people", targets)
	}
}

func TestResolverPrefersCorrelatedIdentity(t *testing.T) {
	people := backend.NewMemory()
	people.AddPerson(backend.Person{
		PersonID: "p1",
		Email:    "alice@example.com",
		MatrixID: "@stale:conf.test",
		Role:     schema.RoleSpeaker,
	}, "", "talk-1", "")
	people.AddPerson(backend.Person{
		PersonID: "p2",
		Email:    "bob@example.com",
		Role:     schema.RoleHost,
	}, "", "talk-1", "")

	catalog := NewCatalog()
	catalog.SetPerson(schema.StoredPerson{PersonID: "p1", MatrixID: "@alice:conf.test"})

	resolver := &Resolver{People: people, Catalog: catalog}
	targets, err := resolver.TalkInviteTargets(context.Background(), "talk-1")
	if err != nil {
		t.Fatalf("TalkInviteTargets failed: %v", err)
	}

	byPerson := make(map[string]Target)
	for _, target := range targets {
		byPerson[target.PersonID] = target
	}
	if got := byPerson["p1"].MatrixID; got != ref.MustParseUserID("@alice:conf.test") {
		t.Errorf("p1 resolved to %v, want the correlated identity", got)
	}
	if !byPerson["p2"].MatrixID.IsZero() {
		t.Errorf("p2 resolved to %v, want no platform identity", byPerson["p2"].MatrixID)
	}
	if byPerson["p2"].Email != "bob@example.com" {
		t.Errorf("p2 email = %q", byPerson["p2"].Email)
	}
}

func TestResolverDeduplicatesByPerson(t *testing.T) {
	people := backend.NewMemory()
	people.AddPerson(backend.Person{PersonID: "p1", Role: schema.RoleSpeaker}, "aud-1", "", "")
	people.AddPerson(backend.Person{PersonID: "p1", Role: schema.RoleHost}, "aud-1", "", "")

	resolver := &Resolver{People: people, Catalog: NewCatalog()}
	targets, err := resolver.AuditoriumInviteTargets(context.Background(), "aud-1")
	if err != nil {
		t.Fatalf("AuditoriumInviteTargets failed: %v", err)
	}
	if len(targets) != 1 {
		t.Errorf("got %d targets for duplicated person, want 1", len(targets))
	}
}
