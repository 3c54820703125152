// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package redemption

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/MTRNord/generic-conference-bot/messaging"

	"github.com/MTRNord/generic-conference-bot/lib/backend"
	"github.com/MTRNord/generic-conference-bot/lib/directory"
	"github.com/MTRNord/generic-conference-bot/lib/reconcile"
	"github.com/MTRNord/generic-conference-bot/lib/ref"
	"github.com/MTRNord/generic-conference-bot/lib/schema"
	"github.com/MTRNord/generic-conference-bot/lib/testutil"
)

var (
	botUser  = ref.MustParseUserID("@conference:conf.test")
	rootRoom = ref.MustParseRoomID("!root:conf.test")
	talkRoom = ref.MustParseRoomID("!talk:conf.test")
	joiner   = ref.MustParseUserID("@alice:conf.test")
)

const inviteToken = "tok-1"

type fixture struct {
	session  *testutil.FakeSession
	catalog  *directory.Catalog
	people   *backend.Memory
	verifier *Verifier
}

// newFixture builds a conference with a root room and one talk room,
// a bot-authored invite record for person p1 in the talk room, and a
// backend record for p1.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	session := testutil.NewFakeSession(botUser)
	session.AddRoom(rootRoom, &testutil.FakeRoom{
		Creation: map[string]any{
			schema.CreationConferenceIDKey: "conf-x",
			schema.CreationKindKey:         schema.KindTagConference,
		},
	})
	token := inviteToken
	session.AddRoom(talkRoom, &testutil.FakeRoom{
		Creation: map[string]any{
			schema.CreationConferenceIDKey: "conf-x",
			schema.CreationKindKey:         schema.KindTagTalk,
			schema.CreationTalkIDKey:       "talk-1",
		},
		State: []messaging.Event{{
			Type:     schema.MatrixEventTypeThirdPartyInvite,
			Sender:   botUser,
			StateKey: &token,
			Content: map[string]any{
				"display_name":                     "alice@example.com",
				schema.ThirdPartyInvitePersonIDKey: "p1",
			},
		}},
	})

	catalog := directory.NewCatalog()
	builder, err := directory.NewBuilder(directory.BuilderConfig{
		Session:      session,
		Catalog:      catalog,
		ConferenceID: "conf-x",
		Log:          log,
	})
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	if err := builder.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	people := backend.NewMemory()
	people.AddPerson(backend.Person{
		PersonID: "p1",
		Name:     "Alice",
		Email:    "alice@example.com",
		Role:     schema.RoleSpeaker,
	}, "", "talk-1", "")

	resolver := &directory.Resolver{People: people, Catalog: catalog}
	return &fixture{
		session: session,
		catalog: catalog,
		people:  people,
		verifier: &Verifier{
			Session:     session,
			Catalog:     catalog,
			People:      people,
			Resolver:    resolver,
			Permissions: &reconcile.Permissions{Session: session, Log: log},
			Log:         log,
		},
	}
}

func memberEvent(roomID ref.RoomID, userID ref.UserID, token string) messaging.Event {
	key := userID.String()
	content := map[string]any{"membership": "join"}
	if token != "" {
		content["third_party_invite"] = map[string]any{
			"signed": map[string]any{"token": token},
		}
	}
	return messaging.Event{
		EventID:  "$member-1",
		Type:     schema.MatrixEventTypeMember,
		Sender:   userID,
		RoomID:   roomID,
		StateKey: &key,
		Content:  content,
	}
}

func handle(t *testing.T, f *fixture, event messaging.Event) State {
	t.Helper()
	state, err := f.verifier.HandleMembershipEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("HandleMembershipEvent failed: %v", err)
	}
	return state
}

func TestVerifierRejectsWithoutToken(t *testing.T) {
	f := newFixture(t)
	if state := handle(t, f, memberEvent(talkRoom, joiner, "")); state != StateUnchecked {
		t.Errorf("state = %v, want %v", state, StateUnchecked)
	}
}

func TestVerifierRejectsUnknownToken(t *testing.T) {
	f := newFixture(t)
	if state := handle(t, f, memberEvent(talkRoom, joiner, "no-such-token")); state != StateHasToken {
		t.Errorf("state = %v, want %v", state, StateHasToken)
	}
}

func TestVerifierRejectsRecordWithoutPayload(t *testing.T) {
	f := newFixture(t)
	token := "bare-token"
	room := f.session.Room(talkRoom)
	room.State = append(room.State, messaging.Event{
		Type:     schema.MatrixEventTypeThirdPartyInvite,
		Sender:   botUser,
		StateKey: &token,
		Content:  map[string]any{"display_name": "someone@example.com"},
	})

	if state := handle(t, f, memberEvent(talkRoom, joiner, token)); state != StateTokenResolved {
		t.Errorf("state = %v, want %v", state, StateTokenResolved)
	}
}

func TestVerifierRejectsForeignRoomCreation(t *testing.T) {
	f := newFixture(t)
	f.session.Room(talkRoom).CreationSender = ref.MustParseUserID("@stranger:conf.test")

	if state := handle(t, f, memberEvent(talkRoom, joiner, inviteToken)); state != StatePayloadPresent {
		t.Errorf("state = %v, want %v", state, StatePayloadPresent)
	}
}

func TestVerifierRejectsForeignInviteRecord(t *testing.T) {
	f := newFixture(t)
	token := "forged-token"
	room := f.session.Room(talkRoom)
	room.State = append(room.State, messaging.Event{
		Type:     schema.MatrixEventTypeThirdPartyInvite,
		Sender:   ref.MustParseUserID("@stranger:conf.test"),
		StateKey: &token,
		Content: map[string]any{
			schema.ThirdPartyInvitePersonIDKey: "p1",
		},
	})

	if state := handle(t, f, memberEvent(talkRoom, joiner, token)); state != StatePayloadPresent {
		t.Errorf("state = %v, want %v", state, StatePayloadPresent)
	}
}

func TestVerifierRejectsUnknownPerson(t *testing.T) {
	f := newFixture(t)
	token := "orphan-token"
	room := f.session.Room(talkRoom)
	room.State = append(room.State, messaging.Event{
		Type:     schema.MatrixEventTypeThirdPartyInvite,
		Sender:   botUser,
		StateKey: &token,
		Content: map[string]any{
			schema.ThirdPartyInvitePersonIDKey: "nobody",
		},
	})

	if state := handle(t, f, memberEvent(talkRoom, joiner, token)); state != StateAuthenticated {
		t.Errorf("state = %v, want %v", state, StateAuthenticated)
	}
}

func TestVerifierAppliesValidRedemption(t *testing.T) {
	f := newFixture(t)
	if state := handle(t, f, memberEvent(talkRoom, joiner, inviteToken)); state != StateApplied {
		t.Fatalf("state = %v, want %v", state, StateApplied)
	}

	person, ok := f.catalog.Person("p1")
	if !ok || person.MatrixID != joiner.String() {
		t.Errorf("cached person = %+v, %v; want correlated to %s", person, ok, joiner)
	}

	raw, err := f.session.GetStateEvent(context.Background(), rootRoom, schema.EventTypeStoredPerson, "p1")
	if err != nil {
		t.Fatalf("stored person record not persisted: %v", err)
	}
	var stored schema.StoredPerson
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("parsing stored person: %v", err)
	}
	if stored.MatrixID != joiner.String() || stored.Role != schema.RoleSpeaker {
		t.Errorf("stored person = %+v", stored)
	}

	raw, err = f.session.GetStateEvent(context.Background(), talkRoom, schema.MatrixEventTypePowerLevels, "")
	if err != nil {
		t.Fatalf("power levels not written after redemption: %v", err)
	}
	var levels struct {
		Users map[string]float64 `json:"users"`
	}
	if err := json.Unmarshal(raw, &levels); err != nil {
		t.Fatalf("parsing power levels: %v", err)
	}
	if levels.Users[joiner.String()] != reconcile.DefaultModeratorLevel {
		t.Errorf("speaker level = %v, want %d", levels.Users[joiner.String()], reconcile.DefaultModeratorLevel)
	}
	if levels.Users[botUser.String()] != reconcile.DefaultAdminLevel {
		t.Errorf("bot level = %v, want %d", levels.Users[botUser.String()], reconcile.DefaultAdminLevel)
	}
}

func TestVerifierIdentityStampIsMonotonic(t *testing.T) {
	f := newFixture(t)
	if state := handle(t, f, memberEvent(talkRoom, joiner, inviteToken)); state != StateApplied {
		t.Fatalf("first redemption state = %v, want %v", state, StateApplied)
	}

	// A second bot-authored invite for the same person, redeemed by a
	// different account, must not displace the first identity.
	token := "tok-2"
	room := f.session.Room(talkRoom)
	room.State = append(room.State, messaging.Event{
		Type:     schema.MatrixEventTypeThirdPartyInvite,
		Sender:   botUser,
		StateKey: &token,
		Content: map[string]any{
			schema.ThirdPartyInvitePersonIDKey: "p1",
		},
	})
	impostor := ref.MustParseUserID("@impostor:conf.test")
	if state := handle(t, f, memberEvent(talkRoom, impostor, token)); state != StateApplied {
		t.Fatalf("second redemption state = %v, want %v", state, StateApplied)
	}

	person, _ := f.catalog.Person("p1")
	if person.MatrixID != joiner.String() {
		t.Errorf("matrix_id = %q after second redemption, want the original %s", person.MatrixID, joiner)
	}
}

func TestVerifierAppliesWithoutCatalogedEntity(t *testing.T) {
	f := newFixture(t)
	plainRoom := ref.MustParseRoomID("!plain:conf.test")
	token := "plain-token"
	f.session.AddRoom(plainRoom, &testutil.FakeRoom{
		Creation: map[string]any{},
		State: []messaging.Event{{
			Type:     schema.MatrixEventTypeThirdPartyInvite,
			Sender:   botUser,
			StateKey: &token,
			Content: map[string]any{
				schema.ThirdPartyInvitePersonIDKey: "p1",
			},
		}},
	})

	if state := handle(t, f, memberEvent(plainRoom, joiner, token)); state != StateApplied {
		t.Fatalf("state = %v, want %v", state, StateApplied)
	}
	if _, err := f.session.GetStateEvent(context.Background(), plainRoom, schema.MatrixEventTypePowerLevels, ""); err == nil {
		t.Error("permissions were written for a room backing no entity")
	}
}
