// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"testing"

	"github.com/MTRNord/generic-conference-bot/messaging"

	"github.com/MTRNord/generic-conference-bot/lib/ref"
	"github.com/MTRNord/generic-conference-bot/lib/schema"
	"github.com/MTRNord/generic-conference-bot/lib/testutil"
)

var botUser = ref.MustParseUserID("@conference:conf.test")

func creationContent(conferenceID, kind string, extra map[string]any) map[string]any {
	content := map[string]any{
		schema.CreationConferenceIDKey: conferenceID,
		schema.CreationKindKey:         kind,
	}
	for key, value := range extra {
		content[key] = value
	}
	return content
}

func stateEvent(eventType ref.EventType, stateKey string, content map[string]any) messaging.Event {
	key := stateKey
	return messaging.Event{Type: eventType, Sender: botUser, StateKey: &key, Content: content}
}

func newTestBuilder(t *testing.T, session *testutil.FakeSession, interestRooms map[string]ref.RoomAlias) (*Builder, *Catalog) {
	t.Helper()
	catalog := NewCatalog()
	builder, err := NewBuilder(BuilderConfig{
		Session:       session,
		Catalog:       catalog,
		ConferenceID:  "conf-x",
		InterestRooms: interestRooms,
		BatchSize:     2,
		Log:           discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	return builder, catalog
}

func TestRebuildClassifiesOnlyThisConference(t *testing.T) {
	session := testutil.NewFakeSession(botUser)
	session.AddRoom(ref.MustParseRoomID("!aud:conf.test"), &testutil.FakeRoom{
		Creation: creationContent("conf-x", schema.KindTagAuditorium,
			map[string]any{schema.CreationAuditoriumIDKey: "aud-1"}),
	})
	session.AddRoom(ref.MustParseRoomID("!foreign:conf.test"), &testutil.FakeRoom{
		Creation: creationContent("conf-y", schema.KindTagTalk,
			map[string]any{schema.CreationTalkIDKey: "talk-1"}),
	})

	builder, catalog := newTestBuilder(t, session, nil)
	if err := builder.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if _, ok := catalog.Auditorium("aud-1"); !ok {
		t.Error("auditorium aud-1 was not cataloged")
	}
	if _, ok := catalog.Talk("talk-1"); ok {
		t.Error("talk from a different conference was cataloged")
	}
	if _, err := catalog.RootRoom(); err == nil {
		t.Error("RootRoom() succeeded with no root room joined")
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	session := testutil.NewFakeSession(botUser)
	session.AddRoom(ref.MustParseRoomID("!root:conf.test"), &testutil.FakeRoom{
		Creation: creationContent("conf-x", schema.KindTagConference, nil),
	})
	session.AddRoom(ref.MustParseRoomID("!aud:conf.test"), &testutil.FakeRoom{
		Creation: creationContent("conf-x", schema.KindTagAuditorium,
			map[string]any{schema.CreationAuditoriumIDKey: "aud-1"}),
	})
	session.AddRoom(ref.MustParseRoomID("!talk:conf.test"), &testutil.FakeRoom{
		Creation: creationContent("conf-x", schema.KindTagTalk, map[string]any{
			schema.CreationTalkIDKey:       "talk-1",
			schema.CreationAuditoriumIDKey: "aud-1",
		}),
	})

	builder, catalog := newTestBuilder(t, session, nil)
	for run := 0; run < 2; run++ {
		if err := builder.Rebuild(context.Background()); err != nil {
			t.Fatalf("Rebuild run %d failed: %v", run, err)
		}

		if rootRoom, err := catalog.RootRoom(); err != nil || rootRoom != ref.MustParseRoomID("!root:conf.test") {
			t.Errorf("run %d: RootRoom() = %v, %v", run, rootRoom, err)
		}
		auditorium, ok := catalog.Auditorium("aud-1")
		if !ok || auditorium.RoomID != ref.MustParseRoomID("!aud:conf.test") {
			t.Errorf("run %d: Auditorium(aud-1) = %+v, %v", run, auditorium, ok)
		}
		talk, ok := catalog.Talk("talk-1")
		if !ok || talk.AuditoriumID != "aud-1" {
			t.Errorf("run %d: Talk(talk-1) = %+v, %v", run, talk, ok)
		}
	}
}

func TestRebuildToleratesPerRoomFailures(t *testing.T) {
	session := testutil.NewFakeSession(botUser)
	broken := ref.MustParseRoomID("!broken:conf.test")
	session.AddRoom(broken, &testutil.FakeRoom{
		Creation: creationContent("conf-x", schema.KindTagAuditorium,
			map[string]any{schema.CreationAuditoriumIDKey: "aud-broken"}),
	})
	session.FailCreationRead[broken] = true
	session.AddRoom(ref.MustParseRoomID("!aud:conf.test"), &testutil.FakeRoom{
		Creation: creationContent("conf-x", schema.KindTagAuditorium,
			map[string]any{schema.CreationAuditoriumIDKey: "aud-1"}),
	})
	session.AddRoom(ref.MustParseRoomID("!talk:conf.test"), &testutil.FakeRoom{
		Creation: creationContent("conf-x", schema.KindTagTalk,
			map[string]any{schema.CreationTalkIDKey: "talk-1"}),
	})

	builder, catalog := newTestBuilder(t, session, nil)
	if err := builder.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if _, ok := catalog.Auditorium("aud-broken"); ok {
		t.Error("room with unreadable creation event was cataloged")
	}
	if _, ok := catalog.Auditorium("aud-1"); !ok {
		t.Error("healthy auditorium was not cataloged despite sibling failure")
	}
	if _, ok := catalog.Talk("talk-1"); !ok {
		t.Error("healthy talk was not cataloged despite sibling failure")
	}
}

func TestRebuildResolvesConfiguredInterestRooms(t *testing.T) {
	session := testutil.NewFakeSession(botUser)
	loungeRoom := ref.MustParseRoomID("!lounge:conf.test")
	session.AddRoom(loungeRoom, &testutil.FakeRoom{Creation: map[string]any{}})
	session.AddAlias(ref.MustParseRoomAlias("#lounge:conf.test"), loungeRoom)

	builder, catalog := newTestBuilder(t, session, map[string]ref.RoomAlias{
		"lounge":  ref.MustParseRoomAlias("#lounge:conf.test"),
		"hallway": ref.MustParseRoomAlias("#hallway:conf.test"),
	})
	if err := builder.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	interest, ok := catalog.InterestRoom("lounge")
	if !ok || interest.RoomID != loungeRoom {
		t.Errorf("InterestRoom(lounge) = %+v, %v", interest, ok)
	}
	if _, ok := catalog.InterestRoom("hallway"); ok {
		t.Error("unresolvable interest alias was cataloged")
	}
}

func TestRebuildHydratesRootState(t *testing.T) {
	session := testutil.NewFakeSession(botUser)
	session.AddRoom(ref.MustParseRoomID("!root:conf.test"), &testutil.FakeRoom{
		Creation: creationContent("conf-x", schema.KindTagConference, nil),
		State: []messaging.Event{
			stateEvent(schema.EventTypeStoredPerson, "p1", map[string]any{
				"person_id": "p1",
				"name":      "Alice",
				"matrix_id": "@alice:conf.test",
			}),
			stateEvent(schema.EventTypeSubspace, "workshops", map[string]any{
				"subspace_id": "workshops",
				"room_id":     "!workshops:conf.test",
			}),
		},
	})

	builder, catalog := newTestBuilder(t, session, nil)
	if err := builder.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	person, ok := catalog.Person("p1")
	if !ok || person.MatrixID != "@alice:conf.test" {
		t.Errorf("Person(p1) = %+v, %v", person, ok)
	}
	subspace, err := catalog.Subspace("workshops")
	if err != nil || subspace.RoomID != ref.MustParseRoomID("!workshops:conf.test") {
		t.Errorf("Subspace(workshops) = %+v, %v", subspace, err)
	}
}

func TestRebuildHydrationFailureKeepsClassification(t *testing.T) {
	session := testutil.NewFakeSession(botUser)
	rootRoom := ref.MustParseRoomID("!root:conf.test")
	session.AddRoom(rootRoom, &testutil.FakeRoom{
		Creation: creationContent("conf-x", schema.KindTagConference, nil),
	})
	session.FailRoomState[rootRoom] = true
	session.AddRoom(ref.MustParseRoomID("!aud:conf.test"), &testutil.FakeRoom{
		Creation: creationContent("conf-x", schema.KindTagAuditorium,
			map[string]any{schema.CreationAuditoriumIDKey: "aud-1"}),
	})

	builder, catalog := newTestBuilder(t, session, nil)
	if err := builder.Rebuild(context.Background()); err == nil {
		t.Fatal("Rebuild succeeded despite root state read failure")
	}

	if _, ok := catalog.Auditorium("aud-1"); !ok {
		t.Error("classified auditorium lost after hydration failure")
	}
	if _, err := catalog.RootRoom(); err != nil {
		t.Errorf("RootRoom() failed after hydration failure: %v", err)
	}
}
