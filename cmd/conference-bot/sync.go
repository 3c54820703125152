// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/MTRNord/generic-conference-bot/messaging"

	"github.com/MTRNord/generic-conference-bot/lib/redemption"
	"github.com/MTRNord/generic-conference-bot/lib/schema"
	"github.com/MTRNord/generic-conference-bot/lib/service"
)

// syncFilter restricts /sync to membership events: the redemption
// verifier is the only event-driven component, and it only cares about
// m.room.member. Built from typed constants so event type renames are
// caught at compile time.
var syncFilter = buildSyncFilter()

func buildSyncFilter() string {
	memberTypes := []string{string(schema.MatrixEventTypeMember)}
	emptyTypes := []string{}

	filter := map[string]any{
		"room": map[string]any{
			"state": map[string]any{
				"types": emptyTypes,
			},
			"timeline": map[string]any{
				"types": memberTypes,
				"limit": 100,
			},
			"ephemeral": map[string]any{
				"types": emptyTypes,
			},
			"account_data": map[string]any{
				"types": emptyTypes,
			},
		},
		"presence": map[string]any{
			"types": emptyTypes,
		},
		"account_data": map[string]any{
			"types": emptyTypes,
		},
	}

	data, err := json.Marshal(filter)
	if err != nil {
		panic("building sync filter: " + err.Error())
	}
	return string(data)
}

// conferenceBot dispatches sync responses to the redemption verifier.
type conferenceBot struct {
	session  messaging.Session
	verifier *redemption.Verifier
	log      *slog.Logger
}

// handleSync processes one incremental /sync response: accept room
// invites, then feed every membership timeline event through the
// redemption verifier. Almost all events reject at the first guard;
// that is the expected steady state.
func (b *conferenceBot) handleSync(ctx context.Context, response *messaging.SyncResponse) {
	if len(response.Rooms.Invite) > 0 {
		accepted := service.AcceptInvites(ctx, b.session, response.Rooms.Invite, b.log)
		if len(accepted) > 0 {
			b.log.Info("accepted room invites", "count", len(accepted))
		}
	}

	for roomID, room := range response.Rooms.Join {
		for _, event := range room.Timeline.Events {
			if event.Type != schema.MatrixEventTypeMember || event.StateKey == nil {
				continue
			}
			event.RoomID = roomID
			if _, err := b.verifier.HandleMembershipEvent(ctx, event); err != nil {
				b.log.Warn("membership event handling failed",
					"room_id", roomID,
					"event_id", event.EventID,
					"error", err)
			}
		}
	}
}
