// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package redemption

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/MTRNord/generic-conference-bot/messaging"

	"github.com/MTRNord/generic-conference-bot/lib/backend"
	"github.com/MTRNord/generic-conference-bot/lib/directory"
	"github.com/MTRNord/generic-conference-bot/lib/metrics"
	"github.com/MTRNord/generic-conference-bot/lib/reconcile"
	"github.com/MTRNord/generic-conference-bot/lib/ref"
	"github.com/MTRNord/generic-conference-bot/lib/schema"
)

// State is a verification stage. HandleMembershipEvent returns the
// furthest state reached: StateApplied means the redemption was
// verified and correlated; any other value means the chain rejected at
// that stage.
type State int

const (
	// StateUnchecked: the event carries no third-party-invite token
	// (or no usable member state key) — almost all membership events
	// stop here.
	StateUnchecked State = iota
	// StateHasToken: a token was present but its invite record could
	// not be read from the room.
	StateHasToken
	// StateTokenResolved: the invite record exists but carries no
	// person-ID payload.
	StateTokenResolved
	// StatePayloadPresent: a payload exists but the authenticity check
	// failed — the room's creation event or the invite record was not
	// authored by the bot.
	StatePayloadPresent
	// StateAuthenticated: authenticity passed but the backend has no
	// person records for the payload's person ID.
	StateAuthenticated
	// StateCorrelated: backend records matched; application is in
	// progress.
	StateCorrelated
	// StateApplied: terminal success — identity stamped, records
	// persisted, permissions reconciled.
	StateApplied
)

func (s State) String() string {
	switch s {
	case StateUnchecked:
		return "unchecked"
	case StateHasToken:
		return "has_token"
	case StateTokenResolved:
		return "token_resolved"
	case StatePayloadPresent:
		return "payload_present"
	case StateAuthenticated:
		return "authenticated"
	case StateCorrelated:
		return "correlated"
	case StateApplied:
		return "applied"
	default:
		return "unknown"
	}
}

// Verifier checks invite redemptions and applies identity correlation.
type Verifier struct {
	Session     messaging.Session
	Catalog     *directory.Catalog
	People      backend.People
	Resolver    *directory.Resolver
	Permissions *reconcile.Permissions
	Log         *slog.Logger
}

// HandleMembershipEvent runs the guard chain for one membership event.
//
// The returned state is the furthest stage reached. Errors are
// returned only for infrastructure failures (backend queries, state
// writes) after the chain has already authenticated; guard failures
// reject silently.
func (v *Verifier) HandleMembershipEvent(ctx context.Context, event messaging.Event) (State, error) {
	log := v.logger().With("room_id", event.RoomID, "event_id", event.EventID)

	joiner, token, ok := v.extractToken(event)
	if !ok {
		return v.reject(StateUnchecked)
	}

	personID, rejectAt, ok := v.resolveToken(ctx, event.RoomID, token)
	if !ok {
		return v.reject(rejectAt)
	}

	if !v.authentic(ctx, event.RoomID, token, log) {
		return v.reject(StatePayloadPresent)
	}

	people, err := v.People.FindPeopleWithID(ctx, personID)
	if err != nil {
		return StateAuthenticated, fmt.Errorf("redemption: backend lookup for %q: %w", personID, err)
	}
	if len(people) == 0 {
		log.Debug("redemption payload matches no backend person", "person_id", personID)
		return v.reject(StateAuthenticated)
	}

	if err := v.apply(ctx, event.RoomID, people[0], joiner, log); err != nil {
		return StateCorrelated, err
	}

	metrics.RedemptionsTotal.WithLabelValues("applied").Inc()
	log.Info("invite redemption correlated",
		"person_id", personID, "user_id", joiner)
	return StateApplied, nil
}

func (v *Verifier) reject(state State) (State, error) {
	metrics.RedemptionsTotal.WithLabelValues("rejected").Inc()
	return state, nil
}

// extractToken pulls the signed third-party-invite token and the
// member's user ID out of the event.
func (v *Verifier) extractToken(event messaging.Event) (ref.UserID, string, bool) {
	if event.StateKey == nil {
		return ref.UserID{}, "", false
	}
	joiner, err := ref.ParseUserID(*event.StateKey)
	if err != nil {
		return ref.UserID{}, "", false
	}

	invite, ok := event.Content["third_party_invite"].(map[string]any)
	if !ok {
		return ref.UserID{}, "", false
	}
	signed, ok := invite["signed"].(map[string]any)
	if !ok {
		return ref.UserID{}, "", false
	}
	token, ok := signed["token"].(string)
	if !ok || token == "" {
		return ref.UserID{}, "", false
	}
	return joiner, token, true
}

// resolveToken fetches the token's invite record and extracts its
// person-ID payload. On failure it reports which stage the chain
// stopped at.
func (v *Verifier) resolveToken(ctx context.Context, roomID ref.RoomID, token string) (personID string, rejectAt State, ok bool) {
	raw, err := v.Session.GetStateEvent(ctx, roomID, schema.MatrixEventTypeThirdPartyInvite, token)
	if err != nil {
		return "", StateHasToken, false
	}
	var content map[string]any
	if err := json.Unmarshal(raw, &content); err != nil {
		return "", StateHasToken, false
	}
	personID, found := content[schema.ThirdPartyInvitePersonIDKey].(string)
	if !found || personID == "" {
		return "", StateTokenResolved, false
	}
	return personID, 0, true
}

// authentic confirms from the room's full state that this bot authored
// both the room's creation event and the invite record being redeemed.
// Only then can the record's payload be trusted: the loop closes on
// "only an invite this bot issued can correlate identity".
func (v *Verifier) authentic(ctx context.Context, roomID ref.RoomID, token string, log *slog.Logger) bool {
	events, err := v.Session.GetRoomState(ctx, roomID)
	if err != nil {
		log.Debug("cannot read room state for authenticity check", "error", err)
		return false
	}

	own := v.Session.UserID()
	creationByUs := false
	inviteByUs := false
	for _, event := range events {
		if event.StateKey == nil {
			continue
		}
		switch {
		case event.Type == schema.MatrixEventTypeCreate && *event.StateKey == "":
			creationByUs = event.Sender == own
		case event.Type == schema.MatrixEventTypeThirdPartyInvite && *event.StateKey == token:
			inviteByUs = event.Sender == own
		}
	}
	return creationByUs && inviteByUs
}

// apply stamps the correlated identity, persists the stored-person
// record to the root room, updates the person cache, and reconciles
// the room's moderator permissions.
//
// The stamp is monotonic: an identity already recorded for the person
// is never replaced by a different one from a later redemption.
func (v *Verifier) apply(ctx context.Context, roomID ref.RoomID, person backend.Person, joiner ref.UserID, log *slog.Logger) error {
	matrixID := joiner.String()
	if existing, ok := v.Catalog.Person(person.PersonID); ok && existing.MatrixID != "" {
		if existing.MatrixID != matrixID {
			log.Warn("person already correlated to a different identity; keeping the first",
				"person_id", person.PersonID,
				"existing", existing.MatrixID, "claimed", matrixID)
		}
		matrixID = existing.MatrixID
	}

	stored := schema.StoredPerson{
		PersonID: person.PersonID,
		Name:     person.Name,
		Email:    person.Email,
		MatrixID: matrixID,
		Role:     person.Role,
	}

	rootRoom, err := v.Catalog.RootRoom()
	if err != nil {
		return fmt.Errorf("redemption: persist person %q: %w", person.PersonID, err)
	}
	if _, err := v.Session.SendStateEvent(ctx, rootRoom, schema.EventTypeStoredPerson, person.PersonID, stored); err != nil {
		return fmt.Errorf("redemption: persist person %q: %w", person.PersonID, err)
	}
	v.Catalog.SetPerson(stored)

	entity, ok := v.Catalog.EntityForRoom(roomID)
	if !ok {
		log.Debug("redeemed room backs no moderated entity; skipping permissions")
		return nil
	}
	moderators, err := v.Resolver.ModeratorsForEntity(ctx, entity)
	if err != nil {
		log.Warn("cannot compute moderators after redemption",
			"kind", entity.Kind, "logical_id", entity.LogicalID, "error", err)
		return nil
	}
	if err := v.Permissions.EnsurePermissions(ctx, roomID, moderators); err != nil {
		log.Warn("permission reconciliation after redemption failed",
			"kind", entity.Kind, "logical_id", entity.LogicalID, "error", err)
	}
	return nil
}

func (v *Verifier) logger() *slog.Logger {
	if v.Log != nil {
		return v.Log
	}
	return slog.Default()
}
