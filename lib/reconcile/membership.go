// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MTRNord/generic-conference-bot/messaging"

	"github.com/MTRNord/generic-conference-bot/lib/directory"
	"github.com/MTRNord/generic-conference-bot/lib/metrics"
	"github.com/MTRNord/generic-conference-bot/lib/ref"
	"github.com/MTRNord/generic-conference-bot/lib/schema"
)

// Summary aggregates the outcome of one EnsureInvited run. Individual
// target failures are logged and counted, not propagated; callers
// surface the aggregate in a completion notice.
type Summary struct {
	Invited int
	Skipped int
	Failed  int
}

// String renders the summary for a completion notice.
func (s Summary) String() string {
	return fmt.Sprintf("invited %d, skipped %d, failed %d", s.Invited, s.Skipped, s.Failed)
}

// Membership invites target people into rooms. It never removes or
// demotes anyone.
type Membership struct {
	Session messaging.Session

	// IDServer and IDAccessToken authorize email invites through the
	// identity server. Without them, uncorrelated targets are skipped.
	IDServer      string
	IDAccessToken string

	Log *slog.Logger
}

// EnsureInvited converges the room's membership toward including every
// target.
//
// A target is skipped when its platform identity already has effective
// join or invite membership, or when a pending third-party invite in
// the room already carries its person ID. Otherwise the target is
// invited by Matrix ID when correlated, else by email. One target
// failing does not stop the rest.
func (m *Membership) EnsureInvited(ctx context.Context, roomID ref.RoomID, targets []directory.Target) (Summary, error) {
	log := m.logger().With("room_id", roomID)

	members, err := m.Session.GetRoomMembers(ctx, roomID)
	if err != nil {
		return Summary{}, fmt.Errorf("reconcile: members of %s: %w", roomID, err)
	}
	present := make(map[ref.UserID]bool, len(members))
	for _, member := range members {
		if member.IsEffectivelyPresent() {
			present[member.UserID] = true
		}
	}

	pending, err := m.pendingInvitePersonIDs(ctx, roomID)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, target := range targets {
		switch {
		case !target.MatrixID.IsZero() && present[target.MatrixID]:
			metrics.InvitesTotal.WithLabelValues("skipped_present").Inc()
			summary.Skipped++

		case pending[target.PersonID]:
			metrics.InvitesTotal.WithLabelValues("skipped_pending").Inc()
			summary.Skipped++

		case !target.MatrixID.IsZero():
			if err := m.Session.InviteUser(ctx, roomID, target.MatrixID); err != nil {
				log.Warn("invite failed", "user_id", target.MatrixID, "error", err)
				metrics.InvitesTotal.WithLabelValues("failed").Inc()
				summary.Failed++
				continue
			}
			metrics.InvitesTotal.WithLabelValues("invited").Inc()
			summary.Invited++

		case target.Email != "" && m.IDServer != "":
			invite := messaging.EmailInvite{
				IDServer:      m.IDServer,
				IDAccessToken: m.IDAccessToken,
				Address:       target.Email,
				PersonID:      target.PersonID,
			}
			if err := m.Session.InviteByEmail(ctx, roomID, invite); err != nil {
				log.Warn("email invite failed", "person_id", target.PersonID, "error", err)
				metrics.InvitesTotal.WithLabelValues("failed").Inc()
				summary.Failed++
				continue
			}
			metrics.InvitesTotal.WithLabelValues("invited").Inc()
			summary.Invited++

		default:
			log.Warn("target has no platform identity and no email",
				"person_id", target.PersonID)
			metrics.InvitesTotal.WithLabelValues("skipped_unreachable").Inc()
			summary.Skipped++
		}
	}

	log.Info("membership reconciled", "summary", summary.String())
	return summary, nil
}

// pendingInvitePersonIDs collects the person IDs carried by the room's
// current third-party-invite records. A person with a pending invite
// must not be invited again under a fresh token.
func (m *Membership) pendingInvitePersonIDs(ctx context.Context, roomID ref.RoomID) (map[string]bool, error) {
	events, err := m.Session.GetRoomState(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: state of %s: %w", roomID, err)
	}
	pending := make(map[string]bool)
	for _, event := range events {
		if event.Type != schema.MatrixEventTypeThirdPartyInvite {
			continue
		}
		if personID, ok := event.Content[schema.ThirdPartyInvitePersonIDKey].(string); ok && personID != "" {
			pending[personID] = true
		}
	}
	return pending, nil
}

func (m *Membership) logger() *slog.Logger {
	if m.Log != nil {
		return m.Log
	}
	return slog.Default()
}
