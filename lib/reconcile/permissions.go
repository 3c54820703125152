// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/MTRNord/generic-conference-bot/messaging"

	"github.com/MTRNord/generic-conference-bot/lib/directory"
	"github.com/MTRNord/generic-conference-bot/lib/metrics"
	"github.com/MTRNord/generic-conference-bot/lib/ref"
	"github.com/MTRNord/generic-conference-bot/lib/schema"
)

// Default power-level tiers.
const (
	DefaultAdminLevel     = 100
	DefaultModeratorLevel = 50
)

// Permissions merges moderator grants into rooms' power-level state.
type Permissions struct {
	Session messaging.Session

	// Moderator is the configured human moderator account pinned to
	// the admin tier alongside the bot itself. Zero disables the pin.
	Moderator ref.UserID

	// AdminLevel and ModeratorLevel override the default tiers when
	// non-zero.
	AdminLevel     int
	ModeratorLevel int

	Log *slog.Logger
}

// EnsurePermissions reads the room's power-level record, pins the bot
// and the configured moderator account to the admin tier, grants the
// moderator tier to targets not already listed, and writes the merged
// record back as one state update. Entries already present keep their
// tier, and unrecognized power-level keys pass through verbatim.
// Calling it again with the same targets writes nothing.
func (p *Permissions) EnsurePermissions(ctx context.Context, roomID ref.RoomID, targets []directory.Target) error {
	content, err := p.readPowerLevels(ctx, roomID)
	if err != nil {
		return err
	}

	users, ok := content["users"].(map[string]any)
	if !ok {
		users = make(map[string]any)
		content["users"] = users
	}

	adminLevel := p.AdminLevel
	if adminLevel == 0 {
		adminLevel = DefaultAdminLevel
	}
	moderatorLevel := p.ModeratorLevel
	if moderatorLevel == 0 {
		moderatorLevel = DefaultModeratorLevel
	}

	changed := false
	pin := func(userID ref.UserID) {
		if level, ok := levelOf(users[userID.String()]); !ok || level != adminLevel {
			users[userID.String()] = adminLevel
			changed = true
		}
	}
	pin(p.Session.UserID())
	if !p.Moderator.IsZero() {
		pin(p.Moderator)
	}

	granted := 0
	for _, target := range targets {
		if target.MatrixID.IsZero() {
			continue
		}
		if _, exists := users[target.MatrixID.String()]; exists {
			continue
		}
		users[target.MatrixID.String()] = moderatorLevel
		changed = true
		granted++
	}

	if !changed {
		return nil
	}

	if _, err := p.Session.SendStateEvent(ctx, roomID, schema.MatrixEventTypePowerLevels, "", content); err != nil {
		return fmt.Errorf("reconcile: write power levels of %s: %w", roomID, err)
	}
	metrics.PermissionGrants.Add(float64(granted))
	p.logger().Info("permissions reconciled",
		"room_id", roomID, "granted", granted)
	return nil
}

// readPowerLevels returns the room's current power-level content, or
// an empty record for rooms that have none yet.
func (p *Permissions) readPowerLevels(ctx context.Context, roomID ref.RoomID) (map[string]any, error) {
	raw, err := p.Session.GetStateEvent(ctx, roomID, schema.MatrixEventTypePowerLevels, "")
	if messaging.IsNotFound(err) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reconcile: read power levels of %s: %w", roomID, err)
	}
	var content map[string]any
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("reconcile: parse power levels of %s: %w", roomID, err)
	}
	if content == nil {
		content = make(map[string]any)
	}
	return content, nil
}

// levelOf normalizes a power-level value. Levels arrive as float64
// from JSON decoding and as int from our own writes.
func levelOf(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func (p *Permissions) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}
