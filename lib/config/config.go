// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the bot's YAML configuration file.
//
// The file location is explicit: the --config flag, or the
// CONFERENCE_BOT_CONFIG environment variable. There is no discovery
// and no environment-variable override of individual fields.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MTRNord/generic-conference-bot/lib/ref"
)

// EnvConfigPath names the environment variable consulted when no
// --config flag is given.
const EnvConfigPath = "CONFERENCE_BOT_CONFIG"

// Config is the bot's configuration file.
type Config struct {
	// HomeserverURL is the base URL of the Matrix homeserver.
	HomeserverURL string `yaml:"homeserver_url"`

	// AccessToken authenticates the bot's Matrix account.
	AccessToken string `yaml:"access_token"`

	// UserID is the bot's fully-qualified Matrix user ID. Configured
	// explicitly rather than discovered so a token/account mismatch is
	// caught at startup by WhoAmI.
	UserID string `yaml:"user_id"`

	Conference Conference `yaml:"conference"`

	// ModeratorUserID is a human moderator account pinned to the admin
	// tier in every reconciled room. Optional.
	ModeratorUserID string `yaml:"moderator_user_id"`

	PowerLevels    PowerLevels    `yaml:"power_levels"`
	Rebuild        Rebuild        `yaml:"rebuild"`
	InterestRooms  []InterestRoom `yaml:"interest_rooms"`
	Backend        Backend        `yaml:"backend"`
	IdentityServer IdentityServer `yaml:"identity_server"`
	Metrics        Metrics        `yaml:"metrics"`
}

// Conference identifies the conference this bot instance manages.
type Conference struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// PowerLevels overrides the power-level tiers. Zero values use the
// defaults (100 admin, 50 moderator).
type PowerLevels struct {
	Admin     int `yaml:"admin"`
	Moderator int `yaml:"moderator"`
}

// Rebuild tunes the catalog rebuild.
type Rebuild struct {
	// BatchSize bounds concurrent room-state reads. Zero means the
	// default of 20.
	BatchSize int `yaml:"batch_size"`
}

// InterestRoom declares a pre-existing interest room located by alias.
type InterestRoom struct {
	ID    string `yaml:"id"`
	Alias string `yaml:"alias"`
}

// Backend configures the conference's event database.
type Backend struct {
	// DSN is the Postgres connection string. Empty runs the bot
	// without a backend (redemptions reject, target queries are
	// empty); useful only for smoke testing.
	DSN string `yaml:"dsn"`
}

// IdentityServer configures email (third-party) invites. Without it
// uncorrelated people cannot be invited.
type IdentityServer struct {
	// Server is the identity server domain, e.g. "id.example.org".
	Server      string `yaml:"server"`
	AccessToken string `yaml:"access_token"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	// ListenAddr is the address for /metrics, e.g. ":9090". Empty
	// disables the listener.
	ListenAddr string `yaml:"listen_addr"`
}

// Load reads and validates the configuration. An empty path falls back
// to the CONFERENCE_BOT_CONFIG environment variable.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return nil, fmt.Errorf("config: no path given and %s is not set", EnvConfigPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &config, nil
}

// Validate checks required fields and ID syntax.
func (c *Config) Validate() error {
	if c.HomeserverURL == "" {
		return fmt.Errorf("homeserver_url is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("access_token is required")
	}
	if _, err := ref.ParseUserID(c.UserID); err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	if c.Conference.ID == "" {
		return fmt.Errorf("conference.id is required")
	}
	if c.ModeratorUserID != "" {
		if _, err := ref.ParseUserID(c.ModeratorUserID); err != nil {
			return fmt.Errorf("moderator_user_id: %w", err)
		}
	}
	seen := make(map[string]bool, len(c.InterestRooms))
	for _, room := range c.InterestRooms {
		if room.ID == "" {
			return fmt.Errorf("interest_rooms: entry without an id")
		}
		if seen[room.ID] {
			return fmt.Errorf("interest_rooms: duplicate id %q", room.ID)
		}
		seen[room.ID] = true
		if _, err := ref.ParseRoomAlias(room.Alias); err != nil {
			return fmt.Errorf("interest_rooms[%s].alias: %w", room.ID, err)
		}
	}
	return nil
}

// BotUserID returns the parsed bot user ID. Call after Validate.
func (c *Config) BotUserID() ref.UserID {
	return ref.MustParseUserID(c.UserID)
}

// Moderator returns the parsed moderator user ID, zero when not
// configured. Call after Validate.
func (c *Config) Moderator() ref.UserID {
	if c.ModeratorUserID == "" {
		return ref.UserID{}
	}
	return ref.MustParseUserID(c.ModeratorUserID)
}

// InterestRoomAliases returns the configured interest rooms keyed by
// logical ID. Call after Validate.
func (c *Config) InterestRoomAliases() map[string]ref.RoomAlias {
	if len(c.InterestRooms) == 0 {
		return nil
	}
	aliases := make(map[string]ref.RoomAlias, len(c.InterestRooms))
	for _, room := range c.InterestRooms {
		aliases[room.ID] = ref.MustParseRoomAlias(room.Alias)
	}
	return aliases
}
