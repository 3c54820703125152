// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"testing"
)

func TestParseRoomID(t *testing.T) {
	valid := []string{
		"!abc123:conference.example",
		"!x:server",
	}
	for _, raw := range valid {
		t.Run(raw, func(t *testing.T) {
			roomID, err := ParseRoomID(raw)
			if err != nil {
				t.Fatalf("ParseRoomID(%q) failed: %v", raw, err)
			}
			if roomID.String() != raw {
				t.Errorf("String() = %q, want %q", roomID.String(), raw)
			}
			if roomID.IsZero() {
				t.Error("IsZero() = true for valid room ID")
			}
		})
	}

	invalid := []string{
		"",
		"abc:server",
		"!abc",
		"!:server",
		"!abc:",
		"#alias:server",
	}
	for _, raw := range invalid {
		t.Run("invalid "+raw, func(t *testing.T) {
			if _, err := ParseRoomID(raw); err == nil {
				t.Errorf("ParseRoomID(%q) succeeded, want error", raw)
			}
		})
	}
}

func TestParseUserID(t *testing.T) {
	userID, err := ParseUserID("@conference-bot:conference.example")
	if err != nil {
		t.Fatalf("ParseUserID failed: %v", err)
	}
	if got := userID.Localpart(); got != "conference-bot" {
		t.Errorf("Localpart() = %q, want %q", got, "conference-bot")
	}

	for _, raw := range []string{"", "conference-bot", "@bot", "@:server", "@bot:"} {
		if _, err := ParseUserID(raw); err == nil {
			t.Errorf("ParseUserID(%q) succeeded, want error", raw)
		}
	}
}

func TestParseRoomAlias(t *testing.T) {
	alias, err := ParseRoomAlias("#main-hall:conference.example")
	if err != nil {
		t.Fatalf("ParseRoomAlias failed: %v", err)
	}
	if got := alias.Localpart(); got != "main-hall" {
		t.Errorf("Localpart() = %q, want %q", got, "main-hall")
	}

	if _, err := ParseRoomAlias("!room:server"); err == nil {
		t.Error("ParseRoomAlias accepted a room ID")
	}
}

func TestRoomIDJSONRoundTrip(t *testing.T) {
	original := MustParseRoomID("!abc:conference.example")
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded RoomID
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip: got %v, want %v", decoded, original)
	}
}

func TestUserIDJSONRejectsInvalid(t *testing.T) {
	var userID UserID
	if err := json.Unmarshal([]byte(`"not-a-user-id"`), &userID); err == nil {
		t.Error("unmarshal accepted an invalid user ID")
	}
}
