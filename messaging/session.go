// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"

	"github.com/MTRNord/generic-conference-bot/lib/ref"
)

// Session is the capability surface of the room substrate that the
// reconciliation engine consumes. *DirectSession implements it against
// a live homeserver; engine tests substitute an in-memory fake.
//
// Methods that look things up return *MatrixError with M_NOT_FOUND for
// missing rooms, state events, or aliases — callers decide whether
// absence is expected (see IsNotFound).
type Session interface {
	// UserID returns the fully-qualified Matrix user ID of the
	// session's account. Trust-chain checks compare event senders
	// against this identity.
	UserID() ref.UserID

	// WhoAmI validates the session and returns the user ID.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// ResolveAlias resolves a room alias to a room ID.
	ResolveAlias(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error)

	// JoinedRooms returns the list of room IDs the account has joined.
	JoinedRooms(ctx context.Context) ([]ref.RoomID, error)

	// GetStateEvent fetches a specific state event's content from a
	// room. Returns the raw JSON content for the caller to unmarshal.
	GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error)

	// GetRoomState fetches all current state events from a room,
	// including each event's sender.
	GetRoomState(ctx context.Context, roomID ref.RoomID) ([]Event, error)

	// SendStateEvent sends a state event to a room. Returns the event ID.
	SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (string, error)

	// SendMessage sends a message to a room. Returns the event ID.
	SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (string, error)

	// CreateRoom creates a new Matrix room.
	CreateRoom(ctx context.Context, request CreateRoomRequest) (*CreateRoomResponse, error)

	// InviteUser invites a user to a room by Matrix ID.
	InviteUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error

	// InviteByEmail issues a third-party invite addressed to an email
	// address, carrying the target person ID.
	InviteByEmail(ctx context.Context, roomID ref.RoomID, invite EmailInvite) error

	// JoinRoom joins a room by room ID. To join by alias, resolve
	// with ResolveAlias first.
	JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)

	// GetRoomMembers returns the members of a room from the /members
	// endpoint. Use EffectiveMembership to interpret each member's
	// computed status.
	GetRoomMembers(ctx context.Context, roomID ref.RoomID) ([]RoomMember, error)

	// Sync performs an incremental sync with the homeserver.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)
