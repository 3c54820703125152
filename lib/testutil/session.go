// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/MTRNord/generic-conference-bot/messaging"

	"github.com/MTRNord/generic-conference-bot/lib/ref"
	"github.com/MTRNord/generic-conference-bot/lib/schema"
)

// FakeRoom is the in-memory state of one room held by a FakeSession.
type FakeRoom struct {
	// Creation is the immutable m.room.create content.
	Creation map[string]any

	// CreationSender is the room creator. Defaults to the session's
	// own user when left zero at AddRoom time.
	CreationSender ref.UserID

	// State holds current state events (excluding m.room.create,
	// which is synthesized from Creation/CreationSender).
	State []messaging.Event

	// Members is what GetRoomMembers returns.
	Members []messaging.RoomMember
}

// InviteCall records an InviteUser call.
type InviteCall struct {
	RoomID ref.RoomID
	UserID ref.UserID
}

// EmailInviteCall records an InviteByEmail call.
type EmailInviteCall struct {
	RoomID ref.RoomID
	Invite messaging.EmailInvite
}

// StateWrite records a SendStateEvent call.
type StateWrite struct {
	RoomID    ref.RoomID
	EventType ref.EventType
	StateKey  string
	Content   any
}

// FakeSession is an in-memory messaging.Session for engine tests. It
// models just enough substrate behavior for the catalog builder,
// reconcilers, and redemption verifier: per-room creation metadata,
// mutable typed state, membership, aliases, and recorded mutations.
//
// Failure injection: room IDs present in FailCreationRead cause
// GetStateEvent for m.room.create to fail; FailRoomState does the same
// for GetRoomState; user IDs in FailInvite cause InviteUser to fail.
type FakeSession struct {
	mu sync.Mutex

	userID  ref.UserID
	rooms   map[ref.RoomID]*FakeRoom
	aliases map[ref.RoomAlias]ref.RoomID

	FailCreationRead map[ref.RoomID]bool
	FailRoomState    map[ref.RoomID]bool
	FailInvite       map[ref.UserID]bool

	Invites      []InviteCall
	EmailInvites []EmailInviteCall
	StateWrites  []StateWrite
	Messages     []string

	// SyncFunc, when set, handles Sync calls. Unset returns an empty
	// response.
	SyncFunc func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error)

	roomCounter int
}

var _ messaging.Session = (*FakeSession)(nil)

// NewFakeSession creates a FakeSession owned by the given user ID.
func NewFakeSession(userID ref.UserID) *FakeSession {
	return &FakeSession{
		userID:           userID,
		rooms:            make(map[ref.RoomID]*FakeRoom),
		aliases:          make(map[ref.RoomAlias]ref.RoomID),
		FailCreationRead: make(map[ref.RoomID]bool),
		FailRoomState:    make(map[ref.RoomID]bool),
		FailInvite:       make(map[ref.UserID]bool),
	}
}

// AddRoom registers a joined room. A zero CreationSender defaults to
// the session's own user (rooms the bot created itself).
func (s *FakeSession) AddRoom(roomID ref.RoomID, room *FakeRoom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.CreationSender.IsZero() {
		room.CreationSender = s.userID
	}
	s.rooms[roomID] = room
}

// AddAlias registers an alias mapping for ResolveAlias.
func (s *FakeSession) AddAlias(alias ref.RoomAlias, roomID ref.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[alias] = roomID
}

// Room returns the FakeRoom for a room ID, or nil.
func (s *FakeSession) Room(roomID ref.RoomID) *FakeRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[roomID]
}

// UserID returns the session's user ID.
func (s *FakeSession) UserID() ref.UserID { return s.userID }

// WhoAmI returns the session's user ID.
func (s *FakeSession) WhoAmI(context.Context) (ref.UserID, error) { return s.userID, nil }

// ResolveAlias resolves a registered alias, or fails with M_NOT_FOUND.
func (s *FakeSession) ResolveAlias(_ context.Context, alias ref.RoomAlias) (ref.RoomID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roomID, ok := s.aliases[alias]
	if !ok {
		return ref.RoomID{}, notFound(fmt.Sprintf("alias %s not found", alias))
	}
	return roomID, nil
}

// JoinedRooms lists all registered rooms in deterministic order.
func (s *FakeSession) JoinedRooms(context.Context) ([]ref.RoomID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]ref.RoomID, 0, len(s.rooms))
	for roomID := range s.rooms {
		rooms = append(rooms, roomID)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].String() < rooms[j].String() })
	return rooms, nil
}

// GetStateEvent returns a state event's content from a room.
func (s *FakeSession) GetStateEvent(_ context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, notFound(fmt.Sprintf("room %s not found", roomID))
	}

	if eventType == schema.MatrixEventTypeCreate && stateKey == "" {
		if s.FailCreationRead[roomID] {
			return nil, fmt.Errorf("testutil: injected creation read failure for %s", roomID)
		}
		return marshal(room.Creation)
	}

	for _, event := range room.State {
		if event.Type == eventType && event.StateKey != nil && *event.StateKey == stateKey {
			return marshal(event.Content)
		}
	}
	return nil, notFound(fmt.Sprintf("state %s/%s not found in %s", eventType, stateKey, roomID))
}

// GetRoomState returns all state events, synthesizing the m.room.create
// event from the room's creation metadata.
func (s *FakeSession) GetRoomState(_ context.Context, roomID ref.RoomID) ([]messaging.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, notFound(fmt.Sprintf("room %s not found", roomID))
	}
	if s.FailRoomState[roomID] {
		return nil, fmt.Errorf("testutil: injected room state failure for %s", roomID)
	}

	emptyKey := ""
	events := []messaging.Event{{
		Type:     schema.MatrixEventTypeCreate,
		Sender:   room.CreationSender,
		StateKey: &emptyKey,
		Content:  room.Creation,
	}}
	events = append(events, room.State...)
	return events, nil
}

// SendStateEvent records the write and upserts the event into the
// room's state, keyed by (type, state key), sent by the session user.
func (s *FakeSession) SendStateEvent(_ context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return "", notFound(fmt.Sprintf("room %s not found", roomID))
	}

	s.StateWrites = append(s.StateWrites, StateWrite{
		RoomID:    roomID,
		EventType: eventType,
		StateKey:  stateKey,
		Content:   content,
	})

	contentMap, err := toMap(content)
	if err != nil {
		return "", err
	}
	key := stateKey
	for index := range room.State {
		event := &room.State[index]
		if event.Type == eventType && event.StateKey != nil && *event.StateKey == key {
			event.Content = contentMap
			event.Sender = s.userID
			return fmt.Sprintf("$fake-%d", len(s.StateWrites)), nil
		}
	}
	room.State = append(room.State, messaging.Event{
		Type:     eventType,
		Sender:   s.userID,
		StateKey: &key,
		Content:  contentMap,
	})
	return fmt.Sprintf("$fake-%d", len(s.StateWrites)), nil
}

// SendMessage records the message body.
func (s *FakeSession) SendMessage(_ context.Context, _ ref.RoomID, content messaging.MessageContent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, content.Body)
	return fmt.Sprintf("$msg-%d", len(s.Messages)), nil
}

// CreateRoom registers a new room with a generated room ID.
func (s *FakeSession) CreateRoom(_ context.Context, request messaging.CreateRoomRequest) (*messaging.CreateRoomResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomCounter++
	roomID := ref.MustParseRoomID(fmt.Sprintf("!created-%d:fake.local", s.roomCounter))
	s.rooms[roomID] = &FakeRoom{
		Creation:       request.CreationContent,
		CreationSender: s.userID,
	}
	return &messaging.CreateRoomResponse{RoomID: roomID}, nil
}

// InviteUser records the invite and marks the user as invited in the
// room's membership.
func (s *FakeSession) InviteUser(_ context.Context, roomID ref.RoomID, userID ref.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailInvite[userID] {
		return &messaging.MatrixError{
			Code:       messaging.ErrCodeForbidden,
			Message:    "testutil: injected invite failure",
			StatusCode: http.StatusForbidden,
		}
	}

	s.Invites = append(s.Invites, InviteCall{RoomID: roomID, UserID: userID})
	if room, ok := s.rooms[roomID]; ok {
		room.Members = append(room.Members, messaging.RoomMember{
			UserID:     userID,
			Membership: messaging.MembershipInvite,
		})
	}
	return nil
}

// InviteByEmail records the call and materializes the third-party
// invite state record the homeserver would create, carrying the person
// ID payload.
func (s *FakeSession) InviteByEmail(_ context.Context, roomID ref.RoomID, invite messaging.EmailInvite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.EmailInvites = append(s.EmailInvites, EmailInviteCall{RoomID: roomID, Invite: invite})
	if room, ok := s.rooms[roomID]; ok {
		token := fmt.Sprintf("tpi-token-%d", len(s.EmailInvites))
		room.State = append(room.State, messaging.Event{
			Type:     schema.MatrixEventTypeThirdPartyInvite,
			Sender:   s.userID,
			StateKey: &token,
			Content: map[string]any{
				"display_name":                     invite.Address,
				schema.ThirdPartyInvitePersonIDKey: invite.PersonID,
			},
		})
	}
	return nil
}

// JoinRoom is a no-op that echoes the room ID.
func (s *FakeSession) JoinRoom(_ context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	return roomID, nil
}

// GetRoomMembers returns the room's membership list.
func (s *FakeSession) GetRoomMembers(_ context.Context, roomID ref.RoomID) ([]messaging.RoomMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, notFound(fmt.Sprintf("room %s not found", roomID))
	}
	return append([]messaging.RoomMember(nil), room.Members...), nil
}

// Sync delegates to SyncFunc, or returns an empty response.
func (s *FakeSession) Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
	if s.SyncFunc != nil {
		return s.SyncFunc(ctx, options)
	}
	return &messaging.SyncResponse{NextBatch: options.Since}, nil
}

func notFound(message string) error {
	return &messaging.MatrixError{
		Code:       messaging.ErrCodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func marshal(content map[string]any) (json.RawMessage, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func toMap(content any) (map[string]any, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}
