// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MTRNord/generic-conference-bot/lib/ref"
	"github.com/MTRNord/generic-conference-bot/lib/schema"
)

// snapshot holds one complete, immutable view of the cataloged
// entities. The builder assembles a fresh snapshot offline and
// publishes it with a single pointer swap.
type snapshot struct {
	rootRoom    ref.RoomID
	auditoriums map[string]Auditorium
	backstages  map[string]AuditoriumBackstage
	talks       map[string]Talk
	interests   map[string]InterestRoom

	roomToAuditorium map[ref.RoomID]string
	roomToBackstage  map[ref.RoomID]string
	roomToTalk       map[ref.RoomID]string
}

func newSnapshot() *snapshot {
	return &snapshot{
		auditoriums:      make(map[string]Auditorium),
		backstages:       make(map[string]AuditoriumBackstage),
		talks:            make(map[string]Talk),
		interests:        make(map[string]InterestRoom),
		roomToAuditorium: make(map[ref.RoomID]string),
		roomToBackstage:  make(map[ref.RoomID]string),
		roomToTalk:       make(map[ref.RoomID]string),
	}
}

// insert adds one classified room. Exactly one room may claim a given
// (kind, logical ID) pair; when a duplicate turns up the later room
// wins and the earlier room's reverse mapping is dropped, with a
// warning — duplicates indicate a materialization bug, not a state the
// catalog merges.
func (s *snapshot) insert(classification Classification, roomID ref.RoomID, log *slog.Logger) {
	switch classification.Kind {
	case KindConference:
		if !s.rootRoom.IsZero() && s.rootRoom != roomID {
			log.Warn("duplicate conference root room; keeping the later one",
				"previous_room_id", s.rootRoom, "room_id", roomID)
		}
		s.rootRoom = roomID

	case KindAuditorium:
		if previous, ok := s.auditoriums[classification.LogicalID]; ok && previous.RoomID != roomID {
			log.Warn("duplicate auditorium; keeping the later room",
				"auditorium_id", classification.LogicalID,
				"previous_room_id", previous.RoomID, "room_id", roomID)
			delete(s.roomToAuditorium, previous.RoomID)
		}
		s.auditoriums[classification.LogicalID] = Auditorium{ID: classification.LogicalID, RoomID: roomID}
		s.roomToAuditorium[roomID] = classification.LogicalID

	case KindAuditoriumBackstage:
		if previous, ok := s.backstages[classification.LogicalID]; ok && previous.RoomID != roomID {
			log.Warn("duplicate auditorium backstage; keeping the later room",
				"auditorium_id", classification.LogicalID,
				"previous_room_id", previous.RoomID, "room_id", roomID)
			delete(s.roomToBackstage, previous.RoomID)
		}
		s.backstages[classification.LogicalID] = AuditoriumBackstage{AuditoriumID: classification.LogicalID, RoomID: roomID}
		s.roomToBackstage[roomID] = classification.LogicalID

	case KindTalk:
		if previous, ok := s.talks[classification.LogicalID]; ok && previous.RoomID != roomID {
			log.Warn("duplicate talk; keeping the later room",
				"talk_id", classification.LogicalID,
				"previous_room_id", previous.RoomID, "room_id", roomID)
			delete(s.roomToTalk, previous.RoomID)
		}
		s.talks[classification.LogicalID] = Talk{
			ID:           classification.LogicalID,
			AuditoriumID: classification.AuditoriumID,
			RoomID:       roomID,
		}
		s.roomToTalk[roomID] = classification.LogicalID

	case KindInterest:
		if previous, ok := s.interests[classification.LogicalID]; ok && previous.RoomID != roomID {
			log.Warn("duplicate interest room; keeping the later room",
				"interest_id", classification.LogicalID,
				"previous_room_id", previous.RoomID, "room_id", roomID)
		}
		s.interests[classification.LogicalID] = InterestRoom{ID: classification.LogicalID, RoomID: roomID}
	}
}

// Catalog is the process-wide directory of conference entities.
//
// Entity lookups read the current published snapshot; the builder is
// the sole snapshot writer. The person cache and subspace index are
// mutable advisory caches guarded separately: the redemption verifier
// stamps correlated identities into the person cache between rebuilds,
// and rebuild hydration replaces both from the root room's state.
type Catalog struct {
	current atomic.Pointer[snapshot]

	mu        sync.Mutex
	people    map[string]schema.StoredPerson
	subspaces map[string]Subspace
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	catalog := &Catalog{
		people:    make(map[string]schema.StoredPerson),
		subspaces: make(map[string]Subspace),
	}
	catalog.current.Store(newSnapshot())
	return catalog
}

func (c *Catalog) publish(snap *snapshot) {
	c.current.Store(snap)
}

// RootRoom returns the conference root room. Operations that need the
// root room have no meaningful fallback when it is missing, so absence
// is an error rather than a zero value.
func (c *Catalog) RootRoom() (ref.RoomID, error) {
	rootRoom := c.current.Load().rootRoom
	if rootRoom.IsZero() {
		return ref.RoomID{}, fmt.Errorf("directory: conference root room is not cataloged")
	}
	return rootRoom, nil
}

// Auditorium looks up an auditorium by logical ID.
func (c *Catalog) Auditorium(auditoriumID string) (Auditorium, bool) {
	auditorium, ok := c.current.Load().auditoriums[auditoriumID]
	return auditorium, ok
}

// Backstage looks up an auditorium's backstage by the auditorium's
// logical ID.
func (c *Catalog) Backstage(auditoriumID string) (AuditoriumBackstage, bool) {
	backstage, ok := c.current.Load().backstages[auditoriumID]
	return backstage, ok
}

// Talk looks up a talk by logical ID. The scheduler uses this to
// resolve a talk's display room.
func (c *Catalog) Talk(talkID string) (Talk, bool) {
	talk, ok := c.current.Load().talks[talkID]
	return talk, ok
}

// InterestRoom looks up an interest room by logical ID.
func (c *Catalog) InterestRoom(interestID string) (InterestRoom, bool) {
	interest, ok := c.current.Load().interests[interestID]
	return interest, ok
}

// Auditoriums returns all cataloged auditoriums.
func (c *Catalog) Auditoriums() []Auditorium {
	snap := c.current.Load()
	auditoriums := make([]Auditorium, 0, len(snap.auditoriums))
	for _, auditorium := range snap.auditoriums {
		auditoriums = append(auditoriums, auditorium)
	}
	return auditoriums
}

// EntityForRoom reverse-maps a physical room to the entity it backs.
// Lookup order is auditorium, then backstage, then talk; first match
// wins. Rooms backing no entity (or only the root or an interest room)
// return false.
func (c *Catalog) EntityForRoom(roomID ref.RoomID) (EntityRef, bool) {
	snap := c.current.Load()
	if auditoriumID, ok := snap.roomToAuditorium[roomID]; ok {
		return EntityRef{Kind: KindAuditorium, LogicalID: auditoriumID, RoomID: roomID}, true
	}
	if auditoriumID, ok := snap.roomToBackstage[roomID]; ok {
		return EntityRef{Kind: KindAuditoriumBackstage, LogicalID: auditoriumID, RoomID: roomID}, true
	}
	if talkID, ok := snap.roomToTalk[roomID]; ok {
		return EntityRef{Kind: KindTalk, LogicalID: talkID, RoomID: roomID}, true
	}
	return EntityRef{}, false
}

// Subspace looks up a subspace by logical ID. A missing subspace is a
// configuration inconsistency: something referenced a grouping space
// that was never created.
func (c *Catalog) Subspace(subspaceID string) (Subspace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	subspace, ok := c.subspaces[subspaceID]
	if !ok {
		return Subspace{}, fmt.Errorf("directory: subspace %q was never created", subspaceID)
	}
	return subspace, nil
}

// SetSubspace records a subspace in the index.
func (c *Catalog) SetSubspace(subspace Subspace) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subspaces[subspace.ID] = subspace
}

// Person returns the cached stored-person record for a person ID.
func (c *Catalog) Person(personID string) (schema.StoredPerson, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	person, ok := c.people[personID]
	return person, ok
}

// SetPerson updates the person cache. The cache is a join cache: the
// backend stays authoritative for role data, the cache only carries
// identity correlation across lookups.
func (c *Catalog) SetPerson(person schema.StoredPerson) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.people[person.PersonID] = person
}

// replaceCaches swaps in freshly hydrated person and subspace caches.
func (c *Catalog) replaceCaches(people map[string]schema.StoredPerson, subspaces map[string]Subspace) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.people = people
	c.subspaces = subspaces
}
