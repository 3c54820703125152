// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"sync"
)

// Compile-time contract assertion.
var _ People = (*Memory)(nil)

// Memory is an in-memory People implementation for tests and local
// development. Safe for concurrent use.
type Memory struct {
	mu sync.Mutex

	people []memoryPerson
	talks  map[string]Talk
}

// memoryPerson pairs a person record with the entity associations the
// record applies through.
type memoryPerson struct {
	person       Person
	auditoriumID string
	talkID       string
	interestID   string
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{talks: make(map[string]Talk)}
}

// AddPerson registers a person record. Empty association IDs mean the
// record is not attached through that entity type.
func (m *Memory) AddPerson(person Person, auditoriumID, talkID, interestID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.people = append(m.people, memoryPerson{
		person:       person,
		auditoriumID: auditoriumID,
		talkID:       talkID,
		interestID:   interestID,
	})
}

// AddTalk registers a talk record.
func (m *Memory) AddTalk(talk Talk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.talks[talk.TalkID] = talk
}

// FindPeopleWithID returns every record for a person ID.
func (m *Memory) FindPeopleWithID(_ context.Context, personID string) ([]Person, error) {
	return m.filter(func(p memoryPerson) bool { return p.person.PersonID == personID }), nil
}

// FindAllPeopleForAuditorium returns the people attached to an auditorium.
func (m *Memory) FindAllPeopleForAuditorium(_ context.Context, auditoriumID string) ([]Person, error) {
	return m.filter(func(p memoryPerson) bool { return p.auditoriumID == auditoriumID }), nil
}

// FindAllPeopleForTalk returns the people attached to a talk.
func (m *Memory) FindAllPeopleForTalk(_ context.Context, talkID string) ([]Person, error) {
	return m.filter(func(p memoryPerson) bool { return p.talkID == talkID }), nil
}

// FindAllPeopleForInterest returns the people attached to an interest room.
func (m *Memory) FindAllPeopleForInterest(_ context.Context, interestID string) ([]Person, error) {
	return m.filter(func(p memoryPerson) bool { return p.interestID == interestID }), nil
}

// GetTalk returns a talk by logical ID, or nil if it does not exist.
func (m *Memory) GetTalk(_ context.Context, talkID string) (*Talk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	talk, ok := m.talks[talkID]
	if !ok {
		return nil, nil
	}
	return &talk, nil
}

func (m *Memory) filter(match func(memoryPerson) bool) []Person {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Person
	for _, entry := range m.people {
		if match(entry) {
			result = append(result, entry.person)
		}
	}
	return result
}
