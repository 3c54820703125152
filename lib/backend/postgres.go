// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the
// People interface.
var _ People = (*PostgresStore)(nil)

// PostgresStore reads people and talks from the conference's backend
// Postgres database. The schedule importer (out of scope here) owns the
// tables; this store is read-only.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres opens the backend database using the pgx driver and
// verifies connectivity with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("backend: postgres DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("backend: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("backend: ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const personColumns = "person_id, name, email, matrix_id, role"

// FindPeopleWithID returns every role-tagged record for a person ID.
func (s *PostgresStore) FindPeopleWithID(ctx context.Context, personID string) ([]Person, error) {
	return s.queryPeople(ctx,
		"SELECT "+personColumns+" FROM people WHERE person_id = $1", personID)
}

// FindAllPeopleForAuditorium returns the people attached to an auditorium.
func (s *PostgresStore) FindAllPeopleForAuditorium(ctx context.Context, auditoriumID string) ([]Person, error) {
	return s.queryPeople(ctx,
		"SELECT "+personColumns+" FROM people WHERE auditorium_id = $1", auditoriumID)
}

// FindAllPeopleForTalk returns the people attached to a talk.
func (s *PostgresStore) FindAllPeopleForTalk(ctx context.Context, talkID string) ([]Person, error) {
	return s.queryPeople(ctx,
		"SELECT "+personColumns+" FROM people WHERE talk_id = $1", talkID)
}

// FindAllPeopleForInterest returns the people attached to an interest room.
func (s *PostgresStore) FindAllPeopleForInterest(ctx context.Context, interestID string) ([]Person, error) {
	return s.queryPeople(ctx,
		"SELECT "+personColumns+" FROM people WHERE interest_id = $1", interestID)
}

// GetTalk returns a talk by logical ID, or nil if it does not exist.
func (s *PostgresStore) GetTalk(ctx context.Context, talkID string) (*Talk, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT talk_id, title, auditorium_id FROM talks WHERE talk_id = $1", talkID)

	var talk Talk
	err := row.Scan(&talk.TalkID, &talk.Title, &talk.AuditoriumID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("backend: get talk %q: %w", talkID, err)
	}
	return &talk, nil
}

func (s *PostgresStore) queryPeople(ctx context.Context, query string, arg any) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("backend: query people: %w", err)
	}
	defer rows.Close()

	var people []Person
	for rows.Next() {
		var person Person
		var email, matrixID sql.NullString
		if err := rows.Scan(&person.PersonID, &person.Name, &email, &matrixID, &person.Role); err != nil {
			return nil, fmt.Errorf("backend: scan person: %w", err)
		}
		person.Email = email.String
		person.MatrixID = matrixID.String
		people = append(people, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("backend: iterate people: %w", err)
	}
	return people, nil
}
