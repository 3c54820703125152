// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// Role is a person's role within the conference, as assigned by the
// backend event database.
type Role string

// Known roles. The backend may introduce further roles; unknown values
// round-trip unmodified.
const (
	RoleSpeaker     Role = "speaker"
	RoleHost        Role = "host"
	RoleCoordinator Role = "coordinator"
)

// StoredPerson is the content of an org.conference.person state record
// in the conference root room. State key: the person ID.
//
// The backend event database is authoritative for role data; this
// record exists to persist the person's correlated Matrix identity
// across restarts. MatrixID is set once at invite-redemption time and
// never overwritten with a different identity.
type StoredPerson struct {
	PersonID string `json:"person_id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	MatrixID string `json:"matrix_id,omitempty"`
	Role     Role   `json:"role,omitempty"`
}
