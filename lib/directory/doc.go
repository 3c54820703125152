// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package directory maintains the in-memory catalog of conference
// entities materialized over Matrix rooms.
//
// The substrate has no central index: a conference is reconstructed by
// enumerating every room the bot has joined and reading each room's
// immutable m.room.create content, where materialized rooms carry an
// entity kind tag, the conference ID, and a per-kind logical ID. The
// classifier turns one room's creation content into an entity; the
// builder runs the full rebuild and publishes the result as an atomic
// catalog snapshot; the resolver answers role-filtered moderator and
// invite-target queries against the backend database.
//
// The builder is the catalog's only writer. Readers always observe a
// complete snapshot — either the one from before a rebuild or the one
// after, never a half-built catalog. The person cache and subspace
// index are advisory side state: the redemption verifier updates the
// person cache as identities are correlated, and a rebuild replaces
// both wholesale from the conference root room's state.
package directory
