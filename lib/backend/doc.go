// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package backend provides access to the conference's backend event
// database — the source of truth for people, their roles, and the
// talks they are attached to.
//
// The reconciliation engine consumes the People interface. Postgres is
// the production implementation; Memory backs tests. The catalog's
// person cache is a join cache layered on top of this package: it is
// authoritative only for correlated Matrix identities, never for role
// data.
package backend
