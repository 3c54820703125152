// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is the Matrix client-server API client for the
// conference bot.
//
// Client holds the homeserver URL and HTTP transport. DirectSession
// wraps a Client with an access token and implements Session, the
// interface the reconciliation engine consumes. Engine tests substitute
// an in-memory Session implementation.
//
// The surface is intentionally the capability set the directory engine
// needs: joined-room enumeration, typed room state reads and writes,
// room creation, alias resolution, membership listing, user and email
// (third-party) invites, and /sync long-polling. Errors from the
// homeserver are returned as *MatrixError with the server's errcode.
package messaging
