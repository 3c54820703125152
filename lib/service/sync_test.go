// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MTRNord/generic-conference-bot/messaging"

	"github.com/MTRNord/generic-conference-bot/lib/clock"
	"github.com/MTRNord/generic-conference-bot/lib/ref"
	"github.com/MTRNord/generic-conference-bot/lib/testutil"
)

var botUser = ref.MustParseUserID("@conference:conf.test")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitialSync(t *testing.T) {
	session := testutil.NewFakeSession(botUser)
	session.SyncFunc = func(_ context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
		if options.Since != "" {
			t.Errorf("initial sync sent since token %q", options.Since)
		}
		if options.Filter != "test-filter" {
			t.Errorf("filter = %q", options.Filter)
		}
		return &messaging.SyncResponse{NextBatch: "s1"}, nil
	}

	sinceToken, response, err := InitialSync(context.Background(), session, "test-filter")
	if err != nil {
		t.Fatalf("InitialSync failed: %v", err)
	}
	if sinceToken != "s1" || response == nil {
		t.Errorf("InitialSync = %q, %v", sinceToken, response)
	}
}

func TestRunSyncLoopAdvancesToken(t *testing.T) {
	session := testutil.NewFakeSession(botUser)
	var calls atomic.Int64
	tokens := make(chan string, 8)
	session.SyncFunc = func(_ context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
		tokens <- options.Since
		count := calls.Add(1)
		if !options.SetTimeout {
			t.Error("incremental sync did not set the long-poll timeout")
		}
		return &messaging.SyncResponse{NextBatch: "s" + string(rune('0'+count))}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	responses := make(chan *messaging.SyncResponse, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunSyncLoop(ctx, session, SyncConfig{}, "s0", func(_ context.Context, response *messaging.SyncResponse) {
			responses <- response
		}, clock.Real(), discardLogger())
	}()

	if got := testutil.RequireReceive(t, tokens, 5*time.Second, "first poll"); got != "s0" {
		t.Errorf("first since token = %q, want s0", got)
	}
	testutil.RequireReceive(t, responses, 5*time.Second, "first response")
	if got := testutil.RequireReceive(t, tokens, 5*time.Second, "second poll"); got != "s1" {
		t.Errorf("second since token = %q, want s1", got)
	}

	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "loop shutdown")
}

func TestRunSyncLoopBacksOffOnError(t *testing.T) {
	session := testutil.NewFakeSession(botUser)
	attempts := make(chan struct{}, 8)
	var calls atomic.Int64
	session.SyncFunc = func(context.Context, messaging.SyncOptions) (*messaging.SyncResponse, error) {
		attempts <- struct{}{}
		if calls.Add(1) == 1 {
			return nil, errors.New("connection reset")
		}
		return &messaging.SyncResponse{NextBatch: "s1"}, nil
	}

	fakeClock := clock.Fake(time.Unix(1756000000, 0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handled := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunSyncLoop(ctx, session, SyncConfig{}, "", func(context.Context, *messaging.SyncResponse) {
			handled <- struct{}{}
		}, fakeClock, discardLogger())
	}()

	testutil.RequireReceive(t, attempts, 5*time.Second, "failing poll")

	// The loop must wait out the backoff before retrying; only the fake
	// clock advancing releases it.
	select {
	case <-attempts:
		t.Fatal("loop retried without waiting for backoff")
	case <-time.After(50 * time.Millisecond):
	}
	for len(attempts) == 0 {
		fakeClock.Advance(time.Second)
		time.Sleep(time.Millisecond)
	}

	testutil.RequireReceive(t, attempts, 5*time.Second, "retry poll")
	testutil.RequireReceive(t, handled, 5*time.Second, "response after retry")

	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "loop shutdown")
}

func TestAcceptInvites(t *testing.T) {
	session := testutil.NewFakeSession(botUser)
	invitedRoom := ref.MustParseRoomID("!invited:conf.test")

	accepted := AcceptInvites(context.Background(), session,
		map[ref.RoomID]messaging.InvitedRoom{invitedRoom: {}}, discardLogger())
	if len(accepted) != 1 || accepted[0] != invitedRoom {
		t.Errorf("accepted = %+v", accepted)
	}
}
