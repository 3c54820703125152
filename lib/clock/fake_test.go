// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeClockNow(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fake := Fake(start)

	if got := fake.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	fake.Advance(time.Minute)
	if got := fake.Now(); !got.Equal(start.Add(time.Minute)) {
		t.Errorf("Now() after Advance = %v, want %v", got, start.Add(time.Minute))
	}
}

func TestFakeClockAfter(t *testing.T) {
	fake := Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	ch := fake.After(time.Second)

	select {
	case <-ch:
		t.Fatal("After fired before Advance")
	default:
	}

	fake.Advance(time.Second)
	select {
	case <-ch:
	default:
		t.Fatal("After did not fire after Advance")
	}
}

func TestFakeClockAfterNonPositive(t *testing.T) {
	fake := Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}
