// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics defines the Prometheus instrumentation for the
// reconciliation engine. Metrics register on the default registry;
// the binary exposes them via promhttp when configured.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RebuildsTotal counts catalog rebuilds by outcome:
	// "ok", "no_root", "hydration_failed", "failed".
	RebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confbot_catalog_rebuilds_total",
		Help: "Catalog rebuilds by outcome.",
	}, []string{"outcome"})

	// RebuildDuration observes how long a full catalog rebuild takes.
	RebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "confbot_catalog_rebuild_duration_seconds",
		Help:    "Duration of full catalog rebuilds.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	// RoomsClassified counts rooms recognized during rebuilds, by
	// entity kind.
	RoomsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confbot_rooms_classified_total",
		Help: "Rooms classified into the catalog during rebuilds, by kind.",
	}, []string{"kind"})

	// InvitesTotal counts membership reconciliation decisions:
	// "invited", "skipped_present", "skipped_pending", "skipped_unreachable",
	// "failed".
	InvitesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confbot_invites_total",
		Help: "Membership reconciliation decisions per target.",
	}, []string{"result"})

	// RedemptionsTotal counts invite-redemption verifications by
	// terminal state: "applied", "rejected".
	RedemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confbot_redemptions_total",
		Help: "Invite redemption verifications by terminal state.",
	}, []string{"outcome"})

	// PermissionGrants counts moderator-tier grants written by the
	// permission reconciler.
	PermissionGrants = promauto.NewCounter(prometheus.CounterOpts{
		Name: "confbot_permission_grants_total",
		Help: "Moderator privilege grants written to rooms.",
	})
)
