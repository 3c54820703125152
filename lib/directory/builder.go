// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MTRNord/generic-conference-bot/messaging"

	"github.com/MTRNord/generic-conference-bot/lib/metrics"
	"github.com/MTRNord/generic-conference-bot/lib/ref"
	"github.com/MTRNord/generic-conference-bot/lib/schema"
)

// defaultBatchSize bounds how many room-state reads are in flight at
// once during a rebuild.
const defaultBatchSize = 20

// BuilderConfig holds the dependencies of a Builder.
type BuilderConfig struct {
	Session      messaging.Session
	Catalog      *Catalog
	ConferenceID string

	// InterestRooms maps interest logical IDs to the aliases of rooms
	// that predate the bot. Aliases that do not resolve yet are skipped
	// during rebuild and retried on the next one.
	InterestRooms map[string]ref.RoomAlias

	// BatchSize overrides the rebuild's concurrent-read batch size.
	// Zero means the default.
	BatchSize int

	Log *slog.Logger
}

// Builder performs full catalog rebuilds. Rebuild calls must be
// serialized by the caller; the builder is the catalog's only writer.
type Builder struct {
	session       messaging.Session
	catalog       *Catalog
	conferenceID  string
	interestRooms map[string]ref.RoomAlias
	batchSize     int
	log           *slog.Logger
}

// NewBuilder validates the configuration and creates a Builder.
func NewBuilder(config BuilderConfig) (*Builder, error) {
	if config.Session == nil {
		return nil, fmt.Errorf("directory: builder requires a session")
	}
	if config.Catalog == nil {
		return nil, fmt.Errorf("directory: builder requires a catalog")
	}
	if config.ConferenceID == "" {
		return nil, fmt.Errorf("directory: builder requires a conference ID")
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	log := config.Log
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		session:       config.Session,
		catalog:       config.Catalog,
		conferenceID:  config.ConferenceID,
		interestRooms: config.InterestRooms,
		batchSize:     batchSize,
		log:           log,
	}, nil
}

// Rebuild reconstructs the catalog from the live room set and
// publishes it as a new snapshot. It is idempotent and is the only way
// to recover from drift between room state and the catalog.
//
// Per-room failures are skipped: a room whose creation event cannot be
// read, or that does not belong to this conference, simply is not
// cataloged. Only the initial room enumeration failing leaves the
// previous snapshot in place. A missing root room ends the rebuild
// after classification; a root-state read failure aborts hydration but
// the classified entities are already published.
func (b *Builder) Rebuild(ctx context.Context) error {
	start := time.Now()

	rooms, err := b.session.JoinedRooms(ctx)
	if err != nil {
		metrics.RebuildsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("directory: enumerate joined rooms: %w", err)
	}

	snap := newSnapshot()
	for batchStart := 0; batchStart < len(rooms); batchStart += b.batchSize {
		batch := rooms[batchStart:min(batchStart+b.batchSize, len(rooms))]
		b.classifyBatch(ctx, batch, snap)
	}

	b.resolveInterestRooms(ctx, snap)
	b.catalog.publish(snap)

	b.log.Info("catalog rebuilt",
		"conference_id", b.conferenceID,
		"rooms_seen", len(rooms),
		"auditoriums", len(snap.auditoriums),
		"talks", len(snap.talks),
		"interest_rooms", len(snap.interests),
		"duration", time.Since(start))

	if snap.rootRoom.IsZero() {
		metrics.RebuildsTotal.WithLabelValues("no_root").Inc()
		b.log.Warn("no conference root room found; skipping state hydration",
			"conference_id", b.conferenceID)
		return nil
	}

	if err := b.hydrate(ctx, snap.rootRoom); err != nil {
		metrics.RebuildsTotal.WithLabelValues("hydration_failed").Inc()
		return fmt.Errorf("directory: hydrate from root room %s: %w", snap.rootRoom, err)
	}

	metrics.RebuildsTotal.WithLabelValues("ok").Inc()
	metrics.RebuildDuration.Observe(time.Since(start).Seconds())
	return nil
}

// classifyBatch reads the batch's creation events concurrently, then
// classifies and inserts sequentially. Insertion order within a batch
// does not matter: each room keys its own entity.
func (b *Builder) classifyBatch(ctx context.Context, batch []ref.RoomID, snap *snapshot) {
	creations := make([]map[string]any, len(batch))

	var group sync.WaitGroup
	for index, roomID := range batch {
		group.Add(1)
		go func(index int, roomID ref.RoomID) {
			defer group.Done()
			raw, err := b.session.GetStateEvent(ctx, roomID, schema.MatrixEventTypeCreate, "")
			if err != nil {
				b.log.Debug("skipping room without readable creation event",
					"room_id", roomID, "error", err)
				return
			}
			var content map[string]any
			if err := json.Unmarshal(raw, &content); err != nil {
				b.log.Debug("skipping room with malformed creation content",
					"room_id", roomID, "error", err)
				return
			}
			creations[index] = content
		}(index, roomID)
	}
	group.Wait()

	for index, content := range creations {
		if content == nil {
			continue
		}
		classification, ok := Classify(b.conferenceID, content)
		if !ok {
			continue
		}
		snap.insert(classification, batch[index], b.log)
		metrics.RoomsClassified.WithLabelValues(classification.Kind.String()).Inc()
	}
}

// resolveInterestRooms locates configured pre-existing interest rooms
// that discovery did not find. Unresolvable aliases are expected (the
// room may not exist yet) and swallowed.
func (b *Builder) resolveInterestRooms(ctx context.Context, snap *snapshot) {
	for interestID, alias := range b.interestRooms {
		if _, ok := snap.interests[interestID]; ok {
			continue
		}
		roomID, err := b.session.ResolveAlias(ctx, alias)
		if err != nil {
			b.log.Debug("interest room alias does not resolve yet",
				"interest_id", interestID, "alias", alias, "error", err)
			continue
		}
		snap.interests[interestID] = InterestRoom{ID: interestID, RoomID: roomID}
	}
}

// hydrate replaces the person cache and subspace index from the root
// room's current state.
func (b *Builder) hydrate(ctx context.Context, rootRoom ref.RoomID) error {
	events, err := b.session.GetRoomState(ctx, rootRoom)
	if err != nil {
		return err
	}

	people := make(map[string]schema.StoredPerson)
	subspaces := make(map[string]Subspace)
	for _, event := range events {
		if event.StateKey == nil {
			continue
		}
		switch event.Type {
		case schema.EventTypeStoredPerson:
			person, err := schema.ParseContent[schema.StoredPerson](event.Content)
			if err != nil {
				b.log.Warn("skipping malformed stored person record",
					"person_id", *event.StateKey, "error", err)
				continue
			}
			people[*event.StateKey] = *person

		case schema.EventTypeSubspace:
			content, err := schema.ParseContent[schema.SubspaceContent](event.Content)
			if err != nil {
				b.log.Warn("skipping malformed subspace record",
					"subspace_id", *event.StateKey, "error", err)
				continue
			}
			roomID, err := ref.ParseRoomID(content.RoomID)
			if err != nil {
				b.log.Warn("skipping subspace record with invalid room ID",
					"subspace_id", *event.StateKey, "error", err)
				continue
			}
			subspaces[*event.StateKey] = Subspace{ID: *event.StateKey, RoomID: roomID}
		}
	}

	b.catalog.replaceCaches(people, subspaces)
	b.log.Debug("hydrated root room state",
		"people", len(people), "subspaces", len(subspaces))
	return nil
}
