// Copyright 2026 The Conference Bot Authors
// SPDX-License-Identifier: Apache-2.0

// conference-bot maintains a conference — auditoriums, talks, interest
// rooms, and the people in them — over a Matrix homeserver. It rebuilds
// the entity catalog from joined rooms at startup, then watches
// membership events to verify invite redemptions, correlate identities,
// and keep room permissions reconciled.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/MTRNord/generic-conference-bot/messaging"

	"github.com/MTRNord/generic-conference-bot/lib/backend"
	"github.com/MTRNord/generic-conference-bot/lib/clock"
	"github.com/MTRNord/generic-conference-bot/lib/config"
	"github.com/MTRNord/generic-conference-bot/lib/directory"
	"github.com/MTRNord/generic-conference-bot/lib/process"
	"github.com/MTRNord/generic-conference-bot/lib/reconcile"
	"github.com/MTRNord/generic-conference-bot/lib/redemption"
	"github.com/MTRNord/generic-conference-bot/lib/service"
	"github.com/MTRNord/generic-conference-bot/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var showVersion bool
	pflag.StringVar(&configPath, "config", "",
		"path to the configuration file (default: $"+config.EnvConfigPath+")")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Println("conference-bot " + version.Info())
		return nil
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.HomeserverURL,
	})
	if err != nil {
		return err
	}
	session := client.SessionFromToken(cfg.BotUserID(), cfg.AccessToken)

	// Catch a token/account mismatch before acting on anything.
	userID, err := session.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("validating session: %w", err)
	}
	if userID != cfg.BotUserID() {
		return fmt.Errorf("access token belongs to %s, configured user_id is %s", userID, cfg.BotUserID())
	}

	var people backend.People
	if cfg.Backend.DSN != "" {
		store, err := backend.OpenPostgres(ctx, cfg.Backend.DSN)
		if err != nil {
			return err
		}
		defer store.Close()
		people = store
	} else {
		log.Warn("no backend DSN configured; running with an empty people database")
		people = backend.NewMemory()
	}

	catalog := directory.NewCatalog()
	builder, err := directory.NewBuilder(directory.BuilderConfig{
		Session:       session,
		Catalog:       catalog,
		ConferenceID:  cfg.Conference.ID,
		InterestRooms: cfg.InterestRoomAliases(),
		BatchSize:     cfg.Rebuild.BatchSize,
		Log:           log,
	})
	if err != nil {
		return err
	}

	bot := &conferenceBot{
		session: session,
		verifier: &redemption.Verifier{
			Session:  session,
			Catalog:  catalog,
			People:   people,
			Resolver: &directory.Resolver{People: people, Catalog: catalog},
			Permissions: &reconcile.Permissions{
				Session:        session,
				Moderator:      cfg.Moderator(),
				AdminLevel:     cfg.PowerLevels.Admin,
				ModeratorLevel: cfg.PowerLevels.Moderator,
				Log:            log,
			},
			Log: log,
		},
		log: log,
	}

	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(cfg.Metrics.ListenAddr, log)
	}

	// Initial sync first: invites accepted here become joined rooms the
	// rebuild can catalog.
	sinceToken, response, err := service.InitialSync(ctx, session, syncFilter)
	if err != nil {
		return err
	}
	if accepted := service.AcceptInvites(ctx, session, response.Rooms.Invite, log); len(accepted) > 0 {
		log.Info("accepted pending room invites", "count", len(accepted))
	}

	if err := builder.Rebuild(ctx); err != nil {
		return fmt.Errorf("initial catalog rebuild: %w", err)
	}

	log.Info("conference bot running",
		"conference_id", cfg.Conference.ID,
		"user_id", cfg.BotUserID(),
		"version", version.Info())

	service.RunSyncLoop(ctx, session, service.SyncConfig{
		Filter: syncFilter,
	}, sinceToken, bot.handleSync, clock.Real(), log)

	log.Info("shutting down")
	return nil
}

// serveMetrics exposes the Prometheus registry on /metrics.
func serveMetrics(addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("metrics listening", "addr", addr)
	server := &http.Server{Addr: addr, Handler: mux}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server failed", "error", err)
	}
}
