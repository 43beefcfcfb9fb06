package main

import (
	"context"
	"math/rand"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mquell/undercover/internal/auth"
	"github.com/mquell/undercover/internal/events"
	"github.com/mquell/undercover/internal/registry"
	"github.com/mquell/undercover/internal/session"
	"github.com/mquell/undercover/internal/store"
	"github.com/mquell/undercover/internal/transport/httpapi"
	"github.com/mquell/undercover/internal/transport/ws"
	"github.com/mquell/undercover/internal/words"
)

type Services struct {
	Registry *registry.Registry
	Manager  *session.Manager
	Writer   *store.Writer
	WS       *ws.Handler
	API      *httpapi.API
	Events   events.Publisher
}

func setupServices(ctx context.Context, cfg *Config, pg *store.Postgres) (*Services, error) {
	clock := clockwork.NewRealClock()
	rng := rand.New(rand.NewSource(clock.Now().UnixNano()))

	catalog, err := words.Load(rng)
	if err != nil {
		return nil, err
	}

	reg := registry.New(catalog, clock, rng)

	var persister session.Persister
	var writer *store.Writer
	if pg != nil {
		if err := reg.Hydrate(ctx, pg); err != nil {
			log.Warn().Err(err).Msg("failed to hydrate registry from store")
		}
		writer = store.NewWriter(pg, 256)
		persister = writer
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.NatsURL != "" {
		natsPub, err := events.ConnectNATS(cfg.NatsURL, cfg.NatsPrefix)
		if err != nil {
			log.Warn().Err(err).Msg("nats unavailable, lifecycle events disabled")
		} else {
			publisher = natsPub
		}
	}

	manager := session.NewManager(reg, persister, publisher, cfg.Session, clock)
	verifier := auth.NewVerifier([]byte(cfg.AuthSecret), clock)
	wsHandler := ws.NewHandler(manager, verifier, ws.DefaultConfig())

	var snapshotStore store.Store
	if pg != nil {
		snapshotStore = pg
	}
	api := httpapi.New(reg, snapshotStore)

	return &Services{
		Registry: reg,
		Manager:  manager,
		Writer:   writer,
		WS:       wsHandler,
		API:      api,
		Events:   publisher,
	}, nil
}
