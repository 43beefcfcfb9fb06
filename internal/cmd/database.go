package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mquell/undercover/internal/store"
)

// setupStore connects to Postgres. Persistence is best-effort: when the
// database is unreachable the process still serves matches, it just cannot
// recover them after a restart.
func setupStore(ctx context.Context, cfg DatabaseConfig) *store.Postgres {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)

	pg, err := store.NewPostgres(ctx, dsn)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, running without persistence")
		return nil
	}
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("db", cfg.Database).Msg("connected to database")
	return pg
}
