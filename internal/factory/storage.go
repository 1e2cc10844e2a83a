package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pantrylab/pantry-service/internal/config"
	"github.com/pantrylab/pantry-service/internal/localstate"
	storepkg "github.com/pantrylab/pantry-service/internal/store"
	storemem "github.com/pantrylab/pantry-service/internal/store/memory"
	storepg "github.com/pantrylab/pantry-service/internal/store/postgres"
	storespanner "github.com/pantrylab/pantry-service/internal/store/spanner"
	storesqlite "github.com/pantrylab/pantry-service/internal/store/sqlite"
)

// NewStore returns the store.Store selected by cfg.DBDriver.
// SQL-backed drivers open their connection synchronously since health checks
// need it immediately, then launch an async bootstrap check so startup does
// not block on schema creation.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "memory":
		return storemem.New(), nil

	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			var err error
			path, err = localstate.DBPath()
			if err != nil {
				return nil, fmt.Errorf("resolve sqlite path: %w", err)
			}
		}
		db, err := storesqlite.Open(path)
		if err != nil {
			return nil, err
		}
		runBootstrap(ctx, cfg, log, func(bctx context.Context) error {
			return storesqlite.Bootstrap(bctx, path)
		})
		return storesqlite.NewWithDB(db), nil

	case "postgres":
		dsn := cfg.PostgresDSN
		if dsn == "" {
			return nil, fmt.Errorf("PANTRY_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := storepg.Open(dsn)
		if err != nil {
			return nil, err
		}
		runBootstrap(ctx, cfg, log, func(bctx context.Context) error {
			return storepg.Bootstrap(bctx, dsn)
		})
		return storepg.NewWithDB(db), nil

	case "spanner":
		if cfg.SpannerProject == "" || cfg.SpannerInstance == "" || cfg.SpannerDatabase == "" {
			return nil, fmt.Errorf("PANTRY_SPANNER_PROJECT, PANTRY_SPANNER_INSTANCE and PANTRY_SPANNER_DATABASE are required when DB_DRIVER=spanner")
		}
		databasePath := fmt.Sprintf("projects/%s/instances/%s/databases/%s",
			cfg.SpannerProject, cfg.SpannerInstance, cfg.SpannerDatabase)
		return storespanner.New(ctx, databasePath)

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

// runBootstrap performs the driver's schema check in the background with a
// configurable timeout; startup does not block on it and failures are only
// logged.
func runBootstrap(ctx context.Context, cfg *config.Config, log zerolog.Logger, f func(context.Context) error) {
	go func() {
		bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
		defer cancel()

		if err := f(bootstrapCtx); err != nil {
			log.Warn().Err(err).Str("driver", cfg.DBDriver).Msg("store bootstrap check failed")
		} else {
			log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap check completed")
		}
	}()
}
