package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/codecoach/sessiond/internal/config"
	storepkg "github.com/codecoach/sessiond/internal/store"
	storepg "github.com/codecoach/sessiond/internal/store/postgres"
	storelite "github.com/codecoach/sessiond/internal/store/sqlite"
)

// NewStore builds a store.Store for the configured driver.
//
// For sqlite the schema is applied synchronously on open. For postgres the
// connection is opened synchronously so health checks can use it immediately,
// and the schema check runs async so startup is not blocked by a slow database.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return storelite.New(cfg.SQLitePath)

	case "postgres":
		dsn := cfg.PostgresDSN
		if dsn == "" {
			return nil, fmt.Errorf("SESSIOND_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := storepg.Open(dsn)
		if err != nil {
			return nil, err
		}
		go func() {
			schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := storepg.EnsureSchema(schemaCtx, db); err != nil {
				log.Warn().Err(err).Str("driver", cfg.DBDriver).Msg("store schema check failed")
			} else {
				log.Debug().Str("driver", cfg.DBDriver).Msg("store schema check completed")
			}
		}()
		return storepg.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
