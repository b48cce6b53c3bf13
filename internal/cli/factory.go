package cli

import (
	"context"

	"github.com/cockroachdb/errors"

	"todosync/internal/backend/googletasks"
	"todosync/internal/backend/restapi"
	"todosync/internal/config"
	"todosync/internal/localstore"
	"todosync/internal/logger"
	"todosync/internal/service"
	"todosync/internal/syncengine"
)

// DefaultFactory opens the device store and the configured backend and
// joins them in a sync engine.
func DefaultFactory(ctx context.Context, cfg *config.Config) (service.Service, error) {
	log := logger.Logger

	remote, err := newRemote(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := localstore.OpenSQLite(cfg.Settings.StorePath, log)
	if err != nil {
		return nil, err
	}

	return syncengine.New(store, remote,
		syncengine.WithLogger(log),
		syncengine.WithConcurrency(cfg.Settings.SyncConcurrency),
	), nil
}

func newRemote(ctx context.Context, cfg *config.Config) (service.Remote, error) {
	switch cfg.Settings.Backend {
	case config.BackendGoogleTasks:
		if !cfg.HasToken() {
			return nil, errors.WithHint(errors.New("not logged in"), "run: todosync login")
		}
		return googletasks.New(ctx, cfg, logger.Logger)

	case config.BackendREST:
		opts := []restapi.Option{
			restapi.WithTimeout(cfg.Settings.RequestTimeout),
			restapi.WithRateLimit(cfg.Settings.RateLimit),
			restapi.WithLogger(logger.Logger),
		}
		// Without a token the server answers 401 and edits stay on the device.
		if cfg.HasToken() {
			tok, err := cfg.LoadToken()
			if err != nil {
				return nil, errors.WithHint(err, "run: todosync login")
			}
			opts = append(opts, restapi.WithToken(tok))
		}
		return restapi.New(cfg.Settings.APIURL, opts...)

	default:
		return nil, errors.Newf("unknown backend %q", cfg.Settings.Backend)
	}
}
