package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/iudanet/zendash/internal/client/api"
	"github.com/iudanet/zendash/internal/client/auth"
	"github.com/iudanet/zendash/internal/client/cookies"
	"github.com/iudanet/zendash/internal/client/dashboard"
	"github.com/iudanet/zendash/internal/client/gate"
	"github.com/iudanet/zendash/internal/client/iocli"
	"github.com/iudanet/zendash/internal/client/session"
	"github.com/iudanet/zendash/internal/client/storage"
	"github.com/iudanet/zendash/internal/client/storage/boltdb"
	"github.com/iudanet/zendash/internal/client/storage/sqlite"
	"github.com/iudanet/zendash/internal/config"
)

// NewFactory returns the production Factory: logs go to logOut, prompts and
// views go through term.
func NewFactory(term iocli.IO, logOut io.Writer) Factory {
	return func(ctx context.Context, cfg *config.Config) (*App, error) {
		return Build(ctx, cfg, term, logOut)
	}
}

// Build wires storage, cookies, API client, session store, gate and dashboard
func Build(ctx context.Context, cfg *config.Config, term iocli.IO, logOut io.Writer) (*App, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	kv, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	closers := []func() error{kv.Close}

	var durable storage.KeyValueStorage = kv
	if cfg.Storage.Passphrase != "" {
		sealed, err := storage.NewSealed(ctx, kv, cfg.Storage.Passphrase)
		if err != nil {
			_ = kv.Close()
			return nil, fmt.Errorf("failed to unlock storage: %w", err)
		}
		durable = sealed
	}

	bridge, err := cookies.New(cfg.Server)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	client := api.NewClient(cfg.Server,
		api.WithCookieJar(bridge.Jar()),
		api.WithTimeout(cfg.HTTP.Timeout),
		api.WithLogger(logger),
	)

	store := session.NewStore(session.NewStoragePersistence(durable, bridge, logger), logger)
	dash := dashboard.New(client, func() string {
		return store.Snapshot().AccessToken
	}, dashboard.DefaultConfig(), logger)

	logger.Debug("client initialized", "server", cfg.Server, "storage", cfg.Storage.Driver, "sealed", cfg.Storage.Passphrase != "")

	return New(Deps{
		IO:      term,
		Auth:    auth.NewService(client, store, logger),
		Store:   store,
		Gate:    gate.New(store, client, logger),
		Dash:    dash,
		Bridge:  bridge,
		Logger:  logger,
		Closers: closers,
	}), nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.KeyValueStorage, error) {
	switch cfg.Driver {
	case config.DriverBoltDB:
		s, err := boltdb.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
