// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/threadboard/threadboard/internal/api"
	"github.com/threadboard/threadboard/internal/auth"
	authpg "github.com/threadboard/threadboard/internal/auth/postgres"
	"github.com/threadboard/threadboard/internal/config"
	"github.com/threadboard/threadboard/internal/logging"
	"github.com/threadboard/threadboard/internal/observability"
	"github.com/threadboard/threadboard/internal/session"
	"github.com/threadboard/threadboard/internal/session/backend"
	"github.com/threadboard/threadboard/internal/store"
	"github.com/threadboard/threadboard/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the GraphQL server",
		Long: `Connect to PostgreSQL, apply pending migrations, open the session
store and serve GraphQL on :PORT/graphql until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	logger, err := logging.New(logging.Options{
		Service: "threadboard",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   level,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.InfoContext(ctx, "starting threadboard",
		"addr", cfg.ListenAddr(),
		"app_env", cfg.AppEnv,
		"metrics_addr", cfg.MetricsAddr)

	pool, err := store.Connect(ctx, cfg.DatabaseURL, cfg.ConnectTimeout)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	defer pool.Close()

	if err := migrateUp(cfg.DatabaseURL); err != nil {
		return err
	}

	sessions, err := backend.Open(ctx, cfg.SessionStoreURL, backend.Options{
		DatabaseURL:    cfg.DatabaseURL,
		Pool:           pool,
		ConnectTimeout: cfg.ConnectTimeout,
		Logger:         logger,
	})
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			errutil.LogError(logger, "closing session store", closeErr)
		}
	}()

	registry, metrics := observability.NewRegistry()
	handler, err := newHTTPHandler(handlerDeps{
		Users:    authpg.NewUserRepository(pool),
		Sessions: sessions,
		Secret:   cfg.SessionSecret,
		Secure:   cfg.Production(),
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	sweeper := session.NewSweeper(sessions, cfg.SweepInterval, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	if cfg.MetricsAddr != "" {
		obs := observability.NewServer(cfg.MetricsAddr, registry, pool.Ping, logger)
		obsErrCh, err := obs.Start()
		if err != nil {
			return err //nolint:wrapcheck // already coded
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := obs.Stop(shutdownCtx); err != nil {
				logger.Warn("error stopping observability server", "error", err)
			}
		}()
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", cfg.ListenAddr()).Wrap(err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	srvErrCh := make(chan error, 1)
	go func() {
		defer close(srvErrCh)
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			srvErrCh <- serveErr
		}
	}()

	cmd.Printf("Threadboard listening on %s\n", listener.Addr())
	logger.InfoContext(ctx, "graphql server ready", "addr", listener.Addr().String())

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-srvErrCh:
		logger.Error("graphql server error", "error", serveErr)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping graphql server", "error", err)
	}

	if serveErr != nil {
		return oops.Code("SERVE_FAILED").Wrap(serveErr)
	}
	logger.Info("shutdown complete")
	return nil
}

func migrateUp(databaseURL string) error {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			errutil.LogError(slog.Default(), "closing migrator", closeErr)
		}
	}()
	return m.Up() //nolint:wrapcheck // already coded
}

// handlerDeps are the collaborators of the HTTP surface.
type handlerDeps struct {
	Users    auth.UserRepository
	Sessions session.Store
	Secret   string
	Secure   bool
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// newHTTPHandler wires the auth flow, sessions and GraphQL schema into the
// /graphql route.
func newHTTPHandler(deps handlerDeps) (http.Handler, error) {
	authSvc, err := auth.NewAuthServiceWithLogger(deps.Users, auth.NewArgon2idHasher(), deps.Logger)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}

	codec, err := session.NewCookieCodec(deps.Secret, deps.Secure)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	manager, err := session.NewManager(deps.Sessions, codec, deps.Logger)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}

	var recorder api.Recorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}
	resolvers, err := api.NewResolvers(authSvc, recorder)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	schema, err := resolvers.Schema()
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", manager.Middleware(api.NewHandler(schema, recorder, deps.Logger)))
	return mux, nil
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logger.Error("server error, triggering shutdown", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
