package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/filterql/internal/api"
	"github.com/roach88/filterql/internal/config"
	"github.com/roach88/filterql/internal/logging"
	"github.com/roach88/filterql/internal/store"
	"github.com/roach88/filterql/internal/users"
)

const shutdownTimeout = 15 * time.Second

// serveFlags maps serve flags to configuration keys.
var serveFlags = map[string]string{
	"addr":       "server.address",
	"driver":     "store.driver",
	"dsn":        "store.dsn",
	"seed":       "store.seed",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve filtered user lists over HTTP",
		Long: `Start the HTTP API.

  GET /api/users?filter=Status=Active&sort=Created,2&psize=10&pnum=1
  GET /healthz
  GET /metrics

Settings come from --config, FILTERQL_* environment variables and the
flags below; flags win.

Exit codes:
  0 - Server shut down cleanly
  2 - Bad configuration, unreachable database or listener failure`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			v := rootOpts.viper()
			for flag, key := range serveFlags {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return WrapExitError(ExitCommandError, "failed to bind --"+flag, err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}

	cmd.Flags().String("addr", config.DefaultAddress, "address to listen on")
	cmd.Flags().String("driver", config.DefaultDriver, "database driver (sqlite3|pgx)")
	cmd.Flags().String("dsn", config.DefaultDSN, "database connection string")
	cmd.Flags().Bool("seed", false, "insert the sample users into an empty table")
	cmd.Flags().String("log-level", "info", "log level (debug|info|warn|error)")
	cmd.Flags().String("log-format", "json", "log encoding (json|console)")

	return cmd
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.viper(), opts.ConfigFile)
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfig, err.Error())
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfig, err.Error())
	}
	defer func() { _ = logger.Sync() }()

	srv, cleanup, err := newServer(contextOf(cmd), cfg, logger)
	if err != nil {
		return outputCommandError(formatter, ErrCodeServe, err.Error())
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := listenAndServe(ctx, srv, logger); err != nil {
		return outputCommandError(formatter, ErrCodeServe, err.Error())
	}
	return nil
}

// newServer opens the store and builds the HTTP server for cfg. cleanup
// closes the store.
func newServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*http.Server, func(), error) {
	st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}

	if cfg.Store.Seed {
		if err := st.SeedUsers(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to seed users: %w", err)
		}
		logger.Info("seeded sample users", zap.Int("count", len(users.Seed())))
	}

	handler := api.NewServer(
		[]api.Resource{{Name: users.Resource, Registry: users.Schema(), Repo: st.Users()}},
		api.WithLogger(logger),
		api.WithLimits(api.LimitsFrom(cfg.Query)),
		api.WithRegistry(prometheus.NewRegistry()),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	logger.Info("server configured",
		zap.String("address", srv.Addr),
		zap.String("driver", st.Dialect().String()),
	)
	return srv, cleanup, nil
}

// listenAndServe runs srv until ctx is cancelled, then drains in-flight
// requests.
func listenAndServe(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
