package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pitwall/internal/api"
	"github.com/roach88/pitwall/internal/config"
	"github.com/roach88/pitwall/internal/service"
	"github.com/roach88/pitwall/internal/simulate"
	"github.com/roach88/pitwall/internal/store"
	"github.com/roach88/pitwall/internal/validate"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr   string // overrides PITWALL_ADDR
	DBPath string // overrides PITWALL_DB
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the championship HTTP API",
		Long: `Run the championship HTTP API until interrupted.

Configuration is read from the environment (PITWALL_DB, PITWALL_ADDR,
PITWALL_SEED, PITWALL_LOG_LEVEL, PITWALL_SHUTDOWN_TIMEOUT). Flags override
the environment.

Examples:
  pitwall serve
  pitwall serve --addr :9000 --db ./season.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			if opts.Addr != "" {
				cfg.Addr = opts.Addr
			}
			if opts.DBPath != "" {
				cfg.DBPath = opts.DBPath
			}
			if !opts.Verbose {
				level, _ := cfg.Level()
				setupLogger(level)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from PITWALL_ADDR)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "database file (default from PITWALL_DB)")

	return cmd
}

// runServe serves the API on cfg.Addr until ctx is done, then shuts down
// within cfg.ShutdownTimeout.
func runServe(ctx context.Context, cfg config.Config) error {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	svc := service.New(st, service.WithRandSource(simulate.Seeded(cfg.Seed)))
	handler := api.New(svc, validate.MustNew()).Handler()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", ln.Addr().String(), "db", cfg.DBPath)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
