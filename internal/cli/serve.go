package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/gatelog/internal/config"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/service"
	"github.com/BrandonDHaskell/gatelog/internal/grpcapi"
	"github.com/BrandonDHaskell/gatelog/internal/httpapi"
)

const (
	shutdownTimeout = 5 * time.Second

	// exportDrainTimeout is how long shutdown waits for a running export
	// before the store is closed under it.
	exportDrainTimeout = 2 * time.Minute
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and health endpoint",
		Long: `Serve the gatelog HTTP API used by the data-entry form and the dashboard,
the gRPC health service, and the pending-records reminder.

Example:
  gatelog serve --http-addr :8080 --grpc-addr ""
  GATELOG_STORE=redis gatelog serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}

	cmd.Flags().String("http-addr", "", "HTTP listen address")
	cmd.Flags().String("grpc-addr", "", "gRPC health listen address (empty disables)")
	_ = rootOpts.viper.BindPFlag(config.KeyHTTPAddr, cmd.Flags().Lookup("http-addr"))
	_ = rootOpts.viper.BindPFlag(config.KeyGRPCAddr, cmd.Flags().Lookup("grpc-addr"))

	return cmd
}

func runServe(parent context.Context, opts *RootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.logger
	cfg := a.cfg

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:  logger,
		Addr:    cfg.HTTPAddr,
		Session: a.session,
	})

	var hs *grpcapi.HealthServer
	if cfg.GRPCAddr != "" {
		hs = grpcapi.NewHealthServer(cfg.GRPCAddr, logger)
		if err := hs.Listen(); err != nil {
			return WrapExitError(ExitCommandError, "failed to bind gRPC address", err)
		}
		go func() {
			if err := hs.Serve(); err != nil {
				logger.Error("grpc server error", zap.Error(err))
				stop()
			}
		}()
	}

	reminder := service.NewPendingReminder(a.ledger, service.ReminderConfig{
		IntervalMinutes: cfg.ReminderIntervalMinutes,
	}, logger.Named("reminder"))
	reminder.Start(ctx)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if hs != nil {
		hs.Shutdown(shutdownCtx)
	}
	reminder.Stop()

	// Export handlers run detached from their request, so they can outlive
	// srv.Shutdown.  The store must stay open until they finish.
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), exportDrainTimeout)
	defer cancelDrain()
	if err := a.exporter.Wait(drainCtx); err != nil {
		logger.Error("export still running at shutdown, closing store anyway", zap.Error(err))
	}

	if n := a.ledger.Len(); n > 0 {
		logger.Warn("shutting down with records pending export", zap.Int("pending", n))
	}
	return nil
}
