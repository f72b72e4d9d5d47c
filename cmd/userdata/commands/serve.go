package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/userdata/internal/intake"
	"github.com/JonMunkholm/userdata/internal/logging"
	"github.com/JonMunkholm/userdata/internal/metrics"
	"github.com/JonMunkholm/userdata/internal/web"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP intake server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

// serve provisions once, then serves until ctx is cancelled. Shutdown lets
// the submission holding the connection finish before the connection closes.
func (a *app) serve(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	p, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer a.closeDatabase(p)

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := intake.NewService(p,
		intake.NewLimiter(intake.DefaultCapacity, a.cfg.Intake.MaxWaitTime),
		metrics.New(a.registry),
		intake.WithInsertTimeout(a.cfg.Intake.InsertTimeout),
	)
	server := web.NewServer(svc, a.registry, a.cfg.Server)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := svc.Limiter().Status(); status.Active > 0 {
			logger.Info("waiting for submission to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown did not complete in time", "error", err)
		}
		return nil
	})

	return g.Wait()
}
