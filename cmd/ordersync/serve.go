package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/creamcroissant/ordersync/internal/api"
	"github.com/creamcroissant/ordersync/internal/bootstrap"
	"github.com/creamcroissant/ordersync/internal/job"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background jobs",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := appConfig
	infra, err := bootstrap.BuildInfrastructure(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer infra.Close()

	scheduler, err := newScheduler(infra)
	if err != nil {
		return err
	}
	scheduler.Start()

	services := api.Services{
		Sync:    infra.Sync,
		Legacy:  infra.Legacy,
		Health:  infra.Storage,
		Driver:  infra.Storage.Driver,
		Metrics: infra.Registry,
	}
	if infra.Token != nil {
		services.Token = infra.Token
	}
	if infra.Limiter != nil {
		services.Limiter = infra.Limiter
	}
	router := api.NewRouter(logger, services, api.Options{
		AuthEnabled:      cfg.Auth.Enabled,
		StrictStatusKeys: cfg.Sync.StrictStatusKeys,
		Metrics:          cfg.Metrics,
	})
	server := bootstrap.NewHTTPServer(cfg.HTTP, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server starting", "addr", cfg.HTTP.Addr, "env", cfg.Log.Environment, "storage", infra.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		stopCtx := scheduler.Stop()
		<-stopCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		return err
	}
	logger.Info("server exited cleanly")
	return nil
}

// newScheduler registers the background jobs enabled in config.
func newScheduler(infra *bootstrap.Infrastructure) (*job.Scheduler, error) {
	scheduler := job.NewScheduler(logger, appConfig.Jobs.Timeout)
	if spec := appConfig.Jobs.LegacyResync; spec != "" && appConfig.Sync.MirrorLegacy {
		if _, err := scheduler.Register(spec, job.NewLegacyResyncJob(infra.Sync, logger)); err != nil {
			return nil, err
		}
	}
	return scheduler, nil
}
