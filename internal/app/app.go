// Package app wires configuration, storage, services, and transport into a
// running application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/openapparel/facility-registry/internal/adapter/csvrow"
	"github.com/openapparel/facility-registry/internal/adapter/postgres"
	"github.com/openapparel/facility-registry/internal/adapter/postgres/contributor"
	"github.com/openapparel/facility-registry/internal/adapter/postgres/facility"
	"github.com/openapparel/facility-registry/internal/adapter/postgres/gazetteer"
	"github.com/openapparel/facility-registry/internal/adapter/postgres/item"
	"github.com/openapparel/facility-registry/internal/adapter/postgres/list"
	"github.com/openapparel/facility-registry/internal/adapter/postgres/match"
	"github.com/openapparel/facility-registry/internal/adapter/provider/nominatim"
	"github.com/openapparel/facility-registry/internal/config"
	"github.com/openapparel/facility-registry/internal/metrics"
	"github.com/openapparel/facility-registry/internal/service/adjudicate"
	"github.com/openapparel/facility-registry/internal/service/ingest"
	"github.com/openapparel/facility-registry/internal/service/pipeline"
	"github.com/openapparel/facility-registry/internal/service/registry"
	"github.com/openapparel/facility-registry/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// the database, wires the services, and serves HTTP until ctx is canceled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting facility registry",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	mm := metrics.New()
	tx := postgres.NewTxManager(pool)

	lists := list.New(pool)
	items := item.New(pool)
	matches := match.New(pool)
	facilities := facility.New(pool)
	contributors := contributor.New(pool)
	scorer := gazetteer.New(pool)

	geocoder := nominatim.NewProvider(logger)
	if cfg.Pipeline.GeocoderURL != "" {
		geocoder = nominatim.NewProviderWithURL(cfg.Pipeline.GeocoderURL, logger)
	}

	pipelineSvc := pipeline.NewService(logger, lists, items, matches, facilities, tx,
		csvrow.New(), geocoder, scorer, mm, cfg.Registry)
	runner := pipeline.NewRunner(logger, pipelineSvc, cfg.Pipeline.Workers, cfg.Pipeline.QueueSize)
	runner.Start(ctx)
	defer runner.Stop()

	ingestSvc := ingest.NewService(logger, lists, items, tx, runner, mm, cfg.Upload, cfg.Registry)
	adjudicateSvc := adjudicate.NewService(logger, lists, items, matches, facilities, tx, mm, cfg.Registry)
	registrySvc := registry.NewService(logger, facilities, contributors, mm, cfg.Registry)

	handler := rest.NewHandler(logger, ingestSvc, adjudicateSvc, registrySvc, contributors, pool.Ping)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
