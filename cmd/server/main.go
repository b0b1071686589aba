package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/cdm/internal/config"
	"github.com/JonMunkholm/cdm/internal/core"
	"github.com/JonMunkholm/cdm/internal/logging"
	"github.com/JonMunkholm/cdm/internal/metrics"
	"github.com/JonMunkholm/cdm/internal/store/memstore"
	"github.com/JonMunkholm/cdm/internal/store/pgstore"
	"github.com/JonMunkholm/cdm/internal/taxonomy"
	"github.com/JonMunkholm/cdm/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var opts []core.Option
	var serverOpts []web.Option
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector = metrics.New(reg)
		opts = append(opts, core.WithRecorder(collector))
		serverOpts = append(serverOpts, web.WithMetrics(collector, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	service := core.NewService(store, cfg, opts...)
	if collector != nil {
		collector.WatchUploads(service.Limiter())
	}

	if err := run(ctx, cfg, service, serverOpts); err != nil {
		slog.Error("server stopped", "error", err)
		closeStore()
		os.Exit(1)
	}
}

// openStore connects the configured backend and returns its cleanup.
func openStore(ctx context.Context, cfg *config.Config) (core.Store, func(), error) {
	if cfg.Store.Driver == config.StoreMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	pool, err := pgstore.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	store := pgstore.New(pool)
	if cfg.Store.Migrate {
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		slog.Info("schema applied")
	}
	slog.Info("connected to database", "max_conns", cfg.Database.MaxConns)
	return store, pool.Close, nil
}

func run(ctx context.Context, cfg *config.Config, service *core.Service, serverOpts []web.Option) error {
	slog.Info("entities registered", "count", len(service.Entities()))

	if cfg.Taxonomy.Path != "" {
		watcher, err := taxonomy.NewWatcher(cfg.Taxonomy.Path, service, slog.Default())
		if err != nil {
			return err
		}
		if _, err := watcher.Sync(ctx); err != nil {
			return fmt.Errorf("seed drivers from %s: %w", cfg.Taxonomy.Path, err)
		}
		catalog := watcher.Catalog()
		slog.Info("taxonomy loaded",
			"sectors", len(catalog.Sectors),
			"domains", len(catalog.Domains),
			"countries", len(catalog.Countries),
			"clarifiers", len(catalog.Clarifiers))
		if cfg.Taxonomy.Watch {
			if err := watcher.Start(ctx); err != nil {
				slog.Warn("taxonomy file will not be watched", "error", err)
			} else {
				defer watcher.Stop()
			}
		}
	}

	server := web.NewServer(service, cfg, serverOpts...)

	go func() {
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	return server.Start()
}
