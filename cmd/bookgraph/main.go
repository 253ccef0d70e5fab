// Package main implements the entry point for the BookGraph service: a book
// catalog backed by a document store of record and a graph store mirror,
// kept in step by a dual-store write coordinator.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/booknet/bookgraph/config"
	"github.com/booknet/bookgraph/docstore"
	"github.com/booknet/bookgraph/dualwrite"
	"github.com/booknet/bookgraph/graphstore"
	"github.com/booknet/bookgraph/health"
	"github.com/booknet/bookgraph/metric"
	"github.com/booknet/bookgraph/pkg/cache"
	"github.com/booknet/bookgraph/service"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "bookgraph"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	cfg, err := config.NewLoader(cliCfg.ConfigPath).Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// CLI logging flags win over the config file
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if cliCfg.LogLevel != "" {
		level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		format = cliCfg.LogFormat
	}
	logger := setupLogger(level, format)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		logger.Info("Configuration is valid")
		return nil
	}

	logger.Info("Starting BookGraph",
		"config_path", cliCfg.ConfigPath,
		"namespace", cfg.Service.Namespace)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs, graph, err := connectStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
		defer cancel()
		if err := docs.Close(closeCtx); err != nil {
			logger.Warn("document store close failed", "error", err)
		}
		if err := graph.Close(closeCtx); err != nil {
			logger.Warn("graph store close failed", "error", err)
		}
	}()

	registry := metric.NewMetricsRegistry()
	metrics := registry.CoreMetrics()
	docs.SetMetrics(metrics)
	graph.SetMetrics(metrics)

	entityCache, err := cache.NewFromConfig[[]byte](ctx, cfg.Cache,
		cache.WithMetrics[[]byte](registry, "entity"))
	if err != nil {
		return fmt.Errorf("creating entity cache: %w", err)
	}
	defer entityCache.Close()

	deps := service.Deps{
		Docs:      docs,
		Coord:     dualwrite.New(docs, graph, logger, metrics),
		Cache:     entityCache,
		Logger:    logger,
		Namespace: cfg.Service.Namespace,
	}

	catalog := service.NewCatalog(deps)
	logger.Info("catalog services ready", "services", catalog.Names())

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("starting metrics server: %w", err)
		}
		logger.Info("metrics server listening", "address", metricsServer.Address())
	}

	monitor := health.NewMonitor()
	checker := health.NewChecker(monitor, metrics, logger, cfg.Service.HealthInterval)
	checker.Watch("document", docs)
	checker.Watch("graph", graph)
	go checker.Run(ctx)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Warn("metrics server stop failed", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// connectStores dials both stores concurrently; startup fails unless both
// are reachable.
func connectStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*docstore.MongoStore, *graphstore.Neo4jStore, error) {
	var (
		docs  *docstore.MongoStore
		graph *graphstore.Neo4jStore
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = docstore.Connect(gctx, cfg.Mongo, logger)
		if err != nil {
			return fmt.Errorf("connecting document store: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		graph, err = graphstore.Connect(gctx, cfg.Neo4j, logger)
		if err != nil {
			return fmt.Errorf("connecting graph store: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		// one store may have connected before the other failed
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if docs != nil {
			_ = docs.Close(closeCtx)
		}
		if graph != nil {
			_ = graph.Close(closeCtx)
		}
		return nil, nil, err
	}

	return docs, graph, nil
}
