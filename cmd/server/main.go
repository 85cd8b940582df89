package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"kgrag/internal/bootstrap"
	"kgrag/internal/metrics"
	"kgrag/internal/server"
	"kgrag/internal/server/middleware"
	"kgrag/internal/util"
	"kgrag/pkg/logger"
	"kgrag/pkg/logger/console"
	"kgrag/pkg/query"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	util.LoadEnv()
	cfg := bootstrap.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		Prefix: "server",
	})
	logger.Init(consoleLogger)

	// one model client per flow; the ingest client's metrics are reset after every run
	queryAI, err := bootstrap.NewAIClient(cfg)
	if err != nil {
		logger.Fatal("Could not create AI client", "err", err)
	}
	ingestAI, err := bootstrap.NewAIClient(cfg)
	if err != nil {
		logger.Fatal("Could not create AI client", "err", err)
	}

	store, err := bootstrap.NewStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Unable to connect to graph database", "err", err)
	}
	defer store.Close(context.Background())

	queryClient, err := bootstrap.NewQueryClient(cfg, queryAI, store, query.MultiTracer{query.LogTracer{}, metrics.QueryTracer{}})
	if err != nil {
		logger.Fatal("Could not create query client", "err", err)
	}
	if err := metrics.RegisterQueryModel(prometheus.DefaultRegisterer, queryAI); err != nil {
		logger.Fatal("Could not register metrics", "err", err)
	}

	graphClient, err := bootstrap.NewGraphClient(cfg, ingestAI)
	if err != nil {
		logger.Fatal("Could not create graph client", "err", err)
	}
	// each ingest builds its own source; this only checks the settings
	if _, err := bootstrap.NewSource(ctx, cfg); err != nil {
		logger.Fatal("Could not create file source", "err", err)
	}

	app := &middleware.App{
		Query: queryClient,
		Ingest: &bootstrap.Pipeline{
			NewSource: bootstrap.SourceFor(cfg),
			NewPages:  bootstrap.NewPageLoader,
			Graph:     graphClient,
			Store:     store,
			Model:     ingestAI,
		},
		APIKey: cfg.APIKey,
	}

	server.Run(ctx, app, cfg.Port)
}
