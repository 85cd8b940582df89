package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"kgrag/internal/bootstrap"
	"kgrag/internal/util"
	"kgrag/pkg/logger"
	"kgrag/pkg/logger/console"
)

func main() {
	util.LoadEnv()
	cfg := bootstrap.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		Prefix: "pipeline",
	})
	logger.Init(consoleLogger)

	// GraphAiClient
	aiClient, err := bootstrap.NewAIClient(cfg)
	if err != nil {
		logger.Fatal("Could not create AI client", "err", err)
	}

	graphClient, err := bootstrap.NewGraphClient(cfg, aiClient)
	if err != nil {
		logger.Fatal("Could not create graph client", "err", err)
	}

	// Neo4j
	store, err := bootstrap.NewStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Unable to connect to graph database", "err", err)
	}
	defer store.Close(context.Background())

	if err := aiClient.LoadModel(ctx); err != nil {
		logger.Warn("Could not preload model", "model", cfg.AIChatModel, "err", err)
	}

	pipeline := &bootstrap.Pipeline{
		NewSource: bootstrap.SourceFor(cfg),
		NewPages:  bootstrap.NewPageLoader,
		Graph:     graphClient,
		Store:     store,
		Model:     aiClient,
	}

	if _, err := pipeline.Run(ctx); err != nil {
		store.Close(context.Background())
		logger.Fatal("Ingestion failed", "err", err)
	}
}
