package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"kgrag/internal/bootstrap"
	"kgrag/internal/metrics"
	"kgrag/internal/repl"
	"kgrag/internal/util"
	"kgrag/pkg/logger"
	"kgrag/pkg/logger/console"
	"kgrag/pkg/query"
)

func main() {
	util.LoadEnv()
	cfg := bootstrap.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		Prefix: "rag",
	})
	logger.Init(consoleLogger)

	aiClient, err := bootstrap.NewAIClient(cfg)
	if err != nil {
		logger.Fatal("Could not create AI client", "err", err)
	}

	store, err := bootstrap.NewStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Unable to connect to graph database", "err", err)
	}
	defer store.Close(context.Background())

	queryClient, err := bootstrap.NewQueryClient(cfg, aiClient, store, query.MultiTracer{query.LogTracer{}, metrics.QueryTracer{}})
	if err != nil {
		logger.Fatal("Could not create query client", "err", err)
	}

	if err := repl.Run(ctx, os.Stdin, os.Stdout, queryClient); err != nil && ctx.Err() == nil {
		logger.Error("Question loop stopped", "err", err)
	}
}
