package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kgrag/internal/metrics"
	"kgrag/pkg/ai"
	"kgrag/pkg/graph"
	"kgrag/pkg/loader"
	"kgrag/pkg/logger"
	"kgrag/pkg/store"
)

// ErrIngestRunning is returned by TryRun while another run is in progress.
var ErrIngestRunning = errors.New("ingestion already running")

// SourceFactory builds the document source of one ingestion run.
type SourceFactory func(ctx context.Context) (loader.Source, error)

// Pipeline is the ingestion flow: discover the source, extract every file
// and persist the result. Source and page loaders are built per run so
// their caches never outlive it.
type Pipeline struct {
	NewSource SourceFactory
	NewPages  func() loader.PageLoader
	Graph     *graph.GraphClient
	Store     store.GraphStore
	Model     ai.GraphAIClient

	running sync.Mutex
}

// Run ingests everything the source discovers. Runs are serialised.
func (p *Pipeline) Run(ctx context.Context) (graph.ProcessStats, error) {
	p.running.Lock()
	defer p.running.Unlock()
	return p.run(ctx)
}

// TryRun is Run, failing with ErrIngestRunning instead of waiting.
func (p *Pipeline) TryRun(ctx context.Context) (graph.ProcessStats, error) {
	if !p.running.TryLock() {
		return graph.ProcessStats{}, ErrIngestRunning
	}
	defer p.running.Unlock()
	return p.run(ctx)
}

func (p *Pipeline) run(ctx context.Context) (stats graph.ProcessStats, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveIngest(stats, err)
		if p.Model != nil {
			m := p.Model.GetMetrics()
			p.Model.ResetMetrics()
			metrics.ObserveModel(m)
			logger.Info("Model usage",
				"requests", m.Requests,
				"input_tokens", m.InputTokens,
				"output_tokens", m.OutputTokens,
				"duration_ms", m.DurationMs,
				"tokens_per_second", m.TokenPerSecond,
			)
		}
	}()

	source, err := p.NewSource(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to create file source: %w", err)
	}

	files, err := source.Discover(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to discover files: %w", err)
	}
	logger.Info("Discovered files", "count", len(files))

	stats, err = p.Graph.ProcessGraph(ctx, files, p.NewPages(), p.Store)
	if err != nil {
		return stats, err
	}

	logger.Info("Ingestion finished",
		"files", stats.Files,
		"pages", stats.Pages,
		"chunks", stats.Chunks,
		"records", stats.Records,
		"dropped", stats.Dropped,
		"nodes", stats.Nodes,
		"relationships", stats.Relationships,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return stats, nil
}
