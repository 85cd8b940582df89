package graph

import (
	"context"
	"fmt"

	"kgrag/pkg/common"
	"kgrag/pkg/loader"
	"kgrag/pkg/logger"
	"kgrag/pkg/store"
)

// ProcessStats summarises one ingestion run.
type ProcessStats struct {
	Files         int `json:"files"`
	Pages         int `json:"pages"`
	Chunks        int `json:"chunks"`
	Records       int `json:"records"`
	Dropped       int `json:"dropped"`
	Nodes         int `json:"nodes"`
	Relationships int `json:"relationships"`
}

// ProcessGraph ingests files in order. Pages are split into chunks, every
// chunk is extracted with one model call, and the graph documents of a file
// are persisted once the whole file has been extracted. The first error
// aborts the run; files persisted before it stay in the store.
func (g *GraphClient) ProcessGraph(
	ctx context.Context,
	files []loader.GraphFile,
	pages loader.PageLoader,
	storeClient store.GraphStore,
) (ProcessStats, error) {
	var stats ProcessStats

	for _, file := range files {
		docs, err := g.processFile(ctx, file, pages, &stats)
		if err != nil {
			return stats, err
		}

		if err := storeClient.AddGraphDocuments(ctx, docs, g.addOptions); err != nil {
			return stats, fmt.Errorf("failed to persist %s: %w", file.FilePath, err)
		}
		stats.Files++

		logger.Info("Persisted file", "file", file.FilePath, "documents", len(docs))
	}

	return stats, nil
}

func (g *GraphClient) processFile(
	ctx context.Context,
	file loader.GraphFile,
	pages loader.PageLoader,
	stats *ProcessStats,
) ([]common.GraphDocument, error) {
	texts, err := pages.GetPages(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file.FilePath, err)
	}

	var chunks []common.Chunk
	for i, text := range texts {
		pageChunks, err := ChunkDocument(g.tokenizer, file.FilePath, i+1, text, g.chunkSize, g.chunkOverlap)
		if err != nil {
			return nil, fmt.Errorf("failed to split %s page %d: %w", file.FilePath, i+1, err)
		}
		chunks = append(chunks, pageChunks...)
	}
	stats.Pages += len(texts)
	stats.Chunks += len(chunks)

	logger.Info("Loaded and split file", "file", file.FilePath, "pages", len(texts), "chunks", len(chunks))

	docs := make([]common.GraphDocument, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := g.extractor.Extract(ctx, chunk)
		if err != nil {
			return nil, err
		}

		doc, dropped := BuildGraphDocument(chunk, records)
		stats.Records += len(records)
		stats.Dropped += dropped
		stats.Nodes += len(doc.Nodes)
		stats.Relationships += len(doc.Relationships)

		logger.Debug("Extracted chunk",
			"file", file.FilePath,
			"chunk", fmt.Sprintf("%d/%d", i+1, len(chunks)),
			"records", len(records),
			"dropped", dropped,
		)

		docs = append(docs, doc)
	}

	return docs, nil
}
