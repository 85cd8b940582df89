package graph

import (
	"fmt"

	"kgrag/pkg/store"
)

// GraphClient runs the ingestion pipeline: page text is split into token
// windows, each window is sent to the extractor, and the resulting graph
// documents are persisted.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	tokenizer    Tokenizer
	chunkSize    int
	chunkOverlap int
	extractor    ExtractionService
	addOptions   store.AddOptions
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// ChunkSize and ChunkOverlap are measured in tokens of Tokenizer.
// BaseEntityLabel and IncludeSource are passed to the store on every write.
type NewGraphClientParams struct {
	Tokenizer    Tokenizer
	ChunkSize    int
	ChunkOverlap int
	Extractor    ExtractionService

	BaseEntityLabel bool
	IncludeSource   bool
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	tok, err := graph.NewTiktokenTokenizer("r50k_base")
//	if err != nil {
//		log.Fatal(err)
//	}
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		Tokenizer:    tok,
//		ChunkSize:    512,
//		ChunkOverlap: 24,
//		Extractor:    extractor,
//	})
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	if err := validateChunking(params.ChunkSize, params.ChunkOverlap); err != nil {
		return nil, err
	}
	if params.Tokenizer == nil {
		return nil, fmt.Errorf("graph client: tokenizer is required")
	}
	if params.Extractor == nil {
		return nil, fmt.Errorf("graph client: extractor is required")
	}

	return &GraphClient{
		tokenizer:    params.Tokenizer,
		chunkSize:    params.ChunkSize,
		chunkOverlap: params.ChunkOverlap,
		extractor:    params.Extractor,
		addOptions: store.AddOptions{
			BaseEntityLabel: params.BaseEntityLabel,
			IncludeSource:   params.IncludeSource,
		},
	}, nil
}
