package bootstrap

import (
	"context"
	"fmt"

	"kgrag/pkg/ai"
	oai "kgrag/pkg/ai/ollama"
	gai "kgrag/pkg/ai/openai"
	"kgrag/pkg/graph"
	"kgrag/pkg/loader"
	"kgrag/pkg/loader/io"
	"kgrag/pkg/loader/pdf"
	s3l "kgrag/pkg/loader/s3"
	"kgrag/pkg/query"
	"kgrag/pkg/store"
	"kgrag/pkg/store/neo4j"
)

// NewAIClient returns the model client selected by AIAdapter.
func NewAIClient(cfg Config) (ai.GraphAIClient, error) {
	switch cfg.AIAdapter {
	case AdapterOllama:
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			Model:       cfg.AIChatModel,
			Temperature: cfg.AITemperature,
			LenientJSON: cfg.AIJSONRepair,

			BaseURL: cfg.AIChatURL,
			ApiKey:  cfg.AIChatKey,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case AdapterOpenAI:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			Model:       cfg.AIChatModel,
			Temperature: cfg.AITemperature,
			LenientJSON: cfg.AIJSONRepair,

			ChatURL: cfg.AIChatURL,
			ChatKey: cfg.AIChatKey,
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", cfg.AIAdapter)
	}
}

// NewStore connects to Neo4j.
func NewStore(ctx context.Context, cfg Config) (*neo4j.GraphStore, error) {
	return neo4j.NewGraphStore(ctx, neo4j.NewGraphStoreParams{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUsername,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	})
}

// NewSource returns the document source selected by FilesSource.
func NewSource(ctx context.Context, cfg Config) (loader.Source, error) {
	switch cfg.FilesSource {
	case SourceLocal:
		return loader.DirSource{
			Dir:    cfg.FilesDir,
			Ext:    cfg.FilesExt,
			Loader: io.NewIOGraphFileLoader(),
		}, nil
	case SourceS3:
		if cfg.AWSBucket == "" {
			return nil, fmt.Errorf("AWS_BUCKET is required for FILES_SOURCE=s3")
		}
		l, err := s3l.NewS3GraphFileLoader(ctx, s3l.NewS3GraphFileLoaderParams{
			Bucket:    cfg.AWSBucket,
			Endpoint:  cfg.AWSEndpoint,
			Region:    cfg.AWSRegion,
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
		})
		if err != nil {
			return nil, err
		}
		return s3l.S3Source{Prefix: cfg.FilesDir, Ext: cfg.FilesExt, Loader: l}, nil
	default:
		return nil, fmt.Errorf("unknown FILES_SOURCE %q", cfg.FilesSource)
	}
}

// SourceFor returns a factory building a fresh source from cfg.
func SourceFor(cfg Config) SourceFactory {
	return func(ctx context.Context) (loader.Source, error) {
		return NewSource(ctx, cfg)
	}
}

// NewGraphClient builds the chunking and extraction side of ingestion.
func NewGraphClient(cfg Config, client ai.GraphAIClient) (*graph.GraphClient, error) {
	prompt, err := ai.LoadExtractionPrompt(cfg.ExtractPromptFile)
	if err != nil {
		return nil, err
	}

	tok, err := graph.NewTiktokenTokenizer(cfg.TokenEncoder)
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoder %s: %w", cfg.TokenEncoder, err)
	}

	extractor, err := graph.NewLLMExtractor(graph.NewLLMExtractorParams{
		Client:      client,
		Prompt:      prompt,
		MaxRetries:  cfg.AIMaxRetries,
		Temperature: cfg.AITemperature,
		LenientJSON: cfg.AIJSONRepair,
	})
	if err != nil {
		return nil, err
	}

	return graph.NewGraphClient(graph.NewGraphClientParams{
		Tokenizer:       tok,
		ChunkSize:       cfg.ChunkSize,
		ChunkOverlap:    cfg.ChunkOverlap,
		Extractor:       extractor,
		BaseEntityLabel: cfg.BaseEntityLabel,
		IncludeSource:   cfg.IncludeSource,
	})
}

// NewQueryClient builds the question answering client.
func NewQueryClient(cfg Config, client ai.GraphAIClient, s store.GraphStore, tracer query.Tracer) (*query.CypherQAClient, error) {
	prompt, err := ai.LoadCypherPrompt(cfg.CypherPromptFile)
	if err != nil {
		return nil, err
	}

	return query.NewCypherQAClient(query.NewCypherQAClientParams{
		Client:      client,
		Store:       s,
		Prompt:      prompt,
		TopK:        cfg.QueryTopK,
		Temperature: cfg.AITemperature,
		Tracer:      tracer,
	})
}

// NewPageLoader returns the PDF page loader.
func NewPageLoader() loader.PageLoader {
	return pdf.NewPDFGraphLoader(nil)
}
