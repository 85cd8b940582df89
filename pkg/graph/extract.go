package graph

import (
	"context"
	"errors"
	"fmt"

	"kgrag/internal/util"
	"kgrag/pkg/ai"
	"kgrag/pkg/common"

	"github.com/go-playground/validator"
)

// ErrInvalidRecord is returned when a record from the model misses one of
// its five fields.
var ErrInvalidRecord = errors.New("invalid relation record")

const (
	extractionName        = "relations"
	extractionDescription = "List of head, relation and tail tuples extracted from the text."
)

// ExtractionService is the model side of ingestion: it turns the text of a
// chunk into relation records.
type ExtractionService interface {
	Extract(ctx context.Context, chunk common.Chunk) ([]common.RelationRecord, error)
}

// LLMExtractor prompts a GraphAIClient with the extraction prompt and
// decodes a list of relation records constrained by their JSON schema.
//
// A LLMExtractor should be created using NewLLMExtractor.
type LLMExtractor struct {
	client     ai.GraphAIClient
	prompt     *ai.ExtractionPrompt
	schema     string
	validate   *validator.Validate
	maxRetries int
	opts       []ai.GenerateOption
}

// NewLLMExtractorParams defines the configuration of an LLMExtractor.
//
// MaxRetries is the total number of attempts per chunk; values below one
// mean a single attempt.
type NewLLMExtractorParams struct {
	Client      ai.GraphAIClient
	Prompt      *ai.ExtractionPrompt
	MaxRetries  int
	Temperature float64
	LenientJSON bool
}

// NewLLMExtractor creates an extractor using the given client and prompt.
func NewLLMExtractor(params NewLLMExtractorParams) (*LLMExtractor, error) {
	if params.Client == nil || params.Prompt == nil {
		return nil, errors.New("extractor: client and prompt are required")
	}

	schema, err := ai.SchemaJSON([]common.RelationRecord{})
	if err != nil {
		return nil, fmt.Errorf("failed to build record schema: %w", err)
	}

	return &LLMExtractor{
		client:     params.Client,
		prompt:     params.Prompt,
		schema:     schema,
		validate:   validator.New(),
		maxRetries: params.MaxRetries,
		opts: []ai.GenerateOption{
			ai.WithTemperature(params.Temperature),
			ai.WithLenientJSON(params.LenientJSON),
		},
	}, nil
}

// Extract sends one chunk to the model. Malformed output or a record
// missing a field fails the whole chunk without a retry; only transport
// errors are retried.
func (e *LLMExtractor) Extract(ctx context.Context, chunk common.Chunk) ([]common.RelationRecord, error) {
	msgs, err := e.prompt.Render(e.schema, chunk.Text)
	if err != nil {
		return nil, err
	}

	var (
		system []string
		user   string
	)
	for _, m := range msgs {
		if m.Role == ai.RoleSystem {
			system = append(system, m.Message)
			continue
		}
		user = m.Message
	}

	opts := append([]ai.GenerateOption{ai.WithSystemPrompts(system...)}, e.opts...)

	records, err := util.RetryWithContext(ctx, e.maxRetries, func(ctx context.Context) ([]common.RelationRecord, error) {
		var records []common.RelationRecord
		if err := e.client.GenerateCompletionWithFormat(
			ctx,
			extractionName,
			extractionDescription,
			user,
			&records,
			opts...,
		); err != nil {
			if errors.Is(err, ai.ErrMalformedOutput) {
				return nil, util.Permanent(err)
			}
			return nil, err
		}

		for i := range records {
			if err := e.validate.Struct(records[i]); err != nil {
				return nil, util.Permanent(fmt.Errorf("%w: record %d: %v", ErrInvalidRecord, i, err))
			}
		}
		return records, nil
	})
	if err != nil {
		return nil, fmt.Errorf("extraction failed for chunk %s of %s (page %d): %w", chunk.ID, chunk.Source, chunk.Page, err)
	}

	return records, nil
}
