package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"kgrag/pkg/ai"
	"kgrag/pkg/logger"
	"kgrag/pkg/store"
)

var cypherFence = regexp.MustCompile("(?s)```(.*?)```")

// CypherQAClient translates a question into Cypher using the schema of the
// store, executes it and lets the model phrase an answer from the rows.
//
// A CypherQAClient should be created using NewCypherQAClient.
type CypherQAClient struct {
	client ai.GraphAIClient
	store  store.GraphStore
	prompt *ai.CypherPrompt
	topK   int
	tracer Tracer
	opts   []ai.GenerateOption
}

// NewCypherQAClientParams defines the configuration of a CypherQAClient.
//
// TopK caps the rows handed to the answer step; zero means ten. Tracer is
// optional.
type NewCypherQAClientParams struct {
	Client      ai.GraphAIClient
	Store       store.GraphStore
	Prompt      *ai.CypherPrompt
	TopK        int
	Temperature float64
	Model       string
	Tracer      Tracer
}

var _ GraphQueryClient = (*CypherQAClient)(nil)

func NewCypherQAClient(params NewCypherQAClientParams) (*CypherQAClient, error) {
	if params.Client == nil || params.Store == nil || params.Prompt == nil {
		return nil, errors.New("query client: client, store and prompt are required")
	}
	topK := params.TopK
	if topK <= 0 {
		topK = 10
	}

	opts := []ai.GenerateOption{ai.WithTemperature(params.Temperature)}
	if params.Model != "" {
		opts = append(opts, ai.WithModel(params.Model))
	}

	return &CypherQAClient{
		client: params.Client,
		store:  params.Store,
		prompt: params.Prompt,
		topK:   topK,
		tracer: params.Tracer,
		opts:   opts,
	}, nil
}

// Answer runs the full question flow. A query the store rejects is an
// error, never an empty result.
func (c *CypherQAClient) Answer(ctx context.Context, question string) (Result, error) {
	res := Result{Question: question}

	start := time.Now()
	schema, err := c.store.Schema(ctx)
	recordStep(c.tracer, TraceEventSchema, start, nil, err)
	if err != nil {
		return res, fmt.Errorf("failed to read graph schema: %w", err)
	}

	start = time.Now()
	cypher, err := c.generate(ctx, schema, question)
	recordStep(c.tracer, TraceEventGenerate, start, func(e *TraceEvent) { e.Cypher = cypher }, err)
	if err != nil {
		return res, err
	}
	res.Cypher = cypher
	logger.Debug("Generated cypher", "cypher", cypher)

	start = time.Now()
	records, err := c.store.Query(ctx, cypher, nil)
	recordStep(c.tracer, TraceEventExecute, start, func(e *TraceEvent) {
		e.Cypher = cypher
		e.Records = len(records)
	}, err)
	if err != nil {
		return res, fmt.Errorf("failed to execute generated cypher: %w", err)
	}
	res.Records = records

	start = time.Now()
	answer, err := c.answer(ctx, records, question)
	recordStep(c.tracer, TraceEventAnswer, start, nil, err)
	if err != nil {
		return res, err
	}
	res.Answer = answer

	return res, nil
}

func (c *CypherQAClient) generate(ctx context.Context, schema, question string) (string, error) {
	prompt, err := c.prompt.RenderGeneration(schema, question)
	if err != nil {
		return "", fmt.Errorf("failed to render cypher prompt: %w", err)
	}

	out, err := c.client.GenerateCompletion(ctx, prompt, c.opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate cypher: %w", err)
	}

	cypher := ExtractCypher(out)
	if cypher == "" {
		return "", ErrEmptyCypher
	}
	return cypher, nil
}

func (c *CypherQAClient) answer(ctx context.Context, records []map[string]any, question string) (string, error) {
	if len(records) > c.topK {
		records = records[:c.topK]
	}
	if records == nil {
		records = []map[string]any{}
	}
	rows, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode query results: %w", err)
	}

	prompt, err := c.prompt.RenderQA(string(rows), question)
	if err != nil {
		return "", fmt.Errorf("failed to render answer prompt: %w", err)
	}

	out, err := c.client.GenerateCompletion(ctx, prompt, c.opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ExtractCypher returns the query inside a fenced block if there is one,
// without a leading "cypher" marker.
func ExtractCypher(text string) string {
	if m := cypherFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = strings.TrimSpace(text)
	if len(text) >= 6 && strings.EqualFold(text[:6], "cypher") {
		rest := text[6:]
		if rest == "" || rest[0] == ' ' || rest[0] == '\n' || rest[0] == '\t' || rest[0] == ':' {
			text = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
		}
	}
	return text
}
