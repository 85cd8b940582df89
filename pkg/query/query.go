package query

import (
	"context"
	"errors"
)

// ErrEmptyCypher is returned when the model produced no query.
var ErrEmptyCypher = errors.New("model returned an empty cypher query")

// Result is the outcome of answering one question. Records holds the raw
// rows returned by the generated query; Answer is the model's summary of
// them and may be empty.
type Result struct {
	Question string           `json:"question"`
	Cypher   string           `json:"cypher"`
	Records  []map[string]any `json:"records"`
	Answer   string           `json:"answer"`
}

// GraphQueryClient answers natural-language questions against a graph.
type GraphQueryClient interface {
	Answer(ctx context.Context, question string) (Result, error)
}
