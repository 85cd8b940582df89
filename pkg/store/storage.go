package store

import (
	"context"
	"errors"

	"kgrag/pkg/common"
)

const (
	// BaseEntityLabel is added to every entity node when AddOptions.BaseEntityLabel is set.
	BaseEntityLabel = "__Entity__"
	// DocumentLabel labels the chunk nodes written when AddOptions.IncludeSource is set.
	DocumentLabel = "Document"
	// MentionsType links a Document node to the entities extracted from it.
	MentionsType = "MENTIONS"
)

// ErrQueryUnsupported is returned by stores that cannot execute Cypher.
var ErrQueryUnsupported = errors.New("store does not support cypher queries")

// AddOptions controls how graph documents are persisted.
type AddOptions struct {
	BaseEntityLabel bool
	IncludeSource   bool
}

// GraphStore defines the interface for persisting and querying the knowledge
// graph. Writes are create-or-merge; there is no update or delete path.
type GraphStore interface {
	AddGraphDocuments(ctx context.Context, docs []common.GraphDocument, opts AddOptions) error

	// Schema describes the node labels, properties and relationship
	// patterns currently in the graph.
	Schema(ctx context.Context) (string, error)

	// Query runs a read-only Cypher statement and returns one map per record.
	Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	Close(ctx context.Context) error
}
