package neo4j

import (
	"context"
	"fmt"
	"sync"

	"kgrag/pkg/logger"
	"kgrag/pkg/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphStore persists graph documents in Neo4j over Bolt.
//
// A GraphStore should be created using NewGraphStore.
type GraphStore struct {
	driver   neo4j.DriverWithContext
	database string

	constraintsOnce sync.Once
}

var _ store.GraphStore = (*GraphStore)(nil)

// NewGraphStoreParams defines the connection settings.
type NewGraphStoreParams struct {
	URI      string
	Username string
	Password string
	Database string
}

// NewGraphStore connects to Neo4j and verifies the connection.
//
// Example:
//
//	s, err := neo4j.NewGraphStore(ctx, neo4j.NewGraphStoreParams{
//		URI:      "bolt://localhost:7687",
//		Username: "neo4j",
//		Password: os.Getenv("NEO4J_PASSWORD"),
//	})
func NewGraphStore(ctx context.Context, params NewGraphStoreParams) (*GraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(
		params.URI,
		neo4j.BasicAuth(params.Username, params.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", params.URI, err)
	}

	return &GraphStore{
		driver:   driver,
		database: params.Database,
	}, nil
}

func (s *GraphStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

// Close releases the driver's connections.
func (s *GraphStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Query runs cypher in a read-access session. Statements that write are
// rejected by the server.
func (s *GraphStore) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		rows := make([]map[string]any, 0, len(records))
		for _, r := range records {
			row := make(map[string]any, len(r.Keys))
			for i, key := range r.Keys {
				row[key] = plainValue(r.Values[i])
			}
			rows = append(rows, row)
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("cypher query failed: %w", err)
	}

	return result.([]map[string]any), nil
}

func (s *GraphStore) ensureConstraints(ctx context.Context) {
	s.constraintsOnce.Do(func() {
		session := s.session(ctx, neo4j.AccessModeWrite)
		defer session.Close(ctx)

		query := fmt.Sprintf(
			"CREATE CONSTRAINT document_id IF NOT EXISTS FOR (d:%s) REQUIRE d.id IS UNIQUE",
			store.QuoteIdentifier(store.DocumentLabel),
		)
		if _, err := session.Run(ctx, query, nil); err != nil {
			logger.Warn("Failed to create document constraint", "err", err)
		}
	})
}

// plainValue converts driver graph types into maps so results can be
// rendered as JSON.
func plainValue(v any) any {
	switch val := v.(type) {
	case neo4j.Node:
		props := make(map[string]any, len(val.Props)+1)
		for k, p := range val.Props {
			props[k] = plainValue(p)
		}
		props["_labels"] = val.Labels
		return props
	case neo4j.Relationship:
		props := make(map[string]any, len(val.Props)+1)
		for k, p := range val.Props {
			props[k] = plainValue(p)
		}
		props["_type"] = val.Type
		return props
	case neo4j.Path:
		nodes := make([]any, 0, len(val.Nodes))
		for _, n := range val.Nodes {
			nodes = append(nodes, plainValue(n))
		}
		rels := make([]any, 0, len(val.Relationships))
		for _, r := range val.Relationships {
			rels = append(rels, plainValue(r))
		}
		return map[string]any{"nodes": nodes, "relationships": rels}
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plainValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = plainValue(item)
		}
		return out
	default:
		return v
	}
}
