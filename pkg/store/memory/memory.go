// Package memory is an in-process GraphStore with the same merge semantics
// as the Neo4j store. It cannot execute Cypher.
package memory

import (
	"context"
	"sort"
	"sync"

	"kgrag/pkg/common"
	"kgrag/pkg/store"
)

type node struct {
	id    string
	label string
	base  bool
}

func nodeKey(n common.Node) string {
	return common.Node{ID: n.ID, Type: store.SanitizeLabel(n.Type, "Entity")}.Key()
}

type relationship struct {
	source string
	target string
	typ    string
}

type document struct {
	chunk    common.Chunk
	mentions map[string]struct{}
}

// GraphStore keeps nodes, relationships and source documents in maps keyed
// by their merge identity.
type GraphStore struct {
	mu            sync.RWMutex
	nodes         map[string]*node
	relationships map[relationship]struct{}
	documents     map[string]*document
}

var _ store.GraphStore = (*GraphStore)(nil)

// New returns an empty in-memory graph.
func New() *GraphStore {
	return &GraphStore{
		nodes:         make(map[string]*node),
		relationships: make(map[relationship]struct{}),
		documents:     make(map[string]*document),
	}
}

// AddGraphDocuments merges the documents into the graph.
func (s *GraphStore) AddGraphDocuments(ctx context.Context, docs []common.GraphDocument, opts store.AddOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		var src *document
		if opts.IncludeSource {
			src = s.documents[doc.Source.ID]
			if src == nil {
				src = &document{chunk: doc.Source, mentions: make(map[string]struct{})}
				s.documents[doc.Source.ID] = src
			}
		}

		for _, n := range doc.Nodes {
			s.mergeNode(n, opts)
			if src != nil {
				src.mentions[nodeKey(n)] = struct{}{}
			}
		}

		for _, r := range doc.Relationships {
			s.mergeNode(r.Source, opts)
			s.mergeNode(r.Target, opts)
			s.relationships[relationship{
				source: nodeKey(r.Source),
				target: nodeKey(r.Target),
				typ:    store.SanitizeLabel(r.Type, "RELATED_TO"),
			}] = struct{}{}
		}
	}

	return nil
}

func (s *GraphStore) mergeNode(n common.Node, opts store.AddOptions) {
	key := nodeKey(n)
	existing, ok := s.nodes[key]
	if !ok {
		existing = &node{id: n.ID, label: store.SanitizeLabel(n.Type, "Entity")}
		s.nodes[key] = existing
	}
	if opts.BaseEntityLabel {
		existing.base = true
	}
}

// Schema renders the labels and relationship patterns present in the graph.
func (s *GraphStore) Schema(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schema := store.NewGraphSchema()
	for _, n := range s.nodes {
		schema.AddNodeProperty(n.label, store.Property{Name: "id", Type: "STRING"})
	}
	for r := range s.relationships {
		schema.AddPattern(store.Pattern{Start: s.nodes[r.source].label, Type: r.typ, End: s.nodes[r.target].label})
	}
	if len(s.documents) > 0 {
		for _, p := range []store.Property{
			{Name: "id", Type: "STRING"},
			{Name: "source", Type: "STRING"},
			{Name: "page", Type: "INTEGER"},
			{Name: "offset", Type: "INTEGER"},
			{Name: "text", Type: "STRING"},
		} {
			schema.AddNodeProperty(store.DocumentLabel, p)
		}
		for _, d := range s.documents {
			for key := range d.mentions {
				schema.AddPattern(store.Pattern{Start: store.DocumentLabel, Type: store.MentionsType, End: s.nodes[key].label})
			}
		}
	}

	return schema.String(), nil
}

// Query is not supported by the in-memory graph.
func (s *GraphStore) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return nil, store.ErrQueryUnsupported
}

// Close is a no-op.
func (s *GraphStore) Close(ctx context.Context) error {
	return nil
}

// Nodes returns all nodes ordered by type and name.
func (s *GraphStore) Nodes() []common.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, common.Node{ID: n.id, Type: n.label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Labels returns the labels of the node with the given identity.
func (s *GraphStore) Labels(n common.Node) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.nodes[nodeKey(n)]
	if !ok {
		return nil
	}
	labels := []string{existing.label}
	if existing.base {
		labels = append(labels, store.BaseEntityLabel)
	}
	sort.Strings(labels)
	return labels
}

// RelationshipCount returns the number of distinct relationships.
func (s *GraphStore) RelationshipCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.relationships)
}

// Documents returns the source chunks persisted with IncludeSource, and the
// number of nodes each mentions.
func (s *GraphStore) Documents() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(s.documents))
	for id, d := range s.documents {
		out[id] = len(d.mentions)
	}
	return out
}
