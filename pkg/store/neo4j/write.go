package neo4j

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"kgrag/pkg/common"
	"kgrag/pkg/logger"
	"kgrag/pkg/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const (
	fallbackLabel = "Entity"
	fallbackType  = "RELATED_TO"
	// rows per UNWIND statement
	batchSize = 500
)

type statement struct {
	cypher string
	params map[string]any
}

// AddGraphDocuments merges every document in its own write transaction.
// Nodes are merged on (label, id); relationships on (start, type, end).
func (s *GraphStore) AddGraphDocuments(ctx context.Context, docs []common.GraphDocument, opts store.AddOptions) error {
	if opts.IncludeSource {
		s.ensureConstraints(ctx)
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, doc := range docs {
		stmts := buildStatements(doc, opts)
		if len(stmts) == 0 {
			continue
		}

		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			for _, st := range stmts {
				if _, err := tx.Run(ctx, st.cypher, st.params); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		if err != nil {
			return fmt.Errorf("failed to persist chunk %s: %w", doc.Source.ID, err)
		}

		logger.Debug("Persisted graph document",
			"chunk", doc.Source.ID,
			"nodes", len(doc.Nodes),
			"relationships", len(doc.Relationships),
		)
	}

	return nil
}

func buildStatements(doc common.GraphDocument, opts store.AddOptions) []statement {
	var stmts []statement

	if opts.IncludeSource {
		stmts = append(stmts, statement{
			cypher: fmt.Sprintf(
				"MERGE (d:%s {id: $id}) SET d.source = $source, d.page = $page, d.offset = $offset, d.text = $text",
				store.QuoteIdentifier(store.DocumentLabel),
			),
			params: map[string]any{
				"id":     doc.Source.ID,
				"source": doc.Source.Source,
				"page":   int64(doc.Source.Page),
				"offset": int64(doc.Source.Offset),
				"text":   doc.Source.Text,
			},
		})
	}

	byLabel := make(map[string][]any)
	for _, n := range doc.Nodes {
		label := store.SanitizeLabel(n.Type, fallbackLabel)
		byLabel[label] = append(byLabel[label], map[string]any{"id": n.ID})
	}
	for _, label := range sortedKeys(byLabel) {
		rows := byLabel[label]
		_ = store.ChunkRange(len(rows), batchSize, func(start, end int) error {
			stmts = append(stmts, nodeStatement(label, rows[start:end], doc.Source.ID, opts))
			return nil
		})
	}

	type relKey struct{ start, typ, end string }
	byRel := make(map[relKey][]any)
	for _, r := range doc.Relationships {
		k := relKey{
			start: store.SanitizeLabel(r.Source.Type, fallbackLabel),
			typ:   store.SanitizeLabel(r.Type, fallbackType),
			end:   store.SanitizeLabel(r.Target.Type, fallbackLabel),
		}
		byRel[k] = append(byRel[k], map[string]any{"source": r.Source.ID, "target": r.Target.ID})
	}
	relKeys := make([]relKey, 0, len(byRel))
	for k := range byRel {
		relKeys = append(relKeys, k)
	}
	sort.Slice(relKeys, func(i, j int) bool {
		a, b := relKeys[i], relKeys[j]
		return a.start+a.typ+a.end < b.start+b.typ+b.end
	})
	for _, k := range relKeys {
		rows := byRel[k]
		_ = store.ChunkRange(len(rows), batchSize, func(start, end int) error {
			stmts = append(stmts, relationshipStatement(k.start, k.typ, k.end, rows[start:end], opts))
			return nil
		})
	}

	return stmts
}

func nodeStatement(label string, rows []any, documentID string, opts store.AddOptions) statement {
	var b strings.Builder
	b.WriteString("UNWIND $rows AS row\n")
	fmt.Fprintf(&b, "MERGE (n:%s {id: row.id})\n", store.QuoteIdentifier(label))
	if opts.BaseEntityLabel {
		fmt.Fprintf(&b, "SET n:%s\n", store.QuoteIdentifier(store.BaseEntityLabel))
	}

	params := map[string]any{"rows": rows}
	if opts.IncludeSource {
		fmt.Fprintf(&b, "WITH n\nMATCH (d:%s {id: $document})\nMERGE (d)-[:%s]->(n)\n",
			store.QuoteIdentifier(store.DocumentLabel),
			store.QuoteIdentifier(store.MentionsType),
		)
		params["document"] = documentID
	}

	return statement{cypher: strings.TrimRight(b.String(), "\n"), params: params}
}

func relationshipStatement(start, typ, end string, rows []any, opts store.AddOptions) statement {
	var b strings.Builder
	b.WriteString("UNWIND $rows AS row\n")
	fmt.Fprintf(&b, "MERGE (s:%s {id: row.source})\n", store.QuoteIdentifier(start))
	fmt.Fprintf(&b, "MERGE (t:%s {id: row.target})\n", store.QuoteIdentifier(end))
	if opts.BaseEntityLabel {
		base := store.QuoteIdentifier(store.BaseEntityLabel)
		fmt.Fprintf(&b, "SET s:%s, t:%s\n", base, base)
	}
	fmt.Fprintf(&b, "MERGE (s)-[:%s]->(t)", store.QuoteIdentifier(typ))

	return statement{cypher: b.String(), params: map[string]any{"rows": rows}}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
